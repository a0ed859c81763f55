package rbac

// Default policy. Authors build and publish forms and read their own
// results; respondents only submit. Admin gets everything.
var RolePermissions = map[string][]string{
	"author": {
		"form:list-own",
		"responses:view-own",
		"response:submit",
		"asset:upload",
	},
	"respondent": {
		"response:submit",
	},
	"admin": {
		"*",
	},
}
