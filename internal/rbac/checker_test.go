package rbac

import "testing"

func TestCheckerDefaultPolicy(t *testing.T) {
	c := NewChecker(nil)
	tests := []struct {
		role, perm string
		want       bool
	}{
		{"author", "form:list-own", true},
		{"author", "response:submit", true},
		{"author", "responses:view-all", false},
		{"respondent", "response:submit", true},
		{"respondent", "asset:upload", false},
		{"admin", "audit:view", true},
		{"admin", "anything:at-all", true},
		{"", "response:submit", false},
		{"unknown-role", "response:submit", false},
	}
	for _, tc := range tests {
		if got := c.Has(tc.role, tc.perm); got != tc.want {
			t.Errorf("Has(%q, %q) = %v, want %v", tc.role, tc.perm, got, tc.want)
		}
	}
}

func TestCheckerAny(t *testing.T) {
	c := NewChecker(nil)
	if !c.Any("author", "responses:view-own", "responses:view-all") {
		t.Fatal("author should match via view-own")
	}
	if c.Any("respondent", "responses:view-own", "responses:view-all") {
		t.Fatal("respondent matched a view permission")
	}
}

func TestMatchPermPrefixWildcard(t *testing.T) {
	c := NewChecker(map[string][]string{"ops": {"form:*"}})
	if !c.Has("ops", "form:list-own") {
		t.Fatal("prefix wildcard should match")
	}
	if c.Has("ops", "response:submit") {
		t.Fatal("prefix wildcard leaked across namespaces")
	}
}
