package http

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/formforge/formforge/internal/audit"
	"github.com/formforge/formforge/internal/auth"
	"github.com/formforge/formforge/internal/form"
	"github.com/formforge/formforge/internal/rbac"
	"github.com/formforge/formforge/internal/storage"
	"github.com/formforge/formforge/internal/submit"
)

type Deps struct {
	DB     *sql.DB
	Store  form.Store
	Submit *submit.Service
	Auth   *auth.Service
	Blobs  storage.BlobStore
	Audit  *audit.Log
}

// Mount attaches all API routes. Form reads and anonymous authoring are
// open (with identity attached when present); submission and owner surfaces
// require a verified identity.
func Mount(r chi.Router, d Deps) {
	r.Post("/auth/register", auth.RegisterHandler(d.DB, d.Auth))
	r.Post("/auth/login", auth.LoginHandler(d.DB, d.Auth))

	r.Group(func(pr chi.Router) {
		pr.Use(auth.Optional(d.Auth))

		pr.Post("/forms", CreateFormHandler(d.Store))
		pr.Get("/forms/{formID}", GetFormHandler(d.Store))
		pr.Put("/forms/{formID}", UpdateFormHandler(d.Store))
		pr.Delete("/forms/{formID}", DeleteFormHandler(d.Store))
		pr.Post("/forms/{formID}/publish", PublishFormHandler(d.Store, d.Audit))
	})

	r.Group(func(pr chi.Router) {
		pr.Use(auth.Require(d.Auth))

		pr.With(rbac.Require("form:list-own")).
			Get("/forms", ListFormsHandler(d.Store))

		pr.With(rbac.Require("response:submit")).
			Post("/forms/{formID}/responses", SubmitResponseHandler(d.Submit))
		pr.Get("/forms/{formID}/responses/me", MyResponseHandler(d.Submit))
		pr.With(rbac.RequireAny("responses:view-own", "responses:view-all")).
			Get("/forms/{formID}/responses", ListResponsesHandler(d.Store))

		pr.With(rbac.Require("asset:upload")).
			Post("/assets", UploadAssetHandler(d.Blobs))

		pr.With(rbac.Require("audit:view")).
			Get("/admin/events", RecentEventsHandler(d.Audit))
	})

	r.Get("/assets/*", ServeAssetHandler(d.Blobs))
}

// RecentEventsHandler exposes the audit trail to admins.
func RecentEventsHandler(log *audit.Log) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if log == nil {
			http.Error(w, "audit log disabled", http.StatusNotFound)
			return
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		events, err := log.Recent(r.Context(), limit)
		if err != nil {
			writeError(w, err)
			return
		}
		if events == nil {
			events = []audit.Event{}
		}
		writeJSON(w, http.StatusOK, events)
	}
}
