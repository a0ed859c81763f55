package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/formforge/formforge/internal/audit"
	"github.com/formforge/formforge/internal/auth"
	"github.com/formforge/formforge/internal/form"
	"github.com/formforge/formforge/internal/rbac"
)

type formPayload struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	HeaderImage string          `json:"headerImage"`
	Questions   []form.Question `json:"questions"`
	IsPublished bool            `json:"isPublished"`
}

func CreateFormHandler(store form.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req formPayload
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Title) == "" {
			http.Error(w, "title required", http.StatusBadRequest)
			return
		}
		f := form.Form{
			ID:          uuid.NewString(),
			Title:       req.Title,
			Description: req.Description,
			HeaderImage: req.HeaderImage,
			Questions:   req.Questions,
			IsPublished: req.IsPublished,
			OwnerID:     auth.SubjectFromContext(r.Context()), // empty: anonymous form
			CreatedAt:   time.Now().Unix(),
		}
		if err := f.Validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := store.PutForm(r.Context(), f); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, f)
	}
}

// GetFormHandler serves a form. Answer keys are stripped unless the
// requester owns the form, so respondents never see correct answers.
func GetFormHandler(store form.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := store.GetForm(r.Context(), chi.URLParam(r, "formID"))
		if err != nil {
			writeError(w, err)
			return
		}
		if !isOwner(r.Context(), f) {
			f = f.WithoutAnswerKeys()
		}
		writeJSON(w, http.StatusOK, f)
	}
}

func ListFormsHandler(store form.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		forms, err := store.ListFormsByOwner(r.Context(), auth.SubjectFromContext(r.Context()))
		if err != nil {
			writeError(w, err)
			return
		}
		if forms == nil {
			forms = []form.Form{}
		}
		writeJSON(w, http.StatusOK, forms)
	}
}

func UpdateFormHandler(store form.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cur, err := store.GetForm(r.Context(), chi.URLParam(r, "formID"))
		if err != nil {
			writeError(w, err)
			return
		}
		if !isOwner(r.Context(), cur) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		var req formPayload
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		cur.Title = req.Title
		cur.Description = req.Description
		cur.HeaderImage = req.HeaderImage
		cur.Questions = req.Questions
		cur.IsPublished = req.IsPublished
		if err := cur.Validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := store.PutForm(r.Context(), cur); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, cur)
	}
}

// DeleteFormHandler removes a form and, via the store, all its responses.
func DeleteFormHandler(store form.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := store.GetForm(r.Context(), chi.URLParam(r, "formID"))
		if err != nil {
			writeError(w, err)
			return
		}
		if !isOwner(r.Context(), f) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		if err := store.DeleteForm(r.Context(), f.ID); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func PublishFormHandler(store form.Store, log *audit.Log) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := store.GetForm(r.Context(), chi.URLParam(r, "formID"))
		if err != nil {
			writeError(w, err)
			return
		}
		if !isOwner(r.Context(), f) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		if !f.IsPublished {
			f.IsPublished = true
			if err := store.PutForm(r.Context(), f); err != nil {
				writeError(w, err)
				return
			}
			if log != nil {
				_ = log.Append(r.Context(), audit.EventFormPublished, f.ID, map[string]string{"owner_id": f.OwnerID})
			}
		}
		writeJSON(w, http.StatusOK, f)
	}
}

// isOwner reports whether the request may mutate the form: its owner, an
// admin, or anyone when the form is anonymous (no owner recorded).
func isOwner(ctx context.Context, f form.Form) bool {
	if f.OwnerID == "" {
		return true
	}
	if rbac.RoleFromContext(ctx) == "admin" {
		return true
	}
	return auth.SubjectFromContext(ctx) == f.OwnerID
}
