package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/formforge/formforge/internal/form"
	"github.com/formforge/formforge/internal/submit"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain sentinels to HTTP statuses. Unknown errors are
// reported as transient; callers may retry submits safely because the insert
// is idempotent.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, form.ErrFormNotFound):
		http.Error(w, "form not found", http.StatusNotFound)
	case errors.Is(err, form.ErrResponseNotFound):
		http.Error(w, "response not found", http.StatusNotFound)
	case errors.Is(err, submit.ErrFormNotPublished):
		http.Error(w, "form not available yet", http.StatusForbidden)
	case errors.Is(err, submit.ErrUnauthorized):
		http.Error(w, "authentication required", http.StatusUnauthorized)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
