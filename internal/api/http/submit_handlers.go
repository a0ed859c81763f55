package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/formforge/formforge/internal/auth"
	"github.com/formforge/formforge/internal/form"
	"github.com/formforge/formforge/internal/submit"
)

type submitResult struct {
	Status      submit.Status  `json:"status"`
	ID          string         `json:"id"`
	FormID      string         `json:"formId"`
	Score       form.Report    `json:"score"`
	Answers     form.AnswerSet `json:"answers"`
	SubmittedAt int64          `json:"submittedAt"`
}

func toResult(status submit.Status, r form.Response) submitResult {
	return submitResult{
		Status:      status,
		ID:          r.ID,
		FormID:      r.FormID,
		Score:       r.Score,
		Answers:     r.Answers,
		SubmittedAt: r.SubmittedAt,
	}
}

// SubmitResponseHandler accepts a respondent's answers. 201 on first
// submission; 409 with the existing result embedded when this respondent
// already submitted, so the client need not re-fetch.
func SubmitResponseHandler(svc *submit.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Answers form.AnswerSet `json:"answers"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		resp, status, err := svc.Submit(r.Context(), chi.URLParam(r, "formID"), auth.SubjectFromContext(r.Context()), req.Answers)
		if err != nil {
			writeError(w, err)
			return
		}
		code := http.StatusCreated
		if status == submit.StatusAlreadySubmitted {
			code = http.StatusConflict
		}
		writeJSON(w, code, toResult(status, resp))
	}
}

// MyResponseHandler tells the client whether to render the draft editor or
// the read-only result view.
func MyResponseHandler(svc *submit.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, ok, err := svc.GetForRespondent(r.Context(), chi.URLParam(r, "formID"), auth.SubjectFromContext(r.Context()))
		if err != nil {
			writeError(w, err)
			return
		}
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"status": "not_submitted"})
			return
		}
		writeJSON(w, http.StatusOK, toResult(submit.StatusAlreadySubmitted, resp))
	}
}
