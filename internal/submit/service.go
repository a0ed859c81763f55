// Package submit orchestrates the response submission lifecycle: authorize,
// load, score, and persist exactly once per (form, respondent).
package submit

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/formforge/formforge/internal/form"
	"github.com/formforge/formforge/internal/scoring"
)

type Status string

const (
	// StatusCreated means this call persisted the response.
	StatusCreated Status = "created"
	// StatusAlreadySubmitted means a response already existed; the prior
	// result is returned and the new answers are discarded. This is the
	// idempotent success path, not an error.
	StatusAlreadySubmitted Status = "already_submitted"
)

var (
	ErrUnauthorized     = errors.New("respondent identity required")
	ErrFormNotPublished = errors.New("form not published")
)

// Recorder receives audit events. audit.Log satisfies it.
type Recorder interface {
	Append(ctx context.Context, typ, key string, data any) error
}

type Service struct {
	store form.Store
	audit Recorder
	now   func() time.Time
	newID func() string
}

type Option func(*Service)

func WithRecorder(r Recorder) Option { return func(s *Service) { s.audit = r } }

func NewService(store form.Store, opts ...Option) *Service {
	s := &Service{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		newID: func() string { return strings.ReplaceAll(uuid.NewString(), "-", "") },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Submit scores answers and persists a response exactly once. A race between
// concurrent submits for the same (formID, respondentID) is resolved by the
// store's insert-if-absent; the loser gets the winner's response back with
// StatusAlreadySubmitted. Transient storage failures propagate unwrapped so
// the caller may retry the whole call safely.
func (s *Service) Submit(ctx context.Context, formID, respondentID string, answers form.AnswerSet) (form.Response, Status, error) {
	if respondentID == "" {
		return form.Response{}, "", ErrUnauthorized
	}
	f, err := s.store.GetForm(ctx, formID)
	if err != nil {
		return form.Response{}, "", err
	}
	if !f.IsPublished {
		return form.Response{}, "", ErrFormNotPublished
	}
	if answers == nil {
		answers = form.AnswerSet{}
	}

	r := form.Response{
		ID:           s.newID(),
		FormID:       formID,
		RespondentID: respondentID,
		Answers:      answers,
		Score:        scoring.Score(f.Questions, answers),
		SubmittedAt:  s.now().Unix(),
	}
	stored, created, err := s.store.InsertResponseIfAbsent(ctx, r)
	if err != nil {
		return form.Response{}, "", err
	}
	if !created {
		return stored, StatusAlreadySubmitted, nil
	}
	if s.audit != nil {
		// Best-effort: the response is already durable.
		_ = s.audit.Append(ctx, "response_created", stored.ID, map[string]any{
			"form_id":    formID,
			"user_id":    respondentID,
			"percentage": stored.Score.Percentage,
		})
	}
	return stored, StatusCreated, nil
}

// GetForRespondent reports whether the respondent has already submitted, so
// the client can choose between the draft flow and the read-only result view.
func (s *Service) GetForRespondent(ctx context.Context, formID, respondentID string) (form.Response, bool, error) {
	if respondentID == "" {
		return form.Response{}, false, ErrUnauthorized
	}
	r, err := s.store.GetResponse(ctx, formID, respondentID)
	if errors.Is(err, form.ErrResponseNotFound) {
		return form.Response{}, false, nil
	}
	if err != nil {
		return form.Response{}, false, err
	}
	return r, true, nil
}
