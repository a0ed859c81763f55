package form

import (
	"context"
	"errors"
)

var (
	ErrFormNotFound     = errors.New("form not found")
	ErrResponseNotFound = errors.New("response not found")
)

// Store is the durable form/response storage contract. Implementations must
// enforce at most one response per (formID, respondentID); the insert is the
// synchronization point for racing submissions.
type Store interface {
	PutForm(ctx context.Context, f Form) error
	GetForm(ctx context.Context, id string) (Form, error)
	ListFormsByOwner(ctx context.Context, ownerID string) ([]Form, error)
	DeleteForm(ctx context.Context, id string) error

	// InsertResponseIfAbsent persists r unless a response already exists for
	// (r.FormID, r.RespondentID). It returns the stored response and whether
	// this call created it; on conflict the pre-existing response is returned
	// and r is discarded.
	InsertResponseIfAbsent(ctx context.Context, r Response) (Response, bool, error)
	GetResponse(ctx context.Context, formID, respondentID string) (Response, error)
	ListResponses(ctx context.Context, formID string) ([]Response, error)
}
