package form

import (
	"context"
	"sync"
)

// memoryStore backs tests and offline mode. The mutex around the
// check-and-insert in InsertResponseIfAbsent provides the same atomicity the
// SQL store gets from its unique constraint.
type memoryStore struct {
	mu        sync.RWMutex
	forms     map[string]Form
	responses map[string]Response // key: formID + "\x00" + respondentID
}

func NewInMemoryStore() Store {
	return &memoryStore{
		forms:     map[string]Form{},
		responses: map[string]Response{},
	}
}

func respKey(formID, respondentID string) string { return formID + "\x00" + respondentID }

func (m *memoryStore) PutForm(_ context.Context, f Form) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forms[f.ID] = f
	return nil
}

func (m *memoryStore) GetForm(_ context.Context, id string) (Form, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.forms[id]
	if !ok {
		return Form{}, ErrFormNotFound
	}
	return f, nil
}

func (m *memoryStore) ListFormsByOwner(_ context.Context, ownerID string) ([]Form, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Form
	for _, f := range m.forms {
		if f.OwnerID == ownerID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *memoryStore) DeleteForm(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.forms[id]; !ok {
		return ErrFormNotFound
	}
	delete(m.forms, id)
	for k, r := range m.responses {
		if r.FormID == id {
			delete(m.responses, k)
		}
	}
	return nil
}

func (m *memoryStore) InsertResponseIfAbsent(_ context.Context, r Response) (Response, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := respKey(r.FormID, r.RespondentID)
	if existing, ok := m.responses[key]; ok {
		return existing, false, nil
	}
	m.responses[key] = r
	return r, true, nil
}

func (m *memoryStore) GetResponse(_ context.Context, formID, respondentID string) (Response, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.responses[respKey(formID, respondentID)]
	if !ok {
		return Response{}, ErrResponseNotFound
	}
	return r, nil
}

func (m *memoryStore) ListResponses(_ context.Context, formID string) ([]Response, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Response
	for _, r := range m.responses {
		if r.FormID == formID {
			out = append(out, r)
		}
	}
	return out, nil
}
