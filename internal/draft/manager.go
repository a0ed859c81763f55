// Package draft keeps a respondent's in-progress answers in local durable
// storage: restore on load, debounced autosave on edit, and an atomic switch
// to the authoritative submitted result on commit.
package draft

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/formforge/formforge/internal/form"
)

// Draft is the locally persisted not-yet-submitted answer state.
type Draft struct {
	FormID       string         `json:"formId"`
	RespondentID string         `json:"userId"`
	Answers      form.AnswerSet `json:"answers"`
	LastSavedAt  int64          `json:"lastSavedAt"`
}

type submittedRecord struct {
	Answers     form.AnswerSet `json:"answers"`
	Score       form.Report    `json:"score"`
	SubmittedAt int64          `json:"submittedAt"`
}

// State is what Restore hands back to the caller: either a prior submission
// (read-only result view) or draft answers to seed the editor.
type State struct {
	Submitted   bool
	Answers     form.AnswerSet
	Score       *form.Report
	LastSavedAt int64
	SubmittedAt int64
}

type pending struct {
	formID       string
	respondentID string
	answers      form.AnswerSet
	timer        *time.Timer
}

type Manager struct {
	kv       KV
	debounce time.Duration
	now      func() time.Time

	mu      sync.Mutex
	pending map[string]*pending
}

type Option func(*Manager)

// WithDebounce overrides the autosave quiet period (default 1s).
func WithDebounce(d time.Duration) Option { return func(m *Manager) { m.debounce = d } }

func WithClock(now func() time.Time) Option { return func(m *Manager) { m.now = now } }

func NewManager(kv KV, opts ...Option) *Manager {
	m := &Manager{
		kv:       kv,
		debounce: time.Second,
		now:      time.Now,
		pending:  map[string]*pending{},
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Restore checks the submitted marker first: once a submission is confirmed,
// any lingering draft is ignored and the cached authoritative result is
// returned. Otherwise a saved draft's answers are returned, if any.
func (m *Manager) Restore(formID, respondentID string) (State, bool, error) {
	if raw, ok, err := m.kv.Get(submittedKey(formID, respondentID)); err != nil {
		return State{}, false, err
	} else if ok {
		var rec submittedRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return State{}, false, err
		}
		return State{Submitted: true, Answers: rec.Answers, Score: &rec.Score, SubmittedAt: rec.SubmittedAt}, true, nil
	}
	raw, ok, err := m.kv.Get(draftKey(formID, respondentID))
	if err != nil || !ok {
		return State{}, false, err
	}
	var d Draft
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return State{}, false, err
	}
	return State{Answers: d.Answers, LastSavedAt: d.LastSavedAt}, true, nil
}

// Save schedules a debounced write of answers. Rapid successive edits
// reschedule the single pending write rather than queuing more.
func (m *Manager) Save(formID, respondentID string, answers form.AnswerSet) {
	key := draftKey(formID, respondentID)
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.pending[key]; ok {
		p.answers = answers
		p.timer.Reset(m.debounce)
		return
	}
	p := &pending{formID: formID, respondentID: respondentID, answers: answers}
	p.timer = time.AfterFunc(m.debounce, func() { m.flush(key) })
	m.pending[key] = p
}

func (m *Manager) flush(key string) {
	m.mu.Lock()
	p, ok := m.pending[key]
	if ok {
		delete(m.pending, key)
	}
	m.mu.Unlock()
	if !ok {
		return
	}
	m.write(p)
}

func (m *Manager) write(p *pending) {
	d := Draft{
		FormID:       p.formID,
		RespondentID: p.respondentID,
		Answers:      p.answers,
		LastSavedAt:  m.now().Unix(),
	}
	buf, err := json.Marshal(d)
	if err != nil {
		return
	}
	_ = m.kv.Set(draftKey(p.formID, p.respondentID), string(buf))
}

// Flush writes all pending drafts immediately (page unload).
func (m *Manager) Flush() {
	m.mu.Lock()
	ps := make([]*pending, 0, len(m.pending))
	for key, p := range m.pending {
		p.timer.Stop()
		delete(m.pending, key)
		ps = append(ps, p)
	}
	m.mu.Unlock()
	for _, p := range ps {
		m.write(p)
	}
}

// Stop cancels all pending writes without persisting them.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, p := range m.pending {
		p.timer.Stop()
		delete(m.pending, key)
	}
}

// Commit records the server-confirmed response and deletes the draft. It is
// called for both fresh submissions and already-submitted conflicts: the
// returned response is authoritative either way, and a pending autosave for
// this form is cancelled so it cannot resurrect the draft.
func (m *Manager) Commit(formID, respondentID string, resp form.Response) error {
	key := draftKey(formID, respondentID)
	m.mu.Lock()
	if p, ok := m.pending[key]; ok {
		p.timer.Stop()
		delete(m.pending, key)
	}
	m.mu.Unlock()

	rec := submittedRecord{Answers: resp.Answers, Score: resp.Score, SubmittedAt: resp.SubmittedAt}
	buf, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if err := m.kv.Set(submittedKey(formID, respondentID), string(buf)); err != nil {
		return err
	}
	return m.kv.Delete(key)
}
