package draft

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/formforge/formforge/internal/form"
)

func rawAnswers(t *testing.T, v any) form.AnswerSet {
	t.Helper()
	buf, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var as form.AnswerSet
	if err := json.Unmarshal(buf, &as); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return as
}

func waitForDraft(t *testing.T, m *Manager, formID, user string) State {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		st, ok, err := m.Restore(formID, user)
		if err != nil {
			t.Fatalf("restore: %v", err)
		}
		if ok {
			return st
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("draft never became visible")
	return State{}
}

func TestRestoreEmpty(t *testing.T) {
	m := NewManager(NewMemKV())
	_, ok, err := m.Restore("f1", "u1")
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if ok {
		t.Fatal("restore reported state for a fresh (form, user) pair")
	}
}

func TestSaveIsDebounced(t *testing.T) {
	m := NewManager(NewMemKV(), WithDebounce(50*time.Millisecond))
	m.Save("f1", "u1", rawAnswers(t, map[string]any{"q1": map[string]string{"b1": "Paris"}}))

	// Inside the quiet period nothing has been written yet.
	if _, ok, _ := m.Restore("f1", "u1"); ok {
		t.Fatal("draft persisted before the debounce elapsed")
	}

	st := waitForDraft(t, m, "f1", "u1")
	if st.Submitted {
		t.Fatal("draft restored as submitted")
	}
	if len(st.Answers) != 1 {
		t.Fatalf("restored %d answers, want 1", len(st.Answers))
	}
}

func TestRapidSavesLatestWins(t *testing.T) {
	m := NewManager(NewMemKV(), WithDebounce(20*time.Millisecond))
	for i := 0; i < 5; i++ {
		m.Save("f1", "u1", rawAnswers(t, map[string]any{"q1": map[string]string{"b1": "stale"}}))
	}
	m.Save("f1", "u1", rawAnswers(t, map[string]any{"q1": map[string]string{"b1": "final"}}))

	st := waitForDraft(t, m, "f1", "u1")
	var ans map[string]string
	if err := json.Unmarshal(st.Answers["q1"], &ans); err != nil {
		t.Fatalf("decode restored answer: %v", err)
	}
	if ans["b1"] != "final" {
		t.Fatalf("restored %q, want the last save to win", ans["b1"])
	}
}

func TestFlushWritesImmediately(t *testing.T) {
	m := NewManager(NewMemKV(), WithDebounce(time.Hour))
	m.Save("f1", "u1", rawAnswers(t, map[string]any{"q1": map[string]string{"b1": "x"}}))
	m.Save("f2", "u1", rawAnswers(t, map[string]any{"q1": map[string]string{"b1": "y"}}))
	m.Flush()

	for _, formID := range []string{"f1", "f2"} {
		if _, ok, _ := m.Restore(formID, "u1"); !ok {
			t.Fatalf("flush did not persist draft for %s", formID)
		}
	}
}

func TestStopCancelsWithoutWriting(t *testing.T) {
	m := NewManager(NewMemKV(), WithDebounce(10*time.Millisecond))
	m.Save("f1", "u1", rawAnswers(t, map[string]any{"q1": map[string]string{"b1": "x"}}))
	m.Stop()

	time.Sleep(50 * time.Millisecond)
	if _, ok, _ := m.Restore("f1", "u1"); ok {
		t.Fatal("stopped save still reached storage")
	}
}

func TestCommitWinsOverDraft(t *testing.T) {
	m := NewManager(NewMemKV(), WithDebounce(30*time.Millisecond))
	m.Save("f1", "u1", rawAnswers(t, map[string]any{"q1": map[string]string{"b1": "draft"}}))
	m.Flush()

	// A new edit is pending when the submission lands; Commit must cancel it
	// so a late autosave cannot resurrect the draft.
	m.Save("f1", "u1", rawAnswers(t, map[string]any{"q1": map[string]string{"b1": "late edit"}}))

	resp := form.Response{
		ID:           "r1",
		FormID:       "f1",
		RespondentID: "u1",
		Answers:      rawAnswers(t, map[string]any{"q1": map[string]string{"b1": "draft"}}),
		Score:        form.Report{TotalUnits: 2, EarnedUnits: 1, Percentage: 50},
		SubmittedAt:  1700000000,
	}
	if err := m.Commit("f1", "u1", resp); err != nil {
		t.Fatalf("commit: %v", err)
	}

	time.Sleep(80 * time.Millisecond)
	st, ok, err := m.Restore("f1", "u1")
	if err != nil || !ok {
		t.Fatalf("restore after commit: ok=%v err=%v", ok, err)
	}
	if !st.Submitted {
		t.Fatal("restore returned a draft after commit; the submitted marker must win")
	}
	if st.Score == nil || st.Score.Percentage != 50 {
		t.Fatalf("restored score = %+v, want the committed 50%%", st.Score)
	}
	if st.SubmittedAt != 1700000000 {
		t.Fatalf("submittedAt = %d, want committed timestamp", st.SubmittedAt)
	}
}

func TestDraftsAreNamespaced(t *testing.T) {
	m := NewManager(NewMemKV(), WithDebounce(time.Millisecond))
	m.Save("f1", "u1", rawAnswers(t, map[string]any{"q1": map[string]string{"b1": "mine"}}))
	m.Flush()

	if _, ok, _ := m.Restore("f1", "u2"); ok {
		t.Fatal("another user saw my draft")
	}
	if _, ok, _ := m.Restore("f2", "u1"); ok {
		t.Fatal("another form saw my draft")
	}
}

func TestFSKVRoundTrip(t *testing.T) {
	kv, err := NewFSKV(t.TempDir())
	if err != nil {
		t.Fatalf("fskv: %v", err)
	}
	m := NewManager(kv, WithDebounce(time.Millisecond))
	m.Save("f1", "u:1/../x", rawAnswers(t, map[string]any{"q1": map[string]string{"b1": "Paris"}}))
	m.Flush()

	st, ok, err := m.Restore("f1", "u:1/../x")
	if err != nil || !ok {
		t.Fatalf("restore from disk: ok=%v err=%v", ok, err)
	}
	if len(st.Answers) != 1 {
		t.Fatalf("restored %d answers, want 1", len(st.Answers))
	}

	if err := m.Commit("f1", "u:1/../x", form.Response{Score: form.Report{Percentage: 100}}); err != nil {
		t.Fatalf("commit: %v", err)
	}
	st, _, _ = m.Restore("f1", "u:1/../x")
	if !st.Submitted {
		t.Fatal("submitted marker lost on disk")
	}
}
