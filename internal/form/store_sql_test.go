package form_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/formforge/formforge/internal/db"
	"github.com/formforge/formforge/internal/form"
)

func openTestStore(t *testing.T) *form.SQLStore {
	t.Helper()
	dsn := fmt.Sprintf("file:%s.db?mode=memory&cache=shared&_pragma=foreign_keys(1)", t.Name())
	conn, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return form.NewSQLStore(conn)
}

func testForm(id string) form.Form {
	return form.Form{
		ID:          id,
		Title:       "Capitals quiz",
		Description: "Geography basics",
		IsPublished: true,
		OwnerID:     "owner1",
		Questions: []form.Question{{
			ID: "q1",
			Body: &form.ClozeBody{
				Text:   "{{b1}} is the capital of France.",
				Blanks: []form.Blank{{ID: "b1", CorrectAnswer: "Paris"}},
			},
		}},
	}
}

func TestSQLStoreFormRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.PutForm(ctx, testForm("f1")); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := store.GetForm(ctx, "f1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "Capitals quiz" || !got.IsPublished || got.OwnerID != "owner1" {
		t.Fatalf("got %+v", got)
	}
	if len(got.Questions) != 1 {
		t.Fatalf("questions = %d, want 1", len(got.Questions))
	}
	cloze, ok := got.Questions[0].Body.(*form.ClozeBody)
	if !ok || cloze.Blanks[0].CorrectAnswer != "Paris" {
		t.Fatalf("question body did not survive the JSON column: %+v", got.Questions[0].Body)
	}

	_, err = store.GetForm(ctx, "missing")
	if !errors.Is(err, form.ErrFormNotFound) {
		t.Fatalf("missing form error = %v, want ErrFormNotFound", err)
	}
}

func TestSQLStorePutFormUpsert(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	f := testForm("f1")
	if err := store.PutForm(ctx, f); err != nil {
		t.Fatalf("insert: %v", err)
	}
	f.Title = "Renamed"
	f.IsPublished = false
	if err := store.PutForm(ctx, f); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := store.GetForm(ctx, "f1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "Renamed" || got.IsPublished {
		t.Fatalf("upsert did not apply: %+v", got)
	}
}

func TestSQLStoreListFormsByOwner(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"f1", "f2"} {
		if err := store.PutForm(ctx, testForm(id)); err != nil {
			t.Fatalf("put %s: %v", id, err)
		}
	}
	other := testForm("f3")
	other.OwnerID = "someone-else"
	if err := store.PutForm(ctx, other); err != nil {
		t.Fatalf("put f3: %v", err)
	}

	forms, err := store.ListFormsByOwner(ctx, "owner1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(forms) != 2 {
		t.Fatalf("listed %d forms, want the owner's 2", len(forms))
	}
}

func TestSQLStoreInsertResponseIfAbsent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.PutForm(ctx, testForm("f1")); err != nil {
		t.Fatalf("put form: %v", err)
	}

	first := form.Response{
		ID:           "r1",
		FormID:       "f1",
		RespondentID: "u1",
		Answers:      form.AnswerSet{},
		Score:        form.Report{TotalUnits: 1, EarnedUnits: 1, Percentage: 100},
		SubmittedAt:  1000,
	}
	got, created, err := store.InsertResponseIfAbsent(ctx, first)
	if err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if !created || got.ID != "r1" {
		t.Fatalf("first insert: created=%v id=%s", created, got.ID)
	}

	second := first
	second.ID = "r2"
	second.Score.Percentage = 0
	got, created, err = store.InsertResponseIfAbsent(ctx, second)
	if err != nil {
		t.Fatalf("second insert: %v", err)
	}
	if created {
		t.Fatal("duplicate (form, user) pair created a second response")
	}
	if got.ID != "r1" || got.Score.Percentage != 100 {
		t.Fatalf("loser got %+v, want the winner's row back", got)
	}

	// A different respondent on the same form still inserts.
	third := first
	third.ID = "r3"
	third.RespondentID = "u2"
	_, created, err = store.InsertResponseIfAbsent(ctx, third)
	if err != nil || !created {
		t.Fatalf("other respondent: created=%v err=%v", created, err)
	}
}

func TestSQLStoreDeleteFormCascades(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.PutForm(ctx, testForm("f1")); err != nil {
		t.Fatalf("put form: %v", err)
	}
	_, _, err := store.InsertResponseIfAbsent(ctx, form.Response{
		ID: "r1", FormID: "f1", RespondentID: "u1",
		Answers: form.AnswerSet{}, SubmittedAt: 1000,
	})
	if err != nil {
		t.Fatalf("insert response: %v", err)
	}

	if err := store.DeleteForm(ctx, "f1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.GetResponse(ctx, "f1", "u1"); !errors.Is(err, form.ErrResponseNotFound) {
		t.Fatalf("response survived the form delete: err=%v", err)
	}

	if err := store.DeleteForm(ctx, "f1"); !errors.Is(err, form.ErrFormNotFound) {
		t.Fatalf("second delete error = %v, want ErrFormNotFound", err)
	}
}
