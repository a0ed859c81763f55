// Command formfill is a terminal respondent client. It keeps an offline
// draft of your answers per (form, user) and reconciles with the server on
// submit, so interrupted sessions resume where they left off.
//
// Usage:
//
//	formfill -server http://localhost:8080 -token $TOK -user $UID -form $FORM show
//	formfill ... answer '{"q1":{"b1":"Paris"}}'
//	formfill ... submit
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/formforge/formforge/internal/draft"
	"github.com/formforge/formforge/internal/form"
)

func main() {
	var (
		server   = flag.String("server", "http://localhost:8080", "server base URL")
		token    = flag.String("token", "", "bearer token")
		user     = flag.String("user", "", "user id (namespaces the local draft)")
		formID   = flag.String("form", "", "form id")
		stateDir = flag.String("state-dir", defaultStateDir(), "local draft directory")
	)
	flag.Parse()
	if *formID == "" || *user == "" {
		log.Fatal("-form and -user are required")
	}

	kv, err := draft.NewFSKV(*stateDir)
	if err != nil {
		log.Fatalf("open draft storage: %v", err)
	}
	mgr := draft.NewManager(kv)
	c := &client{base: *server, token: *token}

	switch flag.Arg(0) {
	case "show":
		show(c, mgr, *formID, *user)
	case "answer":
		answer(mgr, *formID, *user, flag.Arg(1))
	case "submit":
		submitCmd(c, mgr, *formID, *user)
	default:
		log.Fatalf("unknown command %q (want show|answer|submit)", flag.Arg(0))
	}
}

func show(c *client, mgr *draft.Manager, formID, user string) {
	st, ok, err := mgr.Restore(formID, user)
	if err != nil {
		log.Fatalf("restore: %v", err)
	}
	if ok && st.Submitted {
		fmt.Printf("already submitted: %d%% (%d/%d units)\n",
			st.Score.Percentage, st.Score.EarnedUnits, st.Score.TotalUnits)
		return
	}
	var f form.Form
	if err := c.get("/forms/"+formID, &f); err != nil {
		log.Fatalf("fetch form: %v", err)
	}
	fmt.Printf("%s — %d questions\n", f.Title, len(f.Questions))
	if ok {
		fmt.Printf("draft: %d questions answered (saved %d)\n", len(st.Answers), st.LastSavedAt)
	}
}

func answer(mgr *draft.Manager, formID, user, payload string) {
	if payload == "" {
		log.Fatal("answer requires a JSON argument: {questionId: answer}")
	}
	var incoming form.AnswerSet
	if err := json.Unmarshal([]byte(payload), &incoming); err != nil {
		log.Fatalf("bad answers json: %v", err)
	}
	st, ok, err := mgr.Restore(formID, user)
	if err != nil {
		log.Fatalf("restore: %v", err)
	}
	if ok && st.Submitted {
		log.Fatal("already submitted; answers are read-only")
	}
	merged := form.AnswerSet{}
	for k, v := range st.Answers {
		merged[k] = v
	}
	for k, v := range incoming {
		merged[k] = v
	}
	mgr.Save(formID, user, merged)
	mgr.Flush() // process exits now; skip the debounce window
	fmt.Printf("saved draft: %d questions answered\n", len(merged))
}

func submitCmd(c *client, mgr *draft.Manager, formID, user string) {
	st, ok, err := mgr.Restore(formID, user)
	if err != nil {
		log.Fatalf("restore: %v", err)
	}
	if ok && st.Submitted {
		fmt.Printf("already submitted: %d%%\n", st.Score.Percentage)
		return
	}
	var result struct {
		Status      string         `json:"status"`
		ID          string         `json:"id"`
		Score       form.Report    `json:"score"`
		Answers     form.AnswerSet `json:"answers"`
		SubmittedAt int64          `json:"submittedAt"`
	}
	err = c.post("/forms/"+formID+"/responses", map[string]any{"answers": st.Answers}, &result)
	if err != nil {
		log.Fatalf("submit: %v", err)
	}
	// Whether we won or lost a submit race, the server's response is
	// authoritative: commit it and drop the local draft.
	resp := form.Response{
		ID:           result.ID,
		FormID:       formID,
		RespondentID: user,
		Answers:      result.Answers,
		Score:        result.Score,
		SubmittedAt:  result.SubmittedAt,
	}
	if err := mgr.Commit(formID, user, resp); err != nil {
		log.Fatalf("commit: %v", err)
	}
	fmt.Printf("%s: %d%% (%d/%d units)\n",
		result.Status, result.Score.Percentage, result.Score.EarnedUnits, result.Score.TotalUnits)
}

type client struct {
	base  string
	token string
}

func (c *client) do(method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(buf)
	}
	req, err := http.NewRequest(method, c.base+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	// 409 carries the existing submission and is handled like success.
	if resp.StatusCode >= 400 && resp.StatusCode != http.StatusConflict {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s: %s", resp.Status, bytes.TrimSpace(msg))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *client) get(path string, out any) error { return c.do(http.MethodGet, path, nil, out) }

func (c *client) post(path string, body, out any) error {
	return c.do(http.MethodPost, path, body, out)
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".formfill"
	}
	return filepath.Join(home, ".formfill")
}
