package draft

import (
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// KV is the local durable storage the manager writes drafts and submitted
// markers to. Keys are already namespaced by (formID, respondentID) when they
// reach the KV.
type KV interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
}

type memKV struct {
	mu sync.RWMutex
	m  map[string]string
}

// NewMemKV returns an in-memory KV, used by tests.
func NewMemKV() KV { return &memKV{m: map[string]string{}} }

func (s *memKV) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	return v, ok, nil
}

func (s *memKV) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
	return nil
}

func (s *memKV) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
	return nil
}

type fsKV struct{ base string }

// NewFSKV returns a KV persisting one file per key under base.
func NewFSKV(base string) (KV, error) {
	if base == "" {
		return nil, errors.New("empty base dir")
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, err
	}
	return &fsKV{base: base}, nil
}

func (s *fsKV) path(key string) string {
	return filepath.Join(s.base, filepath.Clean(url.PathEscape(key))+".json")
}

func (s *fsKV) Get(key string) (string, bool, error) {
	b, err := os.ReadFile(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(b), true, nil
}

func (s *fsKV) Set(key, value string) error {
	// Write-then-rename so a crash mid-write never leaves a torn draft.
	tmp := s.path(key) + ".tmp"
	if err := os.WriteFile(tmp, []byte(value), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path(key))
}

func (s *fsKV) Delete(key string) error {
	err := os.Remove(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func draftKey(formID, respondentID string) string {
	return strings.Join([]string{"draft", formID, respondentID}, ":")
}

func submittedKey(formID, respondentID string) string {
	return strings.Join([]string{"submitted", formID, respondentID}, ":")
}
