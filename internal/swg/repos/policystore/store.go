// Package policystore persists category → policy decisions as a flat,
// pretty-printed JSON object ("Social Media": "blocked"). Administrators
// edit the file; the engine only ever inserts allow defaults for categories
// it has not seen before.
package policystore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/haukened/swgd/internal/swg/common/log"
	"github.com/haukened/swgd/internal/swg/domain"
)

// Options configures a Store.
type Options struct {
	// Path is the JSON file backing the store.
	Path   string
	Logger log.Logger
}

// Store guards the in-memory policy map and its durable form with a single
// lock: a mutation and its file flush are one atomic unit.
type Store struct {
	mu      sync.RWMutex
	path    string
	logger  log.Logger
	entries map[domain.Category]domain.Action
}

// New loads the policy store from disk. A missing file is created empty. A
// corrupt file or an unrecognized policy value is always a load error: a
// policy silently defaulting to empty would allow everything.
func New(opts Options) (*Store, error) {
	if opts.Path == "" {
		return nil, errors.New("policy store path is required")
	}
	if opts.Logger == nil {
		opts.Logger = log.NewNoopLogger()
	}

	s := &Store{
		path:    opts.Path,
		logger:  opts.Logger,
		entries: make(map[domain.Category]domain.Action),
	}

	data, err := os.ReadFile(opts.Path)
	if errors.Is(err, os.ErrNotExist) {
		s.logger.Info(map[string]any{"path": opts.Path}, "Policy file not found, creating empty file")
		s.mu.Lock()
		defer s.mu.Unlock()
		return s, s.flushLocked()
	}
	if err != nil {
		return nil, fmt.Errorf("reading policy file: %w", err)
	}

	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("corrupt policy file %s: %w", opts.Path, err)
	}

	for label, value := range raw {
		action, err := domain.ParseAction(value)
		if err != nil {
			return nil, fmt.Errorf("policy file %s, category %q: %w", opts.Path, label, err)
		}
		s.entries[domain.Category(label)] = action
	}
	s.logger.Debug(map[string]any{"path": opts.Path, "entries": len(s.entries)}, "Policy file loaded")
	return s, nil
}

// Decision returns the policy action for a category, if one exists.
func (s *Store) Decision(c domain.Category) (domain.Action, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.entries[c]
	return a, ok
}

// Ensure inserts an allow default for an unseen category and persists it.
// Idempotent under concurrency: exactly one entry is ever written, existing
// entries are never modified. Returns whether an insert occurred.
func (s *Store) Ensure(c domain.Category) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[c]; ok {
		return false, nil
	}
	s.entries[c] = domain.ActionAllow
	return true, s.flushLocked()
}

// Blocked returns every category currently mapped to a block decision.
func (s *Store) Blocked() []domain.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Category
	for c, a := range s.entries {
		if a == domain.ActionBlock {
			out = append(out, c)
		}
	}
	return out
}

// Len returns the number of policy entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// flushLocked serializes the full map with canonical action strings and
// atomically replaces the file. Callers must hold the write lock.
func (s *Store) flushLocked() error {
	raw := make(map[string]string, len(s.entries))
	for c, a := range s.entries {
		raw[string(c)] = string(a)
	}
	data, err := json.MarshalIndent(raw, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding policy file: %w", err)
	}
	return atomicWrite(s.path, data)
}

// atomicWrite replaces path with data via a temp file in the same directory.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
