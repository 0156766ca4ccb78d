// Package categorystore persists the domain → category cache as a flat,
// pretty-printed JSON object so operators can inspect and edit it.
package categorystore

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
	Path string
	// Strict makes a corrupt file a load error. The default resets to an
	// empty cache, trading completeness for availability.
	Strict bool
	Logger log.Logger
}

// Store is a mutex-guarded in-memory map with synchronous durable writes.
// Every mutation rewrites the whole file atomically while holding the lock,
// so readers never observe a torn file and no update is lost after Put
// returns without error.
type Store struct {
	mu      sync.RWMutex
	path    string
	logger  log.Logger
	entries map[string]domain.Category
}

// New loads the store from disk. A missing file is created empty. A corrupt
// file is fatal when Strict is set, otherwise the cache resets to empty with
// a warning.
func New(opts Options) (*Store, error) {
	if opts.Path == "" {
		return nil, errors.New("category store path is required")
	}
	if opts.Logger == nil {
		opts.Logger = log.NewNoopLogger()
	}

	s := &Store{
		path:    opts.Path,
		logger:  opts.Logger,
		entries: make(map[string]domain.Category),
	}

	data, err := os.ReadFile(opts.Path)
	if errors.Is(err, os.ErrNotExist) {
		s.logger.Info(map[string]any{"path": opts.Path}, "Category cache not found, creating empty file")
		s.mu.Lock()
		defer s.mu.Unlock()
		return s, s.flushLocked()
	}
	if err != nil {
		return nil, fmt.Errorf("reading category cache: %w", err)
	}

	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		if opts.Strict {
			return nil, fmt.Errorf("corrupt category cache %s: %w", opts.Path, err)
		}
		s.logger.Warn(map[string]any{
			"path":  opts.Path,
			"error": err.Error(),
		}, "Corrupt category cache, starting with empty cache")
		return s, nil
	}

	for d, c := range raw {
		s.entries[d] = domain.Category(c)
	}
	s.logger.Debug(map[string]any{"path": opts.Path, "entries": len(s.entries)}, "Category cache loaded")
	return s, nil
}

// Get returns the cached category for a domain. Never touches disk.
func (s *Store) Get(name string) (domain.Category, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.entries[name]
	return c, ok
}

// Put upserts a domain's category and synchronously persists the full map.
// The in-memory update is applied even when the durable write fails, so the
// caller's decision for the current request still stands; the error is
// returned for logging.
func (s *Store) Put(name string, c domain.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[name] = c
	return s.flushLocked()
}

// All returns a copy of the full domain → category map.
func (s *Store) All() map[string]domain.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]domain.Category, len(s.entries))
	for d, c := range s.entries {
		out[d] = c
	}
	return out
}

// Len returns the number of cached domains.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// flushLocked writes the full map to a temp file and renames it into place.
// Callers must hold the write lock.
func (s *Store) flushLocked() error {
	data, err := json.MarshalIndent(s.entries, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding category cache: %w", err)
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
