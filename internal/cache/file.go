package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/chargewise/charge-finder/internal/translate"
)

// DefaultCapacity bounds the file store when the config leaves it unset.
const DefaultCapacity = 256

// FileStore persists the cache as a single JSON file. Every mutation is
// flushed through a temp file and rename, so a crash never leaves a
// half-written cache behind. A missing file is an empty cache, not an
// error.
type FileStore struct {
	mu       sync.Mutex
	path     string
	capacity int
	entries  map[string]*Entry
}

// NewFileStore loads the cache at path, creating an empty store when the
// file does not exist yet.
func NewFileStore(path string, capacity int) (*FileStore, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	s := &FileStore{
		path:     path,
		capacity: capacity,
		entries:  make(map[string]*Entry),
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read cache file %s: %w", path, err)
	}
	if len(raw) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(raw, &s.entries); err != nil {
		return nil, fmt.Errorf("failed to parse cache file %s: %w", path, err)
	}
	return s, nil
}

// Get implements Store.
func (s *FileStore) Get(_ context.Context, key string) (translate.Query, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return translate.Query{}, ErrCacheMiss
	}
	e.Hits++
	e.LastAccess = time.Now().UTC()
	if err := s.flushLocked(); err != nil {
		return translate.Query{}, err
	}
	return e.Query, nil
}

// Put implements Store.
func (s *FileStore) Put(_ context.Context, key string, q translate.Query) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if e, ok := s.entries[key]; ok {
		e.Query = q
		e.LastAccess = now
		return s.flushLocked()
	}

	if len(s.entries) >= s.capacity {
		s.evictLocked()
	}
	s.entries[key] = &Entry{
		Query:      q,
		CreatedAt:  now,
		LastAccess: now,
	}
	return s.flushLocked()
}

// Len implements Store.
func (s *FileStore) Len(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries), nil
}

// Close implements Store. The file is already flushed after every
// mutation, so there is nothing left to do.
func (s *FileStore) Close() error { return nil }

// evictLocked removes the coldest fifth of the entries. Coldness is hit
// count first, then least recent access.
func (s *FileStore) evictLocked() {
	type victim struct {
		key string
		e   *Entry
	}
	victims := make([]victim, 0, len(s.entries))
	for k, e := range s.entries {
		victims = append(victims, victim{k, e})
	}
	sort.Slice(victims, func(i, j int) bool {
		if victims[i].e.Hits != victims[j].e.Hits {
			return victims[i].e.Hits < victims[j].e.Hits
		}
		return victims[i].e.LastAccess.Before(victims[j].e.LastAccess)
	})

	drop := len(victims) / 5
	if drop < 1 {
		drop = 1
	}
	for _, v := range victims[:drop] {
		delete(s.entries, v.key)
	}
}

// flushLocked writes the whole cache atomically.
func (s *FileStore) flushLocked() error {
	raw, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".cache-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp cache file: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write temp cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp cache file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace cache file: %w", err)
	}
	return nil
}
