// Package session remembers per-user preferences between runs, most
// importantly the last-opened ledger database. Values live in a small JSON
// file under the OS config directory; there is no registry involvement and
// no reliance on finalizers, callers close the store explicitly.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	KeyLastDatabase = "last_database"

	fileName = "session.json"
)

// Store is a tiny persistent key-value map.
type Store struct {
	mu     sync.Mutex
	path   string
	values map[string]string
}

// Open loads the settings file at dir/session.json, creating the directory
// if needed. A missing file yields an empty store, not an error.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create session directory: %w", err)
	}
	s := &Store{
		path:   filepath.Join(dir, fileName),
		values: make(map[string]string),
	}

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}
	if err := json.Unmarshal(data, &s.values); err != nil {
		return nil, fmt.Errorf("parse session file: %w", err)
	}
	return s, nil
}

// DefaultDir returns the per-user config location for the application.
func DefaultDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(base, "tally"), nil
}

// Get returns the stored value for key, with ok false when absent.
func (s *Store) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

// Set stores the value and writes the file through immediately.
func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return s.flushLocked()
}

// Delete removes the key if present and writes the file through.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[key]; !ok {
		return nil
	}
	delete(s.values, key)
	return s.flushLocked()
}

func (s *Store) flushLocked() error {
	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	// Write-then-rename so a crash mid-write cannot truncate the file.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}

// Close is a no-op today; state is flushed on every Set. It exists so
// callers release the store on all paths.
func (s *Store) Close() error { return nil }
