package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

const stateFile = "state.json"

// Store is a small string key-value map persisted as JSON. It stands in for
// the per-user defaults the app keeps between runs.
type Store struct {
	Values map[string]string `json:"values"`
	Path   string            `json:"-"`
	mu     sync.RWMutex
	dirty  bool
}

// NewStore opens the store in dir, loading existing values if the file is
// present.
func NewStore(dir string) (*Store, error) {
	s := &Store{
		Values: make(map[string]string),
		Path:   filepath.Join(dir, stateFile),
	}

	if _, err := os.Stat(s.Path); err == nil {
		if err := s.Load(); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// NewMemoryStore returns a store that is never written to disk.
func NewMemoryStore() *Store {
	return &Store{Values: make(map[string]string)}
}

func (s *Store) Load() error {
	f, err := os.Open(s.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	s.mu.Lock()
	defer s.mu.Unlock()
	return json.NewDecoder(f).Decode(s)
}

// Save writes the store if anything changed since the last save.
func (s *Store) Save() error {
	s.mu.RLock()
	if !s.dirty || s.Path == "" {
		s.mu.RUnlock()
		return nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.Path), 0700); err != nil {
		return err
	}

	f, err := os.Create(s.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(s); err != nil {
		return err
	}
	s.dirty = false
	return nil
}

func (s *Store) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.Values[key]
	return v, ok
}

func (s *Store) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.Values[key]; !ok || old != value {
		s.Values[key] = value
		s.dirty = true
	}
}

func (s *Store) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.Values[key]; exists {
		delete(s.Values, key)
		s.dirty = true
	}
}
