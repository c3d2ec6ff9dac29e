// Package state persists the set of attachments already processed across runs.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
)

// SeenSet holds composite "{documentID}|{url}" keys. Keys are only ever added.
type SeenSet struct {
	keys map[string]struct{}
}

type seenFile struct {
	SeenKeys []string `json:"seen_keys"`
}

// Key builds the composite cache key for an attachment.
func Key(documentID, url string) string {
	return documentID + "|" + url
}

// NewSeenSet returns a set holding keys.
func NewSeenSet(keys ...string) *SeenSet {
	s := &SeenSet{keys: make(map[string]struct{}, len(keys))}
	for _, k := range keys {
		s.Add(k)
	}
	return s
}

// Contains reports whether key was added.
func (s *SeenSet) Contains(key string) bool {
	_, ok := s.keys[key]
	return ok
}

// Add records key.
func (s *SeenSet) Add(key string) {
	s.keys[key] = struct{}{}
}

// Len returns the number of keys.
func (s *SeenSet) Len() int { return len(s.keys) }

// Snapshot returns the keys sorted.
func (s *SeenSet) Snapshot() []string {
	out := make([]string, 0, len(s.keys))
	for k := range s.keys {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Load reads a set saved by Save. A missing file yields an empty set.
func Load(path string) (*SeenSet, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewSeenSet(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seen state: %w", err)
	}

	var f seenFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode seen state %s: %w", path, err)
	}
	return NewSeenSet(f.SeenKeys...), nil
}

// Save writes the sorted keys as {"seen_keys": [...]}, creating parent
// directories. The file is replaced atomically.
func (s *SeenSet) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".seen-*.json")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(seenFile{SeenKeys: s.Snapshot()}); err != nil {
		tmp.Close()
		return fmt.Errorf("encode seen state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp state file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace seen state: %w", err)
	}
	return nil
}
