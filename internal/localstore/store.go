// Package localstore implements the on-device key-value persistence layer
package localstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Store persists values as individual files under a base directory,
// one file per key. It is the offline system of record for progress
// snapshots and migration markers.
type Store struct {
	basePath string
}

// NewStore creates a new file-backed store rooted at basePath
func NewStore(basePath string) *Store {
	return &Store{
		basePath: basePath,
	}
}

// generatePath generates the full file path for a key
func (s *Store) generatePath(key string) string {
	// Keys are flat identifiers; guard against path separators
	safe := strings.ReplaceAll(key, string(filepath.Separator), "_")
	return filepath.Join(s.basePath, safe+".json")
}

// Get reads the value for a key. A missing key returns (nil, false, nil).
func (s *Store) Get(key string) ([]byte, bool, error) {
	data, err := os.ReadFile(s.generatePath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read key %s: %w", key, err)
	}
	return data, true, nil
}

// Set writes the value for a key, creating the base directory if needed
func (s *Store) Set(key string, value []byte) error {
	if err := os.MkdirAll(s.basePath, 0755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}
	if err := os.WriteFile(s.generatePath(key), value, 0644); err != nil {
		return fmt.Errorf("failed to write key %s: %w", key, err)
	}
	return nil
}

// Delete removes a key. Deleting a missing key is not an error.
func (s *Store) Delete(key string) error {
	err := os.Remove(s.generatePath(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}

// Keys returns all stored keys with the given prefix
func (s *Store) Keys(prefix string) ([]string, error) {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list store directory: %w", err)
	}

	var keys []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".json")
		if strings.HasPrefix(name, prefix) {
			keys = append(keys, name)
		}
	}
	return keys, nil
}
