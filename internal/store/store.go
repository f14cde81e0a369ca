// Package store provides crash-safe ledger persistence using JSON files.
//
// Each option type's settlement ledger is stored as a separate file:
// ledger_<optionKey>.json. Writes use atomic file replacement (write to
// .tmp, then rename) to prevent corruption from partial writes or crashes
// mid-save. The clearinghouse calls SaveLedger after each mutating
// operation, and LoadAll on startup to restore every type's state.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"options-clearinghouse/internal/ledger"
	"options-clearinghouse/pkg/types"
)

// Store persists ledger snapshots to JSON files in a designated directory.
// All operations are mutex-protected to prevent concurrent file corruption.
type Store struct {
	dir string     // directory containing ledger_*.json files
	mu  sync.Mutex // serializes all file operations
}

// Open creates a store backed by the given directory.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Close is a no-op for file-based storage.
func (s *Store) Close() error {
	return nil
}

// SaveLedger atomically persists one option type's ledger snapshot.
// It writes to a .tmp file first, then renames over the target to ensure
// the file is never left in a partial state (crash-safe).
func (s *Store) SaveLedger(key types.OptionKey, st ledger.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal ledger: %w", err)
	}

	path := filepath.Join(s.dir, s.fileName(key))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}
	return os.Rename(tmp, path)
}

// LoadLedger restores one option type's snapshot from disk.
// Returns nil, nil if no saved ledger exists for the key.
func (s *Store) LoadLedger(key types.OptionKey) (*ledger.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadFile(filepath.Join(s.dir, s.fileName(key)))
}

// LoadAll restores every persisted ledger snapshot in the directory.
// Unrecognized files are skipped; a corrupt ledger file is an error, since
// silently dropping one would desynchronize custody from the token supply.
func (s *Store) LoadAll() ([]ledger.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read store dir: %w", err)
	}

	var states []ledger.State
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "ledger_") || !strings.HasSuffix(name, ".json") {
			continue
		}
		st, err := s.loadFile(filepath.Join(s.dir, name))
		if err != nil {
			return nil, err
		}
		if st != nil {
			states = append(states, *st)
		}
	}
	return states, nil
}

func (s *Store) loadFile(path string) (*ledger.State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read ledger: %w", err)
	}

	var st ledger.State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("unmarshal ledger %s: %w", filepath.Base(path), err)
	}
	return &st, nil
}

func (s *Store) fileName(key types.OptionKey) string {
	return "ledger_" + strings.TrimPrefix(key.Hex(), "0x") + ".json"
}
