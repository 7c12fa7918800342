package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/joshharrison/fasttrack/internal/graph"
	"github.com/joshharrison/fasttrack/internal/update"
)

const (
	StateDir    = ".fasttrack"
	journalFile = "journal.json"
)

// EntryKind says which mutation path produced a journal entry.
type EntryKind string

const (
	KindUpdate    EntryKind = "update"
	KindFastTrack EntryKind = "fast_track"
)

// Entry records one committed mutation.
type Entry struct {
	ID         string            `json:"id"`
	Kind       EntryKind         `json:"kind"`
	At         time.Time         `json:"at"`
	Schedule   string            `json:"schedule"`
	Version    uint64            `json:"version"`
	Edits      []update.Edit     `json:"edits,omitempty"`
	Warnings   []update.Warning  `json:"warnings,omitempty"`
	Dependency *graph.Dependency `json:"dependency,omitempty"`
	Savings    int               `json:"savings_days,omitempty"`
}

// Journal is an append-only log of committed mutations, persisted as a
// JSON array under StateDir.
type Journal struct {
	fs   afero.Fs
	path string
	mu   sync.Mutex
}

// OpenJournal returns the journal stored under dir (StateDir when empty).
// The file is created on first append.
func OpenJournal(fs afero.Fs, dir string) *Journal {
	if dir == "" {
		dir = StateDir
	}
	return &Journal{fs: fs, path: filepath.Join(dir, journalFile)}
}

// Path returns the journal file location.
func (j *Journal) Path() string { return j.path }

// Append assigns e an ID and timestamp if missing and persists it.
func (j *Journal) Append(e Entry) (Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}

	entries, err := j.read()
	if err != nil {
		return Entry{}, err
	}
	entries = append(entries, e)

	if err := j.fs.MkdirAll(filepath.Dir(j.path), 0o755); err != nil {
		return Entry{}, fmt.Errorf("create state dir: %w", err)
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return Entry{}, fmt.Errorf("marshal journal: %w", err)
	}
	if err := afero.WriteFile(j.fs, j.path, data, 0o644); err != nil {
		return Entry{}, fmt.Errorf("write journal: %w", err)
	}
	return e, nil
}

// Entries returns every recorded entry, oldest first.
func (j *Journal) Entries() ([]Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.read()
}

func (j *Journal) read() ([]Entry, error) {
	data, err := afero.ReadFile(j.fs, j.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse journal: %w", err)
	}
	return entries, nil
}
