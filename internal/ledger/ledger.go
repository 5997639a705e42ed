// Package ledger implements the curation ledger: human-review entries for
// submitted papers, stored one JSON file per entry under the data
// directory's submissions tree. Entries move from pending to accepted or
// rejected exactly once; both transitions are terminal and idempotent.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/accelml/livingreview/internal/paper"
)

// Entry statuses.
const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
)

// Common errors returned by the ledger.
var (
	// ErrEntryNotFound indicates no entry exists with the given id.
	ErrEntryNotFound = errors.New("ledger entry not found")

	// ErrReasonRequired indicates a rejection without a reason.
	ErrReasonRequired = errors.New("rejection requires a reason")

	// ErrInvalidStatus indicates an unknown status filter.
	ErrInvalidStatus = errors.New("invalid ledger status")
)

// Submitter identifies who proposed an entry.
type Submitter struct {
	Name    string `json:"name,omitempty"`
	Contact string `json:"contact,omitempty"`
}

// Entry is one curation ledger item.
type Entry struct {
	ID                 string                `json:"id"`
	Payload            paper.Record          `json:"payload"`
	Submitter          Submitter             `json:"submitter,omitempty"`
	Status             string                `json:"status"`
	ReviewerNotes      string                `json:"reviewer_notes,omitempty"`
	ProposedCategories []paper.CategoryScore `json:"proposed_categories,omitempty"`
	SubmittedAt        time.Time             `json:"submitted_at"`
	DecidedAt          time.Time             `json:"decided_at,omitempty"`
}

// Decided reports whether the entry has reached a terminal state.
func (e *Entry) Decided() bool {
	return e.Status == StatusAccepted || e.Status == StatusRejected
}

// Ledger manages the submissions tree under a data directory.
type Ledger struct {
	root string // <data>/submissions
}

// New creates a ledger over the given data directory.
func New(dataDir string) *Ledger {
	return &Ledger{root: filepath.Join(dataDir, "submissions")}
}

func (l *Ledger) statusDir(status string) string {
	return filepath.Join(l.root, status)
}

func (l *Ledger) entryPath(status, id string) string {
	return filepath.Join(l.statusDir(status), id+".json")
}

// Submit creates a new pending entry for a record. The record must carry
// at least a title.
func (l *Ledger) Submit(rec paper.Record, sub Submitter, proposed []paper.CategoryScore) (*Entry, error) {
	if err := rec.Normalize(); err != nil {
		return nil, fmt.Errorf("invalid submission: %w", err)
	}

	entry := &Entry{
		ID:                 uuid.NewString(),
		Payload:            rec,
		Submitter:          sub,
		Status:             StatusPending,
		ProposedCategories: proposed,
		SubmittedAt:        time.Now().UTC(),
	}
	if err := l.write(entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Get finds an entry by id in any status directory. A unique id prefix is
// accepted.
func (l *Ledger) Get(id string) (*Entry, error) {
	for _, status := range []string{StatusPending, StatusAccepted, StatusRejected} {
		if e, err := l.read(l.entryPath(status, id)); err == nil {
			return e, nil
		}
	}

	// Prefix lookup across all statuses.
	var matches []*Entry
	for _, status := range []string{StatusPending, StatusAccepted, StatusRejected} {
		entries, err := l.List(status)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if strings.HasPrefix(e.ID, id) {
				matches = append(matches, e)
			}
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("ambiguous entry id prefix %q (%d matches)", id, len(matches))
	}
}

// List returns all entries with the given status, oldest first.
func (l *Ledger) List(status string) ([]*Entry, error) {
	switch status {
	case StatusPending, StatusAccepted, StatusRejected:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	dir := l.statusDir(status)
	files, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	var entries []*Entry
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}
		e, err := l.read(filepath.Join(dir, f.Name()))
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].SubmittedAt.Before(entries[j].SubmittedAt)
	})
	return entries, nil
}

// Decide moves a pending entry to its terminal state and archives the
// file. Deciding an already-decided entry is a no-op that returns the
// entry as it stands; flipping between terminal states is not possible.
func (l *Ledger) Decide(id, status, notes string) (*Entry, error) {
	if status == StatusRejected && strings.TrimSpace(notes) == "" {
		return nil, ErrReasonRequired
	}

	entry, err := l.Get(id)
	if err != nil {
		return nil, err
	}
	if entry.Decided() {
		return entry, nil
	}

	pendingPath := l.entryPath(StatusPending, entry.ID)
	entry.Status = status
	if notes != "" {
		entry.ReviewerNotes = notes
	}
	entry.DecidedAt = time.Now().UTC()

	if err := l.write(entry); err != nil {
		return nil, err
	}
	if err := os.Remove(pendingPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("removing pending entry: %w", err)
	}
	return entry, nil
}

func (l *Ledger) read(path string) (*Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, filepath.Base(path))
		}
		return nil, fmt.Errorf("reading entry: %w", err)
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("parsing entry %s: %w", path, err)
	}
	return &e, nil
}

// write stores an entry in its status directory via temp file and rename.
func (l *Ledger) write(e *Entry) error {
	dir := l.statusDir(e.Status)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding entry: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*.json")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, l.entryPath(e.Status, e.ID)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming entry: %w", err)
	}
	return nil
}
