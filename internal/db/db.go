// Package db persists the canonical paper database as a JSON snapshot with
// versioned, single-writer commits, plus a conflicts queue and an ephemeral
// SQLite query cache rebuilt from the snapshot.
package db

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/accelml/livingreview/internal/paper"
)

// SchemaVersion is the current snapshot schema version.
const SchemaVersion = 1

// SnapshotFile is the name of the snapshot file inside the data directory.
const SnapshotFile = "livingreview.json"

// Common errors returned by the db package.
var (
	// ErrNotInitialized indicates no snapshot exists in the data directory.
	ErrNotInitialized = errors.New("database not initialized")

	// ErrAlreadyInitialized indicates Init was called on an existing database.
	ErrAlreadyInitialized = errors.New("database already initialized")

	// ErrLocked indicates another process holds the commit lock.
	ErrLocked = errors.New("database is locked by another process")

	// ErrStaleBase indicates a commit was attempted against an outdated
	// snapshot version. The caller must reload and re-merge.
	ErrStaleBase = errors.New("snapshot changed since it was loaded")

	// ErrPaperNotFound indicates a paper id is not in the snapshot.
	ErrPaperNotFound = errors.New("paper not found")
)

// StaleBaseError carries the version mismatch details behind ErrStaleBase.
type StaleBaseError struct {
	BaseVersion int64
	DiskVersion int64
}

func (e *StaleBaseError) Error() string {
	return fmt.Sprintf("snapshot changed since it was loaded (base version %d, on disk %d)",
		e.BaseVersion, e.DiskVersion)
}

func (e *StaleBaseError) Is(target error) bool { return target == ErrStaleBase }

// Metadata describes a committed snapshot.
type Metadata struct {
	SchemaVersion int       `json:"schema_version"`
	Version       int64     `json:"version"` // monotonic commit counter
	LastUpdated   time.Time `json:"last_updated"`
	TotalPapers   int       `json:"total_papers"` // non-retracted count
}

// Snapshot is the full database state: metadata plus all canonical papers.
// The in-memory Version records which committed state the snapshot was
// loaded from; Commit refuses to write over a newer on-disk version.
type Snapshot struct {
	Meta   Metadata      `json:"metadata"`
	Papers []paper.Paper `json:"papers"`
}

// Get returns the paper with the given id.
func (s *Snapshot) Get(id string) (*paper.Paper, error) {
	for i := range s.Papers {
		if s.Papers[i].ID == id {
			return &s.Papers[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrPaperNotFound, id)
}

// ActiveCount returns the number of non-retracted papers.
func (s *Snapshot) ActiveCount() int {
	n := 0
	for i := range s.Papers {
		if !s.Papers[i].Retracted {
			n++
		}
	}
	return n
}

// DB is a handle on a data directory holding the snapshot and its
// derived artifacts.
type DB struct {
	dir string
}

// Open returns a handle for the given data directory. It does not touch
// the filesystem; Load reports ErrNotInitialized if nothing is there.
func Open(dir string) *DB {
	return &DB{dir: dir}
}

// Dir returns the data directory.
func (d *DB) Dir() string { return d.dir }

// SnapshotPath returns the path of the snapshot file.
func (d *DB) SnapshotPath() string { return filepath.Join(d.dir, SnapshotFile) }

func (d *DB) lockPath() string { return filepath.Join(d.dir, SnapshotFile+".lock") }

// Init creates the data directory layout and an empty version-0 snapshot.
func (d *DB) Init() error {
	if _, err := os.Stat(d.SnapshotPath()); err == nil {
		return ErrAlreadyInitialized
	}

	dirs := []string{
		d.dir,
		filepath.Join(d.dir, "submissions", "pending"),
		filepath.Join(d.dir, "submissions", "accepted"),
		filepath.Join(d.dir, "submissions", "rejected"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}
	}

	snap := &Snapshot{Meta: Metadata{
		SchemaVersion: SchemaVersion,
		LastUpdated:   time.Now().UTC(),
	}}
	return writeSnapshot(d.SnapshotPath(), snap)
}

// Load reads the current snapshot from disk.
func (d *DB) Load() (*Snapshot, error) {
	data, err := os.ReadFile(d.SnapshotPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w (run init first)", ErrNotInitialized)
		}
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}
	if snap.Meta.SchemaVersion > SchemaVersion {
		return nil, fmt.Errorf("snapshot schema version %d is newer than supported %d",
			snap.Meta.SchemaVersion, SchemaVersion)
	}
	return &snap, nil
}

// Commit writes the snapshot back to disk under the exclusive commit lock.
// The snapshot's Version must match the on-disk version (the base it was
// loaded from); otherwise Commit returns a StaleBaseError and leaves the
// on-disk state untouched. On success the version is bumped, TotalPapers
// and LastUpdated are recomputed, and the write is a staged atomic rename.
func (d *DB) Commit(snap *Snapshot) error {
	unlock, err := d.acquireLock()
	if err != nil {
		return err
	}
	defer unlock()

	cur, err := d.Load()
	if err != nil {
		return err
	}
	if cur.Meta.Version != snap.Meta.Version {
		return &StaleBaseError{BaseVersion: snap.Meta.Version, DiskVersion: cur.Meta.Version}
	}

	snap.Meta.SchemaVersion = SchemaVersion
	snap.Meta.Version++
	snap.Meta.TotalPapers = snap.ActiveCount()
	snap.Meta.LastUpdated = time.Now().UTC()

	return writeSnapshot(d.SnapshotPath(), snap)
}

// acquireLock takes the commit lock file. The lock records the holder pid
// for diagnostics; a leftover lock from a crashed process must be removed
// by hand.
func (d *DB) acquireLock() (func(), error) {
	f, err := os.OpenFile(d.lockPath(), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if os.IsExist(err) {
			return nil, fmt.Errorf("%w (lock file %s)", ErrLocked, d.lockPath())
		}
		return nil, fmt.Errorf("creating lock file: %w", err)
	}
	fmt.Fprintf(f, "%d\n", os.Getpid())
	f.Close()

	return func() { os.Remove(d.lockPath()) }, nil
}

// writeSnapshot writes the snapshot atomically: temp file in the same
// directory, sync, then rename over the target.
func writeSnapshot(path string, snap *Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(path), ".tmp-*.json")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(append(data, '\n')); err != nil {
		tmpFile.Close()
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}

	success = true
	return nil
}
