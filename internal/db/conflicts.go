package db

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/accelml/livingreview/internal/merge"
)

// ConflictsFile is the name of the conflicts queue inside the data directory.
const ConflictsFile = "conflicts.jsonl"

// maxConflictLine is the scanner buffer size for conflict entries.
const maxConflictLine = 1024 * 1024

// ConflictsPath returns the path of the conflicts queue file.
func (d *DB) ConflictsPath() string { return filepath.Join(d.dir, ConflictsFile) }

// AppendConflicts appends merge conflicts to the queue, one JSON object per
// line. A nil or empty slice is a no-op.
func (d *DB) AppendConflicts(conflicts []merge.Conflict) error {
	if len(conflicts) == 0 {
		return nil
	}

	f, err := os.OpenFile(d.ConflictsPath(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening conflicts file: %w", err)
	}
	defer f.Close()

	for _, c := range conflicts {
		data, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("encoding conflict: %w", err)
		}
		if _, err := f.Write(append(data, '\n')); err != nil {
			return fmt.Errorf("writing conflict: %w", err)
		}
	}
	return nil
}

// ReadConflicts reads the full conflicts queue. A missing file means no
// conflicts have been recorded.
func (d *DB) ReadConflicts() ([]merge.Conflict, error) {
	f, err := os.Open(d.ConflictsPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening conflicts file: %w", err)
	}
	defer f.Close()

	var conflicts []merge.Conflict
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, maxConflictLine), maxConflictLine)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var c merge.Conflict
		if err := json.Unmarshal(line, &c); err != nil {
			return nil, fmt.Errorf("parsing conflict line %d: %w", lineNum, err)
		}
		conflicts = append(conflicts, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading conflicts file: %w", err)
	}
	return conflicts, nil
}
