package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/accelml/livingreview/internal/db"
	"github.com/accelml/livingreview/internal/merge"
	"github.com/accelml/livingreview/internal/paper"
)

// ErrAmbiguousIdentity indicates the payload could not be safely matched
// against the database; the entry stays pending and the conflict is queued.
var ErrAmbiguousIdentity = errors.New("submission matches the database ambiguously")

// Accept merges the entry's payload into the database and archives the
// entry as accepted. A payload whose identity already exists updates that
// paper instead of duplicating it. Accepting an already-decided entry is
// a no-op. If the merge has already happened but archiving failed on an
// earlier attempt, re-running Accept merges as a no-op and finishes the
// archive.
func (l *Ledger) Accept(d *db.DB, policy merge.Policy, id, notes string) (*Entry, merge.Report, error) {
	entry, err := l.Get(id)
	if err != nil {
		return nil, merge.Report{}, err
	}
	if entry.Decided() {
		return entry, merge.Report{}, nil
	}

	snap, err := d.Load()
	if err != nil {
		return nil, merge.Report{}, err
	}

	payload := entry.Payload
	papers, report := merge.Apply(snap.Papers, []paper.Record{payload}, policy, time.Now().UTC())

	for _, c := range report.Conflicts {
		if c.Kind == merge.ConflictAmbiguousIdentity || c.Kind == merge.ConflictSplitEntry {
			if err := d.AppendConflicts(report.Conflicts); err != nil {
				return nil, report, err
			}
			return entry, report, fmt.Errorf("%w (entry %s)", ErrAmbiguousIdentity, entry.ID)
		}
	}

	if report.Created > 0 || report.Updated > 0 {
		snap.Papers = papers
		if err := d.Commit(snap); err != nil {
			return nil, report, fmt.Errorf("committing accepted entry: %w", err)
		}
	}
	if len(report.Conflicts) > 0 {
		if err := d.AppendConflicts(report.Conflicts); err != nil {
			return nil, report, err
		}
	}

	decided, err := l.Decide(entry.ID, StatusAccepted, notes)
	if err != nil {
		return nil, report, err
	}

	// Apply proposed categories to the merged paper when it has none yet.
	if len(entry.ProposedCategories) > 0 {
		if err := l.applyProposed(d, &payload, entry.ProposedCategories); err != nil {
			return decided, report, err
		}
	}
	return decided, report, nil
}

// Reject archives a pending entry as rejected. The reason is mandatory
// and stored in the reviewer notes. Rejecting an already-decided entry is
// a no-op.
func (l *Ledger) Reject(id, reason string) (*Entry, error) {
	return l.Decide(id, StatusRejected, reason)
}

func (l *Ledger) applyProposed(d *db.DB, payload *paper.Record, proposed []paper.CategoryScore) error {
	snap, err := d.Load()
	if err != nil {
		return err
	}

	target := findByRecord(snap, payload)
	if target == nil || len(target.Categories) > 0 {
		return nil
	}
	target.Categories = proposed
	target.Uncategorized = false
	return d.Commit(snap)
}

// findByRecord locates the snapshot paper holding the record's identity.
func findByRecord(snap *db.Snapshot, rec *paper.Record) *paper.Paper {
	for i := range snap.Papers {
		p := &snap.Papers[i]
		if doi := rec.DOI(); doi != "" && p.DOI == doi {
			return p
		}
		if ax := rec.ArXivID(); ax != "" && p.ArXivID == ax {
			return p
		}
	}
	return nil
}
