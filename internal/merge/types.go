package merge

import (
	"time"

	"github.com/accelml/livingreview/internal/identity"
)

// ConflictKind classifies why a record could not be merged automatically.
type ConflictKind string

const (
	// ConflictAmbiguousIdentity: weak-signature candidate below full
	// confidence; both the record and the candidate paper are referenced.
	ConflictAmbiguousIdentity ConflictKind = "ambiguous_identity"
	// ConflictFieldDivergence: a populated field differs from an incoming
	// value that is not from a higher-trust source.
	ConflictFieldDivergence ConflictKind = "field_divergence"
	// ConflictSplitEntry: a record's strong keys resolve to two distinct
	// papers, meaning the database holds a split entry.
	ConflictSplitEntry ConflictKind = "split_entry"
)

// Conflict is an entry in the conflict queue, awaiting operator resolution.
type Conflict struct {
	Kind     ConflictKind      `json:"kind"`
	PaperID  string            `json:"paper_id,omitempty"`
	SecondID string            `json:"second_id,omitempty"`
	Field    string            `json:"field,omitempty"`
	Existing string            `json:"existing,omitempty"`
	Incoming string            `json:"incoming,omitempty"`
	Source   string            `json:"source"`
	Title    string            `json:"title"`
	Signals  []identity.Signal `json:"signals,omitempty"`
	SeenAt   time.Time         `json:"seen_at"`
}

// SkippedRecord reports a record dropped from a batch, with the reason.
type SkippedRecord struct {
	Title  string `json:"title,omitempty"`
	Source string `json:"source"`
	Reason string `json:"reason"`
}

// Report summarizes one merge pass over a batch.
type Report struct {
	Created   int             `json:"created"`
	Updated   int             `json:"updated"`
	Unchanged int             `json:"unchanged"`
	Conflicts []Conflict      `json:"conflicts,omitempty"`
	Skipped   []SkippedRecord `json:"skipped,omitempty"`
}
