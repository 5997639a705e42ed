// Package paper defines the core domain types for the living review database.
package paper

import "time"

// Publication status values, ordered from least to most advanced.
// Merges only ever promote status forward in this order.
const (
	StatusPending   = "pending"
	StatusSubmitted = "submitted"
	StatusPreprint  = "preprint"
	StatusAccepted  = "accepted"
	StatusPublished = "published"
	StatusRetracted = "retracted"
)

// statusOrder defines the promotion order for publication statuses.
var statusOrder = []string{
	StatusPending,
	StatusSubmitted,
	StatusPreprint,
	StatusAccepted,
	StatusPublished,
	StatusRetracted,
}

// StatusRank returns the promotion rank of a status (higher = more advanced),
// or -1 for unknown or empty statuses.
func StatusRank(status string) int {
	for i, s := range statusOrder {
		if s == status {
			return i
		}
	}
	return -1
}

// Identifier schemes recognized across sources. DOI and arXiv are strong
// keys: equality implies identity.
const (
	SchemeDOI      = "doi"
	SchemeArXiv    = "arxiv"
	SchemeInspire  = "inspire"
	SchemeHAL      = "hal"
	SchemeOpenAlex = "openalex"
	SchemePMID     = "pmid"
)

// CategoryScore is a taxonomy category assignment with its confidence score.
type CategoryScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Provenance records that a source contributed data to a paper.
type Provenance struct {
	Source string    `json:"source"`
	SeenAt time.Time `json:"seen_at"`
}

// Paper is the canonical database entry for one real-world work.
type Paper struct {
	// Identity. ID is assigned once on first merge and never changes.
	ID          string            `json:"id"`
	DOI         string            `json:"doi,omitempty"`
	ArXivID     string            `json:"arxiv_id,omitempty"`
	Identifiers map[string]string `json:"identifiers,omitempty"` // scheme -> value, union across sources

	// Metadata
	Title    string   `json:"title"`
	Authors  []string `json:"authors"`
	Abstract string   `json:"abstract,omitempty"`
	Date     string   `json:"date,omitempty"` // ISO date YYYY-MM-DD
	Year     int      `json:"year,omitempty"`
	Venue    string   `json:"venue,omitempty"`
	URL      string   `json:"url,omitempty"`
	Status   string   `json:"status,omitempty"`

	// Classification
	Categories []CategoryScore `json:"categories,omitempty"`
	// PreviousCategories retains superseded category sets when a paper is
	// re-classified, newest first.
	PreviousCategories [][]CategoryScore `json:"previous_categories,omitempty"`
	Uncategorized      bool              `json:"uncategorized,omitempty"`
	Keywords           []string          `json:"keywords,omitempty"`

	// Curation
	Curated   bool              `json:"curated,omitempty"` // curated fields are protected from overwrite
	Notes     string            `json:"notes,omitempty"`
	Featured  bool              `json:"featured,omitempty"`
	Retracted bool              `json:"retracted,omitempty"` // flagged, never deleted
	Links     map[string]string `json:"links,omitempty"`

	// Provenance and audit
	Sources     []Provenance `json:"sources"`
	FirstAdded  time.Time    `json:"first_added"`
	LastUpdated time.Time    `json:"last_updated"`
}

// Clone returns a deep copy of the paper. Mutating the copy's maps and
// slices leaves the original untouched.
func (p *Paper) Clone() Paper {
	out := *p
	out.Identifiers = cloneStringMap(p.Identifiers)
	out.Links = cloneStringMap(p.Links)
	out.Authors = append([]string(nil), p.Authors...)
	out.Keywords = append([]string(nil), p.Keywords...)
	out.Categories = append([]CategoryScore(nil), p.Categories...)
	if p.PreviousCategories != nil {
		out.PreviousCategories = make([][]CategoryScore, len(p.PreviousCategories))
		for i, set := range p.PreviousCategories {
			out.PreviousCategories[i] = append([]CategoryScore(nil), set...)
		}
	}
	out.Sources = append([]Provenance(nil), p.Sources...)
	return out
}

func cloneStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// HasSource reports whether the named source already appears in provenance.
func (p *Paper) HasSource(name string) bool {
	for _, s := range p.Sources {
		if s.Source == name {
			return true
		}
	}
	return false
}

// Identifier returns the paper's identifier for a scheme, checking the
// dedicated DOI/arXiv fields first.
func (p *Paper) Identifier(scheme string) string {
	switch scheme {
	case SchemeDOI:
		if p.DOI != "" {
			return p.DOI
		}
	case SchemeArXiv:
		if p.ArXivID != "" {
			return p.ArXivID
		}
	}
	return p.Identifiers[scheme]
}

// CategoryLabels returns the labels of the current category set.
func (p *Paper) CategoryLabels() []string {
	labels := make([]string, len(p.Categories))
	for i, c := range p.Categories {
		labels[i] = c.Label
	}
	return labels
}
