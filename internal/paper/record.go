package paper

import (
	"fmt"
	"strconv"
	"time"
)

// Record is a normalized record produced by a source adapter. It carries
// source-shaped metadata in a common form; identity resolution and merging
// happen downstream.
type Record struct {
	Title       string            `json:"title"`
	Authors     []string          `json:"authors"` // source order preserved
	Abstract    string            `json:"abstract,omitempty"`
	Date        string            `json:"date,omitempty"` // ISO date YYYY-MM-DD
	Year        int               `json:"year,omitempty"` // 0 if unknown
	Venue       string            `json:"venue,omitempty"`
	Status      string            `json:"status,omitempty"`
	Identifiers map[string]string `json:"identifiers,omitempty"` // scheme -> value
	Links       map[string]string `json:"links,omitempty"`
	Keywords    []string          `json:"keywords,omitempty"`
	Source      string            `json:"source"`
	FetchedAt   time.Time         `json:"fetched_at"`
}

// Normalize cleans a record in place: collapses title/author whitespace,
// canonicalizes DOI and arXiv identifiers, derives the year from the date
// when missing, and drops empty values. It returns an error if the title is
// empty after normalization.
func (r *Record) Normalize() error {
	r.Title = NormSpace(r.Title)
	if r.Title == "" {
		return fmt.Errorf("record from %s has empty title", r.Source)
	}

	authors := r.Authors[:0]
	for _, a := range r.Authors {
		if a = NormSpace(a); a != "" {
			authors = append(authors, a)
		}
	}
	r.Authors = authors

	ids := make(map[string]string, len(r.Identifiers))
	for scheme, value := range r.Identifiers {
		switch scheme {
		case SchemeDOI:
			value = NormDOI(value)
		case SchemeArXiv:
			value = NormArXivID(value)
		}
		if value != "" {
			ids[scheme] = value
		}
	}
	r.Identifiers = ids

	if r.Year == 0 && len(r.Date) >= 4 {
		if y, err := strconv.Atoi(r.Date[:4]); err == nil {
			r.Year = y
		}
	}

	for k, v := range r.Links {
		if v == "" {
			delete(r.Links, k)
		}
	}

	if r.Status == "" && ids[SchemeArXiv] != "" && ids[SchemeDOI] == "" {
		r.Status = StatusPreprint
	}

	return nil
}

// DOI returns the record's normalized DOI, if any.
func (r *Record) DOI() string { return r.Identifiers[SchemeDOI] }

// ArXivID returns the record's normalized arXiv identifier, if any.
func (r *Record) ArXivID() string { return r.Identifiers[SchemeArXiv] }
