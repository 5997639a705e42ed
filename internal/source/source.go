// Package source implements the bibliographic source adapters: remote APIs
// (arXiv, Crossref, OpenAlex, HAL, InspireHEP) and a local PDF drop folder.
// Each adapter fetches raw results for a date window and normalizes them
// into paper.Record values; per-record parse problems are skipped, not fatal.
package source

import (
	"context"
	"time"

	"github.com/accelml/livingreview/internal/paper"
)

// Query describes one fetch window.
type Query struct {
	Start      time.Time
	End        time.Time
	MaxResults int
}

// InWindow reports whether a date falls inside the query window (inclusive).
func (q Query) InWindow(d time.Time) bool {
	if d.IsZero() {
		return false
	}
	day := d.Truncate(24 * time.Hour)
	return !day.Before(q.Start.Truncate(24*time.Hour)) && !day.After(q.End.Truncate(24*time.Hour))
}

// Adapter is a single bibliographic source.
type Adapter interface {
	// Name returns the source name recorded in provenance.
	Name() string

	// Fetch retrieves normalized records for the query window.
	Fetch(ctx context.Context, q Query) ([]paper.Record, error)
}

// Keywords holds the configured search terms shared by the adapters.
type Keywords struct {
	Accelerator []string
	ML          []string
}
