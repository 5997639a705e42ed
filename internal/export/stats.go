// Package export projects the canonical database into derived artifacts:
// aggregate statistics and a BibTeX bibliography. Projections are
// recomputed in full from the last committed snapshot, never updated
// incrementally.
package export

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/accelml/livingreview/internal/db"
)

// TrackedKeywords are the terms counted in titles and abstracts.
var TrackedKeywords = []string{
	"control", "beam", "HPC", "cloud", "uncertainty quantification",
	"proton therapy", "federated learning", "data management",
	"transformer", "optimization", "anomaly detection",
	"time series", "diagnostics", "reinforcement learning",
	"RF cavity", "feature store", "GPU", "deep learning",
	"surrogate model", "GAN",
}

// Stats aggregates counts over the non-retracted papers of a snapshot.
type Stats struct {
	TotalPapers     int            `json:"total_papers"`
	TotalCategories int            `json:"total_categories"`
	PerYear         map[string]int `json:"per_year"`
	PerCategory     map[string]int `json:"per_category"`
	PerVenue        map[string]int `json:"per_venue"`
	PerKeyword      map[string]int `json:"per_keyword"`
	MonthlyTrends   map[string]int `json:"monthly_trends"`
	LastUpdated     time.Time      `json:"last_updated"`
}

// Summary is the compact statistics.json artifact.
type Summary struct {
	TotalPapers     int    `json:"total_papers"`
	TotalCategories int    `json:"total_categories"`
	LastUpdated     string `json:"last_updated"`
	NextUpdate      string `json:"next_update"`
	LatestPapers    int    `json:"latest_papers"`
	LatestMonth     string `json:"latest_month"`
}

// ComputeStats recomputes all aggregates from the snapshot. Retracted
// papers are excluded everywhere, so the per-year counts always sum to
// TotalPapers for papers with a known year. An empty keyword list means
// TrackedKeywords.
func ComputeStats(snap *db.Snapshot, keywords []string) Stats {
	if len(keywords) == 0 {
		keywords = TrackedKeywords
	}

	stats := Stats{
		PerYear:       map[string]int{},
		PerCategory:   map[string]int{},
		PerVenue:      map[string]int{},
		PerKeyword:    map[string]int{},
		MonthlyTrends: map[string]int{},
		LastUpdated:   snap.Meta.LastUpdated,
	}

	matchers := make(map[string]*regexp.Regexp, len(keywords))
	for _, kw := range keywords {
		matchers[kw] = regexp.MustCompile(`\b` + regexp.QuoteMeta(strings.ToLower(kw)) + `\b`)
	}

	for i := range snap.Papers {
		p := &snap.Papers[i]
		if p.Retracted {
			continue
		}
		stats.TotalPapers++

		if p.Year > 0 {
			stats.PerYear[strconv.Itoa(p.Year)]++
		}

		for _, c := range p.Categories {
			stats.PerCategory[c.Label]++
		}

		venue := p.Venue
		if venue == "" {
			venue = "Unknown"
		}
		stats.PerVenue[venue]++

		text := strings.ToLower(p.Title + " " + p.Abstract)
		for kw, re := range matchers {
			if re.MatchString(text) {
				stats.PerKeyword[kw]++
			}
		}

		if len(p.Date) >= 7 {
			stats.MonthlyTrends[p.Date[:7]]++
		}
	}

	stats.TotalCategories = len(stats.PerCategory)
	return stats
}

// Summary reduces the stats to the compact artifact shape. The next
// update timestamp is now plus the configured refresh interval.
func (s Stats) Summary(now time.Time, interval time.Duration) Summary {
	latestMonth := ""
	for month := range s.MonthlyTrends {
		if month > latestMonth {
			latestMonth = month
		}
	}
	return Summary{
		TotalPapers:     s.TotalPapers,
		TotalCategories: s.TotalCategories,
		LastUpdated:     s.LastUpdated.UTC().Format(time.RFC3339),
		NextUpdate:      now.Add(interval).UTC().Format(time.RFC3339),
		LatestPapers:    s.MonthlyTrends[latestMonth],
		LatestMonth:     latestMonth,
	}
}
