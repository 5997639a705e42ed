// Package pipeline orchestrates one scan run: fetch from all enabled
// sources, filter for relevance, merge into the canonical snapshot,
// classify, and commit. A run is summarized in a Summary and appended
// to the scan log.
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/accelml/livingreview/internal/classify"
	"github.com/accelml/livingreview/internal/db"
	"github.com/accelml/livingreview/internal/ledger"
	"github.com/accelml/livingreview/internal/merge"
	"github.com/accelml/livingreview/internal/paper"
	"github.com/accelml/livingreview/internal/source"
)

const (
	// DefaultFetchTimeout bounds a single adapter's fetch.
	DefaultFetchTimeout = 2 * time.Minute
	// maxConcurrentFetches is the bounded semaphore size for parallel
	// source fetches.
	maxConcurrentFetches = 3
)

// SourceResult reports one adapter's outcome within a run.
type SourceResult struct {
	Source  string `json:"source"`
	Fetched int    `json:"fetched"`
	Error   string `json:"error,omitempty"`
}

// Summary is the result of one scan run.
type Summary struct {
	RunID       string         `json:"run_id"`
	StartedAt   time.Time      `json:"started_at"`
	FinishedAt  time.Time      `json:"finished_at"`
	WindowStart string         `json:"window_start"`
	WindowEnd   string         `json:"window_end"`
	Sources     []SourceResult `json:"sources"`

	Fetched       int `json:"fetched"`
	Filtered      int `json:"filtered"`
	Created       int `json:"created"`
	Updated       int `json:"updated"`
	Unchanged     int `json:"unchanged"`
	Conflicts     int `json:"conflicts"`
	Skipped       int `json:"skipped"`
	Classified    int `json:"classified"`
	Review        int `json:"routed_to_review"`
	Uncategorized int `json:"uncategorized"`
	Errors        int `json:"errors"`

	Version int64 `json:"version"`
}

// Pipeline wires the stages of a scan run together.
type Pipeline struct {
	DB         *db.DB
	Ledger     *ledger.Ledger
	Adapters   []source.Adapter
	Filter     *classify.RelevanceFilter
	Classifier classify.Classifier
	Thresholds classify.Thresholds
	Policy     merge.Policy

	FetchTimeout time.Duration

	// Now is overridable for tests.
	Now func() time.Time
}

// Run executes one scan over the given window. Adapter failures are
// recorded in the summary, not returned: a run is only an error when
// the database itself cannot be read or committed.
func (p *Pipeline) Run(ctx context.Context, q source.Query) (*Summary, error) {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}

	sum := &Summary{
		RunID:       uuid.NewString(),
		StartedAt:   now().UTC(),
		WindowStart: q.Start.Format("2006-01-02"),
		WindowEnd:   q.End.Format("2006-01-02"),
	}

	records := p.fetchAll(ctx, q, sum)
	sum.Fetched = len(records)

	records = p.filterRelevant(ctx, records, sum)

	snap, err := p.DB.Load()
	if err != nil {
		return sum, err
	}

	runTime := now().UTC()
	papers, report := merge.Apply(snap.Papers, records, p.Policy, runTime)
	sum.Created = report.Created
	sum.Updated = report.Updated
	sum.Unchanged = report.Unchanged
	sum.Conflicts = len(report.Conflicts)
	sum.Skipped = len(report.Skipped)

	if err := p.DB.AppendConflicts(report.Conflicts); err != nil {
		return sum, err
	}

	changed := report.Created+report.Updated > 0
	if p.Classifier != nil {
		if p.classify(ctx, papers, runTime, sum) {
			changed = true
		}
	}

	if changed {
		snap.Papers = papers
		if err := p.DB.Commit(snap); err != nil {
			return sum, err
		}
	}
	sum.Version = snap.Meta.Version

	sum.FinishedAt = now().UTC()
	if err := AppendScanLog(p.DB.Dir(), sum); err != nil {
		return sum, err
	}
	return sum, nil
}

// fetchAll runs all adapters in parallel with bounded concurrency.
// Each adapter gets its own timeout so one stuck source cannot stall
// the run.
func (p *Pipeline) fetchAll(ctx context.Context, q source.Query, sum *Summary) []paper.Record {
	timeout := p.FetchTimeout
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}

	results := make([]SourceResult, len(p.Adapters))
	batches := make([][]paper.Record, len(p.Adapters))
	var wg sync.WaitGroup
	sem := make(chan struct{}, maxConcurrentFetches)

	for i, a := range p.Adapters {
		wg.Add(1)
		go func(idx int, adapter source.Adapter) {
			defer wg.Done()
			sem <- struct{}{}        // acquire semaphore
			defer func() { <-sem }() // release semaphore

			fctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			recs, err := adapter.Fetch(fctx, q)
			results[idx] = SourceResult{Source: adapter.Name(), Fetched: len(recs)}
			if err != nil {
				results[idx].Error = err.Error()
			}
			batches[idx] = recs
		}(i, a)
	}

	wg.Wait()

	var records []paper.Record
	for i := range results {
		sum.Sources = append(sum.Sources, results[i])
		if results[i].Error != "" {
			sum.Errors++
		}
		records = append(records, batches[i]...)
	}
	return records
}

// filterRelevant drops records the relevance filter rejects. A filter
// error keeps the record rather than losing data.
func (p *Pipeline) filterRelevant(ctx context.Context, records []paper.Record, sum *Summary) []paper.Record {
	if p.Filter == nil {
		return records
	}

	kept := records[:0]
	for i := range records {
		ok, err := p.Filter.Relevant(ctx, &records[i])
		if err != nil {
			sum.Errors++
			kept = append(kept, records[i])
			continue
		}
		if ok {
			kept = append(kept, records[i])
		} else {
			sum.Filtered++
		}
	}
	return kept
}

// classify assigns categories to papers touched by this run and to
// papers still flagged uncategorized from earlier runs. Returns true
// if any paper was modified.
func (p *Pipeline) classify(ctx context.Context, papers []paper.Paper, runTime time.Time, sum *Summary) bool {
	changed := false
	for i := range papers {
		pp := &papers[i]
		if pp.Retracted || len(pp.Categories) > 0 {
			continue
		}
		if !pp.LastUpdated.Equal(runTime) && !pp.Uncategorized {
			continue
		}

		a, err := p.Classifier.Classify(ctx, pp)
		if err != nil {
			sum.Errors++
			continue
		}

		switch classify.Routing(a, p.Thresholds) {
		case classify.RouteApply:
			classify.ApplyAssignment(pp, a)
			sum.Classified++
			changed = true
		case classify.RouteReview:
			if err := p.submitForReview(pp, a, sum.RunID); err != nil {
				sum.Errors++
				continue
			}
			sum.Review++
			if pp.Uncategorized {
				pp.Uncategorized = false
				changed = true
			}
		default:
			if !pp.Uncategorized {
				pp.Uncategorized = true
				changed = true
			}
			sum.Uncategorized++
		}
	}
	return changed
}

// submitForReview files a pending ledger entry carrying the low
// confidence category proposal for a curator to confirm.
func (p *Pipeline) submitForReview(pp *paper.Paper, a classify.Assignment, runID string) error {
	if p.Ledger == nil {
		return nil
	}
	_, err := p.Ledger.Submit(reviewRecord(pp), ledger.Submitter{
		Name:    "scan",
		Contact: runID,
	}, a.Categories)
	return err
}

func reviewRecord(pp *paper.Paper) paper.Record {
	ids := make(map[string]string, len(pp.Identifiers)+2)
	for k, v := range pp.Identifiers {
		ids[k] = v
	}
	if pp.DOI != "" {
		ids[paper.SchemeDOI] = pp.DOI
	}
	if pp.ArXivID != "" {
		ids[paper.SchemeArXiv] = pp.ArXivID
	}
	return paper.Record{
		Title:       pp.Title,
		Authors:     pp.Authors,
		Abstract:    pp.Abstract,
		Date:        pp.Date,
		Year:        pp.Year,
		Venue:       pp.Venue,
		Status:      pp.Status,
		Identifiers: ids,
		Links:       pp.Links,
		Source:      "scan",
	}
}
