package source

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/accelml/livingreview/internal/paper"
)

// ArXivBaseURL is the arXiv export API endpoint.
const ArXivBaseURL = "http://export.arxiv.org/api/query"

// arXiv caps unauthenticated result pages.
const arxivPageSize = 100

// mlCategories are the arXiv listings crossed against accelerator keywords.
var mlCategories = []string{"cs.AI", "cs.LG", "stat.ML"}

// ArXiv fetches preprints from the arXiv Atom API.
type ArXiv struct {
	BaseURL  string
	client   *Client
	keywords Keywords
}

// NewArXiv creates the arXiv adapter.
func NewArXiv(client *Client, kw Keywords) *ArXiv {
	return &ArXiv{BaseURL: ArXivBaseURL, client: client, keywords: kw}
}

func (a *ArXiv) Name() string { return "arxiv" }

// queries builds the search expressions: accelerator-physics listings crossed
// with each ML keyword, ML listings crossed with each accelerator keyword,
// and the pure cross-listing query.
func (a *ArXiv) queries() []string {
	var queries []string
	for _, kw := range a.keywords.ML {
		queries = append(queries, fmt.Sprintf(`(cat:physics.acc-ph) AND (%s)`, allTerm(kw)))
	}
	cats := make([]string, len(mlCategories))
	for i, c := range mlCategories {
		cats[i] = "cat:" + c
	}
	sec := strings.Join(cats, " OR ")
	for _, kw := range a.keywords.Accelerator {
		queries = append(queries, fmt.Sprintf(`(%s) AND (%s)`, sec, allTerm(kw)))
	}
	queries = append(queries, fmt.Sprintf(`(cat:physics.acc-ph) AND (%s)`, sec))
	return queries
}

func allTerm(kw string) string {
	if strings.Contains(kw, " ") {
		return fmt.Sprintf(`all:"%s"`, kw)
	}
	return "all:" + kw
}

type atomFeed struct {
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID        string `xml:"id"`
	Updated   string `xml:"updated"`
	Published string `xml:"published"`
	Title     string `xml:"title"`
	Summary   string `xml:"summary"`
	Authors   []struct {
		Name string `xml:"name"`
	} `xml:"author"`
	DOI string `xml:"doi"`
}

// Fetch runs all queries and returns the deduplicated in-window records.
func (a *ArXiv) Fetch(ctx context.Context, q Query) ([]paper.Record, error) {
	max := q.MaxResults
	if max <= 0 || max > arxivPageSize {
		max = arxivPageSize
	}

	seen := make(map[string]bool)
	var records []paper.Record

	for _, query := range a.queries() {
		params := url.Values{
			"search_query": {query},
			"sortBy":       {"submittedDate"},
			"sortOrder":    {"descending"},
			"max_results":  {fmt.Sprint(max)},
		}

		body, err := a.client.Get(ctx, a.Name(), a.BaseURL, params)
		if err != nil {
			return records, err
		}

		var feed atomFeed
		if err := xml.Unmarshal(body, &feed); err != nil {
			return records, &ParseError{Source: a.Name(), Err: err}
		}

		for _, e := range feed.Entries {
			rec, ok := a.entryRecord(e, q)
			if !ok {
				continue
			}
			id := rec.Identifiers[paper.SchemeArXiv]
			if id != "" && seen[id] {
				continue
			}
			seen[id] = true
			records = append(records, rec)
		}
	}
	return records, nil
}

func (a *ArXiv) entryRecord(e atomEntry, q Query) (paper.Record, bool) {
	dateStr := e.Updated
	if dateStr == "" {
		dateStr = e.Published
	}
	d, err := time.Parse(time.RFC3339, dateStr)
	if err != nil {
		return paper.Record{}, false
	}
	if !q.InWindow(d) {
		return paper.Record{}, false
	}

	id := paper.NormArXivID(e.ID)
	if id == "" {
		return paper.Record{}, false
	}

	authors := make([]string, 0, len(e.Authors))
	for _, au := range e.Authors {
		if au.Name != "" {
			authors = append(authors, au.Name)
		}
	}

	rec := paper.Record{
		Title:       e.Title,
		Authors:     authors,
		Abstract:    e.Summary,
		Date:        d.Format("2006-01-02"),
		Year:        d.Year(),
		Venue:       "arXiv",
		Status:      paper.StatusPreprint,
		Identifiers: map[string]string{paper.SchemeArXiv: id},
		Links:       map[string]string{"arxiv": "https://arxiv.org/abs/" + id},
		Source:      a.Name(),
		FetchedAt:   time.Now().UTC(),
	}
	if e.DOI != "" {
		rec.Identifiers[paper.SchemeDOI] = e.DOI
	}
	return rec, true
}
