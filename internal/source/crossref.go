package source

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/accelml/livingreview/internal/paper"
)

// CrossrefBaseURL is the Crossref works API endpoint.
const CrossrefBaseURL = "https://api.crossref.org/works"

// Crossref fetches published works from the Crossref API.
type Crossref struct {
	BaseURL  string
	client   *Client
	keywords Keywords
}

// NewCrossref creates the Crossref adapter.
func NewCrossref(client *Client, kw Keywords) *Crossref {
	return &Crossref{BaseURL: CrossrefBaseURL, client: client, keywords: kw}
}

func (c *Crossref) Name() string { return "crossref" }

type crossrefResponse struct {
	Message struct {
		Items []crossrefItem `json:"items"`
	} `json:"message"`
}

type crossrefItem struct {
	Title    []string `json:"title"`
	Abstract string   `json:"abstract"`
	Issued   struct {
		DateParts [][]int `json:"date-parts"`
	} `json:"issued"`
	Author []struct {
		Given  string `json:"given"`
		Family string `json:"family"`
	} `json:"author"`
	DOI            string   `json:"DOI"`
	ContainerTitle []string `json:"container-title"`
	URL            string   `json:"URL"`
}

// Fetch queries Crossref and returns the in-window records.
func (c *Crossref) Fetch(ctx context.Context, q Query) ([]paper.Record, error) {
	rows := q.MaxResults
	if rows <= 0 {
		rows = 50
	}
	params := url.Values{
		"query": {searchTerms(c.keywords)},
		"rows":  {fmt.Sprint(rows)},
		"sort":  {"published"},
	}

	var resp crossrefResponse
	if err := c.client.GetJSON(ctx, c.Name(), c.BaseURL, params, &resp); err != nil {
		return nil, err
	}

	var records []paper.Record
	for _, item := range resp.Message.Items {
		rec, ok := c.itemRecord(item, q)
		if !ok {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func (c *Crossref) itemRecord(item crossrefItem, q Query) (paper.Record, bool) {
	if len(item.Title) == 0 || item.Title[0] == "" {
		return paper.Record{}, false
	}

	d, ok := dateFromParts(item.Issued.DateParts)
	if !ok || !q.InWindow(d) {
		return paper.Record{}, false
	}

	authors := make([]string, 0, len(item.Author))
	for _, a := range item.Author {
		name := strings.TrimSpace(a.Given + " " + a.Family)
		if name != "" {
			authors = append(authors, name)
		}
	}

	venue := ""
	if len(item.ContainerTitle) > 0 {
		venue = item.ContainerTitle[0]
	}

	rec := paper.Record{
		Title:       item.Title[0],
		Authors:     authors,
		Abstract:    item.Abstract,
		Date:        d.Format("2006-01-02"),
		Year:        d.Year(),
		Venue:       venue,
		Status:      paper.StatusPublished,
		Identifiers: map[string]string{},
		Links:       map[string]string{},
		Source:      c.Name(),
		FetchedAt:   time.Now().UTC(),
	}
	if item.DOI != "" {
		rec.Identifiers[paper.SchemeDOI] = item.DOI
		rec.Links["doi"] = "https://doi.org/" + paper.NormDOI(item.DOI)
	}
	if item.URL != "" {
		rec.Links["crossref"] = item.URL
	}
	return rec, true
}

// dateFromParts builds a date from Crossref's date-parts, defaulting
// missing month and day to 1.
func dateFromParts(parts [][]int) (time.Time, bool) {
	if len(parts) == 0 || len(parts[0]) == 0 || parts[0][0] == 0 {
		return time.Time{}, false
	}
	p := parts[0]
	year, month, day := p[0], 1, 1
	if len(p) > 1 {
		month = p[1]
	}
	if len(p) > 2 {
		day = p[2]
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}

// searchTerms joins the configured keyword lists into the free-text query
// shared by the JSON APIs.
func searchTerms(kw Keywords) string {
	terms := []string{"accelerator", "machine learning"}
	if len(kw.Accelerator) > 0 && len(kw.ML) > 0 {
		terms = []string{kw.Accelerator[0], kw.ML[0]}
	}
	return strings.Join(terms, " ")
}
