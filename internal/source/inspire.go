package source

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/accelml/livingreview/internal/paper"
)

// InspireBaseURL is the InspireHEP literature API endpoint.
const InspireBaseURL = "https://inspirehep.net/api/literature"

// inspireMaxPages caps pagination per run.
const inspireMaxPages = 5

// Inspire fetches records from the InspireHEP literature API.
type Inspire struct {
	BaseURL  string
	client   *Client
	keywords Keywords
}

// NewInspire creates the InspireHEP adapter.
func NewInspire(client *Client, kw Keywords) *Inspire {
	return &Inspire{BaseURL: InspireBaseURL, client: client, keywords: kw}
}

func (in *Inspire) Name() string { return "inspire" }

type inspireResponse struct {
	Hits struct {
		Hits []inspireHit `json:"hits"`
	} `json:"hits"`
}

type inspireHit struct {
	ID       any `json:"id"`
	Metadata struct {
		Titles []struct {
			Title string `json:"title"`
		} `json:"titles"`
		Abstracts []struct {
			Value string `json:"value"`
		} `json:"abstracts"`
		Authors []struct {
			FullName string `json:"full_name"`
		} `json:"authors"`
		EarliestDate string `json:"earliest_date"`
		DOI          string `json:"doi"`
	} `json:"metadata"`
}

// Fetch pages through InspireHEP results and returns the in-window records.
func (in *Inspire) Fetch(ctx context.Context, q Query) ([]paper.Record, error) {
	rows := q.MaxResults
	if rows <= 0 {
		rows = 50
	}

	var records []paper.Record
	for page := 1; page <= inspireMaxPages; page++ {
		params := url.Values{
			"q":    {`title:(accelerator AND "machine learning")`},
			"size": {fmt.Sprint(rows)},
			"sort": {"mostrecent"},
			"page": {fmt.Sprint(page)},
		}

		var resp inspireResponse
		if err := in.client.GetJSON(ctx, in.Name(), in.BaseURL, params, &resp); err != nil {
			// Later pages failing is a partial result, not a dead source.
			if page > 1 {
				return records, nil
			}
			return nil, err
		}
		if len(resp.Hits.Hits) == 0 {
			break
		}

		for _, hit := range resp.Hits.Hits {
			rec, ok := in.hitRecord(hit, q)
			if !ok {
				continue
			}
			records = append(records, rec)
		}
	}
	return records, nil
}

func (in *Inspire) hitRecord(hit inspireHit, q Query) (paper.Record, bool) {
	meta := hit.Metadata
	if len(meta.Titles) == 0 || meta.Titles[0].Title == "" {
		return paper.Record{}, false
	}

	d, ok := parseInspireDate(meta.EarliestDate)
	if !ok || !q.InWindow(d) {
		return paper.Record{}, false
	}

	var authors []string
	for _, a := range meta.Authors {
		if a.FullName != "" {
			authors = append(authors, a.FullName)
		}
	}

	abstract := ""
	if len(meta.Abstracts) > 0 {
		abstract = meta.Abstracts[0].Value
	}

	rec := paper.Record{
		Title:       meta.Titles[0].Title,
		Authors:     authors,
		Abstract:    abstract,
		Date:        d.Format("2006-01-02"),
		Year:        d.Year(),
		Venue:       "InspireHEP",
		Status:      paper.StatusPublished,
		Identifiers: map[string]string{},
		Links:       map[string]string{},
		Source:      in.Name(),
		FetchedAt:   time.Now().UTC(),
	}
	if meta.DOI != "" {
		rec.Identifiers[paper.SchemeDOI] = meta.DOI
	}
	if id := fmt.Sprint(hit.ID); id != "" && id != "<nil>" {
		rec.Identifiers[paper.SchemeInspire] = id
		rec.Links["inspire"] = "https://inspirehep.net/literature/" + id
	}
	return rec, true
}

// parseInspireDate accepts full dates, year-month, or bare years.
func parseInspireDate(s string) (time.Time, bool) {
	for _, layout := range []string{"2006-01-02", "2006-01", "2006"} {
		if d, err := time.Parse(layout, s); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}
