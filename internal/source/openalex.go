package source

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/accelml/livingreview/internal/paper"
)

// OpenAlexBaseURL is the OpenAlex works API endpoint.
const OpenAlexBaseURL = "https://api.openalex.org/works"

// OpenAlex fetches works from the OpenAlex API.
type OpenAlex struct {
	BaseURL  string
	client   *Client
	keywords Keywords
}

// NewOpenAlex creates the OpenAlex adapter.
func NewOpenAlex(client *Client, kw Keywords) *OpenAlex {
	return &OpenAlex{BaseURL: OpenAlexBaseURL, client: client, keywords: kw}
}

func (o *OpenAlex) Name() string { return "openalex" }

type openAlexResponse struct {
	Results []openAlexWork `json:"results"`
}

type openAlexWork struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Abstract        string `json:"abstract"`
	PublicationDate string `json:"publication_date"`
	DOI             string `json:"doi"`
	HostVenue       struct {
		DisplayName string `json:"display_name"`
	} `json:"host_venue"`
	Authorships []struct {
		Author struct {
			DisplayName string `json:"display_name"`
		} `json:"author"`
	} `json:"authorships"`
}

// Fetch queries OpenAlex filtered to the window and returns records.
func (o *OpenAlex) Fetch(ctx context.Context, q Query) ([]paper.Record, error) {
	perPage := q.MaxResults
	if perPage <= 0 {
		perPage = 50
	}
	filter := fmt.Sprintf("abstract.search:%s,from_publication_date:%s,to_publication_date:%s",
		searchTerms(o.keywords),
		q.Start.Format("2006-01-02"),
		q.End.Format("2006-01-02"))
	params := url.Values{
		"filter":   {filter},
		"per-page": {fmt.Sprint(perPage)},
	}

	var resp openAlexResponse
	if err := o.client.GetJSON(ctx, o.Name(), o.BaseURL, params, &resp); err != nil {
		return nil, err
	}

	var records []paper.Record
	for _, w := range resp.Results {
		rec, ok := o.workRecord(w, q)
		if !ok {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func (o *OpenAlex) workRecord(w openAlexWork, q Query) (paper.Record, bool) {
	if w.Title == "" {
		return paper.Record{}, false
	}
	d, err := time.Parse("2006-01-02", w.PublicationDate)
	if err != nil || !q.InWindow(d) {
		return paper.Record{}, false
	}

	var authors []string
	for _, a := range w.Authorships {
		if a.Author.DisplayName != "" {
			authors = append(authors, a.Author.DisplayName)
		}
	}

	rec := paper.Record{
		Title:       w.Title,
		Authors:     authors,
		Abstract:    w.Abstract,
		Date:        w.PublicationDate,
		Year:        d.Year(),
		Venue:       w.HostVenue.DisplayName,
		Status:      paper.StatusPublished,
		Identifiers: map[string]string{},
		Links:       map[string]string{},
		Source:      o.Name(),
		FetchedAt:   time.Now().UTC(),
	}
	if w.DOI != "" {
		rec.Identifiers[paper.SchemeDOI] = w.DOI
	}
	if w.ID != "" {
		rec.Identifiers[paper.SchemeOpenAlex] = w.ID
		rec.Links["openalex"] = w.ID
	}
	return rec, true
}
