package source

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/accelml/livingreview/internal/paper"
)

// HALBaseURL is the HAL (Hyper Articles en Ligne) search API endpoint.
const HALBaseURL = "https://api.archives-ouvertes.fr/search/"

// HAL fetches deposits from the HAL open archive.
type HAL struct {
	BaseURL  string
	client   *Client
	keywords Keywords
}

// NewHAL creates the HAL adapter.
func NewHAL(client *Client, kw Keywords) *HAL {
	return &HAL{BaseURL: HALBaseURL, client: client, keywords: kw}
}

func (h *HAL) Name() string { return "hal" }

type halResponse struct {
	Response struct {
		Docs []halDoc `json:"docs"`
	} `json:"response"`
}

type halDoc struct {
	Title         []string `json:"title_s"`
	Abstract      []string `json:"abstract_s"`
	ProducedDate  string   `json:"producedDate_s"`
	SubmittedDate string   `json:"submittedDate_s"`
	Authors       []string `json:"authFullName_s"`
	DOI           []string `json:"doiId_s"`
	HALID         string   `json:"halId_s"`
	Journal       []string `json:"journalTitle_s"`
}

// Fetch queries HAL and returns the in-window records.
func (h *HAL) Fetch(ctx context.Context, q Query) ([]paper.Record, error) {
	rows := q.MaxResults
	if rows <= 0 {
		rows = 50
	}
	params := url.Values{
		"q":    {searchTerms(h.keywords)},
		"rows": {fmt.Sprint(rows)},
		"wt":   {"json"},
	}

	var resp halResponse
	if err := h.client.GetJSON(ctx, h.Name(), h.BaseURL, params, &resp); err != nil {
		return nil, err
	}

	var records []paper.Record
	for _, doc := range resp.Response.Docs {
		rec, ok := h.docRecord(doc, q)
		if !ok {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func (h *HAL) docRecord(doc halDoc, q Query) (paper.Record, bool) {
	if len(doc.Title) == 0 || doc.Title[0] == "" {
		return paper.Record{}, false
	}

	dateStr := doc.ProducedDate
	if dateStr == "" {
		dateStr = doc.SubmittedDate
	}
	if len(dateStr) < 10 {
		return paper.Record{}, false
	}
	d, err := time.Parse("2006-01-02", dateStr[:10])
	if err != nil || !q.InWindow(d) {
		return paper.Record{}, false
	}

	venue := "HAL"
	if len(doc.Journal) > 0 && doc.Journal[0] != "" {
		venue = doc.Journal[0]
	}

	abstract := ""
	if len(doc.Abstract) > 0 {
		abstract = doc.Abstract[0]
	}

	rec := paper.Record{
		Title:       doc.Title[0],
		Authors:     doc.Authors,
		Abstract:    abstract,
		Date:        d.Format("2006-01-02"),
		Year:        d.Year(),
		Venue:       venue,
		Status:      paper.StatusSubmitted,
		Identifiers: map[string]string{},
		Links:       map[string]string{},
		Source:      h.Name(),
		FetchedAt:   time.Now().UTC(),
	}
	if len(doc.DOI) > 0 && doc.DOI[0] != "" {
		rec.Identifiers[paper.SchemeDOI] = doc.DOI[0]
	}
	if doc.HALID != "" {
		rec.Identifiers[paper.SchemeHAL] = doc.HALID
		rec.Links["hal"] = "https://hal.archives-ouvertes.fr/" + doc.HALID
	}
	return rec, true
}
