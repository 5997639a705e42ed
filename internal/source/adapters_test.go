package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/accelml/livingreview/internal/paper"
)

func testWindow() Query {
	return Query{
		Start: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC),
	}
}

const arxivFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/2501.01234v2</id>
    <updated>2025-01-15T10:00:00Z</updated>
    <published>2025-01-10T10:00:00Z</published>
    <title>Reinforcement Learning for Orbit Correction</title>
    <summary>We apply RL to storage ring orbit correction.</summary>
    <author><name>Ada Lovelace</name></author>
    <author><name>Wei Chen</name></author>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2412.09999v1</id>
    <updated>2024-12-20T10:00:00Z</updated>
    <title>Out of Window Paper</title>
    <summary>Too old.</summary>
    <author><name>Old Author</name></author>
  </entry>
</feed>`

func TestArXiv_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("search_query") == "" {
			t.Error("missing search_query parameter")
		}
		w.Write([]byte(arxivFeed))
	}))
	defer srv.Close()

	a := NewArXiv(testClient(), Keywords{ML: []string{"machine learning"}})
	a.BaseURL = srv.URL

	records, err := a.Fetch(context.Background(), testWindow())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1 (window filtered, deduplicated)", len(records))
	}

	rec := records[0]
	if rec.Identifiers[paper.SchemeArXiv] != "2501.01234" {
		t.Errorf("arxiv id = %q (version suffix must be stripped)", rec.Identifiers[paper.SchemeArXiv])
	}
	if rec.Status != paper.StatusPreprint {
		t.Errorf("Status = %q", rec.Status)
	}
	if rec.Source != "arxiv" || rec.Venue != "arXiv" {
		t.Errorf("Source/Venue = %q/%q", rec.Source, rec.Venue)
	}
	if len(rec.Authors) != 2 || rec.Authors[0] != "Ada Lovelace" {
		t.Errorf("Authors = %v", rec.Authors)
	}
}

func TestArXiv_Queries(t *testing.T) {
	a := NewArXiv(nil, Keywords{
		Accelerator: []string{"beam dynamics"},
		ML:          []string{"neural network", "surrogate"},
	})
	queries := a.queries()
	// Two ML keywords, one accelerator keyword, plus the cross-listing query.
	if len(queries) != 4 {
		t.Fatalf("got %d queries: %v", len(queries), queries)
	}
	if queries[0] != `(cat:physics.acc-ph) AND (all:"neural network")` {
		t.Errorf("queries[0] = %q", queries[0])
	}
	if queries[1] != `(cat:physics.acc-ph) AND (all:surrogate)` {
		t.Errorf("queries[1] = %q", queries[1])
	}
}

const crossrefBody = `{"message":{"items":[
  {"title":["Bayesian Optimization of Linac Tuning"],
   "abstract":"We tune linacs.",
   "issued":{"date-parts":[[2025,1,20]]},
   "author":[{"given":"Grace","family":"Hopper"}],
   "DOI":"10.1103/PhysRevAccelBeams.28.012345",
   "container-title":["Physical Review Accelerators and Beams"],
   "URL":"https://doi.org/10.1103/PhysRevAccelBeams.28.012345"},
  {"title":["Year Only Paper"],"issued":{"date-parts":[[2020]]},"DOI":"10.1/old"}
]}}`

func TestCrossref_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(crossrefBody))
	}))
	defer srv.Close()

	c := NewCrossref(testClient(), Keywords{})
	c.BaseURL = srv.URL

	records, err := c.Fetch(context.Background(), testWindow())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1 (2020 paper out of window)", len(records))
	}

	rec := records[0]
	if rec.Identifiers[paper.SchemeDOI] != "10.1103/PhysRevAccelBeams.28.012345" {
		t.Errorf("DOI = %q", rec.Identifiers[paper.SchemeDOI])
	}
	if rec.Authors[0] != "Grace Hopper" {
		t.Errorf("Authors = %v", rec.Authors)
	}
	if rec.Date != "2025-01-20" || rec.Year != 2025 {
		t.Errorf("Date/Year = %q/%d", rec.Date, rec.Year)
	}
	if rec.Status != paper.StatusPublished {
		t.Errorf("Status = %q", rec.Status)
	}
}

const openAlexBody = `{"results":[
  {"id":"https://openalex.org/W123",
   "title":"Anomaly Detection in SRF Cavities",
   "abstract":"Detecting quenches.",
   "publication_date":"2025-01-05",
   "doi":"https://doi.org/10.1/alex",
   "host_venue":{"display_name":"NIMA"},
   "authorships":[{"author":{"display_name":"Katherine Johnson"}}]}
]}`

func TestOpenAlex_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("filter") == "" {
			t.Error("missing filter parameter")
		}
		w.Write([]byte(openAlexBody))
	}))
	defer srv.Close()

	o := NewOpenAlex(testClient(), Keywords{})
	o.BaseURL = srv.URL

	records, err := o.Fetch(context.Background(), testWindow())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records", len(records))
	}
	rec := records[0]
	if rec.Identifiers[paper.SchemeOpenAlex] != "https://openalex.org/W123" {
		t.Errorf("openalex id = %q", rec.Identifiers[paper.SchemeOpenAlex])
	}
	if rec.Venue != "NIMA" {
		t.Errorf("Venue = %q", rec.Venue)
	}
}

const halBody = `{"response":{"docs":[
  {"title_s":["Apprentissage pour les accélérateurs"],
   "abstract_s":["Un résumé."],
   "producedDate_s":"2025-01-12",
   "authFullName_s":["Marie Curie"],
   "doiId_s":["10.1/hal"],
   "halId_s":"hal-01234567",
   "journalTitle_s":["Comptes Rendus Physique"]}
]}}`

func TestHAL_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(halBody))
	}))
	defer srv.Close()

	h := NewHAL(testClient(), Keywords{})
	h.BaseURL = srv.URL

	records, err := h.Fetch(context.Background(), testWindow())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records", len(records))
	}
	rec := records[0]
	if rec.Identifiers[paper.SchemeHAL] != "hal-01234567" {
		t.Errorf("hal id = %q", rec.Identifiers[paper.SchemeHAL])
	}
	if rec.Links["hal"] != "https://hal.archives-ouvertes.fr/hal-01234567" {
		t.Errorf("hal link = %q", rec.Links["hal"])
	}
	if rec.Status != paper.StatusSubmitted {
		t.Errorf("Status = %q", rec.Status)
	}
}

const inspireBody = `{"hits":{"hits":[
  {"id":2900001,
   "metadata":{
     "titles":[{"title":"Machine Learning for Accelerator Control"}],
     "abstracts":[{"value":"Control via ML."}],
     "authors":[{"full_name":"Noether, Emmy"}],
     "earliest_date":"2025-01-08",
     "doi":"10.1/inspire"}}
]}}`

func TestInspire_Fetch(t *testing.T) {
	page := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page++
		if page > 1 {
			w.Write([]byte(`{"hits":{"hits":[]}}`))
			return
		}
		w.Write([]byte(inspireBody))
	}))
	defer srv.Close()

	in := NewInspire(testClient(), Keywords{})
	in.BaseURL = srv.URL

	records, err := in.Fetch(context.Background(), testWindow())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records", len(records))
	}
	rec := records[0]
	if rec.Identifiers[paper.SchemeInspire] != "2900001" {
		t.Errorf("inspire id = %q", rec.Identifiers[paper.SchemeInspire])
	}
	if rec.Identifiers[paper.SchemeDOI] != "10.1/inspire" {
		t.Errorf("doi = %q", rec.Identifiers[paper.SchemeDOI])
	}
}

func TestParseInspireDate(t *testing.T) {
	tests := []struct {
		in   string
		year int
		ok   bool
	}{
		{"2025-01-08", 2025, true},
		{"2025-01", 2025, true},
		{"2025", 2025, true},
		{"not a date", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		d, ok := parseInspireDate(tt.in)
		if ok != tt.ok || (ok && d.Year() != tt.year) {
			t.Errorf("parseInspireDate(%q) = %v, %v", tt.in, d, ok)
		}
	}
}

func TestFindDOI(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"DOI: 10.1103/PhysRevAccelBeams.28.012345 published", "10.1103/PhysRevAccelBeams.28.012345"},
		{"see https://doi.org/10.18429/JACoW-IPAC2024-TUPS60.", "10.18429/JACoW-IPAC2024-TUPS60"},
		{"no identifier here", ""},
	}
	for _, tt := range tests {
		if got := findDOI(tt.text); got != tt.want {
			t.Errorf("findDOI(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestFirstTitleLine(t *testing.T) {
	text := "PRAB Journal header\nshort\nBayesian Optimization of Superconducting Cavities\nAuthors follow"
	got := firstTitleLine(text)
	if got != "Bayesian Optimization of Superconducting Cavities" {
		t.Errorf("firstTitleLine = %q", got)
	}
}

func TestPDFDir_MissingDirIsEmpty(t *testing.T) {
	p := NewPDFDir("/nonexistent/dropfolder")
	records, err := p.Fetch(context.Background(), testWindow())
	if err != nil || records != nil {
		t.Errorf("Fetch = %v, %v, want empty and nil error", records, err)
	}
}
