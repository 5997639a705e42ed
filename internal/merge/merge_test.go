package merge

import (
	"reflect"
	"testing"
	"time"

	"github.com/accelml/livingreview/internal/paper"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func doiRecord(source, doi, title string, authors []string, year int) paper.Record {
	return paper.Record{
		Title:       title,
		Authors:     authors,
		Year:        year,
		Identifiers: map[string]string{paper.SchemeDOI: doi},
		Source:      source,
	}
}

func TestApply_CreatesNewPaper(t *testing.T) {
	batch := []paper.Record{
		doiRecord("arxiv", "10.1/x", "Beam Loss Prediction", []string{"Ada Lovelace"}, 2025),
	}

	papers, report := Apply(nil, batch, Policy{}, t0)

	if report.Created != 1 || report.Updated != 0 {
		t.Fatalf("report = %+v, want 1 created", report)
	}
	p := papers[0]
	if p.ID != "doi:10.1/x" {
		t.Errorf("ID = %q", p.ID)
	}
	if p.FirstAdded != t0 || p.LastUpdated != t0 {
		t.Errorf("timestamps = %v / %v, want %v", p.FirstAdded, p.LastUpdated, t0)
	}
	if len(p.Sources) != 1 || p.Sources[0].Source != "arxiv" {
		t.Errorf("Sources = %+v", p.Sources)
	}
}

func TestApply_Idempotent(t *testing.T) {
	batch := []paper.Record{
		doiRecord("arxiv", "10.1/x", "Beam Loss Prediction", []string{"Ada Lovelace"}, 2025),
		doiRecord("crossref", "10.1/y", "Another Paper", []string{"Chen"}, 2024),
	}

	once, _ := Apply(nil, batch, Policy{}, t0)
	twice, report := Apply(once, batch, Policy{}, t0.Add(time.Hour))

	if report.Created != 0 || report.Updated != 0 {
		t.Errorf("second apply: report = %+v, want all unchanged", report)
	}
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("second apply changed the database:\n first = %+v\nsecond = %+v", once, twice)
	}
}

func TestApply_OrderIndependent(t *testing.T) {
	a := doiRecord("arxiv", "10.1/x", "Paper X", []string{"Lovelace"}, 2025)
	b := doiRecord("crossref", "10.1/y", "Paper Y", []string{"Chen"}, 2024)
	c := paper.Record{Title: "Paper Z", Authors: []string{"Patel"}, Year: 2023, Source: "hal"}

	fwd, _ := Apply(nil, []paper.Record{a, b, c}, Policy{}, t0)
	rev, _ := Apply(nil, []paper.Record{c, b, a}, Policy{}, t0)

	if !reflect.DeepEqual(fwd, rev) {
		t.Errorf("result depends on batch order:\n fwd = %+v\n rev = %+v", fwd, rev)
	}
}

// Two sources return the same DOI with titles differing only in case and a
// hyphen: exactly one canonical record, provenance listing both sources.
func TestApply_SameDOIAcrossSources(t *testing.T) {
	batch := []paper.Record{
		doiRecord("arxiv", "10.1/x", "Deep-Learning for Linacs", []string{"Lovelace"}, 2025),
		doiRecord("crossref", "10.1/X", "Deep learning for Linacs", []string{"Lovelace"}, 2025),
	}

	papers, report := Apply(nil, batch, Policy{}, t0)

	if len(papers) != 1 {
		t.Fatalf("got %d papers, want 1", len(papers))
	}
	if report.Created != 1 {
		t.Errorf("Created = %d, want 1", report.Created)
	}
	p := papers[0]
	if !p.HasSource("arxiv") || !p.HasSource("crossref") {
		t.Errorf("provenance = %+v, want both sources", p.Sources)
	}
}

func TestApply_UnionAndOverwriteIfEmpty(t *testing.T) {
	first := doiRecord("arxiv", "10.1/x", "Paper X", []string{"Lovelace"}, 2025)
	first.Keywords = []string{"beam"}

	second := doiRecord("inspire", "10.1/x", "Paper X", []string{"Lovelace"}, 2025)
	second.Abstract = "An abstract."
	second.Venue = "PRAB"
	second.Keywords = []string{"beam", "surrogate model"}
	second.Identifiers[paper.SchemeInspire] = "123456"

	papers, _ := Apply(nil, []paper.Record{first}, Policy{}, t0)
	papers, report := Apply(papers, []paper.Record{second}, Policy{}, t0.Add(time.Hour))

	if report.Updated != 1 {
		t.Fatalf("report = %+v, want 1 updated", report)
	}
	p := papers[0]
	if p.Abstract != "An abstract." || p.Venue != "PRAB" {
		t.Errorf("empty fields not filled: %+v", p)
	}
	if !reflect.DeepEqual(p.Keywords, []string{"beam", "surrogate model"}) {
		t.Errorf("Keywords = %v", p.Keywords)
	}
	if p.Identifiers[paper.SchemeInspire] != "123456" {
		t.Errorf("Identifiers = %v", p.Identifiers)
	}
	if !p.LastUpdated.Equal(t0.Add(time.Hour)) {
		t.Errorf("LastUpdated = %v, want bumped", p.LastUpdated)
	}
}

func TestApply_LowerTrustDivergenceGoesToConflicts(t *testing.T) {
	policy := Policy{TrustRanks: map[string]int{"crossref": 2, "openalex": 1}}

	first := doiRecord("crossref", "10.1/x", "Paper X", []string{"Lovelace"}, 2025)
	first.Venue = "Physical Review Accelerators and Beams"

	second := doiRecord("openalex", "10.1/x", "Paper X", []string{"Lovelace"}, 2025)
	second.Venue = "PRAB"

	papers, _ := Apply(nil, []paper.Record{first}, policy, t0)
	papers, report := Apply(papers, []paper.Record{second}, policy, t0.Add(time.Hour))

	if papers[0].Venue != "Physical Review Accelerators and Beams" {
		t.Errorf("venue overwritten by lower-trust source: %q", papers[0].Venue)
	}
	if len(report.Conflicts) != 1 || report.Conflicts[0].Kind != ConflictFieldDivergence {
		t.Fatalf("Conflicts = %+v, want one field divergence", report.Conflicts)
	}
	if report.Conflicts[0].Field != "venue" {
		t.Errorf("conflict field = %q", report.Conflicts[0].Field)
	}
}

func TestApply_HigherTrustOverwrites(t *testing.T) {
	policy := Policy{TrustRanks: map[string]int{"crossref": 2}}

	first := doiRecord("openalex", "10.1/x", "Paper X", []string{"Lovelace"}, 2025)
	first.Venue = "prab"

	second := doiRecord("crossref", "10.1/x", "Paper X", []string{"Lovelace"}, 2025)
	second.Venue = "Physical Review Accelerators and Beams"

	papers, _ := Apply(nil, []paper.Record{first}, policy, t0)
	papers, report := Apply(papers, []paper.Record{second}, policy, t0.Add(time.Hour))

	if papers[0].Venue != "Physical Review Accelerators and Beams" {
		t.Errorf("higher-trust venue not applied: %q", papers[0].Venue)
	}
	if len(report.Conflicts) != 0 {
		t.Errorf("Conflicts = %+v, want none", report.Conflicts)
	}
}

func TestApply_CuratedFieldsFrozen(t *testing.T) {
	policy := Policy{TrustRanks: map[string]int{"crossref": 9}}
	existing := []paper.Paper{{
		ID:      "doi:10.1/x",
		DOI:     "10.1/x",
		Title:   "Paper X",
		Abstract: "Hand-written abstract.",
		Curated: true,
		Sources: []paper.Provenance{{Source: "manual", SeenAt: t0}},
	}}

	rec := doiRecord("crossref", "10.1/x", "Paper X", nil, 0)
	rec.Abstract = "Fetched abstract."

	papers, report := Apply(existing, []paper.Record{rec}, policy, t0.Add(time.Hour))

	if papers[0].Abstract != "Hand-written abstract." {
		t.Errorf("curated abstract overwritten: %q", papers[0].Abstract)
	}
	if len(report.Conflicts) != 1 {
		t.Errorf("Conflicts = %+v, want divergence surfaced", report.Conflicts)
	}
}

func TestApply_StatusPromotesForwardOnly(t *testing.T) {
	preprint := paper.Record{
		Title:       "Paper X",
		Identifiers: map[string]string{paper.SchemeArXiv: "2501.1"},
		Source:      "arxiv",
		Status:      paper.StatusPreprint,
	}
	published := paper.Record{
		Title:       "Paper X",
		Identifiers: map[string]string{paper.SchemeArXiv: "2501.1"},
		Source:      "crossref",
		Status:      paper.StatusPublished,
	}

	papers, _ := Apply(nil, []paper.Record{preprint}, Policy{}, t0)
	papers, _ = Apply(papers, []paper.Record{published}, Policy{}, t0.Add(time.Hour))
	if papers[0].Status != paper.StatusPublished {
		t.Fatalf("Status = %q, want published", papers[0].Status)
	}

	// A later preprint sighting must not demote.
	papers, _ = Apply(papers, []paper.Record{preprint}, Policy{}, t0.Add(2*time.Hour))
	if papers[0].Status != paper.StatusPublished {
		t.Errorf("Status demoted to %q", papers[0].Status)
	}
}

// An arXiv-only paper acquires a DOI mid-batch; a later record carrying only
// that DOI (with a journal-retitled title) must still resolve to the same
// paper instead of creating a second one.
func TestApply_KeyGainedMidBatchStillMatches(t *testing.T) {
	existing := []paper.Paper{{
		ID:      "arxiv:2401.00001",
		ArXivID: "2401.00001",
		Title:   "Surrogate models for beam dynamics",
		Authors: []string{"Lovelace"},
		Year:    2024,
		Sources: []paper.Provenance{{Source: "arxiv", SeenAt: t0}},
	}}

	withBoth := paper.Record{
		Title: "Surrogate models for beam dynamics",
		Identifiers: map[string]string{
			paper.SchemeArXiv: "2401.00001",
			paper.SchemeDOI:   "10.1/x",
		},
		Authors: []string{"Lovelace"},
		Year:    2024,
		Source:  "arxiv",
	}
	doiOnly := doiRecord("crossref", "10.1/x",
		"Machine-learned surrogates in accelerator beam dynamics simulation",
		[]string{"Lovelace"}, 2024)

	papers, report := Apply(existing, []paper.Record{withBoth, doiOnly}, Policy{}, t0.Add(time.Hour))

	if len(papers) != 1 {
		t.Fatalf("got %d papers, want 1", len(papers))
	}
	if report.Created != 0 {
		t.Errorf("Created = %d, want 0", report.Created)
	}
	p := papers[0]
	if p.ID != "arxiv:2401.00001" || p.DOI != "10.1/x" {
		t.Errorf("paper = %q with DOI %q", p.ID, p.DOI)
	}
	if !p.HasSource("crossref") {
		t.Errorf("provenance = %+v, want crossref recorded", p.Sources)
	}
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	existing := []paper.Paper{{
		ID:          "doi:10.1/x",
		DOI:         "10.1/x",
		Title:       "Paper X",
		Authors:     []string{"Lovelace"},
		Year:        2025,
		Keywords:    []string{"beam"},
		Identifiers: map[string]string{paper.SchemeInspire: "123456"},
		Links:       map[string]string{"doi": "https://doi.org/10.1/x"},
		Sources:     []paper.Provenance{{Source: "arxiv", SeenAt: t0}},
	}}

	rec := doiRecord("crossref", "10.1/x", "Paper X", []string{"Lovelace"}, 2025)
	rec.Keywords = []string{"beam", "surrogate model"}
	rec.Identifiers[paper.SchemePMID] = "123"
	rec.Links = map[string]string{"url": "https://example.org/x"}

	_, report := Apply(existing, []paper.Record{rec}, Policy{}, t0.Add(time.Hour))

	if report.Updated != 1 {
		t.Fatalf("report = %+v, want 1 updated", report)
	}
	before := existing[0]
	if _, ok := before.Identifiers[paper.SchemePMID]; ok {
		t.Errorf("input Identifiers mutated: %v", before.Identifiers)
	}
	if _, ok := before.Links["url"]; ok {
		t.Errorf("input Links mutated: %v", before.Links)
	}
	if len(before.Keywords) != 1 || len(before.Sources) != 1 {
		t.Errorf("input slices mutated: keywords %v, sources %+v",
			before.Keywords, before.Sources)
	}
	if !before.LastUpdated.IsZero() {
		t.Errorf("input LastUpdated mutated: %v", before.LastUpdated)
	}
}

func TestApply_MalformedRecordSkippedNotFatal(t *testing.T) {
	batch := []paper.Record{
		{Title: "   ", Source: "hal"},
		doiRecord("arxiv", "10.1/x", "Good Paper", []string{"Chen"}, 2025),
	}

	papers, report := Apply(nil, batch, Policy{}, t0)

	if len(papers) != 1 {
		t.Fatalf("got %d papers, want 1", len(papers))
	}
	if len(report.Skipped) != 1 {
		t.Errorf("Skipped = %+v, want 1 entry", report.Skipped)
	}
}

func TestApply_AmbiguousMatchEmitsConflict(t *testing.T) {
	existing := []paper.Paper{{
		ID:      "hash:abc",
		Title:   "Anomaly detection in RF cavities",
		Authors: []string{"Chen"},
		Year:    2024,
	}}

	// Same title, no year: candidate match below full confidence.
	rec := paper.Record{
		Title:   "Anomaly detection in RF cavities",
		Authors: []string{"Wei Chen"},
		Source:  "openalex",
	}

	papers, report := Apply(existing, []paper.Record{rec}, Policy{}, t0)

	if len(papers) != 1 {
		t.Fatalf("ambiguous record merged or created: %d papers", len(papers))
	}
	if len(report.Conflicts) != 1 || report.Conflicts[0].Kind != ConflictAmbiguousIdentity {
		t.Fatalf("Conflicts = %+v, want one ambiguous identity", report.Conflicts)
	}
	if report.Conflicts[0].PaperID != "hash:abc" {
		t.Errorf("conflict PaperID = %q", report.Conflicts[0].PaperID)
	}
	if len(report.Conflicts[0].Signals) == 0 {
		t.Error("conflict carries no diagnostic signals")
	}
}

func TestApply_RetractedStatusFlagsPaper(t *testing.T) {
	rec := doiRecord("crossref", "10.1/x", "Withdrawn Paper", nil, 2024)
	rec.Status = paper.StatusRetracted

	papers, _ := Apply(nil, []paper.Record{rec}, Policy{}, t0)

	if !papers[0].Retracted {
		t.Error("Retracted flag not set")
	}
}

func TestUniqueID(t *testing.T) {
	papers := []paper.Paper{{ID: "hash:abc"}, {ID: "hash:abc-2"}}
	if got := uniqueID(papers, "hash:abc"); got != "hash:abc-3" {
		t.Errorf("uniqueID = %q, want hash:abc-3", got)
	}
	if got := uniqueID(papers, "hash:xyz"); got != "hash:xyz" {
		t.Errorf("uniqueID = %q, want hash:xyz", got)
	}
}
