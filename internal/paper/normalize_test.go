package paper

import "testing"

func TestNormDOI(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "10.1103/PhysRevLett.123.456", "10.1103/physrevlett.123.456"},
		{"https prefix", "https://doi.org/10.1103/PhysRevLett.123.456", "10.1103/physrevlett.123.456"},
		{"dx prefix", "http://dx.doi.org/10.1103/x", "10.1103/x"},
		{"doi prefix", "doi:10.5555/abc", "10.5555/abc"},
		{"whitespace", "  10.5555/ABC  ", "10.5555/abc"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormDOI(tt.input); got != tt.want {
				t.Errorf("NormDOI(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormArXivID(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "2301.00001", "2301.00001"},
		{"versioned", "2301.00001v2", "2301.00001"},
		{"url", "https://arxiv.org/abs/2301.00001", "2301.00001"},
		{"prefix", "arXiv:2301.00001", "2301.00001"},
		{"old style", "physics/0601001", "physics/0601001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormArXivID(tt.input); got != tt.want {
				t.Errorf("NormArXivID(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSimplifyTitle(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"latex", `A {LaTeX} Example: On $\alpha$-decay`, "a latex example on alpha decay"},
		{"punctuation", "Deep-Learning for Beam Dynamics!", "deep learning for beam dynamics"},
		{"whitespace", "  Two   Spaces  ", "two spaces"},
		{"case", "RF Cavity Tuning", "rf cavity tuning"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SimplifyTitle(tt.input); got != tt.want {
				t.Errorf("SimplifyTitle(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFirstAuthorKey(t *testing.T) {
	tests := []struct {
		name    string
		authors []string
		want    string
	}{
		{"first last", []string{"Ada Lovelace", "Charles Babbage"}, "lovelace"},
		{"last comma first", []string{"Lovelace, Ada"}, "lovelace"},
		{"single token", []string{"Plato"}, "plato"},
		{"empty", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FirstAuthorKey(tt.authors); got != tt.want {
				t.Errorf("FirstAuthorKey(%v) = %q, want %q", tt.authors, got, tt.want)
			}
		})
	}
}

func TestRecordNormalize(t *testing.T) {
	r := Record{
		Title:   "  Surrogate   Models for\tLinacs ",
		Authors: []string{" Ada  Lovelace ", "", "Charles Babbage"},
		Date:    "2025-03-14",
		Identifiers: map[string]string{
			SchemeDOI:   "https://doi.org/10.1103/TEST",
			SchemeArXiv: "arXiv:2503.01234v3",
		},
		Source: "arxiv",
	}

	if err := r.Normalize(); err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if r.Title != "Surrogate Models for Linacs" {
		t.Errorf("Title = %q", r.Title)
	}
	if len(r.Authors) != 2 || r.Authors[0] != "Ada Lovelace" {
		t.Errorf("Authors = %v", r.Authors)
	}
	if r.DOI() != "10.1103/test" {
		t.Errorf("DOI = %q", r.DOI())
	}
	if r.ArXivID() != "2503.01234" {
		t.Errorf("ArXivID = %q", r.ArXivID())
	}
	if r.Year != 2025 {
		t.Errorf("Year = %d, want 2025 (derived from date)", r.Year)
	}
}

func TestRecordNormalize_EmptyTitle(t *testing.T) {
	r := Record{Title: "   ", Source: "crossref"}
	if err := r.Normalize(); err == nil {
		t.Error("Normalize() expected error for empty title")
	}
}

func TestRecordNormalize_PreprintStatus(t *testing.T) {
	r := Record{
		Title:       "A Paper",
		Identifiers: map[string]string{SchemeArXiv: "2501.00001"},
		Source:      "arxiv",
	}
	if err := r.Normalize(); err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if r.Status != StatusPreprint {
		t.Errorf("Status = %q, want %q for arXiv-only record", r.Status, StatusPreprint)
	}
}

func TestStatusRank(t *testing.T) {
	if StatusRank(StatusPublished) <= StatusRank(StatusPreprint) {
		t.Error("published should outrank preprint")
	}
	if StatusRank("") != -1 {
		t.Errorf("StatusRank(\"\") = %d, want -1", StatusRank(""))
	}
	if StatusRank("bogus") != -1 {
		t.Errorf("StatusRank(bogus) = %d, want -1", StatusRank("bogus"))
	}
}
