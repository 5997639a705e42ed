package export

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/accelml/livingreview/internal/paper"
)

var keyCleaner = regexp.MustCompile(`[^A-Za-z0-9_.:-]+`)

// BibTeXKey derives a citation key from the DOI when present, with
// path separators flattened, falling back to the canonical ID.
func BibTeXKey(p *paper.Paper) string {
	if p.DOI != "" {
		return strings.ReplaceAll(p.DOI, "/", "_")
	}
	return keyCleaner.ReplaceAllString(strings.TrimPrefix(p.ID, "hash:"), "_")
}

// ToBibTeX converts a paper to BibTeX format.
func ToBibTeX(p *paper.Paper) string {
	entryType := determineEntryType(p)
	var b strings.Builder

	b.WriteString(fmt.Sprintf("@%s{%s,\n", entryType, BibTeXKey(p)))

	b.WriteString(fmt.Sprintf("  title = {%s},\n", escapeLatex(p.Title)))

	if len(p.Authors) > 0 {
		b.WriteString(fmt.Sprintf("  author = {%s},\n", escapeLatex(strings.Join(p.Authors, " and "))))
	}

	if p.Year > 0 {
		b.WriteString(fmt.Sprintf("  year = {%d},\n", p.Year))
	}

	// Venue
	journal := p.Venue
	if journal == "" {
		journal = "arXiv"
	}
	fieldName := "journal"
	if entryType == "inproceedings" {
		fieldName = "booktitle"
	}
	b.WriteString(fmt.Sprintf("  %s = {%s},\n", fieldName, escapeLatex(journal)))

	if u := paperURL(p); u != "" {
		b.WriteString(fmt.Sprintf("  url = {%s},\n", u))
	}

	if p.DOI != "" {
		b.WriteString(fmt.Sprintf("  doi = {%s},\n", p.DOI))
	}

	b.WriteString("}\n")

	return b.String()
}

// ToBibTeXList converts the non-retracted papers of the collection to a
// BibTeX bibliography, sorted by citation key so output is stable
// across runs.
func ToBibTeXList(papers []paper.Paper) string {
	kept := make([]*paper.Paper, 0, len(papers))
	for i := range papers {
		if papers[i].Retracted {
			continue
		}
		kept = append(kept, &papers[i])
	}
	sort.Slice(kept, func(i, j int) bool {
		return BibTeXKey(kept[i]) < BibTeXKey(kept[j])
	})

	entries := make([]string, len(kept))
	for i, p := range kept {
		entries[i] = ToBibTeX(p)
	}
	return strings.Join(entries, "\n")
}

// determineEntryType returns the BibTeX entry type for a paper.
func determineEntryType(p *paper.Paper) string {
	venue := strings.ToLower(p.Venue)

	// Preprints
	if strings.Contains(venue, "arxiv") {
		return "article"
	}

	// Conference proceedings
	if strings.Contains(venue, "proceedings") ||
		strings.Contains(venue, "conference") ||
		strings.Contains(venue, "workshop") ||
		strings.Contains(venue, "symposium") {
		return "inproceedings"
	}

	// Default to article
	return "article"
}

func paperURL(p *paper.Paper) string {
	if p.URL != "" {
		return p.URL
	}
	if u := p.Links["doi"]; u != "" {
		return u
	}
	return p.Links["arxiv"]
}

// escapeLatex escapes special LaTeX characters.
func escapeLatex(s string) string {
	// Order matters: & must be first (before other escapes that might produce &)
	replacer := strings.NewReplacer(
		"&", `\&`,
		"%", `\%`,
		"$", `\$`,
		"#", `\#`,
		"_", `\_`,
		"{", `\{`,
		"}", `\}`,
		"~", `\textasciitilde{}`,
		"^", `\textasciicircum{}`,
	)
	return replacer.Replace(s)
}
