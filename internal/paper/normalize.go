package paper

import (
	"regexp"
	"strings"
)

var (
	spaceRe     = regexp.MustCompile(`\s+`)
	doiPrefixRe = regexp.MustCompile(`^https?://(dx\.)?doi\.org/`)
	texCmdRe    = regexp.MustCompile(`\\[a-zA-Z]+(\[[^\]]*\])?(\{[^}]*\})?`)
	nonWordRe   = regexp.MustCompile(`[^\w\s]`)
	arxivVerRe  = regexp.MustCompile(`v\d+$`)
)

// NormSpace collapses runs of whitespace and trims the string.
func NormSpace(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

// NormDOI canonicalizes a DOI: lowercase, URL and "doi:" prefixes stripped.
func NormDOI(doi string) string {
	doi = strings.ToLower(strings.TrimSpace(doi))
	doi = doiPrefixRe.ReplaceAllString(doi, "")
	doi = strings.TrimPrefix(doi, "doi:")
	return strings.TrimSpace(doi)
}

// NormArXivID canonicalizes an arXiv identifier: URL and "arXiv:" prefixes
// stripped, explicit version suffix dropped.
func NormArXivID(id string) string {
	s := strings.TrimSpace(id)
	s = strings.TrimPrefix(s, "https://arxiv.org/abs/")
	s = strings.TrimPrefix(s, "http://arxiv.org/abs/")
	for _, prefix := range []string{"arxiv:", "arXiv:", "ArXiv:", "ARXIV:"} {
		s = strings.TrimPrefix(s, prefix)
	}
	return arxivVerRe.ReplaceAllString(s, "")
}

// stripTeX removes LaTeX commands and braces from a string.
func stripTeX(s string) string {
	s = texCmdRe.ReplaceAllString(s, " ")
	s = strings.NewReplacer("{", " ", "}", " ").Replace(s)
	return NormSpace(s)
}

// SimplifyTitle produces the comparison form of a title: LaTeX stripped,
// lowercased, punctuation replaced by spaces, whitespace collapsed.
func SimplifyTitle(title string) string {
	t := strings.ToLower(stripTeX(title))
	t = nonWordRe.ReplaceAllString(t, " ")
	return NormSpace(t)
}

// FirstAuthorKey extracts a lowercase surname heuristic from the first
// author: the last whitespace-separated token, or the part before a comma
// when the name is written "Last, First".
func FirstAuthorKey(authors []string) string {
	if len(authors) == 0 {
		return ""
	}
	name := strings.TrimSpace(authors[0])
	if name == "" {
		return ""
	}
	if comma := strings.Index(name, ","); comma >= 0 {
		return strings.ToLower(strings.TrimSpace(name[:comma]))
	}
	parts := strings.Fields(name)
	return strings.ToLower(parts[len(parts)-1])
}
