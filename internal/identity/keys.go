// Package identity computes canonical identity keys and comparison
// signatures for records, and resolves them against the existing database.
package identity

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"

	"github.com/accelml/livingreview/internal/paper"
)

// strongSchemes are identifier schemes whose equality implies identity.
var strongSchemes = []string{paper.SchemeDOI, paper.SchemeArXiv, paper.SchemeInspire}

// Key is a strong identity key: a (scheme, value) pair.
type Key struct {
	Scheme string
	Value  string
}

func (k Key) String() string { return k.Scheme + ":" + k.Value }

// StrongKeys returns the strong identity keys present in a record.
func StrongKeys(r *paper.Record) []Key {
	return strongKeysFromMap(r.Identifiers)
}

// PaperStrongKeys returns the strong identity keys present in a canonical paper.
func PaperStrongKeys(p *paper.Paper) []Key {
	var keys []Key
	for _, scheme := range strongSchemes {
		if v := p.Identifier(scheme); v != "" {
			keys = append(keys, Key{Scheme: scheme, Value: v})
		}
	}
	return keys
}

func strongKeysFromMap(ids map[string]string) []Key {
	var keys []Key
	for _, scheme := range strongSchemes {
		if v := ids[scheme]; v != "" {
			keys = append(keys, Key{Scheme: scheme, Value: v})
		}
	}
	return keys
}

// Signature is the weak comparison form of a record: simplified title,
// first-author surname, and year. Used when no strong key is shared.
type Signature struct {
	Title     string // simplified title (paper.SimplifyTitle)
	AuthorKey string // lowercase first-author surname, "" if unknown
	Year      int    // 0 if unknown
}

// RecordSignature computes the weak signature of a record.
func RecordSignature(r *paper.Record) Signature {
	return Signature{
		Title:     paper.SimplifyTitle(r.Title),
		AuthorKey: paper.FirstAuthorKey(r.Authors),
		Year:      r.Year,
	}
}

// PaperSignature computes the weak signature of a canonical paper.
func PaperSignature(p *paper.Paper) Signature {
	return Signature{
		Title:     paper.SimplifyTitle(p.Title),
		AuthorKey: paper.FirstAuthorKey(p.Authors),
		Year:      p.Year,
	}
}

// CanonicalID derives the stable internal id for a record: "doi:<doi>" when a
// DOI is present, else "arxiv:<id>", else a short hash of author, year, and
// simplified title. The id is assigned once at first merge and never changes.
func CanonicalID(r *paper.Record) string {
	if doi := r.DOI(); doi != "" {
		return "doi:" + doi
	}
	if ax := r.ArXivID(); ax != "" {
		return "arxiv:" + ax
	}
	sig := RecordSignature(r)
	base := fmt.Sprintf("%s:%d:%s", sig.AuthorKey, sig.Year, sig.Title)
	sum := sha1.Sum([]byte(base))
	return "hash:" + hex.EncodeToString(sum[:])[:12]
}
