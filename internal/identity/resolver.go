package identity

import (
	"github.com/agnivade/levenshtein"

	"github.com/accelml/livingreview/internal/paper"
)

// TitleSimilarityThreshold is the minimum normalized title similarity for a
// weak-signature candidate match.
const TitleSimilarityThreshold = 0.90

// MatchKind classifies the outcome of resolving a record.
type MatchKind int

const (
	// MatchNone means no existing paper corresponds to the record.
	MatchNone MatchKind = iota
	// MatchStrong means a strong key (DOI, arXiv, inspire) matched exactly.
	MatchStrong
	// MatchWeak means the weak signature matched with author and year
	// agreement. Safe to merge.
	MatchWeak
	// MatchAmbiguous means the record resembles an existing paper but
	// cannot be confidently matched or distinguished. Route to conflicts.
	MatchAmbiguous
)

func (k MatchKind) String() string {
	switch k {
	case MatchStrong:
		return "strong"
	case MatchWeak:
		return "weak"
	case MatchAmbiguous:
		return "ambiguous"
	default:
		return "none"
	}
}

// Signal is a diagnostic comparison of one identity signal between a record
// and a candidate paper.
type Signal struct {
	Name   string `json:"name"` // title, author, year, or a strong scheme
	Agree  bool   `json:"agree"`
	Detail string `json:"detail,omitempty"`
}

// Match is the result of resolving one record against the database.
type Match struct {
	Kind       MatchKind
	PaperID    string   // matched or candidate paper id ("" for MatchNone)
	MatchedBy  string   // scheme name for strong matches, "signature" for weak
	Similarity float64  // title similarity for weak/ambiguous matches
	Signals    []Signal // diagnostic metadata, populated for weak/ambiguous
	// SecondID is set when strong keys point at two distinct papers,
	// indicating the database itself holds a split entry.
	SecondID string
}

// Resolver resolves records against a snapshot of canonical papers.
// It maintains indexes by strong key and precomputed weak signatures.
type Resolver struct {
	byKey      map[Key]string // strong key -> paper id
	signatures map[string]Signature
	order      []string // paper ids in snapshot order, for determinism
}

// NewResolver builds a Resolver over the given papers.
func NewResolver(papers []paper.Paper) *Resolver {
	r := &Resolver{
		byKey:      make(map[Key]string),
		signatures: make(map[string]Signature, len(papers)),
	}
	for i := range papers {
		p := &papers[i]
		for _, k := range PaperStrongKeys(p) {
			if _, taken := r.byKey[k]; !taken {
				r.byKey[k] = p.ID
			}
		}
		r.signatures[p.ID] = PaperSignature(p)
		r.order = append(r.order, p.ID)
	}
	return r
}

// Add registers a newly created paper so later records in the same batch
// resolve against it.
func (r *Resolver) Add(p *paper.Paper) {
	for _, k := range PaperStrongKeys(p) {
		if _, taken := r.byKey[k]; !taken {
			r.byKey[k] = p.ID
		}
	}
	r.signatures[p.ID] = PaperSignature(p)
	r.order = append(r.order, p.ID)
}

// Update re-registers a paper already known to the resolver after a merge
// changed it. A paper can gain a strong key mid-batch (an arXiv-only entry
// acquiring a DOI); without re-registration a later record carrying only
// that key would miss the match and split the work in two.
func (r *Resolver) Update(p *paper.Paper) {
	for _, k := range PaperStrongKeys(p) {
		if _, taken := r.byKey[k]; !taken {
			r.byKey[k] = p.ID
		}
	}
	r.signatures[p.ID] = PaperSignature(p)
}

// Resolve determines whether the record denotes a paper already in the
// database. Strong-key equality is checked first and is order-independent;
// otherwise weak signatures are compared.
func (r *Resolver) Resolve(rec *paper.Record) Match {
	// Strong keys: any equality implies identity.
	var firstID, firstScheme string
	for _, k := range StrongKeys(rec) {
		id, ok := r.byKey[k]
		if !ok {
			continue
		}
		if firstID == "" {
			firstID, firstScheme = id, k.Scheme
			continue
		}
		if id != firstID {
			// Two strong keys point at distinct papers: the database
			// holds a split entry. Never auto-merge; surface both ids.
			return Match{
				Kind:      MatchAmbiguous,
				PaperID:   firstID,
				SecondID:  id,
				MatchedBy: firstScheme,
				Signals: []Signal{{
					Name:   k.Scheme,
					Agree:  false,
					Detail: "strong keys resolve to distinct papers",
				}},
			}
		}
	}
	if firstID != "" {
		return Match{Kind: MatchStrong, PaperID: firstID, MatchedBy: firstScheme}
	}

	return r.resolveWeak(rec)
}

// resolveWeak compares the record's weak signature against every paper,
// keeping the best candidate above the similarity threshold.
func (r *Resolver) resolveWeak(rec *paper.Record) Match {
	sig := RecordSignature(rec)
	if sig.Title == "" {
		return Match{Kind: MatchNone}
	}

	best := Match{Kind: MatchNone}
	for _, id := range r.order {
		cand := r.signatures[id]
		sim := TitleSimilarity(sig.Title, cand.Title)
		if sim < TitleSimilarityThreshold {
			continue
		}
		m := classifyCandidate(sig, cand, sim, id)
		if m.Kind == MatchNone {
			continue
		}
		if betterMatch(m, best) {
			best = m
		}
	}
	return best
}

// classifyCandidate decides between weak match, ambiguous, and clearly
// distinct for a title-similar candidate. Missing author or year data lowers
// confidence (ambiguous) rather than erroring; a disagreement on a present
// signal makes the pair ambiguous unless both author and year disagree, in
// which case the records are treated as distinct works.
func classifyCandidate(sig, cand Signature, sim float64, id string) Match {
	signals := []Signal{{Name: "title", Agree: true, Detail: similarityDetail(sim)}}

	authorKnown := sig.AuthorKey != "" && cand.AuthorKey != ""
	authorAgree := authorKnown && sig.AuthorKey == cand.AuthorKey
	yearKnown := sig.Year != 0 && cand.Year != 0
	yearAgree := yearKnown && sig.Year == cand.Year

	if authorKnown {
		signals = append(signals, Signal{Name: "author", Agree: authorAgree})
	} else {
		signals = append(signals, Signal{Name: "author", Agree: false, Detail: "missing"})
	}
	if yearKnown {
		signals = append(signals, Signal{Name: "year", Agree: yearAgree})
	} else {
		signals = append(signals, Signal{Name: "year", Agree: false, Detail: "missing"})
	}

	m := Match{PaperID: id, MatchedBy: "signature", Similarity: sim, Signals: signals}

	switch {
	case authorAgree && yearAgree:
		m.Kind = MatchWeak
	case authorKnown && !authorAgree && yearKnown && !yearAgree:
		// Same-looking title but different author and year: distinct works.
		m.Kind = MatchNone
	default:
		m.Kind = MatchAmbiguous
	}
	return m
}

// betterMatch reports whether a should replace b as the best candidate.
// Weak beats ambiguous; within a kind, higher similarity wins.
func betterMatch(a, b Match) bool {
	if b.Kind == MatchNone {
		return true
	}
	if a.Kind == MatchWeak && b.Kind != MatchWeak {
		return true
	}
	if a.Kind == b.Kind && a.Similarity > b.Similarity {
		return true
	}
	return false
}

// TitleSimilarity returns the normalized Levenshtein similarity of two
// simplified titles, in [0,1] where 1 is identical.
func TitleSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	dist := levenshtein.ComputeDistance(a, b)
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	return 1 - float64(dist)/float64(longest)
}

func similarityDetail(sim float64) string {
	switch {
	case sim >= 0.999:
		return "identical"
	default:
		return "similar"
	}
}
