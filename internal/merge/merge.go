package merge

import (
	"fmt"
	"sort"
	"time"

	"github.com/accelml/livingreview/internal/identity"
	"github.com/accelml/livingreview/internal/paper"
)

// Apply merges a batch of normalized records into a copy of the given papers
// and returns the new slice plus a report. It never mutates its inputs.
//
// Apply is deterministic (the batch is ordered by resolved identity, not by
// arrival order) and idempotent: re-applying the same batch to its own
// output creates nothing, changes nothing, and bumps no timestamps.
// Malformed records are skipped and reported, never fatal to the batch.
func Apply(papers []paper.Paper, batch []paper.Record, policy Policy, now time.Time) ([]paper.Paper, Report) {
	out := make([]paper.Paper, len(papers))
	copy(out, papers)

	var report Report

	// Normalize up front so ordering and resolution see canonical values.
	valid := make([]paper.Record, 0, len(batch))
	for i := range batch {
		rec := batch[i]
		if err := rec.Normalize(); err != nil {
			report.Skipped = append(report.Skipped, SkippedRecord{
				Title:  rec.Title,
				Source: rec.Source,
				Reason: err.Error(),
			})
			continue
		}
		valid = append(valid, rec)
	}

	// Deterministic order: by canonical identity, then source, so the final
	// state is independent of adapter completion order.
	sort.SliceStable(valid, func(i, j int) bool {
		a, b := identity.CanonicalID(&valid[i]), identity.CanonicalID(&valid[j])
		if a != b {
			return a < b
		}
		return valid[i].Source < valid[j].Source
	})

	resolver := identity.NewResolver(out)
	index := make(map[string]int, len(out))
	for i := range out {
		index[out[i].ID] = i
	}

	for i := range valid {
		rec := &valid[i]
		m := resolver.Resolve(rec)

		switch m.Kind {
		case identity.MatchNone:
			p := newPaper(rec, out, now)
			out = append(out, p)
			index[p.ID] = len(out) - 1
			resolver.Add(&p)
			report.Created++

		case identity.MatchStrong, identity.MatchWeak:
			idx := index[m.PaperID]
			// Detach from the caller's snapshot before mutating.
			out[idx] = out[idx].Clone()
			changed, conflicts := updatePaper(&out[idx], rec, policy, now)
			report.Conflicts = append(report.Conflicts, conflicts...)
			if changed {
				// The merge may have added a strong key; later records in
				// this batch must still resolve to the same paper.
				resolver.Update(&out[idx])
				report.Updated++
			} else {
				report.Unchanged++
			}

		case identity.MatchAmbiguous:
			kind := ConflictAmbiguousIdentity
			if m.SecondID != "" {
				kind = ConflictSplitEntry
			}
			report.Conflicts = append(report.Conflicts, Conflict{
				Kind:     kind,
				PaperID:  m.PaperID,
				SecondID: m.SecondID,
				Source:   rec.Source,
				Title:    rec.Title,
				Signals:  m.Signals,
				SeenAt:   now,
			})
		}
	}

	return out, report
}

// newPaper builds a canonical paper from its first sighting. The internal id
// is assigned here, once, and never changes afterwards.
func newPaper(rec *paper.Record, existing []paper.Paper, now time.Time) paper.Paper {
	id := uniqueID(existing, identity.CanonicalID(rec))

	p := paper.Paper{
		ID:          id,
		DOI:         rec.DOI(),
		ArXivID:     rec.ArXivID(),
		Identifiers: copyMap(rec.Identifiers),
		Title:       rec.Title,
		Authors:     append([]string(nil), rec.Authors...),
		Abstract:    rec.Abstract,
		Date:        rec.Date,
		Year:        rec.Year,
		Venue:       rec.Venue,
		URL:         primaryURL(rec),
		Status:      rec.Status,
		Keywords:    append([]string(nil), rec.Keywords...),
		Links:       copyMap(rec.Links),
		Sources:     []paper.Provenance{{Source: rec.Source, SeenAt: now}},
		FirstAdded:  now,
		LastUpdated: now,
	}
	if p.Status == paper.StatusRetracted {
		p.Retracted = true
	}
	return p
}

// uniqueID suffixes the base id with -2, -3, ... if a distinct work already
// holds it (hash ids can collide across genuinely different papers).
func uniqueID(papers []paper.Paper, base string) string {
	taken := func(id string) bool {
		for i := range papers {
			if papers[i].ID == id {
				return true
			}
		}
		return false
	}
	if !taken(base) {
		return base
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s-%d", base, i)
		if !taken(candidate) {
			return candidate
		}
	}
}

// updatePaper folds a record into an existing paper per the policy table.
// It reports whether anything changed and any field-divergence conflicts.
func updatePaper(p *paper.Paper, rec *paper.Record, policy Policy, now time.Time) (bool, []Conflict) {
	changed := false
	var conflicts []Conflict

	incomingTrust := policy.Trust(rec.Source)
	existingTrust := provenanceTrust(p, policy)

	divergence := func(field, existing, incoming string) {
		conflicts = append(conflicts, Conflict{
			Kind:     ConflictFieldDivergence,
			PaperID:  p.ID,
			Field:    field,
			Existing: existing,
			Incoming: incoming,
			Source:   rec.Source,
			Title:    rec.Title,
			SeenAt:   now,
		})
	}

	// union: identifiers. A divergent value for a present scheme is a
	// conflict, never an overwrite.
	for scheme, value := range rec.Identifiers {
		if existing := p.Identifier(scheme); existing != "" {
			if existing != value {
				divergence("identifiers."+scheme, existing, value)
			}
			continue
		}
		switch scheme {
		case paper.SchemeDOI:
			p.DOI = value
		case paper.SchemeArXiv:
			p.ArXivID = value
		default:
			if p.Identifiers == nil {
				p.Identifiers = make(map[string]string)
			}
			p.Identifiers[scheme] = value
		}
		changed = true
	}

	// union: keywords.
	for _, kw := range rec.Keywords {
		if !containsString(p.Keywords, kw) {
			p.Keywords = append(p.Keywords, kw)
			changed = true
		}
	}

	// union: links (keyed; existing entries win on clash).
	for k, v := range rec.Links {
		if _, ok := p.Links[k]; !ok {
			if p.Links == nil {
				p.Links = make(map[string]string)
			}
			p.Links[k] = v
			changed = true
		}
	}

	// overwrite-if-empty / overwrite-if-higher-trust, honoring curation.
	mergeText := func(field string, dst *string, incoming string) {
		if incoming == "" || incoming == *dst {
			return
		}
		if *dst == "" {
			*dst = incoming
			changed = true
			return
		}
		if p.Curated {
			// Curated metadata is frozen; divergence still surfaces.
			divergence(field, *dst, incoming)
			return
		}
		if incomingTrust > existingTrust {
			*dst = incoming
			changed = true
			return
		}
		divergence(field, *dst, incoming)
	}

	mergeText("abstract", &p.Abstract, rec.Abstract)
	mergeText("venue", &p.Venue, rec.Venue)
	mergeText("url", &p.URL, primaryURL(rec))

	// overwrite-if-empty only: date, year.
	if p.Date == "" && rec.Date != "" {
		p.Date = rec.Date
		changed = true
	}
	if p.Year == 0 && rec.Year != 0 {
		p.Year = rec.Year
		changed = true
	}

	// promote-forward: status.
	if paper.StatusRank(rec.Status) > paper.StatusRank(p.Status) {
		p.Status = rec.Status
		changed = true
		if rec.Status == paper.StatusRetracted {
			p.Retracted = true
		}
	}

	// union: provenance.
	if !p.HasSource(rec.Source) {
		p.Sources = append(p.Sources, paper.Provenance{Source: rec.Source, SeenAt: now})
		changed = true
	}

	// last_updated is monotonic and only moves when something changed, so
	// re-merging an identical batch is a byte-level no-op.
	if changed && now.After(p.LastUpdated) {
		p.LastUpdated = now
	}

	return changed, conflicts
}

// provenanceTrust returns the highest trust rank among a paper's sources.
func provenanceTrust(p *paper.Paper, policy Policy) int {
	best := 0
	for i, s := range p.Sources {
		if t := policy.Trust(s.Source); i == 0 || t > best {
			best = t
		}
	}
	return best
}

func primaryURL(rec *paper.Record) string {
	// Preference order mirrors identifier strength.
	for _, k := range []string{"doi", "arxiv", "url"} {
		if v := rec.Links[k]; v != "" {
			return v
		}
	}
	for _, k := range sortedKeys(rec.Links) {
		if v := rec.Links[k]; v != "" {
			return v
		}
	}
	return ""
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func copyMap(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
