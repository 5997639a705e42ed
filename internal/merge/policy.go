// Package merge folds batches of normalized records into the canonical
// paper set, enforcing at most one canonical record per distinct work.
package merge

// Field merge policy, applied uniformly by Apply:
//
//	union                     identifiers, keywords, links, provenance
//	overwrite-if-empty        abstract, venue, url, date, year
//	overwrite-if-higher-trust abstract, venue, url (differing value from a
//	                          lower- or equal-trust source goes to conflicts)
//	never-overwrite           id, first_added, and all fields of curated papers
//	promote-forward           status (rank order, never demoted)

// Policy configures trust ranking for merges. Sources with a higher rank may
// overwrite populated metadata fields contributed by lower-ranked sources.
type Policy struct {
	// TrustRanks maps source name to trust rank. Unlisted sources rank 0.
	TrustRanks map[string]int
}

// Trust returns the trust rank of a source.
func (p Policy) Trust(source string) int {
	return p.TrustRanks[source]
}
