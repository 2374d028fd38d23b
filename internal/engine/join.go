package engine

import (
	"strings"

	"github.com/starweave/starweave/internal/rdf"
)

// buildJoinIndex indexes the whole triple cache by the value of leftKey
// in each entry's origin row. Matching is join-key-based, not map-name
// based: one annotation may need to reach triples produced by several
// maps sharing a key. Entries whose row lacks the key are not indexed.
//
// namespaceFilter, when non-empty, is an expanded IRI prefix; only
// entries whose triple subject is an IRI under that namespace are
// indexed. This keeps an annotation from matching an unrelated entity
// family that happens to reuse the same key value.
//
// Build is O(n) over the cache; lookups on the returned map are O(1)
// amortized, with a missing value yielding the empty slice.
func buildJoinIndex(cache *tripleCache, leftKey, namespaceFilter string) map[string][]cacheEntry {
	index := make(map[string][]cacheEntry)
	for _, entry := range cache.entries {
		value, ok := entry.row[leftKey]
		if !ok || value == "" {
			continue
		}
		if namespaceFilter != "" {
			subject, isIRI := entry.triple.Subject.(rdf.IRI)
			if !isIRI || !strings.HasPrefix(string(subject), namespaceFilter) {
				continue
			}
		}
		index[value] = append(index[value], entry)
	}
	return index
}
