package engine

import (
	"github.com/starweave/starweave/internal/rdf"
	"github.com/starweave/starweave/internal/source"
)

// cacheEntry pairs a base triple with the row that produced it, so an
// annotation row can re-identify which statement it applies to.
type cacheEntry struct {
	mapName string
	row     source.Row
	triple  *rdf.Triple
}

// tripleCache accumulates Pass 1 output. Append-only during Pass 1,
// read-only during Pass 2, discarded with the run.
type tripleCache struct {
	entries []cacheEntry
	byMap   map[string]int
}

func newTripleCache() *tripleCache {
	return &tripleCache{byMap: make(map[string]int)}
}

func (c *tripleCache) add(mapName string, row source.Row, triple *rdf.Triple) {
	c.entries = append(c.entries, cacheEntry{mapName: mapName, row: row, triple: triple})
	c.byMap[mapName]++
}

func (c *tripleCache) len() int {
	return len(c.entries)
}
