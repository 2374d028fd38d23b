package source

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/starweave/starweave/internal/mapping"
)

// Cache resolves source references to row sets, loading each distinct
// origin at most once per run. Two references hit the same entry when
// their resolved path and query agree, regardless of the spelling in
// the mapping document.
type Cache struct {
	baseDir  string
	dataDirs []string
	logger   *slog.Logger
	entries  map[string][]Row
}

// NewCache builds a cache that resolves relative access paths against
// baseDir (the mapping document's directory) first, then each of
// dataDirs in order.
func NewCache(baseDir string, dataDirs []string, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Cache{
		baseDir:  baseDir,
		dataDirs: dataDirs,
		logger:   logger,
		entries:  make(map[string][]Row),
	}
}

// Load returns the rows for ref, reading the origin on first use and
// serving the cached rows afterwards.
func (c *Cache) Load(ctx context.Context, ref mapping.SourceRef) ([]Row, error) {
	path := c.resolve(ref.Access)
	key := path + "\x00" + ref.Query
	if rows, ok := c.entries[key]; ok {
		return rows, nil
	}

	src, err := New(ref, path)
	if err != nil {
		return nil, err
	}
	rows, err := src.Rows(ctx)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("loaded source", "path", src.Describe(), "rows", len(rows))
	c.entries[key] = rows
	return rows, nil
}

// resolve maps an access path to a concrete file path. Absolute paths
// stand as-is; relative paths are tried against the base directory and
// then the extra data directories, falling back to the base-relative
// candidate so the connector reports a sensible not-found error.
func (c *Cache) resolve(access string) string {
	if filepath.IsAbs(access) {
		return filepath.Clean(access)
	}
	candidates := make([]string, 0, len(c.dataDirs)+1)
	if c.baseDir != "" {
		candidates = append(candidates, filepath.Join(c.baseDir, access))
	} else {
		candidates = append(candidates, filepath.Clean(access))
	}
	for _, dir := range c.dataDirs {
		candidates = append(candidates, filepath.Join(dir, access))
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return candidates[0]
}
