package engine

import (
	"fmt"

	"github.com/starweave/starweave/internal/source"
)

// Report accumulates what a run did and what it skipped. Recoverable
// failures land here instead of aborting the run.
type Report struct {
	RowsProcessed int
	SourcesLoaded int
	BaseTriples   int
	Annotations   int

	// SkippedMaps names triples maps that contributed nothing, with the
	// reason recorded alongside in the error lists below or, for maps
	// without sources, only here.
	SkippedMaps []string

	// SourceErrors holds origins that could not be loaded. Fatal for
	// their maps only.
	SourceErrors []*source.SourceUnavailableError

	// RowErrors holds rows that were skipped.
	RowErrors []*RowEvaluationError

	// JoinErrors holds annotation maps skipped for unusable joins.
	JoinErrors []*JoinConditionInvalidError
}

// Clean reports whether the run completed without skipping anything.
func (r *Report) Clean() bool {
	return len(r.SkippedMaps) == 0 &&
		len(r.SourceErrors) == 0 &&
		len(r.RowErrors) == 0 &&
		len(r.JoinErrors) == 0
}

// Summary renders the one-line result a CLI prints after a run.
func (r *Report) Summary() string {
	return fmt.Sprintf("%d rows, %d base triples, %d annotations (%d maps skipped, %d rows skipped)",
		r.RowsProcessed, r.BaseTriples, r.Annotations, len(r.SkippedMaps), len(r.RowErrors))
}
