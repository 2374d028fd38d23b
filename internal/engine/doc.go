// Package engine turns a parsed mapping specification and tabular rows
// into an RDF-star dataset.
//
// Execution is two fixed passes with no loops back. Pass 1 walks the
// material triples maps in declaration order, instantiates templates
// per row, and records every emitted base triple with its origin row in
// the triple cache. Pass 2 walks the quoted (annotation) maps, joins
// their rows against the whole cache, and emits one fresh blank
// reifier per (annotation row, cached triple) match.
//
// The Executor owns all mutable state: the source cache, the triple
// cache, the template memo table, and the run report. Per-row and
// per-map failures are accumulated in the report; only specification
// errors abort a run.
package engine
