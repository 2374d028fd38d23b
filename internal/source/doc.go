// Package source loads tabular rows for the generation engine.
//
// A Source satisfies one contract: produce the origin's rows, in
// first-to-last order, as column-name-to-string maps. The concrete
// connectors (CSV/TSV files, JSON documents, SQLite queries) are
// interchangeable behind that contract; the engine never sees formats.
//
// The Cache loads each distinct origin at most once per run. It is
// write-once on first access and read-only afterwards, which is all the
// concurrency discipline the single-threaded engine needs.
package source
