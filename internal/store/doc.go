// Package store persists generation runs as batches of statements in
// SQLite.
//
// A batch is one complete run: its metadata (mapping document, creation
// time, counts) plus every generated statement in output order. Batches
// are written atomically; a partially saved run is never visible.
// Reading a batch restores the dataset in its original order, including
// quoted-triple annotation links.
package store
