// Package rdf provides the term model for generated graph data.
//
// Terms form a sealed hierarchy: IRI, Literal, BlankNode, and *Triple
// (a quoted triple used as a term, the RDF-star case). Only these four
// types implement Term, which lets the engine and the serializer
// exhaustively switch over term kinds without a default escape hatch.
//
// A Dataset is an append-only, insertion-ordered collection of quads.
// Order is part of the contract: repeated runs over unchanged inputs
// must serialize byte-identically modulo blank node labels, so nothing
// in this package ever reorders statements.
package rdf
