package store

import (
	"fmt"

	"github.com/starweave/starweave/internal/rdf"
)

// Term kind tags as stored in the statements table.
const (
	kindIRI     = "iri"
	kindBlank   = "blank"
	kindLiteral = "literal"
	kindQuoted  = "quoted"
)

// nodeRecord flattens a subject-position term (IRI or blank node).
type nodeRecord struct {
	Kind  string
	Value string
}

func encodeNode(t rdf.Term) (nodeRecord, error) {
	switch v := t.(type) {
	case rdf.IRI:
		return nodeRecord{Kind: kindIRI, Value: string(v)}, nil
	case rdf.BlankNode:
		return nodeRecord{Kind: kindBlank, Value: string(v)}, nil
	default:
		return nodeRecord{}, fmt.Errorf("term %s cannot appear in subject position", t)
	}
}

func decodeNode(r nodeRecord) (rdf.Term, error) {
	switch r.Kind {
	case kindIRI:
		return rdf.IRI(r.Value), nil
	case kindBlank:
		return rdf.BlankNode(r.Value), nil
	default:
		return nil, fmt.Errorf("unknown subject kind %q", r.Kind)
	}
}

// valueRecord flattens an object-position term short of quoting.
type valueRecord struct {
	Kind     string
	Value    string
	Datatype string
	Language string
}

func encodeValue(t rdf.Term) (valueRecord, error) {
	switch v := t.(type) {
	case rdf.IRI:
		return valueRecord{Kind: kindIRI, Value: string(v)}, nil
	case rdf.BlankNode:
		return valueRecord{Kind: kindBlank, Value: string(v)}, nil
	case rdf.Literal:
		return valueRecord{
			Kind:     kindLiteral,
			Value:    v.Value,
			Datatype: string(v.Datatype),
			Language: v.Language,
		}, nil
	default:
		return valueRecord{}, fmt.Errorf("term %s cannot be flattened", t)
	}
}

func decodeValue(r valueRecord) (rdf.Term, error) {
	switch r.Kind {
	case kindIRI:
		return rdf.IRI(r.Value), nil
	case kindBlank:
		return rdf.BlankNode(r.Value), nil
	case kindLiteral:
		return rdf.Literal{
			Value:    r.Value,
			Datatype: rdf.IRI(r.Datatype),
			Language: r.Language,
		}, nil
	default:
		return nil, fmt.Errorf("unknown object kind %q", r.Kind)
	}
}
