package rdf

import (
	"fmt"
	"strings"
)

// Term is a sealed interface over the four RDF-star term kinds.
// Only IRI, Literal, BlankNode, and *Triple implement it.
type Term interface {
	term()
	// String returns the N-Triples-style rendering of the term.
	String() string
}

// IRI is an absolute or prefix-expanded resource identifier.
type IRI string

func (IRI) term() {}

func (i IRI) String() string {
	return "<" + string(i) + ">"
}

// Literal is a string value with an optional datatype or language tag.
// Datatype and Language are mutually exclusive; a language-tagged
// literal implicitly has type rdf:langString and carries no Datatype.
type Literal struct {
	Value    string
	Datatype IRI    // empty means xsd:string (left implicit on output)
	Language string // BCP 47 tag, e.g. "en"
}

func (Literal) term() {}

func (l Literal) String() string {
	quoted := `"` + escapeLiteral(l.Value) + `"`
	switch {
	case l.Language != "":
		return quoted + "@" + l.Language
	case l.Datatype != "":
		return quoted + "^^" + l.Datatype.String()
	default:
		return quoted
	}
}

// BlankNode is an anonymous node identified by label within one dataset.
// Labels are opaque; equality of labels is equality of identity.
type BlankNode string

func (BlankNode) term() {}

func (b BlankNode) String() string {
	return "_:" + string(b)
}

// Triple is a single subject-predicate-object statement. A *Triple is
// itself a Term, which is how quoted triples appear as the object of an
// rdf:reifies link.
type Triple struct {
	Subject   Term
	Predicate Term
	Object    Term
}

func (*Triple) term() {}

func (t *Triple) String() string {
	return fmt.Sprintf("<< %s %s %s >>", t.Subject, t.Predicate, t.Object)
}

// Equal reports whether two triples have identical terms. Quoted-triple
// components compare structurally.
func (t *Triple) Equal(o *Triple) bool {
	if t == nil || o == nil {
		return t == o
	}
	return TermEqual(t.Subject, o.Subject) &&
		TermEqual(t.Predicate, o.Predicate) &&
		TermEqual(t.Object, o.Object)
}

// TermEqual compares two terms for structural equality.
func TermEqual(a, b Term) bool {
	switch av := a.(type) {
	case IRI:
		bv, ok := b.(IRI)
		return ok && av == bv
	case Literal:
		bv, ok := b.(Literal)
		return ok && av == bv
	case BlankNode:
		bv, ok := b.(BlankNode)
		return ok && av == bv
	case *Triple:
		bv, ok := b.(*Triple)
		return ok && av.Equal(bv)
	default:
		return false
	}
}

// Quad is a triple with an optional named graph. A zero Graph places
// the triple in the default graph.
type Quad struct {
	Triple
	Graph IRI
}

// NewQuad builds a quad in the default graph.
func NewQuad(s, p, o Term) Quad {
	return Quad{Triple: Triple{Subject: s, Predicate: p, Object: o}}
}

// NewQuadInGraph builds a quad in the given named graph.
func NewQuadInGraph(s, p, o Term, g IRI) Quad {
	return Quad{Triple: Triple{Subject: s, Predicate: p, Object: o}, Graph: g}
}

// escapeLiteral escapes the characters that must not appear raw inside
// a double-quoted Turtle/TriG literal.
func escapeLiteral(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Well-known vocabulary IRIs used by the generation engine.
const (
	RDFType    IRI = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"
	RDFReifies IRI = "http://www.w3.org/1999/02/22-rdf-syntax-ns#reifies"

	NSRDF  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	NSRDFS = "http://www.w3.org/2000/01/rdf-schema#"
	NSXSD  = "http://www.w3.org/2001/XMLSchema#"
)
