package mapping

// Spec is the parsed mapping specification: the complete, shape-checked
// representation of one mapping document.
type Spec struct {
	// Base is the optional base IRI declared by the document.
	Base string

	// Authors lists the document authors, for provenance metadata.
	Authors []Author

	// Prefixes maps short names to namespace IRIs. The well-known
	// rdf/rdfs/xsd prefixes are injected when the document omits them.
	Prefixes map[string]string

	// Targets lists declared output targets in declaration order. The
	// first target's access path is the default output file.
	Targets []Target

	// Maps holds the triples maps in declaration order. Declaration
	// order is the execution order within each generation pass.
	Maps []TriplesMap
}

// DefaultOutput returns the access path of the first declared target,
// or "" when the document declares none.
func (s *Spec) DefaultOutput() string {
	if len(s.Targets) == 0 {
		return ""
	}
	return s.Targets[0].Access
}

// ExpandIRI resolves prefix:local against the declared prefixes.
// Absolute IRIs (anything with a URI scheme) and unknown prefixes pass
// through unchanged.
func (s *Spec) ExpandIRI(v string) string {
	return ExpandIRI(v, s.Prefixes)
}

// Author identifies a document author.
type Author struct {
	Name  string
	Email string
	WebID string
}

// Target is a declared output target.
type Target struct {
	Name          string
	Access        string
	Serialization string // defaults to "trig"
}

// SourceRef identifies a tabular origin. Format selects the connector;
// the remaining fields are connector-specific.
type SourceRef struct {
	Name      string // document-level source name, if declared there
	Access    string // path or locator
	Format    string // "csv", "tsv", "json", "sqlite"
	Delimiter string // csv only, defaults to ","
	Query     string // sqlite only, required there
	Iterator  string // json only, optional top-level key
}

// TriplesMap is one named unit of the specification.
type TriplesMap struct {
	Name             string
	Sources          []SourceRef
	Subject          SubjectRule
	Types            []string // declared rdf:type objects, pre-expansion
	PredicateObjects []PredicateObjectRule
	Graph            string // map-level graph tag, pre-expansion
}

// Quoted reports whether this map emits reification annotations rather
// than source-driven base triples.
func (m *TriplesMap) Quoted() bool {
	return m.Subject.Quoted != nil
}

// SubjectRule is a tagged union: exactly one of Templates or Quoted is
// set. The parser enforces the invariant; generation relies on it.
type SubjectRule struct {
	// Templates holds one or more placeholder-bearing subject
	// templates. Empty when the subject is quoted.
	Templates []string

	// Quoted is non-nil for annotation maps.
	Quoted *QuotedSubject

	// Graph is the subject-level graph tag, pre-expansion.
	Graph string
}

// QuotedSubject describes an annotation map's subject: a reference to
// another triples map plus the join used to re-identify its statements.
type QuotedSubject struct {
	// MappingRef names the referenced triples map.
	MappingRef string

	// Join associates annotation rows with cached statements. A zero
	// Join means the declared join function could not be parsed; the
	// executor skips the map and records the failure.
	Join JoinCondition

	// NamespaceFilter optionally restricts matches to cached triples
	// whose subject IRI starts with this namespace (after prefix
	// expansion). Declared explicitly in the document; never inferred
	// from IRI shape.
	NamespaceFilter string

	// RawFunction preserves the original function text for diagnostics.
	RawFunction string
}

// JoinCondition matches an annotation row against cached rows:
// annotation row[RightKey] == cached row[LeftKey], compared as strings
// with no coercion.
type JoinCondition struct {
	LeftKey  string
	RightKey string
}

// Valid reports whether both join keys were parsed.
func (j JoinCondition) Valid() bool {
	return j.LeftKey != "" && j.RightKey != ""
}

// ObjectKind selects how a predicate-object rule's value becomes a term.
type ObjectKind int

const (
	// KindLiteral produces a literal term, honoring Datatype/Language.
	KindLiteral ObjectKind = iota

	// KindIRI produces an IRI term.
	KindIRI
)

// PredicateObjectRule is one predicate-object rule of a triples map,
// evaluated once per row to yield zero or one statement.
type PredicateObjectRule struct {
	Predicate string
	Object    string // value template; may carry a trailing ~iri marker
	Kind      ObjectKind
	Datatype  string // pre-expansion, e.g. "xsd:integer"
	Language  string // BCP 47 tag
	Graph     string // rule-level graph tag, pre-expansion
}
