package engine

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/starweave/starweave/internal/mapping"
	"github.com/starweave/starweave/internal/rdf"
	"github.com/starweave/starweave/internal/source"
)

// sentinel stands in for absent or blank row values inside IRI
// templates, so incomplete rows never abort a run.
const sentinel = "unknown"

// memoLimit bounds the sanitize memo table. Beyond it values are still
// computed, just not remembered.
const memoLimit = 1 << 14

var placeholderRE = regexp.MustCompile(`\$\(([^)]+)\)`)

// templateEngine instantiates placeholder-bearing templates against
// data rows. It owns the sanitize memo table; nothing here is global.
type templateEngine struct {
	spec *mapping.Spec
	memo map[string]string
}

func newTemplateEngine(spec *mapping.Spec) *templateEngine {
	return &templateEngine{
		spec: spec,
		memo: make(map[string]string),
	}
}

// sanitize makes a raw row value safe for IRI embedding: NFC-normalize,
// then replace anything outside [A-Za-z0-9_.-] with "_". Idempotent:
// sanitize(sanitize(x)) == sanitize(x).
func (t *templateEngine) sanitize(v string) string {
	if cached, ok := t.memo[v]; ok {
		return cached
	}
	normalized := norm.NFC.String(v)
	var b strings.Builder
	b.Grow(len(normalized))
	for _, r := range normalized {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '_' || r == '.' || r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := b.String()
	if len(t.memo) < memoLimit {
		t.memo[v] = out
	}
	return out
}

// placeholder returns the column name when tmpl is exactly one
// $(name) reference and nothing else.
func placeholder(tmpl string) (string, bool) {
	m := placeholderRE.FindStringSubmatch(tmpl)
	if m == nil || m[0] != tmpl {
		return "", false
	}
	return m[1], true
}

// iri renders tmpl against row as an IRI string: substitute sanitized
// values (sentinel for absent/blank), strip a trailing ~iri marker,
// then expand a known prefix.
func (t *templateEngine) iri(tmpl string, row source.Row) rdf.IRI {
	tmpl = strings.TrimSuffix(tmpl, "~iri")
	rendered := placeholderRE.ReplaceAllStringFunc(tmpl, func(ph string) string {
		name := ph[2 : len(ph)-1]
		v := row[name]
		if v == "" {
			return sentinel
		}
		return t.sanitize(v)
	})
	return rdf.IRI(t.spec.ExpandIRI(rendered))
}

// literalValue renders tmpl against row as a raw literal string.
// Values are substituted unsanitized; absent/blank columns take the
// sentinel. The second return is false when tmpl is a single bare
// placeholder whose value is absent or blank, which means the rule
// yields no statement for this row.
func (t *templateEngine) literalValue(tmpl string, row source.Row) (string, bool) {
	if name, ok := placeholder(tmpl); ok {
		v := row[name]
		if v == "" {
			return "", false
		}
		return v, true
	}
	rendered := placeholderRE.ReplaceAllStringFunc(tmpl, func(ph string) string {
		name := ph[2 : len(ph)-1]
		v := row[name]
		if v == "" {
			return sentinel
		}
		return v
	})
	return rendered, true
}

// object resolves one predicate-object rule against a row. The second
// return is false when the rule yields no statement for this row.
func (t *templateEngine) object(rule mapping.PredicateObjectRule, row source.Row) (rdf.Term, bool) {
	switch rule.Kind {
	case mapping.KindIRI:
		if name, ok := placeholder(strings.TrimSuffix(rule.Object, "~iri")); ok {
			raw := row[name]
			if raw == "" {
				return nil, false
			}
			// Externally supplied IRIs pass through verbatim.
			if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
				return rdf.IRI(raw), true
			}
			return rdf.IRI(t.spec.ExpandIRI(t.sanitize(raw))), true
		}
		return t.iri(rule.Object, row), true
	default:
		v, ok := t.literalValue(rule.Object, row)
		if !ok {
			return nil, false
		}
		lit := rdf.Literal{Value: v, Language: rule.Language}
		if rule.Datatype != "" {
			lit.Datatype = rdf.IRI(t.spec.ExpandIRI(rule.Datatype))
		}
		return lit, true
	}
}

// predicate resolves a predicate template to an IRI. Predicates are
// usually plain prefixed names, but placeholders are honored.
func (t *templateEngine) predicate(tmpl string, row source.Row) rdf.IRI {
	return t.iri(tmpl, row)
}
