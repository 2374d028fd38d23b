package rdf

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// EncodeTriG writes the dataset as a TriG document.
//
// The prefix block is emitted first, sorted by prefix name for stable
// output. Quads follow in insertion order; consecutive quads sharing a
// named graph are folded into one graph block. IRIs are compacted to
// prefix:local form when a declared namespace matches, otherwise
// written absolute. Quoted triples render as << s p o >>.
func EncodeTriG(w io.Writer, prefixes map[string]string, d *Dataset) error {
	enc := &trigEncoder{w: w, prefixes: compactionTable(prefixes)}

	names := make([]string, 0, len(prefixes))
	for name := range prefixes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := enc.printf("@prefix %s: <%s> .\n", name, prefixes[name]); err != nil {
			return err
		}
	}
	if len(names) > 0 {
		if err := enc.printf("\n"); err != nil {
			return err
		}
	}

	openGraph := IRI("")
	inBlock := false
	for _, q := range d.Quads() {
		if q.Graph != openGraph {
			if inBlock {
				if err := enc.printf("}\n"); err != nil {
					return err
				}
				inBlock = false
			}
			openGraph = q.Graph
			if openGraph != "" {
				if err := enc.printf("%s {\n", enc.term(openGraph)); err != nil {
					return err
				}
				inBlock = true
			}
		}

		indent := ""
		if inBlock {
			indent = "    "
		}
		err := enc.printf("%s%s %s %s .\n",
			indent, enc.term(q.Subject), enc.term(q.Predicate), enc.term(q.Object))
		if err != nil {
			return err
		}
	}
	if inBlock {
		if err := enc.printf("}\n"); err != nil {
			return err
		}
	}
	return nil
}

type trigEncoder struct {
	w        io.Writer
	prefixes []prefixEntry
}

type prefixEntry struct {
	name string
	ns   string
}

// compactionTable orders namespaces longest-first so the most specific
// declared prefix wins when namespaces nest.
func compactionTable(prefixes map[string]string) []prefixEntry {
	entries := make([]prefixEntry, 0, len(prefixes))
	for name, ns := range prefixes {
		if ns == "" {
			continue
		}
		entries = append(entries, prefixEntry{name: name, ns: ns})
	}
	sort.Slice(entries, func(i, j int) bool {
		if len(entries[i].ns) != len(entries[j].ns) {
			return len(entries[i].ns) > len(entries[j].ns)
		}
		return entries[i].name < entries[j].name
	})
	return entries
}

func (e *trigEncoder) printf(format string, args ...any) error {
	_, err := fmt.Fprintf(e.w, format, args...)
	return err
}

// term renders a term, compacting IRIs against the declared prefixes.
func (e *trigEncoder) term(t Term) string {
	switch v := t.(type) {
	case IRI:
		if compact, ok := e.compact(v); ok {
			return compact
		}
		return v.String()
	case *Triple:
		return fmt.Sprintf("<< %s %s %s >>", e.term(v.Subject), e.term(v.Predicate), e.term(v.Object))
	default:
		return t.String()
	}
}

// compact rewrites an absolute IRI to prefix:local form when a declared
// namespace matches and the local part is a safe PN_LOCAL fragment.
func (e *trigEncoder) compact(iri IRI) (string, bool) {
	s := string(iri)
	for _, p := range e.prefixes {
		if !strings.HasPrefix(s, p.ns) {
			continue
		}
		local := s[len(p.ns):]
		if local == "" || !safeLocalPart(local) {
			continue
		}
		return p.name + ":" + local, true
	}
	return "", false
}

// safeLocalPart is a conservative check: only compact when the local
// fragment needs no escaping under Turtle's PN_LOCAL grammar.
func safeLocalPart(local string) bool {
	for i, r := range local {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_' || r == '-':
		case r == '.' && i != 0 && i != len(local)-1:
		default:
			return false
		}
	}
	return true
}
