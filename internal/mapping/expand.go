package mapping

import "strings"

// ExpandIRI resolves a prefixed name against a prefix table.
//
// "ex:foo" with {ex: "http://e.org/"} becomes "http://e.org/foo".
// Absolute http(s) IRIs and names whose prefix is not declared are
// returned unchanged, as are values with no colon at all.
func ExpandIRI(v string, prefixes map[string]string) string {
	if !strings.Contains(v, ":") {
		return v
	}
	if strings.HasPrefix(v, "http://") || strings.HasPrefix(v, "https://") {
		return v
	}
	prefix, local, _ := strings.Cut(v, ":")
	if ns, ok := prefixes[prefix]; ok {
		return ns + local
	}
	return v
}
