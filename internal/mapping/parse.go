package mapping

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Well-known prefixes injected when the document omits them. The
// generation engine depends on rdf: being resolvable.
var builtinPrefixes = map[string]string{
	"rdf":  "http://www.w3.org/1999/02/22-rdf-syntax-ns#",
	"rdfs": "http://www.w3.org/2000/01/rdf-schema#",
	"xsd":  "http://www.w3.org/2001/XMLSchema#",
}

var (
	quotedRefPattern = regexp.MustCompile(`quoted=(\w+)`)
	joinLeftPattern  = regexp.MustCompile(`str1=\$\(([^)]+)\)`)
	joinRightPattern = regexp.MustCompile(`str2=\$\(([^)]+)\)`)
)

// Parse parses a mapping document.
func Parse(data []byte) (*Spec, error) {
	return ParseFile("mapping.yaml", data)
}

// ParseFile parses a mapping document, using filename in error
// positions. The document is shape-checked against the embedded CUE
// schema first; all structural errors surface as
// *MalformedSpecificationError with the offending section named.
func ParseFile(filename string, data []byte) (*Spec, error) {
	if err := validateShape(filename, data); err != nil {
		return nil, err
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &MalformedSpecificationError{Section: "document", Detail: "not valid YAML", Err: err}
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, &MalformedSpecificationError{Section: "document", Detail: "empty document"}
	}
	top := resolve(root.Content[0])
	if top.Kind != yaml.MappingNode {
		return nil, &MalformedSpecificationError{Section: "document", Detail: "top level must be a mapping"}
	}

	spec := &Spec{Prefixes: map[string]string{}}
	var namedSources map[string]SourceRef
	var mappingsNode *yaml.Node

	for key, value := range pairs(top) {
		switch key {
		case "base":
			spec.Base = value.Value
		case "authors":
			authors, err := parseAuthors(value)
			if err != nil {
				return nil, err
			}
			spec.Authors = authors
		case "external":
			// External references exist in the wider mapping language
			// but have no generation semantics here.
			return nil, &UnsupportedConstructError{Section: "external", Construct: "external references"}
		case "prefixes":
			if err := parsePrefixes(value, spec.Prefixes); err != nil {
				return nil, err
			}
		case "sources":
			ns, err := parseNamedSources(value)
			if err != nil {
				return nil, err
			}
			namedSources = ns
		case "targets":
			targets, err := parseTargets(value)
			if err != nil {
				return nil, err
			}
			spec.Targets = targets
		case "mappings":
			mappingsNode = value
		}
	}

	for name, ns := range builtinPrefixes {
		if _, ok := spec.Prefixes[name]; !ok {
			spec.Prefixes[name] = ns
		}
	}

	if mappingsNode == nil || mappingsNode.Kind != yaml.MappingNode {
		return nil, &MalformedSpecificationError{Section: "mappings", Detail: "mappings section is required"}
	}
	for name, body := range pairs(mappingsNode) {
		tm, err := parseTriplesMap(name, body, namedSources)
		if err != nil {
			return nil, err
		}
		spec.Maps = append(spec.Maps, tm)
	}
	if len(spec.Maps) == 0 {
		return nil, &MalformedSpecificationError{Section: "mappings", Detail: "at least one triples map is required"}
	}

	return spec, nil
}

// pairs iterates a YAML mapping node's key/value pairs in declaration
// order, resolving aliases on values.
func pairs(n *yaml.Node) func(func(string, *yaml.Node) bool) {
	return func(yield func(string, *yaml.Node) bool) {
		for i := 0; i+1 < len(n.Content); i += 2 {
			if !yield(n.Content[i].Value, resolve(n.Content[i+1])) {
				return
			}
		}
	}
}

// resolve follows YAML anchors so shared source declarations work.
func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

func parsePrefixes(n *yaml.Node, out map[string]string) error {
	if n.Kind != yaml.MappingNode {
		return &MalformedSpecificationError{Section: "prefixes", Detail: "must be a mapping of name to namespace IRI"}
	}
	for name, value := range pairs(n) {
		if value.Kind != yaml.ScalarNode || value.Value == "" {
			return &MalformedSpecificationError{
				Section: "prefixes",
				Detail:  fmt.Sprintf("prefix %q must have a non-empty namespace IRI", name),
			}
		}
		out[name] = value.Value
	}
	return nil
}

func parseAuthors(n *yaml.Node) ([]Author, error) {
	items := n.Content
	if n.Kind == yaml.ScalarNode {
		items = []*yaml.Node{n}
	} else if n.Kind != yaml.SequenceNode {
		return nil, &MalformedSpecificationError{Section: "authors", Detail: "must be a list"}
	}

	var authors []Author
	for _, item := range items {
		item = resolve(item)
		switch item.Kind {
		case yaml.ScalarNode:
			authors = append(authors, parseAuthorString(item.Value))
		case yaml.MappingNode:
			var a Author
			for key, value := range pairs(item) {
				switch key {
				case "name":
					a.Name = value.Value
				case "email":
					a.Email = value.Value
				case "webid":
					a.WebID = value.Value
				}
			}
			authors = append(authors, a)
		default:
			return nil, &MalformedSpecificationError{Section: "authors", Detail: "author entries must be strings or mappings"}
		}
	}
	return authors, nil
}

// parseAuthorString handles the "Name <email>" shorthand.
func parseAuthorString(s string) Author {
	open := strings.IndexByte(s, '<')
	end := strings.IndexByte(s, '>')
	if open >= 0 && end > open {
		return Author{
			Name:  strings.TrimSpace(s[:open]),
			Email: strings.TrimSpace(s[open+1 : end]),
		}
	}
	return Author{Name: strings.TrimSpace(s)}
}

func parseNamedSources(n *yaml.Node) (map[string]SourceRef, error) {
	if n.Kind != yaml.MappingNode {
		return nil, &MalformedSpecificationError{Section: "sources", Detail: "must be a mapping of name to source declaration"}
	}
	out := make(map[string]SourceRef)
	for name, value := range pairs(n) {
		ref, err := parseSourceValue("sources", value)
		if err != nil {
			return nil, err
		}
		ref.Name = name
		out[name] = ref
	}
	return out, nil
}

// parseSourceValue accepts the three source encodings: the shorthand
// string "path~format", the shorthand list ['path~format'], and the
// expanded mapping {access, referenceFormulation|type, ...}.
func parseSourceValue(section string, n *yaml.Node) (SourceRef, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		return sourceFromShorthand(n.Value), nil

	case yaml.SequenceNode:
		if len(n.Content) == 0 {
			return SourceRef{}, &MalformedSpecificationError{Section: section, Detail: "empty source shorthand"}
		}
		first := resolve(n.Content[0])
		if first.Kind != yaml.ScalarNode {
			return SourceRef{}, &MalformedSpecificationError{Section: section, Detail: "source shorthand must start with 'path~format'"}
		}
		return sourceFromShorthand(first.Value), nil

	case yaml.MappingNode:
		ref := SourceRef{Format: "csv", Delimiter: ","}
		for key, value := range pairs(n) {
			switch key {
			case "access":
				ref.Access = value.Value
			case "referenceFormulation", "type":
				ref.Format = normalizeFormat(value.Value)
			case "delimiter":
				ref.Delimiter = value.Value
			case "query":
				ref.Query = value.Value
			case "iterator":
				ref.Iterator = value.Value
			}
		}
		if ref.Access == "" {
			return SourceRef{}, &MalformedSpecificationError{Section: section, Detail: "source declaration requires 'access'"}
		}
		return ref, nil

	default:
		return SourceRef{}, &MalformedSpecificationError{Section: section, Detail: "unrecognized source declaration"}
	}
}

func sourceFromShorthand(s string) SourceRef {
	ref := SourceRef{Format: "csv", Delimiter: ","}
	if path, format, ok := strings.Cut(s, "~"); ok {
		ref.Access = path
		ref.Format = normalizeFormat(format)
	} else {
		ref.Access = s
	}
	if ref.Format == "tsv" {
		ref.Delimiter = "\t"
	}
	return ref
}

func normalizeFormat(s string) string {
	switch strings.ToLower(s) {
	case "csv":
		return "csv"
	case "tsv":
		return "tsv"
	case "json", "jsonpath":
		return "json"
	case "sqlite", "sqlite3":
		return "sqlite"
	default:
		return strings.ToLower(s)
	}
}

func parseTargets(n *yaml.Node) ([]Target, error) {
	if n.Kind != yaml.MappingNode {
		return nil, &MalformedSpecificationError{Section: "targets", Detail: "must be a mapping of name to target declaration"}
	}
	var targets []Target
	for name, value := range pairs(n) {
		t := Target{Name: name, Serialization: "trig"}
		switch value.Kind {
		case yaml.MappingNode:
			for key, v := range pairs(value) {
				switch key {
				case "access":
					t.Access = v.Value
				case "serialization":
					t.Serialization = strings.ToLower(v.Value)
				}
			}
		case yaml.SequenceNode:
			// Shortcut form: [access~type, serialization?, compression?]
			if len(value.Content) == 0 {
				return nil, &MalformedSpecificationError{Section: "targets", Detail: fmt.Sprintf("target %q is empty", name)}
			}
			access := resolve(value.Content[0]).Value
			if path, _, ok := strings.Cut(access, "~"); ok {
				access = path
			}
			t.Access = access
			if len(value.Content) > 1 {
				t.Serialization = strings.ToLower(resolve(value.Content[1]).Value)
			}
		case yaml.ScalarNode:
			t.Access = value.Value
		default:
			return nil, &MalformedSpecificationError{Section: "targets", Detail: fmt.Sprintf("unrecognized target %q", name)}
		}
		if t.Access == "" {
			return nil, &MalformedSpecificationError{Section: "targets", Detail: fmt.Sprintf("target %q requires 'access'", name)}
		}
		targets = append(targets, t)
	}
	return targets, nil
}

func parseTriplesMap(name string, n *yaml.Node, namedSources map[string]SourceRef) (TriplesMap, error) {
	section := "mappings." + name
	if n.Kind != yaml.MappingNode {
		return TriplesMap{}, &MalformedSpecificationError{Section: section, Detail: "triples map body must be a mapping"}
	}

	tm := TriplesMap{Name: name}
	var subjectNode *yaml.Node

	for key, value := range pairs(n) {
		switch key {
		case "sources":
			refs, err := parseMapSources(section, value, namedSources)
			if err != nil {
				return TriplesMap{}, err
			}
			tm.Sources = refs
		case "subject", "subjects":
			if subjectNode == nil {
				subjectNode = value
			}
		case "graph":
			tm.Graph = value.Value
		case "graphs":
			tm.Graph = firstScalar(value)
		case "predicateobjects":
			rules, types, err := parsePredicateObjects(section, value)
			if err != nil {
				return TriplesMap{}, err
			}
			tm.PredicateObjects = rules
			tm.Types = types
		}
	}

	if subjectNode == nil {
		return TriplesMap{}, &MalformedSpecificationError{Section: section, Detail: "subject is required"}
	}
	subject, err := parseSubject(section, subjectNode)
	if err != nil {
		return TriplesMap{}, err
	}
	tm.Subject = subject

	if tm.Quoted() && len(tm.Types) > 0 {
		return TriplesMap{}, &MalformedSpecificationError{
			Section: section,
			Detail:  "a quoted-subject map carries annotations only and cannot declare types",
		}
	}
	return tm, nil
}

func parseMapSources(section string, n *yaml.Node, namedSources map[string]SourceRef) ([]SourceRef, error) {
	// A scalar either names a document-level source or is shorthand.
	if n.Kind == yaml.ScalarNode {
		if ref, ok := namedSources[n.Value]; ok {
			return []SourceRef{ref}, nil
		}
		return []SourceRef{sourceFromShorthand(n.Value)}, nil
	}
	if n.Kind != yaml.SequenceNode {
		ref, err := parseSourceValue(section, n)
		if err != nil {
			return nil, err
		}
		return []SourceRef{ref}, nil
	}

	var refs []SourceRef
	for _, item := range n.Content {
		item = resolve(item)
		if item.Kind == yaml.ScalarNode {
			if ref, ok := namedSources[item.Value]; ok {
				refs = append(refs, ref)
				continue
			}
			refs = append(refs, sourceFromShorthand(item.Value))
			continue
		}
		ref, err := parseSourceValue(section, item)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// parseSubject disambiguates the two subject forms: template subject
// (string or list of strings) and quoted subject (list containing a
// join function entry). The result is exactly one of the two.
func parseSubject(section string, n *yaml.Node) (SubjectRule, error) {
	var rule SubjectRule

	switch n.Kind {
	case yaml.ScalarNode:
		rule.Templates = []string{n.Value}
		return rule, nil

	case yaml.SequenceNode:
		for _, item := range n.Content {
			item = resolve(item)
			switch item.Kind {
			case yaml.ScalarNode:
				rule.Templates = append(rule.Templates, item.Value)
			case yaml.MappingNode:
				for key, value := range pairs(item) {
					switch key {
					case "function":
						quoted, err := parseJoinFunction(section, value.Value)
						if err != nil {
							return SubjectRule{}, err
						}
						if rule.Quoted != nil {
							quoted.NamespaceFilter = rule.Quoted.NamespaceFilter
						}
						rule.Quoted = quoted
					case "namespace":
						if rule.Quoted != nil {
							rule.Quoted.NamespaceFilter = value.Value
						} else {
							rule.Quoted = &QuotedSubject{NamespaceFilter: value.Value}
						}
					case "graph":
						rule.Graph = value.Value
					default:
						return SubjectRule{}, &UnsupportedConstructError{
							Section:   section,
							Construct: fmt.Sprintf("subject key %q", key),
						}
					}
				}
			default:
				return SubjectRule{}, &MalformedSpecificationError{Section: section, Detail: "subject entries must be strings or mappings"}
			}
		}

	default:
		return SubjectRule{}, &MalformedSpecificationError{Section: section, Detail: "subject must be a string or a list"}
	}

	quoted := rule.Quoted != nil && rule.Quoted.MappingRef != ""
	if quoted && len(rule.Templates) > 0 {
		return SubjectRule{}, &MalformedSpecificationError{
			Section: section,
			Detail:  "subject cannot be both a template and a quoted reference",
		}
	}
	if rule.Quoted != nil && rule.Quoted.MappingRef == "" {
		return SubjectRule{}, &MalformedSpecificationError{
			Section: section,
			Detail:  "namespace filter given without a join function",
		}
	}
	if !quoted && len(rule.Templates) == 0 {
		return SubjectRule{}, &MalformedSpecificationError{Section: section, Detail: "subject is required"}
	}
	return rule, nil
}

// parseJoinFunction extracts the quoted-map reference and join keys
// from "join(quoted=<map>, equal(str1=$(l), str2=$(r)))".
//
// A function without quoted= has no defined semantics and is fatal. A
// recognizable quoted reference with an unparsable equality leaves the
// join zero-valued; the executor skips that map and reports it, so one
// broken annotation map never aborts the run.
func parseJoinFunction(section, fn string) (*QuotedSubject, error) {
	ref := quotedRefPattern.FindStringSubmatch(fn)
	if ref == nil {
		return nil, &UnsupportedConstructError{Section: section, Construct: fmt.Sprintf("subject function %q", fn)}
	}
	quoted := &QuotedSubject{MappingRef: ref[1], RawFunction: fn}

	left := joinLeftPattern.FindStringSubmatch(fn)
	right := joinRightPattern.FindStringSubmatch(fn)
	if left != nil && right != nil {
		quoted.Join = JoinCondition{LeftKey: left[1], RightKey: right[1]}
	}
	return quoted, nil
}

func parsePredicateObjects(section string, n *yaml.Node) ([]PredicateObjectRule, []string, error) {
	var rules []PredicateObjectRule
	var types []string

	for _, item := range n.Content {
		item = resolve(item)
		switch item.Kind {
		case yaml.SequenceNode:
			rule, typ, err := parseCompactRule(section, item)
			if err != nil {
				return nil, nil, err
			}
			if typ != "" {
				types = append(types, typ)
			} else {
				rules = append(rules, rule)
			}
		case yaml.MappingNode:
			expanded, expTypes, err := parseExpandedRule(section, item)
			if err != nil {
				return nil, nil, err
			}
			rules = append(rules, expanded...)
			types = append(types, expTypes...)
		default:
			return nil, nil, &MalformedSpecificationError{Section: section, Detail: "predicateobjects entries must be lists or mappings"}
		}
	}
	return rules, types, nil
}

// parseCompactRule handles [predicate, object] and
// [predicate, object, modifier]. The modifier is "iri", "<tag>~lang",
// or a datatype. A rule with predicate "a"/"rdf:type" is a declared
// type, returned separately.
func parseCompactRule(section string, n *yaml.Node) (PredicateObjectRule, string, error) {
	if len(n.Content) < 2 {
		return PredicateObjectRule{}, "", &MalformedSpecificationError{
			Section: section,
			Detail:  "compact predicate-object needs [predicate, object]",
		}
	}
	predicate := resolve(n.Content[0]).Value
	object := resolve(n.Content[1]).Value

	if predicate == "a" || predicate == "rdf:type" {
		return PredicateObjectRule{}, object, nil
	}

	rule := PredicateObjectRule{Predicate: predicate, Object: object, Kind: KindLiteral}
	if strings.HasSuffix(object, "~iri") {
		rule.Kind = KindIRI
	}

	if len(n.Content) > 2 {
		modifier := resolve(n.Content[2]).Value
		switch {
		case modifier == "iri":
			rule.Kind = KindIRI
		case strings.HasSuffix(modifier, "~lang"):
			rule.Language = strings.TrimSuffix(modifier, "~lang")
		default:
			rule.Datatype = modifier
		}
	}
	return rule, "", nil
}

// parseExpandedRule handles {predicates, objects, datatype?, language?,
// graphs?}. Multiple predicates and objects cross-multiply into one
// rule per pair, matching the compact form's semantics.
func parseExpandedRule(section string, n *yaml.Node) ([]PredicateObjectRule, []string, error) {
	var predicates []string
	var objectNodes []*yaml.Node
	var datatype, language, graph string

	for key, value := range pairs(n) {
		switch key {
		case "predicates", "predicate":
			predicates = scalarList(value)
		case "objects", "object":
			if value.Kind == yaml.SequenceNode {
				for _, item := range value.Content {
					objectNodes = append(objectNodes, resolve(item))
				}
			} else {
				objectNodes = append(objectNodes, value)
			}
		case "datatype":
			datatype = value.Value
		case "language":
			language = value.Value
		case "graph":
			graph = value.Value
		case "graphs":
			graph = firstScalar(value)
		case "inverse":
			return nil, nil, &UnsupportedConstructError{Section: section, Construct: "inverse predicates"}
		case "condition", "function":
			return nil, nil, &UnsupportedConstructError{Section: section, Construct: fmt.Sprintf("predicate-object %s", key)}
		}
	}

	if len(predicates) == 0 || len(objectNodes) == 0 {
		return nil, nil, &MalformedSpecificationError{
			Section: section,
			Detail:  "expanded predicate-object needs predicates and objects",
		}
	}

	var rules []PredicateObjectRule
	var types []string
	for _, predicate := range predicates {
		for _, objNode := range objectNodes {
			rule := PredicateObjectRule{
				Predicate: predicate,
				Kind:      KindLiteral,
				Datatype:  datatype,
				Language:  language,
				Graph:     graph,
			}
			switch objNode.Kind {
			case yaml.ScalarNode:
				rule.Object = objNode.Value
				if strings.HasSuffix(rule.Object, "~iri") {
					rule.Kind = KindIRI
				}
			case yaml.MappingNode:
				for key, value := range pairs(objNode) {
					switch key {
					case "value":
						rule.Object = value.Value
					case "type":
						if value.Value == "iri" {
							rule.Kind = KindIRI
						}
					case "datatype":
						rule.Datatype = value.Value
					case "language":
						rule.Language = value.Value
					case "function", "condition":
						return nil, nil, &UnsupportedConstructError{Section: section, Construct: fmt.Sprintf("object %s", key)}
					}
				}
				if strings.HasSuffix(rule.Object, "~iri") {
					rule.Kind = KindIRI
				}
			default:
				return nil, nil, &MalformedSpecificationError{Section: section, Detail: "objects must be strings or mappings"}
			}
			if rule.Object == "" {
				return nil, nil, &MalformedSpecificationError{Section: section, Detail: "object value is required"}
			}

			if predicate == "a" || predicate == "rdf:type" {
				types = append(types, rule.Object)
				continue
			}
			rules = append(rules, rule)
		}
	}
	return rules, types, nil
}

func scalarList(n *yaml.Node) []string {
	if n.Kind == yaml.ScalarNode {
		return []string{n.Value}
	}
	var out []string
	for _, item := range n.Content {
		out = append(out, resolve(item).Value)
	}
	return out
}

func firstScalar(n *yaml.Node) string {
	if n.Kind == yaml.ScalarNode {
		return n.Value
	}
	if n.Kind == yaml.SequenceNode && len(n.Content) > 0 {
		return resolve(n.Content[0]).Value
	}
	return ""
}
