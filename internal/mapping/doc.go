// Package mapping parses declarative YARRRML-style mapping documents
// into the specification model consumed by the generation engine.
//
// Parsing happens in two stages. The raw YAML is first validated
// against an embedded CUE schema, which rejects structurally impossible
// documents with positioned errors. The survivors are then walked as
// yaml.Node trees: the node walk preserves mapping declaration order
// (plain map decoding would not), and every shorthand/long-form
// disambiguation is decided here, once. The generator never re-inspects
// document shapes.
//
// Parsing is pure: it reads the given bytes and nothing else. Tabular
// sources are referenced, never opened.
package mapping
