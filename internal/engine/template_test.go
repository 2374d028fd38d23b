package engine

import (
	"testing"

	"github.com/starweave/starweave/internal/mapping"
	"github.com/starweave/starweave/internal/rdf"
	"github.com/starweave/starweave/internal/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSpec() *mapping.Spec {
	return &mapping.Spec{
		Prefixes: map[string]string{
			"ex":  "http://example.org/",
			"xsd": rdf.NSXSD,
		},
	}
}

func TestSanitize(t *testing.T) {
	tmpl := newTemplateEngine(testSpec())

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"clean", "Acme-7.v2_x", "Acme-7.v2_x"},
		{"spaces", "Acme Corp", "Acme_Corp"},
		{"slash and colon", "a/b:c", "a_b_c"},
		{"unicode", "café", "caf_"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tmpl.sanitize(tt.in))
		})
	}
}

func TestSanitize_Idempotent(t *testing.T) {
	tmpl := newTemplateEngine(testSpec())
	for _, in := range []string{"Acme Corp", "a/b:c", "café", "x", "", "Ω≈ç√"} {
		once := tmpl.sanitize(in)
		assert.Equal(t, once, tmpl.sanitize(once), "input %q", in)
		assert.Regexp(t, `^[A-Za-z0-9_.\-]*$`, once)
	}
}

func TestSanitize_NFCNormalization(t *testing.T) {
	tmpl := newTemplateEngine(testSpec())
	// "é" precomposed vs combining must sanitize identically.
	precomposed := "café"
	combining := "café"
	assert.Equal(t, tmpl.sanitize(precomposed), tmpl.sanitize(combining))
}

func TestIRI_TemplateRendering(t *testing.T) {
	tmpl := newTemplateEngine(testSpec())

	tests := []struct {
		name string
		in   string
		row  source.Row
		want rdf.IRI
	}{
		{
			"prefixed with placeholder",
			"ex:dataset/$(id)",
			source.Row{"id": "7"},
			"http://example.org/dataset/7",
		},
		{
			"missing column yields sentinel",
			"ex:dataset/$(id)",
			source.Row{},
			"http://example.org/dataset/unknown",
		},
		{
			"blank column yields sentinel",
			"ex:dataset/$(id)",
			source.Row{"id": ""},
			"http://example.org/dataset/unknown",
		},
		{
			"value sanitized",
			"ex:org/$(name)",
			source.Row{"name": "Acme Corp"},
			"http://example.org/org/Acme_Corp",
		},
		{
			"absolute template untouched",
			"http://other.org/$(id)",
			source.Row{"id": "9"},
			"http://other.org/9",
		},
		{
			"unknown prefix untouched",
			"nope:thing/$(id)",
			source.Row{"id": "1"},
			"nope:thing/1",
		},
		{
			"iri marker stripped",
			"ex:org/$(id)~iri",
			source.Row{"id": "3"},
			"http://example.org/org/3",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tmpl.iri(tt.in, tt.row))
		})
	}
}

func TestObject_Literal(t *testing.T) {
	tmpl := newTemplateEngine(testSpec())
	row := source.Row{"name": "Acme Corp", "score": "0.9"}

	term, ok := tmpl.object(mapping.PredicateObjectRule{
		Object: "$(name)", Kind: mapping.KindLiteral,
	}, row)
	require.True(t, ok)
	assert.Equal(t, rdf.Literal{Value: "Acme Corp"}, term)

	term, ok = tmpl.object(mapping.PredicateObjectRule{
		Object: "$(score)", Kind: mapping.KindLiteral, Datatype: "xsd:decimal",
	}, row)
	require.True(t, ok)
	assert.Equal(t, rdf.Literal{Value: "0.9", Datatype: rdf.IRI(rdf.NSXSD + "decimal")}, term)

	term, ok = tmpl.object(mapping.PredicateObjectRule{
		Object: "$(name)", Kind: mapping.KindLiteral, Language: "en",
	}, row)
	require.True(t, ok)
	assert.Equal(t, rdf.Literal{Value: "Acme Corp", Language: "en"}, term)
}

func TestObject_BlankSinglePlaceholderSkipsRule(t *testing.T) {
	tmpl := newTemplateEngine(testSpec())

	_, ok := tmpl.object(mapping.PredicateObjectRule{
		Object: "$(missing)", Kind: mapping.KindLiteral,
	}, source.Row{})
	assert.False(t, ok)

	_, ok = tmpl.object(mapping.PredicateObjectRule{
		Object: "$(blank)", Kind: mapping.KindIRI,
	}, source.Row{"blank": ""})
	assert.False(t, ok)
}

func TestObject_MixedTemplateUsesSentinel(t *testing.T) {
	tmpl := newTemplateEngine(testSpec())
	term, ok := tmpl.object(mapping.PredicateObjectRule{
		Object: "row-$(missing)", Kind: mapping.KindLiteral,
	}, source.Row{})
	require.True(t, ok)
	assert.Equal(t, rdf.Literal{Value: "row-unknown"}, term)
}

func TestObject_ExternalIRIPassthrough(t *testing.T) {
	tmpl := newTemplateEngine(testSpec())
	row := source.Row{"homepage": "https://acme.example/about?x=1"}

	term, ok := tmpl.object(mapping.PredicateObjectRule{
		Object: "$(homepage)", Kind: mapping.KindIRI,
	}, row)
	require.True(t, ok)
	// Verbatim: no sanitization of the externally supplied IRI.
	assert.Equal(t, rdf.IRI("https://acme.example/about?x=1"), term)
}

func TestObject_IRIFromPlainValue(t *testing.T) {
	tmpl := newTemplateEngine(testSpec())
	term, ok := tmpl.object(mapping.PredicateObjectRule{
		Object: "$(code)", Kind: mapping.KindIRI,
	}, source.Row{"code": "a b"})
	require.True(t, ok)
	assert.Equal(t, rdf.IRI("a_b"), term)
}

func TestObject_IRITemplate(t *testing.T) {
	tmpl := newTemplateEngine(testSpec())
	term, ok := tmpl.object(mapping.PredicateObjectRule{
		Object: "ex:org/$(id)", Kind: mapping.KindIRI,
	}, source.Row{"id": "7"})
	require.True(t, ok)
	assert.Equal(t, rdf.IRI("http://example.org/org/7"), term)
}

func TestMemoTableBounded(t *testing.T) {
	tmpl := newTemplateEngine(testSpec())
	for i := 0; i < memoLimit+100; i++ {
		tmpl.sanitize(string(rune('a'+i%26)) + string(rune('0'+i%10)) + string(rune(i)))
	}
	assert.LessOrEqual(t, len(tmpl.memo), memoLimit)
	// Still computing correctly past the limit.
	assert.Equal(t, "x_y", tmpl.sanitize("x y"))
}
