package rdf

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeTriG_PrefixBlockSorted(t *testing.T) {
	prefixes := map[string]string{
		"xsd": NSXSD,
		"ex":  "http://example.org/",
		"dct": "http://purl.org/dc/terms/",
	}

	var buf bytes.Buffer
	require.NoError(t, EncodeTriG(&buf, prefixes, NewDataset()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{
		"@prefix dct: <http://purl.org/dc/terms/> .",
		"@prefix ex: <http://example.org/> .",
		"@prefix xsd: <http://www.w3.org/2001/XMLSchema#> .",
	}, lines)
}

func TestEncodeTriG_CompactsDeclaredNamespaces(t *testing.T) {
	prefixes := map[string]string{"ex": "http://example.org/"}
	d := NewDataset()
	d.Add(NewQuad(IRI("http://example.org/thing1"), RDFType, IRI("http://example.org/Thing")))

	var buf bytes.Buffer
	require.NoError(t, EncodeTriG(&buf, prefixes, d))

	assert.Contains(t, buf.String(), "ex:thing1 <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> ex:Thing .")
}

func TestEncodeTriG_SlashLocalPartStaysAbsolute(t *testing.T) {
	// ex:dataset/7 is not a valid PN_LOCAL fragment, so the IRI must be
	// written in absolute form rather than compacted.
	prefixes := map[string]string{"ex": "http://example.org/"}
	d := NewDataset()
	d.Add(NewQuad(IRI("http://example.org/dataset/7"), IRI("http://example.org/title"), Literal{Value: "Acme"}))

	var buf bytes.Buffer
	require.NoError(t, EncodeTriG(&buf, prefixes, d))

	assert.Contains(t, buf.String(), `<http://example.org/dataset/7> ex:title "Acme" .`)
}

func TestEncodeTriG_NamedGraphBlocks(t *testing.T) {
	prefixes := map[string]string{"ex": "http://example.org/"}
	d := NewDataset()
	d.Add(NewQuad(IRI("http://example.org/a"), IRI("http://example.org/p"), Literal{Value: "default"}))
	d.Add(NewQuadInGraph(IRI("http://example.org/b"), IRI("http://example.org/p"), Literal{Value: "named"}, IRI("http://example.org/G")))

	var buf bytes.Buffer
	require.NoError(t, EncodeTriG(&buf, prefixes, d))
	out := buf.String()

	assert.Contains(t, out, `ex:a ex:p "default" .`)
	assert.Contains(t, out, "ex:G {\n")
	assert.Contains(t, out, `    ex:b ex:p "named" .`)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "}"), "graph block must be closed")
}

func TestEncodeTriG_QuotedTriple(t *testing.T) {
	prefixes := map[string]string{"ex": "http://example.org/"}
	base := &Triple{
		Subject:   IRI("http://example.org/s"),
		Predicate: IRI("http://example.org/p"),
		Object:    Literal{Value: "o"},
	}
	d := NewDataset()
	d.Add(NewQuad(BlankNode("r0"), RDFReifies, base))

	var buf bytes.Buffer
	require.NoError(t, EncodeTriG(&buf, prefixes, d))

	assert.Contains(t, buf.String(), `_:r0 <http://www.w3.org/1999/02/22-rdf-syntax-ns#reifies> << ex:s ex:p "o" >> .`)
}
