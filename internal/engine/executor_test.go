package engine

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/starweave/starweave/internal/mapping"
	"github.com/starweave/starweave/internal/rdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runMapping parses doc, writes the given data files next to it, and
// executes with deterministic reifier labels.
func runMapping(t *testing.T, doc string, files map[string]string, opts ...Option) (*Executor, *rdf.Dataset, *Report) {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	spec, err := mapping.Parse([]byte(doc))
	require.NoError(t, err)

	opts = append([]Option{
		WithBaseDir(dir),
		WithBlankNodeGenerator(&SequenceGenerator{}),
	}, opts...)
	e := New(spec, opts...)
	ds, report, err := e.Execute(context.Background())
	require.NoError(t, err)
	return e, ds, report
}

const datasetDoc = `
prefixes:
  ex: "http://example.org/"

mappings:
  dataset:
    sources: ['datasets.csv~csv']
    subject: ex:dataset/$(id)
    predicateobjects:
      - [a, ex:Dataset]
      - [ex:title, $(name)]
`

func TestExecute_BasicScenario(t *testing.T) {
	_, ds, report := runMapping(t, datasetDoc, map[string]string{
		"datasets.csv": "id,name\n7,Acme\n",
	})

	require.Equal(t, 2, ds.Len())
	quads := ds.Quads()

	subject := rdf.IRI("http://example.org/dataset/7")
	assert.Equal(t, rdf.NewQuad(subject, rdf.RDFType, rdf.IRI("http://example.org/Dataset")), quads[0])
	assert.Equal(t, rdf.NewQuad(subject, rdf.IRI("http://example.org/title"), rdf.Literal{Value: "Acme"}), quads[1])

	assert.Equal(t, 1, report.RowsProcessed)
	assert.Equal(t, 2, report.BaseTriples)
	assert.Equal(t, 0, report.Annotations)
	assert.True(t, report.Clean())
}

const annotatedDoc = `
prefixes:
  ex: "http://example.org/"

mappings:
  dataset:
    sources: ['datasets.csv~csv']
    subject: ex:dataset/$(id)
    predicateobjects:
      - [a, ex:Dataset]
      - [ex:title, $(name)]
  quality:
    sources: ['quality.csv~csv']
    subject:
      - function: join(quoted=dataset, equal(str1=$(id), str2=$(id)))
      - namespace: ex:dataset/
    predicateobjects:
      - [ex:confidence, $(confidence)]
`

func TestExecute_AnnotationScenario(t *testing.T) {
	_, ds, report := runMapping(t, annotatedDoc, map[string]string{
		"datasets.csv": "id,name\n7,Acme\n",
		"quality.csv":  "id,confidence\n7,0.9\n",
	})

	// 2 base triples + 2 reifiers, each carrying a reifies link and one
	// annotation pair.
	require.Equal(t, 6, ds.Len())
	assert.Equal(t, 2, report.BaseTriples)
	assert.Equal(t, 2, report.Annotations)

	quads := ds.Quads()

	first := quads[2]
	assert.Equal(t, rdf.BlankNode("r1"), first.Subject)
	assert.Equal(t, rdf.RDFReifies, first.Predicate)
	quoted, ok := first.Object.(*rdf.Triple)
	require.True(t, ok)
	assert.True(t, quoted.Equal(&quads[0].Triple))

	assert.Equal(t, rdf.BlankNode("r1"), quads[3].Subject)
	assert.Equal(t, rdf.IRI("http://example.org/confidence"), quads[3].Predicate)
	assert.Equal(t, rdf.Literal{Value: "0.9"}, quads[3].Object)

	second := quads[4]
	assert.Equal(t, rdf.BlankNode("r2"), second.Subject)
	quoted, ok = second.Object.(*rdf.Triple)
	require.True(t, ok)
	assert.True(t, quoted.Equal(&quads[1].Triple))
}

func TestExecute_JoinCompleteness(t *testing.T) {
	doc := `
prefixes:
  ex: "http://example.org/"
mappings:
  dataset:
    sources: ['datasets.csv~csv']
    subject: ex:dataset/$(id)
    predicateobjects:
      - [a, ex:Dataset]
      - [ex:title, $(name)]
      - [ex:kind, $(kind)]
  quality:
    sources: ['quality.csv~csv']
    subject:
      - function: join(quoted=dataset, equal(str1=$(id), str2=$(id)))
    predicateobjects:
      - [ex:confidence, $(confidence)]
`
	_, _, report := runMapping(t, doc, map[string]string{
		"datasets.csv": "id,name,kind\n42,Acme,open\n",
		"quality.csv":  "id,confidence\n42,0.8\n",
	})

	// 3 cached triples sharing id=42 and one annotation row: one fresh
	// reifier per matching pair, not one per row.
	assert.Equal(t, 3, report.BaseTriples)
	assert.Equal(t, 3, report.Annotations)
}

func TestExecute_NamespaceFilterBlocksCrossContamination(t *testing.T) {
	doc := `
prefixes:
  ex: "http://example.org/"
mappings:
  dataset:
    sources: ['datasets.csv~csv']
    subject: ex:dataset/$(id)
    predicateobjects:
      - [ex:title, $(name)]
  sensor:
    sources: ['sensors.csv~csv']
    subject: ex:sensor/$(id)
    predicateobjects:
      - [ex:label, $(name)]
  quality:
    sources: ['quality.csv~csv']
    subject:
      - function: join(quoted=dataset, equal(str1=$(id), str2=$(id)))
      - namespace: ex:dataset/
    predicateobjects:
      - [ex:confidence, $(confidence)]
`
	files := map[string]string{
		"datasets.csv": "id,name\n7,Acme\n",
		"sensors.csv":  "id,name\n7,TempProbe\n",
		"quality.csv":  "id,confidence\n7,0.9\n",
	}
	_, ds, report := runMapping(t, doc, files)

	// The sensor triple reuses id=7 but lives outside ex:dataset/; the
	// filter keeps it out of the join.
	assert.Equal(t, 1, report.Annotations)
	for _, q := range ds.Quads() {
		if quoted, ok := q.Object.(*rdf.Triple); ok {
			assert.Equal(t, rdf.IRI("http://example.org/dataset/7"), quoted.Subject)
		}
	}
}

func TestExecute_WithoutFilterMatchesWholeCache(t *testing.T) {
	doc := `
prefixes:
  ex: "http://example.org/"
mappings:
  dataset:
    sources: ['datasets.csv~csv']
    subject: ex:dataset/$(id)
    predicateobjects:
      - [ex:title, $(name)]
  sensor:
    sources: ['sensors.csv~csv']
    subject: ex:sensor/$(id)
    predicateobjects:
      - [ex:label, $(name)]
  quality:
    sources: ['quality.csv~csv']
    subject:
      - function: join(quoted=dataset, equal(str1=$(id), str2=$(id)))
    predicateobjects:
      - [ex:confidence, $(confidence)]
`
	files := map[string]string{
		"datasets.csv": "id,name\n7,Acme\n",
		"sensors.csv":  "id,name\n7,TempProbe\n",
		"quality.csv":  "id,confidence\n7,0.9\n",
	}
	_, _, report := runMapping(t, doc, files)

	// Matching is join-key-based, not map-name-based: with no declared
	// filter the annotation reaches both entity families.
	assert.Equal(t, 2, report.Annotations)
}

func TestExecute_BrokenJoinSkipsWholeMap(t *testing.T) {
	doc := `
prefixes:
  ex: "http://example.org/"
mappings:
  dataset:
    sources: ['datasets.csv~csv']
    subject: ex:dataset/$(id)
    predicateobjects:
      - [ex:title, $(name)]
  quality:
    sources: ['quality.csv~csv']
    subject:
      - function: join(quoted=dataset, equal(oops))
    predicateobjects:
      - [ex:confidence, $(confidence)]
`
	_, ds, report := runMapping(t, doc, map[string]string{
		"datasets.csv": "id,name\n7,Acme\n",
		"quality.csv":  "id,confidence\n7,0.9\n",
	})

	assert.Equal(t, 1, ds.Len(), "no partial annotations")
	assert.Equal(t, 0, report.Annotations)
	require.Len(t, report.JoinErrors, 1)
	assert.Equal(t, "quality", report.JoinErrors[0].Map)
	assert.Contains(t, report.SkippedMaps, "quality")
}

func TestExecute_MissingSourceSkipsOnlyItsMaps(t *testing.T) {
	doc := `
prefixes:
  ex: "http://example.org/"
mappings:
  broken:
    sources: ['ghost.csv~csv']
    subject: ex:b/$(id)
    predicateobjects:
      - [ex:p, $(v)]
  dataset:
    sources: ['datasets.csv~csv']
    subject: ex:dataset/$(id)
    predicateobjects:
      - [ex:title, $(name)]
`
	_, ds, report := runMapping(t, doc, map[string]string{
		"datasets.csv": "id,name\n7,Acme\n",
	})

	assert.Equal(t, 1, ds.Len())
	require.Len(t, report.SourceErrors, 1)
	assert.Contains(t, report.SkippedMaps, "broken")
	assert.NotContains(t, report.SkippedMaps, "dataset")
}

func TestExecute_MapWithoutSourcesSkipped(t *testing.T) {
	doc := `
prefixes:
  ex: "http://example.org/"
mappings:
  orphan:
    subject: ex:o/$(id)
    predicateobjects:
      - [ex:p, $(v)]
`
	_, ds, report := runMapping(t, doc, nil)

	assert.Equal(t, 0, ds.Len())
	assert.Equal(t, []string{"orphan"}, report.SkippedMaps)
}

func TestExecute_MissingColumnUsesSentinelSubject(t *testing.T) {
	_, ds, report := runMapping(t, datasetDoc, map[string]string{
		"datasets.csv": "name\nAcme\n",
	})

	require.Equal(t, 2, ds.Len())
	assert.Equal(t, rdf.IRI("http://example.org/dataset/unknown"), ds.Quads()[0].Subject)
	assert.Empty(t, report.RowErrors)
}

func TestExecute_BlankObjectYieldsNoStatement(t *testing.T) {
	_, ds, report := runMapping(t, datasetDoc, map[string]string{
		"datasets.csv": "id,name\n7,\n",
	})

	// Type triple survives; the title rule resolves to nothing.
	require.Equal(t, 1, ds.Len())
	assert.Equal(t, rdf.RDFType, ds.Quads()[0].Predicate)
	assert.True(t, report.Clean())
}

func TestExecute_GraphPrecedence(t *testing.T) {
	doc := `
prefixes:
  ex: "http://example.org/"
mappings:
  dataset:
    sources: ['datasets.csv~csv']
    subject: ex:dataset/$(id)
    graph: ex:graphs/base
    predicateobjects:
      - [a, ex:Dataset]
      - predicates: ex:title
        objects: $(name)
        graph: ex:graphs/titles
`
	_, ds, _ := runMapping(t, doc, map[string]string{
		"datasets.csv": "id,name\n7,Acme\n",
	})

	quads := ds.Quads()
	require.Len(t, quads, 2)
	assert.Equal(t, rdf.IRI("http://example.org/graphs/base"), quads[0].Graph)
	assert.Equal(t, rdf.IRI("http://example.org/graphs/titles"), quads[1].Graph)
}

func TestExecute_Determinism(t *testing.T) {
	files := map[string]string{
		"datasets.csv": "id,name\n7,Acme\n8,Globex\n",
		"quality.csv":  "id,confidence\n7,0.9\n8,0.4\n",
	}

	var outputs [][]byte
	for i := 0; i < 2; i++ {
		e, ds, _ := runMapping(t, annotatedDoc, files)
		var buf bytes.Buffer
		require.NoError(t, rdf.EncodeTriG(&buf, e.Prefixes(), ds))
		outputs = append(outputs, buf.Bytes())
	}
	assert.Equal(t, outputs[0], outputs[1])
}

func TestExecute_ProvenanceHeader(t *testing.T) {
	doc := `
authors:
  - Ada Smith <ada@example.org>
prefixes:
  ex: "http://example.org/"
mappings:
  dataset:
    sources: ['datasets.csv~csv']
    subject: ex:dataset/$(id)
    predicateobjects:
      - [ex:title, $(name)]
`
	clock := func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	e, ds, _ := runMapping(t, doc, map[string]string{
		"datasets.csv": "id,name\n7,Acme\n",
	}, WithProvenance("mapping.yaml"), WithClock(clock))

	quads := ds.Quads()
	require.GreaterOrEqual(t, len(quads), 6)

	subject := rdf.IRI("urn:starweave:dataset")
	assert.Equal(t, subject, quads[0].Subject)
	assert.Equal(t, rdf.IRI(nsDCAT+"Dataset"), quads[0].Object)
	assert.Equal(t, rdf.Literal{Value: "mapping.yaml"}, quads[1].Object)
	assert.Equal(t, rdf.Literal{
		Value:    "2026-01-02T03:04:05Z",
		Datatype: rdf.IRI(rdf.NSXSD + "dateTime"),
	}, quads[3].Object)
	assert.Equal(t, rdf.Literal{Value: "Ada Smith <ada@example.org>"}, quads[4].Object)

	prefixes := e.Prefixes()
	assert.Equal(t, nsDCAT, prefixes["dcat"])
	assert.Equal(t, nsDCT, prefixes["dct"])
}

func TestExecute_GoldenTriG(t *testing.T) {
	doc := `
authors:
  - Ada Smith <ada@example.org>
prefixes:
  ex: "http://example.org/"

mappings:
  dataset:
    sources: ['datasets.csv~csv']
    subject: ex:dataset/$(id)
    predicateobjects:
      - [a, ex:Dataset]
      - [ex:title, $(name)]
  quality:
    sources: ['quality.csv~csv']
    subject:
      - function: join(quoted=dataset, equal(str1=$(id), str2=$(id)))
      - namespace: ex:dataset/
    predicateobjects:
      - [ex:confidence, $(confidence), xsd:decimal]
`
	clock := func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	e, ds, report := runMapping(t, doc, map[string]string{
		"datasets.csv": "id,name\n7,Acme\n8,Globex\n",
		"quality.csv":  "id,confidence\n7,0.9\n",
	}, WithProvenance("mapping.yaml"), WithClock(clock))

	assert.Equal(t, 4, report.BaseTriples)
	assert.Equal(t, 2, report.Annotations)

	var buf bytes.Buffer
	require.NoError(t, rdf.EncodeTriG(&buf, e.Prefixes(), ds))

	g := goldie.New(t)
	g.Assert(t, "run_basic", buf.Bytes())
}
