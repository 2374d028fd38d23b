package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/starweave/starweave/internal/mapping"
	"github.com/starweave/starweave/internal/rdf"
	"github.com/starweave/starweave/internal/source"
)

// Executor runs the two-pass generation over one parsed specification.
// It owns every piece of mutable run state; two executors never share
// anything.
type Executor struct {
	spec       *mapping.Spec
	logger     *slog.Logger
	blanks     BlankNodeGenerator
	now        func() time.Time
	baseDir    string
	dataDirs   []string
	provenance bool
	docName    string
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the run logger. Defaults to a discarding logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) { e.logger = l }
}

// WithBlankNodeGenerator sets the reifier label source. Defaults to
// UUIDv7.
func WithBlankNodeGenerator(g BlankNodeGenerator) Option {
	return func(e *Executor) { e.blanks = g }
}

// WithClock sets the time source for provenance metadata. Defaults to
// time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) { e.now = now }
}

// WithBaseDir sets the directory relative source paths resolve against,
// normally the mapping document's directory.
func WithBaseDir(dir string) Option {
	return func(e *Executor) { e.baseDir = dir }
}

// WithDataDirs adds fallback directories for relative source paths.
func WithDataDirs(dirs ...string) Option {
	return func(e *Executor) { e.dataDirs = append(e.dataDirs, dirs...) }
}

// WithProvenance enables the dataset-level metadata header. docName
// identifies the mapping document in the generated description.
func WithProvenance(docName string) Option {
	return func(e *Executor) {
		e.provenance = true
		e.docName = docName
	}
}

// New builds an executor for spec.
func New(spec *mapping.Spec, opts ...Option) *Executor {
	e := &Executor{
		spec:   spec,
		logger: slog.New(slog.DiscardHandler),
		blanks: UUIDv7Generator{},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs both passes and returns the generated dataset with the
// run report. Recoverable failures are in the report; the returned
// error is reserved for context cancellation.
func (e *Executor) Execute(ctx context.Context) (*rdf.Dataset, *Report, error) {
	out := rdf.NewDataset()
	report := &Report{}
	cache := newTripleCache()
	sources := source.NewCache(e.baseDir, e.dataDirs, e.logger)
	tmpl := newTemplateEngine(e.spec)

	if e.provenance {
		e.emitProvenance(out)
	}

	// Pass 1: material maps, declaration order.
	for i := range e.spec.Maps {
		m := &e.spec.Maps[i]
		if m.Quoted() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		e.runMaterial(ctx, m, tmpl, sources, cache, out, report)
	}

	// Pass 2: quoted maps, declaration order, against the full cache.
	for i := range e.spec.Maps {
		m := &e.spec.Maps[i]
		if !m.Quoted() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		e.runQuoted(ctx, m, tmpl, sources, cache, out, report)
	}

	e.logger.Info("run complete",
		"rows", report.RowsProcessed,
		"base_triples", report.BaseTriples,
		"annotations", report.Annotations,
		"cache_entries", cache.len(),
	)
	return out, report, nil
}

// graphFor applies the graph precedence: rule > subject > map.
func (e *Executor) graphFor(m *mapping.TriplesMap, ruleGraph string) rdf.IRI {
	switch {
	case ruleGraph != "":
		return rdf.IRI(e.spec.ExpandIRI(ruleGraph))
	case m.Subject.Graph != "":
		return rdf.IRI(e.spec.ExpandIRI(m.Subject.Graph))
	case m.Graph != "":
		return rdf.IRI(e.spec.ExpandIRI(m.Graph))
	default:
		return ""
	}
}

func (e *Executor) runMaterial(ctx context.Context, m *mapping.TriplesMap, tmpl *templateEngine, sources *source.Cache, cache *tripleCache, out *rdf.Dataset, report *Report) {
	if len(m.Sources) == 0 {
		e.logger.Warn("map has no sources, skipping", "map", m.Name)
		report.SkippedMaps = append(report.SkippedMaps, m.Name)
		return
	}
	for _, ref := range m.Sources {
		rows, err := sources.Load(ctx, ref)
		if err != nil {
			e.recordSourceFailure(m.Name, err, report)
			continue
		}
		report.SourcesLoaded++
		for i, row := range rows {
			report.RowsProcessed++
			if err := e.emitRow(m, tmpl, row, cache, out, report); err != nil {
				rowErr := &RowEvaluationError{Map: m.Name, RowNum: i + 1, Err: err}
				e.logger.Warn("row skipped", "map", m.Name, "row", i+1, "err", err)
				report.RowErrors = append(report.RowErrors, rowErr)
			}
		}
	}
}

// emitRow materializes one row of a material map: type triples first,
// then one triple per predicate-object rule with a non-empty object.
// All statements for the row are staged and appended together, so a
// failing row contributes nothing.
func (e *Executor) emitRow(m *mapping.TriplesMap, tmpl *templateEngine, row source.Row, cache *tripleCache, out *rdf.Dataset, report *Report) error {
	staged := make([]rdf.Quad, 0, len(m.Types)+len(m.PredicateObjects))

	for _, subjectTmpl := range m.Subject.Templates {
		subject := tmpl.iri(subjectTmpl, row)
		if subject == "" {
			return fmt.Errorf("subject template %q resolved to an empty IRI", subjectTmpl)
		}
		for _, typ := range m.Types {
			object := rdf.IRI(e.spec.ExpandIRI(typ))
			staged = append(staged, rdf.NewQuadInGraph(subject, rdf.RDFType, object, e.graphFor(m, "")))
		}
		for _, rule := range m.PredicateObjects {
			object, ok := tmpl.object(rule, row)
			if !ok {
				continue
			}
			predicate := tmpl.predicate(rule.Predicate, row)
			staged = append(staged, rdf.NewQuadInGraph(subject, predicate, object, e.graphFor(m, rule.Graph)))
		}
	}

	for _, q := range staged {
		out.Add(q)
		cache.add(m.Name, row, &rdf.Triple{Subject: q.Subject, Predicate: q.Predicate, Object: q.Object})
		report.BaseTriples++
	}
	return nil
}

func (e *Executor) runQuoted(ctx context.Context, m *mapping.TriplesMap, tmpl *templateEngine, sources *source.Cache, cache *tripleCache, out *rdf.Dataset, report *Report) {
	quoted := m.Subject.Quoted
	if !quoted.Join.Valid() {
		joinErr := &JoinConditionInvalidError{Map: m.Name, Detail: fmt.Sprintf("could not parse %q", quoted.RawFunction)}
		e.logger.Warn("annotation map skipped", "map", m.Name, "err", joinErr)
		report.JoinErrors = append(report.JoinErrors, joinErr)
		report.SkippedMaps = append(report.SkippedMaps, m.Name)
		return
	}
	if len(m.Sources) == 0 {
		e.logger.Warn("map has no sources, skipping", "map", m.Name)
		report.SkippedMaps = append(report.SkippedMaps, m.Name)
		return
	}

	filter := ""
	if quoted.NamespaceFilter != "" {
		filter = e.spec.ExpandIRI(quoted.NamespaceFilter)
	}
	index := buildJoinIndex(cache, quoted.Join.LeftKey, filter)

	for _, ref := range m.Sources {
		rows, err := sources.Load(ctx, ref)
		if err != nil {
			e.recordSourceFailure(m.Name, err, report)
			continue
		}
		report.SourcesLoaded++
		for _, row := range rows {
			report.RowsProcessed++
			value := row[quoted.Join.RightKey]
			if value == "" {
				continue
			}
			for _, entry := range index[value] {
				e.emitAnnotation(m, tmpl, row, entry, out)
				report.Annotations++
			}
		}
	}
}

// emitAnnotation links one fresh reifier to a cached base triple and
// attaches the annotation map's predicate-object pairs, instantiated
// against the annotation row. Matches are never deduplicated; competing
// annotations on the same base triple are intentional.
func (e *Executor) emitAnnotation(m *mapping.TriplesMap, tmpl *templateEngine, row source.Row, entry cacheEntry, out *rdf.Dataset) {
	reifier := rdf.BlankNode(e.blanks.NewLabel())
	graph := e.graphFor(m, "")
	out.Add(rdf.NewQuadInGraph(reifier, rdf.RDFReifies, entry.triple, graph))
	for _, rule := range m.PredicateObjects {
		object, ok := tmpl.object(rule, row)
		if !ok {
			continue
		}
		predicate := tmpl.predicate(rule.Predicate, row)
		out.Add(rdf.NewQuadInGraph(reifier, predicate, object, e.graphFor(m, rule.Graph)))
	}
}

func (e *Executor) recordSourceFailure(mapName string, err error, report *Report) {
	var se *source.SourceUnavailableError
	if errors.As(err, &se) {
		e.logger.Warn("source unavailable", "map", mapName, "err", se)
		report.SourceErrors = append(report.SourceErrors, se)
	} else {
		e.logger.Warn("source failed", "map", mapName, "err", err)
		report.SourceErrors = append(report.SourceErrors, &source.SourceUnavailableError{Err: err})
	}
	report.SkippedMaps = append(report.SkippedMaps, mapName)
}
