package store

import (
	"context"
	"fmt"
	"time"

	"github.com/starweave/starweave/internal/rdf"
)

// BatchMeta describes one persisted generation run.
type BatchMeta struct {
	ID          int64
	Mapping     string
	CreatedAt   time.Time
	Rows        int
	BaseTriples int
	Annotations int
}

// SaveBatch persists a run atomically and returns the batch id. The
// dataset's insertion order becomes the statement ordinal; the engine's
// quoting depth (base triples inside annotation links) is the supported
// maximum.
func (s *Store) SaveBatch(ctx context.Context, meta BatchMeta, d *rdf.Dataset) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin batch: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO batches (mapping, created_at, rows, base_triples, annotations)
		 VALUES (?, ?, ?, ?, ?)`,
		meta.Mapping, meta.CreatedAt.UTC().Format(time.RFC3339),
		meta.Rows, meta.BaseTriples, meta.Annotations,
	)
	if err != nil {
		return 0, fmt.Errorf("insert batch: %w", err)
	}
	batchID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("batch id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO statements (
			batch_id, ordinal,
			subject_kind, subject, predicate,
			object_kind, object_value, object_datatype, object_language,
			graph,
			quoted_subject, quoted_predicate,
			quoted_object_kind, quoted_object_value, quoted_object_datatype, quoted_object_language
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare statements: %w", err)
	}
	defer stmt.Close()

	for ordinal, q := range d.Quads() {
		subject, err := encodeNode(q.Subject)
		if err != nil {
			return 0, fmt.Errorf("statement %d: %w", ordinal, err)
		}
		predicate, ok := q.Predicate.(rdf.IRI)
		if !ok {
			return 0, fmt.Errorf("statement %d: predicate %s is not an IRI", ordinal, q.Predicate)
		}

		object := valueRecord{}
		quotedSubject, quotedPredicate := "", ""
		quotedObject := valueRecord{}
		switch o := q.Object.(type) {
		case *rdf.Triple:
			object.Kind = kindQuoted
			qs, ok := o.Subject.(rdf.IRI)
			if !ok {
				return 0, fmt.Errorf("statement %d: quoted subject %s is not an IRI", ordinal, o.Subject)
			}
			qp, ok := o.Predicate.(rdf.IRI)
			if !ok {
				return 0, fmt.Errorf("statement %d: quoted predicate %s is not an IRI", ordinal, o.Predicate)
			}
			quotedSubject, quotedPredicate = string(qs), string(qp)
			quotedObject, err = encodeValue(o.Object)
			if err != nil {
				return 0, fmt.Errorf("statement %d: quoted object: %w", ordinal, err)
			}
		default:
			object, err = encodeValue(q.Object)
			if err != nil {
				return 0, fmt.Errorf("statement %d: %w", ordinal, err)
			}
		}

		_, err = stmt.ExecContext(ctx,
			batchID, ordinal,
			subject.Kind, subject.Value, string(predicate),
			object.Kind, object.Value, object.Datatype, object.Language,
			string(q.Graph),
			quotedSubject, quotedPredicate,
			quotedObject.Kind, quotedObject.Value, quotedObject.Datatype, quotedObject.Language,
		)
		if err != nil {
			return 0, fmt.Errorf("insert statement %d: %w", ordinal, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit batch: %w", err)
	}
	return batchID, nil
}

// ReadBatch restores a persisted dataset in its original order.
func (s *Store) ReadBatch(ctx context.Context, batchID int64) (*rdf.Dataset, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT subject_kind, subject, predicate,
			object_kind, object_value, object_datatype, object_language,
			graph,
			quoted_subject, quoted_predicate,
			quoted_object_kind, quoted_object_value, quoted_object_datatype, quoted_object_language
		 FROM statements WHERE batch_id = ? ORDER BY ordinal`, batchID)
	if err != nil {
		return nil, fmt.Errorf("read batch %d: %w", batchID, err)
	}
	defer rows.Close()

	d := rdf.NewDataset()
	for rows.Next() {
		var subject nodeRecord
		var predicate, graph string
		var object valueRecord
		var quotedSubject, quotedPredicate string
		var quotedObject valueRecord
		err := rows.Scan(
			&subject.Kind, &subject.Value, &predicate,
			&object.Kind, &object.Value, &object.Datatype, &object.Language,
			&graph,
			&quotedSubject, &quotedPredicate,
			&quotedObject.Kind, &quotedObject.Value, &quotedObject.Datatype, &quotedObject.Language,
		)
		if err != nil {
			return nil, fmt.Errorf("scan batch %d: %w", batchID, err)
		}

		subjectTerm, err := decodeNode(subject)
		if err != nil {
			return nil, fmt.Errorf("batch %d: %w", batchID, err)
		}

		var objectTerm rdf.Term
		if object.Kind == kindQuoted {
			inner, err := decodeValue(quotedObject)
			if err != nil {
				return nil, fmt.Errorf("batch %d: quoted object: %w", batchID, err)
			}
			objectTerm = &rdf.Triple{
				Subject:   rdf.IRI(quotedSubject),
				Predicate: rdf.IRI(quotedPredicate),
				Object:    inner,
			}
		} else {
			objectTerm, err = decodeValue(object)
			if err != nil {
				return nil, fmt.Errorf("batch %d: %w", batchID, err)
			}
		}

		d.Add(rdf.NewQuadInGraph(subjectTerm, rdf.IRI(predicate), objectTerm, rdf.IRI(graph)))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read batch %d: %w", batchID, err)
	}
	return d, nil
}

// ListBatches returns all batches, newest first.
func (s *Store) ListBatches(ctx context.Context) ([]BatchMeta, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, mapping, created_at, rows, base_triples, annotations
		 FROM batches ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	defer rows.Close()

	var batches []BatchMeta
	for rows.Next() {
		var meta BatchMeta
		var createdAt string
		if err := rows.Scan(&meta.ID, &meta.Mapping, &createdAt, &meta.Rows, &meta.BaseTriples, &meta.Annotations); err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		meta.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("batch %d: created_at: %w", meta.ID, err)
		}
		batches = append(batches, meta)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	return batches, nil
}
