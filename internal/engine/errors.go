package engine

import (
	"errors"
	"fmt"
)

// RowEvaluationError records one row that could not be fully evaluated.
// The row contributes zero statements; the run continues.
type RowEvaluationError struct {
	Map    string
	RowNum int // 1-based position within the source
	Err    error
}

func (e *RowEvaluationError) Error() string {
	return fmt.Sprintf("map %q: row %d skipped: %v", e.Map, e.RowNum, e.Err)
}

func (e *RowEvaluationError) Unwrap() error {
	return e.Err
}

// JoinConditionInvalidError records an annotation map whose join could
// not be used. The whole map is skipped; no partial annotations.
type JoinConditionInvalidError struct {
	Map    string
	Detail string
}

func (e *JoinConditionInvalidError) Error() string {
	return fmt.Sprintf("map %q: join condition invalid: %s", e.Map, e.Detail)
}

// IsRowError reports whether err is (or wraps) a row evaluation error.
func IsRowError(err error) bool {
	var re *RowEvaluationError
	return errors.As(err, &re)
}

// IsJoinInvalid reports whether err is (or wraps) a join condition
// error.
func IsJoinInvalid(err error) bool {
	var je *JoinConditionInvalidError
	return errors.As(err, &je)
}
