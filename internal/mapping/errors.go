package mapping

import (
	"errors"
	"fmt"
)

// MalformedSpecificationError reports a mapping document that cannot be
// parsed. Section identifies the offending part of the document
// ("prefixes", "sources", "targets", or "mappings.<name>").
type MalformedSpecificationError struct {
	Section string
	Detail  string
	Err     error // optional underlying cause
}

func (e *MalformedSpecificationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed mapping specification: %s: %s: %v", e.Section, e.Detail, e.Err)
	}
	return fmt.Sprintf("malformed mapping specification: %s: %s", e.Section, e.Detail)
}

func (e *MalformedSpecificationError) Unwrap() error {
	return e.Err
}

// UnsupportedConstructError reports a construct the mapping language
// recognizes syntactically but has no generation semantics for.
// Unsupported constructs are fatal: silently dropping them would
// corrupt output.
type UnsupportedConstructError struct {
	Section   string
	Construct string
}

func (e *UnsupportedConstructError) Error() string {
	return fmt.Sprintf("unsupported mapping construct in %s: %s", e.Section, e.Construct)
}

// IsMalformed reports whether err is (or wraps) a malformed
// specification error.
func IsMalformed(err error) bool {
	var me *MalformedSpecificationError
	return errors.As(err, &me)
}

// IsUnsupported reports whether err is (or wraps) an unsupported
// construct error.
func IsUnsupported(err error) bool {
	var ue *UnsupportedConstructError
	return errors.As(err, &ue)
}
