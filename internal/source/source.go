package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/starweave/starweave/internal/mapping"
)

// Row is one data row: column name to raw textual value. Values are
// kept raw; sanitization for IRI embedding happens in the template
// engine, never here, because join matching needs the raw values.
type Row map[string]string

// Source produces the rows of one tabular origin.
type Source interface {
	// Rows returns all rows in origin order.
	Rows(ctx context.Context) ([]Row, error)

	// Describe identifies the origin for logs and error messages.
	Describe() string
}

// SourceUnavailableError reports an origin that could not be opened or
// read. It is fatal only for the triples maps that reference the
// origin; the run continues for everything else.
type SourceUnavailableError struct {
	Access string
	Format string
	Err    error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("source unavailable: %s (%s): %v", e.Access, e.Format, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error {
	return e.Err
}

// IsUnavailable reports whether err is (or wraps) a source
// availability error.
func IsUnavailable(err error) bool {
	var se *SourceUnavailableError
	return errors.As(err, &se)
}

// New builds the connector for a source reference with an already
// resolved file path. Unknown formats are unavailable, not fatal: the
// referencing maps are skipped and reported.
func New(ref mapping.SourceRef, resolvedPath string) (Source, error) {
	switch ref.Format {
	case "csv", "tsv":
		delimiter := ref.Delimiter
		if delimiter == "" {
			delimiter = ","
		}
		if ref.Format == "tsv" {
			delimiter = "\t"
		}
		return &csvSource{path: resolvedPath, delimiter: rune(delimiter[0])}, nil
	case "json":
		return &jsonSource{path: resolvedPath, iterator: ref.Iterator}, nil
	case "sqlite":
		if ref.Query == "" {
			return nil, &SourceUnavailableError{
				Access: ref.Access,
				Format: ref.Format,
				Err:    errors.New("sqlite sources require a query"),
			}
		}
		return &sqliteSource{path: resolvedPath, query: ref.Query}, nil
	default:
		return nil, &SourceUnavailableError{
			Access: ref.Access,
			Format: ref.Format,
			Err:    fmt.Errorf("no connector for format %q", ref.Format),
		}
	}
}
