package source

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// csvSource reads a delimited text file with a mandatory header row.
type csvSource struct {
	path      string
	delimiter rune
}

func (s *csvSource) Describe() string {
	return s.path
}

func (s *csvSource) Rows(ctx context.Context) ([]Row, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, &SourceUnavailableError{Access: s.path, Format: "csv", Err: err}
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = s.delimiter
	// Short records are padded to the header width below; records wider
	// than the header fail the load.
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, &SourceUnavailableError{Access: s.path, Format: "csv", Err: fmt.Errorf("missing header row")}
	}
	if err != nil {
		return nil, &SourceUnavailableError{Access: s.path, Format: "csv", Err: err}
	}

	var rows []Row
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &SourceUnavailableError{Access: s.path, Format: "csv", Err: err}
		}
		if len(record) > len(header) {
			return nil, &SourceUnavailableError{
				Access: s.path,
				Format: "csv",
				Err:    fmt.Errorf("row %d has %d fields, header has %d", len(rows)+1, len(record), len(header)),
			}
		}
		row := make(Row, len(header))
		for i, name := range header {
			if i < len(record) {
				row[name] = record[i]
			} else {
				row[name] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
