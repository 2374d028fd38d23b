package source

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// sqliteSource runs one query against a SQLite database file and
// exposes the result set as rows. The database is opened read-only;
// generation never writes back to its inputs.
type sqliteSource struct {
	path  string
	query string
}

func (s *sqliteSource) Describe() string {
	return fmt.Sprintf("%s [%s]", s.path, s.query)
}

func (s *sqliteSource) Rows(ctx context.Context) ([]Row, error) {
	// The sqlite driver happily creates a missing file; checking first
	// turns that into a proper unavailability error.
	if _, err := os.Stat(s.path); err != nil {
		return nil, &SourceUnavailableError{Access: s.path, Format: "sqlite", Err: err}
	}

	db, err := sql.Open("sqlite3", "file:"+s.path+"?mode=ro")
	if err != nil {
		return nil, &SourceUnavailableError{Access: s.path, Format: "sqlite", Err: err}
	}
	defer db.Close()

	result, err := db.QueryContext(ctx, s.query)
	if err != nil {
		return nil, &SourceUnavailableError{Access: s.path, Format: "sqlite", Err: err}
	}
	defer result.Close()

	columns, err := result.Columns()
	if err != nil {
		return nil, &SourceUnavailableError{Access: s.path, Format: "sqlite", Err: err}
	}

	var rows []Row
	for result.Next() {
		values := make([]any, len(columns))
		scan := make([]any, len(columns))
		for i := range values {
			scan[i] = &values[i]
		}
		if err := result.Scan(scan...); err != nil {
			return nil, &SourceUnavailableError{Access: s.path, Format: "sqlite", Err: err}
		}
		row := make(Row, len(columns))
		for i, name := range columns {
			row[name] = formatSQLValue(values[i])
		}
		rows = append(rows, row)
	}
	if err := result.Err(); err != nil {
		return nil, &SourceUnavailableError{Access: s.path, Format: "sqlite", Err: err}
	}
	return rows, nil
}

func formatSQLValue(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(v)
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return fmt.Sprint(v)
	}
}
