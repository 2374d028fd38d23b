package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
)

// jsonSource reads a JSON document holding an array of flat-ish
// objects, either at the top level or under an iterator key. Nested
// objects are flattened into underscore-joined column names so that
// templates can reference them like any other column.
type jsonSource struct {
	path     string
	iterator string
}

func (s *jsonSource) Describe() string {
	return s.path
}

func (s *jsonSource) Rows(ctx context.Context) ([]Row, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, &SourceUnavailableError{Access: s.path, Format: "json", Err: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, &SourceUnavailableError{Access: s.path, Format: "json", Err: err}
	}

	if s.iterator != "" {
		obj, ok := doc.(map[string]any)
		if !ok {
			return nil, &SourceUnavailableError{
				Access: s.path,
				Format: "json",
				Err:    fmt.Errorf("iterator %q requires a top-level object", s.iterator),
			}
		}
		doc, ok = obj[s.iterator]
		if !ok {
			return nil, &SourceUnavailableError{
				Access: s.path,
				Format: "json",
				Err:    fmt.Errorf("iterator key %q not found", s.iterator),
			}
		}
	}

	items, ok := doc.([]any)
	if !ok {
		return nil, &SourceUnavailableError{
			Access: s.path,
			Format: "json",
			Err:    fmt.Errorf("expected an array of objects, got %T", doc),
		}
	}

	rows := make([]Row, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, &SourceUnavailableError{
				Access: s.path,
				Format: "json",
				Err:    fmt.Errorf("element %d is not an object", i),
			}
		}
		row := make(Row)
		flattenInto(row, "", obj)
		rows = append(rows, row)
	}
	return rows, nil
}

// flattenInto writes obj's scalar fields into row, joining nested
// object keys with underscores. Arrays inside a row have no column
// semantics and are dropped.
func flattenInto(row Row, prefix string, obj map[string]any) {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		name := k
		if prefix != "" {
			name = prefix + "_" + k
		}
		switch v := obj[k].(type) {
		case map[string]any:
			flattenInto(row, name, v)
		case []any:
			// no tabular meaning
		case nil:
			row[name] = ""
		case string:
			row[name] = v
		case json.Number:
			row[name] = v.String()
		case bool:
			row[name] = strconv.FormatBool(v)
		default:
			row[name] = fmt.Sprint(v)
		}
	}
}
