package tabular

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
)

// ReadCSV reads a CSV file with a header row. Column kinds are inferred from every cell;
// "", "na" and "nan" are nulls. Cells of string columns keep their original text.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.New("empty CSV: no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	if err := checkHeader(header); err != nil {
		return nil, err
	}

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}

	t := &Table{Columns: header, Kinds: make(map[string]Kind, len(header))}
	typed := make([][]any, len(records))
	for i, rec := range records {
		typed[i] = make([]any, len(header))
		for j, cell := range rec {
			k, v := inferText(cell)
			t.Kinds[header[j]] = t.Kinds[header[j]].merge(k)
			typed[i][j] = v
		}
	}

	t.Rows = make([]Record, len(records))
	for i, rec := range records {
		row := make(Record, len(header))
		for j, col := range header {
			k := t.Kinds[col]
			switch {
			case typed[i][j] == nil:
				row[col] = nil
			case k == KindString:
				row[col] = rec[j]
			default:
				row[col] = coerce(k, typed[i][j])
			}
		}
		t.Rows[i] = row
	}
	return t, nil
}

func checkHeader(header []string) error {
	seen := make(map[string]bool, len(header))
	for _, h := range header {
		if h == "" {
			return errors.New("CSV header has an empty column name")
		}
		if seen[h] {
			return fmt.Errorf("CSV header repeats column %q", h)
		}
		seen[h] = true
	}
	return nil
}

// DecodeJSONRecords decodes a JSON array of objects, or a single object. Numbers are kept as
// json.Number so large integers survive.
func DecodeJSONRecords(r io.Reader) ([]map[string]any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("empty JSON input")
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if data[0] == '{' {
		var obj map[string]any
		if err := dec.Decode(&obj); err != nil {
			return nil, fmt.Errorf("decoding JSON object: %w", err)
		}
		return []map[string]any{obj}, nil
	}
	var objs []map[string]any
	if err := dec.Decode(&objs); err != nil {
		return nil, fmt.Errorf("decoding JSON array: %w", err)
	}
	return objs, nil
}

// ReadJSON reads a JSON array of objects. Columns are listed in order of first appearance,
// with the new keys of each record taken in sorted order; a key missing from a record is null.
// Nested objects and arrays become JSON text.
func ReadJSON(r io.Reader) (*Table, error) {
	objs, err := DecodeJSONRecords(r)
	if err != nil {
		return nil, err
	}
	return FromRecords(objs)
}

// FromRecords builds a table from decoded records, inferring column kinds.
func FromRecords(objs []map[string]any) (*Table, error) {
	t := &Table{Kinds: make(map[string]Kind)}
	typed := make([]Record, len(objs))
	for i, obj := range objs {
		if obj == nil {
			return nil, fmt.Errorf("record %d is null", i)
		}
		row := make(Record, len(obj))
		for _, key := range slices.Sorted(maps.Keys(obj)) {
			if _, ok := t.Kinds[key]; !ok {
				t.Columns = append(t.Columns, key)
				t.Kinds[key] = KindNull
			}
			k, v := inferValue(obj[key])
			t.Kinds[key] = t.Kinds[key].merge(k)
			row[key] = v
		}
		typed[i] = row
	}

	t.Rows = make([]Record, len(typed))
	for i, row := range typed {
		out := make(Record, len(t.Columns))
		for _, col := range t.Columns {
			out[col] = coerce(t.Kinds[col], row[col])
		}
		t.Rows[i] = out
	}
	return t, nil
}
