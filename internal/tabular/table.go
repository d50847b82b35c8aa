// Package tabular reads CSV, JSON and Parquet into a column-typed table and converts between
// them.
package tabular

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// Format names a tabular file format.
type Format string

// Supported formats.
const (
	FormatCSV     Format = "csv"
	FormatJSON    Format = "json"
	FormatParquet Format = "parquet"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatJSON, FormatParquet:
		return f, nil
	}
	return "", fmt.Errorf("unsupported format %q (want csv, json or parquet)", s)
}

// FormatFromPath guesses the format from a file extension.
func FormatFromPath(path string) (Format, bool) {
	f, err := ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
	return f, err == nil
}

// Kind is the inferred type of a column.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int64"
	case KindFloat:
		return "double"
	case KindString:
		return "string"
	}
	return "null"
}

// merge widens k to also hold o. Integers widen to floats; every other mix becomes string.
func (k Kind) merge(o Kind) Kind {
	switch {
	case k == o || o == KindNull:
		return k
	case k == KindNull:
		return o
	case (k == KindInt && o == KindFloat) || (k == KindFloat && o == KindInt):
		return KindFloat
	}
	return KindString
}

// Record is one row, keyed by column name. Null cells hold nil.
type Record map[string]any

// Table is a set of records with a fixed, typed column list.
type Table struct {
	Columns []string
	Kinds   map[string]Kind
	Rows    []Record
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// Kind returns the kind of column name.
func (t *Table) Kind(name string) Kind { return t.Kinds[name] }

// nullTokens are cell values read as null.
var nullTokens = map[string]bool{"": true, "na": true, "nan": true}

// IsNullToken reports whether a text cell stands for a missing value.
func IsNullToken(s string) bool {
	return nullTokens[strings.TrimSpace(s)]
}

// inferText returns the kind and typed value of a text cell.
func inferText(s string) (Kind, any) {
	if IsNullToken(s) {
		return KindNull, nil
	}
	t := strings.TrimSpace(s)
	switch strings.ToLower(t) {
	case "true":
		return KindBool, true
	case "false":
		return KindBool, false
	}
	if i, err := strconv.ParseInt(t, 10, 64); err == nil {
		return KindInt, i
	}
	if f, err := strconv.ParseFloat(t, 64); err == nil {
		return KindFloat, f
	}
	return KindString, s
}

// inferValue returns the kind of a decoded JSON value. Objects and arrays are kept as
// strings of their JSON encoding.
func inferValue(v any) (Kind, any) {
	switch x := v.(type) {
	case nil:
		return KindNull, nil
	case bool:
		return KindBool, x
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return KindInt, i
		}
		if f, err := x.Float64(); err == nil {
			return KindFloat, f
		}
		return KindString, x.String()
	case float64:
		return KindFloat, x
	case int64:
		return KindInt, x
	case int:
		return KindInt, int64(x)
	case string:
		return KindString, x
	}
	b, err := json.Marshal(v)
	if err != nil {
		return KindString, fmt.Sprint(v)
	}
	return KindString, string(b)
}

// coerce converts a typed cell to the column kind.
func coerce(k Kind, v any) any {
	if v == nil {
		return nil
	}
	switch k {
	case KindFloat:
		if i, ok := v.(int64); ok {
			return float64(i)
		}
	case KindString:
		switch x := v.(type) {
		case string:
			return x
		case int64:
			return strconv.FormatInt(x, 10)
		case float64:
			return strconv.FormatFloat(x, 'g', -1, 64)
		case bool:
			return strconv.FormatBool(x)
		}
		return fmt.Sprint(v)
	}
	return v
}
