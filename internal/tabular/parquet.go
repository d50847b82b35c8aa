package tabular

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/parquet-go/parquet-go"
)

// SchemaName is the root name of written Parquet schemas.
const SchemaName = "record"

// readBatch is the number of rows read from a row group at a time.
const readBatch = 256

// ErrInputNotFound is returned when a conversion input path does not exist.
var ErrInputNotFound = errors.New("input file not found")

func leafNode(k Kind) parquet.Node {
	switch k {
	case KindBool:
		return parquet.Leaf(parquet.BooleanType)
	case KindInt:
		return parquet.Int(64)
	case KindFloat:
		return parquet.Leaf(parquet.DoubleType)
	}
	return parquet.String()
}

// Schema returns the Parquet schema of t: one optional leaf column per table column. Parquet
// groups order their fields by name.
func (t *Table) Schema() *parquet.Schema {
	group := make(parquet.Group, len(t.Columns))
	for _, col := range t.Columns {
		group[col] = parquet.Optional(leafNode(t.Kinds[col]))
	}
	return parquet.NewSchema(SchemaName, group)
}

func parquetValue(k Kind, v any) parquet.Value {
	if v == nil {
		return parquet.NullValue()
	}
	switch k {
	case KindBool:
		return parquet.BooleanValue(v.(bool))
	case KindInt:
		return parquet.Int64Value(v.(int64))
	case KindFloat:
		return parquet.DoubleValue(v.(float64))
	}
	return parquet.ByteArrayValue([]byte(coerce(KindString, v).(string)))
}

// WriteParquet writes t to w as a single Parquet file.
func WriteParquet(w io.Writer, t *Table) error {
	if len(t.Columns) == 0 {
		return errors.New("table has no columns")
	}
	schema := t.Schema()
	names := columnNames(schema)

	pw := parquet.NewWriter(w, schema)
	rows := make([]parquet.Row, 0, len(t.Rows))
	for _, rec := range t.Rows {
		row := make(parquet.Row, len(names))
		for i, col := range names {
			v := rec[col]
			def := 1
			if v == nil {
				def = 0
			}
			row[i] = parquetValue(t.Kinds[col], v).Level(0, def, i)
		}
		rows = append(rows, row)
	}
	if _, err := pw.WriteRows(rows); err != nil {
		return fmt.Errorf("writing parquet rows: %w", err)
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("closing parquet writer: %w", err)
	}
	return nil
}

func columnNames(schema *parquet.Schema) []string {
	paths := schema.Columns()
	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = strings.Join(p, ".")
	}
	return names
}

// ReadParquet reads every row of a Parquet file. Columns are flattened to dotted leaf paths;
// a column repeated within a row becomes a list.
func ReadParquet(r io.ReaderAt, size int64) (*Table, error) {
	f, err := parquet.OpenFile(r, size)
	if err != nil {
		return nil, fmt.Errorf("opening parquet: %w", err)
	}
	names := columnNames(f.Schema())
	t := &Table{Columns: names, Kinds: make(map[string]Kind, len(names))}
	for _, n := range names {
		t.Kinds[n] = KindNull
	}

	buf := make([]parquet.Row, readBatch)
	for _, rg := range f.RowGroups() {
		rows := rg.Rows()
		for {
			n, err := rows.ReadRows(buf)
			for _, row := range buf[:n] {
				t.Rows = append(t.Rows, t.decodeRow(names, row))
			}
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				rows.Close()
				return nil, fmt.Errorf("reading parquet rows: %w", err)
			}
		}
		if err := rows.Close(); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *Table) decodeRow(names []string, row parquet.Row) Record {
	rec := make(Record, len(names))
	for _, n := range names {
		rec[n] = nil
	}
	seen := make(map[string]bool, len(names))
	for _, v := range row {
		col := v.Column()
		if col < 0 || col >= len(names) {
			continue
		}
		name := names[col]
		k, val := fromParquet(v)
		t.Kinds[name] = t.Kinds[name].merge(k)
		if val == nil {
			continue
		}
		if seen[name] {
			if list, ok := rec[name].([]any); ok {
				rec[name] = append(list, val)
			} else {
				rec[name] = []any{rec[name], val}
			}
			continue
		}
		seen[name] = true
		rec[name] = val
	}
	return rec
}

func fromParquet(v parquet.Value) (Kind, any) {
	if v.IsNull() {
		return KindNull, nil
	}
	switch v.Kind() {
	case parquet.Boolean:
		return KindBool, v.Boolean()
	case parquet.Int32:
		return KindInt, int64(v.Int32())
	case parquet.Int64:
		return KindInt, v.Int64()
	case parquet.Float:
		return KindFloat, float64(v.Float())
	case parquet.Double:
		return KindFloat, v.Double()
	}
	return KindString, string(v.ByteArray())
}

// ReadParquetFrom reads a whole Parquet stream into memory and decodes it.
func ReadParquetFrom(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return ReadParquet(bytes.NewReader(data), int64(len(data)))
}

// ReadTable reads a CSV or JSON stream in the given format.
func ReadTable(r io.Reader, format Format) (*Table, error) {
	switch format {
	case FormatCSV:
		return ReadCSV(r)
	case FormatJSON:
		return ReadJSON(r)
	case FormatParquet:
		return ReadParquetFrom(r)
	}
	return nil, fmt.Errorf("unsupported format %q", format)
}

// DefaultParquetPath returns input with its extension replaced by ".parquet".
func DefaultParquetPath(input string) string {
	ext := ""
	if i := strings.LastIndexByte(input, '.'); i > strings.LastIndexAny(input, `/\`) {
		ext = input[i:]
	}
	return strings.TrimSuffix(input, ext) + ".parquet"
}

// ToParquet converts a CSV or JSON file to Parquet. The input is checked before anything is
// written, and a partially written output is removed on failure.
func ToParquet(input, output string, format Format) (*Table, error) {
	if _, err := os.Stat(input); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrInputNotFound, input)
		}
		return nil, fmt.Errorf("%s: %w", input, err)
	}
	if format == FormatParquet {
		return nil, errors.New("input is already parquet")
	}

	in, err := os.Open(input)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	t, err := ReadTable(in, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", input, err)
	}

	out, err := os.Create(output)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", output, err)
	}
	if err := WriteParquet(out, t); err != nil {
		out.Close()
		os.Remove(output)
		return nil, err
	}
	if err := out.Close(); err != nil {
		os.Remove(output)
		return nil, err
	}
	return t, nil
}
