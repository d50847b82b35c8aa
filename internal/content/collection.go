package content

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Collection defaults.
const (
	DefaultCollectionName = "new-collection"
	DefaultIDColumn       = "id"
	DefaultCollectionDir  = "content/collection"
)

// ErrMissingIDColumn is returned when the CSV header lacks the id column.
var ErrMissingIDColumn = errors.New("id column not found in CSV header")

// CollectionOptions controls CreateFromCSV.
type CollectionOptions struct {
	Name      string // collection name, a subdirectory of OutputDir
	IDColumn  string // column whose value names each file
	OutputDir string
}

func (o CollectionOptions) withDefaults() CollectionOptions {
	if o.Name == "" {
		o.Name = DefaultCollectionName
	}
	if o.IDColumn == "" {
		o.IDColumn = DefaultIDColumn
	}
	if o.OutputDir == "" {
		o.OutputDir = DefaultCollectionDir
	}
	return o
}

// Dir returns the directory the collection is written to.
func (o CollectionOptions) Dir() string {
	o = o.withDefaults()
	return filepath.Join(o.OutputDir, o.Name)
}

// CreateFromCSV writes one JSON document per CSV row into the collection directory, named
// "<id>.json" after the row's id column. Keys keep the CSV column order. It returns the
// paths written.
func CreateFromCSV(r io.Reader, opts CollectionOptions) ([]string, error) {
	opts = opts.withDefaults()

	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.New("empty CSV: no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	idIdx := slices.Index(header, opts.IDColumn)
	if idIdx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrMissingIDColumn, opts.IDColumn)
	}

	dir := opts.Dir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", dir, err)
	}

	var written []string
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return written, fmt.Errorf("reading CSV: %w", err)
		}
		id := strings.TrimSpace(record[idIdx])
		if id == "" {
			return written, fmt.Errorf("line %d: empty %s", line, opts.IDColumn)
		}
		doc, err := rowJSON(header, record)
		if err != nil {
			return written, fmt.Errorf("line %d: %w", line, err)
		}
		path := filepath.Join(dir, FileName(id)+".json")
		if err := os.WriteFile(path, doc, 0o644); err != nil {
			return written, fmt.Errorf("writing %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}

// FileName makes an identifier safe to use as a file name.
func FileName(id string) string {
	r := strings.NewReplacer("/", "-", "\\", "-")
	return r.Replace(id)
}

// rowJSON encodes a CSV row as a JSON object with keys in header order.
func rowJSON(header, record []string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range header {
		if i > 0 {
			buf.WriteString(", ")
		}
		k, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(record[i])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteString(": ")
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
