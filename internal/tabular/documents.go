package tabular

import (
	"fmt"
	"io"
	"os"
)

// IsStdin reports whether path means "read standard input".
func IsStdin(path string) bool {
	return path == "" || path == "-"
}

// LoadDocuments reads search documents from path, or from stdin when path is "" or "-".
// JSON documents are passed through as decoded; CSV and Parquet rows become one document each,
// with nulls kept as JSON null.
func LoadDocuments(path string, format Format, stdin io.Reader) ([]map[string]any, error) {
	var r io.Reader = stdin
	if !IsStdin(path) {
		f, err := os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("%w: %s", ErrInputNotFound, path)
			}
			return nil, err
		}
		defer f.Close()
		r = f
	}

	if format == FormatJSON {
		return DecodeJSONRecords(r)
	}
	t, err := ReadTable(r, format)
	if err != nil {
		return nil, err
	}
	return t.Documents(), nil
}

// Documents returns the rows of t as plain maps.
func (t *Table) Documents() []map[string]any {
	docs := make([]map[string]any, len(t.Rows))
	for i, r := range t.Rows {
		docs[i] = map[string]any(r)
	}
	return docs
}
