// Package content reads the markdown wiki and writes content collections.
package content

import (
	"bytes"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Metadata is the YAML frontmatter of a document.
type Metadata map[string]any

// Document is a markdown file split into frontmatter and body.
type Document struct {
	Path     string
	Metadata Metadata
	Body     string
}

// Parse reads a markdown document. A leading "---" line opens a YAML frontmatter block that
// ends at the next "---" line; everything after it is the body. Without the opening line, or
// without a closing one (a page that starts with a horizontal rule), the whole input is the
// body. Only a frontmatter block that is not valid YAML is an error.
func Parse(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	doc := &Document{Metadata: make(Metadata)}

	var rest []byte
	switch {
	case bytes.HasPrefix(data, []byte("---\n")):
		rest = data[4:]
	case bytes.HasPrefix(data, []byte("---\r\n")):
		rest = data[5:]
	default:
		doc.Body = string(data)
		return doc, nil
	}

	fm, body, ok := splitFence(rest)
	if !ok {
		doc.Body = string(data)
		return doc, nil
	}
	if err := yaml.Unmarshal(fm, &doc.Metadata); err != nil {
		return nil, fmt.Errorf("parsing frontmatter: %w", err)
	}
	if doc.Metadata == nil {
		doc.Metadata = make(Metadata)
	}
	doc.Body = string(body)
	return doc, nil
}

// splitFence finds the first line that is exactly "---" and returns what precedes and follows it.
func splitFence(data []byte) (before, after []byte, ok bool) {
	offset := 0
	for offset <= len(data) {
		end := bytes.IndexByte(data[offset:], '\n')
		var line []byte
		next := len(data) + 1
		if end < 0 {
			line = data[offset:]
		} else {
			line = data[offset : offset+end]
			next = offset + end + 1
		}
		if string(bytes.TrimRight(line, "\r")) == "---" {
			if next > len(data) {
				return data[:offset], nil, true
			}
			return data[:offset], data[next:], true
		}
		offset = next
	}
	return nil, nil, false
}
