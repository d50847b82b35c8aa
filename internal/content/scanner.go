package content

import (
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
)

// MarkdownPattern selects the documents the scanner reads.
const MarkdownPattern = "**/*.md"

// refPattern matches :ref{dois="..."} and :ref{dois='...'} markers.
var refPattern = regexp.MustCompile(`:ref\{dois=["'](.*?)["']\}`)

// ExtractDOIs returns the DOIs referenced in body, in order of appearance. Each marker may
// list several comma-separated DOIs; they are lowercased and trimmed, and empty entries dropped.
func ExtractDOIs(body string) []string {
	var dois []string
	for _, m := range refPattern.FindAllStringSubmatch(body, -1) {
		for _, candidate := range strings.Split(m[1], ",") {
			d := strings.ToLower(strings.TrimSpace(candidate))
			if d == "" {
				continue
			}
			dois = append(dois, d)
		}
	}
	return dois
}

// Scanner walks a content directory for DOI references.
type Scanner struct {
	root   string
	logger *log.Logger
}

// NewScanner creates a scanner rooted at root. A nil logger discards output.
func NewScanner(root string, logger *log.Logger) *Scanner {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Scanner{root: root, logger: logger}
}

// Files returns the markdown files under the root as slash-separated relative paths, sorted.
func (s *Scanner) Files() ([]string, error) {
	info, err := os.Stat(s.root)
	if err != nil {
		return nil, fmt.Errorf("content directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("content directory %s is not a directory", s.root)
	}
	files, err := doublestar.Glob(os.DirFS(s.root), MarkdownPattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("globbing %s: %w", s.root, err)
	}
	slices.Sort(files)
	return files, nil
}

// DOIs yields every referenced DOI, file by file and in match order within a file. Duplicates
// are not removed. The sequence ends after the first error.
func (s *Scanner) DOIs() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		files, err := s.Files()
		if err != nil {
			yield("", err)
			return
		}
		s.logger.Debug("scanning content", "root", s.root, "files", len(files))

		for _, rel := range files {
			path := filepath.Join(s.root, filepath.FromSlash(rel))
			doc, err := s.read(path)
			if err != nil {
				yield("", err)
				return
			}
			dois := ExtractDOIs(doc.Body)
			if len(dois) > 0 {
				s.logger.Debug("references found", "file", rel, "dois", len(dois))
			}
			for _, d := range dois {
				if !yield(d, nil) {
					return
				}
			}
		}
	}
}

func (s *Scanner) read(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	doc.Path = path
	return doc, nil
}

// ScanDOIs is shorthand for NewScanner(root, nil).DOIs().
func ScanDOIs(root string) iter.Seq2[string, error] {
	return NewScanner(root, nil).DOIs()
}
