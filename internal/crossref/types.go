package crossref

import (
	"strconv"
	"strings"
)

// Work types the importer knows how to map.
const (
	TypeJournalArticle = "journal-article"
	TypePostedContent  = "posted-content"
)

// Author is a contributor of a work.
type Author struct {
	Given    string `json:"given,omitempty"`
	Family   string `json:"family,omitempty"`
	Name     string `json:"name,omitempty"`
	Sequence string `json:"sequence,omitempty"`
	ORCID    string `json:"ORCID,omitempty"`
}

// DateParts is a CrossRef partial date, e.g. {"date-parts": [[2021, 3, 9]]}.
type DateParts struct {
	DateParts [][]*int `json:"date-parts"`
}

// First returns the first date-parts tuple joined with sep, skipping null parts.
func (d *DateParts) First(sep string) string {
	if d == nil || len(d.DateParts) == 0 {
		return ""
	}
	parts := make([]string, 0, len(d.DateParts[0]))
	for _, p := range d.DateParts[0] {
		if p == nil {
			continue
		}
		parts = append(parts, strconv.Itoa(*p))
	}
	return strings.Join(parts, sep)
}

// Resource holds the landing page links of a work.
type Resource struct {
	Primary struct {
		URL string `json:"URL"`
	} `json:"primary"`
}

// Work is the "message" object of a works/{doi} response.
type Work struct {
	DOI                 string     `json:"DOI"`
	Type                string     `json:"type"`
	Title               []string   `json:"title"`
	Page                string     `json:"page,omitempty"`
	Abstract            string     `json:"abstract,omitempty"`
	ContainerTitle      []string   `json:"container-title,omitempty"`
	ShortContainerTitle []string   `json:"short-container-title,omitempty"`
	ISSN                []string   `json:"ISSN,omitempty"`
	Volume              string     `json:"volume,omitempty"`
	Issue               string     `json:"issue,omitempty"`
	Language            string     `json:"language,omitempty"`
	Publisher           string     `json:"publisher,omitempty"`
	Author              []Author   `json:"author,omitempty"`
	Published           *DateParts `json:"published,omitempty"`
	Issued              *DateParts `json:"issued,omitempty"`
	Resource            *Resource  `json:"resource,omitempty"`
	URL                 string     `json:"URL,omitempty"`
}

// FirstTitle returns the first title, or "" if the work has none.
func (w *Work) FirstTitle() string {
	if len(w.Title) == 0 {
		return ""
	}
	return w.Title[0]
}

// PublishedDate returns the published date joined with sep, falling back to the issued date.
func (w *Work) PublishedDate(sep string) string {
	if d := w.Published.First(sep); d != "" {
		return d
	}
	return w.Issued.First(sep)
}

// PrimaryURL returns the primary resource URL, falling back to the DOI link.
func (w *Work) PrimaryURL() string {
	if w.Resource != nil && w.Resource.Primary.URL != "" {
		return w.Resource.Primary.URL
	}
	return w.URL
}

// workResponse is the envelope of a works/{doi} response.
type workResponse struct {
	Status      string `json:"status"`
	MessageType string `json:"message-type"`
	Message     *Work  `json:"message"`
}
