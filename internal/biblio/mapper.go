// Package biblio reconciles the DOIs cited in content with a Zotero collection and imports
// the missing ones from CrossRef.
package biblio

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gaas-tools/gaas/internal/crossref"
	"github.com/gaas-tools/gaas/internal/zotero"
)

// LibraryCatalog is recorded on every imported item.
const LibraryCatalog = "DOI.org (Crossref)"

// UnsupportedTypeError is returned for a registry record whose type has no Zotero mapping.
type UnsupportedTypeError struct {
	DOI  string
	Type string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported CrossRef type %q for %s", e.Type, e.DOI)
}

// ItemType maps a CrossRef work type to a Zotero item type.
func ItemType(workType string) (string, bool) {
	switch workType {
	case crossref.TypePostedContent:
		return zotero.ItemTypePreprint, true
	case crossref.TypeJournalArticle:
		return zotero.ItemTypeJournalArticle, true
	}
	return "", false
}

// MapWork converts a CrossRef record into the fields of a Zotero item, including itemType.
// Optional fields are only set when the record has them.
func MapWork(w *crossref.Work) (zotero.ItemData, error) {
	itemType, ok := ItemType(w.Type)
	if !ok {
		return nil, &UnsupportedTypeError{DOI: w.DOI, Type: w.Type}
	}

	fields := zotero.ItemData{
		"itemType":       itemType,
		"title":          w.FirstTitle(),
		"creators":       creators(w.Author),
		"libraryCatalog": LibraryCatalog,
	}
	set := func(key, value string) {
		if value != "" {
			fields[key] = value
		}
	}
	set("pages", w.Page)
	set("abstractNote", w.Abstract)
	set("publicationTitle", first(w.ContainerTitle))
	set("journalAbbreviation", first(w.ShortContainerTitle))
	set("ISSN", strings.Join(w.ISSN, ", "))
	set("url", w.PrimaryURL())
	set("date", w.PublishedDate("/"))
	set("DOI", w.DOI)
	set("volume", w.Volume)
	set("issue", w.Issue)
	set("language", w.Language)
	return fields, nil
}

func creators(authors []crossref.Author) []zotero.Creator {
	out := make([]zotero.Creator, 0, len(authors))
	for _, a := range authors {
		c := zotero.Creator{CreatorType: "author"}
		if a.Given == "" && a.Family == "" {
			c.Name = a.Name
		} else {
			c.FirstName = a.Given
			c.LastName = a.Family
		}
		out = append(out, c)
	}
	return out
}

func first(s []string) string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}

// Fill overlays fields onto a copy of the item template. Fields the template does not define
// are left out and returned sorted, so items stay valid for their type.
func Fill(tmpl, fields zotero.ItemData) (zotero.ItemData, []string) {
	item := tmpl.Clone()
	var dropped []string
	for k, v := range fields {
		if _, ok := tmpl[k]; !ok {
			dropped = append(dropped, k)
			continue
		}
		item[k] = v
	}
	slices.Sort(dropped)
	return item, dropped
}
