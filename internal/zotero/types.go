package zotero

import (
	"bytes"
	"encoding/json"
	"maps"
)

// Item types the collection reader asks for and the importer creates.
const (
	ItemTypeJournalArticle = "journalArticle"
	ItemTypePreprint       = "Preprint"
)

// Collection is the subset of a collection response the client needs.
type Collection struct {
	Key     string `json:"key"`
	Version int    `json:"version"`
	Meta    struct {
		NumCollections int `json:"numCollections"`
		NumItems       int `json:"numItems"`
	} `json:"meta"`
	Data struct {
		Key              string `json:"key"`
		Name             string `json:"name"`
		ParentCollection any    `json:"parentCollection"`
	} `json:"data"`
}

// Name returns the display name of the collection.
func (c *Collection) Name() string {
	return c.Data.Name
}

// NumItems returns the number of items in the collection.
func (c *Collection) NumItems() int {
	return c.Meta.NumItems
}

// CSLName is an author or editor in CSL-JSON.
type CSLName struct {
	Family  string `json:"family,omitempty"`
	Given   string `json:"given,omitempty"`
	Literal string `json:"literal,omitempty"`
}

// CSLDate is a CSL-JSON date.
type CSLDate struct {
	DateParts [][]any `json:"date-parts,omitempty"`
	Raw       string  `json:"raw,omitempty"`
}

// CSLItem is a library item as returned with format=csljson.
// Raw keeps the item exactly as the API sent it.
type CSLItem struct {
	ID             string    `json:"id"`
	Type           string    `json:"type"`
	Title          string    `json:"title"`
	DOI            string    `json:"DOI"`
	ContainerTitle string    `json:"container-title"`
	Author         []CSLName `json:"author"`
	Issued         *CSLDate  `json:"issued"`
	URL            string    `json:"URL"`

	Raw json.RawMessage `json:"-"`
}

// UnmarshalJSON decodes the known fields and keeps the raw document.
func (c *CSLItem) UnmarshalJSON(data []byte) error {
	type plain CSLItem
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*c = CSLItem(p)
	c.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// MarshalJSON writes the raw document when available.
func (c CSLItem) MarshalJSON() ([]byte, error) {
	if len(c.Raw) > 0 {
		return c.Raw, nil
	}
	type plain CSLItem
	return json.Marshal(plain(c))
}

// ItemData is the editable JSON of a Zotero item, as produced by an item template.
type ItemData map[string]any

// ItemType returns the itemType field.
func (d ItemData) ItemType() string {
	s, _ := d["itemType"].(string)
	return s
}

// Title returns the title field.
func (d ItemData) Title() string {
	s, _ := d["title"].(string)
	return s
}

// Clone returns a copy that can be filled in without touching the template.
// Nested values are shared; the importer only replaces them.
func (d ItemData) Clone() ItemData {
	return maps.Clone(d)
}

// Collections returns the collection keys the item belongs to.
func (d ItemData) Collections() []string {
	switch v := d["collections"].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, c := range v {
			if s, ok := c.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Creator is a creator entry of a Zotero item.
type Creator struct {
	CreatorType string `json:"creatorType"`
	FirstName   string `json:"firstName,omitempty"`
	LastName    string `json:"lastName,omitempty"`
	Name        string `json:"name,omitempty"`
}

// Item is a stored Zotero item.
type Item struct {
	Key     string   `json:"key"`
	Version int      `json:"version"`
	Data    ItemData `json:"data"`
}

// WriteFailure is a per-item failure of a write request.
type WriteFailure struct {
	Key     string `json:"key,omitempty"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// CreateResponse is the per-item outcome of a batch create, keyed by the item's
// index in the submitted batch.
type CreateResponse struct {
	Successful Indexed[Item]         `json:"successful"`
	Success    Indexed[string]       `json:"success"`
	Unchanged  Indexed[string]       `json:"unchanged"`
	Failed     Indexed[WriteFailure] `json:"failed"`
}

// Indexed maps a batch index to a per-item result. The API sends an empty JSON array
// instead of an empty object, so both decode to an empty map.
type Indexed[T any] map[string]T

// UnmarshalJSON accepts an object or an empty array.
func (m *Indexed[T]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("[]")) || bytes.Equal(trimmed, []byte("null")) {
		*m = Indexed[T]{}
		return nil
	}
	var raw map[string]T
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return err
	}
	*m = raw
	return nil
}
