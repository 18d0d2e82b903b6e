package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// CatalogItem is an immutable purchasable item. Price is expressed in minor
// currency units.
type CatalogItem struct {
	Name     string   `json:"name"`
	Category string   `json:"category"`
	Price    int      `json:"price"`
	Brand    string   `json:"brand,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// Key returns the normalized identity of the item.
func (i CatalogItem) Key() string { return NormalizeName(i.Name) }

// HasTag reports whether the item carries the exact (lower-cased) tag.
func (i CatalogItem) HasTag(tag string) bool {
	for _, t := range i.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// NormalizeName lower-cases and trims a name or query.
func NormalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Recipe maps a name to an ordered list of item-name references.
type Recipe struct {
	Name  string   `json:"name"`
	Items []string `json:"items"`
}

// RecipeBook is the ordered recipe table. It encodes as a JSON object whose key
// order is preserved in both directions, since lookups are first-match-wins.
type RecipeBook []Recipe

// MarshalJSON writes the book as an object in table order.
func (b RecipeBook) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, r := range b {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(r.Name)
		if err != nil {
			return nil, err
		}
		items := r.Items
		if items == nil {
			items = []string{}
		}
		v, err := json.Marshal(items)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object of name -> []string keeping document order.
func (b *RecipeBook) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("recipe book: invalid json")
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return fmt.Errorf("recipe book: expected object, got %s", root.Type)
	}
	book := RecipeBook{}
	var perr error
	root.ForEach(func(key, value gjson.Result) bool {
		if !value.IsArray() {
			perr = fmt.Errorf("recipe book: %q is not a list", key.String())
			return false
		}
		r := Recipe{Name: key.String(), Items: []string{}}
		for _, it := range value.Array() {
			r.Items = append(r.Items, it.String())
		}
		book = append(book, r)
		return true
	})
	if perr != nil {
		return perr
	}
	*b = book
	return nil
}
