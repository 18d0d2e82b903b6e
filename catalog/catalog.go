// Package catalog loads the immutable item catalog and recipe table from a
// core.BlobStore and resolves free-text queries against them.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/hupe1980/grocerymesh/core"
	"github.com/hupe1980/grocerymesh/logging"
)

// Default storage keys.
const (
	ItemsKey   = "catalog.json"
	RecipesKey = "recipes.json"
)

// CurrencySymbol prefixes rendered prices.
const CurrencySymbol = "₹"

// Catalog is a read-only view over catalog items and recipes. It is safe for
// concurrent use once constructed and may be shared by many carts.
type Catalog struct {
	items   []core.CatalogItem
	byKey   map[string]int
	recipes core.RecipeBook
}

// Options configure EnsureLoaded.
type Options struct {
	ItemsKey   string
	RecipesKey string
	Logger     logging.Logger
}

type itemsRecord struct {
	Items []core.CatalogItem `json:"items"`
}

// New builds a catalog from in-memory values. Tags are lower-cased and the
// inputs are copied.
func New(items []core.CatalogItem, recipes core.RecipeBook) *Catalog {
	c := &Catalog{
		items:   make([]core.CatalogItem, 0, len(items)),
		byKey:   make(map[string]int, len(items)),
		recipes: make(core.RecipeBook, 0, len(recipes)),
	}
	for _, it := range items {
		cp := it
		cp.Tags = make([]string, 0, len(it.Tags))
		for _, t := range it.Tags {
			cp.Tags = append(cp.Tags, strings.ToLower(strings.TrimSpace(t)))
		}
		if _, dup := c.byKey[cp.Key()]; dup {
			continue
		}
		c.byKey[cp.Key()] = len(c.items)
		c.items = append(c.items, cp)
	}
	for _, r := range recipes {
		c.recipes = append(c.recipes, core.Recipe{Name: r.Name, Items: append([]string(nil), r.Items...)})
	}
	return c
}

// FromSeed builds a catalog directly from a seed without touching storage.
func FromSeed(seed Seed) *Catalog { return New(seed.Items, seed.Recipes) }

// EnsureLoaded writes seed to store for any record that is absent, then reads
// both records back. Failures are reported as core.KindStorageUnavailable so
// callers can fall back to FromSeed.
func EnsureLoaded(ctx context.Context, store core.BlobStore, seed Seed, optFns ...func(o *Options)) (*Catalog, error) {
	opts := Options{ItemsKey: ItemsKey, RecipesKey: RecipesKey, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	itemsData, err := ensureRecord(ctx, store, opts.ItemsKey, itemsRecord{Items: seed.Items}, opts.Logger)
	if err != nil {
		return nil, err
	}
	recipeData, err := ensureRecord(ctx, store, opts.RecipesKey, seed.Recipes, opts.Logger)
	if err != nil {
		return nil, err
	}

	items, err := decodeItems(itemsData)
	if err != nil {
		return nil, core.WrapError(core.KindStorageUnavailable, err, "The catalog could not be read.")
	}
	var recipes core.RecipeBook
	if err := json.Unmarshal(recipeData, &recipes); err != nil {
		return nil, core.WrapError(core.KindStorageUnavailable, err, "The recipes could not be read.")
	}

	c := New(validItems(items, opts.Logger), recipes)
	opts.Logger.Info("catalog.loaded", "items", len(c.items), "recipes", len(c.recipes))
	return c, nil
}

func ensureRecord(ctx context.Context, store core.BlobStore, key string, seed any, logger logging.Logger) ([]byte, error) {
	ok, err := store.Exists(ctx, key)
	if err != nil {
		return nil, core.WrapError(core.KindStorageUnavailable, err, "Storage is unavailable.")
	}
	if !ok {
		data, err := json.MarshalIndent(seed, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode seed %s: %w", key, err)
		}
		if err := store.Put(ctx, key, data); err != nil {
			return nil, core.WrapError(core.KindStorageUnavailable, err, "Storage is unavailable.")
		}
		logger.Info("catalog.seeded", "key", key)
	}
	data, err := store.Get(ctx, key)
	if err != nil {
		return nil, core.WrapError(core.KindStorageUnavailable, err, "Storage is unavailable.")
	}
	return data, nil
}

// validItems drops stored items with a negative price.
func validItems(items []core.CatalogItem, logger logging.Logger) []core.CatalogItem {
	valid := items[:0:0]
	for _, it := range items {
		if it.Price < 0 {
			logger.Warn("catalog.item.invalid", "name", it.Name, "price", it.Price)
			continue
		}
		valid = append(valid, it)
	}
	return valid
}

// decodeItems accepts {"items":[...]} or a bare list.
func decodeItems(data []byte) ([]core.CatalogItem, error) {
	var rec itemsRecord
	if err := json.Unmarshal(data, &rec); err == nil {
		return rec.Items, nil
	}
	var list []core.CatalogItem
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, errors.New("catalog: expected an object with items or a list")
	}
	return list, nil
}

// FindItem resolves query to at most one item. Precedence: exact
// case-insensitive name, then the first item whose name contains the query,
// then the first item carrying the query as a tag.
func (c *Catalog) FindItem(query string) (core.CatalogItem, bool) {
	q := core.NormalizeName(query)
	if q == "" {
		return core.CatalogItem{}, false
	}
	if i, ok := c.byKey[q]; ok {
		return c.items[i], true
	}
	for _, it := range c.items {
		if strings.Contains(it.Key(), q) {
			return it, true
		}
	}
	for _, it := range c.items {
		if it.HasTag(q) {
			return it, true
		}
	}
	return core.CatalogItem{}, false
}

// FindRecipe matches name against recipe keys: exact case-insensitive first,
// then the first key containing name, in table order.
func (c *Catalog) FindRecipe(name string) (core.Recipe, bool) {
	q := core.NormalizeName(name)
	if q == "" {
		return core.Recipe{}, false
	}
	for _, r := range c.recipes {
		if core.NormalizeName(r.Name) == q {
			return r, true
		}
	}
	for _, r := range c.recipes {
		if strings.Contains(core.NormalizeName(r.Name), q) {
			return r, true
		}
	}
	return core.Recipe{}, false
}

// Items returns the catalog items in catalog order.
func (c *Catalog) Items() iter.Seq[core.CatalogItem] {
	return func(yield func(core.CatalogItem) bool) {
		for _, it := range c.items {
			if !yield(it) {
				return
			}
		}
	}
}

// Recipes returns the recipe table in order.
func (c *Catalog) Recipes() iter.Seq[core.Recipe] {
	return func(yield func(core.Recipe) bool) {
		for _, r := range c.recipes {
			if !yield(r) {
				return
			}
		}
	}
}

// List yields a human-readable description per item in catalog order. The
// sequence can be ranged over any number of times.
func (c *Catalog) List() iter.Seq[string] {
	return func(yield func(string) bool) {
		for it := range c.Items() {
			if !yield(Describe(it)) {
				return
			}
		}
	}
}

// Len returns the number of items.
func (c *Catalog) Len() int { return len(c.items) }

// Describe renders an item as "Name, ₹price (Category), Brand".
func Describe(it core.CatalogItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s, %s (%s)", it.Name, FormatPrice(it.Price), it.Category)
	if it.Brand != "" {
		b.WriteString(", ")
		b.WriteString(it.Brand)
	}
	return b.String()
}

// FormatPrice renders minor units with the currency symbol.
func FormatPrice(p int) string { return fmt.Sprintf("%s%d", CurrencySymbol, p) }
