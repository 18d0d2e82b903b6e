// Package cart holds the per-session shopping cart.
package cart

import (
	"slices"
	"strings"

	"github.com/hupe1980/grocerymesh/core"
)

// Resolver resolves a free-text query to a catalog item.
type Resolver interface {
	FindItem(query string) (core.CatalogItem, bool)
}

// Cart maps normalized item names to lines. A Cart has a single owner and is
// not safe for concurrent mutation.
type Cart struct {
	resolver Resolver
	lines    map[string]core.CartLine
}

// New returns an empty cart resolving queries through r.
func New(r Resolver) *Cart {
	return &Cart{resolver: r, lines: make(map[string]core.CartLine)}
}

// Add resolves query and adds quantity units. An existing line keeps its
// locked unit price.
func (c *Cart) Add(query string, quantity int) (core.CartLine, error) {
	if quantity <= 0 {
		return core.CartLine{}, invalidQuantity(quantity)
	}
	item, ok := c.resolver.FindItem(query)
	if !ok {
		return core.CartLine{}, itemNotFound(query)
	}
	return c.AddItem(item, quantity), nil
}

// AddItem adds an already resolved item. quantity must be positive.
func (c *Cart) AddItem(item core.CatalogItem, quantity int) core.CartLine {
	key := item.Key()
	line, ok := c.lines[key]
	if ok {
		line.Quantity += quantity
	} else {
		line = core.CartLine{Name: item.Name, Quantity: quantity, UnitPrice: item.Price}
	}
	c.lines[key] = line
	return line
}

// Remove deletes the line for query entirely.
func (c *Cart) Remove(query string) (core.CartLine, error) {
	item, ok := c.resolver.FindItem(query)
	if !ok {
		return core.CartLine{}, itemNotFound(query)
	}
	line, ok := c.lines[item.Key()]
	if !ok {
		return core.CartLine{}, core.NewError(core.KindItemNotInCart, "%s is not in your cart.", item.Name)
	}
	delete(c.lines, item.Key())
	return line, nil
}

// UpdateQuantity sets the quantity for query. A non-positive quantity behaves
// like Remove and the returned line has Quantity 0.
func (c *Cart) UpdateQuantity(query string, quantity int) (core.CartLine, error) {
	if quantity <= 0 {
		line, err := c.Remove(query)
		if err != nil {
			return core.CartLine{}, err
		}
		line.Quantity = 0
		return line, nil
	}
	item, ok := c.resolver.FindItem(query)
	if !ok {
		return core.CartLine{}, itemNotFound(query)
	}
	line, ok := c.lines[item.Key()]
	if !ok {
		line = core.CartLine{Name: item.Name, UnitPrice: item.Price}
	}
	line.Quantity = quantity
	c.lines[item.Key()] = line
	return line, nil
}

// Total returns the sum of line totals.
func (c *Cart) Total() int {
	total := 0
	for _, l := range c.lines {
		total += l.LineTotal()
	}
	return total
}

// Snapshot returns a copy of all lines sorted by name. Mutating the result
// never affects the cart.
func (c *Cart) Snapshot() []core.CartLine {
	out := make([]core.CartLine, 0, len(c.lines))
	for _, l := range c.lines {
		out = append(out, l)
	}
	slices.SortFunc(out, func(a, b core.CartLine) int { return strings.Compare(a.Key(), b.Key()) })
	return out
}

// Len returns the number of lines.
func (c *Cart) Len() int { return len(c.lines) }

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool { return len(c.lines) == 0 }

// Clear empties the cart. It is idempotent.
func (c *Cart) Clear() { clear(c.lines) }

func itemNotFound(query string) error {
	return core.NewError(core.KindItemNotFound, "Item '%s' not found in catalog.", query)
}

func invalidQuantity(q int) error {
	return core.NewError(core.KindInvalidQuantity, "Quantity must be a positive number, got %d.", q)
}
