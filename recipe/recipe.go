// Package recipe expands named recipes into cart additions.
package recipe

import (
	"github.com/hupe1980/grocerymesh/cart"
	"github.com/hupe1980/grocerymesh/core"
	"github.com/hupe1980/grocerymesh/logging"
)

// Source looks up recipes and resolves their constituents.
type Source interface {
	cart.Resolver
	FindRecipe(name string) (core.Recipe, bool)
}

// Expander adds every resolvable constituent of a recipe to a cart.
type Expander struct {
	source Source
	logger logging.Logger
}

// Options configure an Expander.
type Options struct {
	Logger logging.Logger
}

// New creates an Expander.
func New(source Source, optFns ...func(o *Options)) *Expander {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Expander{source: source, logger: opts.Logger}
}

// Expand adds one unit of each resolvable constituent of the matched recipe
// to c and returns the display names added, in recipe order.
func (e *Expander) Expand(c *cart.Cart, name string) (core.Recipe, []string, error) {
	r, ok := e.source.FindRecipe(name)
	if !ok {
		return core.Recipe{}, nil, core.NewError(core.KindRecipeNotFound, "No recipe found for '%s'.", name)
	}

	resolved := make([]core.CatalogItem, 0, len(r.Items))
	for _, ref := range r.Items {
		item, ok := e.source.FindItem(ref)
		if !ok {
			e.logger.Debug("recipe.ingredient.skipped", "recipe", r.Name, "ingredient", ref)
			continue
		}
		resolved = append(resolved, item)
	}
	if len(resolved) == 0 {
		return r, nil, core.NewError(core.KindNoResolvableIngredients, "Could not add any items for %s (items not in catalog).", r.Name)
	}

	added := make([]string, 0, len(resolved))
	for _, item := range resolved {
		c.AddItem(item, 1)
		added = append(added, item.Name)
	}
	e.logger.Info("recipe.expanded", "recipe", r.Name, "added", len(added), "skipped", len(r.Items)-len(added))
	return r, added, nil
}
