package recipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/grocerymesh/cart"
	"github.com/hupe1980/grocerymesh/catalog"
	"github.com/hupe1980/grocerymesh/core"
)

func TestExpand_AddsInRecipeOrder(t *testing.T) {
	cat := catalog.FromSeed(catalog.DefaultSeed())
	c := cart.New(cat)
	e := New(cat)

	r, added, err := e.Expand(c, "Breakfast")
	require.NoError(t, err)
	assert.Equal(t, "breakfast pack", r.Name)
	assert.Equal(t, []string{"Milk - 1L", "Eggs - 12 Pack", "Bananas - 6 pcs"}, added)
	assert.Equal(t, 62+75+45, c.Total())
}

func TestExpand_IncrementsExistingLines(t *testing.T) {
	cat := catalog.FromSeed(catalog.DefaultSeed())
	c := cart.New(cat)
	e := New(cat)

	_, err := c.Add("Pasta - 500g", 1)
	require.NoError(t, err)

	_, _, err = e.Expand(c, "pasta for two")
	require.NoError(t, err)

	for _, l := range c.Snapshot() {
		if l.Name == "Pasta - 500g" {
			assert.Equal(t, 2, l.Quantity)
		}
	}
}

func TestExpand_SkipsUnresolvable(t *testing.T) {
	cat := catalog.New(
		[]core.CatalogItem{{Name: "Tea", Price: 10}},
		core.RecipeBook{{Name: "chai", Items: []string{"Tea", "Cardamom"}}},
	)
	c := cart.New(cat)

	_, added, err := New(cat).Expand(c, "chai")
	require.NoError(t, err)
	assert.Equal(t, []string{"Tea"}, added)
}

func TestExpand_Errors(t *testing.T) {
	cat := catalog.New(
		[]core.CatalogItem{{Name: "Tea", Price: 10}},
		core.RecipeBook{{Name: "feast", Items: []string{"Lobster", "Truffle"}}},
	)
	c := cart.New(cat)
	e := New(cat)

	_, _, err := e.Expand(c, "sushi")
	assert.ErrorIs(t, err, core.ErrRecipeNotFound)

	_, _, err = e.Expand(c, "feast")
	assert.ErrorIs(t, err, core.ErrNoResolvableIngredients)
	assert.True(t, c.IsEmpty())
}
