package catalog

import "github.com/hupe1980/grocerymesh/core"

// Seed is the value written to storage on first run. It is only ever copied,
// never referenced after bootstrap.
type Seed struct {
	Items   []core.CatalogItem
	Recipes core.RecipeBook
}

// DefaultSeed returns a fresh copy of the built-in catalog and recipes.
func DefaultSeed() Seed {
	return Seed{
		Items: []core.CatalogItem{
			{Name: "Whole Wheat Bread", Category: "Groceries", Price: 45, Brand: "Harvest Gold", Tags: []string{"bread", "vegan"}},
			{Name: "White Bread", Category: "Groceries", Price: 40, Brand: "Britannia", Tags: []string{"bread"}},
			{Name: "Eggs - 12 Pack", Category: "Groceries", Price: 75, Tags: []string{"protein", "breakfast"}},
			{Name: "Milk - 1L", Category: "Groceries", Price: 62, Brand: "Amul", Tags: []string{"dairy"}},
			{Name: "Peanut Butter - 500g", Category: "Groceries", Price: 199, Brand: "Pintola", Tags: []string{"vegan", "spread"}},
			{Name: "Pasta - 500g", Category: "Groceries", Price: 120, Brand: "Barilla", Tags: []string{"pasta"}},
			{Name: "Tomato Pasta Sauce", Category: "Groceries", Price: 149, Brand: "Del Monte", Tags: []string{"sauce"}},
			{Name: "Onion - 1kg", Category: "Groceries", Price: 40, Tags: []string{"vegetable"}},
			{Name: "Tomato - 1kg", Category: "Groceries", Price: 50, Tags: []string{"vegetable"}},
			{Name: "Bananas - 6 pcs", Category: "Groceries", Price: 45, Tags: []string{"fruit"}},
			{Name: "Potato Chips", Category: "Snacks", Price: 35, Brand: "Lays"},
			{Name: "Chocolate Bar", Category: "Snacks", Price: 60, Brand: "Cadbury"},
			{Name: "Veg Sandwich", Category: "Prepared Food", Price: 70},
			{Name: "Chicken Sandwich", Category: "Prepared Food", Price: 85},
			{Name: "Margherita Pizza", Category: "Prepared Food", Price: 199},
			{Name: "Cold Coffee", Category: "Drinks", Price: 99},
			{Name: "Apple Juice", Category: "Drinks", Price: 120},
			{Name: "Noodles - 2 Pack", Category: "Snacks", Price: 30},
		},
		Recipes: core.RecipeBook{
			{Name: "peanut butter sandwich", Items: []string{"Whole Wheat Bread", "Peanut Butter - 500g"}},
			{Name: "pasta for two", Items: []string{"Pasta - 500g", "Tomato Pasta Sauce"}},
			{Name: "simple salad", Items: []string{"Tomato - 1kg", "Onion - 1kg"}},
			{Name: "breakfast pack", Items: []string{"Milk - 1L", "Eggs - 12 Pack", "Bananas - 6 pcs"}},
		},
	}
}
