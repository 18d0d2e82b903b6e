package tool

import (
	"github.com/hupe1980/grocerymesh/core"
	"github.com/hupe1980/grocerymesh/engine"
	"github.com/hupe1980/grocerymesh/internal/util"
)

type itemArgs struct {
	Item string `json:"item" description:"Item name or search query"`
}

type addItemArgs struct {
	Item     string `json:"item" description:"Item name or search query"`
	Quantity int    `json:"quantity,omitempty" minimum:"1" description:"How many to add, defaults to 1"`
}

type updateQuantityArgs struct {
	Item     string `json:"item" description:"Item name or search query"`
	Quantity int    `json:"quantity" description:"New quantity; 0 removes the item"`
}

type recipeArgs struct {
	RecipeName string `json:"recipe_name" description:"Dish or recipe name, e.g. pasta for two"`
}

type placeOrderArgs struct {
	Name    string `json:"name,omitempty" description:"Customer name"`
	Address string `json:"address,omitempty" description:"Delivery address"`
}

type trackArgs struct {
	OrderID string `json:"order_id" description:"Order id returned when the order was placed"`
}

type noArgs struct{}

// NewGroceryTools returns one tool per engine operation, named the way the
// assistant's instructions refer to them.
func NewGroceryTools(e *engine.Engine) []Tool {
	return []Tool{
		NewFunctionToolFromStruct("add_item", "Add a grocery item to the cart.", addItemArgs{},
			func(tc *core.ToolContext, args map[string]any) (any, error) {
				return e.AddItem(tc.Context(), util.StringArg(args, "item"), util.IntArg(args, "quantity", 1))
			}),
		NewFunctionToolFromStruct("remove_item", "Remove an item from the cart.", itemArgs{},
			func(tc *core.ToolContext, args map[string]any) (any, error) {
				return e.RemoveItem(tc.Context(), util.StringArg(args, "item"))
			}),
		NewFunctionToolFromStruct("update_quantity", "Update the quantity of an item in the cart.", updateQuantityArgs{},
			func(tc *core.ToolContext, args map[string]any) (any, error) {
				return e.UpdateQuantity(tc.Context(), util.StringArg(args, "item"), util.IntArg(args, "quantity", 0))
			}),
		NewFunctionToolFromStruct("list_cart", "List the current cart in a voice-friendly form.", noArgs{},
			func(tc *core.ToolContext, _ map[string]any) (any, error) {
				return e.ListCart(tc.Context())
			}),
		NewFunctionToolFromStruct("show_catalog", "Return a short catalog listing.", noArgs{},
			func(tc *core.ToolContext, _ map[string]any) (any, error) {
				return e.ListCatalog(tc.Context())
			}),
		NewFunctionToolFromStruct("ingredients_for", "Add the ingredients for a named recipe to the cart.", recipeArgs{},
			func(tc *core.ToolContext, args map[string]any) (any, error) {
				return e.ExpandRecipe(tc.Context(), util.StringArg(args, "recipe_name"))
			}),
		NewFunctionToolFromStruct("place_order", "Place the current cart as an order.", placeOrderArgs{},
			func(tc *core.ToolContext, args map[string]any) (any, error) {
				return e.PlaceOrder(tc.Context(), core.Customer{
					Name:    util.StringArg(args, "name"),
					Address: util.StringArg(args, "address"),
				})
			}),
		NewFunctionToolFromStruct("history", "List previous orders' ids and timestamps.", noArgs{},
			func(tc *core.ToolContext, _ map[string]any) (any, error) {
				return e.ListHistory(tc.Context())
			}),
		NewFunctionToolFromStruct("track_order", "Track an existing order id.", trackArgs{},
			func(tc *core.ToolContext, args map[string]any) (any, error) {
				return e.TrackOrder(tc.Context(), util.StringArg(args, "order_id"))
			}),
		NewFunctionToolFromStruct("clear_grocery_list", "Clear the entire grocery list.", noArgs{},
			func(tc *core.ToolContext, _ map[string]any) (any, error) {
				return e.ClearCart(tc.Context())
			}),
	}
}

// Index maps tools by name. Later tools with a duplicate name win.
func Index(tools []Tool) map[string]Tool {
	m := make(map[string]Tool, len(tools))
	for _, t := range tools {
		m[t.Name()] = t
	}
	return m
}
