package agent

import (
	"context"
	"slices"

	"github.com/hupe1980/grocerymesh/catalog"
	"github.com/hupe1980/grocerymesh/internal/util"
)

// Provider supplies dynamic instruction text at runtime.
type Provider interface {
	Instruction(ctx context.Context) (string, error)
}

// Func adapts an ordinary function to Provider.
type Func func(ctx context.Context) (string, error)

// Instruction implements Provider.
func (f Func) Instruction(ctx context.Context) (string, error) { return f(ctx) }

// Instruction is either a static string or a dynamic provider.
type Instruction struct {
	text     string
	provider Provider
}

// NewInstructionFromText creates an Instruction from a static string.
func NewInstructionFromText(text string) Instruction { return Instruction{text: text} }

// NewInstructionFromProvider creates an Instruction from a dynamic provider.
func NewInstructionFromProvider(p Provider) Instruction { return Instruction{provider: p} }

// NewInstructionFromFunc creates an Instruction from a function.
func NewInstructionFromFunc(f func(ctx context.Context) (string, error)) Instruction {
	return Instruction{provider: Func(f)}
}

// IsStatic reports whether the instruction is a static string.
func (i Instruction) IsStatic() bool { return i.provider == nil }

// Resolve returns the instruction text, invoking the provider if needed.
func (i Instruction) Resolve(ctx context.Context) (string, error) {
	if i.provider != nil {
		return i.provider.Instruction(ctx)
	}
	return i.text, nil
}

// GroceryPrompt is the default assistant prompt template.
const GroceryPrompt = `You are {{default "GroceryBuddy" .Name}}, a helpful voice AI assistant for grocery shopping.
The user is interacting with you via voice. Be concise, friendly and voice-friendly. Do not use emojis or strange formatting.

You can add, remove and update items in the cart, list the cart, show the catalog,
add ingredients for a recipe, place the order, list previous orders and track an order.
Always use the tools for these actions and read back what the tool returned.
Before placing an order you may ask for the customer's name and delivery address; both are optional.
The catalog has {{.ItemCount}} items. Known recipes: {{join ", " .Recipes}}.
Prices are in {{.Currency}}.`

// GroceryInstruction renders GroceryPrompt for cat.
func GroceryInstruction(name string, cat *catalog.Catalog) Instruction {
	return NewInstructionFromFunc(func(context.Context) (string, error) {
		recipes := slices.Collect(func(yield func(string) bool) {
			for r := range cat.Recipes() {
				if !yield(r.Name) {
					return
				}
			}
		})
		return util.RenderTemplate(GroceryPrompt, map[string]any{
			"Name":      name,
			"ItemCount": cat.Len(),
			"Recipes":   recipes,
			"Currency":  catalog.CurrencySymbol,
		})
	})
}

