package agent

import (
	"strconv"
	"strings"
)

// Command is a tool invocation recognized directly from user text.
type Command struct {
	Tool string
	Args map[string]any
}

var (
	listCartPhrases = []string{"list cart", "what's in my cart", "what is in my cart"}
	doneUtterances  = map[string]bool{
		"i'm done": true, "im done": true, "place my order": true,
		"that's all": true, "thats all": true,
	}
)

// MatchCommand recognizes short imperative utterances so they can skip the
// model. It reports false when text should go to the model instead.
//
// Recognized forms:
//
//	add [n] <item>            remove <item>
//	list cart / show cart     catalog / list items
//	ingredients for <recipe>  place order / i'm done / that's all
//	track <id>                where is my order <id>
func MatchCommand(text string) (Command, bool) {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return Command{}, false
	}

	if rest, ok := strings.CutPrefix(t, "add "); ok {
		tokens := strings.Fields(rest)
		if len(tokens) == 0 {
			return Command{}, false
		}
		if len(tokens) >= 2 {
			if n, err := strconv.Atoi(tokens[0]); err == nil && n >= 0 {
				return Command{Tool: "add_item", Args: map[string]any{"item": strings.Join(tokens[1:], " "), "quantity": n}}, true
			}
		}
		return Command{Tool: "add_item", Args: map[string]any{"item": strings.Join(tokens, " "), "quantity": 1}}, true
	}

	if rest, ok := strings.CutPrefix(t, "remove "); ok {
		if item := strings.TrimSpace(rest); item != "" {
			return Command{Tool: "remove_item", Args: map[string]any{"item": item}}, true
		}
	}

	if t == "show cart" || containsAny(t, listCartPhrases) {
		return Command{Tool: "list_cart", Args: map[string]any{}}, true
	}

	if strings.Contains(t, "catalog") || strings.Contains(t, "list items") {
		return Command{Tool: "show_catalog", Args: map[string]any{}}, true
	}

	if rest, ok := strings.CutPrefix(t, "ingredients for"); ok {
		if recipe := strings.TrimSpace(rest); recipe != "" {
			return Command{Tool: "ingredients_for", Args: map[string]any{"recipe_name": recipe}}, true
		}
	}

	if strings.HasPrefix(t, "place order") || doneUtterances[t] {
		return Command{Tool: "place_order", Args: map[string]any{}}, true
	}

	if strings.HasPrefix(t, "track ") || strings.HasPrefix(t, "where is my order") {
		tokens := strings.Fields(t)
		if len(tokens) >= 2 {
			id := tokens[len(tokens)-1]
			if id != "order" {
				return Command{Tool: "track_order", Args: map[string]any{"order_id": id}}, true
			}
		}
	}

	return Command{}, false
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
