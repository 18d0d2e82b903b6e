package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type addArgs struct {
	Item     string `json:"item" description:"Item name or search query"`
	Quantity int    `json:"quantity,omitempty" minimum:"1"`
	Note     *string
	Ignored  string `json:"-"`
}

func TestCreateSchema(t *testing.T) {
	s := CreateSchema(addArgs{})
	props := s["properties"].(map[string]any)

	require.Len(t, props, 3)
	assert.Equal(t, map[string]any{"type": "string", "description": "Item name or search query"}, props["item"])
	assert.Equal(t, map[string]any{"type": "integer", "minimum": 1.0}, props["quantity"])
	assert.Equal(t, map[string]any{"type": "string"}, props["Note"])
	assert.Equal(t, []string{"item"}, s["required"])

	assert.Equal(t, map[string]any{"type": "object", "properties": map[string]any{}}, CreateSchema(42))
}

func TestValidateParameters(t *testing.T) {
	s := CreateSchema(addArgs{})

	assert.NoError(t, ValidateParameters(map[string]any{"item": "milk"}, s))
	assert.NoError(t, ValidateParameters(map[string]any{"item": "milk", "quantity": 2.0, "extra": true}, s))

	err := ValidateParameters(map[string]any{"quantity": 2.0}, s)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "item", ve.Field)

	err = ValidateParameters(map[string]any{"item": 3}, s)
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Message, "expected type string")

	err = ValidateParameters(map[string]any{"item": "milk", "quantity": 1.5}, s)
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "quantity", ve.Field)

	err = ValidateParameters(map[string]any{"item": "milk", "quantity": 0.0}, s)
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "must be >= 1", ve.Message)
}

func TestValidateParameters_DecodedRequired(t *testing.T) {
	s := map[string]any{
		"type":       "object",
		"properties": map[string]any{"order_id": map[string]any{"type": "string"}},
		"required":   []any{"order_id"},
	}
	assert.Error(t, ValidateParameters(map[string]any{}, s))
	assert.NoError(t, ValidateParameters(map[string]any{"order_id": "x"}, s))
}

func TestArgs(t *testing.T) {
	args := map[string]any{"q": 3.0, "n": nil, "s": "  milk ", "bad": "x"}
	assert.Equal(t, 3, IntArg(args, "q", 1))
	assert.Equal(t, 1, IntArg(args, "n", 1))
	assert.Equal(t, 1, IntArg(args, "missing", 1))
	assert.Equal(t, 7, IntArg(args, "bad", 7))
	assert.Equal(t, "milk", StringArg(args, "s"))
	assert.Equal(t, "", StringArg(args, "q"))
}
