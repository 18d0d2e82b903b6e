package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/grocerymesh/catalog"
)

func TestInstruction_Static(t *testing.T) {
	inst := NewInstructionFromText("static instruction")
	assert.True(t, inst.IsStatic())

	text, err := inst.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "static instruction", text)
}

func TestInstruction_Provider(t *testing.T) {
	inst := NewInstructionFromFunc(func(context.Context) (string, error) { return "", errors.New("boom") })
	assert.False(t, inst.IsStatic())

	_, err := inst.Resolve(context.Background())
	assert.EqualError(t, err, "boom")
}

func TestGroceryInstruction(t *testing.T) {
	text, err := GroceryInstruction("", catalog.FromSeed(catalog.DefaultSeed())).Resolve(context.Background())
	require.NoError(t, err)
	assert.Contains(t, text, "You are GroceryBuddy,")
	assert.Contains(t, text, "The catalog has 18 items.")
	assert.Contains(t, text, "Known recipes: peanut butter sandwich, pasta for two, simple salad, breakfast pack.")
	assert.Contains(t, text, "Prices are in ₹.")
}
