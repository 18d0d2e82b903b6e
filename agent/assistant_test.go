package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/grocerymesh/catalog"
	"github.com/hupe1980/grocerymesh/core"
	"github.com/hupe1980/grocerymesh/engine"
	"github.com/hupe1980/grocerymesh/model"
	"github.com/hupe1980/grocerymesh/order"
	"github.com/hupe1980/grocerymesh/store/memory"
	"github.com/hupe1980/grocerymesh/tool"
	"github.com/hupe1980/grocerymesh/tracking"
)

// MockModelImpl is a testify mock of model.Model.
type MockModelImpl struct{ mock.Mock }

func (m *MockModelImpl) Generate(ctx context.Context, req model.Request) (model.Response, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(model.Response), args.Error(1)
}

func (m *MockModelImpl) Info() model.Info {
	return model.Info{Name: "mock", Provider: "mock", SupportsTools: true}
}

func newGroceryEngine(t *testing.T) *engine.Engine {
	t.Helper()
	now := func() time.Time { return time.Date(2025, 11, 28, 9, 0, 0, 0, time.UTC) }
	ledger := order.New(memory.New(), func(o *order.Options) {
		o.Now = now
		o.Suffix = func() string { return "aaaaaa" }
	})
	return engine.New(catalog.FromSeed(catalog.DefaultSeed()), ledger, tracking.New(ledger, func(o *tracking.Options) { o.Now = now }))
}

func TestAssistant_QuickCommandsSkipModel(t *testing.T) {
	ctx := context.Background()
	llm := &MockModelImpl{}
	a := NewAssistant("s1", llm, tool.NewGroceryTools(newGroceryEngine(t)))

	reply, err := a.Respond(ctx, "add 2 milk")
	require.NoError(t, err)
	assert.Equal(t, "Added 2 x Milk - 1L to your cart.", reply)

	reply, err = a.Respond(ctx, "remove eggs")
	require.NoError(t, err)
	assert.Equal(t, "Eggs - 12 Pack is not in your cart.", reply)

	reply, err = a.Respond(ctx, "that's all")
	require.NoError(t, err)
	assert.Equal(t, "Order placed! Your order id is 20251128090000-aaaaaa.", reply)

	llm.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
	assert.Len(t, a.History(), 6)
}

func TestAssistant_ModelToolLoop(t *testing.T) {
	ctx := context.Background()
	llm := &MockModelImpl{}
	e := newGroceryEngine(t)
	a := NewAssistant("s1", llm, tool.NewGroceryTools(e), func(o *Options) {
		o.Instruction = NewInstructionFromText("You are GroceryBuddy.")
	})

	llm.On("Generate", mock.Anything, mock.MatchedBy(func(r model.Request) bool { return len(r.Contents) == 1 })).
		Return(model.ToolCallResponse(core.FunctionCall{Name: "ingredients_for", Arguments: `{"recipe_name":"pasta"}`}), nil).Once()
	llm.On("Generate", mock.Anything, mock.MatchedBy(func(r model.Request) bool { return len(r.Contents) == 3 })).
		Return(model.TextResponse("I've added pasta and sauce."), nil).Once()

	reply, err := a.Respond(ctx, "I want to cook pasta tonight")
	require.NoError(t, err)
	assert.Equal(t, "I've added pasta and sauce.", reply)
	llm.AssertExpectations(t)

	lines, total := e.Lines()
	assert.Len(t, lines, 2)
	assert.Equal(t, 120+149, total)

	hist := a.History()
	require.Len(t, hist, 4)
	calls := hist[1].FunctionCalls()
	require.Len(t, calls, 1)
	assert.NotEmpty(t, calls[0].ID)
	fr := hist[2].Parts[0].(core.FunctionResponsePart).FunctionResponse
	assert.Equal(t, calls[0].ID, fr.ID)
	assert.Equal(t, "I've added Pasta - 500g, Tomato Pasta Sauce to your cart for 'pasta'.", fr.Response)

	req := llm.Calls[0].Arguments.Get(1).(model.Request)
	assert.Equal(t, "You are GroceryBuddy.", req.Instructions)
	assert.Len(t, req.Tools, 10)
}

func TestAssistant_ToolErrorIsFedBack(t *testing.T) {
	llm := &MockModelImpl{}
	a := NewAssistant("s1", llm, tool.NewGroceryTools(newGroceryEngine(t)))

	llm.On("Generate", mock.Anything, mock.MatchedBy(func(r model.Request) bool { return len(r.Contents) == 1 })).
		Return(model.ToolCallResponse(core.FunctionCall{ID: "c1", Name: "place_order", Arguments: `{}`}), nil).Once()
	llm.On("Generate", mock.Anything, mock.Anything).
		Return(model.TextResponse("Your cart is empty, add something first."), nil).Once()

	reply, err := a.Respond(context.Background(), "could you order for me")
	require.NoError(t, err)
	assert.Equal(t, "Your cart is empty, add something first.", reply)

	fr := a.History()[2].Parts[0].(core.FunctionResponsePart).FunctionResponse
	assert.Equal(t, "Your cart is empty, nothing to place.", fr.Error)
}

func TestAssistant_MaxSteps(t *testing.T) {
	llm := &MockModelImpl{}
	a := NewAssistant("s1", llm, tool.NewGroceryTools(newGroceryEngine(t)), func(o *Options) { o.MaxSteps = 2 })

	llm.On("Generate", mock.Anything, mock.Anything).
		Return(model.ToolCallResponse(core.FunctionCall{Name: "list_cart", Arguments: `{}`}), nil)

	reply, err := a.Respond(context.Background(), "keep going")
	assert.ErrorIs(t, err, ErrMaxStepsExceeded)
	assert.Equal(t, gaveUpReply, reply)
	llm.AssertNumberOfCalls(t, "Generate", 2)
}

func TestAssistant_ModelError(t *testing.T) {
	llm := &MockModelImpl{}
	a := NewAssistant("s1", llm, nil)
	llm.On("Generate", mock.Anything, mock.Anything).Return(model.Response{}, errors.New("rate limited"))

	_, err := a.Respond(context.Background(), "hello there")
	assert.ErrorContains(t, err, "rate limited")
}

func TestAssistant_NoModel(t *testing.T) {
	a := NewAssistant("s1", nil, tool.NewGroceryTools(newGroceryEngine(t)))

	reply, err := a.Respond(context.Background(), "tell me a joke")
	require.NoError(t, err)
	assert.Equal(t, NoModelReply, reply)

	reply, err = a.Respond(context.Background(), "show cart")
	require.NoError(t, err)
	assert.Equal(t, "Your cart is empty.", reply)
}

func TestAssistant_HistoryTrimmedAtUserBoundary(t *testing.T) {
	a := NewAssistant("s1", nil, tool.NewGroceryTools(newGroceryEngine(t)), func(o *Options) { o.MaxHistory = 3 })

	for range 3 {
		_, err := a.Respond(context.Background(), "show cart")
		require.NoError(t, err)
	}
	hist := a.History()
	require.Len(t, hist, 2)
	assert.Equal(t, model.RoleUser, hist[0].Role)

	a.Reset()
	assert.Empty(t, a.History())
}
