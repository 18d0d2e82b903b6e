package session

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/grocerymesh/agent"
	"github.com/hupe1980/grocerymesh/catalog"
	"github.com/hupe1980/grocerymesh/engine"
	"github.com/hupe1980/grocerymesh/order"
	"github.com/hupe1980/grocerymesh/store/memory"
	"github.com/hupe1980/grocerymesh/tool"
	"github.com/hupe1980/grocerymesh/tracking"
)

func newFactory(calls *int) Factory {
	cat := catalog.FromSeed(catalog.DefaultSeed())
	ledger := order.New(memory.New())
	tracker := tracking.New(ledger)
	return func(id string) (*engine.Engine, *agent.Assistant) {
		*calls++
		e := engine.New(cat, ledger, tracker, func(o *engine.Options) { o.SessionID = id })
		return e, agent.NewAssistant(id, nil, tool.NewGroceryTools(e))
	}
}

func TestRegistry_GetCreatesOnce(t *testing.T) {
	var calls int
	r := NewRegistry(newFactory(&calls))

	a := r.Get("alice")
	b := r.Get("alice")
	assert.Same(t, a, b)
	assert.Equal(t, 1, calls)

	r.Get("bob")
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, []string{"alice", "bob"}, slices.Collect(r.IDs()))
}

func TestRegistry_CartsAreIsolated(t *testing.T) {
	var calls int
	r := NewRegistry(newFactory(&calls))
	ctx := context.Background()

	_, err := r.Get("alice").Engine.Add(ctx, "milk", 2)
	require.NoError(t, err)

	lines, _ := r.Get("bob").Engine.Lines()
	assert.Empty(t, lines)
	lines, total := r.Get("alice").Engine.Lines()
	assert.Len(t, lines, 1)
	assert.Equal(t, 124, total)
}

func TestRegistry_LookupAndDelete(t *testing.T) {
	var calls int
	r := NewRegistry(newFactory(&calls))

	_, ok := r.Lookup("alice")
	assert.False(t, ok)

	r.Get("alice")
	_, ok = r.Lookup("alice")
	assert.True(t, ok)

	assert.True(t, r.Delete("alice"))
	assert.False(t, r.Delete("alice"))
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_Prune(t *testing.T) {
	var calls int
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	r := NewRegistry(newFactory(&calls), func(o *Options) {
		o.IdleTTL = 10 * time.Minute
		o.Now = func() time.Time { return now }
	})

	r.Get("old")
	now = now.Add(8 * time.Minute)
	r.Get("fresh")
	now = now.Add(5 * time.Minute)

	assert.Equal(t, 1, r.Prune())
	_, ok := r.Lookup("fresh")
	assert.True(t, ok)
	_, ok = r.Lookup("old")
	assert.False(t, ok)
}

func TestRegistry_ConcurrentGet(t *testing.T) {
	var (
		calls int
		mu    sync.Mutex
	)
	inner := newFactory(&calls)
	r := NewRegistry(func(id string) (*engine.Engine, *agent.Assistant) {
		mu.Lock()
		defer mu.Unlock()
		return inner(id)
	})

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Get("shared")
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, calls)
}
