package testutil

import (
	"fmt"

	"github.com/hupe1980/grocerymesh/catalog"
	"github.com/hupe1980/grocerymesh/core"
	"github.com/hupe1980/grocerymesh/engine"
	"github.com/hupe1980/grocerymesh/order"
	"github.com/hupe1980/grocerymesh/store/memory"
	"github.com/hupe1980/grocerymesh/tracking"
)

// Fixture is a fully wired single-session setup.
type Fixture struct {
	Store   core.BlobStore
	Catalog *catalog.Catalog
	Ledger  *order.Ledger
	Tracker *tracking.Tracker
	Engine  *engine.Engine
	Clock   *Clock
}

// FixtureBuilder assembles a Fixture with fluent chaining.
// Example:
//
//	fx := NewFixtureBuilder().Items(core.CatalogItem{Name: "Milk - 1L", Price: 62}).Build()
type FixtureBuilder struct {
	store     core.BlobStore
	seed      catalog.Seed
	clock     *Clock
	sessionID string
	callbacks []engine.Callback
}

// NewFixtureBuilder starts from the default seed, an in-memory store and a
// clock at Epoch.
func NewFixtureBuilder() *FixtureBuilder {
	return &FixtureBuilder{
		store:     memory.New(),
		seed:      catalog.DefaultSeed(),
		clock:     NewClock(Epoch),
		sessionID: "test-session",
	}
}

// Store replaces the backing store (chainable).
func (b *FixtureBuilder) Store(s core.BlobStore) *FixtureBuilder {
	b.store = s
	return b
}

// Items replaces the catalog items; recipes are kept (chainable).
func (b *FixtureBuilder) Items(items ...core.CatalogItem) *FixtureBuilder {
	b.seed.Items = items
	return b
}

// Recipes replaces the recipe table (chainable).
func (b *FixtureBuilder) Recipes(recipes ...core.Recipe) *FixtureBuilder {
	b.seed.Recipes = recipes
	return b
}

// Clock replaces the clock (chainable).
func (b *FixtureBuilder) Clock(c *Clock) *FixtureBuilder {
	b.clock = c
	return b
}

// Session sets the engine's session id (chainable).
func (b *FixtureBuilder) Session(id string) *FixtureBuilder {
	b.sessionID = id
	return b
}

// Callback registers an engine callback (chainable).
func (b *FixtureBuilder) Callback(cb engine.Callback) *FixtureBuilder {
	b.callbacks = append(b.callbacks, cb)
	return b
}

// Build wires the fixture. Order ids use a counter suffix so they are
// predictable: <timestamp>-000001, <timestamp>-000002, ...
func (b *FixtureBuilder) Build() *Fixture {
	var n int
	cat := catalog.FromSeed(b.seed)
	ledger := order.New(b.store, func(o *order.Options) {
		o.Now = b.clock.Now
		o.Suffix = func() string {
			n++
			return fmt.Sprintf("%06d", n)
		}
	})
	tracker := tracking.New(ledger, func(o *tracking.Options) { o.Now = b.clock.Now })
	e := engine.New(cat, ledger, tracker, func(o *engine.Options) {
		o.SessionID = b.sessionID
		o.Callbacks = b.callbacks
	})
	return &Fixture{Store: b.store, Catalog: cat, Ledger: ledger, Tracker: tracker, Engine: e, Clock: b.clock}
}
