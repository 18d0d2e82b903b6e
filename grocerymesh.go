// Package grocerymesh wires the grocery ordering engine into a ready-to-use
// service. Most applications:
//  1. Create a GroceryMesh via New (or Open from config.Config)
//  2. Talk to a session through Respond, or mount Handler on an HTTP server
//  3. Call Close on shutdown
//
// All sessions share one catalog, one order ledger and one status tracker
// backed by the same BlobStore. Each session owns its own cart.
package grocerymesh

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/grocerymesh/agent"
	"github.com/hupe1980/grocerymesh/catalog"
	"github.com/hupe1980/grocerymesh/core"
	"github.com/hupe1980/grocerymesh/engine"
	"github.com/hupe1980/grocerymesh/events"
	"github.com/hupe1980/grocerymesh/logging"
	"github.com/hupe1980/grocerymesh/model"
	"github.com/hupe1980/grocerymesh/order"
	"github.com/hupe1980/grocerymesh/server"
	"github.com/hupe1980/grocerymesh/session"
	"github.com/hupe1980/grocerymesh/store/memory"
	"github.com/hupe1980/grocerymesh/tool"
	"github.com/hupe1980/grocerymesh/tracking"
)

// Options configures a GroceryMesh.
type Options struct {
	// Store holds the catalog, recipes and orders. Defaults to memory.
	Store core.BlobStore

	// Seed is written to an empty store and used when the store cannot be read.
	Seed catalog.Seed

	// Model drives free-form conversation. Nil limits sessions to quick commands.
	Model model.Model

	// AssistantName is spoken in the system prompt.
	AssistantName string

	// Publisher receives order events. Defaults to events.NopPublisher.
	Publisher events.Publisher

	// IdleTTL bounds how long an inactive session is kept by PruneSessions.
	IdleTTL time.Duration

	// Now overrides the clock for order timestamps and status tracking.
	Now func() time.Time

	Logger logging.Logger

	closers []func() error
}

// GroceryMesh aggregates the shared grocery services and the session registry.
type GroceryMesh struct {
	opts     Options
	catalog  *catalog.Catalog
	ledger   *order.Ledger
	tracker  *tracking.Tracker
	sessions *session.Registry
}

// New loads the catalog and wires the services. A catalog that cannot be
// loaded from the store falls back to the seed.
func New(ctx context.Context, optFns ...func(o *Options)) (*GroceryMesh, error) {
	opts := Options{
		Seed:      catalog.DefaultSeed(),
		Publisher: events.NopPublisher{},
		Now:       time.Now,
		Logger:    logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Store == nil {
		opts.Store = memory.New()
	}

	cat, err := catalog.EnsureLoaded(ctx, opts.Store, opts.Seed, func(o *catalog.Options) { o.Logger = opts.Logger })
	if err != nil {
		if !errors.Is(err, core.ErrStorageUnavailable) {
			return nil, fmt.Errorf("load catalog: %w", err)
		}
		opts.Logger.Warn("catalog.load.fallback", "error", err)
		cat = catalog.FromSeed(opts.Seed)
	}

	ledger := order.New(opts.Store, func(o *order.Options) {
		o.Now = opts.Now
		o.Logger = opts.Logger
	})
	tracker := tracking.New(ledger, func(o *tracking.Options) {
		o.Now = opts.Now
		o.Logger = opts.Logger
	})

	m := &GroceryMesh{opts: opts, catalog: cat, ledger: ledger, tracker: tracker}
	m.sessions = session.NewRegistry(m.newSession, func(o *session.Options) {
		o.IdleTTL = opts.IdleTTL
		o.Now = opts.Now
		o.Logger = opts.Logger
	})
	return m, nil
}

func (m *GroceryMesh) newSession(id string) (*engine.Engine, *agent.Assistant) {
	logger := logging.With(m.opts.Logger, "session_id", id)
	e := engine.New(m.catalog, m.ledger, m.tracker, func(o *engine.Options) {
		o.SessionID = id
		o.Logger = logger
		o.Callbacks = engine.EventCallbacks(m.opts.Publisher, logger)
		if _, quiet := m.opts.Logger.(logging.NoOpLogger); !quiet {
			o.Callbacks = append(o.Callbacks, engine.LoggingCallbacks(logger)...)
		}
	})
	a := agent.NewAssistant(id, m.opts.Model, tool.NewGroceryTools(e), func(o *agent.Options) {
		o.Instruction = agent.GroceryInstruction(m.opts.AssistantName, m.catalog)
		o.Logger = logger
	})
	return e, a
}

// Catalog returns the shared catalog.
func (m *GroceryMesh) Catalog() *catalog.Catalog { return m.catalog }

// Ledger returns the shared order ledger.
func (m *GroceryMesh) Ledger() *order.Ledger { return m.ledger }

// Sessions returns the session registry.
func (m *GroceryMesh) Sessions() *session.Registry { return m.sessions }

// Session returns the session for id, creating it on first use.
func (m *GroceryMesh) Session(id string) *session.Session { return m.sessions.Get(id) }

// Respond passes one utterance to the assistant of session id.
func (m *GroceryMesh) Respond(ctx context.Context, sessionID, text string) (string, error) {
	return m.sessions.Get(sessionID).Assistant.Respond(ctx, text)
}

// PruneSessions drops sessions idle longer than Options.IdleTTL.
func (m *GroceryMesh) PruneSessions() int { return m.sessions.Prune() }

// Handler returns the HTTP API over this mesh's sessions.
func (m *GroceryMesh) Handler(optFns ...func(o *server.Options)) *server.Server {
	fns := append([]func(o *server.Options){func(o *server.Options) { o.Logger = m.opts.Logger }}, optFns...)
	return server.New(m.sessions, m.catalog, fns...)
}

// Close releases connections opened by Open, in reverse order.
func (m *GroceryMesh) Close() error {
	var errs []error
	for i := len(m.opts.closers) - 1; i >= 0; i-- {
		if err := m.opts.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	m.opts.closers = nil
	return errors.Join(errs...)
}
