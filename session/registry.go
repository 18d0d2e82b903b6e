package session

import (
	"iter"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/hupe1980/grocerymesh/agent"
	"github.com/hupe1980/grocerymesh/engine"
	"github.com/hupe1980/grocerymesh/logging"
)

// Session is one conversation: a cart-owning engine plus the assistant
// driving it.
type Session struct {
	ID        string
	Engine    *engine.Engine
	Assistant *agent.Assistant
	Created   time.Time

	mu       sync.Mutex
	lastSeen time.Time
}

// LastSeen returns the time of the last registry lookup of s.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) touch(t time.Time) {
	s.mu.Lock()
	s.lastSeen = t
	s.mu.Unlock()
}

// Factory builds the engine and assistant of a new session.
type Factory func(id string) (*engine.Engine, *agent.Assistant)

// Options configure a Registry.
type Options struct {
	// IdleTTL is how long an unused session survives Prune. Zero keeps
	// sessions forever.
	IdleTTL time.Duration
	Now     func() time.Time
	Logger  logging.Logger
}

// Registry is a concurrency-safe map of sessions.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	factory  Factory
	opts     Options
}

// NewRegistry creates an empty registry.
func NewRegistry(factory Factory, optFns ...func(o *Options)) *Registry {
	opts := Options{Now: time.Now, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Registry{sessions: make(map[string]*Session), factory: factory, opts: opts}
}

// Get returns the session for id, creating it on first use.
func (r *Registry) Get(id string) *Session {
	now := r.opts.Now()

	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if ok {
		s.touch(now)
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		s.touch(now)
		return s
	}
	e, a := r.factory(id)
	s = &Session{ID: id, Engine: e, Assistant: a, Created: now, lastSeen: now}
	r.sessions[id] = s
	r.opts.Logger.Info("session.created", "session_id", id)
	return s
}

// Lookup returns an existing session without creating one.
func (r *Registry) Lookup(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Delete drops a session. The cart is discarded; placed orders are kept by
// the ledger.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return false
	}
	delete(r.sessions, id)
	r.opts.Logger.Info("session.deleted", "session_id", id)
	return true
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// IDs yields the live session ids in sorted order.
func (r *Registry) IDs() iter.Seq[string] {
	r.mu.RLock()
	ids := slices.Sorted(maps.Keys(r.sessions))
	r.mu.RUnlock()
	return slices.Values(ids)
}

// Prune removes sessions idle for longer than IdleTTL and returns how many
// were removed.
func (r *Registry) Prune() int {
	if r.opts.IdleTTL <= 0 {
		return 0
	}
	cutoff := r.opts.Now().Add(-r.opts.IdleTTL)

	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, s := range r.sessions {
		if s.LastSeen().Before(cutoff) {
			delete(r.sessions, id)
			n++
		}
	}
	if n > 0 {
		r.opts.Logger.Info("session.pruned", "count", n)
	}
	return n
}
