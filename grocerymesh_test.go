package grocerymesh

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/grocerymesh/catalog"
	"github.com/hupe1980/grocerymesh/config"
	"github.com/hupe1980/grocerymesh/core"
	"github.com/hupe1980/grocerymesh/internal/testutil"
	"github.com/hupe1980/grocerymesh/logging"
	"github.com/hupe1980/grocerymesh/store/memory"
)

type recordingPublisher struct {
	mu      sync.Mutex
	placed  []string
	changes []core.OrderStatus
}

func (p *recordingPublisher) PublishOrderPlaced(_ context.Context, o core.Order) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.placed = append(p.placed, o.OrderID)
	return nil
}

func (p *recordingPublisher) PublishStatusChanged(_ context.Context, o core.Order, _ core.OrderStatus) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, o.Status)
	return nil
}

type brokenStore struct{ core.BlobStore }

func (brokenStore) Exists(context.Context, string) (bool, error) { return false, errors.New("disk gone") }

func TestNew_SeedsStore(t *testing.T) {
	store := memory.New()
	m, err := New(context.Background(), func(o *Options) { o.Store = store })
	require.NoError(t, err)

	assert.Equal(t, 18, m.Catalog().Len())
	assert.ElementsMatch(t, []string{catalog.ItemsKey, catalog.RecipesKey}, store.Keys())
}

func TestNew_FallsBackToSeed(t *testing.T) {
	m, err := New(context.Background(), func(o *Options) { o.Store = brokenStore{memory.New()} })
	require.NoError(t, err)
	assert.Equal(t, 18, m.Catalog().Len())
}

func TestRespond_EndToEnd(t *testing.T) {
	ctx := context.Background()
	clock := testutil.NewClock(testutil.Epoch)
	pub := &recordingPublisher{}
	m, err := New(ctx, func(o *Options) {
		o.Now = clock.Now
		o.Publisher = pub
	})
	require.NoError(t, err)

	reply, err := m.Respond(ctx, "s1", "add milk")
	require.NoError(t, err)
	assert.Equal(t, "Added 1 x Milk - 1L to your cart.", reply)

	_, err = m.Respond(ctx, "s1", "add 2 milk")
	require.NoError(t, err)

	reply, err = m.Respond(ctx, "s1", "what's in my cart")
	require.NoError(t, err)
	assert.Equal(t, "3 x Milk - 1L, ₹186 ; Total: ₹186", reply)

	_, err = m.Respond(ctx, "s1", "place my order")
	require.NoError(t, err)

	seq, err := m.Ledger().History(ctx)
	require.NoError(t, err)
	entries := slices.Collect(seq)
	require.Len(t, entries, 1)
	id := entries[0].OrderID

	o, ok := m.Ledger().Get(ctx, id)
	require.True(t, ok)
	assert.Equal(t, 186, o.Total)
	assert.Equal(t, []string{id}, pub.placed)

	reply, err = m.Respond(ctx, "s1", "track "+id)
	require.NoError(t, err)
	assert.Equal(t, "Order "+id+" status: Preparing", reply)
	assert.Empty(t, pub.changes)

	clock.Advance(200 * time.Second)
	reply, err = m.Respond(ctx, "s2", "where is my order "+id)
	require.NoError(t, err)
	assert.Equal(t, "Order "+id+" status: Arriving Soon", reply)
	assert.Equal(t, []core.OrderStatus{core.StatusArrivingSoon}, pub.changes)

	assert.Equal(t, 2, m.Sessions().Len())
}

type debugRecorder struct {
	logging.NoOpLogger
	mu     sync.Mutex
	events []string
}

func (r *debugRecorder) Debug(msg string, _ ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, msg)
}

func TestNew_LoggerTracesEngineOperations(t *testing.T) {
	ctx := context.Background()
	rec := &debugRecorder{}
	m, err := New(ctx, func(o *Options) { o.Logger = rec })
	require.NoError(t, err)

	_, err = m.Respond(ctx, "s1", "add milk")
	require.NoError(t, err)

	assert.Contains(t, rec.events, "engine.before_operation")
	assert.Contains(t, rec.events, "engine.after_operation")
}

func TestHandler(t *testing.T) {
	m, err := New(context.Background())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPruneSessions(t *testing.T) {
	clock := testutil.NewClock(testutil.Epoch)
	m, err := New(context.Background(), func(o *Options) {
		o.Now = clock.Now
		o.IdleTTL = time.Minute
	})
	require.NoError(t, err)

	m.Session("a")
	clock.Advance(2 * time.Minute)
	assert.Equal(t, 1, m.PruneSessions())
	assert.Equal(t, 0, m.Sessions().Len())
}

func testConfig() config.Config {
	return config.Config{LogLevel: logging.LogLevelError, LogFormat: "text"}
}

func TestOpen_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig()
	cfg.Store = config.StoreRedis
	cfg.RedisAddr = mr.Addr()
	cfg.RedisPrefix = "it:"

	m, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, m.Close()) })

	assert.True(t, mr.Exists("it:"+catalog.ItemsKey))
	assert.Equal(t, 18, m.Catalog().Len())
}

func TestOpen_File(t *testing.T) {
	cfg := testConfig()
	cfg.Store = config.StoreFile
	cfg.DataDir = t.TempDir()

	m, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	assert.NoError(t, m.Close())
	assert.FileExists(t, cfg.DataDir+"/"+catalog.ItemsKey)
}

func TestOpen_UnknownBackends(t *testing.T) {
	cfg := testConfig()
	cfg.Store = "dynamo"
	_, err := Open(context.Background(), cfg)
	assert.ErrorIs(t, err, ErrUnknownBackend)

	cfg.Store = config.StoreMemory
	cfg.Model = "llama"
	_, err = Open(context.Background(), cfg)
	assert.ErrorIs(t, err, ErrUnknownBackend)
}
