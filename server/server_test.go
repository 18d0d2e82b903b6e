package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/hupe1980/grocerymesh/agent"
	"github.com/hupe1980/grocerymesh/core"
	"github.com/hupe1980/grocerymesh/engine"
	"github.com/hupe1980/grocerymesh/internal/testutil"
	"github.com/hupe1980/grocerymesh/session"
	"github.com/hupe1980/grocerymesh/tool"
)

type testServer struct {
	*Server
	fx    *testutil.Fixture
	spans *tracetest.SpanRecorder
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	fx := testutil.NewFixtureBuilder().Build()
	reg := session.NewRegistry(func(id string) (*engine.Engine, *agent.Assistant) {
		e := engine.New(fx.Catalog, fx.Ledger, fx.Tracker, func(o *engine.Options) { o.SessionID = id })
		return e, agent.NewAssistant(id, nil, tool.NewGroceryTools(e))
	})

	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))

	return &testServer{
		Server: New(reg, fx.Catalog, func(o *Options) { o.TracerProvider = tp }),
		fx:     fx,
		spans:  spans,
	}
}

func (ts *testServer) do(t *testing.T, method, path, sessionID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if sessionID != "" {
		req.Header.Set(HeaderSessionID, sessionID)
	}
	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","sessions":0}`, rec.Body.String())
}

func TestCatalog(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/catalog", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cat := decode[catalogResponse](t, rec)
	assert.Len(t, cat.Items, 18)
	assert.Len(t, cat.Recipes, 4)

	rec = ts.do(t, http.MethodGet, "/catalog?q=milk", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Milk - 1L", decode[core.CatalogItem](t, rec).Name)

	rec = ts.do(t, http.MethodGet, "/catalog?q=caviar", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "ITEM_NOT_FOUND", decode[errorResponse](t, rec).Error)
}

func TestCheckoutFlow(t *testing.T) {
	ts := newTestServer(t)
	const sid = "alice"

	rec := ts.do(t, http.MethodPost, "/cart/items", sid, map[string]any{"item": "milk"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, sid, rec.Header().Get(HeaderSessionID))

	rec = ts.do(t, http.MethodPost, "/cart/items", sid, map[string]any{"item": "milk", "quantity": 2})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 3, decode[lineResponse](t, rec).Line.Quantity)

	rec = ts.do(t, http.MethodGet, "/cart", sid, nil)
	cart := decode[cartResponse](t, rec)
	assert.Equal(t, 186, cart.Total)
	assert.Equal(t, "3 x Milk - 1L, ₹186 ; Total: ₹186", cart.Summary)

	rec = ts.do(t, http.MethodPost, "/orders", sid, core.Customer{Name: "Alice"})
	require.Equal(t, http.StatusCreated, rec.Code)
	o := decode[core.Order](t, rec)
	assert.Equal(t, 186, o.Total)
	assert.Equal(t, core.StatusPreparing, o.Status)
	assert.Equal(t, "Alice", o.Customer.Name)

	rec = ts.do(t, http.MethodGet, "/cart", sid, nil)
	assert.Empty(t, decode[cartResponse](t, rec).Lines)

	rec = ts.do(t, http.MethodGet, "/orders", sid, nil)
	orders := decode[ordersResponse](t, rec).Orders
	require.Len(t, orders, 1)
	assert.Equal(t, o.OrderID, orders[0].OrderID)

	rec = ts.do(t, http.MethodGet, "/orders/"+o.OrderID, sid, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	ts.fx.Clock.Advance(90 * time.Second)
	rec = ts.do(t, http.MethodGet, "/orders/"+o.OrderID+"/status", sid, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	st := decode[statusResponse](t, rec)
	assert.Equal(t, core.StatusOutForDelivery, st.Status)
	assert.Equal(t, core.StatusPreparing, st.PreviousStatus)
	assert.True(t, st.Changed)
}

func TestCartItemRoutes(t *testing.T) {
	ts := newTestServer(t)
	const sid = "bob"

	ts.do(t, http.MethodPost, "/cart/items", sid, map[string]any{"item": "bread", "quantity": 2})

	rec := ts.do(t, http.MethodPut, "/cart/items/bread", sid, map[string]any{"quantity": 5})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, decode[lineResponse](t, rec).Line.Quantity)

	rec = ts.do(t, http.MethodDelete, "/cart/items/bread", sid, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/cart/items/bread", sid, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "ITEM_NOT_IN_CART", decode[errorResponse](t, rec).Error)

	rec = ts.do(t, http.MethodPost, "/cart/items", sid, map[string]any{"item": "bread", "quantity": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Quantity must be a positive number, got 0.", decode[errorResponse](t, rec).Message)

	ts.do(t, http.MethodPost, "/cart/items", sid, map[string]any{"item": "bread"})
	rec = ts.do(t, http.MethodDelete, "/cart", sid, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = ts.do(t, http.MethodGet, "/cart", sid, nil)
	assert.Empty(t, decode[cartResponse](t, rec).Lines)
}

func TestRecipesAndErrors(t *testing.T) {
	ts := newTestServer(t)
	const sid = "carol"

	rec := ts.do(t, http.MethodPost, "/recipes/pasta%20for%20two", sid, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"Pasta - 500g", "Tomato Pasta Sauce"}, decode[recipeResponse](t, rec).Added)

	rec = ts.do(t, http.MethodPost, "/recipes/nonexistent", sid, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "RECIPE_NOT_FOUND", decode[errorResponse](t, rec).Error)

	rec = ts.do(t, http.MethodPost, "/orders", "dave", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "EMPTY_CART", decode[errorResponse](t, rec).Error)

	rec = ts.do(t, http.MethodGet, "/orders/nope/status", sid, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodPost, "/cart/items", sid, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/cart/items", bytes.NewBufferString("{"))
	rr := httptest.NewRecorder()
	ts.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSessionsAreIsolated(t *testing.T) {
	ts := newTestServer(t)

	ts.do(t, http.MethodPost, "/cart/items", "alice", map[string]any{"item": "milk"})
	rec := ts.do(t, http.MethodGet, "/cart", "bob", nil)
	assert.Empty(t, decode[cartResponse](t, rec).Lines)

	rec = ts.do(t, http.MethodGet, "/cart", "", nil)
	assert.NotEmpty(t, rec.Header().Get(HeaderSessionID))
}

func TestSessionRoutes(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/sessions", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"sessions":[]}`, rec.Body.String())

	ts.do(t, http.MethodPost, "/cart/items", "bob", map[string]any{"item": "milk"})
	ts.do(t, http.MethodGet, "/cart", "alice", nil)

	rec = ts.do(t, http.MethodGet, "/sessions", "", nil)
	assert.Equal(t, []string{"alice", "bob"}, decode[sessionsResponse](t, rec).Sessions)

	rec = ts.do(t, http.MethodDelete, "/session", "bob", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, http.MethodGet, "/sessions", "", nil)
	assert.Equal(t, []string{"alice"}, decode[sessionsResponse](t, rec).Sessions)

	rec = ts.do(t, http.MethodDelete, "/session", "bob", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "SESSION_NOT_FOUND", decode[errorResponse](t, rec).Error)

	rec = ts.do(t, http.MethodDelete, "/session", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// A returning client starts with an empty cart.
	rec = ts.do(t, http.MethodGet, "/cart", "bob", nil)
	assert.Empty(t, decode[cartResponse](t, rec).Lines)
}

func TestChat(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/chat", "erin", chatRequest{Text: "add 2 milk"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Added 2 x Milk - 1L to your cart.", decode[chatResponse](t, rec).Reply)

	rec = ts.do(t, http.MethodGet, "/cart", "erin", nil)
	assert.Equal(t, 124, decode[cartResponse](t, rec).Total)

	rec = ts.do(t, http.MethodPost, "/chat", "erin", chatRequest{Text: "sing me a song"})
	assert.Equal(t, agent.NoModelReply, decode[chatResponse](t, rec).Reply)
}

func TestTraceSpans(t *testing.T) {
	ts := newTestServer(t)

	ts.do(t, http.MethodGet, "/orders/missing/status", "x", nil)
	ts.do(t, http.MethodGet, "/health", "", nil)

	ended := ts.spans.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, "GET /orders/{id}/status", ended[0].Name())
	assert.Equal(t, "GET /health", ended[1].Name())
	assert.NotEmpty(t, ended[0].Events(), "error is recorded on the span")
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(core.NewError(core.KindStorageUnavailable, "down")))
	assert.Equal(t, http.StatusInternalServerError, statusFor(core.NewError(core.KindPersistenceFailure, "write")))
	assert.Equal(t, http.StatusInternalServerError, statusFor(assert.AnError))
}
