package engine

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/grocerymesh/cart"
	"github.com/hupe1980/grocerymesh/catalog"
	"github.com/hupe1980/grocerymesh/core"
	"github.com/hupe1980/grocerymesh/logging"
	"github.com/hupe1980/grocerymesh/order"
	"github.com/hupe1980/grocerymesh/recipe"
	"github.com/hupe1980/grocerymesh/tracking"
)

// DefaultCatalogLimit caps the number of items rendered by ListCatalog.
const DefaultCatalogLimit = 30

// Options configures an Engine using the functional options pattern.
//
// Example:
//
//	e := engine.New(cat, ledger, tracker, func(o *engine.Options) {
//	    o.SessionID = "room-42"
//	    o.Logger = logger
//	})
type Options struct {
	// SessionID labels log lines and callback contexts.
	SessionID string

	// Logger provides structured logging. Defaults to NoOpLogger.
	Logger logging.Logger

	// CatalogLimit caps ListCatalog output. Zero or less uses the default.
	CatalogLimit int

	// Callbacks are registered in order on construction.
	Callbacks []Callback
}

// Engine is the per-session grocery engine. It owns exactly one cart and
// shares the catalog, ledger and tracker with other sessions.
//
// Every operation comes in two forms. The data form (Add, Remove, Place ...)
// returns typed results for programmatic callers such as the HTTP layer. The
// message form (AddItem, RemoveItem, PlaceOrder ...) returns a short
// voice-friendly sentence and is what the tool layer exposes to a model. On
// failure the message form returns the user-facing message of the typed
// error together with the error itself.
//
// Cart mutations are serialized by an internal mutex so concurrent HTTP
// requests for the same session cannot corrupt the cart. Placements across
// sessions are serialized by the shared ledger.
type Engine struct {
	sessionID    string
	catalog      *catalog.Catalog
	cart         *cart.Cart
	expander     *recipe.Expander
	ledger       *order.Ledger
	tracker      *tracking.Tracker
	callbacks    *CallbackManager
	logger       logging.Logger
	catalogLimit int

	mu sync.Mutex
}

// New creates an engine with an empty cart.
func New(cat *catalog.Catalog, ledger *order.Ledger, tracker *tracking.Tracker, optFns ...func(o *Options)) *Engine {
	opts := Options{Logger: logging.NoOpLogger{}, CatalogLimit: DefaultCatalogLimit}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.CatalogLimit <= 0 {
		opts.CatalogLimit = DefaultCatalogLimit
	}

	logger := logging.With(opts.Logger, "session_id", opts.SessionID)
	cm := NewCallbackManager()
	for _, cb := range opts.Callbacks {
		cm.RegisterCallback(cb)
	}

	return &Engine{
		sessionID:    opts.SessionID,
		catalog:      cat,
		cart:         cart.New(cat),
		expander:     recipe.New(cat, func(o *recipe.Options) { o.Logger = logger }),
		ledger:       ledger,
		tracker:      tracker,
		callbacks:    cm,
		logger:       logger,
		catalogLimit: opts.CatalogLimit,
	}
}

// SessionID returns the session this engine belongs to.
func (e *Engine) SessionID() string { return e.sessionID }

// Catalog returns the shared read-only catalog.
func (e *Engine) Catalog() *catalog.Catalog { return e.catalog }

// RegisterCallback adds a lifecycle hook.
func (e *Engine) RegisterCallback(cb Callback) { e.callbacks.RegisterCallback(cb) }

// Add adds quantity units of the item matching query.
func (e *Engine) Add(ctx context.Context, query string, quantity int) (core.CartLine, error) {
	var line core.CartLine
	err := e.do(ctx, OpAddItem, map[string]any{"query": query, "quantity": quantity}, func() error {
		var err error
		line, err = e.cart.Add(query, quantity)
		return err
	})
	return line, err
}

// Remove deletes the line matching query.
func (e *Engine) Remove(ctx context.Context, query string) (core.CartLine, error) {
	var line core.CartLine
	err := e.do(ctx, OpRemoveItem, map[string]any{"query": query}, func() error {
		var err error
		line, err = e.cart.Remove(query)
		return err
	})
	return line, err
}

// Update sets the quantity of the line matching query. A non-positive
// quantity removes the line.
func (e *Engine) Update(ctx context.Context, query string, quantity int) (core.CartLine, error) {
	var line core.CartLine
	err := e.do(ctx, OpUpdateQuantity, map[string]any{"query": query, "quantity": quantity}, func() error {
		var err error
		line, err = e.cart.UpdateQuantity(query, quantity)
		return err
	})
	return line, err
}

// Lines returns a snapshot of the cart and its total.
func (e *Engine) Lines() ([]core.CartLine, int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cart.Snapshot(), e.cart.Total()
}

// Expand adds the ingredients of the recipe matching name.
func (e *Engine) Expand(ctx context.Context, name string) (core.Recipe, []string, error) {
	var (
		r     core.Recipe
		added []string
	)
	err := e.do(ctx, OpExpandRecipe, map[string]any{"recipe": name}, func() error {
		var err error
		r, added, err = e.expander.Expand(e.cart, name)
		return err
	})
	return r, added, err
}

// Place turns the cart into an order. The cart is cleared only on success.
func (e *Engine) Place(ctx context.Context, customer core.Customer) (core.Order, error) {
	var o core.Order
	err := e.do(ctx, OpPlaceOrder, nil, func() error {
		var err error
		o, err = e.ledger.Place(ctx, e.cart, customer)
		return err
	})
	if err != nil {
		return core.Order{}, err
	}
	e.fire(ctx, &CallbackContext{CallbackType: CallbackOrderPlaced, Operation: OpPlaceOrder, Order: &o})
	return o, nil
}

// Track recomputes and persists the status of orderID.
func (e *Engine) Track(ctx context.Context, orderID string) (tracking.Result, error) {
	var res tracking.Result
	err := e.do(ctx, OpTrackOrder, map[string]any{"order_id": orderID}, func() error {
		var err error
		res, err = e.tracker.Track(ctx, orderID)
		return err
	})
	if err != nil {
		return tracking.Result{}, err
	}
	if res.Changed() {
		e.fire(ctx, &CallbackContext{
			CallbackType:   CallbackStatusChanged,
			Operation:      OpTrackOrder,
			Order:          &res.Order,
			PreviousStatus: res.Previous,
		})
	}
	return res, nil
}

// History returns the order index in placement order.
func (e *Engine) History(ctx context.Context) (iter.Seq[core.IndexEntry], error) {
	var seq iter.Seq[core.IndexEntry]
	err := e.do(ctx, OpListHistory, nil, func() error {
		var err error
		seq, err = e.ledger.History(ctx)
		return err
	})
	return seq, err
}

// Order returns a stored order by id.
func (e *Engine) Order(ctx context.Context, orderID string) (core.Order, bool) {
	return e.ledger.Get(ctx, orderID)
}

// Clear empties the cart.
func (e *Engine) Clear(ctx context.Context) error {
	return e.do(ctx, OpClearCart, nil, func() error {
		e.cart.Clear()
		return nil
	})
}

// AddItem is the message form of Add.
func (e *Engine) AddItem(ctx context.Context, query string, quantity int) (string, error) {
	line, err := e.Add(ctx, query, quantity)
	if err != nil {
		return core.MessageOf(err), err
	}
	return fmt.Sprintf("Added %d x %s to your cart.", quantity, line.Name), nil
}

// RemoveItem is the message form of Remove.
func (e *Engine) RemoveItem(ctx context.Context, query string) (string, error) {
	line, err := e.Remove(ctx, query)
	if err != nil {
		return core.MessageOf(err), err
	}
	return fmt.Sprintf("Removed %s from your cart.", line.Name), nil
}

// UpdateQuantity is the message form of Update.
func (e *Engine) UpdateQuantity(ctx context.Context, query string, quantity int) (string, error) {
	line, err := e.Update(ctx, query, quantity)
	if err != nil {
		return core.MessageOf(err), err
	}
	if line.Quantity == 0 {
		return fmt.Sprintf("Removed %s from your cart.", line.Name), nil
	}
	return fmt.Sprintf("Updated %s quantity to %d.", line.Name, line.Quantity), nil
}

// ListCart renders the cart as "2 x Milk - 1L, ₹124 ; ... ; Total: ₹186".
func (e *Engine) ListCart(ctx context.Context) (string, error) {
	var out string
	err := e.do(ctx, OpListCart, nil, func() error {
		out = RenderCart(e.cart.Snapshot(), e.cart.Total())
		return nil
	})
	return out, err
}

// ListCatalog renders at most the configured number of catalog items.
func (e *Engine) ListCatalog(ctx context.Context) (string, error) {
	var out string
	err := e.do(ctx, OpListCatalog, nil, func() error {
		lines := make([]string, 0, e.catalogLimit)
		for l := range e.catalog.List() {
			if len(lines) == e.catalogLimit {
				break
			}
			lines = append(lines, l)
		}
		out = "Catalog items: " + strings.Join(lines, "; ")
		return nil
	})
	return out, err
}

// ExpandRecipe is the message form of Expand.
func (e *Engine) ExpandRecipe(ctx context.Context, name string) (string, error) {
	_, added, err := e.Expand(ctx, name)
	if err != nil {
		return core.MessageOf(err), err
	}
	return fmt.Sprintf("I've added %s to your cart for '%s'.", strings.Join(added, ", "), name), nil
}

// PlaceOrder is the message form of Place.
func (e *Engine) PlaceOrder(ctx context.Context, customer core.Customer) (string, error) {
	o, err := e.Place(ctx, customer)
	if err != nil {
		return core.MessageOf(err), err
	}
	return fmt.Sprintf("Order placed! Your order id is %s.", o.OrderID), nil
}

// TrackOrder is the message form of Track.
func (e *Engine) TrackOrder(ctx context.Context, orderID string) (string, error) {
	res, err := e.Track(ctx, orderID)
	if err != nil {
		return core.MessageOf(err), err
	}
	return fmt.Sprintf("Order %s status: %s", res.Order.OrderID, res.Order.Status), nil
}

// ListHistory renders the order index as "id at timestamp ; ...".
func (e *Engine) ListHistory(ctx context.Context) (string, error) {
	seq, err := e.History(ctx)
	if err != nil {
		return core.MessageOf(err), err
	}
	return RenderHistory(seq), nil
}

// ClearCart is the message form of Clear.
func (e *Engine) ClearCart(ctx context.Context) (string, error) {
	if err := e.Clear(ctx); err != nil {
		return core.MessageOf(err), err
	}
	return "Your grocery list has been cleared.", nil
}

// RenderCart formats cart lines for speech.
func RenderCart(lines []core.CartLine, total int) string {
	if len(lines) == 0 {
		return "Your cart is empty."
	}
	parts := make([]string, 0, len(lines)+1)
	for _, l := range lines {
		parts = append(parts, fmt.Sprintf("%d x %s, %s", l.Quantity, l.Name, catalog.FormatPrice(l.LineTotal())))
	}
	parts = append(parts, "Total: "+catalog.FormatPrice(total))
	return strings.Join(parts, " ; ")
}

// RenderHistory formats index entries for speech.
func RenderHistory(entries iter.Seq[core.IndexEntry]) string {
	var parts []string
	for e := range entries {
		parts = append(parts, fmt.Sprintf("%s at %s", e.OrderID, e.Timestamp.UTC().Format(time.RFC3339)))
	}
	if len(parts) == 0 {
		return "No previous orders found."
	}
	return strings.Join(parts, " ; ")
}

// do runs fn under the engine lock, surrounded by lifecycle callbacks.
func (e *Engine) do(ctx context.Context, op string, meta map[string]any, fn func() error) error {
	before := &CallbackContext{
		SessionID:    e.sessionID,
		Operation:    op,
		CallbackType: CallbackBeforeOperation,
		Metadata:     meta,
	}
	if err := e.callbacks.ExecuteCallbacks(ctx, CallbackBeforeOperation, before); err != nil {
		return err
	}

	e.mu.Lock()
	err := fn()
	e.mu.Unlock()

	if err != nil {
		e.logger.Info("engine.operation.failed", "operation", op, "kind", core.KindOf(err), "error", err)
		e.fire(ctx, &CallbackContext{CallbackType: CallbackOnError, Operation: op, Metadata: meta, Err: err})
		return err
	}
	e.fire(ctx, &CallbackContext{CallbackType: CallbackAfterOperation, Operation: op, Metadata: meta})
	return nil
}

// fire runs post-commit callbacks. Their errors are logged only.
func (e *Engine) fire(ctx context.Context, cbCtx *CallbackContext) {
	cbCtx.SessionID = e.sessionID
	if err := e.callbacks.ExecuteCallbacks(ctx, cbCtx.CallbackType, cbCtx); err != nil {
		e.logger.Warn("engine.callback.failed", "type", cbCtx.CallbackType, "operation", cbCtx.Operation, "error", err)
	}
}
