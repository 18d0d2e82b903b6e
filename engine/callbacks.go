package engine

import (
	"context"

	"github.com/hupe1980/grocerymesh/core"
	"github.com/hupe1980/grocerymesh/events"
	"github.com/hupe1980/grocerymesh/logging"
)

// CallbackType defines the lifecycle points where callbacks run.
//
// Before callbacks may veto an operation by returning an error. All other
// callback types run after the operation committed, so their errors are
// logged and never change the operation's result.
type CallbackType string

const (
	// CallbackBeforeOperation runs before any engine operation.
	CallbackBeforeOperation CallbackType = "before_operation"

	// CallbackAfterOperation runs after an operation succeeded.
	CallbackAfterOperation CallbackType = "after_operation"

	// CallbackOnError runs when an operation failed.
	CallbackOnError CallbackType = "on_error"

	// CallbackOrderPlaced runs after an order was persisted and the cart cleared.
	CallbackOrderPlaced CallbackType = "order_placed"

	// CallbackStatusChanged runs after tracking advanced an order's status.
	CallbackStatusChanged CallbackType = "status_changed"
)

// Operation names passed to callbacks.
const (
	OpAddItem        = "add_item"
	OpRemoveItem     = "remove_item"
	OpUpdateQuantity = "update_quantity"
	OpListCart       = "list_cart"
	OpListCatalog    = "list_catalog"
	OpExpandRecipe   = "expand_recipe"
	OpPlaceOrder     = "place_order"
	OpTrackOrder     = "track_order"
	OpListHistory    = "list_history"
	OpClearCart      = "clear_cart"
)

// CallbackContext carries the information available at a lifecycle point.
type CallbackContext struct {
	// SessionID identifies the engine's session.
	SessionID string

	// Operation is one of the Op* names.
	Operation string

	// CallbackType indicates which hook triggered this execution.
	CallbackType CallbackType

	// Order is set for order_placed and status_changed.
	Order *core.Order

	// PreviousStatus is set for status_changed.
	PreviousStatus core.OrderStatus

	// Err is set for on_error.
	Err error

	// Metadata holds operation arguments such as the query or quantity.
	Metadata map[string]any
}

// Callback is a lifecycle hook.
type Callback interface {
	Type() CallbackType
	Execute(ctx context.Context, cbCtx *CallbackContext) error
}

// FunctionCallback wraps a function as a Callback.
//
// Example:
//
//	audit := NewFunctionCallback(CallbackAfterOperation,
//	    func(ctx context.Context, c *CallbackContext) error {
//	        log.Printf("%s: %s", c.SessionID, c.Operation)
//	        return nil
//	    })
type FunctionCallback struct {
	callbackType CallbackType
	fn           func(ctx context.Context, cbCtx *CallbackContext) error
}

// NewFunctionCallback creates a function-based callback.
func NewFunctionCallback(callbackType CallbackType, fn func(ctx context.Context, cbCtx *CallbackContext) error) *FunctionCallback {
	return &FunctionCallback{callbackType: callbackType, fn: fn}
}

// Type returns the callback type.
func (c *FunctionCallback) Type() CallbackType { return c.callbackType }

// Execute calls the wrapped function.
func (c *FunctionCallback) Execute(ctx context.Context, cbCtx *CallbackContext) error {
	return c.fn(ctx, cbCtx)
}

// CallbackManager is a registry of callbacks keyed by type.
//
// Callbacks run in registration order and the first error stops the chain.
// Registration is not synchronized; register everything before the engine
// is shared.
type CallbackManager struct {
	callbacks map[CallbackType][]Callback
}

// NewCallbackManager creates an empty manager.
func NewCallbackManager() *CallbackManager {
	return &CallbackManager{callbacks: make(map[CallbackType][]Callback)}
}

// RegisterCallback adds a callback.
func (cm *CallbackManager) RegisterCallback(callback Callback) {
	t := callback.Type()
	cm.callbacks[t] = append(cm.callbacks[t], callback)
}

// ExecuteCallbacks runs all callbacks registered for callbackType.
func (cm *CallbackManager) ExecuteCallbacks(ctx context.Context, callbackType CallbackType, cbCtx *CallbackContext) error {
	for _, cb := range cm.callbacks[callbackType] {
		if err := cb.Execute(ctx, cbCtx); err != nil {
			return err
		}
	}
	return nil
}

// EventCallbacks returns callbacks that forward order_placed and
// status_changed to p. Publish failures are logged and swallowed so that a
// broker outage never fails a committed placement.
func EventCallbacks(p events.Publisher, logger logging.Logger) []Callback {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return []Callback{
		NewFunctionCallback(CallbackOrderPlaced, func(ctx context.Context, c *CallbackContext) error {
			if c.Order == nil {
				return nil
			}
			if err := p.PublishOrderPlaced(ctx, *c.Order); err != nil {
				logger.Warn("events.publish_failed", "event", events.OrderPlacedRoutingKey, "order_id", c.Order.OrderID, "error", err)
			}
			return nil
		}),
		NewFunctionCallback(CallbackStatusChanged, func(ctx context.Context, c *CallbackContext) error {
			if c.Order == nil {
				return nil
			}
			if err := p.PublishStatusChanged(ctx, *c.Order, c.PreviousStatus); err != nil {
				logger.Warn("events.publish_failed", "event", events.StatusChangedRoutingKey, "order_id", c.Order.OrderID, "error", err)
			}
			return nil
		}),
	}
}

// LoggingCallbacks returns debug logging callbacks for the operation
// lifecycle: before, after and on error.
func LoggingCallbacks(logger logging.Logger) []Callback {
	return []Callback{
		NewLoggingCallback(CallbackBeforeOperation, logger),
		NewLoggingCallback(CallbackAfterOperation, logger),
		NewLoggingCallback(CallbackOnError, logger),
	}
}

// LoggingCallback logs every operation outcome at debug level.
type LoggingCallback struct {
	callbackType CallbackType
	logger       logging.Logger
}

// NewLoggingCallback creates a logging callback for callbackType.
func NewLoggingCallback(callbackType CallbackType, logger logging.Logger) *LoggingCallback {
	return &LoggingCallback{callbackType: callbackType, logger: logger}
}

// Type returns the callback type.
func (c *LoggingCallback) Type() CallbackType { return c.callbackType }

// Execute writes one structured log line.
func (c *LoggingCallback) Execute(_ context.Context, cbCtx *CallbackContext) error {
	if c.logger == nil {
		return nil
	}
	args := []any{"session_id", cbCtx.SessionID, "operation", cbCtx.Operation}
	if cbCtx.Err != nil {
		args = append(args, "kind", core.KindOf(cbCtx.Err), "error", cbCtx.Err)
	}
	c.logger.Debug("engine."+string(c.callbackType), args...)
	return nil
}
