// Package engine wires the grocery components into one per-session facade.
//
// An Engine owns a single cart and borrows the shared catalog, order ledger
// and status tracker. It exposes the narrow call surface used by the
// dialogue layer:
//
//	addItem(query, quantity?)     removeItem(query)
//	updateQuantity(query, qty)    listCart()
//	listCatalog()                 expandRecipe(name)
//	placeOrder(customer?)         trackOrder(orderId)
//	listHistory()                 clearCart()
//
// # Lifecycle Hooks
//
// A CallbackManager runs hooks around every operation:
//
//	before_operation ──► operation ──┬─► after_operation
//	                                 └─► on_error
//	place_order success ─► order_placed
//	track_order advance ─► status_changed
//
// Before hooks can veto an operation. Every other hook runs after the
// operation committed, so a failing hook is logged and ignored. EventCallbacks
// uses this to publish order events to a broker on a best-effort basis.
//
// # Errors
//
// Failures are *core.Error values. Callers branch on them with errors.Is:
//
//	if _, err := e.Add(ctx, "caviar", 1); errors.Is(err, core.ErrItemNotFound) {
//	    // ask the user to rephrase
//	}
package engine
