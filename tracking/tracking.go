// Package tracking derives order status from elapsed time since placement.
package tracking

import (
	"context"
	"time"

	"github.com/hupe1980/grocerymesh/core"
	"github.com/hupe1980/grocerymesh/logging"
)

// Thresholds after which an order advances to the next status.
const (
	OutForDeliveryAfter = 60 * time.Second
	ArrivingSoonAfter   = 180 * time.Second
	DeliveredAfter      = 300 * time.Second
)

// StatusAt maps the elapsed time since placement to a status.
func StatusAt(elapsed time.Duration) core.OrderStatus {
	switch {
	case elapsed < OutForDeliveryAfter:
		return core.StatusPreparing
	case elapsed < ArrivingSoonAfter:
		return core.StatusOutForDelivery
	case elapsed < DeliveredAfter:
		return core.StatusArrivingSoon
	default:
		return core.StatusDelivered
	}
}

// Ledger is the order storage the tracker reads from and writes to.
type Ledger interface {
	Get(ctx context.Context, orderID string) (core.Order, bool)
	// AdvanceStatus moves the stored status forward to status unless it
	// already ranks at or above it, returning the previously stored status
	// and whether a write happened.
	AdvanceStatus(ctx context.Context, orderID string, status core.OrderStatus) (core.OrderStatus, bool, error)
}

// Result is the outcome of a Track call.
type Result struct {
	Order    core.Order
	Previous core.OrderStatus
}

// Changed reports whether tracking advanced the stored status.
func (r Result) Changed() bool { return r.Previous != r.Order.Status }

// Options configure a Tracker.
type Options struct {
	Now    func() time.Time
	Logger logging.Logger
}

// Tracker evaluates status on demand; there is no background timer.
type Tracker struct {
	ledger Ledger
	now    func() time.Time
	logger logging.Logger
}

// New creates a Tracker.
func New(ledger Ledger, optFns ...func(o *Options)) *Tracker {
	opts := Options{Now: time.Now, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Tracker{ledger: ledger, now: opts.Now, logger: opts.Logger}
}

// Track recomputes the status of orderID and writes it back. The stored
// status never moves backward, and of concurrent Track calls only the one
// whose write advanced the record reports a change. A failed write is logged
// and the computed status is still returned.
func (t *Tracker) Track(ctx context.Context, orderID string) (Result, error) {
	o, ok := t.ledger.Get(ctx, orderID)
	if !ok {
		return Result{}, core.NewError(core.KindOrderNotFound, "Order %s not found.", orderID)
	}

	prev := o.Status
	next := StatusAt(t.now().Sub(o.Timestamp))
	if prev.Rank() > next.Rank() {
		next = prev
	}
	o.Status = next

	if next == prev {
		return Result{Order: o, Previous: prev}, nil
	}

	stored, changed, err := t.ledger.AdvanceStatus(ctx, o.OrderID, next)
	if err != nil {
		t.logger.Warn("order.status.persist_failed", "order_id", o.OrderID, "status", next, "error", err)
		return Result{Order: o, Previous: prev}, nil
	}
	if !changed {
		// Another caller advanced the record first.
		if stored.Rank() > next.Rank() {
			o.Status = stored
		}
		return Result{Order: o, Previous: o.Status}, nil
	}
	t.logger.Info("order.status.changed", "order_id", o.OrderID, "from", stored, "to", next)
	return Result{Order: o, Previous: stored}, nil
}
