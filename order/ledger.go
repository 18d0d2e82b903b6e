// Package order persists placed orders and their append-only index.
package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/hupe1980/grocerymesh/core"
	"github.com/hupe1980/grocerymesh/logging"
)

// Default storage layout.
const (
	DefaultPrefix   = "orders/"
	DefaultIndexKey = "orders/orders_index.json"
	idTimeLayout    = "20060102150405"
)

// Cart is the subset of cart behaviour the ledger consumes.
type Cart interface {
	Snapshot() []core.CartLine
	Clear()
}

// Options configure a Ledger.
type Options struct {
	Prefix   string
	IndexKey string
	Now      func() time.Time
	Suffix   func() string
	Logger   logging.Logger
}

// Ledger places orders into a core.BlobStore. Placements and status writes
// within one Ledger are serialized; writers in other processes sharing the
// store are not coordinated.
type Ledger struct {
	store core.BlobStore
	opts  Options
	mu    sync.Mutex
}

// New creates a Ledger over store.
func New(store core.BlobStore, optFns ...func(o *Options)) *Ledger {
	opts := Options{
		Prefix:   DefaultPrefix,
		IndexKey: DefaultIndexKey,
		Now:      time.Now,
		Suffix:   RandomSuffix,
		Logger:   logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Ledger{store: store, opts: opts}
}

// RandomSuffix returns six lower-case hex characters.
func RandomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
}

// NewOrderID formats t to second precision in UTC and appends suffix.
func NewOrderID(t time.Time, suffix string) string {
	return t.UTC().Format(idTimeLayout) + "-" + suffix
}

// RecordKey returns the storage key of an order record.
func (l *Ledger) RecordKey(orderID string) string {
	return fmt.Sprintf("%sorder_%s.json", l.opts.Prefix, orderID)
}

// Place snapshots c into a new order, persists the record, appends it to the
// index and finally clears c. On any persistence failure the cart is left
// untouched and no index entry survives.
func (l *Ledger) Place(ctx context.Context, c Cart, customer core.Customer) (core.Order, error) {
	lines := c.Snapshot()
	if len(lines) == 0 {
		return core.Order{}, core.NewError(core.KindEmptyCart, "Your cart is empty, nothing to place.")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.opts.Now().UTC()
	o := core.Order{
		OrderID:   NewOrderID(now, l.opts.Suffix()),
		Timestamp: now,
		Items:     make([]core.OrderItem, 0, len(lines)),
		Status:    core.StatusPreparing,
		Customer:  customer,
	}
	for _, ln := range lines {
		o.Items = append(o.Items, core.OrderItem{
			Name:      ln.Name,
			Quantity:  ln.Quantity,
			UnitPrice: ln.UnitPrice,
			LineTotal: ln.LineTotal(),
		})
		o.Total += ln.LineTotal()
	}

	data, err := json.MarshalIndent(o, "", "  ")
	if err != nil {
		return core.Order{}, fmt.Errorf("encode order: %w", err)
	}

	key := l.RecordKey(o.OrderID)
	if err := l.store.Put(ctx, key, data); err != nil {
		l.opts.Logger.Error("order.place.persist_failed", "order_id", o.OrderID, "error", err)
		return core.Order{}, core.WrapError(core.KindPersistenceFailure, err, "Sorry, I couldn't save your order. Your cart is unchanged.")
	}

	if err := l.appendIndex(ctx, core.IndexEntry{OrderID: o.OrderID, Timestamp: now, StorageLocation: key}); err != nil {
		l.opts.Logger.Error("order.place.index_failed", "order_id", o.OrderID, "error", err)
		if derr := l.store.Delete(ctx, key); derr != nil && !errors.Is(derr, core.ErrNotFound) {
			l.opts.Logger.Warn("order.place.rollback_failed", "order_id", o.OrderID, "error", derr)
		}
		return core.Order{}, core.WrapError(core.KindPersistenceFailure, err, "Sorry, I couldn't save your order. Your cart is unchanged.")
	}

	c.Clear()
	l.opts.Logger.Info("order.placed", "order_id", o.OrderID, "items", len(o.Items), "total", o.Total)
	return o, nil
}

// appendIndex rewrites the index with e appended. An index that exists but
// cannot be decoded is an error here, so a write never drops earlier entries.
func (l *Ledger) appendIndex(ctx context.Context, e core.IndexEntry) error {
	var entries []core.IndexEntry
	data, err := l.store.Get(ctx, l.opts.IndexKey)
	switch {
	case errors.Is(err, core.ErrNotFound):
	case err != nil:
		return err
	default:
		if err := json.Unmarshal(data, &entries); err != nil {
			return fmt.Errorf("decode index: %w", err)
		}
	}
	entries = append(entries, e)
	data, err = json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	return l.store.Put(ctx, l.opts.IndexKey, data)
}

// readIndex returns the index for readers. A missing or undecodable index is
// empty.
func (l *Ledger) readIndex(ctx context.Context) ([]core.IndexEntry, error) {
	data, err := l.store.Get(ctx, l.opts.IndexKey)
	if errors.Is(err, core.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var entries []core.IndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		l.opts.Logger.Warn("order.index.corrupt", "key", l.opts.IndexKey, "error", err)
		return nil, nil
	}
	return entries, nil
}

// History returns the index in placement order. The sequence is backed by a
// single read and may be iterated repeatedly.
func (l *Ledger) History(ctx context.Context) (iter.Seq[core.IndexEntry], error) {
	entries, err := l.readIndex(ctx)
	if err != nil {
		return nil, core.WrapError(core.KindStorageUnavailable, err, "Order history is unavailable right now.")
	}
	return func(yield func(core.IndexEntry) bool) {
		for _, e := range entries {
			if !yield(e) {
				return
			}
		}
	}, nil
}

// Get returns the order for orderID. Unknown ids and unreadable records both
// report false.
func (l *Ledger) Get(ctx context.Context, orderID string) (core.Order, bool) {
	entry, ok := l.lookup(ctx, orderID)
	if !ok {
		return core.Order{}, false
	}
	data, err := l.store.Get(ctx, entry.StorageLocation)
	if err != nil {
		l.opts.Logger.Warn("order.record.unreadable", "order_id", orderID, "error", err)
		return core.Order{}, false
	}
	var o core.Order
	if err := json.Unmarshal(data, &o); err != nil {
		l.opts.Logger.Warn("order.record.corrupt", "order_id", orderID, "error", err)
		return core.Order{}, false
	}
	return o, true
}

func (l *Ledger) lookup(ctx context.Context, orderID string) (core.IndexEntry, bool) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return core.IndexEntry{}, false
	}
	entries, err := l.readIndex(ctx)
	if err != nil {
		l.opts.Logger.Warn("order.index.unreadable", "error", err)
		return core.IndexEntry{}, false
	}
	for _, e := range entries {
		if e.OrderID == orderID {
			return e, true
		}
	}
	return core.IndexEntry{}, false
}

// AdvanceStatus moves the stored status of orderID forward to status. The
// stored status is read and compared under the ledger lock; when it already
// ranks at or above status nothing is written. It returns the status stored
// before the call and whether the record was rewritten. Only the status field
// of the record changes.
func (l *Ledger) AdvanceStatus(ctx context.Context, orderID string, status core.OrderStatus) (core.OrderStatus, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.lookup(ctx, orderID)
	if !ok {
		return "", false, core.NewError(core.KindOrderNotFound, "Order %s not found.", orderID)
	}
	data, err := l.store.Get(ctx, entry.StorageLocation)
	if err != nil {
		return "", false, core.WrapError(core.KindPersistenceFailure, err, "Order %s could not be read.", orderID)
	}
	stored := core.OrderStatus(gjson.GetBytes(data, "status").String())
	if status.Rank() <= stored.Rank() {
		return stored, false, nil
	}
	patched, err := sjson.SetBytes(data, "status", string(status))
	if err != nil {
		return stored, false, fmt.Errorf("patch status: %w", err)
	}
	if err := l.store.Put(ctx, entry.StorageLocation, patched); err != nil {
		return stored, false, core.WrapError(core.KindPersistenceFailure, err, "Order %s could not be updated.", orderID)
	}
	return stored, true, nil
}
