package core

import "time"

// OrderStatus is the fulfillment state of an order.
type OrderStatus string

const (
	StatusPreparing      OrderStatus = "Preparing"
	StatusOutForDelivery OrderStatus = "Out for delivery"
	StatusArrivingSoon   OrderStatus = "Arriving Soon"
	StatusDelivered      OrderStatus = "Delivered"
)

// Rank orders statuses along the fulfillment path. Unknown statuses rank -1.
func (s OrderStatus) Rank() int {
	switch s {
	case StatusPreparing:
		return 0
	case StatusOutForDelivery:
		return 1
	case StatusArrivingSoon:
		return 2
	case StatusDelivered:
		return 3
	default:
		return -1
	}
}

// Customer holds optional free-form delivery details.
type Customer struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"address,omitempty"`
}

// OrderItem is an immutable snapshot of a cart line at placement time.
type OrderItem struct {
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int    `json:"unitPrice"`
	LineTotal int    `json:"lineTotal"`
}

// Order is the persisted record of a placement. Only Status changes after creation.
type Order struct {
	OrderID   string      `json:"orderId"`
	Timestamp time.Time   `json:"timestamp"`
	Items     []OrderItem `json:"items"`
	Total     int         `json:"total"`
	Status    OrderStatus `json:"status"`
	Customer  Customer    `json:"customer"`
}

// IndexEntry locates an order record within a BlobStore.
type IndexEntry struct {
	OrderID         string    `json:"orderId"`
	Timestamp       time.Time `json:"timestamp"`
	StorageLocation string    `json:"storageLocation"`
}
