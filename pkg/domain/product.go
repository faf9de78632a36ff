// Package domain defines the catalogue, cart and order value types together
// with the merge and aggregation rules used by stocktake.
package domain

import (
	"strings"
	"time"
)

const (
	// UnknownItemDescription labels a scanned code that is absent from the catalogue.
	UnknownItemDescription = "Unknown Item"
	// UnknownReportDescription labels a report row whose code is no longer catalogued.
	UnknownReportDescription = "Unknown"
)

// Product is a catalogue entry keyed by its canonical code.
type Product struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
}

// CartItem is a product line in the order being built.
type CartItem struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
	Quantity    int    `json:"quantity"`
}

// Order is an immutable snapshot of a finalized cart.
type Order struct {
	ID    string     `json:"id"`
	Date  time.Time  `json:"date"`
	Items []CartItem `json:"items"`
}

// CanonicalCode returns the stored form of a product code.
// Every comparison and every write of a code goes through it.
func CanonicalCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// SameCode reports whether two codes identify the same product.
func SameCode(a, b string) bool {
	return CanonicalCode(a) == CanonicalCode(b)
}

// NewOrder freezes items into an order. The items slice is copied so later
// cart or catalogue edits never reach the stored order.
func NewOrder(id string, at time.Time, items []CartItem) Order {
	return Order{
		ID:    id,
		Date:  at.UTC(),
		Items: cloneItems(items),
	}
}

// Clone returns a deep copy of the order.
func (o Order) Clone() Order {
	o.Items = cloneItems(o.Items)
	return o
}

// TotalQuantity sums item quantities.
func (o Order) TotalQuantity() int {
	total := 0
	for _, item := range o.Items {
		total += item.Quantity
	}
	return total
}

// LastOrder returns the most recently appended order.
func LastOrder(orders []Order) (Order, error) {
	if len(orders) == 0 {
		return Order{}, ErrNoOrders
	}
	return orders[len(orders)-1].Clone(), nil
}

// CloneOrders deep-copies an order history.
func CloneOrders(orders []Order) []Order {
	if orders == nil {
		return nil
	}
	out := make([]Order, len(orders))
	for i, o := range orders {
		out[i] = o.Clone()
	}
	return out
}

func cloneItems(items []CartItem) []CartItem {
	if items == nil {
		return []CartItem{}
	}
	out := make([]CartItem, len(items))
	copy(out, items)
	return out
}
