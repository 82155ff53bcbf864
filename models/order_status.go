package models

import "strings"

// OrderStatus is the kitchen state of an order ticket.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "Pending"
	OrderStatusPreparing OrderStatus = "Preparing"
	OrderStatusReady     OrderStatus = "Ready"
	OrderStatusServed    OrderStatus = "Served"
)

// OrderStatuses lists every status in flow order.
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusPreparing,
	OrderStatusReady,
	OrderStatusServed,
}

// ParseOrderStatus accepts any casing ("served", "SERVED").
func ParseOrderStatus(s string) (OrderStatus, bool) {
	for _, st := range OrderStatuses {
		if strings.EqualFold(string(st), strings.TrimSpace(s)) {
			return st, true
		}
	}
	return "", false
}

// Rank is the position in the flow, -1 for unknown values.
func (s OrderStatus) Rank() int {
	for i, st := range OrderStatuses {
		if st == s {
			return i
		}
	}
	return -1
}

func (s OrderStatus) Valid() bool { return s.Rank() >= 0 }

// IsTerminal is true only for Served.
func (s OrderStatus) IsTerminal() bool { return s == OrderStatusServed }

// IsLegalTransition allows forward moves, including skips such as
// Pending -> Served. Staying on the same status is legal and means no change.
func IsLegalTransition(from, to OrderStatus) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	return to.Rank() >= from.Rank()
}
