package models

import "fmt"

type OrderStatus string

const (
	StatusPlaced    OrderStatus = "Placed"
	StatusPreparing OrderStatus = "Preparing"
	StatusInTransit OrderStatus = "In Transit"
	StatusDelivered OrderStatus = "Delivered"
)

// OrderStatuses lists the lifecycle in order.
var OrderStatuses = []OrderStatus{StatusPlaced, StatusPreparing, StatusInTransit, StatusDelivered}

func ParseOrderStatus(s string) (OrderStatus, error) {
	for _, st := range OrderStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", s)
}

// Rank is the position of s in the lifecycle, or -1 for unknown values.
func (s OrderStatus) Rank() int {
	for i, st := range OrderStatuses {
		if st == s {
			return i
		}
	}
	return -1
}

// TransitionPolicy decides which status changes an admin may apply.
// Forward moves (including skips) and same-status writes are always allowed.
type TransitionPolicy struct {
	AllowRollback bool
}

func (p TransitionPolicy) Allows(from, to OrderStatus) bool {
	if from.Rank() < 0 || to.Rank() < 0 {
		return false
	}
	return p.AllowRollback || to.Rank() >= from.Rank()
}

// SourcesFor returns every status from which to may be reached.
func (p TransitionPolicy) SourcesFor(to OrderStatus) []OrderStatus {
	var from []OrderStatus
	for _, st := range OrderStatuses {
		if p.Allows(st, to) {
			from = append(from, st)
		}
	}
	return from
}
