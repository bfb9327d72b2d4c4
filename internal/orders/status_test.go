package orders

import (
	"testing"

	"github.com/angelmondragon/tradeflow-backend/pkg/enums"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from enums.OrderStatus
		to   enums.OrderStatus
		want bool
	}{
		{enums.OrderStatusPending, enums.OrderStatusProcessing, true},
		{enums.OrderStatusPending, enums.OrderStatusShipped, true},
		{enums.OrderStatusPending, enums.OrderStatusDelivered, true},
		{enums.OrderStatusPending, enums.OrderStatusReturned, true},
		{enums.OrderStatusPending, enums.OrderStatusCancelled, false},
		{enums.OrderStatusProcessing, enums.OrderStatusShipped, true},
		{enums.OrderStatusProcessing, enums.OrderStatusPending, false},
		{enums.OrderStatusShipped, enums.OrderStatusDelivered, true},
		{enums.OrderStatusShipped, enums.OrderStatusProcessing, false},
		{enums.OrderStatusDelivered, enums.OrderStatusReturned, true},
		{enums.OrderStatusDelivered, enums.OrderStatusShipped, false},
		{enums.OrderStatusCancelled, enums.OrderStatusPending, false},
		{enums.OrderStatusReturned, enums.OrderStatusDelivered, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Fatalf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestAllowedTargetsTerminal(t *testing.T) {
	for _, status := range []enums.OrderStatus{enums.OrderStatusCancelled, enums.OrderStatusReturned} {
		if targets := AllowedTargets(status); len(targets) != 0 {
			t.Fatalf("expected no targets from %s, got %v", status, targets)
		}
	}
}

func TestAllowedTargetsReturnsCopy(t *testing.T) {
	targets := AllowedTargets(enums.OrderStatusShipped)
	targets[0] = enums.OrderStatusReturned
	if CanTransition(enums.OrderStatusShipped, enums.OrderStatusReturned) {
		t.Fatalf("mutating the returned slice must not change the table")
	}
}
