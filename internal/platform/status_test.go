package platform

import (
	"testing"

	"order-gateway/internal/model"
)

var canonicalStatuses = map[model.OrderStatus]bool{
	model.OrderStatusPending:   true,
	model.OrderStatusConfirmed: true,
	model.OrderStatusPreparing: true,
	model.OrderStatusReady:     true,
	model.OrderStatusCompleted: true,
	model.OrderStatusCancelled: true,
}

// TestStatusTablesTotal verifies every table entry maps into the canonical set
func TestStatusTablesTotal(t *testing.T) {
	tables := map[string]statusTable{
		"ubereats":  uberEatsStatuses,
		"deliveroo": deliverooStatuses,
		"jahez":     jahezStatuses,
	}

	for name, table := range tables {
		for raw, mapped := range table {
			if !canonicalStatuses[mapped] {
				t.Errorf("%s: status %q maps to non-canonical %q", name, raw, mapped)
			}
		}
	}
}

// TestStatusMappingDefault verifies unknown statuses fall back to pending
func TestStatusMappingDefault(t *testing.T) {
	for _, p := range []model.Platform{model.PlatformUberEats, model.PlatformDeliveroo, model.PlatformJahez} {
		if got := MapStatus(p, "some_future_status"); got != model.OrderStatusPending {
			t.Errorf("%s: unknown status mapped to %q, want pending", p, got)
		}
		if got := MapStatus(p, ""); got != model.OrderStatusPending {
			t.Errorf("%s: empty status mapped to %q, want pending", p, got)
		}
	}

	// Unregistered platform must not panic and must stay safe
	if got := MapStatus(model.Platform("unknown"), "accepted"); got != model.OrderStatusPending {
		t.Errorf("unregistered platform mapped to %q, want pending", got)
	}
}

func TestStatusMappingKnown(t *testing.T) {
	cases := []struct {
		platform model.Platform
		raw      string
		want     model.OrderStatus
	}{
		{model.PlatformUberEats, "accepted", model.OrderStatusConfirmed},
		{model.PlatformUberEats, "ready_for_pickup", model.OrderStatusReady},
		{model.PlatformUberEats, "canceled", model.OrderStatusCancelled},
		{model.PlatformDeliveroo, "in_kitchen", model.OrderStatusPreparing},
		{model.PlatformDeliveroo, "collected", model.OrderStatusCompleted},
		{model.PlatformJahez, "N", model.OrderStatusPending},
		{model.PlatformJahez, "A", model.OrderStatusConfirmed},
		{model.PlatformJahez, "C", model.OrderStatusCancelled},
	}

	for _, tc := range cases {
		if got := MapStatus(tc.platform, tc.raw); got != tc.want {
			t.Errorf("MapStatus(%s, %q) = %q, want %q", tc.platform, tc.raw, got, tc.want)
		}
	}
}
