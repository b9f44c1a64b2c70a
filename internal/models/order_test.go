package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var allOrderEvents = []OrderEvent{
	OrderEventActivate,
	OrderEventComplete,
	OrderEventOpenDispute,
	OrderEventResolveRefund,
	OrderEventResolvePartialRefund,
	OrderEventResolveRelease,
	OrderEventCancel,
}

func TestNextOrderStatus_AllowedTransitions(t *testing.T) {
	cases := []struct {
		from  string
		event OrderEvent
		to    string
	}{
		{OrderStatusPending, OrderEventActivate, OrderStatusActive},
		{OrderStatusPending, OrderEventCancel, OrderStatusCancelled},
		{OrderStatusActive, OrderEventComplete, OrderStatusCompleted},
		{OrderStatusActive, OrderEventOpenDispute, OrderStatusDisputed},
		{OrderStatusCompleted, OrderEventOpenDispute, OrderStatusDisputed},
		{OrderStatusDisputed, OrderEventResolveRefund, OrderStatusResolvedRefund},
		{OrderStatusDisputed, OrderEventResolvePartialRefund, OrderStatusResolvedPartialRefund},
		{OrderStatusDisputed, OrderEventResolveRelease, OrderStatusResolvedRelease},
	}

	for _, tc := range cases {
		next, ok := NextOrderStatus(tc.from, tc.event)
		assert.True(t, ok, "%s + %s", tc.from, tc.event)
		assert.Equal(t, tc.to, next)
	}
}

// Машина состояний тотальна: любая пара (статус, событие) либо есть в
// таблице переходов, либо детерминированно отклоняется.
func TestNextOrderStatus_TotalOverAllPairs(t *testing.T) {
	allowed := map[string]map[OrderEvent]bool{
		OrderStatusPending:   {OrderEventActivate: true, OrderEventCancel: true},
		OrderStatusActive:    {OrderEventComplete: true, OrderEventOpenDispute: true},
		OrderStatusCompleted: {OrderEventOpenDispute: true},
		OrderStatusDisputed: {
			OrderEventResolveRefund:        true,
			OrderEventResolvePartialRefund: true,
			OrderEventResolveRelease:       true,
		},
	}

	for status := range ValidOrderStatuses {
		for _, event := range allOrderEvents {
			next, ok := NextOrderStatus(status, event)
			if allowed[status][event] {
				assert.True(t, ok, "%s + %s должен быть разрешён", status, event)
				_, valid := ValidOrderStatuses[next]
				assert.True(t, valid, "переход ведёт в валидный статус")
			} else {
				assert.False(t, ok, "%s + %s должен отклоняться", status, event)
				assert.Empty(t, next)
			}
		}
	}
}

func TestNextOrderStatus_UnknownStatus(t *testing.T) {
	_, ok := NextOrderStatus("shipped", OrderEventActivate)
	assert.False(t, ok)
}

func TestIsTerminalOrderStatus(t *testing.T) {
	terminal := []string{
		OrderStatusResolvedRefund,
		OrderStatusResolvedPartialRefund,
		OrderStatusResolvedRelease,
		OrderStatusCancelled,
	}
	for _, status := range terminal {
		assert.True(t, IsTerminalOrderStatus(status), status)
	}

	nonTerminal := []string{
		OrderStatusPending,
		OrderStatusActive,
		OrderStatusCompleted,
		OrderStatusDisputed,
	}
	for _, status := range nonTerminal {
		assert.False(t, IsTerminalOrderStatus(status), status)
	}
}

func TestOrderStatusForResolution(t *testing.T) {
	cases := map[string]string{
		ResolutionRefundBuyer:     OrderStatusResolvedRefund,
		ResolutionPartialRefund:   OrderStatusResolvedPartialRefund,
		ResolutionReleaseToSeller: OrderStatusResolvedRelease,
	}
	for resolution, want := range cases {
		got, ok := OrderStatusForResolution(resolution)
		assert.True(t, ok, resolution)
		assert.Equal(t, want, got)
	}

	_, ok := OrderStatusForResolution("split_the_difference")
	assert.False(t, ok)
}
