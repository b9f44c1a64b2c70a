package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus константы статусов заказов
const (
	OrderStatusPending               = "pending"
	OrderStatusActive                = "active"
	OrderStatusCompleted             = "completed"
	OrderStatusDisputed              = "disputed"
	OrderStatusResolvedRefund        = "resolved_refund"
	OrderStatusResolvedPartialRefund = "resolved_partial_refund"
	OrderStatusResolvedRelease       = "resolved_release"
	OrderStatusCancelled             = "cancelled"
)

// OrderEvent — событие жизненного цикла заказа.
type OrderEvent string

const (
	OrderEventActivate             OrderEvent = "activate"
	OrderEventComplete             OrderEvent = "complete"
	OrderEventOpenDispute          OrderEvent = "open_dispute"
	OrderEventResolveRefund        OrderEvent = "resolve_refund"
	OrderEventResolvePartialRefund OrderEvent = "resolve_partial_refund"
	OrderEventResolveRelease       OrderEvent = "resolve_release"
	OrderEventCancel               OrderEvent = "cancel"
)

// Order описывает покупку услуги одним студентом у другого.
// Price фиксируется в момент создания заказа и больше не меняется:
// последующие правки услуги не затрагивают уже оформленные заказы.
type Order struct {
	ID        uuid.UUID `db:"id" json:"id"`
	ServiceID uuid.UUID `db:"service_id" json:"service_id"`
	BuyerID   uuid.UUID `db:"buyer_id" json:"buyer_id"`
	SellerID  uuid.UUID `db:"seller_id" json:"seller_id"`
	Price     float64   `db:"price" json:"price"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ActiveOrderStatuses — статусы, в которых заказ считается активным
// для проверки "есть ли у услуги активные заказы".
var ActiveOrderStatuses = []string{OrderStatusPending, OrderStatusActive}

// DisputableOrderStatuses — статусы, из которых можно открыть спор.
var DisputableOrderStatuses = []string{OrderStatusActive, OrderStatusCompleted}

// orderTransitions — полная таблица переходов машины состояний заказа.
// Пара (статус, событие), которой нет в таблице, означает недопустимый переход.
var orderTransitions = map[string]map[OrderEvent]string{
	OrderStatusPending: {
		OrderEventActivate: OrderStatusActive,
		OrderEventCancel:   OrderStatusCancelled,
	},
	OrderStatusActive: {
		OrderEventComplete:    OrderStatusCompleted,
		OrderEventOpenDispute: OrderStatusDisputed,
	},
	OrderStatusCompleted: {
		OrderEventOpenDispute: OrderStatusDisputed,
	},
	OrderStatusDisputed: {
		OrderEventResolveRefund:        OrderStatusResolvedRefund,
		OrderEventResolvePartialRefund: OrderStatusResolvedPartialRefund,
		OrderEventResolveRelease:       OrderStatusResolvedRelease,
	},
}

// NextOrderStatus возвращает статус после события. Второй результат false,
// если переход не определён таблицей (в том числе из терминальных статусов).
func NextOrderStatus(current string, event OrderEvent) (string, bool) {
	next, ok := orderTransitions[current][event]
	return next, ok
}

// IsTerminalOrderStatus сообщает, что из статуса нет ни одного перехода.
func IsTerminalOrderStatus(status string) bool {
	return len(orderTransitions[status]) == 0
}

// ValidOrderStatuses список валидных статусов заказов
var ValidOrderStatuses = map[string]struct{}{
	OrderStatusPending:               {},
	OrderStatusActive:                {},
	OrderStatusCompleted:             {},
	OrderStatusDisputed:              {},
	OrderStatusResolvedRefund:        {},
	OrderStatusResolvedPartialRefund: {},
	OrderStatusResolvedRelease:       {},
	OrderStatusCancelled:             {},
}
