package models

import (
	"time"

	"github.com/google/uuid"
)

// ServiceEditEvent — одна запись журнала изменений услуги.
// Журнал append-only: записи неизменяемы, операций update и delete нет.
// ServiceID и UserID — слабые ссылки: события переживают удаление
// услуги или пользователя и никогда не вычищаются вместе с ними.
type ServiceEditEvent struct {
	ID              int64      `db:"id" json:"id"`
	ServiceID       uuid.UUID  `db:"service_id" json:"service_id"`
	UserID          uuid.UUID  `db:"user_id" json:"user_id"`
	FieldChanged    string     `db:"field_changed" json:"field_changed"`
	OldValue        *string    `db:"old_value" json:"old_value,omitempty"`
	NewValue        *string    `db:"new_value" json:"new_value,omitempty"`
	HasActiveOrders bool       `db:"has_active_orders" json:"has_active_orders"`
	ChangedAt       time.Time  `db:"changed_at" json:"changed_at"`
}
