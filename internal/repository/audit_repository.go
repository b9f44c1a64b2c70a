package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/studmarket/studmarket-backend/internal/models"
	"github.com/studmarket/studmarket-backend/internal/pkg/apperror"
)

// AuditRepository — журнал изменений услуг. Только вставка и чтение:
// записи неизменяемы, update и delete отсутствуют в контракте намеренно.
type AuditRepository struct {
	db *sqlx.DB
}

func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// RecordTx добавляет одну запись журнала внутри транзакции вызывающего.
// Вставка атомарна; id и changed_at выставляет база.
func (r *AuditRepository) RecordTx(ctx context.Context, ext sqlx.ExtContext, e *models.ServiceEditEvent) error {
	query := `
		INSERT INTO service_edit_events (service_id, user_id, field_changed, old_value, new_value, has_active_orders)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, changed_at
	`
	row := ext.QueryRowxContext(ctx, query,
		e.ServiceID, e.UserID, e.FieldChanged, e.OldValue, e.NewValue, e.HasActiveOrders)
	if err := row.Scan(&e.ID, &e.ChangedAt); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось записать событие журнала")
	}
	return nil
}

// Два статических запроса вместо условной сборки LIMIT в строку.
const (
	auditByServiceQuery = `
		SELECT * FROM service_edit_events
		WHERE service_id = $1
		ORDER BY changed_at DESC, id DESC
	`
	auditByServiceLimitQuery = auditByServiceQuery + ` LIMIT $2`

	auditByUserQuery = `
		SELECT * FROM service_edit_events
		WHERE user_id = $1
		ORDER BY changed_at DESC, id DESC
	`
	auditByUserLimitQuery = auditByUserQuery + ` LIMIT $2`
)

// ListByService возвращает события услуги, новые первыми.
// limit == nil означает без ограничения.
func (r *AuditRepository) ListByService(ctx context.Context, serviceID uuid.UUID, limit *int) ([]models.ServiceEditEvent, error) {
	var events []models.ServiceEditEvent
	var err error
	if limit == nil {
		err = r.db.SelectContext(ctx, &events, auditByServiceQuery, serviceID)
	} else {
		err = r.db.SelectContext(ctx, &events, auditByServiceLimitQuery, serviceID, *limit)
	}
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось прочитать журнал услуги")
	}
	return events, nil
}

// ListByUser возвращает события, внесённые пользователем, новые первыми.
func (r *AuditRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit *int) ([]models.ServiceEditEvent, error) {
	var events []models.ServiceEditEvent
	var err error
	if limit == nil {
		err = r.db.SelectContext(ctx, &events, auditByUserQuery, userID)
	} else {
		err = r.db.SelectContext(ctx, &events, auditByUserLimitQuery, userID, *limit)
	}
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось прочитать журнал пользователя")
	}
	return events, nil
}
