package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/studmarket/studmarket-backend/internal/models"
	"github.com/studmarket/studmarket-backend/internal/pkg/apperror"
)

// ActiveOrderChecker отвечает на вопрос внешнего хранилища заказов:
// есть ли у услуги заказ в статусе pending/active.
type ActiveOrderChecker func(ctx context.Context, ext sqlx.ExtContext, serviceID uuid.UUID) (bool, error)

// AuditRecorder — журнал изменений, в который guard пишет событие.
type AuditRecorder interface {
	RecordTx(ctx context.Context, ext sqlx.ExtContext, e *models.ServiceEditEvent) error
}

// EditOutcome — результат правки, прошедшей через guard.
type EditOutcome struct {
	Field        string `json:"field"`
	Applied      bool   `json:"applied"`
	Flagged      bool   `json:"flagged"`
	AuditEventID int64  `json:"audit_event_id"`
}

// EditGuard перехватывает правки атрибутов услуги. Правка никогда не
// блокируется: заказ хранит собственный снимок цены и условий, поэтому
// задним числом их не испортить. Если у услуги есть активные заказы,
// событие журнала помечается флагом — по нему существующим заказам
// показываются доредакционные условия, а споры о «подменённых» условиях
// разбираются по записи журнала.
type EditGuard struct {
	audit   AuditRecorder
	checker ActiveOrderChecker
}

func NewEditGuard(audit AuditRecorder, checker ActiveOrderChecker) *EditGuard {
	return &EditGuard{audit: audit, checker: checker}
}

// GuardedEdit выполняется внутри транзакции вызывающего: правка не может
// закоммититься без своего события журнала, и наоборот.
func (g *EditGuard) GuardedEdit(ctx context.Context, ext sqlx.ExtContext, serviceID, userID uuid.UUID, fieldChanged string, oldValue, newValue models.FieldValue) (*EditOutcome, error) {
	hasActive, err := g.checker(ctx, ext, serviceID)
	if err != nil {
		return nil, err
	}

	oldRaw, err := oldValue.Serialize()
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, "некорректное старое значение поля")
	}
	newRaw, err := newValue.Serialize()
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, "некорректное новое значение поля")
	}

	event := &models.ServiceEditEvent{
		ServiceID:       serviceID,
		UserID:          userID,
		FieldChanged:    fieldChanged,
		OldValue:        oldRaw,
		NewValue:        newRaw,
		HasActiveOrders: hasActive,
	}
	if err := g.audit.RecordTx(ctx, ext, event); err != nil {
		return nil, err
	}

	return &EditOutcome{
		Field:        fieldChanged,
		Applied:      true,
		Flagged:      hasActive,
		AuditEventID: event.ID,
	}, nil
}
