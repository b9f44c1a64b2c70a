package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/studmarket/studmarket-backend/internal/models"
	"github.com/studmarket/studmarket-backend/internal/pkg/apperror"
	"github.com/studmarket/studmarket-backend/internal/repository/common"
)

// Код unique_violation в PostgreSQL; уникальный частичный индекс
// disputes_open_per_order_idx страхует от двух открытых споров на заказ.
const pgUniqueViolation = "23505"

type DisputeRepository struct {
	db *sqlx.DB
}

func NewDisputeRepository(db *sqlx.DB) *DisputeRepository {
	return &DisputeRepository{db: db}
}

func (r *DisputeRepository) CreateTx(ctx context.Context, ext sqlx.ExtContext, d *models.Dispute) error {
	query := `
		INSERT INTO disputes (order_id, initiator_id, reason, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	row := ext.QueryRowxContext(ctx, query, d.OrderID, d.InitiatorID, d.Reason, d.Status)
	if err := row.Scan(&d.ID, &d.CreatedAt); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
			return apperror.ErrDuplicateDispute
		}
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось создать спор")
	}
	return nil
}

func (r *DisputeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error) {
	return common.GetByID[models.Dispute](ctx, r.db, "disputes", id, apperror.ErrDisputeNotFound)
}

func (r *DisputeRepository) GetByIDTx(ctx context.Context, ext sqlx.ExtContext, id uuid.UUID) (*models.Dispute, error) {
	var d models.Dispute
	err := sqlx.GetContext(ctx, ext, &d, `SELECT * FROM disputes WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.ErrDisputeNotFound
	}
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось прочитать спор")
	}
	return &d, nil
}

func (r *DisputeRepository) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Dispute, error) {
	return common.GetByField[models.Dispute](ctx, r.db, "disputes", "order_id", orderID, apperror.ErrDisputeNotFound)
}

// MarkUnderReviewTx переводит open → under_review и закрепляет спор за
// администратором одним условным UPDATE. false — спор не был в статусе open.
func (r *DisputeRepository) MarkUnderReviewTx(ctx context.Context, ext sqlx.ExtContext, id, adminID uuid.UUID) (bool, error) {
	res, err := ext.ExecContext(ctx, `
		UPDATE disputes SET status = $3, assigned_admin_id = $2
		WHERE id = $1 AND status = $4
	`, id, adminID, models.DisputeStatusUnderReview, models.DisputeStatusOpen)
	if err != nil {
		return false, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось взять спор в рассмотрение")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось взять спор в рассмотрение")
	}
	return affected == 1, nil
}

// ResolveTx фиксирует решение одним условным UPDATE из open/under_review.
// Из двух конкурирующих разрешений выигрывает ровно одно; проигравшему
// вернётся false, и сервис сообщит, что спор уже разрешён.
func (r *DisputeRepository) ResolveTx(ctx context.Context, ext sqlx.ExtContext, id, adminID uuid.UUID, resolution string, adminNote *string) (bool, error) {
	res, err := ext.ExecContext(ctx, `
		UPDATE disputes
		SET status = $3, resolution = $4, admin_note = $5, resolved_by = $2, resolved_at = NOW()
		WHERE id = $1 AND status = ANY($6)
	`, id, adminID, models.DisputeStatusResolved, resolution, adminNote,
		pq.Array([]string{models.DisputeStatusOpen, models.DisputeStatusUnderReview}))
	if err != nil {
		return false, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось разрешить спор")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось разрешить спор")
	}
	return affected == 1, nil
}

// ListOpen возвращает очередь неразрешённых споров для администраторов.
func (r *DisputeRepository) ListOpen(ctx context.Context, limit, offset int) ([]models.Dispute, error) {
	var disputes []models.Dispute
	err := r.db.SelectContext(ctx, &disputes, `
		SELECT * FROM disputes
		WHERE status <> $3
		ORDER BY created_at ASC LIMIT $1 OFFSET $2
	`, limit, offset, models.DisputeStatusResolved)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить очередь споров")
	}
	return disputes, nil
}

// ListByUser возвращает споры по заказам, где пользователь — участник.
func (r *DisputeRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Dispute, error) {
	var disputes []models.Dispute
	err := r.db.SelectContext(ctx, &disputes, `
		SELECT d.* FROM disputes d
		JOIN orders o ON d.order_id = o.id
		WHERE o.buyer_id = $1 OR o.seller_id = $1
		ORDER BY d.created_at DESC LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить споры пользователя")
	}
	return disputes, nil
}
