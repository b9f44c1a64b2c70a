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

type OrderRepository struct {
	db *sqlx.DB
}

func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) CreateTx(ctx context.Context, ext sqlx.ExtContext, o *models.Order) error {
	query := `
		INSERT INTO orders (service_id, buyer_id, seller_id, price, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	row := ext.QueryRowxContext(ctx, query, o.ServiceID, o.BuyerID, o.SellerID, o.Price, o.Status)
	if err := row.Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось создать заказ")
	}
	return nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return common.GetByID[models.Order](ctx, r.db, "orders", id, apperror.ErrOrderNotFound)
}

func (r *OrderRepository) GetByIDTx(ctx context.Context, ext sqlx.ExtContext, id uuid.UUID) (*models.Order, error) {
	var o models.Order
	err := sqlx.GetContext(ctx, ext, &o, `SELECT * FROM orders WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.ErrOrderNotFound
	}
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось прочитать заказ")
	}
	return &o, nil
}

// TransitionStatusTx — атомарный условный перевод статуса: сравнение
// текущего статуса и установка нового выполняются одним UPDATE, поэтому
// из двух конкурирующих переходов побеждает ровно один. false означает,
// что заказ не находился ни в одном из статусов from.
func (r *OrderRepository) TransitionStatusTx(ctx context.Context, ext sqlx.ExtContext, id uuid.UUID, from []string, to string) (bool, error) {
	res, err := ext.ExecContext(ctx, `
		UPDATE orders SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = ANY($2)
	`, id, pq.Array(from), to)
	if err != nil {
		return false, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось обновить статус заказа")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось обновить статус заказа")
	}
	return affected == 1, nil
}

// HasActiveOrdersTx отвечает, есть ли у услуги заказ в статусе pending/active.
func (r *OrderRepository) HasActiveOrdersTx(ctx context.Context, ext sqlx.ExtContext, serviceID uuid.UUID) (bool, error) {
	var exists bool
	err := sqlx.GetContext(ctx, ext, &exists, `
		SELECT EXISTS (SELECT 1 FROM orders WHERE service_id = $1 AND status = ANY($2))
	`, serviceID, pq.Array(models.ActiveOrderStatuses))
	if err != nil {
		return false, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось проверить активные заказы")
	}
	return exists, nil
}

func (r *OrderRepository) HasActiveOrders(ctx context.Context, serviceID uuid.UUID) (bool, error) {
	return r.HasActiveOrdersTx(ctx, r.db, serviceID)
}

// ListByParticipant возвращает заказы, где пользователь — покупатель или продавец.
func (r *OrderRepository) ListByParticipant(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.SelectContext(ctx, &orders, `
		SELECT * FROM orders
		WHERE buyer_id = $1 OR seller_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить заказы")
	}
	return orders, nil
}
