package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/studmarket/studmarket-backend/internal/models"
	"github.com/studmarket/studmarket-backend/internal/pkg/apperror"
	"github.com/studmarket/studmarket-backend/internal/repository/common"
)

type ServiceRepository struct {
	db *sqlx.DB
}

func NewServiceRepository(db *sqlx.DB) *ServiceRepository {
	return &ServiceRepository{db: db}
}

func (r *ServiceRepository) CreateTx(ctx context.Context, ext sqlx.ExtContext, s *models.ServiceListing) error {
	query := `
		INSERT INTO services (seller_id, title, description, price, delivery_days)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	row := ext.QueryRowxContext(ctx, query, s.SellerID, s.Title, s.Description, s.Price, s.DeliveryDays)
	if err := row.Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось создать услугу")
	}
	return nil
}

func (r *ServiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ServiceListing, error) {
	return common.GetByID[models.ServiceListing](ctx, r.db, "services", id, apperror.ErrServiceNotFound)
}

// GetByIDForUpdateTx читает услугу с блокировкой строки, чтобы параллельные
// правки одной услуги не затирали друг друга между чтением и записью.
func (r *ServiceRepository) GetByIDForUpdateTx(ctx context.Context, ext sqlx.ExtContext, id uuid.UUID) (*models.ServiceListing, error) {
	var s models.ServiceListing
	err := sqlx.GetContext(ctx, ext, &s, `SELECT * FROM services WHERE id = $1 FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.ErrServiceNotFound
	}
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось прочитать услугу")
	}
	return &s, nil
}

func (r *ServiceRepository) GetByIDTx(ctx context.Context, ext sqlx.ExtContext, id uuid.UUID) (*models.ServiceListing, error) {
	var s models.ServiceListing
	err := sqlx.GetContext(ctx, ext, &s, `SELECT * FROM services WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.ErrServiceNotFound
	}
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось прочитать услугу")
	}
	return &s, nil
}

// Статические запросы на каждое редактируемое поле: имя колонки не
// подставляется в SQL из входных данных.
var serviceFieldUpdates = map[string]string{
	models.ServiceFieldTitle:        `UPDATE services SET title = $2, updated_at = NOW() WHERE id = $1`,
	models.ServiceFieldDescription:  `UPDATE services SET description = $2, updated_at = NOW() WHERE id = $1`,
	models.ServiceFieldPrice:        `UPDATE services SET price = $2, updated_at = NOW() WHERE id = $1`,
	models.ServiceFieldDeliveryDays: `UPDATE services SET delivery_days = $2, updated_at = NOW() WHERE id = $1`,
}

// UpdateFieldTx записывает новое значение одного редактируемого поля услуги.
func (r *ServiceRepository) UpdateFieldTx(ctx context.Context, ext sqlx.ExtContext, id uuid.UUID, field string, value interface{}) error {
	query, ok := serviceFieldUpdates[field]
	if !ok {
		return apperror.New(apperror.ErrCodeValidation, fmt.Sprintf("поле %q нельзя редактировать", field))
	}
	if _, err := ext.ExecContext(ctx, query, id, value); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось обновить услугу")
	}
	return nil
}

// ListBySeller возвращает услуги продавца.
func (r *ServiceRepository) ListBySeller(ctx context.Context, sellerID uuid.UUID, limit, offset int) ([]models.ServiceListing, error) {
	var services []models.ServiceListing
	err := r.db.SelectContext(ctx, &services, `
		SELECT * FROM services WHERE seller_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, sellerID, limit, offset)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить услуги продавца")
	}
	return services, nil
}
