package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/studmarket/studmarket-backend/internal/models"
	"github.com/studmarket/studmarket-backend/internal/pkg/apperror"
	"github.com/studmarket/studmarket-backend/internal/repository/common"
)

// UserRepository — справочник пользователей. Регистрация и аутентификация
// находятся во внешнем сервисе, здесь только чтение для отображения.
type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return common.GetByID[models.User](ctx, r.db, "users", id, apperror.ErrUserNotFound)
}

// GetRefs возвращает данные для отображения по набору id одним запросом.
// Отсутствующие id пропускаются: события журнала переживают удаление
// пользователя, и история должна рендериться без него.
func (r *UserRepository) GetRefs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.UserRef, error) {
	refs := make(map[uuid.UUID]models.UserRef, len(ids))
	if len(ids) == 0 {
		return refs, nil
	}

	var rows []models.UserRef
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, display_name, email FROM users WHERE id = ANY($1)
	`, pq.Array(ids))
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить пользователей")
	}

	for _, row := range rows {
		refs[row.ID] = row
	}
	return refs, nil
}
