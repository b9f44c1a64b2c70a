package models

import (
	"time"

	"github.com/google/uuid"
)

// Role константы ролей пользователей
const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// User — учётная запись студента или администратора. Регистрация и
// аутентификация живут во внешнем сервисе, здесь только справочник
// для отображения в истории изменений и спорах.
type User struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Username    string    `db:"username" json:"username"`
	DisplayName string    `db:"display_name" json:"display_name"`
	Email       string    `db:"email" json:"email"`
	Role        string    `db:"role" json:"role"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// UserRef — срез справочника пользователей для join-ов в представлениях.
type UserRef struct {
	ID          uuid.UUID `db:"id" json:"id"`
	DisplayName string    `db:"display_name" json:"display_name"`
	Email       string    `db:"email" json:"email"`
}
