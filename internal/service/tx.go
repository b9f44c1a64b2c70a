package service

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// TxRunner исполняет колбэк внутри одной транзакции хранилища.
// Каждая пользовательская операция (правка услуги, открытие спора,
// разрешение спора) выполняется ровно в одной транзакции; любая ошибка
// откатывает её целиком. Продакшен-реализация — common.TxRunner.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ext sqlx.ExtContext) error) error
}
