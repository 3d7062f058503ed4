package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// serializationFailure — код postgres, с которым сериализуемая транзакция
// проигрывает конкуренту и должна быть повторена.
const serializationFailure = "40001"

const maxTxAttempts = 3

// TxManager исполняет функцию внутри сериализуемой транзакции. Все пути
// вида «проверить инвариант — записать» (фазовые переходы, бронирования)
// обязаны идти через него.
type TxManager interface {
	WithinSerializableTx(ctx context.Context, fn func(exec SQLExecutor) error) error
}

type sqlTxManager struct {
	db *sql.DB
}

func NewTxManager(db *sql.DB) TxManager {
	return &sqlTxManager{db: db}
}

func (m *sqlTxManager) WithinSerializableTx(ctx context.Context, fn func(exec SQLExecutor) error) error {
	var lastErr error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		lastErr = m.runOnce(ctx, fn)
		if lastErr == nil || !isSerializationFailure(lastErr) {
			return lastErr
		}
		// Проигравшая транзакция перечитает состояние с нуля: повтор
		// после конкурентного перехода фазы честно вернёт precondition-ошибку.
	}
	return fmt.Errorf("transaction retries exhausted: %w", lastErr)
}

func (m *sqlTxManager) runOnce(ctx context.Context, fn func(exec SQLExecutor) error) (err error) {
	tx, err := m.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = fmt.Errorf("%w (rollback also failed: %v)", err, rbErr)
			}
			return
		}
		if cErr := tx.Commit(); cErr != nil {
			err = fmt.Errorf("failed to commit transaction: %w", cErr)
		}
	}()

	err = fn(tx)
	return err
}

func isSerializationFailure(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == serializationFailure
	}
	return false
}
