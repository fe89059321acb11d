package stores

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/medorbit/telecare/utils"
)

type contextKey string

const TxKey contextKey = "tx"

type BaseStore struct {
	db *gorm.DB
}

// GetDB returns the transaction bound to ctx when there is one, so that every
// store call made inside WithTransaction joins the same transaction.
func (s *BaseStore) GetDB(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(TxKey).(*gorm.DB); ok {
		return tx
	}
	return s.db.WithContext(ctx)
}

func (s *BaseStore) WithTransaction(ctx context.Context, fn func(context.Context) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txCtx := context.WithValue(ctx, TxKey, tx)
		return fn(txCtx)
	})
}

// WithTransactionRetry runs fn in a transaction and retries the whole unit of
// work when the backend reports a deadlock or serialization failure, up to
// policy.MaxAttempts with a randomized backoff between attempts. Any other
// error rolls back and propagates immediately. When the attempts are
// exhausted the failure surfaces as a retryable DeadlockDetected error.
func (s *BaseStore) WithTransactionRetry(ctx context.Context, policy *utils.RetryConfig, fn func(context.Context) error) error {
	if policy == nil {
		policy = DefaultTxRetryPolicy()
	}
	retry := *policy
	retry.RetryIf = IsDeadlock

	err := utils.Retry(ctx, &retry, func() error {
		return s.WithTransaction(ctx, fn)
	})
	if err != nil && IsDeadlock(err) {
		return utils.DeadlockError(err)
	}
	return err
}

// DefaultTxRetryPolicy is three attempts with a uniform random 100-500 ms
// pause between them.
func DefaultTxRetryPolicy() *utils.RetryConfig {
	return &utils.RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   100 * time.Millisecond,
		MaxDelay:    500 * time.Millisecond,
		BackoffType: utils.UniformRandom,
	}
}

// IsDeadlock reports whether err is a backend-reported deadlock (SQLSTATE
// 40P01) or serialization failure (40001).
func IsDeadlock(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40P01" || pgErr.Code == "40001"
	}
	return false
}

// translateNotFound turns gorm's record-not-found into the typed NotFound
// error, so a missing row is distinguishable from a backend failure all the
// way up to the HTTP status mapping. Other errors pass through untouched.
func translateNotFound(err error, resource, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return utils.NotFoundError(resource, id)
	}
	return err
}
