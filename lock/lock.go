// Package lock implements the distributed mutual-exclusion primitive used to
// serialize a whole logical operation across application instances. A lock is
// a key in the shared store holding a random token with a TTL; the TTL bounds
// how long a crashed holder can block the resource, and the token makes
// release safe when the TTL has expired and another holder has taken over.
package lock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/medorbit/telecare/utils"
)

// kvStore is the slice of cache.RedisCache the manager needs: an atomic
// set-if-absent with expiry, a read, and a delete.
type kvStore interface {
	SetIfAbsent(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

type Config struct {
	TTL         time.Duration
	RetryDelay  time.Duration
	MaxAttempts int
}

type Manager struct {
	kv     kvStore
	config Config
	logger *utils.Logger
}

// errHeld marks an attempt that lost to a concurrent holder, as opposed to a
// store failure.
var errHeld = errors.New("lock held")

func CreateManager(kv kvStore, config Config) *Manager {
	if config.TTL == 0 {
		config.TTL = 30 * time.Second
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = 100 * time.Millisecond
	}
	if config.MaxAttempts == 0 {
		config.MaxAttempts = 50
	}
	return &Manager{
		kv:     kv,
		config: config,
		logger: utils.NewLogger("lock"),
	}
}

// Acquire takes the lock for key, waiting a fixed delay between attempts up
// to the configured cap. It returns the holder token on success and a
// LockBusy error when the attempts are exhausted; callers must treat that as
// a retryable busy condition, not a permanent failure. A zero ttl uses the
// manager default.
func (m *Manager) Acquire(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if ttl == 0 {
		ttl = m.config.TTL
	}
	token := uuid.NewString()

	// Only a lost race is worth waiting out; a store failure will not heal
	// within the retry window and must fail fast.
	retry := &utils.RetryConfig{
		MaxAttempts: m.config.MaxAttempts,
		BaseDelay:   m.config.RetryDelay,
		MaxDelay:    m.config.RetryDelay,
		BackoffType: utils.Fixed,
		RetryIf: func(err error) bool {
			return errors.Is(err, errHeld)
		},
	}

	err := utils.Retry(ctx, retry, func() error {
		acquired, err := m.kv.SetIfAbsent(ctx, lockKey(key), token, ttl)
		if err != nil {
			return err
		}
		if !acquired {
			return errHeld
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errHeld) {
			return "", utils.LockBusyError(key)
		}
		return "", utils.WrapDomainError(utils.KindUnavailable, "lock store unavailable", err)
	}

	return token, nil
}

// Release deletes the lock only while it still holds token. A mismatch means
// this holder's TTL expired and another holder took over; releasing anyway
// would steal the new holder's lock, so the call logs a warning and reports
// false instead.
func (m *Manager) Release(ctx context.Context, key, token string) bool {
	current, err := m.kv.Get(ctx, lockKey(key))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			m.logger.Warn(ctx, "lock already expired at release", map[string]interface{}{"key": key})
		} else {
			m.logger.Error(ctx, "failed to read lock at release", map[string]interface{}{"key": key, "error": err.Error()})
		}
		return false
	}

	if current != token {
		m.logger.Warn(ctx, "lock token mismatch at release, lock was taken over", map[string]interface{}{"key": key})
		return false
	}

	if err := m.kv.Delete(ctx, lockKey(key)); err != nil {
		m.logger.Error(ctx, "failed to delete lock", map[string]interface{}{"key": key, "error": err.Error()})
		return false
	}
	return true
}

func lockKey(key string) string {
	return "lock:" + key
}
