package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/medorbit/telecare/models"
	"github.com/medorbit/telecare/utils"
)

// kvClient is the slice of RedisCache the idempotency store needs.
type kvClient interface {
	Get(ctx context.Context, key string) (string, error)
	SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// IdempotencyStore caches the outcome of one logical request under its
// client-chosen key. Records expire on their own; there is no cleanup job.
// This is a duplicate-suppression layer only, never a source of truth: the
// database invariant holds whether or not a key is replayed.
type IdempotencyStore struct {
	kv     kvClient
	ttl    time.Duration
	logger *utils.Logger
}

func CreateIdempotencyStore(kv kvClient, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{
		kv:     kv,
		ttl:    ttl,
		logger: utils.NewLogger("idempotency"),
	}
}

// Check returns the cached record for key, or nil when the key has not been
// seen (or has expired).
func (s *IdempotencyStore) Check(ctx context.Context, key string) (*models.IdempotencyRecord, error) {
	raw, err := s.kv.Get(ctx, idempotencyKey(key))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var record models.IdempotencyRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		// A corrupt record is treated as a miss; the database check still
		// protects the invariant.
		s.logger.Warn(ctx, "discarding unreadable idempotency record", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return nil, nil
	}
	return &record, nil
}

func (s *IdempotencyStore) Store(ctx context.Context, key string, record *models.IdempotencyRecord) error {
	record.CachedAt = time.Now().UTC()
	raw, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return s.kv.SetWithTTL(ctx, idempotencyKey(key), string(raw), s.ttl)
}

func idempotencyKey(key string) string {
	return "idem:" + key
}
