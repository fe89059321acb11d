package models

import (
	"time"
)

// IdempotencyRecord is the cached outcome of one logical request, stored in
// the shared key-value store under the client-chosen key. It is a duplicate
// suppression layer only; the database rows stay authoritative.
type IdempotencyRecord struct {
	Outcome  PaymentOutcome `json:"outcome"`
	EntityID string         `json:"entity_id"`
	Status   string         `json:"status"`
	CachedAt time.Time      `json:"cached_at"`
}
