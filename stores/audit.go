package stores

import (
	"context"

	"gorm.io/gorm"

	"github.com/medorbit/telecare/models"
)

type AuditStore struct {
	BaseStore
}

func CreateAuditStore(db *gorm.DB) *AuditStore {
	return &AuditStore{BaseStore: BaseStore{db: db}}
}

func (s *AuditStore) Create(ctx context.Context, log *models.AuditLog) error {
	return s.GetDB(ctx).Create(log).Error
}

func (s *AuditStore) ListByResource(ctx context.Context, resourceType, resourceID string, limit int) ([]*models.AuditLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var logs []*models.AuditLog
	err := s.GetDB(ctx).
		Where("resource_type = ? AND resource_id = ?", resourceType, resourceID).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}
