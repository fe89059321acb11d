package stores

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/medorbit/telecare/models"
)

type ConsultationStore struct {
	BaseStore
}

func CreateConsultationStore(db *gorm.DB) *ConsultationStore {
	return &ConsultationStore{BaseStore: BaseStore{db: db}}
}

func (s *ConsultationStore) GetByID(ctx context.Context, id string) (*models.Consultation, error) {
	var consultation models.Consultation
	if err := s.GetDB(ctx).First(&consultation, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err, "consultation", id)
	}
	return &consultation, nil
}

// GetByIDForUpdate locks the consultation row. The payment workflow locks the
// owner row before checking for conflicting payments so the check-then-insert
// is serialized against other transactions on the same consultation.
func (s *ConsultationStore) GetByIDForUpdate(ctx context.Context, id string) (*models.Consultation, error) {
	var consultation models.Consultation
	err := s.GetDB(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&consultation, "id = ?", id).Error
	if err != nil {
		return nil, translateNotFound(err, "consultation", id)
	}
	return &consultation, nil
}
