package stores

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/medorbit/telecare/models"
)

type DoctorStore struct {
	BaseStore
}

func CreateDoctorStore(db *gorm.DB) *DoctorStore {
	return &DoctorStore{BaseStore: BaseStore{db: db}}
}

func (s *DoctorStore) GetByID(ctx context.Context, id string) (*models.Doctor, error) {
	var doctor models.Doctor
	if err := s.GetDB(ctx).First(&doctor, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err, "doctor", id)
	}
	return &doctor, nil
}

func (s *DoctorStore) GetByIDForUpdate(ctx context.Context, id string) (*models.Doctor, error) {
	var doctor models.Doctor
	err := s.GetDB(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&doctor, "id = ?", id).Error
	if err != nil {
		return nil, translateNotFound(err, "doctor", id)
	}
	return &doctor, nil
}
