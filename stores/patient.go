package stores

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/medorbit/telecare/models"
)

type PatientStore struct {
	BaseStore
}

func CreatePatientStore(db *gorm.DB) *PatientStore {
	return &PatientStore{BaseStore: BaseStore{db: db}}
}

func (s *PatientStore) GetByID(ctx context.Context, id string) (*models.Patient, error) {
	var patient models.Patient
	if err := s.GetDB(ctx).First(&patient, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err, "patient", id)
	}
	return &patient, nil
}

func (s *PatientStore) GetByIDForUpdate(ctx context.Context, id string) (*models.Patient, error) {
	var patient models.Patient
	err := s.GetDB(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&patient, "id = ?", id).Error
	if err != nil {
		return nil, translateNotFound(err, "patient", id)
	}
	return &patient, nil
}
