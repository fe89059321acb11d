package stores

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/medorbit/telecare/models"
)

type AppointmentStore struct {
	BaseStore
}

func CreateAppointmentStore(db *gorm.DB) *AppointmentStore {
	return &AppointmentStore{BaseStore: BaseStore{db: db}}
}

func (s *AppointmentStore) Create(ctx context.Context, appointment *models.Appointment) error {
	return s.GetDB(ctx).Create(appointment).Error
}

func (s *AppointmentStore) Update(ctx context.Context, appointment *models.Appointment) error {
	return s.GetDB(ctx).Save(appointment).Error
}

func (s *AppointmentStore) GetByID(ctx context.Context, id string) (*models.Appointment, error) {
	var appointment models.Appointment
	if err := s.GetDB(ctx).First(&appointment, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err, "appointment", id)
	}
	return &appointment, nil
}

func (s *AppointmentStore) GetByIDForUpdate(ctx context.Context, id string) (*models.Appointment, error) {
	var appointment models.Appointment
	err := s.GetDB(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&appointment, "id = ?", id).Error
	if err != nil {
		return nil, translateNotFound(err, "appointment", id)
	}
	return &appointment, nil
}

// FindActiveSlot locks and returns the appointment occupying (doctor,
// scheduledAt) in a slot-holding status, or nil when the slot is free.
// Locking the candidate row keeps two bookings from both seeing a free slot
// before either commits. excludeID ignores the caller's own appointment when
// re-checking the slot during a confirm.
func (s *AppointmentStore) FindActiveSlot(ctx context.Context, doctorID string, scheduledAt time.Time, excludeID string) (*models.Appointment, error) {
	query := s.GetDB(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("doctor_id = ? AND scheduled_at = ? AND status IN ?",
			doctorID, scheduledAt, models.ActiveAppointmentStatuses())
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}

	var appointment models.Appointment
	err := query.Take(&appointment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &appointment, nil
}

func (s *AppointmentStore) ListByDoctor(ctx context.Context, doctorID string, from, to time.Time) ([]*models.Appointment, error) {
	var appointments []*models.Appointment
	err := s.GetDB(ctx).
		Where("doctor_id = ? AND scheduled_at >= ? AND scheduled_at < ?", doctorID, from, to).
		Order("scheduled_at ASC").
		Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}
