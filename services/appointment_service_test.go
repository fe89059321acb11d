package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/medorbit/telecare/models"
	"github.com/medorbit/telecare/utils"
)

type memAppointmentStore struct {
	txMu         sync.Mutex
	mu           sync.Mutex
	appointments map[string]models.Appointment
}

func newMemAppointmentStore() *memAppointmentStore {
	return &memAppointmentStore{appointments: make(map[string]models.Appointment)}
}

func (s *memAppointmentStore) WithTransactionRetry(ctx context.Context, policy *utils.RetryConfig, fn func(context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(ctx)
}

func (s *memAppointmentStore) Create(ctx context.Context, appointment *models.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appointments[appointment.ID] = *appointment
	return nil
}

func (s *memAppointmentStore) Update(ctx context.Context, appointment *models.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appointments[appointment.ID] = *appointment
	return nil
}

func (s *memAppointmentStore) GetByID(ctx context.Context, id string) (*models.Appointment, error) {
	return s.GetByIDForUpdate(ctx, id)
}

func (s *memAppointmentStore) GetByIDForUpdate(ctx context.Context, id string) (*models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	appointment, ok := s.appointments[id]
	if !ok {
		return nil, utils.NotFoundError("appointment", id)
	}
	return &appointment, nil
}

func (s *memAppointmentStore) FindActiveSlot(ctx context.Context, doctorID string, scheduledAt time.Time, excludeID string) (*models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, appointment := range s.appointments {
		if appointment.ID == excludeID {
			continue
		}
		if appointment.DoctorID != doctorID || !appointment.ScheduledAt.Equal(scheduledAt) {
			continue
		}
		for _, status := range models.ActiveAppointmentStatuses() {
			if appointment.Status == status {
				found := appointment
				return &found, nil
			}
		}
	}
	return nil, nil
}

func (s *memAppointmentStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.appointments)
}

type memDoctorStore struct {
	mu      sync.Mutex
	doctors map[string]models.Doctor
}

func (s *memDoctorStore) GetByIDForUpdate(ctx context.Context, id string) (*models.Doctor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doctor, ok := s.doctors[id]
	if !ok {
		return nil, utils.NotFoundError("doctor", id)
	}
	return &doctor, nil
}

type memPatientStore struct {
	mu       sync.Mutex
	patients map[string]models.Patient
}

func (s *memPatientStore) GetByIDForUpdate(ctx context.Context, id string) (*models.Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	patient, ok := s.patients[id]
	if !ok {
		return nil, utils.NotFoundError("patient", id)
	}
	return &patient, nil
}

type appointmentFixture struct {
	service      *AppointmentService
	appointments *memAppointmentStore
}

func newAppointmentFixture() *appointmentFixture {
	appointments := newMemAppointmentStore()
	doctors := &memDoctorStore{doctors: map[string]models.Doctor{
		"doc-1":      {ID: "doc-1", Name: "Dr. A", Active: true},
		"doc-closed": {ID: "doc-closed", Name: "Dr. B", Active: false},
	}}
	patients := &memPatientStore{patients: map[string]models.Patient{
		"pat-1":        {ID: "pat-1", Name: "P One", Active: true},
		"pat-2":        {ID: "pat-2", Name: "P Two", Active: true},
		"pat-disabled": {ID: "pat-disabled", Name: "P Off", Active: false},
	}}

	service := CreateAppointmentService(appointments, doctors, patients, nil, nil, nil, nil)
	return &appointmentFixture{service: service, appointments: appointments}
}

var slotTime = time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC)

func bookRequest(patientID string) *models.BookAppointmentRequest {
	return &models.BookAppointmentRequest{
		PatientID:   patientID,
		DoctorID:    "doc-1",
		ScheduledAt: slotTime,
		Type:        "video",
	}
}

func TestAppointmentService_BookAtomic(t *testing.T) {
	fx := newAppointmentFixture()

	appointment, err := fx.service.BookAtomic(context.Background(), bookRequest("pat-1"))
	if err != nil {
		t.Fatalf("BookAtomic() error = %v", err)
	}
	if appointment.Status != models.AppointmentStatusPending {
		t.Errorf("status = %q, want pending", appointment.Status)
	}
	if appointment.ID == "" {
		t.Error("appointment id not assigned")
	}
	if fx.appointments.count() != 1 {
		t.Errorf("appointment count = %d, want 1", fx.appointments.count())
	}
}

func TestAppointmentService_BookAtomic_SlotTaken(t *testing.T) {
	fx := newAppointmentFixture()
	ctx := context.Background()

	if _, err := fx.service.BookAtomic(ctx, bookRequest("pat-1")); err != nil {
		t.Fatalf("first BookAtomic() error = %v", err)
	}

	_, err := fx.service.BookAtomic(ctx, bookRequest("pat-2"))
	if !utils.IsKind(err, utils.KindResourceConflict) {
		t.Fatalf("second BookAtomic() error = %v, want resource_conflict", err)
	}
	if utils.IsRetryable(err) {
		t.Error("slot conflict must not be retryable: the caller needs a different slot")
	}
	if fx.appointments.count() != 1 {
		t.Errorf("appointment count = %d, want 1", fx.appointments.count())
	}
}

func TestAppointmentService_BookAtomic_Concurrent(t *testing.T) {
	fx := newAppointmentFixture()
	ctx := context.Background()

	const contenders = 8
	var mu sync.Mutex
	var booked, conflicts int
	var wg sync.WaitGroup

	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := fx.service.BookAtomic(ctx, bookRequest("pat-1"))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				booked++
			case utils.IsKind(err, utils.KindResourceConflict):
				conflicts++
			default:
				t.Errorf("BookAtomic() unexpected error = %v", err)
			}
		}()
	}
	wg.Wait()

	if booked != 1 {
		t.Errorf("successful bookings = %d, want exactly 1", booked)
	}
	if conflicts != contenders-1 {
		t.Errorf("conflicts = %d, want %d", conflicts, contenders-1)
	}
	if fx.appointments.count() != 1 {
		t.Errorf("appointment count = %d, want 1", fx.appointments.count())
	}
}

func TestAppointmentService_BookAtomic_InactiveParties(t *testing.T) {
	fx := newAppointmentFixture()
	ctx := context.Background()

	req := bookRequest("pat-1")
	req.DoctorID = "doc-closed"
	if _, err := fx.service.BookAtomic(ctx, req); !utils.IsKind(err, utils.KindValidation) {
		t.Errorf("BookAtomic() with inactive doctor error = %v, want validation", err)
	}

	if _, err := fx.service.BookAtomic(ctx, bookRequest("pat-disabled")); !utils.IsKind(err, utils.KindValidation) {
		t.Errorf("BookAtomic() with inactive patient error = %v, want validation", err)
	}
	if fx.appointments.count() != 0 {
		t.Error("appointments created despite validation failures")
	}
}

func TestAppointmentService_UpdateStatusAtomic_DoctorConfirms(t *testing.T) {
	fx := newAppointmentFixture()
	ctx := context.Background()

	appointment, err := fx.service.BookAtomic(ctx, bookRequest("pat-1"))
	if err != nil {
		t.Fatalf("BookAtomic() error = %v", err)
	}

	updated, err := fx.service.UpdateStatusAtomic(ctx, &models.UpdateAppointmentStatusRequest{
		AppointmentID: appointment.ID,
		NewStatus:     models.AppointmentStatusConfirmed,
		ActorID:       "doc-1",
		ActorRole:     models.RoleDoctor,
	})
	if err != nil {
		t.Fatalf("UpdateStatusAtomic() error = %v", err)
	}
	if updated.Status != models.AppointmentStatusConfirmed {
		t.Errorf("status = %q, want confirmed", updated.Status)
	}
}

func TestAppointmentService_UpdateStatusAtomic_RoleDenied(t *testing.T) {
	fx := newAppointmentFixture()
	ctx := context.Background()

	appointment, _ := fx.service.BookAtomic(ctx, bookRequest("pat-1"))

	// The owning patient may cancel but never confirm.
	_, err := fx.service.UpdateStatusAtomic(ctx, &models.UpdateAppointmentStatusRequest{
		AppointmentID: appointment.ID,
		NewStatus:     models.AppointmentStatusConfirmed,
		ActorID:       "pat-1",
		ActorRole:     models.RolePatient,
	})
	if !utils.IsKind(err, utils.KindInvalidStateTransition) {
		t.Fatalf("UpdateStatusAtomic() error = %v, want invalid_state_transition", err)
	}

	got, _ := fx.appointments.GetByID(ctx, appointment.ID)
	if got.Status != models.AppointmentStatusPending {
		t.Errorf("status = %q, want pending after rejected transition", got.Status)
	}
}

func TestAppointmentService_UpdateStatusAtomic_ForeignActor(t *testing.T) {
	fx := newAppointmentFixture()
	ctx := context.Background()

	appointment, _ := fx.service.BookAtomic(ctx, bookRequest("pat-1"))

	_, err := fx.service.UpdateStatusAtomic(ctx, &models.UpdateAppointmentStatusRequest{
		AppointmentID: appointment.ID,
		NewStatus:     models.AppointmentStatusCancelled,
		ActorID:       "pat-2",
		ActorRole:     models.RolePatient,
	})
	if !utils.IsKind(err, utils.KindAuthorizationDenied) {
		t.Fatalf("UpdateStatusAtomic() error = %v, want authorization_denied", err)
	}

	_, err = fx.service.UpdateStatusAtomic(ctx, &models.UpdateAppointmentStatusRequest{
		AppointmentID: appointment.ID,
		NewStatus:     models.AppointmentStatusConfirmed,
		ActorID:       "doc-other",
		ActorRole:     models.RoleDoctor,
	})
	if !utils.IsKind(err, utils.KindAuthorizationDenied) {
		t.Fatalf("UpdateStatusAtomic() by foreign doctor error = %v, want authorization_denied", err)
	}
}

func TestAppointmentService_UpdateStatusAtomic_AdminOverride(t *testing.T) {
	fx := newAppointmentFixture()
	ctx := context.Background()

	appointment, _ := fx.service.BookAtomic(ctx, bookRequest("pat-1"))
	fx.appointments.appointments[appointment.ID] = models.Appointment{
		ID: appointment.ID, DoctorID: "doc-1", PatientID: "pat-1",
		ScheduledAt: slotTime, Status: models.AppointmentStatusInProgress,
	}

	updated, err := fx.service.UpdateStatusAtomic(ctx, &models.UpdateAppointmentStatusRequest{
		AppointmentID: appointment.ID,
		NewStatus:     models.AppointmentStatusCancelled,
		ActorID:       "admin-1",
		ActorRole:     models.RoleAdmin,
	})
	if err != nil {
		t.Fatalf("UpdateStatusAtomic() by admin error = %v", err)
	}
	if updated.Status != models.AppointmentStatusCancelled {
		t.Errorf("status = %q, want cancelled", updated.Status)
	}
}

func TestAppointmentService_UpdateStatusAtomic_ConfirmRecheck(t *testing.T) {
	fx := newAppointmentFixture()
	ctx := context.Background()

	appointment, _ := fx.service.BookAtomic(ctx, bookRequest("pat-1"))

	// A second appointment took the slot in the meantime, e.g. via an admin
	// backfill. Confirming the pending one must fail the slot re-check.
	fx.appointments.appointments["other"] = models.Appointment{
		ID: "other", DoctorID: "doc-1", PatientID: "pat-2",
		ScheduledAt: slotTime, Status: models.AppointmentStatusConfirmed,
	}

	_, err := fx.service.UpdateStatusAtomic(ctx, &models.UpdateAppointmentStatusRequest{
		AppointmentID: appointment.ID,
		NewStatus:     models.AppointmentStatusConfirmed,
		ActorID:       "doc-1",
		ActorRole:     models.RoleDoctor,
	})
	if !utils.IsKind(err, utils.KindResourceConflict) {
		t.Fatalf("UpdateStatusAtomic() error = %v, want resource_conflict", err)
	}
}

func TestAppointmentService_UpdateStatusAtomic_NotFound(t *testing.T) {
	fx := newAppointmentFixture()

	_, err := fx.service.UpdateStatusAtomic(context.Background(), &models.UpdateAppointmentStatusRequest{
		AppointmentID: "missing",
		NewStatus:     models.AppointmentStatusCancelled,
		ActorID:       "admin-1",
		ActorRole:     models.RoleAdmin,
	})
	if !utils.IsKind(err, utils.KindNotFound) {
		t.Fatalf("UpdateStatusAtomic() error = %v, want not_found", err)
	}
}
