package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/medorbit/telecare/models"
	"github.com/medorbit/telecare/utils"
)

type appointmentStore interface {
	WithTransactionRetry(ctx context.Context, policy *utils.RetryConfig, fn func(context.Context) error) error
	Create(ctx context.Context, appointment *models.Appointment) error
	Update(ctx context.Context, appointment *models.Appointment) error
	GetByID(ctx context.Context, id string) (*models.Appointment, error)
	GetByIDForUpdate(ctx context.Context, id string) (*models.Appointment, error)
	FindActiveSlot(ctx context.Context, doctorID string, scheduledAt time.Time, excludeID string) (*models.Appointment, error)
}

type doctorStore interface {
	GetByIDForUpdate(ctx context.Context, id string) (*models.Doctor, error)
}

type patientStore interface {
	GetByIDForUpdate(ctx context.Context, id string) (*models.Patient, error)
}

// AppointmentService orchestrates slot booking and status changes. Unlike the
// payment path there is no distributed lock here: the whole operation fits in
// one transaction, so the row locks alone serialize contending bookings.
type AppointmentService struct {
	appointments appointmentStore
	doctors      doctorStore
	patients     patientStore
	transitions  TransitionTable
	audit        *AuditService
	notifier     Notifier
	txRetry      *utils.RetryConfig
	logger       *utils.Logger
}

func CreateAppointmentService(
	appointments appointmentStore,
	doctors doctorStore,
	patients patientStore,
	transitions TransitionTable,
	audit *AuditService,
	notifier Notifier,
	txRetry *utils.RetryConfig,
) *AppointmentService {
	if transitions == nil {
		transitions = DefaultTransitionTable()
	}
	return &AppointmentService{
		appointments: appointments,
		doctors:      doctors,
		patients:     patients,
		transitions:  transitions,
		audit:        audit,
		notifier:     notifier,
		txRetry:      txRetry,
		logger:       utils.NewLogger("appointments"),
	}
}

// BookAtomic claims the (doctor, scheduledTime) slot for the patient. A taken
// slot is a fatal ResourceConflict: the caller should pick a different slot,
// not replay the same request.
func (s *AppointmentService) BookAtomic(ctx context.Context, req *models.BookAppointmentRequest) (*models.Appointment, error) {
	if err := validateBookRequest(req); err != nil {
		return nil, err
	}

	var appointment *models.Appointment
	err := s.appointments.WithTransactionRetry(ctx, s.txRetry, func(txCtx context.Context) error {
		doctor, err := s.doctors.GetByIDForUpdate(txCtx, req.DoctorID)
		if err != nil {
			return utils.WrapError(err, "failed to load doctor")
		}
		if !doctor.Active {
			return utils.ValidationError("doctor is not accepting bookings")
		}

		conflict, err := s.appointments.FindActiveSlot(txCtx, req.DoctorID, req.ScheduledAt, "")
		if err != nil {
			return utils.WrapError(err, "failed to check slot")
		}
		if conflict != nil {
			return utils.ResourceConflictError("slot is already booked")
		}

		patient, err := s.patients.GetByIDForUpdate(txCtx, req.PatientID)
		if err != nil {
			return utils.WrapError(err, "failed to load patient")
		}
		if !patient.Active {
			return utils.ValidationError("patient account is not active")
		}

		appointment = &models.Appointment{
			ID:          uuid.NewString(),
			DoctorID:    req.DoctorID,
			PatientID:   req.PatientID,
			ScheduledAt: req.ScheduledAt,
			Type:        req.Type,
			Status:      models.AppointmentStatusPending,
		}
		return s.appointments.Create(txCtx, appointment)
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, req.PatientID, string(models.RolePatient), models.AuditActionBook, appointment.ID, "appointment.booked", map[string]interface{}{
		"appointment_id": appointment.ID,
		"doctor_id":      appointment.DoctorID,
		"scheduled_at":   appointment.ScheduledAt,
	})

	return appointment, nil
}

// UpdateStatusAtomic applies a status change under the appointment row lock,
// consulting the transition table for what the actor role may do from the
// current status. The transition into confirmed locks the doctor row and
// re-checks the slot as a second line of defense against overbooking.
func (s *AppointmentService) UpdateStatusAtomic(ctx context.Context, req *models.UpdateAppointmentStatusRequest) (*models.Appointment, error) {
	if req.AppointmentID == "" {
		return nil, utils.ValidationError("appointment id is required")
	}
	if req.ActorID == "" {
		return nil, utils.ValidationError("actor id is required")
	}

	var appointment *models.Appointment
	err := s.appointments.WithTransactionRetry(ctx, s.txRetry, func(txCtx context.Context) error {
		var err error
		appointment, err = s.appointments.GetByIDForUpdate(txCtx, req.AppointmentID)
		if err != nil {
			return utils.WrapError(err, "failed to load appointment")
		}

		if err := checkActorControls(appointment, req.ActorID, req.ActorRole); err != nil {
			return err
		}

		if !s.transitions.CanTransition(req.ActorRole, appointment.Status, req.NewStatus) {
			return utils.InvalidTransitionError(string(appointment.Status), string(req.NewStatus))
		}

		if req.NewStatus == models.AppointmentStatusConfirmed {
			if _, err := s.doctors.GetByIDForUpdate(txCtx, appointment.DoctorID); err != nil {
				return utils.WrapError(err, "failed to lock doctor")
			}
			conflict, err := s.appointments.FindActiveSlot(txCtx, appointment.DoctorID, appointment.ScheduledAt, appointment.ID)
			if err != nil {
				return utils.WrapError(err, "failed to re-check slot")
			}
			if conflict != nil {
				return utils.ResourceConflictError("slot was booked by another appointment")
			}
		}

		appointment.Status = req.NewStatus
		return s.appointments.Update(txCtx, appointment)
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, req.ActorID, string(req.ActorRole), models.AuditActionStatus, appointment.ID, "appointment.status_changed", map[string]interface{}{
		"appointment_id": appointment.ID,
		"status":         appointment.Status,
	})

	return appointment, nil
}

func (s *AppointmentService) Get(ctx context.Context, id string) (*models.Appointment, error) {
	return s.appointments.GetByID(ctx, id)
}

func (s *AppointmentService) afterCommit(ctx context.Context, actorID, actorRole string, action models.AuditAction, appointmentID, event string, payload map[string]interface{}) {
	if s.audit != nil {
		s.audit.Record(ctx, &models.AuditLog{
			ActorID:      actorID,
			ActorRole:    actorRole,
			Action:       string(action),
			ResourceType: string(models.AuditResourceAppointment),
			ResourceID:   appointmentID,
			Success:      true,
			Metadata:     models.JSON(payload),
		})
	}
	if s.notifier != nil {
		s.notifier.Notify(ctx, event, payload)
	}
}

// checkActorControls rejects actors touching appointments that are not
// theirs. Admins may act on any appointment.
func checkActorControls(appointment *models.Appointment, actorID string, role models.ActorRole) error {
	switch role {
	case models.RoleAdmin:
		return nil
	case models.RolePatient:
		if appointment.PatientID != actorID {
			return utils.AuthorizationDeniedError("appointment does not belong to this patient")
		}
	case models.RoleDoctor:
		if appointment.DoctorID != actorID {
			return utils.AuthorizationDeniedError("appointment does not belong to this doctor")
		}
	default:
		return utils.ValidationError("unknown actor role")
	}
	return nil
}

func validateBookRequest(req *models.BookAppointmentRequest) error {
	if req.PatientID == "" {
		return utils.ValidationError("patient id is required")
	}
	if req.DoctorID == "" {
		return utils.ValidationError("doctor id is required")
	}
	if req.ScheduledAt.IsZero() {
		return utils.ValidationError("scheduled time is required")
	}
	return nil
}
