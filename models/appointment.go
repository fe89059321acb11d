package models

import (
	"time"
)

type AppointmentStatus string
type ActorRole string

const (
	AppointmentStatusPending    AppointmentStatus = "pending"
	AppointmentStatusConfirmed  AppointmentStatus = "confirmed"
	AppointmentStatusInProgress AppointmentStatus = "in_progress"
	AppointmentStatusCompleted  AppointmentStatus = "completed"
	AppointmentStatusCancelled  AppointmentStatus = "cancelled"
	AppointmentStatusRejected   AppointmentStatus = "rejected"

	RolePatient ActorRole = "patient"
	RoleDoctor  ActorRole = "doctor"
	RoleAdmin   ActorRole = "admin"
)

// ActiveAppointmentStatuses are the statuses that hold a slot. At most one
// appointment in one of these statuses may exist per (doctor, scheduled time).
func ActiveAppointmentStatuses() []AppointmentStatus {
	return []AppointmentStatus{AppointmentStatusPending, AppointmentStatusConfirmed, AppointmentStatusInProgress}
}

type Appointment struct {
	ID          string            `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	DoctorID    string            `json:"doctor_id" gorm:"not null;index:idx_appointments_doctor_time"`
	PatientID   string            `json:"patient_id" gorm:"not null;index"`
	ScheduledAt time.Time         `json:"scheduled_at" gorm:"not null;index:idx_appointments_doctor_time"`
	Type        string            `json:"type"`
	Status      AppointmentStatus `json:"status" gorm:"not null;default:'pending';index"`
	CreatedAt   time.Time         `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time         `json:"updated_at" gorm:"autoUpdateTime"`
}

type BookAppointmentRequest struct {
	PatientID   string    `json:"patient_id"`
	DoctorID    string    `json:"doctor_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Type        string    `json:"type"`
}

type UpdateAppointmentStatusRequest struct {
	AppointmentID string            `json:"appointment_id"`
	NewStatus     AppointmentStatus `json:"new_status"`
	ActorID       string            `json:"actor_id"`
	ActorRole     ActorRole         `json:"actor_role"`
}
