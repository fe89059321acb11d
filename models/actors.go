package models

import (
	"time"
)

type Doctor struct {
	ID         string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Name       string    `json:"name" gorm:"not null"`
	Email      string    `json:"email" gorm:"uniqueIndex;not null"`
	Speciality string    `json:"speciality"`
	Active     bool      `json:"active" gorm:"not null;default:true"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt  time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

type Patient struct {
	ID        string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Name      string    `json:"name" gorm:"not null"`
	Email     string    `json:"email" gorm:"uniqueIndex;not null"`
	Active    bool      `json:"active" gorm:"not null;default:true"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

type ConsultationStatus string

const (
	ConsultationStatusScheduled ConsultationStatus = "scheduled"
	ConsultationStatusCompleted ConsultationStatus = "completed"
	ConsultationStatusCancelled ConsultationStatus = "cancelled"
)

// Consultation is the billable unit a payment attaches to. PatientID is the
// owner checked by the payment workflow.
type Consultation struct {
	ID        string             `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	PatientID string             `json:"patient_id" gorm:"not null;index"`
	DoctorID  string             `json:"doctor_id" gorm:"not null;index"`
	Fee       int64              `json:"fee" gorm:"not null"`
	Currency  string             `json:"currency" gorm:"not null;default:'usd'"`
	Status    ConsultationStatus `json:"status" gorm:"not null;default:'scheduled'"`
	CreatedAt time.Time          `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time          `json:"updated_at" gorm:"autoUpdateTime"`
}
