package models

import (
	"time"
)

type AuditLog struct {
	ID           string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	ActorID      string    `json:"actor_id"`
	ActorRole    string    `json:"actor_role"`
	Action       string    `json:"action" gorm:"not null"`
	ResourceType string    `json:"resource_type" gorm:"not null;index:idx_audit_resource"`
	ResourceID   string    `json:"resource_id" gorm:"index:idx_audit_resource"`
	Success      bool      `json:"success" gorm:"not null"`
	ErrorMessage string    `json:"error_message"`
	Metadata     JSON      `json:"metadata" gorm:"type:jsonb;default:'{}'"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
}

type AuditAction string

const (
	AuditActionProcess AuditAction = "process"
	AuditActionConfirm AuditAction = "confirm"
	AuditActionRefund  AuditAction = "refund"
	AuditActionBook    AuditAction = "book"
	AuditActionStatus  AuditAction = "status_change"
)

type AuditResourceType string

const (
	AuditResourcePayment     AuditResourceType = "payment"
	AuditResourceAppointment AuditResourceType = "appointment"
)
