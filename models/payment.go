package models

import (
	"time"
)

type PaymentStatus string
type PaymentOutcome string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusCompleted  PaymentStatus = "completed"
	PaymentStatusRefunded   PaymentStatus = "refunded"

	OutcomeNew      PaymentOutcome = "new"
	OutcomeExisting PaymentOutcome = "existing"
)

// ActivePaymentStatuses are the statuses that count against the
// one-active-payment-per-(consultation, user) invariant.
func ActivePaymentStatuses() []PaymentStatus {
	return []PaymentStatus{PaymentStatusPending, PaymentStatusProcessing, PaymentStatusCompleted}
}

type Payment struct {
	ID             string        `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	UserID         string        `json:"user_id" gorm:"not null;index:idx_payments_consultation_user"`
	ConsultationID string        `json:"consultation_id" gorm:"not null;index:idx_payments_consultation_user"`
	Amount         int64         `json:"amount" gorm:"not null"`
	Currency       string        `json:"currency" gorm:"not null"`
	PaymentMethod  string        `json:"payment_method" gorm:"not null"`
	Status         PaymentStatus `json:"status" gorm:"not null;default:'pending';index"`
	TransactionID  *string       `json:"transaction_id" gorm:"uniqueIndex"`
	RefundAmount   int64         `json:"refund_amount" gorm:"default:0"`
	RefundReason   string        `json:"refund_reason"`
	RefundedAt     *time.Time    `json:"refunded_at"`
	Metadata       JSON          `json:"metadata" gorm:"type:jsonb"`
	CreatedAt      time.Time     `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time     `json:"updated_at" gorm:"autoUpdateTime"`
}

type InvoiceStatus string

const (
	InvoiceStatusPending InvoiceStatus = "pending"
	InvoiceStatusPaid    InvoiceStatus = "paid"
)

type Invoice struct {
	ID        string        `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	PaymentID string        `json:"payment_id" gorm:"not null;uniqueIndex"`
	Number    string        `json:"number" gorm:"not null;uniqueIndex"`
	Amount    int64         `json:"amount" gorm:"not null"`
	Status    InvoiceStatus `json:"status" gorm:"not null;default:'pending'"`
	DueDate   time.Time     `json:"due_date"`
	PaidAt    *time.Time    `json:"paid_at"`
	CreatedAt time.Time     `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time     `json:"updated_at" gorm:"autoUpdateTime"`
}

// TaxRecord is computed from the payment amount at creation time and never
// recalculated afterwards.
type TaxRecord struct {
	ID         string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	PaymentID  string    `json:"payment_id" gorm:"not null;uniqueIndex"`
	BaseAmount int64     `json:"base_amount" gorm:"not null"`
	Rate       float64   `json:"rate" gorm:"not null"`
	TaxAmount  int64     `json:"tax_amount" gorm:"not null"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
}

type ProcessPaymentRequest struct {
	UserID         string `json:"user_id"`
	ConsultationID string `json:"consultation_id"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	PaymentMethod  string `json:"payment_method"`
	IdempotencyKey string `json:"idempotency_key"`
}

// PaymentResult is the discriminated outcome of ProcessPayment. Outcome is
// "new" when this call created the payment and "existing" when a duplicate
// was detected, either through the idempotency key or through the database
// invariant check.
type PaymentResult struct {
	Outcome   PaymentOutcome `json:"outcome"`
	PaymentID string         `json:"payment_id"`
	Status    PaymentStatus  `json:"status"`
}

type RefundPaymentRequest struct {
	PaymentID string `json:"payment_id"`
	Amount    int64  `json:"amount,omitempty"`
	Reason    string `json:"reason"`
}
