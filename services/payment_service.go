package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/medorbit/telecare/models"
	"github.com/medorbit/telecare/providers"
	"github.com/medorbit/telecare/utils"
)

type paymentStore interface {
	WithTransactionRetry(ctx context.Context, policy *utils.RetryConfig, fn func(context.Context) error) error
	Create(ctx context.Context, payment *models.Payment) error
	CreateInvoice(ctx context.Context, invoice *models.Invoice) error
	CreateTaxRecord(ctx context.Context, record *models.TaxRecord) error
	Update(ctx context.Context, payment *models.Payment) error
	GetByIDForUpdate(ctx context.Context, id string) (*models.Payment, error)
	FindActiveForConsultation(ctx context.Context, consultationID, userID string) (*models.Payment, error)
	TransactionIDInUse(ctx context.Context, transactionID, excludePaymentID string) (bool, error)
	GetInvoiceByPayment(ctx context.Context, paymentID string) (*models.Invoice, error)
	UpdateInvoice(ctx context.Context, invoice *models.Invoice) error
}

type consultationStore interface {
	GetByIDForUpdate(ctx context.Context, id string) (*models.Consultation, error)
}

type locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (string, error)
	Release(ctx context.Context, key, token string) bool
}

type idempotencyStore interface {
	Check(ctx context.Context, key string) (*models.IdempotencyRecord, error)
	Store(ctx context.Context, key string, record *models.IdempotencyRecord) error
}

// PaymentConfig carries the workflow knobs; zero values fall back to the
// defaults set in CreatePaymentService.
type PaymentConfig struct {
	TaxRate      float64
	InvoiceDueIn time.Duration
	LockTTL      time.Duration
	TxRetry      *utils.RetryConfig
}

// PaymentService orchestrates the payment workflows. Each operation follows
// the same shape: idempotency fast path, distributed lock for the whole
// operation, transaction with explicit row locks for the mutation, outcome
// caching, and a deferred lock release on every exit.
type PaymentService struct {
	payments      paymentStore
	consultations consultationStore
	locks         locker
	idempotency   idempotencyStore
	provider      providers.PaymentProvider
	audit         *AuditService
	notifier      Notifier
	config        PaymentConfig
	logger        *utils.Logger
}

func CreatePaymentService(
	payments paymentStore,
	consultations consultationStore,
	locks locker,
	idempotency idempotencyStore,
	provider providers.PaymentProvider,
	audit *AuditService,
	notifier Notifier,
	config PaymentConfig,
) *PaymentService {
	if config.TaxRate == 0 {
		config.TaxRate = 0.18
	}
	if config.InvoiceDueIn == 0 {
		config.InvoiceDueIn = 24 * time.Hour
	}
	if config.LockTTL == 0 {
		config.LockTTL = 30 * time.Second
	}
	return &PaymentService{
		payments:      payments,
		consultations: consultations,
		locks:         locks,
		idempotency:   idempotency,
		provider:      provider,
		audit:         audit,
		notifier:      notifier,
		config:        config,
		logger:        utils.NewLogger("payments"),
	}
}

// ProcessPayment creates the payment for a consultation exactly once. The
// idempotency key short-circuits replays of the same logical attempt; the
// database check under the consultation row lock catches duplicates that
// arrive under a different key, e.g. the same user paying from two tabs.
func (s *PaymentService) ProcessPayment(ctx context.Context, req *models.ProcessPaymentRequest) (*models.PaymentResult, error) {
	if err := validateProcessRequest(req); err != nil {
		return nil, err
	}

	cached, err := s.idempotency.Check(ctx, req.IdempotencyKey)
	if err != nil {
		return nil, utils.WrapError(err, "idempotency check failed")
	}
	if cached != nil {
		return &models.PaymentResult{
			Outcome:   models.OutcomeExisting,
			PaymentID: cached.EntityID,
			Status:    models.PaymentStatus(cached.Status),
		}, nil
	}

	// The lock outlives the transaction on purpose: two transactions started
	// milliseconds apart could both pass the no-existing-payment check before
	// either commits. Serializing the whole operation closes that window.
	lockName := fmt.Sprintf("payment:%s:%s", req.ConsultationID, req.UserID)
	token, err := s.locks.Acquire(ctx, lockName, s.config.LockTTL)
	if err != nil {
		return nil, err
	}
	defer s.locks.Release(ctx, lockName, token)

	var result *models.PaymentResult
	err = s.payments.WithTransactionRetry(ctx, s.config.TxRetry, func(txCtx context.Context) error {
		consultation, err := s.consultations.GetByIDForUpdate(txCtx, req.ConsultationID)
		if err != nil {
			return utils.WrapError(err, "failed to load consultation")
		}
		if consultation.PatientID != req.UserID {
			return utils.AuthorizationDeniedError("consultation does not belong to this user")
		}

		existing, err := s.payments.FindActiveForConsultation(txCtx, req.ConsultationID, req.UserID)
		if err != nil {
			return utils.WrapError(err, "failed to check for existing payment")
		}
		if existing != nil {
			result = &models.PaymentResult{
				Outcome:   models.OutcomeExisting,
				PaymentID: existing.ID,
				Status:    existing.Status,
			}
			return nil
		}

		payment := &models.Payment{
			ID:             uuid.NewString(),
			UserID:         req.UserID,
			ConsultationID: req.ConsultationID,
			Amount:         req.Amount,
			Currency:       req.Currency,
			PaymentMethod:  req.PaymentMethod,
			Status:         models.PaymentStatusPending,
		}
		if err := s.payments.Create(txCtx, payment); err != nil {
			return utils.WrapError(err, "failed to create payment")
		}

		invoice := &models.Invoice{
			PaymentID: payment.ID,
			Number:    invoiceNumber(),
			Amount:    payment.Amount,
			Status:    models.InvoiceStatusPending,
			DueDate:   time.Now().UTC().Add(s.config.InvoiceDueIn),
		}
		if err := s.payments.CreateInvoice(txCtx, invoice); err != nil {
			return utils.WrapError(err, "failed to create invoice")
		}

		tax := &models.TaxRecord{
			PaymentID:  payment.ID,
			BaseAmount: payment.Amount,
			Rate:       s.config.TaxRate,
			TaxAmount:  int64(float64(payment.Amount) * s.config.TaxRate),
		}
		if err := s.payments.CreateTaxRecord(txCtx, tax); err != nil {
			return utils.WrapError(err, "failed to create tax record")
		}

		result = &models.PaymentResult{
			Outcome:   models.OutcomeNew,
			PaymentID: payment.ID,
			Status:    payment.Status,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if storeErr := s.idempotency.Store(ctx, req.IdempotencyKey, &models.IdempotencyRecord{
		Outcome:  result.Outcome,
		EntityID: result.PaymentID,
		Status:   string(result.Status),
	}); storeErr != nil {
		// The rows are committed; losing the cache entry only costs a replay
		// the extra trip through the lock and the database check.
		s.logger.Warn(ctx, "failed to cache payment outcome", map[string]interface{}{
			"idempotency_key": req.IdempotencyKey,
			"error":           storeErr.Error(),
		})
	}

	if result.Outcome == models.OutcomeNew {
		s.afterCommit(ctx, req.UserID, models.AuditActionProcess, result.PaymentID, "payment.created", map[string]interface{}{
			"payment_id":      result.PaymentID,
			"consultation_id": req.ConsultationID,
			"amount":          req.Amount,
		})
	}

	return result, nil
}

// ConfirmPayment moves a pending payment to completed, binding it to the
// external transaction reference. Confirming a payment in any other status is
// a fatal InvalidStateTransition.
func (s *PaymentService) ConfirmPayment(ctx context.Context, paymentID, externalTransactionID string) (*models.Payment, error) {
	if paymentID == "" {
		return nil, utils.ValidationError("payment id is required")
	}
	if externalTransactionID == "" {
		return nil, utils.ValidationError("external transaction id is required")
	}

	lockName := fmt.Sprintf("payment-confirm:%s", paymentID)
	token, err := s.locks.Acquire(ctx, lockName, s.config.LockTTL)
	if err != nil {
		return nil, err
	}
	defer s.locks.Release(ctx, lockName, token)

	var payment *models.Payment
	err = s.payments.WithTransactionRetry(ctx, s.config.TxRetry, func(txCtx context.Context) error {
		payment, err = s.payments.GetByIDForUpdate(txCtx, paymentID)
		if err != nil {
			return utils.WrapError(err, "failed to load payment")
		}
		if payment.Status != models.PaymentStatusPending {
			return utils.InvalidTransitionError(string(payment.Status), string(models.PaymentStatusCompleted))
		}

		inUse, err := s.payments.TransactionIDInUse(txCtx, externalTransactionID, paymentID)
		if err != nil {
			return utils.WrapError(err, "failed to check transaction id")
		}
		if inUse {
			return utils.ValidationError("external transaction id already used by another payment")
		}

		if s.provider != nil {
			verification, err := s.provider.VerifyCharge(txCtx, externalTransactionID)
			if err != nil {
				return utils.WrapDomainError(utils.KindUnavailable, "charge verification failed", err)
			}
			if !verification.Paid {
				return utils.ValidationError("external transaction is not paid")
			}
		}

		payment.Status = models.PaymentStatusCompleted
		payment.TransactionID = &externalTransactionID
		if err := s.payments.Update(txCtx, payment); err != nil {
			return utils.WrapError(err, "failed to update payment")
		}

		invoice, err := s.payments.GetInvoiceByPayment(txCtx, paymentID)
		if err != nil {
			return utils.WrapError(err, "failed to load invoice")
		}
		now := time.Now().UTC()
		invoice.Status = models.InvoiceStatusPaid
		invoice.PaidAt = &now
		if err := s.payments.UpdateInvoice(txCtx, invoice); err != nil {
			return utils.WrapError(err, "failed to update invoice")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, payment.UserID, models.AuditActionConfirm, payment.ID, "payment.confirmed", map[string]interface{}{
		"payment_id":     payment.ID,
		"transaction_id": externalTransactionID,
	})

	return payment, nil
}

// RefundPayment refunds a completed payment, fully when amount is zero or
// partially otherwise. Refunding a non-completed payment is a fatal
// InvalidStateTransition; a refund above the original amount fails validation.
func (s *PaymentService) RefundPayment(ctx context.Context, req *models.RefundPaymentRequest) (*models.Payment, error) {
	if req.PaymentID == "" {
		return nil, utils.ValidationError("payment id is required")
	}
	if req.Amount < 0 {
		return nil, utils.ValidationError("refund amount must not be negative")
	}

	lockName := fmt.Sprintf("payment-refund:%s", req.PaymentID)
	token, err := s.locks.Acquire(ctx, lockName, s.config.LockTTL)
	if err != nil {
		return nil, err
	}
	defer s.locks.Release(ctx, lockName, token)

	var payment *models.Payment
	err = s.payments.WithTransactionRetry(ctx, s.config.TxRetry, func(txCtx context.Context) error {
		payment, err = s.payments.GetByIDForUpdate(txCtx, req.PaymentID)
		if err != nil {
			return utils.WrapError(err, "failed to load payment")
		}
		if payment.Status != models.PaymentStatusCompleted {
			return utils.InvalidTransitionError(string(payment.Status), string(models.PaymentStatusRefunded))
		}

		amount := req.Amount
		if amount == 0 {
			amount = payment.Amount
		}
		if amount > payment.Amount {
			return utils.ValidationError(
				fmt.Sprintf("refund amount %d exceeds payment amount %d", amount, payment.Amount))
		}

		if s.provider != nil && payment.TransactionID != nil {
			if _, err := s.provider.Refund(txCtx, *payment.TransactionID, amount, req.Reason); err != nil {
				return utils.WrapDomainError(utils.KindUnavailable, "provider refund failed", err)
			}
		}

		now := time.Now().UTC()
		payment.Status = models.PaymentStatusRefunded
		payment.RefundAmount = amount
		payment.RefundReason = req.Reason
		payment.RefundedAt = &now
		if err := s.payments.Update(txCtx, payment); err != nil {
			return utils.WrapError(err, "failed to update payment")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, payment.UserID, models.AuditActionRefund, payment.ID, "payment.refunded", map[string]interface{}{
		"payment_id":    payment.ID,
		"refund_amount": payment.RefundAmount,
		"reason":        req.Reason,
	})

	return payment, nil
}

// afterCommit dispatches the post-commit collaborators. They run outside the
// atomic unit and never fail the operation.
func (s *PaymentService) afterCommit(ctx context.Context, actorID string, action models.AuditAction, paymentID, event string, payload map[string]interface{}) {
	if s.audit != nil {
		s.audit.Record(ctx, &models.AuditLog{
			ActorID:      actorID,
			Action:       string(action),
			ResourceType: string(models.AuditResourcePayment),
			ResourceID:   paymentID,
			Success:      true,
			Metadata:     models.JSON(payload),
		})
	}
	if s.notifier != nil {
		s.notifier.Notify(ctx, event, payload)
	}
}

func validateProcessRequest(req *models.ProcessPaymentRequest) error {
	if req.UserID == "" {
		return utils.ValidationError("user id is required")
	}
	if req.ConsultationID == "" {
		return utils.ValidationError("consultation id is required")
	}
	if req.Amount <= 0 {
		return utils.ValidationError("amount must be positive")
	}
	if req.Currency == "" {
		return utils.ValidationError("currency is required")
	}
	if req.PaymentMethod == "" {
		return utils.ValidationError("payment method is required")
	}
	if req.IdempotencyKey == "" {
		return utils.ValidationError("idempotency key is required")
	}
	return nil
}

func invoiceNumber() string {
	return fmt.Sprintf("INV-%s-%s", time.Now().UTC().Format("20060102"), uuid.NewString()[:8])
}
