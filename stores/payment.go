package stores

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/medorbit/telecare/models"
)

type PaymentStore struct {
	BaseStore
}

func CreatePaymentStore(db *gorm.DB) *PaymentStore {
	return &PaymentStore{BaseStore: BaseStore{db: db}}
}

func (s *PaymentStore) Create(ctx context.Context, payment *models.Payment) error {
	return s.GetDB(ctx).Create(payment).Error
}

func (s *PaymentStore) CreateInvoice(ctx context.Context, invoice *models.Invoice) error {
	return s.GetDB(ctx).Create(invoice).Error
}

func (s *PaymentStore) CreateTaxRecord(ctx context.Context, record *models.TaxRecord) error {
	return s.GetDB(ctx).Create(record).Error
}

func (s *PaymentStore) Update(ctx context.Context, payment *models.Payment) error {
	return s.GetDB(ctx).Save(payment).Error
}

func (s *PaymentStore) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	var payment models.Payment
	if err := s.GetDB(ctx).First(&payment, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err, "payment", id)
	}
	return &payment, nil
}

// GetByIDForUpdate locks the payment row for the rest of the transaction.
func (s *PaymentStore) GetByIDForUpdate(ctx context.Context, id string) (*models.Payment, error) {
	var payment models.Payment
	err := s.GetDB(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&payment, "id = ?", id).Error
	if err != nil {
		return nil, translateNotFound(err, "payment", id)
	}
	return &payment, nil
}

// FindActiveForConsultation locks and returns the payment holding the
// one-active-payment invariant for (consultation, user), or nil when there is
// none. The FOR UPDATE lock keeps a concurrent transaction from passing the
// same check until this one commits.
func (s *PaymentStore) FindActiveForConsultation(ctx context.Context, consultationID, userID string) (*models.Payment, error) {
	var payment models.Payment
	err := s.GetDB(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("consultation_id = ? AND user_id = ? AND status IN ?",
			consultationID, userID, models.ActivePaymentStatuses()).
		Take(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

// TransactionIDInUse reports whether another payment already carries this
// external transaction id.
func (s *PaymentStore) TransactionIDInUse(ctx context.Context, transactionID, excludePaymentID string) (bool, error) {
	var count int64
	err := s.GetDB(ctx).
		Model(&models.Payment{}).
		Where("transaction_id = ? AND id <> ?", transactionID, excludePaymentID).
		Count(&count).Error
	return count > 0, err
}

func (s *PaymentStore) GetInvoiceByPayment(ctx context.Context, paymentID string) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := s.GetDB(ctx).First(&invoice, "payment_id = ?", paymentID).Error; err != nil {
		return nil, translateNotFound(err, "invoice for payment", paymentID)
	}
	return &invoice, nil
}

func (s *PaymentStore) UpdateInvoice(ctx context.Context, invoice *models.Invoice) error {
	return s.GetDB(ctx).Save(invoice).Error
}

func (s *PaymentStore) ListByUser(ctx context.Context, userID string) ([]*models.Payment, error) {
	var payments []*models.Payment
	if err := s.GetDB(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}
