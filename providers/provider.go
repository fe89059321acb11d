// Package providers holds the external payment gateway integration. The
// workflows only reach the gateway after the database invariants are settled:
// confirm verifies a charge that already happened on the client, refund asks
// the gateway to return money for a charge it processed.
package providers

import (
	"context"
	"time"

	"github.com/medorbit/telecare/utils"
)

type ChargeVerification struct {
	TransactionID string
	Paid          bool
	Amount        int64
	Currency      string
}

type RefundResult struct {
	RefundID      string
	TransactionID string
	Status        string
	Amount        int64
}

type PaymentProvider interface {
	VerifyCharge(ctx context.Context, transactionID string) (*ChargeVerification, error)
	Refund(ctx context.Context, transactionID string, amount int64, reason string) (*RefundResult, error)
	IsAvailable(ctx context.Context) bool
}

// ProviderWrapper guards a PaymentProvider with a circuit breaker so a
// misbehaving gateway fails fast instead of holding workflow locks for the
// full provider timeout.
type ProviderWrapper struct {
	provider       PaymentProvider
	circuitBreaker *utils.CircuitBreaker
	name           string
}

func CreateProviderWrapper(provider PaymentProvider, name string) *ProviderWrapper {
	return &ProviderWrapper{
		provider:       provider,
		name:           name,
		circuitBreaker: utils.CreateCircuitBreaker(5, 30*time.Second),
	}
}

func (w *ProviderWrapper) Name() string {
	return w.name
}

func (w *ProviderWrapper) VerifyCharge(ctx context.Context, transactionID string) (*ChargeVerification, error) {
	var result *ChargeVerification
	err := w.circuitBreaker.Execute(ctx, func() error {
		var opErr error
		result, opErr = w.provider.VerifyCharge(ctx, transactionID)
		return opErr
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (w *ProviderWrapper) Refund(ctx context.Context, transactionID string, amount int64, reason string) (*RefundResult, error) {
	var result *RefundResult
	err := w.circuitBreaker.Execute(ctx, func() error {
		var opErr error
		result, opErr = w.provider.Refund(ctx, transactionID, amount, reason)
		return opErr
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (w *ProviderWrapper) IsAvailable(ctx context.Context) bool {
	if w.circuitBreaker.GetState() == utils.StateOpen {
		return false
	}
	return w.provider.IsAvailable(ctx)
}
