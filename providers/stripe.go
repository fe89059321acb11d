package providers

import (
	"context"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/balance"
	"github.com/stripe/stripe-go/v76/charge"
	"github.com/stripe/stripe-go/v76/refund"
)

type StripeProvider struct {
	apiKey string
}

func NewStripeProvider(apiKey string) *StripeProvider {
	stripe.Key = apiKey
	return &StripeProvider{
		apiKey: apiKey,
	}
}

func (p *StripeProvider) VerifyCharge(ctx context.Context, transactionID string) (*ChargeVerification, error) {
	ch, err := charge.Get(transactionID, &stripe.ChargeParams{})
	if err != nil {
		return nil, err
	}

	return &ChargeVerification{
		TransactionID: ch.ID,
		Paid:          ch.Paid && ch.Status == "succeeded",
		Amount:        ch.Amount,
		Currency:      string(ch.Currency),
	}, nil
}

func (p *StripeProvider) Refund(ctx context.Context, transactionID string, amount int64, reason string) (*RefundResult, error) {
	params := &stripe.RefundParams{
		Charge: stripe.String(transactionID),
		Amount: stripe.Int64(amount),
	}
	if reason != "" {
		params.AddMetadata("reason", reason)
	}

	ref, err := refund.New(params)
	if err != nil {
		return nil, err
	}

	return &RefundResult{
		RefundID:      ref.ID,
		TransactionID: transactionID,
		Status:        string(ref.Status),
		Amount:        ref.Amount,
	}, nil
}

func (p *StripeProvider) IsAvailable(ctx context.Context) bool {
	_, err := balance.Get(&stripe.BalanceParams{})
	return err == nil
}
