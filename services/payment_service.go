package services

import (
	"context"

	"foodninja/apperrors"

	"github.com/shopspring/decimal"
)

type PaymentService struct {
	gateway IntentCreator
}

func NewPaymentService(gateway IntentCreator) *PaymentService {
	return &PaymentService{gateway: gateway}
}

// CreateIntent asks the provider for an intent of amount (major units) tagged
// with the user. The amount is not checked against the cart: the provider's
// confirmation is what the order records.
func (s *PaymentService) CreateIntent(ctx context.Context, userID string, amount decimal.Decimal) (string, error) {
	if userID == "" {
		return "", apperrors.Validation("Amount and User ID are required")
	}
	if !amount.IsPositive() {
		return "", apperrors.Validation("Amount must be greater than zero")
	}
	minor := ToMinorUnits(amount)
	if minor < 1 {
		return "", apperrors.Validation("Amount must be at least one minor currency unit")
	}

	intent, err := s.gateway.CreateIntent(ctx, userID, minor)
	if err != nil {
		return "", err
	}
	return intent.ClientSecret, nil
}

// ToMinorUnits converts a major-unit amount to cents, rounding half away from zero.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

// FromMinorUnits converts cents back to a major-unit amount.
func FromMinorUnits(minor int64) float64 {
	f, _ := decimal.New(minor, -2).Float64()
	return f
}
