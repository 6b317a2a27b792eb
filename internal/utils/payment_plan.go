package utils

import (
	"fmt"

	"dormhub-backend/internal/domain"
)

// PaymentPlan is the split of one rent amount into what is collected now and
// what is still owed.
type PaymentPlan struct {
	AmountNow        int64              `json:"amount_now"`
	RemainingBalance int64              `json:"remaining_balance"`
	PlanUsed         domain.PaymentType `json:"plan_used"`
}

// ComputePaymentPlan derives the amounts for a requested plan. A downpayment
// request on a property that does not offer one falls back to full payment.
func ComputePaymentPlan(property *domain.Property, requested domain.PaymentType) (PaymentPlan, error) {
	rent := property.RentAmount
	if rent <= 0 {
		return PaymentPlan{}, fmt.Errorf("%w: rent must be positive, got %d", domain.ErrInvalidConfiguration, rent)
	}

	if requested != domain.PaymentTypeDownpayment || !property.PaymentRules.EnableDownpayment {
		return PaymentPlan{
			AmountNow:        rent,
			RemainingBalance: 0,
			PlanUsed:         domain.PaymentTypeFull,
		}, nil
	}

	down := property.PaymentRules.DownpaymentAmount
	if down <= 0 || down >= rent {
		return PaymentPlan{}, fmt.Errorf("%w: downpayment %d must be between 0 and rent %d exclusive", domain.ErrInvalidConfiguration, down, rent)
	}

	return PaymentPlan{
		AmountNow:        down,
		RemainingBalance: rent - down,
		PlanUsed:         domain.PaymentTypeDownpayment,
	}, nil
}
