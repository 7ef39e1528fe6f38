package mapper

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/vibast-solutions/ms-go-payment-links/app/entity"
	"github.com/vibast-solutions/ms-go-payment-links/app/types"
)

func PaymentToCreatedResponse(item *entity.Payment) *types.PaymentCreatedResponse {
	if item == nil {
		return nil
	}

	return &types.PaymentCreatedResponse{
		ID:          item.ID,
		PaymentLink: item.ProviderLinkURL,
		Amount:      amountString(item.AmountCents),
		ExpiresAt:   item.ExpiresAt.UTC().Format(time.RFC3339),
	}
}

func PaymentToResponse(item *entity.Payment) *types.PaymentResponse {
	if item == nil {
		return nil
	}

	var paidAt *string
	if item.PaidAt != nil {
		formatted := item.PaidAt.UTC().Format(time.RFC3339)
		paidAt = &formatted
	}

	return &types.PaymentResponse{
		ID:        item.ID,
		Email:     item.PayerEmail,
		Amount:    amountString(item.AmountCents),
		Status:    item.Status,
		CreatedAt: item.CreatedAt.UTC().Format(time.RFC3339),
		ExpiresAt: item.ExpiresAt.UTC().Format(time.RFC3339),
		PaidAt:    paidAt,
	}
}

func PaymentsToResponse(items []*entity.Payment) []*types.PaymentResponse {
	result := make([]*types.PaymentResponse, 0, len(items))
	for _, item := range items {
		result = append(result, PaymentToResponse(item))
	}
	return result
}

func PayerToResponse(item *entity.Payer) *types.PayerResponse {
	if item == nil {
		return nil
	}

	return &types.PayerResponse{
		ID:        item.ID,
		Email:     item.Email,
		CreatedAt: item.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func amountString(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}
