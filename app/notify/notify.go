package notify

import (
	"context"
	"time"
)

type LinkIssuedParams struct {
	Email       string
	PaymentLink string
	AmountCents int64
	PaymentID   string
	ExpiresAt   time.Time
	InvoicePDF  []byte
}

type ExpiryWarningParams struct {
	Email       string
	PaymentLink string
	AmountCents int64
	PaymentID   string
}

type PaymentConfirmedParams struct {
	Email       string
	AmountCents int64
	PaymentID   string
	InvoicePDF  []byte
}

// Notifier delivers payer-facing notifications. Implementations are
// expected to be safe for concurrent use.
type Notifier interface {
	SendLinkIssued(ctx context.Context, params LinkIssuedParams) error
	SendExpiryWarning(ctx context.Context, params ExpiryWarningParams) error
	SendPaymentConfirmed(ctx context.Context, params PaymentConfirmedParams) error
}
