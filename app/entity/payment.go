package entity

import "time"

const (
	StatusPending = "pending"
	StatusPaid    = "paid"
	StatusExpired = "expired"
)

type Payment struct {
	ID string

	PayerID    *uint64
	PayerEmail string

	AmountCents int64

	ProviderLinkURL   string
	ProviderLinkID    string
	ProviderInvoiceID string

	Status string

	CreatedAt time.Time
	ExpiresAt time.Time
	PaidAt    *time.Time

	ExpiryWarningSent bool
}

// IsTerminal reports whether the payment can no longer change status.
func (p *Payment) IsTerminal() bool {
	return p.Status == StatusPaid || p.Status == StatusExpired
}
