package entity

import "time"

type Payer struct {
	ID uint64

	Email string

	ProviderCustomerID *string

	CreatedAt time.Time
	UpdatedAt time.Time
}
