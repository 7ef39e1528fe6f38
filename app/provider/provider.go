package provider

import (
	"context"
	"time"
)

type LinkInput struct {
	PaymentID  string
	PayerEmail string
	CustomerID string

	AmountCents int64
	DueInDays   int
}

type LinkOutput struct {
	LinkID    string
	LinkURL   string
	InvoiceID string
}

// InvoiceDocument is the rendered invoice fetched after finalization.
type InvoiceDocument struct {
	InvoiceID string
	Number    string
	PDFURL    string
	HostedURL string
	PDF       []byte
}

type EventKind int32

const (
	EventKindNone EventKind = iota
	// EventKindLinkCompleted covers checkout/link completion events.
	EventKindLinkCompleted
	// EventKindInvoicePaid covers invoice payment events.
	EventKindInvoicePaid
)

// Event is a provider callback normalized to the fields the lifecycle
// engine cares about. PaymentID is the correlation id embedded in
// provider-side metadata at creation; it is empty for events that carry
// no correlation.
type Event struct {
	ProviderEventID string
	EventType       string
	PaymentID       string
	Kind            EventKind
}

type Provider interface {
	Name() string
	EnsureCustomer(ctx context.Context, email string) (string, error)
	CreatePaymentLink(ctx context.Context, input *LinkInput) (*LinkOutput, error)
	FetchInvoiceDocument(ctx context.Context, invoiceID string, maxAttempts int, delay time.Duration) (*InvoiceDocument, error)
	MarkInvoicePaidOutOfBand(ctx context.Context, invoiceID string) error
	DeactivateLink(ctx context.Context, linkID string) error
	VerifyAndParseEvent(ctx context.Context, payload []byte, signature string) (*Event, error)
}
