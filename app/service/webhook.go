package service

import (
	"context"
	"errors"
	"time"

	"github.com/vibast-solutions/ms-go-payment-links/app/entity"
	"github.com/vibast-solutions/ms-go-payment-links/app/notify"
	"github.com/vibast-solutions/ms-go-payment-links/app/provider"
)

type providerEventRequest interface {
	GetProvider() string
	GetSignature() string
	GetPayload() []byte
}

// HandleProviderEvent verifies an inbound provider event, normalizes it
// to a correlation id, and applies the confirmation transition. Link
// completion and invoice payment events both confirm the same payment;
// the conditional status write makes redelivery safe.
func (s *PaymentLinkService) HandleProviderEvent(ctx context.Context, req providerEventRequest) error {
	providerClient, err := s.providerReg.Get(req.GetProvider())
	if err != nil {
		if errors.Is(err, provider.ErrProviderNotSupported) {
			return ErrProviderUnsupported
		}
		return err
	}

	event, err := providerClient.VerifyAndParseEvent(ctx, req.GetPayload(), req.GetSignature())
	if err != nil {
		if errors.Is(err, provider.ErrSignatureInvalid) {
			return ErrEventUnauthorized
		}
		s.logger.WithError(err).Warn("Provider event could not be parsed")
		return ErrEventMalformed
	}

	if event.Kind == provider.EventKindNone {
		s.logger.WithField("event_type", event.EventType).Debug("Ignoring unhandled provider event")
		return nil
	}
	if event.PaymentID == "" {
		s.logger.WithField("event_type", event.EventType).
			WithField("provider_event_id", event.ProviderEventID).
			Warn("Provider event carries no correlation id")
		return ErrEventMalformed
	}

	return s.Confirm(ctx, event.PaymentID, providerClient)
}

// Confirm applies the pending -> paid transition for the referenced
// payment. The transition itself is a conditional write against the
// store; provider-side cleanup is best-effort and never blocks the
// local record from reflecting the payment.
func (s *PaymentLinkService) Confirm(ctx context.Context, paymentID string, providerClient provider.Provider) error {
	payment, err := s.paymentRepo.FindByID(ctx, paymentID)
	if err != nil {
		return err
	}
	if payment == nil {
		s.logger.WithField("payment_id", paymentID).Warn("Confirmation for unknown payment")
		return ErrPaymentNotFound
	}

	now := time.Now().UTC()
	applied, err := s.paymentRepo.MarkPaid(ctx, payment.ID, now)
	if err != nil {
		return err
	}

	if !applied {
		// Already terminal: redelivered event or a race with the
		// expiry sweep. Repeat only the idempotent link cleanup.
		s.deactivateLink(ctx, providerClient, payment)
		return nil
	}

	if payment.ProviderInvoiceID != "" {
		if err := providerClient.MarkInvoicePaidOutOfBand(ctx, payment.ProviderInvoiceID); err != nil {
			s.logger.WithError(err).WithField("payment_id", payment.ID).
				Warn("Marking invoice paid out-of-band failed")
		}
	}
	s.deactivateLink(ctx, providerClient, payment)

	var invoicePDF []byte
	if payment.ProviderInvoiceID != "" {
		document, err := providerClient.FetchInvoiceDocument(ctx, payment.ProviderInvoiceID,
			s.paymentsCfg.InvoicePollAttempts, s.paymentsCfg.InvoicePollDelay)
		if err != nil {
			s.logger.WithError(err).WithField("payment_id", payment.ID).
				Warn("Invoice document unavailable for confirmation email")
		} else {
			invoicePDF = document.PDF
		}
	}

	if err := s.notifier.SendPaymentConfirmed(ctx, notify.PaymentConfirmedParams{
		Email:       payment.PayerEmail,
		AmountCents: payment.AmountCents,
		PaymentID:   payment.ID,
		InvoicePDF:  invoicePDF,
	}); err != nil {
		s.logger.WithError(err).WithField("payment_id", payment.ID).
			Error("Payment confirmed notification failed")
	}

	return nil
}

func (s *PaymentLinkService) deactivateLink(ctx context.Context, providerClient provider.Provider, payment *entity.Payment) {
	if payment.ProviderLinkID == "" {
		return
	}
	if err := providerClient.DeactivateLink(ctx, payment.ProviderLinkID); err != nil {
		s.logger.WithError(err).WithField("payment_id", payment.ID).
			WithField("link_id", payment.ProviderLinkID).
			Warn("Deactivating payment link failed")
	}
}
