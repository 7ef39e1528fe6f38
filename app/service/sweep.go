package service

import (
	"context"
	"errors"
	"time"

	"github.com/vibast-solutions/ms-go-payment-links/app/entity"
	"github.com/vibast-solutions/ms-go-payment-links/app/notify"
	"github.com/vibast-solutions/ms-go-payment-links/app/provider"
)

// RunSweep executes one reconciliation pass: expiry warnings first,
// then expiration of lapsed links. Both passes rely on conditional
// store writes, so overlapping runs cannot double-send or double-expire.
func (s *PaymentLinkService) RunSweep(ctx context.Context) error {
	warningErr := s.RunWarningBatch(ctx)
	expireErr := s.RunExpireBatch(ctx)
	return keepFirstErr(warningErr, expireErr)
}

// RunWarningBatch sends an expiry warning for pending payments whose
// expiry falls inside the configured lookahead window. The warning flag
// is set through a conditional write so a record is warned at most once.
func (s *PaymentLinkService) RunWarningBatch(ctx context.Context) error {
	now := time.Now().UTC()
	from := now.Add(s.warningWindowFrom())
	until := now.Add(s.warningWindowUntil())

	items, err := s.paymentRepo.ListExpiring(ctx, from, until, s.batchSize())
	if err != nil {
		return err
	}

	var firstErr error
	for _, payment := range items {
		if payment == nil || payment.Status != entity.StatusPending {
			continue
		}

		if err := s.notifier.SendExpiryWarning(ctx, notify.ExpiryWarningParams{
			Email:       payment.PayerEmail,
			PaymentLink: payment.ProviderLinkURL,
			AmountCents: payment.AmountCents,
			PaymentID:   payment.ID,
		}); err != nil {
			// Eligible again on the next run.
			s.logger.WithError(err).WithField("payment_id", payment.ID).
				Warn("Expiry warning notification failed")
			firstErr = keepFirstErr(firstErr, err)
			continue
		}

		applied, err := s.paymentRepo.MarkWarningSent(ctx, payment.ID)
		if err != nil {
			firstErr = keepFirstErr(firstErr, err)
			continue
		}
		if !applied {
			s.logger.WithField("payment_id", payment.ID).
				Debug("Warning flag already set or payment resolved, skipping")
		}
	}

	return firstErr
}

// RunExpireBatch expires pending payments whose expiry is in the past
// and deactivates their provider-side links. The status transition is a
// conditional write; losing the race against a concurrent confirmation
// leaves the payment paid.
func (s *PaymentLinkService) RunExpireBatch(ctx context.Context) error {
	now := time.Now().UTC()

	items, err := s.paymentRepo.ListExpired(ctx, now, s.batchSize())
	if err != nil {
		return err
	}

	providerClient, err := s.providerReg.Get(defaultProviderName)
	if err != nil {
		if errors.Is(err, provider.ErrProviderNotSupported) {
			return ErrProviderUnsupported
		}
		return err
	}

	var firstErr error
	for _, payment := range items {
		if payment == nil || payment.Status != entity.StatusPending {
			continue
		}

		s.deactivateLink(ctx, providerClient, payment)

		applied, err := s.paymentRepo.MarkExpired(ctx, payment.ID)
		if err != nil {
			firstErr = keepFirstErr(firstErr, err)
			continue
		}
		if !applied {
			s.logger.WithField("payment_id", payment.ID).
				Debug("Payment resolved before expiry write, skipping")
			continue
		}

		s.logger.WithField("payment_id", payment.ID).Info("Payment expired")
	}

	return firstErr
}

func (s *PaymentLinkService) warningWindowFrom() time.Duration {
	if s.paymentsCfg.WarningWindowFrom > 0 {
		return s.paymentsCfg.WarningWindowFrom
	}
	return 24 * time.Hour
}

func (s *PaymentLinkService) warningWindowUntil() time.Duration {
	if s.paymentsCfg.WarningWindowUntil > 0 {
		return s.paymentsCfg.WarningWindowUntil
	}
	return 3 * 24 * time.Hour
}

func keepFirstErr(current error, candidate error) error {
	if current != nil {
		return current
	}
	return candidate
}
