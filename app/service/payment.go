package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-payment-links/app/entity"
	"github.com/vibast-solutions/ms-go-payment-links/app/factory"
	"github.com/vibast-solutions/ms-go-payment-links/app/notify"
	"github.com/vibast-solutions/ms-go-payment-links/app/provider"
	"github.com/vibast-solutions/ms-go-payment-links/app/repository"
	"github.com/vibast-solutions/ms-go-payment-links/config"
)

const (
	defaultProviderName = "stripe"
	minAmountCents      = int64(50)

	defaultHistoryLimit = int32(50)
	defaultBatchSize    = int32(100)
)

type createPaymentLinkRequest interface {
	GetEmail() string
	GetAmountCents() int64
}

type historyRequest interface {
	GetEmail() string
	GetStatus() string
	GetStartDate() *time.Time
	GetEndDate() *time.Time
	GetLimit() int32
}

type paymentRepository interface {
	Create(ctx context.Context, payment *entity.Payment) error
	FindByID(ctx context.Context, id string) (*entity.Payment, error)
	History(ctx context.Context, filter repository.HistoryFilter) ([]*entity.Payment, error)
	ListExpiring(ctx context.Context, from, until time.Time, limit int32) ([]*entity.Payment, error)
	ListExpired(ctx context.Context, now time.Time, limit int32) ([]*entity.Payment, error)
	MarkPaid(ctx context.Context, id string, paidAt time.Time) (bool, error)
	MarkExpired(ctx context.Context, id string) (bool, error)
	MarkWarningSent(ctx context.Context, id string) (bool, error)
}

type payerRepository interface {
	Create(ctx context.Context, payer *entity.Payer) error
	FindByEmail(ctx context.Context, email string) (*entity.Payer, error)
	SetProviderCustomerID(ctx context.Context, id uint64, customerID string, now time.Time) error
}

type PaymentLinkService struct {
	paymentRepo paymentRepository
	payerRepo   payerRepository
	providerReg *provider.Registry
	notifier    notify.Notifier
	paymentsCfg config.PaymentsConfig
	logger      logrus.FieldLogger
}

func NewPaymentLinkService(
	paymentRepo paymentRepository,
	payerRepo payerRepository,
	providerReg *provider.Registry,
	notifier notify.Notifier,
	paymentsCfg config.PaymentsConfig,
) *PaymentLinkService {
	return &PaymentLinkService{
		paymentRepo: paymentRepo,
		payerRepo:   payerRepo,
		providerReg: providerReg,
		notifier:    notifier,
		paymentsCfg: paymentsCfg,
		logger:      factory.NewModuleLogger("payment-links-service"),
	}
}

// CreatePaymentLink provisions the provider-side price/invoice/link
// objects, persists the pending payment record, and emails the link.
// No record is persisted unless the provider objects and the rendered
// invoice document exist first.
func (s *PaymentLinkService) CreatePaymentLink(ctx context.Context, req createPaymentLinkRequest) (*entity.Payment, error) {
	email := normalizeEmail(req.GetEmail())
	amountCents := req.GetAmountCents()
	if email == "" || amountCents < minAmountCents {
		return nil, ErrInvalidRequest
	}

	// The three provider calls plus the document poll are bounded as a
	// single unit.
	if s.paymentsCfg.CreateTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.paymentsCfg.CreateTimeout)
		defer cancel()
	}

	providerClient, err := s.providerReg.Get(defaultProviderName)
	if err != nil {
		if errors.Is(err, provider.ErrProviderNotSupported) {
			return nil, ErrProviderUnsupported
		}
		return nil, err
	}

	payer, err := s.resolveOrCreatePayer(ctx, email)
	if err != nil {
		return nil, err
	}

	customerID, err := s.ensureProviderCustomer(ctx, providerClient, payer)
	if err != nil {
		return nil, err
	}

	paymentID := uuid.NewString()
	validityDays := int(s.linkValidity().Hours() / 24)

	linkOut, err := providerClient.CreatePaymentLink(ctx, &provider.LinkInput{
		PaymentID:   paymentID,
		PayerEmail:  email,
		CustomerID:  customerID,
		AmountCents: amountCents,
		DueInDays:   validityDays,
	})
	if err != nil {
		return nil, err
	}

	document, err := providerClient.FetchInvoiceDocument(ctx, linkOut.InvoiceID,
		s.paymentsCfg.InvoicePollAttempts, s.paymentsCfg.InvoicePollDelay)
	if err != nil {
		if errors.Is(err, provider.ErrDocumentTimeout) {
			// The provider-side objects stay behind without a local
			// record; an accepted leak.
			s.logger.WithField("payment_id", paymentID).
				WithField("invoice_id", linkOut.InvoiceID).
				Warn("Invoice document never materialized, payment not persisted")
			return nil, ErrProviderTimeout
		}
		return nil, err
	}

	now := time.Now().UTC()
	payerID := payer.ID
	payment := &entity.Payment{
		ID:                paymentID,
		PayerID:           &payerID,
		PayerEmail:        email,
		AmountCents:       amountCents,
		ProviderLinkURL:   linkOut.LinkURL,
		ProviderLinkID:    linkOut.LinkID,
		ProviderInvoiceID: linkOut.InvoiceID,
		Status:            entity.StatusPending,
		CreatedAt:         now,
		ExpiresAt:         now.Add(s.linkValidity()),
	}

	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, err
	}

	if err := s.notifier.SendLinkIssued(ctx, notify.LinkIssuedParams{
		Email:       email,
		PaymentLink: payment.ProviderLinkURL,
		AmountCents: payment.AmountCents,
		PaymentID:   payment.ID,
		ExpiresAt:   payment.ExpiresAt,
		InvoicePDF:  document.PDF,
	}); err != nil {
		// The record is valid and payable even when the email fails.
		s.logger.WithError(err).WithField("payment_id", payment.ID).
			Error("Link issued notification failed")
	}

	return payment, nil
}

func (s *PaymentLinkService) GetPayment(ctx context.Context, id string) (*entity.Payment, error) {
	payment, err := s.paymentRepo.FindByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, ErrPaymentNotFound
	}
	return payment, nil
}

func (s *PaymentLinkService) GetHistory(ctx context.Context, req historyRequest) ([]*entity.Payment, error) {
	email := normalizeEmail(req.GetEmail())
	if email == "" {
		return nil, ErrInvalidRequest
	}

	limit := req.GetLimit()
	if limit <= 0 {
		limit = s.historyLimit()
	}

	return s.paymentRepo.History(ctx, repository.HistoryFilter{
		Email:        email,
		Status:       strings.TrimSpace(req.GetStatus()),
		CreatedFrom:  req.GetStartDate(),
		ExpiresUntil: req.GetEndDate(),
		Limit:        limit,
	})
}

// GetOrCreatePayer resolves a payer profile by normalized email,
// creating one on first use.
func (s *PaymentLinkService) GetOrCreatePayer(ctx context.Context, email string) (*entity.Payer, error) {
	normalized := normalizeEmail(email)
	if normalized == "" {
		return nil, ErrInvalidRequest
	}
	return s.resolveOrCreatePayer(ctx, normalized)
}

func (s *PaymentLinkService) resolveOrCreatePayer(ctx context.Context, email string) (*entity.Payer, error) {
	payer, err := s.payerRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if payer != nil {
		return payer, nil
	}

	now := time.Now().UTC()
	payer = &entity.Payer{
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.payerRepo.Create(ctx, payer); err != nil {
		if errors.Is(err, repository.ErrPayerAlreadyExists) {
			return s.payerRepo.FindByEmail(ctx, email)
		}
		return nil, err
	}

	return payer, nil
}

func (s *PaymentLinkService) ensureProviderCustomer(ctx context.Context, providerClient provider.Provider, payer *entity.Payer) (string, error) {
	if payer.ProviderCustomerID != nil && strings.TrimSpace(*payer.ProviderCustomerID) != "" {
		return *payer.ProviderCustomerID, nil
	}

	customerID, err := providerClient.EnsureCustomer(ctx, payer.Email)
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	if err := s.payerRepo.SetProviderCustomerID(ctx, payer.ID, customerID, now); err != nil {
		return "", err
	}
	payer.ProviderCustomerID = &customerID

	return customerID, nil
}

func (s *PaymentLinkService) linkValidity() time.Duration {
	if s.paymentsCfg.LinkValidity > 0 {
		return s.paymentsCfg.LinkValidity
	}
	return 5 * 24 * time.Hour
}

func (s *PaymentLinkService) historyLimit() int32 {
	if s.paymentsCfg.HistoryLimit > 0 {
		return s.paymentsCfg.HistoryLimit
	}
	return defaultHistoryLimit
}

func (s *PaymentLinkService) batchSize() int32 {
	if s.paymentsCfg.JobBatchSize > 0 {
		return s.paymentsCfg.JobBatchSize
	}
	return defaultBatchSize
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
