package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vibast-solutions/ms-go-payment-links/app/entity"
)

func TestRunWarningBatchWarnsOnce(t *testing.T) {
	paymentRepo := newFakePaymentRepo()
	payment := seedPendingPayment(paymentRepo, "pay-1")
	payment.ExpiresAt = time.Now().UTC().Add(2 * 24 * time.Hour)
	notifier := &fakeNotifier{}
	svc := newPaymentLinkServiceForTest(paymentRepo, newFakePayerRepo(), &fakeProvider{}, notifier)

	if err := svc.RunWarningBatch(context.Background()); err != nil {
		t.Fatalf("first warning batch failed: %v", err)
	}
	if err := svc.RunWarningBatch(context.Background()); err != nil {
		t.Fatalf("second warning batch failed: %v", err)
	}

	if len(notifier.warnings) != 1 {
		t.Fatalf("expected one warning email, got %d", len(notifier.warnings))
	}
	if notifier.warnings[0].PaymentID != "pay-1" {
		t.Fatalf("unexpected warned payment %q", notifier.warnings[0].PaymentID)
	}
	if !paymentRepo.get("pay-1").ExpiryWarningSent {
		t.Fatal("expected warning flag set")
	}
}

func TestRunWarningBatchSkipsOutsideWindow(t *testing.T) {
	paymentRepo := newFakePaymentRepo()
	now := time.Now().UTC()
	farOut := seedPendingPayment(paymentRepo, "far-out")
	farOut.ExpiresAt = now.Add(4 * 24 * time.Hour)
	imminent := seedPendingPayment(paymentRepo, "imminent")
	imminent.ExpiresAt = now.Add(12 * time.Hour)
	notifier := &fakeNotifier{}
	svc := newPaymentLinkServiceForTest(paymentRepo, newFakePayerRepo(), &fakeProvider{}, notifier)

	if err := svc.RunWarningBatch(context.Background()); err != nil {
		t.Fatalf("warning batch failed: %v", err)
	}
	if len(notifier.warnings) != 0 {
		t.Fatalf("expected no warnings outside the window, got %d", len(notifier.warnings))
	}
}

func TestRunWarningBatchRetriesAfterNotifierFailure(t *testing.T) {
	paymentRepo := newFakePaymentRepo()
	payment := seedPendingPayment(paymentRepo, "pay-1")
	payment.ExpiresAt = time.Now().UTC().Add(2 * 24 * time.Hour)
	notifier := &fakeNotifier{warningErr: errors.New("smtp unavailable")}
	svc := newPaymentLinkServiceForTest(paymentRepo, newFakePayerRepo(), &fakeProvider{}, notifier)

	if err := svc.RunWarningBatch(context.Background()); err == nil {
		t.Fatal("expected error from failed warning batch")
	}
	if paymentRepo.get("pay-1").ExpiryWarningSent {
		t.Fatal("expected warning flag untouched after send failure")
	}

	notifier.warningErr = nil
	if err := svc.RunWarningBatch(context.Background()); err != nil {
		t.Fatalf("retry warning batch failed: %v", err)
	}
	if len(notifier.warnings) != 1 {
		t.Fatalf("expected one warning after retry, got %d", len(notifier.warnings))
	}
	if !paymentRepo.get("pay-1").ExpiryWarningSent {
		t.Fatal("expected warning flag set after retry")
	}
}

func TestRunExpireBatchExpiresOverduePayments(t *testing.T) {
	paymentRepo := newFakePaymentRepo()
	overdue := seedPendingPayment(paymentRepo, "overdue")
	overdue.ExpiresAt = time.Now().UTC().Add(-time.Hour)
	current := seedPendingPayment(paymentRepo, "current")
	current.ExpiresAt = time.Now().UTC().Add(24 * time.Hour)
	stripe := &fakeProvider{}
	svc := newPaymentLinkServiceForTest(paymentRepo, newFakePayerRepo(), stripe, &fakeNotifier{})

	if err := svc.RunExpireBatch(context.Background()); err != nil {
		t.Fatalf("expire batch failed: %v", err)
	}

	if got := paymentRepo.get("overdue").Status; got != entity.StatusExpired {
		t.Fatalf("expected overdue payment expired, got %q", got)
	}
	if got := paymentRepo.get("current").Status; got != entity.StatusPending {
		t.Fatalf("expected current payment untouched, got %q", got)
	}
	if stripe.deactivatedCount() != 1 {
		t.Fatalf("expected one link deactivation, got %d", stripe.deactivatedCount())
	}
}

func TestRunExpireBatchSkipsPaidPayments(t *testing.T) {
	paymentRepo := newFakePaymentRepo()
	payment := seedPendingPayment(paymentRepo, "pay-1")
	payment.ExpiresAt = time.Now().UTC().Add(-time.Hour)
	payment.Status = entity.StatusPaid
	svc := newPaymentLinkServiceForTest(paymentRepo, newFakePayerRepo(), &fakeProvider{}, &fakeNotifier{})

	if err := svc.RunExpireBatch(context.Background()); err != nil {
		t.Fatalf("expire batch failed: %v", err)
	}
	if paymentRepo.get("pay-1").Status != entity.StatusPaid {
		t.Fatal("expected paid payment untouched")
	}
}

func TestRunSweepRunsBothPasses(t *testing.T) {
	paymentRepo := newFakePaymentRepo()
	now := time.Now().UTC()
	warned := seedPendingPayment(paymentRepo, "warned")
	warned.ExpiresAt = now.Add(2 * 24 * time.Hour)
	lapsed := seedPendingPayment(paymentRepo, "lapsed")
	lapsed.ExpiresAt = now.Add(-time.Hour)
	notifier := &fakeNotifier{}
	svc := newPaymentLinkServiceForTest(paymentRepo, newFakePayerRepo(), &fakeProvider{}, notifier)

	if err := svc.RunSweep(context.Background()); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	if len(notifier.warnings) != 1 {
		t.Fatalf("expected one warning, got %d", len(notifier.warnings))
	}
	if paymentRepo.get("lapsed").Status != entity.StatusExpired {
		t.Fatal("expected lapsed payment expired")
	}
	if paymentRepo.get("warned").Status != entity.StatusPending {
		t.Fatal("expected warned payment still pending")
	}
}
