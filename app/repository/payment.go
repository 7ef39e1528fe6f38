package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/vibast-solutions/ms-go-payment-links/app/entity"
)

var ErrPaymentAlreadyExists = errors.New("payment already exists")

const paymentColumns = `id, payer_id, payer_email, amount_cents,
		provider_link_url, provider_link_id, provider_invoice_id,
		status, created_at, expires_at, paid_at, expiry_warning_sent`

type HistoryFilter struct {
	Email        string
	Status       string
	CreatedFrom  *time.Time
	ExpiresUntil *time.Time
	Limit        int32
}

type PaymentRepository struct {
	db DBTX
}

func NewPaymentRepository(db DBTX) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, payment *entity.Payment) error {
	query := `
		INSERT INTO payments (
			id, payer_id, payer_email, amount_cents,
			provider_link_url, provider_link_id, provider_invoice_id,
			status, created_at, expires_at, paid_at, expiry_warning_sent
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		payment.ID,
		nullableUint64Value(payment.PayerID),
		payment.PayerEmail,
		payment.AmountCents,
		payment.ProviderLinkURL,
		payment.ProviderLinkID,
		payment.ProviderInvoiceID,
		payment.Status,
		payment.CreatedAt,
		payment.ExpiresAt,
		nullableTimeValue(payment.PaidAt),
		payment.ExpiryWarningSent,
	)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrPaymentAlreadyExists
		}
		return err
	}

	return nil
}

func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = ?`

	payment := &entity.Payment{}
	if err := scanPayment(r.db.QueryRowContext(ctx, query, id), payment); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	return payment, nil
}

func (r *PaymentRepository) History(ctx context.Context, filter HistoryFilter) ([]*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments`

	conditions := []string{"payer_email = ?"}
	args := []interface{}{filter.Email}

	if strings.TrimSpace(filter.Status) != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.CreatedFrom != nil {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, *filter.CreatedFrom)
	}
	if filter.ExpiresUntil != nil {
		conditions = append(conditions, "expires_at <= ?")
		args = append(args, *filter.ExpiresUntil)
	}

	query += " WHERE " + strings.Join(conditions, " AND ")
	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, filter.Limit)

	return r.queryPayments(ctx, query, args...)
}

// ListExpiring returns pending payments whose expiry falls inside the
// warning window and that have not been warned yet.
func (r *PaymentRepository) ListExpiring(ctx context.Context, from, until time.Time, limit int32) ([]*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments
		WHERE status = ?
		  AND expiry_warning_sent = FALSE
		  AND expires_at >= ?
		  AND expires_at <= ?
		ORDER BY expires_at ASC
		LIMIT ?
	`

	return r.queryPayments(ctx, query, entity.StatusPending, from, until, limit)
}

func (r *PaymentRepository) ListExpired(ctx context.Context, now time.Time, limit int32) ([]*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments
		WHERE status = ?
		  AND expires_at < ?
		ORDER BY expires_at ASC
		LIMIT ?
	`

	return r.queryPayments(ctx, query, entity.StatusPending, now, limit)
}

// MarkPaid transitions a payment to paid only if it is still pending.
// The returned bool reports whether the conditional write applied.
func (r *PaymentRepository) MarkPaid(ctx context.Context, id string, paidAt time.Time) (bool, error) {
	query := `UPDATE payments SET status = ?, paid_at = ? WHERE id = ? AND status = ?`

	result, err := r.db.ExecContext(ctx, query, entity.StatusPaid, paidAt, id, entity.StatusPending)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// MarkExpired transitions a payment to expired only if it is still pending.
func (r *PaymentRepository) MarkExpired(ctx context.Context, id string) (bool, error) {
	query := `UPDATE payments SET status = ? WHERE id = ? AND status = ?`

	result, err := r.db.ExecContext(ctx, query, entity.StatusExpired, id, entity.StatusPending)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// MarkWarningSent sets the expiry warning flag only once, and only while
// the payment is still pending.
func (r *PaymentRepository) MarkWarningSent(ctx context.Context, id string) (bool, error) {
	query := `UPDATE payments SET expiry_warning_sent = TRUE
		WHERE id = ? AND status = ? AND expiry_warning_sent = FALSE`

	result, err := r.db.ExecContext(ctx, query, id, entity.StatusPending)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *PaymentRepository) queryPayments(ctx context.Context, query string, args ...interface{}) ([]*entity.Payment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := make([]*entity.Payment, 0)
	for rows.Next() {
		item := &entity.Payment{}
		if err := scanPayment(rows, item); err != nil {
			return nil, err
		}
		payments = append(payments, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return payments, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPayment(scan rowScanner, payment *entity.Payment) error {
	var payerID sql.NullInt64
	var paidAt sql.NullTime

	err := scan.Scan(
		&payment.ID,
		&payerID,
		&payment.PayerEmail,
		&payment.AmountCents,
		&payment.ProviderLinkURL,
		&payment.ProviderLinkID,
		&payment.ProviderInvoiceID,
		&payment.Status,
		&payment.CreatedAt,
		&payment.ExpiresAt,
		&paidAt,
		&payment.ExpiryWarningSent,
	)
	if err != nil {
		return err
	}

	payment.PayerID = uint64PtrFromNull(payerID)
	payment.PaidAt = timePtrFromNull(paidAt)

	return nil
}
