package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/vibast-solutions/ms-go-payment-links/app/entity"
)

var ErrPayerAlreadyExists = errors.New("payer already exists")

type PayerRepository struct {
	db DBTX
}

func NewPayerRepository(db DBTX) *PayerRepository {
	return &PayerRepository{db: db}
}

func (r *PayerRepository) Create(ctx context.Context, payer *entity.Payer) error {
	query := `
		INSERT INTO payers (email, provider_customer_id, created_at, updated_at)
		VALUES (?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		payer.Email,
		nullableStringValue(payer.ProviderCustomerID),
		payer.CreatedAt,
		payer.UpdatedAt,
	)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrPayerAlreadyExists
		}
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	payer.ID = uint64(id)

	return nil
}

func (r *PayerRepository) FindByEmail(ctx context.Context, email string) (*entity.Payer, error) {
	query := `
		SELECT id, email, provider_customer_id, created_at, updated_at
		FROM payers
		WHERE email = ?
		LIMIT 1
	`

	payer := &entity.Payer{}
	var customerID sql.NullString

	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&payer.ID,
		&payer.Email,
		&customerID,
		&payer.CreatedAt,
		&payer.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	payer.ProviderCustomerID = stringPtrFromNull(customerID)

	return payer, nil
}

func (r *PayerRepository) SetProviderCustomerID(ctx context.Context, id uint64, customerID string, now time.Time) error {
	query := `UPDATE payers SET provider_customer_id = ?, updated_at = ? WHERE id = ?`

	_, err := r.db.ExecContext(ctx, query, customerID, now, id)
	return err
}
