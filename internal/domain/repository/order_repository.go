package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"codeapt/internal/common"
	"codeapt/internal/domain/model"
)

type OrderRepository interface {
	Create(ctx context.Context, o *model.PaymentOrder) error
	FindByMerchantOrderID(ctx context.Context, tx *sql.Tx, merchantOrderID string) (*model.PaymentOrder, error)
	UpdateStatus(ctx context.Context, tx *sql.Tx, id string, status model.OrderStatus, providerTxnID string) error
	IncrementAttempts(ctx context.Context, id string) (int, error)
}

type pgOrderRepository struct {
	db *sql.DB
}

func NewPgOrderRepository(db *sql.DB) OrderRepository {
	return &pgOrderRepository{db: db}
}

func (r *pgOrderRepository) Create(ctx context.Context, o *model.PaymentOrder) error {
	query := `INSERT INTO payment_orders (id, merchant_order_id, user_id, subject_id, amount_minor, status)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, o.ID, o.MerchantOrderID, o.UserID, o.SubjectID, o.AmountMinor, o.Status).
		Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return fmt.Errorf("merchant order id already used: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgOrderRepository.Create: %w", err)
	}
	return nil
}

// FindByMerchantOrderID locks the row FOR UPDATE when called inside tx.
func (r *pgOrderRepository) FindByMerchantOrderID(ctx context.Context, tx *sql.Tx, merchantOrderID string) (*model.PaymentOrder, error) {
	query := `SELECT id, merchant_order_id, user_id, subject_id, amount_minor, status,
	              COALESCE(provider_txn_id, ''), attempts, created_at, updated_at
	          FROM payment_orders WHERE merchant_order_id = $1`
	if tx != nil {
		query += ` FOR UPDATE`
	}
	o := &model.PaymentOrder{}
	err := on(r.db, tx).QueryRowContext(ctx, query, merchantOrderID).Scan(
		&o.ID, &o.MerchantOrderID, &o.UserID, &o.SubjectID, &o.AmountMinor, &o.Status,
		&o.ProviderTxnID, &o.Attempts, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgOrderRepository.FindByMerchantOrderID: %w", err)
	}
	return o, nil
}

func (r *pgOrderRepository) UpdateStatus(ctx context.Context, tx *sql.Tx, id string, status model.OrderStatus, providerTxnID string) error {
	query := `UPDATE payment_orders
	          SET status = $1, provider_txn_id = COALESCE(NULLIF($2, ''), provider_txn_id), updated_at = CURRENT_TIMESTAMP
	          WHERE id = $3`
	if _, err := on(r.db, tx).ExecContext(ctx, query, status, providerTxnID, id); err != nil {
		return fmt.Errorf("pgOrderRepository.UpdateStatus: %w", err)
	}
	return nil
}

func (r *pgOrderRepository) IncrementAttempts(ctx context.Context, id string) (int, error) {
	var attempts int
	query := `UPDATE payment_orders SET attempts = attempts + 1, updated_at = CURRENT_TIMESTAMP
	          WHERE id = $1 RETURNING attempts`
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&attempts); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrNotFound
		}
		return 0, fmt.Errorf("pgOrderRepository.IncrementAttempts: %w", err)
	}
	return attempts, nil
}
