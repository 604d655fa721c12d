package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"codeapt/internal/common"
	"codeapt/internal/domain/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var orderCols = []string{"id", "merchant_order_id", "user_id", "subject_id", "amount_minor", "status",
	"provider_txn_id", "attempts", "created_at", "updated_at"}

func TestPgOrderRepository_FindByMerchantOrderID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPgOrderRepository(db)
	ctx := context.Background()
	now := time.Now()

	t.Run("found without lock", func(t *testing.T) {
		mock.ExpectQuery(`FROM payment_orders WHERE merchant_order_id = \$1$`).
			WithArgs("ORD-1").
			WillReturnRows(sqlmock.NewRows(orderCols).AddRow("o1", "ORD-1", "u1", "s1", int64(49900), "PENDING", "", 0, now, now))

		o, err := repo.FindByMerchantOrderID(ctx, nil, "ORD-1")
		require.NoError(t, err)
		assert.Equal(t, model.OrderPending, o.Status)
		assert.Equal(t, int64(49900), o.AmountMinor)
	})

	t.Run("locks inside transaction", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(`WHERE merchant_order_id = $1 FOR UPDATE`)).
			WithArgs("ORD-2").
			WillReturnRows(sqlmock.NewRows(orderCols).AddRow("o2", "ORD-2", "u1", "s1", int64(100), "SUCCESS", "T1", 2, now, now))
		mock.ExpectRollback()

		tx, err := db.BeginTx(ctx, nil)
		require.NoError(t, err)
		o, err := repo.FindByMerchantOrderID(ctx, tx, "ORD-2")
		require.NoError(t, err)
		assert.Equal(t, "T1", o.ProviderTxnID)
		require.NoError(t, tx.Rollback())
	})

	t.Run("unknown", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`FROM payment_orders WHERE merchant_order_id = $1`)).
			WithArgs("ORD-X").
			WillReturnRows(sqlmock.NewRows(orderCols))

		_, err := repo.FindByMerchantOrderID(ctx, nil, "ORD-X")
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPgOrderRepository_IncrementAttempts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPgOrderRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta(`SET attempts = attempts + 1`)).
		WithArgs("o1").
		WillReturnRows(sqlmock.NewRows([]string{"attempts"}).AddRow(3))

	n, err := repo.IncrementAttempts(context.Background(), "o1")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	require.NoError(t, mock.ExpectationsWereMet())
}
