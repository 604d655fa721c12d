package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"codeapt/internal/common"
	"codeapt/internal/domain/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPgUserRepository(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPgUserRepository(db)
	ctx := context.Background()

	t.Run("Create_Conflict", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users`)).
			WithArgs("u1", "ada", "ada@example.com", "hash", model.RoleUser).
			WillReturnError(&pgconn.PgError{Code: "23505"})

		err := repo.Create(ctx, &model.User{ID: "u1", Username: "ada", Email: "ada@example.com", HashedPassword: "hash", Role: model.RoleUser})
		assert.ErrorIs(t, err, common.ErrConflict)
	})

	t.Run("FindByUsername", func(t *testing.T) {
		now := time.Now()
		mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE username = $1`)).
			WithArgs("ada").
			WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "hashed_password", "role", "created_at", "updated_at"}).
				AddRow("u1", "ada", "ada@example.com", "hash", "admin", now, now))

		u, err := repo.FindByUsername(ctx, "ada")
		require.NoError(t, err)
		assert.Equal(t, model.RoleAdmin, u.Role)
	})

	t.Run("FindByEmail_NotFound", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE email = $1`)).
			WithArgs("nobody@example.com").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := repo.FindByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}
