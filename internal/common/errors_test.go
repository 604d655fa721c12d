package common

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusFromError(t *testing.T) {
	tests := map[string]struct {
		err  error
		want int
	}{
		"nil":              {err: nil, want: http.StatusOK},
		"wrapped not found": {err: fmt.Errorf("repo.Get: %w", ErrNotFound), want: http.StatusNotFound},
		"validation":       {err: ErrValidation, want: http.StatusBadRequest},
		"payment required": {err: ErrPaymentRequired, want: http.StatusPaymentRequired},
		"upstream down":    {err: fmt.Errorf("pay: %w", ErrServiceUnavailable), want: http.StatusServiceUnavailable},
		"lock held":        {err: ErrLockNotAcquired, want: http.StatusConflict},
		"unique violation": {err: fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), want: http.StatusConflict},
		"unknown":          {err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, HTTPStatusFromError(tc.err))
		})
	}
}

func TestDateOf_UsesLocationCalendarDay(t *testing.T) {
	kolkata, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	// 20:00 UTC on the 1st is already the 2nd in Kolkata.
	at := time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), DateOf(at, time.UTC))
	assert.Equal(t, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), DateOf(at, kolkata))
	assert.Equal(t, DateOf(at, time.UTC), DateOf(at, nil))
}
