package service

import (
	"testing"
	"time"

	"codeapt/internal/common"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type movingClock struct{ now time.Time }

func (c *movingClock) Now() time.Time { return c.now }

func newTestLedger(t *testing.T, at string) (*LedgerService, sqlmock.Sqlmock, *fakeLedgerRepo, *movingClock, *fakeInvalidator) {
	t.Helper()
	db, mock := newMockDB(t)
	repo := newFakeLedgerRepo()
	clock := &movingClock{now: day(at).Add(15 * time.Hour)}
	inv := &fakeInvalidator{}
	return NewLedgerService(db, repo, clock, time.UTC, inv), mock, repo, clock, inv
}

func TestRecordSubmission_FirstSubmissionStartsStreak(t *testing.T) {
	svc, mock, _, _, inv := newTestLedger(t, "2024-03-10")
	mock.ExpectBegin()
	mock.ExpectCommit()

	res, err := svc.RecordSubmission(t.Context(), "u1", "q1", 5)
	require.NoError(t, err)

	assert.True(t, res.Accepted)
	assert.Equal(t, 1, res.Streak.CurrentStreak)
	assert.Equal(t, 1, res.Streak.MaxStreak)
	assert.Equal(t, 5, res.Streak.TotalScore)
	require.NotNil(t, res.Streak.LastSolvedDate)
	assert.Equal(t, day("2024-03-10"), *res.Streak.LastSolvedDate)
	assert.Equal(t, 1, inv.calls)
}

func TestRecordSubmission_DuplicateLeavesCountersUntouched(t *testing.T) {
	svc, mock, repo, _, inv := newTestLedger(t, "2024-03-10")
	mock.ExpectBegin()
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.RecordSubmission(t.Context(), "u1", "q1", 5)
	require.NoError(t, err)

	res, err := svc.RecordSubmission(t.Context(), "u1", "q1", 0)
	require.NoError(t, err)

	assert.False(t, res.Accepted)
	assert.Equal(t, 5, res.Streak.TotalScore)
	assert.Equal(t, 1, res.Streak.CurrentStreak)
	assert.Equal(t, 1, inv.calls)

	entry, err := repo.FindEntry(t.Context(), "u1", "q1")
	require.NoError(t, err)
	assert.Equal(t, 5, entry.Score, "first score is authoritative")
}

func TestRecordSubmission_ContinuationAndReset(t *testing.T) {
	svc, mock, _, clock, _ := newTestLedger(t, "2024-03-10")
	for range 4 {
		mock.ExpectBegin()
		mock.ExpectCommit()
	}

	_, err := svc.RecordSubmission(t.Context(), "u1", "q1", 5)
	require.NoError(t, err)

	clock.now = clock.now.AddDate(0, 0, 1)
	res, err := svc.RecordSubmission(t.Context(), "u1", "q2", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Streak.CurrentStreak)
	assert.Equal(t, 2, res.Streak.MaxStreak)

	res, err = svc.RecordSubmission(t.Context(), "u1", "q-extra", 1)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Streak.CurrentStreak, "same day does not extend the streak")

	clock.now = clock.now.AddDate(0, 0, 2)
	res, err = svc.RecordSubmission(t.Context(), "u1", "q3", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Streak.CurrentStreak)
	assert.Equal(t, 2, res.Streak.MaxStreak)
	assert.Equal(t, 8, res.Streak.TotalScore)
	assert.Equal(t, day("2024-03-13"), *res.Streak.LastSolvedDate)
}

func TestRecordSubmission_NegativeScoreRejected(t *testing.T) {
	svc, _, _, _, _ := newTestLedger(t, "2024-03-10")

	_, err := svc.RecordSubmission(t.Context(), "u1", "q1", -1)
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestStreak_ZeroValueWhenMissing(t *testing.T) {
	svc, _, _, _, _ := newTestLedger(t, "2024-03-10")

	rec, err := svc.Streak(t.Context(), "nobody")
	require.NoError(t, err)
	assert.Equal(t, "nobody", rec.UserID)
	assert.Zero(t, rec.TotalScore)
	assert.Nil(t, rec.LastSolvedDate)
}

func TestToday_UsesConfiguredLocation(t *testing.T) {
	db, _ := newMockDB(t)
	kolkata := time.FixedZone("IST", 5*3600+1800)
	clock := common.FixedClock{At: time.Date(2024, 3, 10, 20, 0, 0, 0, time.UTC)}
	svc := NewLedgerService(db, newFakeLedgerRepo(), clock, kolkata, nil)

	assert.Equal(t, day("2024-03-11"), svc.Today())
}
