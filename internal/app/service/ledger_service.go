package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"codeapt/internal/common"
	"codeapt/internal/domain/model"
	"codeapt/internal/domain/repository"
	"codeapt/internal/platform/logger"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// LeaderboardInvalidator is told when ledger totals change.
type LeaderboardInvalidator interface {
	Invalidate(ctx context.Context)
}

// LedgerService records first submissions and advances streaks.
type LedgerService struct {
	db          *sql.DB
	ledgerRepo  repository.LedgerRepository
	clock       common.Clock
	loc         *time.Location
	invalidator LeaderboardInvalidator
}

func NewLedgerService(
	db *sql.DB,
	ledgerRepo repository.LedgerRepository,
	clock common.Clock,
	loc *time.Location,
	invalidator LeaderboardInvalidator,
) *LedgerService {
	return &LedgerService{
		db:          db,
		ledgerRepo:  ledgerRepo,
		clock:       clock,
		loc:         loc,
		invalidator: invalidator,
	}
}

// Today is the calendar date the ledger currently records against.
func (s *LedgerService) Today() time.Time {
	return common.DateOf(s.clock.Now(), s.loc)
}

// RecordSubmission stores the first submission of userID for questionID and
// advances the user's streak. A repeat submission reports Accepted=false and
// leaves every counter untouched.
func (s *LedgerService) RecordSubmission(ctx context.Context, userID, questionID string, score int) (*model.LedgerResult, error) {
	if score < 0 {
		return nil, fmt.Errorf("score must not be negative: %w", common.ErrValidation)
	}
	today := s.Today()
	log := logger.Log.WithFields(logrus.Fields{"user_id": userID, "question_id": questionID})

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, common.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	entry := &model.LedgerEntry{ID: uuid.NewString(), UserID: userID, QuestionID: questionID, Score: score}
	if err := s.ledgerRepo.CreateEntry(ctx, tx, entry); err != nil {
		if errors.Is(err, common.ErrConflict) {
			tx.Rollback()
			log.Info("duplicate submission ignored")
			streak, err := s.Streak(ctx, userID)
			if err != nil {
				return nil, err
			}
			return &model.LedgerResult{Accepted: false, Streak: *streak}, nil
		}
		return nil, common.Errorf("failed to record submission: %w", err)
	}

	rec, err := s.ledgerRepo.LockStreak(ctx, tx, userID)
	if err != nil {
		return nil, common.Errorf("failed to load streak: %w", err)
	}
	rec.Advance(today, score)
	if err := s.ledgerRepo.UpdateStreak(ctx, tx, rec); err != nil {
		return nil, common.Errorf("failed to update streak: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, common.Errorf("failed to commit submission: %w", err)
	}

	log.WithFields(logrus.Fields{
		"score":          score,
		"current_streak": rec.CurrentStreak,
		"total_score":    rec.TotalScore,
	}).Info("submission recorded")

	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx)
	}
	return &model.LedgerResult{Accepted: true, Streak: *rec}, nil
}

// Streak returns the user's streak record, zero valued when none exists yet.
func (s *LedgerService) Streak(ctx context.Context, userID string) (*model.UserStreakRecord, error) {
	rec, err := s.ledgerRepo.FindStreak(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return &model.UserStreakRecord{UserID: userID}, nil
		}
		return nil, common.Errorf("failed to load streak: %w", err)
	}
	return rec, nil
}
