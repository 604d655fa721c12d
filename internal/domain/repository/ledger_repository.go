package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"codeapt/internal/common"
	"codeapt/internal/domain/model"
)

// LedgerRepository stores first submissions and the per-user streak rows they
// advance.
type LedgerRepository interface {
	// CreateEntry returns common.ErrConflict when (user, question) is already recorded.
	CreateEntry(ctx context.Context, tx *sql.Tx, e *model.LedgerEntry) error
	FindEntry(ctx context.Context, userID, questionID string) (*model.LedgerEntry, error)
	// LockStreak fetches the user's streak row, creating a zeroed one first if
	// needed, and holds a row lock until tx ends.
	LockStreak(ctx context.Context, tx *sql.Tx, userID string) (*model.UserStreakRecord, error)
	UpdateStreak(ctx context.Context, tx *sql.Tx, rec *model.UserStreakRecord) error
	FindStreak(ctx context.Context, userID string) (*model.UserStreakRecord, error)
	TopStreaks(ctx context.Context, limit int) ([]model.LeaderboardEntry, error)
}

type pgLedgerRepository struct {
	db *sql.DB
}

func NewPgLedgerRepository(db *sql.DB) LedgerRepository {
	return &pgLedgerRepository{db: db}
}

func (r *pgLedgerRepository) CreateEntry(ctx context.Context, tx *sql.Tx, e *model.LedgerEntry) error {
	query := `INSERT INTO challenge_submissions (id, user_id, question_id, score)
	          VALUES ($1, $2, $3, $4) RETURNING submitted_at`
	err := on(r.db, tx).QueryRowContext(ctx, query, e.ID, e.UserID, e.QuestionID, e.Score).Scan(&e.SubmittedAt)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return fmt.Errorf("submission already recorded: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgLedgerRepository.CreateEntry: %w", err)
	}
	return nil
}

func (r *pgLedgerRepository) FindEntry(ctx context.Context, userID, questionID string) (*model.LedgerEntry, error) {
	query := `SELECT id, user_id, question_id, score, submitted_at
	          FROM challenge_submissions WHERE user_id = $1 AND question_id = $2`
	e := &model.LedgerEntry{}
	err := r.db.QueryRowContext(ctx, query, userID, questionID).Scan(&e.ID, &e.UserID, &e.QuestionID, &e.Score, &e.SubmittedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgLedgerRepository.FindEntry: %w", err)
	}
	return e, nil
}

const streakColumns = `id, user_id, current_streak, max_streak, total_score, last_solved_date`

func scanStreak(row *sql.Row) (*model.UserStreakRecord, error) {
	rec := &model.UserStreakRecord{}
	var last sql.NullTime
	if err := row.Scan(&rec.ID, &rec.UserID, &rec.CurrentStreak, &rec.MaxStreak, &rec.TotalScore, &last); err != nil {
		return nil, err
	}
	if last.Valid {
		d := last.Time
		rec.LastSolvedDate = &d
	}
	return rec, nil
}

func (r *pgLedgerRepository) LockStreak(ctx context.Context, tx *sql.Tx, userID string) (*model.UserStreakRecord, error) {
	q := on(r.db, tx)
	if _, err := q.ExecContext(ctx, `INSERT INTO user_streaks (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`, userID); err != nil {
		return nil, fmt.Errorf("pgLedgerRepository.LockStreak insert: %w", err)
	}
	rec, err := scanStreak(q.QueryRowContext(ctx, `SELECT `+streakColumns+` FROM user_streaks WHERE user_id = $1 FOR UPDATE`, userID))
	if err != nil {
		return nil, fmt.Errorf("pgLedgerRepository.LockStreak select: %w", err)
	}
	return rec, nil
}

func (r *pgLedgerRepository) UpdateStreak(ctx context.Context, tx *sql.Tx, rec *model.UserStreakRecord) error {
	query := `UPDATE user_streaks SET current_streak = $1, max_streak = $2, total_score = $3, last_solved_date = $4
	          WHERE user_id = $5`
	var last interface{}
	if rec.LastSolvedDate != nil {
		last = *rec.LastSolvedDate
	}
	if _, err := on(r.db, tx).ExecContext(ctx, query, rec.CurrentStreak, rec.MaxStreak, rec.TotalScore, last, rec.UserID); err != nil {
		return fmt.Errorf("pgLedgerRepository.UpdateStreak: %w", err)
	}
	return nil
}

func (r *pgLedgerRepository) FindStreak(ctx context.Context, userID string) (*model.UserStreakRecord, error) {
	rec, err := scanStreak(r.db.QueryRowContext(ctx, `SELECT `+streakColumns+` FROM user_streaks WHERE user_id = $1`, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgLedgerRepository.FindStreak: %w", err)
	}
	return rec, nil
}

// TopStreaks orders by score then streak, with the row id as the final
// tie-break so ties come back in insertion order.
func (r *pgLedgerRepository) TopStreaks(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	query := `SELECT s.user_id, u.username, s.total_score, s.current_streak, s.max_streak
	          FROM user_streaks s
	          JOIN users u ON u.id = s.user_id
	          ORDER BY s.total_score DESC, s.current_streak DESC, s.id ASC
	          LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("pgLedgerRepository.TopStreaks: %w", err)
	}
	defer rows.Close()

	entries := []model.LeaderboardEntry{}
	for rows.Next() {
		var e model.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.Username, &e.TotalScore, &e.CurrentStreak, &e.MaxStreak); err != nil {
			return nil, fmt.Errorf("pgLedgerRepository.TopStreaks scan: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgLedgerRepository.TopStreaks rows: %w", err)
	}
	return entries, nil
}
