package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"codeapt/internal/common"
	"codeapt/internal/domain/model"
)

type ChallengeRepository interface {
	CreateQuestion(ctx context.Context, tx *sql.Tx, q *model.ChallengeQuestion) error
	AddTestCases(ctx context.Context, tx *sql.Tx, questionID string, cases []model.TestCase) error
	FindQuestionByID(ctx context.Context, id string) (*model.ChallengeQuestion, error)
	FindQuestionByDate(ctx context.Context, date time.Time) (*model.ChallengeQuestion, error)
	GetTestCases(ctx context.Context, questionID string) ([]model.TestCase, error)
	// LatestReleaseDate returns the last scheduled release date, nil when none.
	LatestReleaseDate(ctx context.Context, tx *sql.Tx) (*time.Time, error)
}

type pgChallengeRepository struct {
	db *sql.DB
}

func NewPgChallengeRepository(db *sql.DB) ChallengeRepository {
	return &pgChallengeRepository{db: db}
}

func (r *pgChallengeRepository) CreateQuestion(ctx context.Context, tx *sql.Tx, q *model.ChallengeQuestion) error {
	query := `INSERT INTO challenge_questions (id, question_type, title, description, release_date,
	              option_a, option_b, option_c, option_d, correct_option, starter_code)
	          VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''), NULLIF($9, ''),
	              NULLIF($10, ''), NULLIF($11, ''))`
	_, err := on(r.db, tx).ExecContext(ctx, query, q.ID, q.Type, q.Title, q.Description, q.ReleaseDate,
		q.OptionA, q.OptionB, q.OptionC, q.OptionD, q.CorrectOption, q.StarterCode)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return fmt.Errorf("a question is already scheduled for %s: %w", q.ReleaseDate.Format(time.DateOnly), common.ErrConflict)
		}
		return fmt.Errorf("pgChallengeRepository.CreateQuestion: %w", err)
	}
	return nil
}

func (r *pgChallengeRepository) AddTestCases(ctx context.Context, tx *sql.Tx, questionID string, cases []model.TestCase) error {
	query := `INSERT INTO challenge_test_cases (id, question_id, input_data, expected_output, sort_order)
	          VALUES ($1, $2, $3, $4, $5)`
	q := on(r.db, tx)
	for i := range cases {
		tc := &cases[i]
		tc.QuestionID = questionID
		if _, err := q.ExecContext(ctx, query, tc.ID, questionID, tc.Input, tc.ExpectedOutput, tc.SortOrder); err != nil {
			return fmt.Errorf("pgChallengeRepository.AddTestCases: %w", err)
		}
	}
	return nil
}

const questionColumns = `id, question_type, title, description, release_date,
	COALESCE(option_a, ''), COALESCE(option_b, ''), COALESCE(option_c, ''), COALESCE(option_d, ''),
	COALESCE(correct_option, ''), COALESCE(starter_code, ''), created_at`

func (r *pgChallengeRepository) scanQuestion(row *sql.Row, op string) (*model.ChallengeQuestion, error) {
	q := &model.ChallengeQuestion{}
	err := row.Scan(&q.ID, &q.Type, &q.Title, &q.Description, &q.ReleaseDate,
		&q.OptionA, &q.OptionB, &q.OptionC, &q.OptionD, &q.CorrectOption, &q.StarterCode, &q.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgChallengeRepository.%s: %w", op, err)
	}
	return q, nil
}

func (r *pgChallengeRepository) FindQuestionByID(ctx context.Context, id string) (*model.ChallengeQuestion, error) {
	if !validID(id) {
		return nil, common.ErrNotFound
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+questionColumns+` FROM challenge_questions WHERE id = $1`, id)
	return r.scanQuestion(row, "FindQuestionByID")
}

func (r *pgChallengeRepository) FindQuestionByDate(ctx context.Context, date time.Time) (*model.ChallengeQuestion, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+questionColumns+` FROM challenge_questions WHERE release_date = $1`, date)
	return r.scanQuestion(row, "FindQuestionByDate")
}

func (r *pgChallengeRepository) GetTestCases(ctx context.Context, questionID string) ([]model.TestCase, error) {
	if !validID(questionID) {
		return nil, nil
	}
	query := `SELECT id, question_id, input_data, expected_output, sort_order
	          FROM challenge_test_cases WHERE question_id = $1 ORDER BY sort_order, id`
	rows, err := r.db.QueryContext(ctx, query, questionID)
	if err != nil {
		return nil, fmt.Errorf("pgChallengeRepository.GetTestCases: %w", err)
	}
	defer rows.Close()

	var cases []model.TestCase
	for rows.Next() {
		var tc model.TestCase
		if err := rows.Scan(&tc.ID, &tc.QuestionID, &tc.Input, &tc.ExpectedOutput, &tc.SortOrder); err != nil {
			return nil, fmt.Errorf("pgChallengeRepository.GetTestCases scan: %w", err)
		}
		cases = append(cases, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgChallengeRepository.GetTestCases rows: %w", err)
	}
	return cases, nil
}

func (r *pgChallengeRepository) LatestReleaseDate(ctx context.Context, tx *sql.Tx) (*time.Time, error) {
	var latest sql.NullTime
	err := on(r.db, tx).QueryRowContext(ctx, `SELECT MAX(release_date) FROM challenge_questions`).Scan(&latest)
	if err != nil {
		return nil, fmt.Errorf("pgChallengeRepository.LatestReleaseDate: %w", err)
	}
	if !latest.Valid {
		return nil, nil
	}
	return &latest.Time, nil
}
