package repository

import (
	"context"
	"database/sql"
	"fmt"

	"codeapt/internal/domain/model"
)

type QuizRepository interface {
	CreateQuestion(ctx context.Context, tx *sql.Tx, q *model.QuizQuestion) error
	ListBySubject(ctx context.Context, subjectID string) ([]model.QuizQuestion, error)
}

type pgQuizRepository struct {
	db *sql.DB
}

func NewPgQuizRepository(db *sql.DB) QuizRepository {
	return &pgQuizRepository{db: db}
}

func (r *pgQuizRepository) CreateQuestion(ctx context.Context, tx *sql.Tx, q *model.QuizQuestion) error {
	exec := on(r.db, tx)
	if _, err := exec.ExecContext(ctx, `INSERT INTO quiz_questions (id, subject_id, text) VALUES ($1, $2, $3)`,
		q.ID, q.SubjectID, q.Text); err != nil {
		return fmt.Errorf("pgQuizRepository.CreateQuestion: %w", err)
	}
	for i := range q.Choices {
		c := &q.Choices[i]
		c.QuestionID = q.ID
		if _, err := exec.ExecContext(ctx, `INSERT INTO quiz_choices (id, question_id, text, is_correct) VALUES ($1, $2, $3, $4)`,
			c.ID, q.ID, c.Text, c.IsCorrect); err != nil {
			return fmt.Errorf("pgQuizRepository.CreateQuestion choice: %w", err)
		}
	}
	return nil
}

// ListBySubject loads questions with their choices in one round trip.
func (r *pgQuizRepository) ListBySubject(ctx context.Context, subjectID string) ([]model.QuizQuestion, error) {
	query := `SELECT q.id, q.text, c.id, c.text, c.is_correct
	          FROM quiz_questions q
	          LEFT JOIN quiz_choices c ON c.question_id = q.id
	          WHERE q.subject_id = $1
	          ORDER BY q.id, c.id`
	rows, err := r.db.QueryContext(ctx, query, subjectID)
	if err != nil {
		return nil, fmt.Errorf("pgQuizRepository.ListBySubject: %w", err)
	}
	defer rows.Close()

	questions := []model.QuizQuestion{}
	index := map[string]int{}
	for rows.Next() {
		var (
			qID, qText string
			cID, cText sql.NullString
			cCorrect   sql.NullBool
		)
		if err := rows.Scan(&qID, &qText, &cID, &cText, &cCorrect); err != nil {
			return nil, fmt.Errorf("pgQuizRepository.ListBySubject scan: %w", err)
		}
		i, ok := index[qID]
		if !ok {
			questions = append(questions, model.QuizQuestion{ID: qID, SubjectID: subjectID, Text: qText, Choices: []model.QuizChoice{}})
			i = len(questions) - 1
			index[qID] = i
		}
		if cID.Valid {
			questions[i].Choices = append(questions[i].Choices, model.QuizChoice{
				ID: cID.String, QuestionID: qID, Text: cText.String, IsCorrect: cCorrect.Bool,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgQuizRepository.ListBySubject rows: %w", err)
	}
	return questions, nil
}
