package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"codeapt/internal/common"
	"codeapt/internal/domain/model"
	"codeapt/internal/domain/repository"

	"github.com/google/uuid"
)

type QuizService struct {
	db          *sql.DB
	quizRepo    repository.QuizRepository
	catalogRepo repository.CatalogRepository
}

func NewQuizService(db *sql.DB, quizRepo repository.QuizRepository, catalogRepo repository.CatalogRepository) *QuizService {
	return &QuizService{db: db, quizRepo: quizRepo, catalogRepo: catalogRepo}
}

// Get returns the subject's quiz with correctness flags cleared.
func (s *QuizService) Get(ctx context.Context, subjectSlug string) ([]model.QuizQuestion, error) {
	subject, err := s.catalogRepo.FindSubjectBySlug(ctx, subjectSlug)
	if err != nil {
		return nil, err
	}
	questions, err := s.quizRepo.ListBySubject(ctx, subject.ID)
	if err != nil {
		return nil, err
	}
	return model.HideAnswers(questions), nil
}

type SubmitQuizRequest struct {
	// Answers maps question id to the chosen choice id.
	Answers map[string]string `json:"answers" validate:"required"`
}

// Submit grades answers against the subject's quiz. A subject without
// questions grades as 0 of 0.
func (s *QuizService) Submit(ctx context.Context, subjectSlug string, req SubmitQuizRequest) (*model.QuizResult, error) {
	subject, err := s.catalogRepo.FindSubjectBySlug(ctx, subjectSlug)
	if err != nil {
		return nil, err
	}
	questions, err := s.quizRepo.ListBySubject(ctx, subject.ID)
	if err != nil {
		return nil, err
	}
	res := model.GradeQuiz(questions, req.Answers)
	return &res, nil
}

type QuizChoiceInput struct {
	Text      string `json:"text" validate:"notblank"`
	IsCorrect bool   `json:"is_correct"`
}

type CreateQuizQuestionRequest struct {
	Text    string            `json:"text" validate:"notblank"`
	Choices []QuizChoiceInput `json:"choices" validate:"min=2,dive"`
}

func (s *QuizService) CreateQuestion(ctx context.Context, subjectSlug string, req CreateQuizQuestionRequest) (*model.QuizQuestion, error) {
	subject, err := s.catalogRepo.FindSubjectBySlug(ctx, subjectSlug)
	if err != nil {
		return nil, err
	}

	q := &model.QuizQuestion{ID: uuid.NewString(), SubjectID: subject.ID, Text: strings.TrimSpace(req.Text)}
	correct := 0
	for _, c := range req.Choices {
		if c.IsCorrect {
			correct++
		}
		q.Choices = append(q.Choices, model.QuizChoice{
			ID:         uuid.NewString(),
			QuestionID: q.ID,
			Text:       strings.TrimSpace(c.Text),
			IsCorrect:  c.IsCorrect,
		})
	}
	if correct == 0 {
		return nil, fmt.Errorf("at least one choice must be correct: %w", common.ErrValidation)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, common.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.quizRepo.CreateQuestion(ctx, tx, q); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, common.Errorf("failed to commit quiz question: %w", err)
	}
	return q, nil
}
