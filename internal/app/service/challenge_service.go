package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"codeapt/internal/app/importer"
	"codeapt/internal/common"
	"codeapt/internal/domain/model"
	"codeapt/internal/domain/repository"
	"codeapt/internal/platform/logger"
	"codeapt/internal/platform/metrics"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type ChallengeService struct {
	db            *sql.DB
	challengeRepo repository.ChallengeRepository
	ledgerRepo    repository.LedgerRepository
	ledger        *LedgerService
	judge         *JudgeService
}

func NewChallengeService(
	db *sql.DB,
	challengeRepo repository.ChallengeRepository,
	ledgerRepo repository.LedgerRepository,
	ledger *LedgerService,
	judge *JudgeService,
) *ChallengeService {
	return &ChallengeService{
		db:            db,
		challengeRepo: challengeRepo,
		ledgerRepo:    ledgerRepo,
		ledger:        ledger,
		judge:         judge,
	}
}

type TodayView struct {
	Date      string                   `json:"date"`
	Question  *model.ChallengeQuestion `json:"question"`
	Streak    model.UserStreakRecord   `json:"streak"`
	Submitted bool                     `json:"submitted"`
	Score     *int                     `json:"score,omitempty"`
}

// Today returns the question released on the ledger's current date, without
// its answer key, plus the caller's standing.
func (s *ChallengeService) Today(ctx context.Context, userID string) (*TodayView, error) {
	today := s.ledger.Today()
	view := &TodayView{Date: today.Format(time.DateOnly)}

	streak, err := s.ledger.Streak(ctx, userID)
	if err != nil {
		return nil, err
	}
	view.Streak = *streak

	q, err := s.challengeRepo.FindQuestionByDate(ctx, today)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return view, nil
		}
		return nil, common.Errorf("failed to load today's question: %w", err)
	}
	pub := q.Public()
	view.Question = &pub

	entry, err := s.ledgerRepo.FindEntry(ctx, userID, q.ID)
	switch {
	case err == nil:
		view.Submitted = true
		view.Score = &entry.Score
	case !errors.Is(err, common.ErrNotFound):
		return nil, common.Errorf("failed to load submission: %w", err)
	}
	return view, nil
}

type SubmitMCQRequest struct {
	Option string `json:"option" validate:"required,max=1"`
}

type SubmitCodeRequest struct {
	Code     string `json:"code" validate:"notblank"`
	Language string `json:"language" validate:"required"`
}

// SubmissionResult is returned for both question types. Score is what this
// attempt earned; Accepted says whether it was the one that counted.
type SubmissionResult struct {
	Score    int                    `json:"score"`
	Total    int                    `json:"total"`
	Correct  *bool                  `json:"correct,omitempty"`
	Results  []CaseResult           `json:"results,omitempty"`
	Accepted bool                   `json:"accepted"`
	Streak   model.UserStreakRecord `json:"streak"`
}

func (s *ChallengeService) questionOfType(ctx context.Context, id string, want model.QuestionType) (*model.ChallengeQuestion, error) {
	q, err := s.challengeRepo.FindQuestionByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("question %s: %w", id, err)
	}
	if q.Type != want {
		return nil, fmt.Errorf("question %s is not a %s question: %w", id, want, common.ErrBadRequest)
	}
	return q, nil
}

func (s *ChallengeService) SubmitMCQ(ctx context.Context, userID, questionID string, req SubmitMCQRequest) (*SubmissionResult, error) {
	option := model.NormalizeOption(req.Option)
	if !model.IsValidOption(option) {
		return nil, fmt.Errorf("option must be one of A, B, C, D: %w", common.ErrValidation)
	}
	q, err := s.questionOfType(ctx, questionID, model.QuestionMCQ)
	if err != nil {
		return nil, err
	}

	score := model.ScoreMCQ(q, option)
	res, err := s.ledger.RecordSubmission(ctx, userID, q.ID, score)
	if err != nil {
		return nil, err
	}
	countSubmission(q.Type, res.Accepted)

	correct := score > 0
	return &SubmissionResult{
		Score:    score,
		Total:    model.MCQAward,
		Correct:  &correct,
		Accepted: res.Accepted,
		Streak:   res.Streak,
	}, nil
}

func (s *ChallengeService) SubmitCode(ctx context.Context, userID, questionID string, req SubmitCodeRequest) (*SubmissionResult, error) {
	if _, ok := model.RuntimeFor(req.Language); !ok {
		return nil, fmt.Errorf("unsupported language %q: %w", req.Language, common.ErrValidation)
	}
	q, err := s.questionOfType(ctx, questionID, model.QuestionCode)
	if err != nil {
		return nil, err
	}
	cases, err := s.challengeRepo.GetTestCases(ctx, q.ID)
	if err != nil {
		return nil, common.Errorf("failed to load test cases: %w", err)
	}

	verdict, err := s.judge.Evaluate(ctx, req.Code, req.Language, cases)
	if err != nil {
		return nil, err
	}
	res, err := s.ledger.RecordSubmission(ctx, userID, q.ID, verdict.Score)
	if err != nil {
		return nil, err
	}
	countSubmission(q.Type, res.Accepted)

	return &SubmissionResult{
		Score:    verdict.Score,
		Total:    verdict.Total,
		Results:  verdict.Results,
		Accepted: res.Accepted,
		Streak:   res.Streak,
	}, nil
}

func countSubmission(t model.QuestionType, accepted bool) {
	result := "accepted"
	if !accepted {
		result = "duplicate"
	}
	metrics.ChallengeSubmissions.WithLabelValues(string(t), result).Inc()
}

type TestCaseInput struct {
	Input          string `json:"input" validate:"required"`
	ExpectedOutput string `json:"expected_output" validate:"required"`
}

type CreateChallengeRequest struct {
	Type          string          `json:"question_type" validate:"required,oneof=MCQ CODE"`
	Title         string          `json:"title" validate:"notblank,max=255"`
	Description   string          `json:"description" validate:"required"`
	ReleaseDate   string          `json:"release_date" validate:"required,datetime=2006-01-02"`
	OptionA       string          `json:"option_a" validate:"max=200"`
	OptionB       string          `json:"option_b" validate:"max=200"`
	OptionC       string          `json:"option_c" validate:"max=200"`
	OptionD       string          `json:"option_d" validate:"max=200"`
	CorrectOption string          `json:"correct_option"`
	StarterCode   string          `json:"starter_code"`
	TestCases     []TestCaseInput `json:"test_cases" validate:"dive"`
}

func (s *ChallengeService) CreateQuestion(ctx context.Context, req CreateChallengeRequest) (*model.ChallengeQuestion, error) {
	release, err := time.Parse(time.DateOnly, req.ReleaseDate)
	if err != nil {
		return nil, fmt.Errorf("release_date: %w", common.ErrValidation)
	}
	q := &model.ChallengeQuestion{
		ID:            uuid.NewString(),
		Type:          model.QuestionType(req.Type),
		Title:         strings.TrimSpace(req.Title),
		Description:   req.Description,
		ReleaseDate:   release,
		OptionA:       req.OptionA,
		OptionB:       req.OptionB,
		OptionC:       req.OptionC,
		OptionD:       req.OptionD,
		CorrectOption: model.NormalizeOption(req.CorrectOption),
		StarterCode:   req.StarterCode,
	}
	if q.Type == model.QuestionCode {
		for i, tc := range req.TestCases {
			q.TestCases = append(q.TestCases, model.TestCase{
				ID: uuid.NewString(), Input: tc.Input, ExpectedOutput: tc.ExpectedOutput, SortOrder: i + 1,
			})
		}
	}
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("%v: %w", err, common.ErrValidation)
	}

	if err := s.persist(ctx, []*model.ChallengeQuestion{q}); err != nil {
		return nil, err
	}
	return q, nil
}

type ImportSummary struct {
	Scheduled int    `json:"scheduled"`
	StartDate string `json:"start_date"`
}

// ImportSchedule reads a CSV schedule and appends its questions one per day,
// starting the day after the last scheduled question, or today when none is.
// Either every row is stored or none is.
func (s *ChallengeService) ImportSchedule(ctx context.Context, r io.Reader) (*ImportSummary, error) {
	rows, err := importer.ReadRows(r)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, common.ErrValidation)
	}

	latest, err := s.challengeRepo.LatestReleaseDate(ctx, nil)
	if err != nil {
		return nil, common.Errorf("failed to find last release date: %w", err)
	}
	start := s.ledger.Today()
	if latest != nil {
		start = common.DateOf(*latest, time.UTC).AddDate(0, 0, 1)
	}

	questions, err := importer.Schedule(rows, start)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, common.ErrValidation)
	}
	if err := s.persist(ctx, questions); err != nil {
		return nil, err
	}

	logger.Log.WithFields(logrus.Fields{"count": len(questions), "start_date": start.Format(time.DateOnly)}).
		Info("challenge schedule imported")
	return &ImportSummary{Scheduled: len(questions), StartDate: start.Format(time.DateOnly)}, nil
}

func (s *ChallengeService) persist(ctx context.Context, questions []*model.ChallengeQuestion) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return common.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, q := range questions {
		if err := s.challengeRepo.CreateQuestion(ctx, tx, q); err != nil {
			return err
		}
		if len(q.TestCases) > 0 {
			if err := s.challengeRepo.AddTestCases(ctx, tx, q.ID, q.TestCases); err != nil {
				return err
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return common.Errorf("failed to commit questions: %w", err)
	}
	return nil
}
