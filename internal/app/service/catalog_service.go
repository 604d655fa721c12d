package service

import (
	"context"
	"fmt"
	"strings"

	"codeapt/internal/common"
	"codeapt/internal/domain/model"
	"codeapt/internal/domain/repository"
	"codeapt/internal/platform/logger"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type CatalogService struct {
	catalogRepo    repository.CatalogRepository
	enrollmentRepo repository.EnrollmentRepository
	progressRepo   repository.ProgressRepository
}

func NewCatalogService(
	catalogRepo repository.CatalogRepository,
	enrollmentRepo repository.EnrollmentRepository,
	progressRepo repository.ProgressRepository,
) *CatalogService {
	return &CatalogService{
		catalogRepo:    catalogRepo,
		enrollmentRepo: enrollmentRepo,
		progressRepo:   progressRepo,
	}
}

func (s *CatalogService) ListSubjects(ctx context.Context) ([]model.Subject, error) {
	return s.catalogRepo.ListSubjects(ctx)
}

type SubjectDetail struct {
	Subject           *model.Subject `json:"subject"`
	Topics            []model.Topic  `json:"topics"`
	Enrolled          bool           `json:"enrolled"`
	CompletedTopicIDs []string       `json:"completed_topic_ids"`
	PercentComplete   int            `json:"percent_complete"`
}

// GetSubject returns a subject with its topics. userID may be empty for
// anonymous callers, in which case no progress is included.
func (s *CatalogService) GetSubject(ctx context.Context, subjectSlug, userID string) (*SubjectDetail, error) {
	subject, err := s.catalogRepo.FindSubjectBySlug(ctx, subjectSlug)
	if err != nil {
		return nil, err
	}
	topics, err := s.catalogRepo.ListTopics(ctx, subject.ID)
	if err != nil {
		return nil, err
	}
	detail := &SubjectDetail{Subject: subject, Topics: topics, CompletedTopicIDs: []string{}}
	if userID == "" {
		return detail, nil
	}

	if detail.Enrolled, err = s.enrollmentRepo.IsEnrolled(ctx, userID, subject.ID); err != nil {
		return nil, err
	}
	if detail.CompletedTopicIDs, err = s.progressRepo.CompletedTopicIDs(ctx, userID, subject.ID); err != nil {
		return nil, err
	}
	detail.PercentComplete = model.CompletionPercent(len(detail.CompletedTopicIDs), len(topics))
	return detail, nil
}

func (s *CatalogService) GetTopic(ctx context.Context, topicID string) (*model.Topic, error) {
	return s.catalogRepo.FindTopicByID(ctx, topicID)
}

type EnrollResult struct {
	Subject         string `json:"subject"`
	Enrolled        bool   `json:"enrolled"`
	AlreadyEnrolled bool   `json:"already_enrolled"`
}

// Enroll adds the caller to a free subject. Paid subjects go through checkout.
func (s *CatalogService) Enroll(ctx context.Context, userID, subjectSlug string) (*EnrollResult, error) {
	subject, err := s.catalogRepo.FindSubjectBySlug(ctx, subjectSlug)
	if err != nil {
		return nil, err
	}
	if !subject.IsFree() {
		return nil, fmt.Errorf("subject %s costs %s, use checkout: %w", subject.Slug, subject.EffectivePrice().StringFixed(2), common.ErrPaymentRequired)
	}

	created, err := s.enrollmentRepo.Enroll(ctx, nil, &model.Enrollment{ID: uuid.NewString(), UserID: userID, SubjectID: subject.ID})
	if err != nil {
		return nil, err
	}
	if created {
		logger.Log.WithFields(logrus.Fields{"user_id": userID, "subject": subject.Slug}).Info("enrolled in free subject")
	}
	return &EnrollResult{Subject: subject.Slug, Enrolled: true, AlreadyEnrolled: !created}, nil
}

// Dashboard lists the caller's enrolled subjects.
func (s *CatalogService) Dashboard(ctx context.Context, userID string) ([]model.Subject, error) {
	return s.enrollmentRepo.ListEnrolledSubjects(ctx, userID)
}

type ToggleResult struct {
	TopicID         string `json:"topic_id"`
	Completed       bool   `json:"completed"`
	PercentComplete int    `json:"percent_complete"`
}

func (s *CatalogService) ToggleTopic(ctx context.Context, userID, topicID string) (*ToggleResult, error) {
	topic, err := s.catalogRepo.FindTopicByID(ctx, topicID)
	if err != nil {
		return nil, err
	}
	completed, err := s.progressRepo.Toggle(ctx, userID, topic.ID)
	if err != nil {
		return nil, err
	}

	topics, err := s.catalogRepo.ListTopics(ctx, topic.SubjectID)
	if err != nil {
		return nil, err
	}
	done, err := s.progressRepo.CompletedTopicIDs(ctx, userID, topic.SubjectID)
	if err != nil {
		return nil, err
	}
	return &ToggleResult{
		TopicID:         topic.ID,
		Completed:       completed,
		PercentComplete: model.CompletionPercent(len(done), len(topics)),
	}, nil
}

type CreateProgramRequest struct {
	Name        string `json:"name" validate:"notblank,max=100"`
	Description string `json:"description"`
}

func (s *CatalogService) CreateProgram(ctx context.Context, req CreateProgramRequest) (*model.Program, error) {
	p := &model.Program{ID: uuid.NewString(), Name: strings.TrimSpace(req.Name), Description: req.Description}
	if err := s.catalogRepo.CreateProgram(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

type CreateSubjectRequest struct {
	ProgramID     string  `json:"program_id" validate:"required,uuid"`
	Name          string  `json:"name" validate:"notblank,max=100"`
	Description   string  `json:"description"`
	ImageURL      string  `json:"image_url" validate:"omitempty,url"`
	Price         string  `json:"price" validate:"required"`
	DiscountPrice *string `json:"discount_price"`
	IsPopular     bool    `json:"is_popular"`
}

func parseMoney(field, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s must be a non-negative amount: %w", field, common.ErrValidation)
	}
	return d.Round(2), nil
}

func (s *CatalogService) CreateSubject(ctx context.Context, req CreateSubjectRequest) (*model.Subject, error) {
	price, err := parseMoney("price", req.Price)
	if err != nil {
		return nil, err
	}
	subject := &model.Subject{
		ID:          uuid.NewString(),
		ProgramID:   req.ProgramID,
		Name:        strings.TrimSpace(req.Name),
		Slug:        slug.Make(req.Name),
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Price:       price,
		IsPopular:   req.IsPopular,
	}
	if req.DiscountPrice != nil && strings.TrimSpace(*req.DiscountPrice) != "" {
		discount, err := parseMoney("discount_price", *req.DiscountPrice)
		if err != nil {
			return nil, err
		}
		subject.DiscountPrice = decimal.NewNullDecimal(discount)
	}
	if subject.Slug == "" {
		return nil, fmt.Errorf("name produces an empty slug: %w", common.ErrValidation)
	}
	if err := s.catalogRepo.CreateSubject(ctx, subject); err != nil {
		return nil, err
	}
	return subject, nil
}

type CreateTopicRequest struct {
	Name      string `json:"name" validate:"notblank,max=200"`
	Content   string `json:"content"`
	VideoURL  string `json:"video_url"`
	SortOrder int    `json:"sort_order" validate:"gte=0"`
}

func (s *CatalogService) CreateTopic(ctx context.Context, subjectSlug string, req CreateTopicRequest) (*model.Topic, error) {
	subject, err := s.catalogRepo.FindSubjectBySlug(ctx, subjectSlug)
	if err != nil {
		return nil, err
	}
	t := &model.Topic{
		ID:        uuid.NewString(),
		SubjectID: subject.ID,
		Name:      strings.TrimSpace(req.Name),
		Content:   req.Content,
		VideoID:   model.ExtractVideoID(req.VideoURL),
		SortOrder: req.SortOrder,
	}
	if err := s.catalogRepo.CreateTopic(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}
