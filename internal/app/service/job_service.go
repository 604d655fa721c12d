package service

import (
	"context"
	"strings"

	"codeapt/internal/domain/model"
	"codeapt/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

type JobService struct {
	jobRepo repository.JobRepository
}

func NewJobService(jobRepo repository.JobRepository) *JobService {
	return &JobService{jobRepo: jobRepo}
}

func (s *JobService) List(ctx context.Context) ([]model.JobPosting, error) {
	return s.jobRepo.ListActive(ctx)
}

func (s *JobService) Get(ctx context.Context, jobSlug string) (*model.JobPosting, error) {
	return s.jobRepo.FindBySlug(ctx, jobSlug)
}

type CreateJobRequest struct {
	Title       string `json:"title" validate:"notblank,max=200"`
	Company     string `json:"company" validate:"notblank,max=100"`
	Location    string `json:"location" validate:"max=100"`
	Description string `json:"description"`
	ApplyURL    string `json:"apply_url" validate:"required,url"`
}

// Create stores an active posting. The slug is derived from title and company.
func (s *JobService) Create(ctx context.Context, req CreateJobRequest) (*model.JobPosting, error) {
	j := &model.JobPosting{
		ID:          uuid.NewString(),
		Slug:        slug.Make(req.Title + " " + req.Company),
		Title:       strings.TrimSpace(req.Title),
		Company:     strings.TrimSpace(req.Company),
		Location:    strings.TrimSpace(req.Location),
		Description: req.Description,
		ApplyURL:    req.ApplyURL,
		IsActive:    true,
	}
	if err := s.jobRepo.Create(ctx, j); err != nil {
		return nil, err
	}
	return j, nil
}

func (s *JobService) SetActive(ctx context.Context, jobSlug string, active bool) error {
	return s.jobRepo.SetActive(ctx, jobSlug, active)
}
