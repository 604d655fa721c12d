package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"codeapt/internal/common"
	"codeapt/internal/domain/model"
)

type JobRepository interface {
	Create(ctx context.Context, j *model.JobPosting) error
	ListActive(ctx context.Context) ([]model.JobPosting, error)
	FindBySlug(ctx context.Context, slug string) (*model.JobPosting, error)
	SetActive(ctx context.Context, slug string, active bool) error
}

type pgJobRepository struct {
	db *sql.DB
}

func NewPgJobRepository(db *sql.DB) JobRepository {
	return &pgJobRepository{db: db}
}

func (r *pgJobRepository) Create(ctx context.Context, j *model.JobPosting) error {
	query := `INSERT INTO job_postings (id, slug, title, company, location, description, apply_url, is_active)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING posted_at`
	err := r.db.QueryRowContext(ctx, query, j.ID, j.Slug, j.Title, j.Company, j.Location, j.Description, j.ApplyURL, j.IsActive).
		Scan(&j.PostedAt)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return fmt.Errorf("job posting %q already exists: %w", j.Slug, common.ErrConflict)
		}
		return fmt.Errorf("pgJobRepository.Create: %w", err)
	}
	return nil
}

const jobColumns = `id, slug, title, company, location, description, apply_url, is_active, posted_at`

func (r *pgJobRepository) ListActive(ctx context.Context) ([]model.JobPosting, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+jobColumns+` FROM job_postings WHERE is_active ORDER BY posted_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("pgJobRepository.ListActive: %w", err)
	}
	defer rows.Close()

	jobs := []model.JobPosting{}
	for rows.Next() {
		var j model.JobPosting
		if err := rows.Scan(&j.ID, &j.Slug, &j.Title, &j.Company, &j.Location, &j.Description, &j.ApplyURL, &j.IsActive, &j.PostedAt); err != nil {
			return nil, fmt.Errorf("pgJobRepository.ListActive scan: %w", err)
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgJobRepository.ListActive rows: %w", err)
	}
	return jobs, nil
}

func (r *pgJobRepository) FindBySlug(ctx context.Context, slug string) (*model.JobPosting, error) {
	j := &model.JobPosting{}
	err := r.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM job_postings WHERE slug = $1`, slug).
		Scan(&j.ID, &j.Slug, &j.Title, &j.Company, &j.Location, &j.Description, &j.ApplyURL, &j.IsActive, &j.PostedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgJobRepository.FindBySlug: %w", err)
	}
	return j, nil
}

func (r *pgJobRepository) SetActive(ctx context.Context, slug string, active bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE job_postings SET is_active = $1 WHERE slug = $2`, active, slug)
	if err != nil {
		return fmt.Errorf("pgJobRepository.SetActive: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}
