package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"codeapt/internal/common"
	"codeapt/internal/domain/model"
)

type CatalogRepository interface {
	CreateProgram(ctx context.Context, p *model.Program) error
	CreateSubject(ctx context.Context, s *model.Subject) error
	CreateTopic(ctx context.Context, t *model.Topic) error
	ListSubjects(ctx context.Context) ([]model.Subject, error)
	FindSubjectBySlug(ctx context.Context, slug string) (*model.Subject, error)
	FindSubjectByID(ctx context.Context, id string) (*model.Subject, error)
	ListTopics(ctx context.Context, subjectID string) ([]model.Topic, error)
	FindTopicByID(ctx context.Context, id string) (*model.Topic, error)
}

type pgCatalogRepository struct {
	db *sql.DB
}

func NewPgCatalogRepository(db *sql.DB) CatalogRepository {
	return &pgCatalogRepository{db: db}
}

func (r *pgCatalogRepository) CreateProgram(ctx context.Context, p *model.Program) error {
	query := `INSERT INTO programs (id, name, description) VALUES ($1, $2, $3)`
	if _, err := r.db.ExecContext(ctx, query, p.ID, p.Name, p.Description); err != nil {
		return fmt.Errorf("pgCatalogRepository.CreateProgram: %w", err)
	}
	return nil
}

func (r *pgCatalogRepository) CreateSubject(ctx context.Context, s *model.Subject) error {
	query := `INSERT INTO subjects (id, program_id, name, slug, description, image_url, price, discount_price, is_popular)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.ExecContext(ctx, query, s.ID, s.ProgramID, s.Name, s.Slug, s.Description, s.ImageURL,
		s.Price, s.DiscountPrice, s.IsPopular)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return fmt.Errorf("subject with slug %q already exists: %w", s.Slug, common.ErrConflict)
		}
		return fmt.Errorf("pgCatalogRepository.CreateSubject: %w", err)
	}
	return nil
}

func (r *pgCatalogRepository) CreateTopic(ctx context.Context, t *model.Topic) error {
	query := `INSERT INTO topics (id, subject_id, name, content, video_id, sort_order)
	          VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := r.db.ExecContext(ctx, query, t.ID, t.SubjectID, t.Name, t.Content, t.VideoID, t.SortOrder); err != nil {
		return fmt.Errorf("pgCatalogRepository.CreateTopic: %w", err)
	}
	return nil
}

const subjectColumns = `id, program_id, name, slug, description, image_url, price, discount_price, is_popular`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSubject(row rowScanner) (*model.Subject, error) {
	s := &model.Subject{}
	err := row.Scan(&s.ID, &s.ProgramID, &s.Name, &s.Slug, &s.Description, &s.ImageURL,
		&s.Price, &s.DiscountPrice, &s.IsPopular)
	return s, err
}

func (r *pgCatalogRepository) ListSubjects(ctx context.Context) ([]model.Subject, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+subjectColumns+` FROM subjects ORDER BY is_popular DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("pgCatalogRepository.ListSubjects: %w", err)
	}
	defer rows.Close()

	subjects := []model.Subject{}
	for rows.Next() {
		s, err := scanSubject(rows)
		if err != nil {
			return nil, fmt.Errorf("pgCatalogRepository.ListSubjects scan: %w", err)
		}
		subjects = append(subjects, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgCatalogRepository.ListSubjects rows: %w", err)
	}
	return subjects, nil
}

func (r *pgCatalogRepository) findSubject(ctx context.Context, op, where string, arg string) (*model.Subject, error) {
	s, err := scanSubject(r.db.QueryRowContext(ctx, `SELECT `+subjectColumns+` FROM subjects WHERE `+where+` = $1`, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgCatalogRepository.%s: %w", op, err)
	}
	return s, nil
}

func (r *pgCatalogRepository) FindSubjectBySlug(ctx context.Context, slug string) (*model.Subject, error) {
	return r.findSubject(ctx, "FindSubjectBySlug", "slug", slug)
}

func (r *pgCatalogRepository) FindSubjectByID(ctx context.Context, id string) (*model.Subject, error) {
	if !validID(id) {
		return nil, common.ErrNotFound
	}
	return r.findSubject(ctx, "FindSubjectByID", "id", id)
}

func (r *pgCatalogRepository) ListTopics(ctx context.Context, subjectID string) ([]model.Topic, error) {
	query := `SELECT id, subject_id, name, content, video_id, sort_order
	          FROM topics WHERE subject_id = $1 ORDER BY sort_order, name`
	rows, err := r.db.QueryContext(ctx, query, subjectID)
	if err != nil {
		return nil, fmt.Errorf("pgCatalogRepository.ListTopics: %w", err)
	}
	defer rows.Close()

	topics := []model.Topic{}
	for rows.Next() {
		var t model.Topic
		if err := rows.Scan(&t.ID, &t.SubjectID, &t.Name, &t.Content, &t.VideoID, &t.SortOrder); err != nil {
			return nil, fmt.Errorf("pgCatalogRepository.ListTopics scan: %w", err)
		}
		topics = append(topics, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgCatalogRepository.ListTopics rows: %w", err)
	}
	return topics, nil
}

func (r *pgCatalogRepository) FindTopicByID(ctx context.Context, id string) (*model.Topic, error) {
	if !validID(id) {
		return nil, common.ErrNotFound
	}
	query := `SELECT id, subject_id, name, content, video_id, sort_order FROM topics WHERE id = $1`
	t := &model.Topic{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&t.ID, &t.SubjectID, &t.Name, &t.Content, &t.VideoID, &t.SortOrder)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgCatalogRepository.FindTopicByID: %w", err)
	}
	return t, nil
}
