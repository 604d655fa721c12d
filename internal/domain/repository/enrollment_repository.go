package repository

import (
	"context"
	"database/sql"
	"fmt"

	"codeapt/internal/domain/model"
)

type EnrollmentRepository interface {
	// Enroll reports created=false when the pair was already enrolled. It never
	// fails on the duplicate, so it is safe inside a larger transaction.
	Enroll(ctx context.Context, tx *sql.Tx, e *model.Enrollment) (created bool, err error)
	IsEnrolled(ctx context.Context, userID, subjectID string) (bool, error)
	ListEnrolledSubjects(ctx context.Context, userID string) ([]model.Subject, error)
}

type pgEnrollmentRepository struct {
	db *sql.DB
}

func NewPgEnrollmentRepository(db *sql.DB) EnrollmentRepository {
	return &pgEnrollmentRepository{db: db}
}

func (r *pgEnrollmentRepository) Enroll(ctx context.Context, tx *sql.Tx, e *model.Enrollment) (bool, error) {
	query := `INSERT INTO enrollments (id, user_id, subject_id) VALUES ($1, $2, $3)
	          ON CONFLICT (user_id, subject_id) DO NOTHING`
	res, err := on(r.db, tx).ExecContext(ctx, query, e.ID, e.UserID, e.SubjectID)
	if err != nil {
		return false, fmt.Errorf("pgEnrollmentRepository.Enroll: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("pgEnrollmentRepository.Enroll rows affected: %w", err)
	}
	return n == 1, nil
}

func (r *pgEnrollmentRepository) IsEnrolled(ctx context.Context, userID, subjectID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM enrollments WHERE user_id = $1 AND subject_id = $2)`
	if err := r.db.QueryRowContext(ctx, query, userID, subjectID).Scan(&exists); err != nil {
		return false, fmt.Errorf("pgEnrollmentRepository.IsEnrolled: %w", err)
	}
	return exists, nil
}

func (r *pgEnrollmentRepository) ListEnrolledSubjects(ctx context.Context, userID string) ([]model.Subject, error) {
	query := `SELECT s.id, s.program_id, s.name, s.slug, s.description, s.image_url, s.price, s.discount_price, s.is_popular
	          FROM enrollments e JOIN subjects s ON s.id = e.subject_id
	          WHERE e.user_id = $1 ORDER BY e.enrolled_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("pgEnrollmentRepository.ListEnrolledSubjects: %w", err)
	}
	defer rows.Close()

	subjects := []model.Subject{}
	for rows.Next() {
		s, err := scanSubject(rows)
		if err != nil {
			return nil, fmt.Errorf("pgEnrollmentRepository.ListEnrolledSubjects scan: %w", err)
		}
		subjects = append(subjects, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgEnrollmentRepository.ListEnrolledSubjects rows: %w", err)
	}
	return subjects, nil
}
