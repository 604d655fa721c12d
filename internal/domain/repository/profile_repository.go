package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"codeapt/internal/common"
	"codeapt/internal/domain/model"
)

type ProfileRepository interface {
	// Create inserts p unless the user already has a profile.
	Create(ctx context.Context, p *model.Profile) error
	FindByUserID(ctx context.Context, userID string) (*model.Profile, error)
	Update(ctx context.Context, p *model.Profile) error
}

type pgProfileRepository struct {
	db *sql.DB
}

func NewPgProfileRepository(db *sql.DB) ProfileRepository {
	return &pgProfileRepository{db: db}
}

func (r *pgProfileRepository) Create(ctx context.Context, p *model.Profile) error {
	query := `INSERT INTO profiles (user_id, full_name, college_name, phone_number, bio, avatar_url)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          ON CONFLICT (user_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, p.UserID, p.FullName, p.CollegeName, p.PhoneNumber, p.Bio, p.AvatarURL); err != nil {
		return fmt.Errorf("pgProfileRepository.Create: %w", err)
	}
	return nil
}

func (r *pgProfileRepository) FindByUserID(ctx context.Context, userID string) (*model.Profile, error) {
	query := `SELECT user_id, full_name, college_name, phone_number, bio, avatar_url, updated_at
	          FROM profiles WHERE user_id = $1`
	p := &model.Profile{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&p.UserID, &p.FullName, &p.CollegeName, &p.PhoneNumber, &p.Bio, &p.AvatarURL, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgProfileRepository.FindByUserID: %w", err)
	}
	return p, nil
}

func (r *pgProfileRepository) Update(ctx context.Context, p *model.Profile) error {
	query := `UPDATE profiles SET full_name = $1, college_name = $2, phone_number = $3, bio = $4,
	              avatar_url = $5, updated_at = CURRENT_TIMESTAMP
	          WHERE user_id = $6`
	res, err := r.db.ExecContext(ctx, query, p.FullName, p.CollegeName, p.PhoneNumber, p.Bio, p.AvatarURL, p.UserID)
	if err != nil {
		return fmt.Errorf("pgProfileRepository.Update: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}
