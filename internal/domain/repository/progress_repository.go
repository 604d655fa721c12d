package repository

import (
	"context"
	"database/sql"
	"fmt"
)

type ProgressRepository interface {
	// Toggle flips completion of topicID for userID and returns the new state.
	Toggle(ctx context.Context, userID, topicID string) (completed bool, err error)
	CompletedTopicIDs(ctx context.Context, userID, subjectID string) ([]string, error)
}

type pgProgressRepository struct {
	db *sql.DB
}

func NewPgProgressRepository(db *sql.DB) ProgressRepository {
	return &pgProgressRepository{db: db}
}

func (r *pgProgressRepository) Toggle(ctx context.Context, userID, topicID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM topic_progress WHERE user_id = $1 AND topic_id = $2`, userID, topicID)
	if err != nil {
		return false, fmt.Errorf("pgProgressRepository.Toggle delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return false, nil
	}
	query := `INSERT INTO topic_progress (user_id, topic_id) VALUES ($1, $2)
	          ON CONFLICT (user_id, topic_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, userID, topicID); err != nil {
		return false, fmt.Errorf("pgProgressRepository.Toggle insert: %w", err)
	}
	return true, nil
}

func (r *pgProgressRepository) CompletedTopicIDs(ctx context.Context, userID, subjectID string) ([]string, error) {
	query := `SELECT p.topic_id FROM topic_progress p JOIN topics t ON t.id = p.topic_id
	          WHERE p.user_id = $1 AND t.subject_id = $2 ORDER BY t.sort_order`
	rows, err := r.db.QueryContext(ctx, query, userID, subjectID)
	if err != nil {
		return nil, fmt.Errorf("pgProgressRepository.CompletedTopicIDs: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("pgProgressRepository.CompletedTopicIDs scan: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgProgressRepository.CompletedTopicIDs rows: %w", err)
	}
	return ids, nil
}
