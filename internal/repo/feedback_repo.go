package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/twm105/bloaty-mcbloatface-sub001/internal/domain"
)

// FeedbackRepo — репозиторий для user feedback.
type FeedbackRepo struct {
	pool *pgxpool.Pool
}

// NewFeedbackRepo создаёт новый FeedbackRepo.
func NewFeedbackRepo(pool *pgxpool.Pool) *FeedbackRepo {
	return &FeedbackRepo{pool: pool}
}

// Upsert сохраняет оценку. Повторная оценка той же сущности
// тем же пользователем обновляет rating и comment.
func (r *FeedbackRepo) Upsert(ctx context.Context, f *domain.Feedback) error {
	query := `
		INSERT INTO user_feedback (id, user_id, subject_type, subject_id, rating, comment, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		ON CONFLICT (user_id, subject_type, subject_id) DO UPDATE
		SET rating = EXCLUDED.rating,
		    comment = EXCLUDED.comment,
		    updated_at = EXCLUDED.updated_at
	`
	_, err := r.pool.Exec(ctx, query,
		f.ID,
		f.UserID,
		f.SubjectType,
		f.SubjectID,
		f.Rating,
		f.Comment,
		f.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert feedback: %w", err)
	}
	return nil
}

// ListByUser возвращает все оценки пользователя.
func (r *FeedbackRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Feedback, error) {
	query := `
		SELECT id, user_id, subject_type, subject_id, rating, comment, created_at, updated_at
		FROM user_feedback
		WHERE user_id = $1
		ORDER BY updated_at DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	defer rows.Close()

	var result []domain.Feedback
	for rows.Next() {
		var f domain.Feedback
		err := rows.Scan(&f.ID, &f.UserID, &f.SubjectType, &f.SubjectID, &f.Rating, &f.Comment, &f.CreatedAt, &f.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		result = append(result, f)
	}
	return result, rows.Err()
}
