package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/twm105/bloaty-mcbloatface-sub001/internal/domain"
)

// UsageRepo — репозиторий для учёта расхода токенов.
type UsageRepo struct {
	pool *pgxpool.Pool
}

// NewUsageRepo создаёт новый UsageRepo.
func NewUsageRepo(pool *pgxpool.Pool) *UsageRepo {
	return &UsageRepo{pool: pool}
}

// Create записывает один вызов модели.
func (r *UsageRepo) Create(ctx context.Context, log *domain.AIUsageLog) error {
	query := `
		INSERT INTO ai_usage_logs (id, user_id, operation, prompt_version, model, input_tokens, output_tokens, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.pool.Exec(ctx, query,
		log.ID,
		log.UserID,
		log.Operation,
		log.PromptVersion,
		log.Model,
		log.InputTokens,
		log.OutputTokens,
		log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert usage log: %w", err)
	}
	return nil
}

// DeleteOlderThan удаляет записи старше cutoff (retention).
// Возвращает количество удалённых.
func (r *UsageRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM ai_usage_logs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete usage logs: %w", err)
	}
	return int(result.RowsAffected()), nil
}
