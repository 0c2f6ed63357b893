package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/twm105/bloaty-mcbloatface-sub001/internal/domain"
)

// ExportRepo — репозиторий для data exports.
type ExportRepo struct {
	pool *pgxpool.Pool
}

// NewExportRepo создаёт новый ExportRepo.
func NewExportRepo(pool *pgxpool.Pool) *ExportRepo {
	return &ExportRepo{pool: pool}
}

// Create сохраняет выгрузку.
func (r *ExportRepo) Create(ctx context.Context, e *domain.DataExport) error {
	query := `
		INSERT INTO data_exports (id, user_id, status, payload, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.pool.Exec(ctx, query, e.ID, e.UserID, e.Status, e.Payload, e.CreatedAt, e.ExpiresAt)
	if err != nil {
		return fmt.Errorf("insert export: %w", err)
	}
	return nil
}

// GetByID возвращает выгрузку с payload.
func (r *ExportRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.DataExport, error) {
	query := `
		SELECT id, user_id, status, payload, created_at, expires_at
		FROM data_exports
		WHERE id = $1
	`
	var e domain.DataExport
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&e.ID, &e.UserID, &e.Status, &e.Payload, &e.CreatedAt, &e.ExpiresAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan export: %w", err)
	}
	return &e, nil
}

// ListByUser возвращает выгрузки пользователя без payload.
func (r *ExportRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.DataExport, error) {
	query := `
		SELECT id, user_id, status, created_at, expires_at
		FROM data_exports
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list exports: %w", err)
	}
	defer rows.Close()

	var result []domain.DataExport
	for rows.Next() {
		var e domain.DataExport
		if err := rows.Scan(&e.ID, &e.UserID, &e.Status, &e.CreatedAt, &e.ExpiresAt); err != nil {
			return nil, fmt.Errorf("scan export: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// ExpireOlderThan помечает expired готовые выгрузки с истёкшим сроком
// и очищает их payload. Возвращает количество.
func (r *ExportRepo) ExpireOlderThan(ctx context.Context, now time.Time) (int, error) {
	query := `
		UPDATE data_exports
		SET status = 'expired', payload = NULL
		WHERE status = 'ready' AND expires_at < $1
	`
	result, err := r.pool.Exec(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("expire exports: %w", err)
	}
	return int(result.RowsAffected()), nil
}
