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

// RunRepo — репозиторий для diagnosis runs.
type RunRepo struct {
	pool *pgxpool.Pool
}

// NewRunRepo создаёт новый RunRepo.
func NewRunRepo(pool *pgxpool.Pool) *RunRepo {
	return &RunRepo{pool: pool}
}

const runColumns = `
	id, user_id, status, total_ingredients, completed_ingredients,
	meals_analyzed, symptoms_analyzed, sufficient_data, model,
	input_tokens, output_tokens, error_message, created_at, started_at, completed_at
`

// Create создаёт новый run. У пользователя с активным run'ом
// вставка упирается в частичный уникальный индекс — ErrAlreadyExists.
func (r *RunRepo) Create(ctx context.Context, run *domain.DiagnosisRun) error {
	query := `
		INSERT INTO diagnosis_runs (id, user_id, status, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) WHERE status IN ('pending', 'processing') DO NOTHING
	`
	result, err := r.pool.Exec(ctx, query, run.ID, run.UserID, run.Status, run.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrAlreadyExists
	}
	return nil
}

// GetByID возвращает run по ID.
func (r *RunRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.DiagnosisRun, error) {
	query := `SELECT ` + runColumns + ` FROM diagnosis_runs WHERE id = $1`
	return r.scanRun(r.pool.QueryRow(ctx, query, id))
}

// GetActiveByUser возвращает незавершённый run пользователя.
// Инвариант системы: не больше одного активного run на пользователя.
func (r *RunRepo) GetActiveByUser(ctx context.Context, userID uuid.UUID) (*domain.DiagnosisRun, error) {
	query := `
		SELECT ` + runColumns + `
		FROM diagnosis_runs
		WHERE user_id = $1 AND status IN ('pending', 'processing')
		ORDER BY created_at DESC
		LIMIT 1
	`
	return r.scanRun(r.pool.QueryRow(ctx, query, userID))
}

// List возвращает runs пользователя, новые первыми.
func (r *RunRepo) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.DiagnosisRun, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT ` + runColumns + `
		FROM diagnosis_runs
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.DiagnosisRun
	for rows.Next() {
		run, err := r.scanRunFromRows(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// Update обновляет run.
// Терминальные runs не обновляются: возвращает ErrInvalidState.
func (r *RunRepo) Update(ctx context.Context, run *domain.DiagnosisRun) error {
	query := `
		UPDATE diagnosis_runs
		SET status = $2, total_ingredients = $3, completed_ingredients = $4,
		    meals_analyzed = $5, symptoms_analyzed = $6, sufficient_data = $7,
		    model = $8, input_tokens = $9, output_tokens = $10,
		    error_message = $11, started_at = $12, completed_at = $13
		WHERE id = $1 AND status NOT IN ('completed', 'failed')
	`
	result, err := r.pool.Exec(ctx, query,
		run.ID,
		run.Status,
		run.TotalIngredients,
		run.CompletedIngredients,
		run.MealsAnalyzed,
		run.SymptomsAnalyzed,
		run.SufficientData,
		run.Model,
		run.InputTokens,
		run.OutputTokens,
		nullString(run.Error),
		run.StartedAt,
		run.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if result.RowsAffected() == 0 {
		if _, getErr := r.GetByID(ctx, run.ID); getErr != nil {
			return getErr
		}
		return ErrInvalidState
	}
	return nil
}

// IncrementCompleted атомарно увеличивает completed_ingredients
// и возвращает новые значения счётчиков.
// completed_ingredients никогда не превышает total_ingredients.
func (r *RunRepo) IncrementCompleted(ctx context.Context, runID uuid.UUID, inputTokens, outputTokens int) (completed, total int, err error) {
	query := `
		UPDATE diagnosis_runs
		SET completed_ingredients = LEAST(completed_ingredients + 1, total_ingredients),
		    input_tokens = input_tokens + $2,
		    output_tokens = output_tokens + $3
		WHERE id = $1 AND status = 'processing'
		RETURNING completed_ingredients, total_ingredients
	`
	err = r.pool.QueryRow(ctx, query, runID, inputTokens, outputTokens).Scan(&completed, &total)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, 0, ErrInvalidState
	}
	if err != nil {
		return 0, 0, fmt.Errorf("increment completed: %w", err)
	}
	return completed, total, nil
}

// ClaimPending атомарно забирает pending runs в обработку (polling fallback).
// FOR UPDATE SKIP LOCKED позволяет нескольким воркерам не конфликтовать.
func (r *RunRepo) ClaimPending(ctx context.Context, limit int) ([]domain.DiagnosisRun, error) {
	query := `
		SELECT ` + runColumns + `
		FROM diagnosis_runs
		WHERE status = 'pending'
		ORDER BY created_at ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin claim: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("claim pending runs: %w", err)
	}

	var runs []domain.DiagnosisRun
	for rows.Next() {
		run, err := r.scanRunFromRows(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		runs = append(runs, *run)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit claim: %w", err)
	}
	return runs, nil
}

// FailStale помечает failed зависшие processing runs,
// у которых started_at старше cutoff. Возвращает количество.
func (r *RunRepo) FailStale(ctx context.Context, cutoff time.Time, errMsg string) (int, error) {
	query := `
		UPDATE diagnosis_runs
		SET status = 'failed', error_message = $2, completed_at = now()
		WHERE status = 'processing' AND started_at < $1
	`
	result, err := r.pool.Exec(ctx, query, cutoff, errMsg)
	if err != nil {
		return 0, fmt.Errorf("fail stale runs: %w", err)
	}
	return int(result.RowsAffected()), nil
}

// --- Helpers ---

func (r *RunRepo) scanRun(row pgx.Row) (*domain.DiagnosisRun, error) {
	var run domain.DiagnosisRun
	var errMsg *string

	err := row.Scan(
		&run.ID,
		&run.UserID,
		&run.Status,
		&run.TotalIngredients,
		&run.CompletedIngredients,
		&run.MealsAnalyzed,
		&run.SymptomsAnalyzed,
		&run.SufficientData,
		&run.Model,
		&run.InputTokens,
		&run.OutputTokens,
		&errMsg,
		&run.CreatedAt,
		&run.StartedAt,
		&run.CompletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}

	if errMsg != nil {
		run.Error = *errMsg
	}
	return &run, nil
}

func (r *RunRepo) scanRunFromRows(rows pgx.Rows) (*domain.DiagnosisRun, error) {
	var run domain.DiagnosisRun
	var errMsg *string

	err := rows.Scan(
		&run.ID,
		&run.UserID,
		&run.Status,
		&run.TotalIngredients,
		&run.CompletedIngredients,
		&run.MealsAnalyzed,
		&run.SymptomsAnalyzed,
		&run.SufficientData,
		&run.Model,
		&run.InputTokens,
		&run.OutputTokens,
		&errMsg,
		&run.CreatedAt,
		&run.StartedAt,
		&run.CompletedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}

	if errMsg != nil {
		run.Error = *errMsg
	}
	return &run, nil
}
