package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/twm105/bloaty-mcbloatface-sub001/internal/domain"
)

// SymptomRepo — репозиторий для symptoms.
type SymptomRepo struct {
	pool *pgxpool.Pool
}

// NewSymptomRepo создаёт новый SymptomRepo.
func NewSymptomRepo(pool *pgxpool.Pool) *SymptomRepo {
	return &SymptomRepo{pool: pool}
}

// Create создаёт новый symptom.
func (r *SymptomRepo) Create(ctx context.Context, s *domain.Symptom) error {
	tagsJSON, err := json.Marshal(s.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}
	historyJSON, err := json.Marshal(s.ClarificationHistory)
	if err != nil {
		return fmt.Errorf("marshal clarification history: %w", err)
	}

	query := `
		INSERT INTO symptoms (id, user_id, description, tags, start_time, end_time, episode_id, clarification_history, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = r.pool.Exec(ctx, query,
		s.ID,
		s.UserID,
		s.Description,
		tagsJSON,
		s.StartTime,
		s.EndTime,
		nullUUID(s.EpisodeID),
		historyJSON,
		s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert symptom: %w", err)
	}
	return nil
}

// GetByID возвращает symptom по ID.
func (r *SymptomRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Symptom, error) {
	query := `
		SELECT id, user_id, description, tags, start_time, end_time, episode_id, clarification_history, created_at
		FROM symptoms
		WHERE id = $1
	`
	return r.scanSymptom(r.pool.QueryRow(ctx, query, id))
}

// SymptomFilter — параметры фильтрации symptoms.
type SymptomFilter struct {
	UserID uuid.UUID
	Since  *time.Time
	Limit  int
	Offset int
}

// List возвращает symptoms пользователя, новые первыми.
func (r *SymptomRepo) List(ctx context.Context, filter SymptomFilter) ([]domain.Symptom, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, user_id, description, tags, start_time, end_time, episode_id, clarification_history, created_at
		FROM symptoms
		WHERE user_id = $1
		  AND ($2::timestamptz IS NULL OR start_time >= $2)
		ORDER BY start_time DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.pool.Query(ctx, query, filter.UserID, filter.Since, limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("list symptoms: %w", err)
	}
	defer rows.Close()

	var symptoms []domain.Symptom
	for rows.Next() {
		s, err := r.scanSymptomFromRows(rows)
		if err != nil {
			return nil, err
		}
		symptoms = append(symptoms, *s)
	}
	return symptoms, rows.Err()
}

// ListSince возвращает symptoms пользователя начиная с since,
// в хронологическом порядке. Это вход статистического анализа.
func (r *SymptomRepo) ListSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]domain.Symptom, error) {
	query := `
		SELECT id, user_id, description, tags, start_time, end_time, episode_id, clarification_history, created_at
		FROM symptoms
		WHERE user_id = $1 AND start_time >= $2
		ORDER BY start_time ASC
	`
	rows, err := r.pool.Query(ctx, query, userID, since)
	if err != nil {
		return nil, fmt.Errorf("list symptoms since: %w", err)
	}
	defer rows.Close()

	var symptoms []domain.Symptom
	for rows.Next() {
		s, err := r.scanSymptomFromRows(rows)
		if err != nil {
			return nil, err
		}
		symptoms = append(symptoms, *s)
	}
	return symptoms, rows.Err()
}

// Delete удаляет symptom.
func (r *SymptomRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM symptoms WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete symptom: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Helpers ---

func (r *SymptomRepo) scanSymptom(row pgx.Row) (*domain.Symptom, error) {
	var s domain.Symptom
	var tagsJSON, historyJSON []byte

	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.Description,
		&tagsJSON,
		&s.StartTime,
		&s.EndTime,
		&s.EpisodeID,
		&historyJSON,
		&s.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan symptom: %w", err)
	}

	if err := unmarshalSymptomJSON(&s, tagsJSON, historyJSON); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SymptomRepo) scanSymptomFromRows(rows pgx.Rows) (*domain.Symptom, error) {
	var s domain.Symptom
	var tagsJSON, historyJSON []byte

	err := rows.Scan(
		&s.ID,
		&s.UserID,
		&s.Description,
		&tagsJSON,
		&s.StartTime,
		&s.EndTime,
		&s.EpisodeID,
		&historyJSON,
		&s.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan symptom: %w", err)
	}

	if err := unmarshalSymptomJSON(&s, tagsJSON, historyJSON); err != nil {
		return nil, err
	}
	return &s, nil
}

func unmarshalSymptomJSON(s *domain.Symptom, tagsJSON, historyJSON []byte) error {
	if tagsJSON != nil {
		if err := json.Unmarshal(tagsJSON, &s.Tags); err != nil {
			return fmt.Errorf("unmarshal tags: %w", err)
		}
	}
	if historyJSON != nil {
		if err := json.Unmarshal(historyJSON, &s.ClarificationHistory); err != nil {
			return fmt.Errorf("unmarshal clarification history: %w", err)
		}
	}
	return nil
}
