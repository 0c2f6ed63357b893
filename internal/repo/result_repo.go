package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/twm105/bloaty-mcbloatface-sub001/internal/domain"
)

// ResultRepo — репозиторий для diagnosis results, citations и discounted ingredients.
type ResultRepo struct {
	pool *pgxpool.Pool
}

// NewResultRepo создаёт новый ResultRepo.
func NewResultRepo(pool *pgxpool.Pool) *ResultRepo {
	return &ResultRepo{pool: pool}
}

// CreateResult сохраняет результат вместе с citations в одной транзакции.
// Дубликаты URL среди citations пропускаются.
func (r *ResultRepo) CreateResult(ctx context.Context, res *domain.DiagnosisResult) error {
	symptomsJSON, err := json.Marshal(res.AssociatedSymptoms)
	if err != nil {
		return fmt.Errorf("marshal associated symptoms: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO diagnosis_results (
			id, run_id, ingredient_id, confidence_score, confidence_level,
			immediate_correlations, delayed_correlations, cumulative_correlations,
			times_eaten, times_followed_by_symptoms, associated_symptoms,
			diagnosis_summary, recommendations_summary, processing_suggestions, alternative_meals
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err = tx.Exec(ctx, query,
		res.ID,
		res.RunID,
		res.IngredientID,
		res.ConfidenceScore,
		res.ConfidenceLevel,
		res.ImmediateCorrelations,
		res.DelayedCorrelations,
		res.CumulativeCorrelations,
		res.TimesEaten,
		res.TimesFollowedBySymptoms,
		symptomsJSON,
		res.DiagnosisSummary,
		res.RecommendationsSummary,
		res.ProcessingSuggestions,
		res.AlternativeMeals,
	)
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}

	for i := range res.Citations {
		c := &res.Citations[i]
		c.ResultID = res.ID
		_, err = tx.Exec(ctx, `
			INSERT INTO diagnosis_citations (id, result_id, title, url, snippet)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (result_id, url) DO NOTHING
		`, c.ID, c.ResultID, c.Title, c.URL, c.Snippet)
		if err != nil {
			return fmt.Errorf("insert citation: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// CreateDiscounted сохраняет исключённый ингредиент.
func (r *ResultRepo) CreateDiscounted(ctx context.Context, d *domain.DiscountedIngredient) error {
	query := `
		INSERT INTO discounted_ingredients (
			id, run_id, ingredient_id, discard_justification, confounded_by,
			conditional_probability, reverse_probability, lift,
			cooccurrence_meals_count, medical_grounding_summary
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.pool.Exec(ctx, query,
		d.ID,
		d.RunID,
		d.IngredientID,
		d.DiscardJustification,
		d.ConfoundedBy,
		d.ConditionalProbability,
		d.ReverseProbability,
		d.Lift,
		d.CooccurrenceMealsCount,
		d.MedicalGroundingSummary,
	)
	if err != nil {
		return fmt.Errorf("insert discounted ingredient: %w", err)
	}
	return nil
}

// ListResults возвращает результаты run, по убыванию confidence.
func (r *ResultRepo) ListResults(ctx context.Context, runID uuid.UUID) ([]domain.DiagnosisResult, error) {
	query := `
		SELECT dr.id, dr.run_id, dr.ingredient_id, i.name,
		       dr.confidence_score, dr.confidence_level,
		       dr.immediate_correlations, dr.delayed_correlations, dr.cumulative_correlations,
		       dr.times_eaten, dr.times_followed_by_symptoms, dr.associated_symptoms,
		       dr.diagnosis_summary, dr.recommendations_summary,
		       dr.processing_suggestions, dr.alternative_meals
		FROM diagnosis_results dr
		JOIN ingredients i ON i.id = dr.ingredient_id
		WHERE dr.run_id = $1
		ORDER BY dr.confidence_score DESC
	`
	rows, err := r.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	var results []domain.DiagnosisResult
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Подгружаем citations одним запросом
	if len(results) > 0 {
		if err := r.attachCitations(ctx, results); err != nil {
			return nil, err
		}
	}
	return results, nil
}

// ListDiscounted возвращает исключённые ингредиенты run.
func (r *ResultRepo) ListDiscounted(ctx context.Context, runID uuid.UUID) ([]domain.DiscountedIngredient, error) {
	query := `
		SELECT d.id, d.run_id, d.ingredient_id, i.name,
		       d.discard_justification, d.confounded_by,
		       d.conditional_probability, d.reverse_probability, d.lift,
		       d.cooccurrence_meals_count, d.medical_grounding_summary
		FROM discounted_ingredients d
		JOIN ingredients i ON i.id = d.ingredient_id
		WHERE d.run_id = $1
		ORDER BY d.lift DESC
	`
	rows, err := r.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("list discounted: %w", err)
	}
	defer rows.Close()

	var result []domain.DiscountedIngredient
	for rows.Next() {
		var d domain.DiscountedIngredient
		err := rows.Scan(
			&d.ID,
			&d.RunID,
			&d.IngredientID,
			&d.IngredientName,
			&d.DiscardJustification,
			&d.ConfoundedBy,
			&d.ConditionalProbability,
			&d.ReverseProbability,
			&d.Lift,
			&d.CooccurrenceMealsCount,
			&d.MedicalGroundingSummary,
		)
		if err != nil {
			return nil, fmt.Errorf("scan discounted: %w", err)
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

// HasIngredient возвращает true, если ингредиент уже записан в run
// (в results или discounted). Ингредиент попадает ровно в одну из таблиц.
func (r *ResultRepo) HasIngredient(ctx context.Context, runID, ingredientID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM diagnosis_results WHERE run_id = $1 AND ingredient_id = $2
			UNION ALL
			SELECT 1 FROM discounted_ingredients WHERE run_id = $1 AND ingredient_id = $2
		)
	`, runID, ingredientID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check ingredient: %w", err)
	}
	return exists, nil
}

// --- Helpers ---

func scanResult(rows pgx.Rows) (*domain.DiagnosisResult, error) {
	var res domain.DiagnosisResult
	var symptomsJSON []byte

	err := rows.Scan(
		&res.ID,
		&res.RunID,
		&res.IngredientID,
		&res.IngredientName,
		&res.ConfidenceScore,
		&res.ConfidenceLevel,
		&res.ImmediateCorrelations,
		&res.DelayedCorrelations,
		&res.CumulativeCorrelations,
		&res.TimesEaten,
		&res.TimesFollowedBySymptoms,
		&symptomsJSON,
		&res.DiagnosisSummary,
		&res.RecommendationsSummary,
		&res.ProcessingSuggestions,
		&res.AlternativeMeals,
	)
	if err != nil {
		return nil, fmt.Errorf("scan result: %w", err)
	}

	if symptomsJSON != nil {
		if err := json.Unmarshal(symptomsJSON, &res.AssociatedSymptoms); err != nil {
			return nil, fmt.Errorf("unmarshal associated symptoms: %w", err)
		}
	}
	return &res, nil
}

func (r *ResultRepo) attachCitations(ctx context.Context, results []domain.DiagnosisResult) error {
	ids := make([]uuid.UUID, len(results))
	index := make(map[uuid.UUID]int, len(results))
	for i := range results {
		ids[i] = results[i].ID
		index[results[i].ID] = i
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, result_id, title, url, snippet
		FROM diagnosis_citations
		WHERE result_id = ANY($1)
	`, ids)
	if err != nil {
		return fmt.Errorf("list citations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c domain.Citation
		if err := rows.Scan(&c.ID, &c.ResultID, &c.Title, &c.URL, &c.Snippet); err != nil {
			return fmt.Errorf("scan citation: %w", err)
		}
		if i, ok := index[c.ResultID]; ok {
			results[i].Citations = append(results[i].Citations, c)
		}
	}
	return rows.Err()
}
