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

// MealRepo — репозиторий для meals, ингредиентов и их связей.
type MealRepo struct {
	pool *pgxpool.Pool
}

// NewMealRepo создаёт новый MealRepo.
func NewMealRepo(pool *pgxpool.Pool) *MealRepo {
	return &MealRepo{pool: pool}
}

// Create создаёт meal вместе с ингредиентами в одной транзакции.
// Ингредиенты дедуплицируются по normalized_name.
func (r *MealRepo) Create(ctx context.Context, meal *domain.Meal) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO meals (id, user_id, name, notes, status, eaten_at, local_timezone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = tx.Exec(ctx, query,
		meal.ID,
		meal.UserID,
		meal.Name,
		meal.Notes,
		meal.Status,
		meal.EatenAt,
		meal.LocalTimezone,
		meal.CreatedAt,
		meal.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert meal: %w", err)
	}

	for i := range meal.Ingredients {
		mi := &meal.Ingredients[i]
		ingredientID, err := upsertIngredient(ctx, tx, mi.IngredientName)
		if err != nil {
			return err
		}
		mi.IngredientID = ingredientID
		mi.MealID = meal.ID

		_, err = tx.Exec(ctx, `
			INSERT INTO meal_ingredients (id, meal_id, ingredient_id, state, quantity, ai_confidence)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, mi.ID, mi.MealID, mi.IngredientID, mi.State, mi.Quantity, mi.AIConfidence)
		if err != nil {
			return fmt.Errorf("insert meal ingredient: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// upsertIngredient возвращает ID ингредиента, создавая его при необходимости.
func upsertIngredient(ctx context.Context, tx pgx.Tx, name string) (uuid.UUID, error) {
	normalized := domain.NormalizeIngredientName(name)
	var id uuid.UUID
	err := tx.QueryRow(ctx, `
		INSERT INTO ingredients (id, name, normalized_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (normalized_name) DO UPDATE SET normalized_name = EXCLUDED.normalized_name
		RETURNING id
	`, uuid.New(), name, normalized).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("upsert ingredient %q: %w", name, err)
	}
	return id, nil
}

// GetByID возвращает meal с ингредиентами.
func (r *MealRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Meal, error) {
	query := `
		SELECT id, user_id, name, notes, status, eaten_at, local_timezone, created_at, updated_at
		FROM meals
		WHERE id = $1
	`
	meal, err := r.scanMeal(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}

	ingredients, err := r.listIngredients(ctx, id)
	if err != nil {
		return nil, err
	}
	meal.Ingredients = ingredients
	return meal, nil
}

// MealFilter — параметры фильтрации meals.
type MealFilter struct {
	UserID uuid.UUID
	Status domain.MealStatus
	Since  *time.Time
	Limit  int
	Offset int
}

// List возвращает meals пользователя (без ингредиентов), новые первыми.
func (r *MealRepo) List(ctx context.Context, filter MealFilter) ([]domain.Meal, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, user_id, name, notes, status, eaten_at, local_timezone, created_at, updated_at
		FROM meals
		WHERE user_id = $1
		  AND ($2::text IS NULL OR status = $2)
		  AND ($3::timestamptz IS NULL OR eaten_at >= $3)
		ORDER BY eaten_at DESC
		LIMIT $4 OFFSET $5
	`
	rows, err := r.pool.Query(ctx, query,
		filter.UserID,
		nullString(string(filter.Status)),
		filter.Since,
		limit,
		filter.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list meals: %w", err)
	}
	defer rows.Close()

	var meals []domain.Meal
	for rows.Next() {
		meal, err := r.scanMealFromRows(rows)
		if err != nil {
			return nil, err
		}
		meals = append(meals, *meal)
	}
	return meals, rows.Err()
}

// Publish переводит meal из draft в published.
// Возвращает ErrInvalidState, если meal уже опубликован.
func (r *MealRepo) Publish(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE meals
		SET status = 'published', updated_at = now()
		WHERE id = $1 AND status = 'draft'
	`
	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("publish meal: %w", err)
	}
	if result.RowsAffected() == 0 {
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		return ErrInvalidState
	}
	return nil
}

// Delete удаляет meal (ингредиенты каскадом).
func (r *MealRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM meals WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete meal: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListPublishedWithIngredients возвращает опубликованные meals пользователя
// с ингредиентами начиная с since. Это вход статистического анализа.
func (r *MealRepo) ListPublishedWithIngredients(ctx context.Context, userID uuid.UUID, since time.Time) ([]domain.Meal, error) {
	meals, err := r.List(ctx, MealFilter{
		UserID: userID,
		Status: domain.MealStatusPublished,
		Since:  &since,
		Limit:  10000,
	})
	if err != nil {
		return nil, err
	}
	if len(meals) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, len(meals))
	index := make(map[uuid.UUID]int, len(meals))
	for i := range meals {
		ids[i] = meals[i].ID
		index[meals[i].ID] = i
	}

	query := `
		SELECT mi.id, mi.meal_id, mi.ingredient_id, i.name, mi.state, mi.quantity, mi.ai_confidence
		FROM meal_ingredients mi
		JOIN ingredients i ON i.id = mi.ingredient_id
		WHERE mi.meal_id = ANY($1)
	`
	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("list meal ingredients: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var mi domain.MealIngredient
		if err := rows.Scan(&mi.ID, &mi.MealID, &mi.IngredientID, &mi.IngredientName, &mi.State, &mi.Quantity, &mi.AIConfidence); err != nil {
			return nil, fmt.Errorf("scan meal ingredient: %w", err)
		}
		if i, ok := index[mi.MealID]; ok {
			meals[i].Ingredients = append(meals[i].Ingredients, mi)
		}
	}
	return meals, rows.Err()
}

// GetIngredientByID возвращает ингредиент.
func (r *MealRepo) GetIngredientByID(ctx context.Context, id uuid.UUID) (*domain.Ingredient, error) {
	var ing domain.Ingredient
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, normalized_name FROM ingredients WHERE id = $1
	`, id).Scan(&ing.ID, &ing.Name, &ing.NormalizedName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan ingredient: %w", err)
	}
	return &ing, nil
}

// --- Helpers ---

func (r *MealRepo) listIngredients(ctx context.Context, mealID uuid.UUID) ([]domain.MealIngredient, error) {
	query := `
		SELECT mi.id, mi.meal_id, mi.ingredient_id, i.name, mi.state, mi.quantity, mi.ai_confidence
		FROM meal_ingredients mi
		JOIN ingredients i ON i.id = mi.ingredient_id
		WHERE mi.meal_id = $1
	`
	rows, err := r.pool.Query(ctx, query, mealID)
	if err != nil {
		return nil, fmt.Errorf("list ingredients: %w", err)
	}
	defer rows.Close()

	var result []domain.MealIngredient
	for rows.Next() {
		var mi domain.MealIngredient
		if err := rows.Scan(&mi.ID, &mi.MealID, &mi.IngredientID, &mi.IngredientName, &mi.State, &mi.Quantity, &mi.AIConfidence); err != nil {
			return nil, fmt.Errorf("scan meal ingredient: %w", err)
		}
		result = append(result, mi)
	}
	return result, rows.Err()
}

func (r *MealRepo) scanMeal(row pgx.Row) (*domain.Meal, error) {
	var meal domain.Meal
	err := row.Scan(
		&meal.ID,
		&meal.UserID,
		&meal.Name,
		&meal.Notes,
		&meal.Status,
		&meal.EatenAt,
		&meal.LocalTimezone,
		&meal.CreatedAt,
		&meal.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan meal: %w", err)
	}
	return &meal, nil
}

func (r *MealRepo) scanMealFromRows(rows pgx.Rows) (*domain.Meal, error) {
	var meal domain.Meal
	err := rows.Scan(
		&meal.ID,
		&meal.UserID,
		&meal.Name,
		&meal.Notes,
		&meal.Status,
		&meal.EatenAt,
		&meal.LocalTimezone,
		&meal.CreatedAt,
		&meal.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan meal: %w", err)
	}
	return &meal, nil
}
