package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/twm105/bloaty-mcbloatface-sub001/internal/domain"
	"github.com/twm105/bloaty-mcbloatface-sub001/internal/repo"
)

// ListMeals возвращает meals пользователя.
// GET /api/v1/meals?status=...&since=...&limit=...&offset=...
func (h *Handler) ListMeals(w http.ResponseWriter, r *http.Request) {
	filter := repo.MealFilter{UserID: UserID(r.Context())}

	if status := r.URL.Query().Get("status"); status != "" {
		filter.Status = domain.MealStatus(status)
	}

	if sinceStr := r.URL.Query().Get("since"); sinceStr != "" {
		since, err := time.Parse(time.RFC3339, sinceStr)
		if err != nil {
			BadRequest(w, "invalid since, expected RFC3339")
			return
		}
		filter.Since = &since
	}

	filter.Limit = queryInt(r, "limit", 50)
	filter.Offset = queryInt(r, "offset", 0)

	meals, err := h.mealRepo.List(r.Context(), filter)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	List(w, meals, len(meals))
}

// CreateMeal создаёт meal в статусе draft.
// POST /api/v1/meals
func (h *Handler) CreateMeal(w http.ResponseWriter, r *http.Request) {
	var req CreateMealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	if req.Name == "" {
		BadRequest(w, "name is required")
		return
	}
	if len(req.Ingredients) == 0 {
		BadRequest(w, "at least one ingredient is required")
		return
	}

	now := time.Now()
	eatenAt := now
	if req.EatenAt != nil {
		eatenAt = *req.EatenAt
	}

	timezone := req.LocalTimezone
	if timezone == "" {
		timezone = "UTC"
	}

	meal := &domain.Meal{
		ID:            uuid.New(),
		UserID:        UserID(r.Context()),
		Name:          req.Name,
		Notes:         req.Notes,
		Status:        domain.MealStatusDraft,
		EatenAt:       eatenAt,
		LocalTimezone: timezone,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	for _, ing := range req.Ingredients {
		name := domain.NormalizeIngredientName(ing.Name)
		if name == "" {
			BadRequest(w, "ingredient name is required")
			return
		}

		state := domain.IngredientState(ing.State)
		if ing.State == "" {
			state = domain.IngredientStateCooked
		}
		if !state.Valid() {
			BadRequest(w, "unknown ingredient state: "+ing.State)
			return
		}

		meal.Ingredients = append(meal.Ingredients, domain.MealIngredient{
			ID:             uuid.New(),
			MealID:         meal.ID,
			IngredientName: name,
			State:          state,
			Quantity:       ing.Quantity,
			AIConfidence:   ing.AIConfidence,
		})
	}

	if err := h.mealRepo.Create(r.Context(), meal); err != nil {
		InternalError(w, h.logger, err)
		return
	}

	Created(w, meal)
}

// GetMeal возвращает meal по ID.
// GET /api/v1/meals/{id}
func (h *Handler) GetMeal(w http.ResponseWriter, r *http.Request) {
	meal, ok := h.loadOwnMeal(w, r)
	if !ok {
		return
	}

	Success(w, meal)
}

// PublishMeal публикует черновик.
// POST /api/v1/meals/{id}/publish
func (h *Handler) PublishMeal(w http.ResponseWriter, r *http.Request) {
	meal, ok := h.loadOwnMeal(w, r)
	if !ok {
		return
	}

	if err := h.mealRepo.Publish(r.Context(), meal.ID); err != nil {
		HandleRepoError(w, h.logger, err, "meal not found")
		return
	}

	meal.Publish()
	Success(w, meal)
}

// DeleteMeal удаляет meal.
// DELETE /api/v1/meals/{id}
func (h *Handler) DeleteMeal(w http.ResponseWriter, r *http.Request) {
	meal, ok := h.loadOwnMeal(w, r)
	if !ok {
		return
	}

	if err := h.mealRepo.Delete(r.Context(), meal.ID); err != nil {
		HandleRepoError(w, h.logger, err, "meal not found")
		return
	}

	NoContent(w)
}

// AnalyzeMeal разбирает свободное описание еды на ингредиенты.
// Meal при этом не создаётся: клиент показывает список пользователю
// на подтверждение и создаёт meal обычным POST.
// POST /api/v1/meals/analyze
func (h *Handler) AnalyzeMeal(w http.ResponseWriter, r *http.Request) {
	if h.ai == nil {
		ServiceUnavailable(w, "meal analysis is not configured")
		return
	}

	var req AnalyzeMealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}
	if req.Description == "" {
		BadRequest(w, "description is required")
		return
	}

	analysis, err := h.ai.AnalyzeMeal(r.Context(), req.Description)
	if err != nil {
		h.logger.Error("meal analysis failed", "error", err)
		ServiceUnavailable(w, "meal analysis temporarily unavailable")
		return
	}

	h.logAIUsage(r, analysis.Usage)

	Success(w, analysis)
}

// loadOwnMeal загружает meal и проверяет владельца.
// Чужой meal неотличим от несуществующего.
func (h *Handler) loadOwnMeal(w http.ResponseWriter, r *http.Request) (*domain.Meal, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid meal id")
		return nil, false
	}

	meal, err := h.mealRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "meal not found") {
		return nil, false
	}

	if meal.UserID != UserID(r.Context()) {
		NotFound(w, "meal not found")
		return nil, false
	}

	return meal, true
}

// queryInt парсит числовой query-параметр с дефолтом.
func queryInt(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return defaultVal
	}
	return n
}
