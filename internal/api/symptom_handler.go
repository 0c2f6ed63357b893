package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/twm105/bloaty-mcbloatface-sub001/internal/domain"
	"github.com/twm105/bloaty-mcbloatface-sub001/internal/repo"
)

// ListSymptoms возвращает симптомы пользователя.
// GET /api/v1/symptoms?since=...&limit=...&offset=...
func (h *Handler) ListSymptoms(w http.ResponseWriter, r *http.Request) {
	filter := repo.SymptomFilter{UserID: UserID(r.Context())}

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

	symptoms, err := h.symptomRepo.List(r.Context(), filter)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	List(w, symptoms, len(symptoms))
}

// CreateSymptom создаёт запись о симптоме.
// POST /api/v1/symptoms
func (h *Handler) CreateSymptom(w http.ResponseWriter, r *http.Request) {
	var req CreateSymptomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	if req.Description == "" {
		BadRequest(w, "description is required")
		return
	}
	for _, tag := range req.Tags {
		if err := tag.Validate(); err != nil {
			BadRequest(w, err.Error())
			return
		}
	}

	now := time.Now()
	start := now
	if req.StartTime != nil {
		start = *req.StartTime
	}
	if req.EndTime != nil && req.EndTime.Before(start) {
		BadRequest(w, "end_time must not be before start_time")
		return
	}

	symptom := &domain.Symptom{
		ID:                   uuid.New(),
		UserID:               UserID(r.Context()),
		Description:          req.Description,
		Tags:                 req.Tags,
		StartTime:            start,
		EndTime:              req.EndTime,
		EpisodeID:            req.EpisodeID,
		ClarificationHistory: req.ClarificationHistory,
		CreatedAt:            now,
	}

	if err := h.symptomRepo.Create(r.Context(), symptom); err != nil {
		InternalError(w, h.logger, err)
		return
	}

	Created(w, symptom)
}

// GetSymptom возвращает симптом по ID.
// GET /api/v1/symptoms/{id}
func (h *Handler) GetSymptom(w http.ResponseWriter, r *http.Request) {
	symptom, ok := h.loadOwnSymptom(w, r)
	if !ok {
		return
	}

	Success(w, symptom)
}

// DeleteSymptom удаляет симптом.
// DELETE /api/v1/symptoms/{id}
func (h *Handler) DeleteSymptom(w http.ResponseWriter, r *http.Request) {
	symptom, ok := h.loadOwnSymptom(w, r)
	if !ok {
		return
	}

	if err := h.symptomRepo.Delete(r.Context(), symptom.ID); err != nil {
		HandleRepoError(w, h.logger, err, "symptom not found")
		return
	}

	NoContent(w)
}

// ClarifySymptom предлагает уточняющий вопрос по описанию симптома.
// Запись при этом не создаётся: клиент собирает историю вопросов
// и отправляет её вместе с симптомом обычным POST.
// POST /api/v1/symptoms/clarify
func (h *Handler) ClarifySymptom(w http.ResponseWriter, r *http.Request) {
	if h.ai == nil {
		ServiceUnavailable(w, "symptom clarification is not configured")
		return
	}

	var req ClarifySymptomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}
	if req.Description == "" {
		BadRequest(w, "description is required")
		return
	}

	clarification, err := h.ai.ClarifySymptom(r.Context(), req.Description, req.History)
	if err != nil {
		h.logger.Error("symptom clarification failed", "error", err)
		ServiceUnavailable(w, "symptom clarification temporarily unavailable")
		return
	}

	if clarification.Usage.Model != "" {
		h.logAIUsage(r, clarification.Usage)
	}

	Success(w, clarification)
}

// loadOwnSymptom загружает симптом и проверяет владельца.
func (h *Handler) loadOwnSymptom(w http.ResponseWriter, r *http.Request) (*domain.Symptom, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid symptom id")
		return nil, false
	}

	symptom, err := h.symptomRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "symptom not found") {
		return nil, false
	}

	if symptom.UserID != UserID(r.Context()) {
		NotFound(w, "symptom not found")
		return nil, false
	}

	return symptom, true
}
