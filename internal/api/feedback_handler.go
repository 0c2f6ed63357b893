package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/twm105/bloaty-mcbloatface-sub001/internal/domain"
)

// UpsertFeedback сохраняет оценку записи или результата.
// Повторная оценка той же сущности обновляет предыдущую.
// POST /api/v1/feedback
func (h *Handler) UpsertFeedback(w http.ResponseWriter, r *http.Request) {
	var req FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}
	if req.SubjectID == uuid.Nil {
		BadRequest(w, "subject_id is required")
		return
	}

	now := time.Now()
	feedback := &domain.Feedback{
		ID:          uuid.New(),
		UserID:      UserID(r.Context()),
		SubjectType: req.SubjectType,
		SubjectID:   req.SubjectID,
		Rating:      req.Rating,
		Comment:     req.Comment,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := feedback.Validate(); err != nil {
		BadRequest(w, err.Error())
		return
	}

	if err := h.feedbackRepo.Upsert(r.Context(), feedback); err != nil {
		InternalError(w, h.logger, err)
		return
	}

	Success(w, feedback)
}

// ListFeedback возвращает все оценки пользователя.
// GET /api/v1/feedback
func (h *Handler) ListFeedback(w http.ResponseWriter, r *http.Request) {
	feedback, err := h.feedbackRepo.ListByUser(r.Context(), UserID(r.Context()))
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	List(w, feedback, len(feedback))
}
