package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/twm105/bloaty-mcbloatface-sub001/internal/domain"
	"github.com/twm105/bloaty-mcbloatface-sub001/internal/repo"
)

// exportTTL — срок хранения выгрузки до истечения.
const exportTTL = 7 * 24 * time.Hour

// exportPayload — содержимое GDPR-выгрузки.
type exportPayload struct {
	GeneratedAt time.Time            `json:"generated_at"`
	Meals       []domain.Meal        `json:"meals"`
	Symptoms    []domain.Symptom     `json:"symptoms"`
	Feedback    []domain.Feedback    `json:"feedback"`
	Settings    *domain.UserSettings `json:"settings"`
}

// CreateExport собирает выгрузку всех данных пользователя.
// Сбор синхронный: выгрузка сразу переходит в ready.
// POST /api/v1/exports
func (h *Handler) CreateExport(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())
	ctx := r.Context()

	meals, err := h.mealRepo.List(ctx, repo.MealFilter{UserID: userID, Limit: 10000})
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	symptoms, err := h.symptomRepo.List(ctx, repo.SymptomFilter{UserID: userID, Limit: 10000})
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	feedback, err := h.feedbackRepo.ListByUser(ctx, userID)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	settings, err := h.userRepo.GetSettings(ctx, userID)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	now := time.Now()
	payload, err := json.Marshal(exportPayload{
		GeneratedAt: now,
		Meals:       meals,
		Symptoms:    symptoms,
		Feedback:    feedback,
		Settings:    settings,
	})
	if err != nil {
		InternalError(w, h.logger, err)
		return
	}

	export := &domain.DataExport{
		ID:        uuid.New(),
		UserID:    userID,
		Status:    domain.ExportStatusReady,
		Payload:   payload,
		CreatedAt: now,
		ExpiresAt: now.Add(exportTTL),
	}

	if err := h.exportRepo.Create(ctx, export); err != nil {
		InternalError(w, h.logger, err)
		return
	}

	Created(w, export)
}

// ListExports возвращает выгрузки пользователя без содержимого.
// GET /api/v1/exports
func (h *Handler) ListExports(w http.ResponseWriter, r *http.Request) {
	exports, err := h.exportRepo.ListByUser(r.Context(), UserID(r.Context()))
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	List(w, exports, len(exports))
}

// DownloadExport отдаёт содержимое выгрузки.
// Истёкшая выгрузка эквивалентна отсутствующей.
// GET /api/v1/exports/{id}/download
func (h *Handler) DownloadExport(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid export id")
		return
	}

	export, err := h.exportRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "export not found") {
		return
	}

	if export.UserID != UserID(r.Context()) || !export.IsDownloadable(time.Now()) {
		NotFound(w, "export not found")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="bloaty-export-`+export.ID.String()+`.json"`)
	w.WriteHeader(http.StatusOK)
	w.Write(export.Payload)
}
