package api

import (
	"encoding/json"
	"net/http"
	"time"
)

// GetSettings возвращает настройки пользователя.
// При первом обращении создаются дефолтные.
// GET /api/v1/settings
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.userRepo.GetSettings(r.Context(), UserID(r.Context()))
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	Success(w, settings)
}

// UpdateSettings частично обновляет настройки.
// Принятие дисклеймера необратимо: повторный accept_disclaimer
// не сдвигает время принятия.
// PUT /api/v1/settings
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	settings, err := h.userRepo.GetSettings(r.Context(), UserID(r.Context()))
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	if req.DataRetentionDays != nil {
		if *req.DataRetentionDays < 1 {
			BadRequest(w, "data_retention_days must be positive")
			return
		}
		settings.DataRetentionDays = *req.DataRetentionDays
	}

	if req.Timezone != nil {
		if _, err := time.LoadLocation(*req.Timezone); err != nil {
			BadRequest(w, "unknown timezone: "+*req.Timezone)
			return
		}
		settings.Timezone = *req.Timezone
	}

	if req.AcceptDisclaimer && settings.DisclaimerAcceptedAt == nil {
		now := time.Now()
		settings.DisclaimerAcceptedAt = &now
	}

	if err := h.userRepo.UpdateSettings(r.Context(), settings); err != nil {
		InternalError(w, h.logger, err)
		return
	}

	Success(w, settings)
}
