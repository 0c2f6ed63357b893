package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/twm105/bloaty-mcbloatface-sub001/internal/domain"
	"github.com/twm105/bloaty-mcbloatface-sub001/internal/mq"
	"github.com/twm105/bloaty-mcbloatface-sub001/internal/repo"
	"github.com/twm105/bloaty-mcbloatface-sub001/internal/sse"
)

// sseHeartbeat — интервал keep-alive комментариев в SSE-потоке.
const sseHeartbeat = 15 * time.Second

// CreateRun запускает новый diagnosis run.
// Не больше одного активного run на пользователя: повтор — 409.
// POST /api/v1/diagnosis/runs
func (h *Handler) CreateRun(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())

	if _, err := h.runRepo.GetActiveByUser(r.Context(), userID); err == nil {
		Conflict(w, "a diagnosis run is already in progress")
		return
	}

	run := &domain.DiagnosisRun{
		ID:        uuid.New(),
		UserID:    userID,
		Status:    domain.RunStatusPending,
		CreatedAt: time.Now(),
	}

	// Предварительная проверка выше — для дружелюбного сообщения;
	// от конкурентных POST защищает уникальный индекс в Create.
	if err := h.runRepo.Create(r.Context(), run); err != nil {
		if errors.Is(err, repo.ErrAlreadyExists) {
			Conflict(w, "a diagnosis run is already in progress")
			return
		}
		InternalError(w, h.logger, err)
		return
	}

	// Best effort: без MQ воркер подхватит run через polling.
	if h.publisher != nil {
		if err := h.publisher.PublishRunCreated(r.Context(), run.ID, run.UserID); err != nil {
			h.logger.Warn("failed to publish run, worker will poll", "run_id", run.ID, "error", err)
		}
	}

	Created(w, RunFromDomain(*run))
}

// ListRuns возвращает runs пользователя.
// GET /api/v1/diagnosis/runs?limit=...&offset=...
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.runRepo.List(r.Context(), UserID(r.Context()),
		queryInt(r, "limit", 50), queryInt(r, "offset", 0))
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	responses := make([]RunResponse, 0, len(runs))
	for _, run := range runs {
		responses = append(responses, RunFromDomain(run))
	}

	List(w, responses, len(responses))
}

// GetRun возвращает run по ID.
// GET /api/v1/diagnosis/runs/{id}
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	run, ok := h.loadOwnRun(w, r)
	if !ok {
		return
	}

	Success(w, RunFromDomain(*run))
}

// GetRunResults возвращает результаты run'а: подтверждённые
// ингредиенты-триггеры и отсеянные confounded-ингредиенты.
// GET /api/v1/diagnosis/runs/{id}/results
func (h *Handler) GetRunResults(w http.ResponseWriter, r *http.Request) {
	run, ok := h.loadOwnRun(w, r)
	if !ok {
		return
	}

	results, err := h.resultRepo.ListResults(r.Context(), run.ID)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	discounted, err := h.resultRepo.ListDiscounted(r.Context(), run.ID)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	if results == nil {
		results = []domain.DiagnosisResult{}
	}
	if discounted == nil {
		discounted = []domain.DiscountedIngredient{}
	}

	Success(w, RunResultsResponse{
		Results:               results,
		DiscountedIngredients: discounted,
	})
}

// GetRunDiscounted возвращает только отсеянные ингредиенты run'а.
// GET /api/v1/diagnosis/runs/{id}/discounted
func (h *Handler) GetRunDiscounted(w http.ResponseWriter, r *http.Request) {
	run, ok := h.loadOwnRun(w, r)
	if !ok {
		return
	}

	discounted, err := h.resultRepo.ListDiscounted(r.Context(), run.ID)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	List(w, discounted, len(discounted))
}

// StreamRunEvents стримит прогресс run'а через Server-Sent Events.
//
// Для завершённого run'а поток состоит из одного синтетического
// терминального события. Для активного — snapshot истории из брокера,
// затем живые события до терминального или разрыва соединения.
// GET /api/v1/diagnosis/runs/{id}/events
func (h *Handler) StreamRunEvents(w http.ResponseWriter, r *http.Request) {
	run, ok := h.loadOwnRun(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		InternalError(w, h.logger, fmt.Errorf("response writer does not support flushing"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if run.IsFinished() {
		writeSSE(w, terminalEvent(run))
		flusher.Flush()
		return
	}

	snapshot, events, cancel := h.broker.Subscribe(run.ID)
	defer cancel()

	for _, ev := range snapshot {
		writeSSE(w, ev)
	}
	flusher.Flush()

	heartbeat := time.NewTicker(sseHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case ev, open := <-events:
			if !open {
				return
			}
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

// terminalEvent строит синтетическое терминальное событие
// для run'а, завершившегося до подписки.
func terminalEvent(run *domain.DiagnosisRun) sse.Event {
	if run.Status == domain.RunStatusFailed {
		data, _ := json.Marshal(map[string]string{"message": run.Error})
		return sse.Event{Seq: run.TotalIngredients + 1, Type: mq.EventError, Data: data}
	}

	data, _ := json.Marshal(map[string]any{
		"sufficient_data": run.SufficientData,
		"meals_analyzed":  run.MealsAnalyzed,
	})
	return sse.Event{Seq: run.TotalIngredients + 1, Type: mq.EventComplete, Data: data}
}

// writeSSE сериализует событие в wire-формат SSE.
func writeSSE(w http.ResponseWriter, ev sse.Event) {
	fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", ev.Seq, ev.Type, ev.Data)
}

// loadOwnRun загружает run и проверяет владельца.
func (h *Handler) loadOwnRun(w http.ResponseWriter, r *http.Request) (*domain.DiagnosisRun, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid run id")
		return nil, false
	}

	run, err := h.runRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "run not found") {
		return nil, false
	}

	if run.UserID != UserID(r.Context()) {
		NotFound(w, "run not found")
		return nil, false
	}

	return run, true
}
