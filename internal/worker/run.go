package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/twm105/bloaty-mcbloatface-sub001/internal/diagnosis"
	"github.com/twm105/bloaty-mcbloatface-sub001/internal/domain"
	"github.com/twm105/bloaty-mcbloatface-sub001/internal/mq"
	"github.com/twm105/bloaty-mcbloatface-sub001/internal/repo"
)

// handleRunCreated обрабатывает событие о новом run из очереди diagnosis.runs.
func (w *Worker) handleRunCreated(ctx context.Context, delivery *mq.Delivery) error {
	payload, err := mq.ParsePayload[mq.RunCreatedPayload](&delivery.Message)
	if err != nil {
		w.logger.Error("failed to parse diagnosis.run payload", "error", err)
		return err
	}

	w.logger.Debug("received diagnosis.run event", "run_id", payload.RunID)

	if err := w.processRun(ctx, payload.RunID); err != nil {
		// Ожидаемые ситуации — не возвращаем ошибку (ack)
		if errors.Is(err, ErrRunNotFound) || errors.Is(err, ErrRunNotPending) {
			w.logger.Debug("run not processed", "run_id", payload.RunID, "reason", err)
			return nil
		}
		w.logger.Error("failed to process run", "run_id", payload.RunID, "error", err)
		return err
	}

	return nil
}

// processRun выполняет статистическую фазу диагностики.
//
// Загружает опубликованные meals и симптомы за окно анализа, считает
// корреляцию, отбирает ингредиенты-кандидаты и рассылает по одной
// задаче AI-пайплайна на кандидата. Run с недостаточными данными
// завершается сразу, без AI-фазы.
func (w *Worker) processRun(ctx context.Context, runID uuid.UUID) error {
	run, err := w.runRepo.GetByID(ctx, runID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return fmt.Errorf("get run: %w", err)
	}

	if run.Status != domain.RunStatusPending {
		return ErrRunNotPending
	}

	run.MarkProcessing()
	run.Model = w.ai.Model()
	if err := w.runRepo.Update(ctx, run); err != nil {
		if errors.Is(err, repo.ErrInvalidState) {
			// другой воркер успел первым
			return ErrRunNotPending
		}
		return fmt.Errorf("update run to processing: %w", err)
	}

	w.logger.Info("run started", "run_id", run.ID, "user_id", run.UserID)

	since := time.Now().Add(-w.analysisWindow)

	meals, err := w.mealRepo.ListPublishedWithIngredients(ctx, run.UserID, since)
	if err != nil {
		return w.failRun(ctx, run, fmt.Errorf("load meals: %w", err))
	}

	symptoms, err := w.symptomRepo.ListSince(ctx, run.UserID, since)
	if err != nil {
		return w.failRun(ctx, run, fmt.Errorf("load symptoms: %w", err))
	}

	analysis := diagnosis.Analyze(meals, symptoms, diagnosis.Options{})

	run.MealsAnalyzed = analysis.MealsAnalyzed
	run.SymptomsAnalyzed = analysis.SymptomsAnalyzed
	run.SufficientData = analysis.Sufficient

	if !analysis.Sufficient {
		run.MarkCompleted()
		if err := w.runRepo.Update(ctx, run); err != nil {
			return fmt.Errorf("complete insufficient run: %w", err)
		}

		w.logger.Info("run completed without analysis",
			"run_id", run.ID,
			"meals", analysis.MealsAnalyzed,
			"episodes", analysis.Episodes,
		)
		runsProcessed.WithLabelValues("insufficient_data").Inc()

		w.publishEvent(ctx, run, mq.EventComplete, completeData{
			SufficientData: false,
			MealsAnalyzed:  analysis.MealsAnalyzed,
			Episodes:       analysis.Episodes,
		})
		return nil
	}

	// Кандидаты — ингредиенты, за которыми хотя бы раз следовали симптомы
	var candidates []diagnosis.IngredientStats
	for _, st := range analysis.Ingredients {
		if st.TimesFollowedBySymptoms > 0 {
			candidates = append(candidates, st)
		}
	}

	if len(candidates) == 0 {
		run.MarkCompleted()
		if err := w.runRepo.Update(ctx, run); err != nil {
			return fmt.Errorf("complete empty run: %w", err)
		}

		w.logger.Info("run completed with no correlated ingredients", "run_id", run.ID)
		runsProcessed.WithLabelValues("completed").Inc()

		w.publishEvent(ctx, run, mq.EventComplete, completeData{
			SufficientData: true,
			MealsAnalyzed:  analysis.MealsAnalyzed,
			Episodes:       analysis.Episodes,
		})
		return nil
	}

	run.TotalIngredients = len(candidates)
	if err := w.runRepo.Update(ctx, run); err != nil {
		return fmt.Errorf("update run totals: %w", err)
	}

	w.logger.Info("run analysis ready",
		"run_id", run.ID,
		"meals", analysis.MealsAnalyzed,
		"episodes", analysis.Episodes,
		"candidates", len(candidates),
	)
	runsProcessed.WithLabelValues("completed").Inc()

	w.publishEvent(ctx, run, mq.EventProgress, progressData{
		Completed: 0,
		Total:     len(candidates),
	})

	// Рассылаем задачи; без MQ обрабатываем кандидатов на месте
	for i := range candidates {
		task := ingredientTask(run, &candidates[i])

		if w.publisher != nil {
			if err := w.publisher.PublishIngredientTask(ctx, task); err != nil {
				w.logger.Error("failed to publish ingredient task",
					"run_id", run.ID,
					"ingredient", task.IngredientName,
					"error", err,
				)
				// Задача не ушла в очередь — обрабатываем инлайн
				if err := w.processIngredient(ctx, task); err != nil {
					w.logger.Error("inline processing failed", "error", err)
				}
			}
			continue
		}

		if err := w.processIngredient(ctx, task); err != nil {
			w.logger.Error("inline processing failed",
				"run_id", run.ID,
				"ingredient", task.IngredientName,
				"error", err,
			)
		}
	}

	return nil
}

// failRun помечает run как failed и возвращает исходную ошибку.
func (w *Worker) failRun(ctx context.Context, run *domain.DiagnosisRun, cause error) error {
	run.MarkFailed(cause.Error())
	if err := w.runRepo.Update(ctx, run); err != nil {
		w.logger.Error("failed to mark run failed", "run_id", run.ID, "error", err)
	}

	runsProcessed.WithLabelValues("failed").Inc()
	w.publishEvent(ctx, run, mq.EventError, errorData{Message: cause.Error()})
	return cause
}

// ingredientTask собирает самодостаточную задачу AI-пайплайна.
func ingredientTask(run *domain.DiagnosisRun, st *diagnosis.IngredientStats) mq.IngredientTaskPayload {
	stats := mq.IngredientStatsPayload{
		TimesEaten:    st.TimesEaten,
		TimesFollowed: st.TimesFollowedBySymptoms,
		Immediate:     st.Immediate,
		Delayed:       st.Delayed,
		Cumulative:    st.Cumulative,
		Confidence:    st.Confidence,
		Level:         st.Level,
		Symptoms:      st.AssociatedSymptoms,
	}
	for _, c := range st.Confounders {
		stats.Confounders = append(stats.Confounders, mq.ConfounderPayload{
			Name:                   c.Name,
			ConditionalProbability: c.ConditionalProbability,
			ReverseProbability:     c.ReverseProbability,
			Lift:                   c.Lift,
			CooccurrenceMeals:      c.CooccurrenceMeals,
		})
	}

	return mq.IngredientTaskPayload{
		RunID:          run.ID,
		UserID:         run.UserID,
		IngredientID:   st.IngredientID,
		IngredientName: st.Name,
		Stats:          stats,
	}
}

// --- SSE events ---

type progressData struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

type completeData struct {
	SufficientData bool `json:"sufficient_data"`
	MealsAnalyzed  int  `json:"meals_analyzed"`
	Episodes       int  `json:"episodes"`
}

type errorData struct {
	Ingredient string `json:"ingredient,omitempty"`
	Message    string `json:"message"`
}

// publishEvent публикует событие прогресса run'а. Ошибка публикации
// не прерывает обработку: события — best effort, клиент увидит
// итоговое состояние через GET run.
func (w *Worker) publishEvent(ctx context.Context, run *domain.DiagnosisRun, event string, data any) {
	if w.publisher == nil {
		return
	}

	body, err := json.Marshal(data)
	if err != nil {
		w.logger.Error("failed to marshal event data", "event", event, "error", err)
		return
	}

	err = w.publisher.PublishRunEvent(ctx, mq.RunEventPayload{
		RunID:  run.ID,
		UserID: run.UserID,
		Event:  event,
		Data:   body,
	})
	if err != nil {
		w.logger.Warn("failed to publish run event",
			"run_id", run.ID,
			"event", event,
			"error", err,
		)
	}
}
