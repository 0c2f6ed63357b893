package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/twm105/bloaty-mcbloatface-sub001/internal/ai"
	"github.com/twm105/bloaty-mcbloatface-sub001/internal/domain"
	"github.com/twm105/bloaty-mcbloatface-sub001/internal/mq"
	"github.com/twm105/bloaty-mcbloatface-sub001/internal/repo"
)

// handleIngredientTask обрабатывает задачу из очереди diagnosis.ingredients.
func (w *Worker) handleIngredientTask(ctx context.Context, delivery *mq.Delivery) error {
	task, err := mq.ParsePayload[mq.IngredientTaskPayload](&delivery.Message)
	if err != nil {
		// Нечитаемый payload — requeue бессмысленен
		w.logger.Error("failed to parse diagnosis.ingredient payload", "error", err)
		return nil
	}

	w.logger.Debug("received diagnosis.ingredient event",
		"run_id", task.RunID,
		"ingredient", task.IngredientName,
	)

	return w.processIngredient(ctx, task)
}

// processIngredient прогоняет один ингредиент через AI-пайплайн:
// research → classify → adapt (adapt только для root cause).
//
// Каждый ингредиент попадает либо в diagnosis_results (root cause),
// либо в discounted_ingredients (корреляция объяснена другим
// ингредиентом) — никогда в оба. Шаг классификации при сомнении
// обязан выбирать discounted.
//
// Сбой пайплайна после всех retry не валит run целиком: ингредиент
// записывается в discounted с текстом ошибки, засчитывается
// обработанным, клиенту уходит событие ingredient_error.
func (w *Worker) processIngredient(ctx context.Context, task mq.IngredientTaskPayload) error {
	started := time.Now()
	defer func() {
		ingredientDuration.Observe(time.Since(started).Seconds())
	}()

	// Идемпотентность при повторной доставке
	exists, err := w.resultRepo.HasIngredient(ctx, task.RunID, task.IngredientID)
	if err != nil {
		return fmt.Errorf("check ingredient processed: %w", err)
	}
	if exists {
		w.logger.Debug("ingredient already processed",
			"run_id", task.RunID,
			"ingredient", task.IngredientName,
		)
		ingredientsProcessed.WithLabelValues("skipped").Inc()
		return nil
	}

	var tokens tokenCounter

	outcome, err := w.runPipeline(ctx, task, &tokens)
	if err != nil {
		w.logger.Error("ingredient pipeline failed",
			"run_id", task.RunID,
			"ingredient", task.IngredientName,
			"error", err,
		)
		ingredientsProcessed.WithLabelValues("failed").Inc()

		// Каждый обработанный ингредиент обязан попасть либо в
		// results, либо в discounted. Сбой — в discounted с текстом
		// ошибки вместо вердикта модели.
		if saveErr := w.resultRepo.CreateDiscounted(ctx, buildFailureDiscounted(task, err)); saveErr != nil {
			return fmt.Errorf("save failed ingredient as discounted: %w", saveErr)
		}

		w.publishEvent(ctx, &domain.DiagnosisRun{ID: task.RunID, UserID: task.UserID},
			mq.EventIngredientError, errorData{
				Ingredient: task.IngredientName,
				Message:    err.Error(),
			})
	} else {
		ingredientsProcessed.WithLabelValues(outcome).Inc()
	}

	return w.completeIngredient(ctx, task, tokens)
}

// runPipeline выполняет AI-шаги и сохраняет результат.
// Возвращает outcome для метрик: result или discounted.
func (w *Worker) runPipeline(ctx context.Context, task mq.IngredientTaskPayload, tokens *tokenCounter) (string, error) {
	stats := ai.Stats{
		TimesEaten:    task.Stats.TimesEaten,
		TimesFollowed: task.Stats.TimesFollowed,
		Immediate:     task.Stats.Immediate,
		Delayed:       task.Stats.Delayed,
		Cumulative:    task.Stats.Cumulative,
		Confidence:    task.Stats.Confidence,
		Level:         task.Stats.Level,
		Symptoms:      task.Stats.Symptoms,
	}
	statsText := ai.FormatStats(stats)

	// 1. Research
	var research *ai.Research
	err := w.withRetry(ctx, "research", task.IngredientName, func() error {
		var err error
		research, err = w.ai.ResearchIngredient(ctx, task.IngredientName, task.Stats.Symptoms)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("research: %w", err)
	}
	w.logUsage(ctx, task.UserID, research.Usage)
	tokens.add(research.Usage)

	// 2. Classify
	var verdict *ai.Verdict
	err = w.withRetry(ctx, "classify", task.IngredientName, func() error {
		var err error
		verdict, err = w.ai.ClassifyRootCause(ctx, ai.ClassifyInput{
			Ingredient:  task.IngredientName,
			Stats:       statsText,
			Research:    research,
			Confounders: formatConfounders(task.Stats.Confounders),
		})
		return err
	})
	if err != nil {
		return "", fmt.Errorf("classify: %w", err)
	}
	w.logUsage(ctx, task.UserID, verdict.Usage)
	tokens.add(verdict.Usage)

	if !verdict.IsRootCause() {
		discounted := buildDiscounted(task, verdict, research)
		if err := w.resultRepo.CreateDiscounted(ctx, discounted); err != nil {
			return "", fmt.Errorf("save discounted ingredient: %w", err)
		}

		w.logger.Info("ingredient discounted",
			"run_id", task.RunID,
			"ingredient", task.IngredientName,
			"confounded_by", verdict.ConfoundedBy,
		)

		w.publishEvent(ctx, &domain.DiagnosisRun{ID: task.RunID, UserID: task.UserID},
			mq.EventDiscounted, discounted)
		return "discounted", nil
	}

	// 3. Adapt — только для root cause
	var report *ai.Report
	err = w.withRetry(ctx, "adapt", task.IngredientName, func() error {
		var err error
		report, err = w.ai.AdaptReport(ctx, ai.AdaptInput{
			Ingredient:    task.IngredientName,
			Stats:         statsText,
			Research:      research,
			Justification: verdict.Justification,
		})
		return err
	})
	if err != nil {
		return "", fmt.Errorf("adapt: %w", err)
	}
	w.logUsage(ctx, task.UserID, report.Usage)
	tokens.add(report.Usage)

	result := buildResult(task, research, report)
	if err := w.resultRepo.CreateResult(ctx, result); err != nil {
		return "", fmt.Errorf("save result: %w", err)
	}

	w.logger.Info("ingredient confirmed as trigger",
		"run_id", task.RunID,
		"ingredient", task.IngredientName,
		"confidence", result.ConfidenceScore,
		"level", result.ConfidenceLevel,
	)

	w.publishEvent(ctx, &domain.DiagnosisRun{ID: task.RunID, UserID: task.UserID},
		mq.EventResult, result)
	return "result", nil
}

// completeIngredient засчитывает ингредиент и завершает run,
// когда обработаны все.
func (w *Worker) completeIngredient(ctx context.Context, task mq.IngredientTaskPayload, tokens tokenCounter) error {
	completed, total, err := w.runRepo.IncrementCompleted(ctx, task.RunID, tokens.input, tokens.output)
	if err != nil {
		if errors.Is(err, repo.ErrInvalidState) {
			// run уже не processing (failed по таймауту или завершён)
			w.logger.Warn("run no longer processing, ingredient not counted",
				"run_id", task.RunID,
				"ingredient", task.IngredientName,
			)
			return nil
		}
		return fmt.Errorf("increment completed: %w", err)
	}

	run := &domain.DiagnosisRun{ID: task.RunID, UserID: task.UserID}
	w.publishEvent(ctx, run, mq.EventProgress, progressData{
		Completed: completed,
		Total:     total,
	})

	if completed < total {
		return nil
	}

	// Последний ингредиент завершает run
	full, err := w.runRepo.GetByID(ctx, task.RunID)
	if err != nil {
		return fmt.Errorf("load run for completion: %w", err)
	}
	if full.IsFinished() {
		return nil
	}

	full.MarkCompleted()
	if err := w.runRepo.Update(ctx, full); err != nil {
		if errors.Is(err, repo.ErrInvalidState) {
			return nil
		}
		return fmt.Errorf("complete run: %w", err)
	}

	w.logger.Info("run completed",
		"run_id", full.ID,
		"ingredients", full.TotalIngredients,
		"duration", full.Duration(),
	)

	w.publishEvent(ctx, full, mq.EventComplete, completeData{
		SufficientData: full.SufficientData,
		MealsAnalyzed:  full.MealsAnalyzed,
		Episodes:       full.SymptomsAnalyzed,
	})
	return nil
}

// buildResult собирает запись diagnosis_results из задачи и ответов модели.
func buildResult(task mq.IngredientTaskPayload, research *ai.Research, report *ai.Report) *domain.DiagnosisResult {
	result := &domain.DiagnosisResult{
		ID:                      uuid.New(),
		RunID:                   task.RunID,
		IngredientID:            task.IngredientID,
		IngredientName:          task.IngredientName,
		ConfidenceScore:         task.Stats.Confidence,
		ConfidenceLevel:         task.Stats.Level,
		ImmediateCorrelations:   task.Stats.Immediate,
		DelayedCorrelations:     task.Stats.Delayed,
		CumulativeCorrelations:  task.Stats.Cumulative,
		TimesEaten:              task.Stats.TimesEaten,
		TimesFollowedBySymptoms: task.Stats.TimesFollowed,
		AssociatedSymptoms:      task.Stats.Symptoms,
		DiagnosisSummary:        report.Body,
		RecommendationsSummary:  report.Advice,
		ProcessingSuggestions:   report.ProcessingSuggestions,
		AlternativeMeals:        report.AlternativeMeals,
	}

	for _, c := range research.Citations {
		result.Citations = append(result.Citations, domain.Citation{
			ID:       uuid.New(),
			ResultID: result.ID,
			Title:    c.Title,
			URL:      c.URL,
		})
	}

	return result
}

// buildDiscounted собирает запись discounted_ingredients.
func buildDiscounted(task mq.IngredientTaskPayload, verdict *ai.Verdict, research *ai.Research) *domain.DiscountedIngredient {
	d := &domain.DiscountedIngredient{
		ID:                   uuid.New(),
		RunID:                task.RunID,
		IngredientID:         task.IngredientID,
		IngredientName:       task.IngredientName,
		DiscardJustification: verdict.Justification,
		ConfoundedBy:         verdict.ConfoundedBy,
	}
	// Медицинское обоснование вердикта точнее общего research-резюме
	switch {
	case verdict.MedicalReasoning != "":
		d.MedicalGroundingSummary = verdict.MedicalReasoning
	case research != nil:
		d.MedicalGroundingSummary = research.Summary
	}

	// Подтягиваем статистику пары из co-occurrence кандидатов
	for _, c := range task.Stats.Confounders {
		if c.Name == verdict.ConfoundedBy {
			d.ConditionalProbability = c.ConditionalProbability
			d.ReverseProbability = c.ReverseProbability
			d.Lift = c.Lift
			d.CooccurrenceMealsCount = c.CooccurrenceMeals
			break
		}
	}

	return d
}

// buildFailureDiscounted собирает запись discounted_ingredients
// для ингредиента, чей AI-пайплайн исчерпал retry. Статистики пары
// нет: ингредиент не классифицирован, а исключён из-за сбоя.
func buildFailureDiscounted(task mq.IngredientTaskPayload, cause error) *domain.DiscountedIngredient {
	return &domain.DiscountedIngredient{
		ID:                   uuid.New(),
		RunID:                task.RunID,
		IngredientID:         task.IngredientID,
		IngredientName:       task.IngredientName,
		DiscardJustification: fmt.Sprintf("analysis failed: %v", cause),
	}
}

// formatConfounders готовит сводку co-occurrence для промпта.
func formatConfounders(confounders []mq.ConfounderPayload) string {
	if len(confounders) == 0 {
		return ""
	}

	var sb strings.Builder
	for _, c := range confounders {
		fmt.Fprintf(&sb, "- %s: P(together|ingredient)=%.2f, P(ingredient|together)=%.2f, lift=%.1f, %d shared meals\n",
			c.Name, c.ConditionalProbability, c.ReverseProbability, c.Lift, c.CooccurrenceMeals)
	}
	return sb.String()
}

// tokenCounter суммирует расход токенов по шагам пайплайна.
type tokenCounter struct {
	input  int
	output int
}

func (t *tokenCounter) add(u ai.Usage) {
	t.input += u.InputTokens
	t.output += u.OutputTokens
}

// logUsage записывает расход токенов одного вызова. Best effort:
// ошибка учёта не прерывает пайплайн.
func (w *Worker) logUsage(ctx context.Context, userID uuid.UUID, usage ai.Usage) {
	aiCalls.WithLabelValues(usage.PromptName).Inc()

	if w.usageRepo == nil {
		return
	}

	err := w.usageRepo.Create(ctx, &domain.AIUsageLog{
		ID:            uuid.New(),
		UserID:        userID,
		Operation:     usage.PromptName,
		PromptVersion: usage.PromptVersion,
		Model:         usage.Model,
		InputTokens:   usage.InputTokens,
		OutputTokens:  usage.OutputTokens,
		CreatedAt:     time.Now(),
	})
	if err != nil {
		w.logger.Warn("failed to log ai usage", "operation", usage.PromptName, "error", err)
	}
}

// withRetry выполняет AI-шаг с retry и exponential backoff.
// Ретраятся только временные ошибки провайдера и нечитаемые ответы.
func (w *Worker) withRetry(ctx context.Context, step, ingredient string, fn func() error) error {
	var lastErr error

	for attempt := 1; attempt <= w.maxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if !isRetryable(lastErr) {
			return lastErr
		}

		if attempt == w.maxAttempts {
			break
		}

		delay := calculateBackoff(attempt)
		w.logger.Debug("retrying ai step",
			"step", step,
			"ingredient", ingredient,
			"attempt", attempt,
			"delay", delay,
			"error", lastErr,
		)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return fmt.Errorf("%w: %v", ErrRetryExhausted, lastErr)
}

// isRetryable определяет, имеет ли смысл повторять AI-шаг.
func isRetryable(err error) bool {
	return errors.Is(err, ai.ErrRateLimited) ||
		errors.Is(err, ai.ErrServiceUnavailable) ||
		errors.Is(err, ai.ErrBadResponse)
}

// calculateBackoff вычисляет задержку перед retry.
// delay = 1s * 2^(attempt-1), максимум 30 секунд.
func calculateBackoff(attempt int) time.Duration {
	delay := time.Second
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay > 30*time.Second {
			return 30 * time.Second
		}
	}
	return delay
}
