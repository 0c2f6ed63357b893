package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/twm105/bloaty-mcbloatface-sub001/internal/ai"
	"github.com/twm105/bloaty-mcbloatface-sub001/internal/domain"
	"github.com/twm105/bloaty-mcbloatface-sub001/internal/mq"
	"github.com/twm105/bloaty-mcbloatface-sub001/internal/repo"
)

// Default configuration values.
const (
	defaultPollInterval   = 10 * time.Second
	defaultBatchSize      = 50
	defaultPrefetch       = 5
	defaultMaxAttempts    = 3
	defaultAnalysisWindow = 90 * 24 * time.Hour
)

// AIClient — срез методов ai.Client, которые использует воркер.
// Интерфейс позволяет подменять клиент в тестах.
type AIClient interface {
	Model() string
	ResearchIngredient(ctx context.Context, name string, symptoms []domain.AssociatedSymptom) (*ai.Research, error)
	ClassifyRootCause(ctx context.Context, input ai.ClassifyInput) (*ai.Verdict, error)
	AdaptReport(ctx context.Context, input ai.AdaptInput) (*ai.Report, error)
}

// Worker выполняет diagnosis runs.
//
// Worker — stateless компонент системы, который:
//   - Получает runs и ингредиентные задачи из RabbitMQ (event-driven)
//   - Периодически забирает pending runs из БД (polling fallback)
//   - Считает статистическую корреляцию ингредиентов и симптомов
//   - Прогоняет каждый ингредиент через AI-пайплайн
//     research → classify → adapt с retry и exponential backoff
//   - Публикует события прогресса для SSE
//
// Workers масштабируются горизонтально — несколько экземпляров
// могут потреблять из одной очереди.
type Worker struct {
	// Repositories
	runRepo     *repo.RunRepo
	mealRepo    *repo.MealRepo
	symptomRepo *repo.SymptomRepo
	resultRepo  *repo.ResultRepo
	usageRepo   *repo.UsageRepo

	// AI
	ai AIClient

	// MQ
	publisher *mq.Publisher
	conn      *mq.Connection

	// Consumers
	runConsumer        *mq.Consumer
	ingredientConsumer *mq.Consumer

	// Configuration
	pollInterval   time.Duration
	batchSize      int
	maxAttempts    int
	analysisWindow time.Duration

	// Lifecycle
	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	stopped    bool
	stoppedMu  sync.RWMutex
}

// Config — конфигурация Worker.
type Config struct {
	// Repositories
	RunRepo     *repo.RunRepo
	MealRepo    *repo.MealRepo
	SymptomRepo *repo.SymptomRepo
	ResultRepo  *repo.ResultRepo
	UsageRepo   *repo.UsageRepo

	// AI-клиент (обязателен)
	AI AIClient

	// MQ (опционально; без MQ воркер работает в polling-only режиме)
	Publisher *mq.Publisher
	Conn      *mq.Connection

	// Polling configuration
	PollInterval time.Duration // интервал polling (default: 10s)
	BatchSize    int           // количество runs за один poll (default: 50)

	// MaxAttempts — попытки одного AI-шага (default: 3).
	MaxAttempts int

	// AnalysisWindow — глубина истории для анализа (default: 90 дней).
	AnalysisWindow time.Duration

	// Logger
	Logger *slog.Logger
}

// New создаёт новый Worker.
func New(cfg Config) *Worker {
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	analysisWindow := cfg.AnalysisWindow
	if analysisWindow <= 0 {
		analysisWindow = defaultAnalysisWindow
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Worker{
		runRepo:        cfg.RunRepo,
		mealRepo:       cfg.MealRepo,
		symptomRepo:    cfg.SymptomRepo,
		resultRepo:     cfg.ResultRepo,
		usageRepo:      cfg.UsageRepo,
		ai:             cfg.AI,
		publisher:      cfg.Publisher,
		conn:           cfg.Conn,
		pollInterval:   pollInterval,
		batchSize:      batchSize,
		maxAttempts:    maxAttempts,
		analysisWindow: analysisWindow,
		logger:         logger,
	}
}

// Start запускает Worker.
//
// Запускает:
//   - Consumer для diagnosis.runs
//   - Consumer для diagnosis.ingredients
//   - Polling горутину для fallback
func (w *Worker) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	w.cancelFunc = cancel

	w.logger.Info("starting worker",
		"poll_interval", w.pollInterval,
		"batch_size", w.batchSize,
		"analysis_window", w.analysisWindow,
	)

	if w.conn != nil {
		w.runConsumer = mq.NewConsumer(w.conn, w.logger, mq.ConsumerConfig{
			Queue:    string(mq.QueueDiagnosisRuns),
			Handler:  w.handleRunCreated,
			Prefetch: 1,
		})
		w.ingredientConsumer = mq.NewConsumer(w.conn, w.logger, mq.ConsumerConfig{
			Queue:    string(mq.QueueDiagnosisIngredients),
			Handler:  w.handleIngredientTask,
			Prefetch: defaultPrefetch,
		})

		for _, consumer := range []*mq.Consumer{w.runConsumer, w.ingredientConsumer} {
			w.wg.Add(1)
			go func(c *mq.Consumer) {
				defer w.wg.Done()
				if err := c.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
					w.logger.Error("consumer error", "error", err)
				}
			}(consumer)
		}
	} else {
		w.logger.Warn("no MQ connection, running in polling-only mode")
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.pollLoop(ctx)
	}()

	w.logger.Info("worker started")
	return nil
}

// Stop останавливает Worker.
func (w *Worker) Stop() {
	w.stoppedMu.Lock()
	w.stopped = true
	w.stoppedMu.Unlock()

	w.logger.Info("stopping worker...")

	if w.cancelFunc != nil {
		w.cancelFunc()
	}

	if w.runConsumer != nil {
		w.runConsumer.Stop()
	}
	if w.ingredientConsumer != nil {
		w.ingredientConsumer.Stop()
	}

	w.wg.Wait()

	w.logger.Info("worker stopped")
}

// IsStopped проверяет, остановлен ли Worker.
func (w *Worker) IsStopped() bool {
	w.stoppedMu.RLock()
	defer w.stoppedMu.RUnlock()
	return w.stopped
}

// pollLoop — цикл polling для fallback.
func (w *Worker) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	// Первый poll сразу при старте (подхватываем runs, созданные пока были выключены)
	w.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.poll(ctx)
		}
	}
}

// poll выполняет один цикл polling.
func (w *Worker) poll(ctx context.Context) {
	runs, err := w.runRepo.ClaimPending(ctx, w.batchSize)
	if err != nil {
		w.logger.Error("failed to claim pending runs", "error", err)
		return
	}

	if len(runs) == 0 {
		return
	}

	w.logger.Debug("poll found pending runs", "count", len(runs))

	for i := range runs {
		run := &runs[i]

		if err := w.processRun(ctx, run.ID); err != nil {
			if errors.Is(err, ErrRunNotPending) {
				continue
			}
			w.logger.Error("failed to process run from poll",
				"run_id", run.ID,
				"error", err,
			)
		}
	}
}
