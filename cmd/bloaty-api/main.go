// Bloaty API — HTTP-сервер приложения.
//
// API:
//   - CRUD для meals и symptoms, AI-разбор описаний еды
//   - Запуск diagnosis runs и SSE-стрим их прогресса
//   - Auth (sessions, invites), настройки, feedback, GDPR-выгрузки
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/twm105/bloaty-mcbloatface-sub001/internal/ai"
	"github.com/twm105/bloaty-mcbloatface-sub001/internal/api"
	"github.com/twm105/bloaty-mcbloatface-sub001/internal/mq"
	"github.com/twm105/bloaty-mcbloatface-sub001/internal/repo"
	"github.com/twm105/bloaty-mcbloatface-sub001/internal/sse"
	"github.com/twm105/bloaty-mcbloatface-sub001/internal/telemetry"
)

var (
	startTime = time.Now()
	reqTotal  = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bloaty_api_http_requests_total",
		Help: "Total HTTP requests handled by bloaty_api",
	})
)

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting bloaty-api")

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Подключаемся к базе данных
	pool, err := repo.NewPool(ctx)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("connected to database")

	// Применяем миграции
	if err := repo.Migrate(ctx, pool, logger); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	// Создаём репозитории
	userRepo := repo.NewUserRepo(pool)
	mealRepo := repo.NewMealRepo(pool)
	symptomRepo := repo.NewSymptomRepo(pool)
	runRepo := repo.NewRunRepo(pool)
	resultRepo := repo.NewResultRepo(pool)
	feedbackRepo := repo.NewFeedbackRepo(pool)
	exportRepo := repo.NewExportRepo(pool)
	usageRepo := repo.NewUsageRepo(pool)

	// AI-клиент (опционален: без ключа endpoints разбора вернут 503)
	var aiClient api.AIClient
	if c, err := ai.NewClient(ctx); err != nil {
		logger.Warn("AI client not available, analysis endpoints disabled", "error", err)
	} else {
		aiClient = c
		logger.Info("AI client ready", "model", c.Model())
	}

	// RabbitMQ (опционально: без MQ воркер подхватит runs через polling,
	// а SSE-стрим будет отдавать только терминальные события)
	broker := sse.NewBroker()
	var publisher *mq.Publisher

	mqURL := os.Getenv("RABBITMQ_URL")
	if mqURL == "" {
		mqURL = mq.DefaultURL()
	}

	mqConn, err := mq.NewConnection(mqURL, logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, running without live events", "error", err)
	} else {
		defer mqConn.Close()
		logger.Info("RabbitMQ connected")

		if err := mq.SetupTopology(ctx, mqConn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}

		publisher = mq.NewPublisher(mqConn, logger)

		// Мост fanout-событий воркера в SSE broker
		bridge := sse.NewBridge(mqConn, broker, logger)
		go func() {
			if err := bridge.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Error("sse bridge stopped", "error", err)
			}
		}()
	}

	// Создаём API handler
	handler := api.NewHandler(api.Config{
		UserRepo:     userRepo,
		MealRepo:     mealRepo,
		SymptomRepo:  symptomRepo,
		RunRepo:      runRepo,
		ResultRepo:   resultRepo,
		FeedbackRepo: feedbackRepo,
		ExportRepo:   exportRepo,
		UsageRepo:    usageRepo,
		AI:           aiClient,
		Publisher:    publisher,
		Broker:       broker,
		Logger:       logger,
	})

	mux := http.NewServeMux()

	// Health и metrics
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		reqTotal.Inc()
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %s", time.Since(startTime))
	})
	mux.Handle("/metrics", promhttp.Handler())

	// Регистрируем API маршруты
	handler.RegisterRoutes(mux)

	addr := ":8080"
	if v := os.Getenv("API_PORT"); v != "" {
		addr = ":" + v
	}

	// Создаём HTTP сервер с возможностью graceful shutdown
	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	// Запускаем сервер в горутине
	go func() {
		logger.Info("listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	// Graceful shutdown с таймаутом 10 секунд
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("stopped")
}
