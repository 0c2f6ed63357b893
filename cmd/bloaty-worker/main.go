// Bloaty Worker — обрабатывает diagnosis runs.
//
// Worker:
//   - Получает runs и ингредиенты из RabbitMQ (плюс polling fallback)
//   - Считает корреляционную статистику ingredient/symptom
//   - Прогоняет кандидатов через AI-пайплайн research → classify → adapt
//   - Публикует события прогресса для SSE
//
// Workers масштабируются горизонтально.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/twm105/bloaty-mcbloatface-sub001/internal/ai"
	"github.com/twm105/bloaty-mcbloatface-sub001/internal/mq"
	"github.com/twm105/bloaty-mcbloatface-sub001/internal/repo"
	"github.com/twm105/bloaty-mcbloatface-sub001/internal/telemetry"
	"github.com/twm105/bloaty-mcbloatface-sub001/internal/worker"
)

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting bloaty-worker")

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// DB pool
	pool, err := repo.NewPool(ctx)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("database connected")

	// Создаём репозитории
	runRepo := repo.NewRunRepo(pool)
	mealRepo := repo.NewMealRepo(pool)
	symptomRepo := repo.NewSymptomRepo(pool)
	resultRepo := repo.NewResultRepo(pool)
	usageRepo := repo.NewUsageRepo(pool)

	// AI-клиент обязателен: без него пайплайн не работает
	aiClient, err := ai.NewClient(ctx)
	if err != nil {
		logger.Error("failed to create AI client", "error", err)
		os.Exit(1)
	}
	logger.Info("AI client ready", "model", aiClient.Model())

	// RabbitMQ
	var publisher *mq.Publisher
	var mqConn *mq.Connection
	mqURL := os.Getenv("RABBITMQ_URL")
	if mqURL == "" {
		mqURL = mq.DefaultURL()
	}

	mqConn, err = mq.NewConnection(mqURL, logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, running in polling-only mode", "error", err)
		mqConn = nil
	} else {
		defer mqConn.Close()
		logger.Info("RabbitMQ connected")

		// Создаём топологию
		if err := mq.SetupTopology(ctx, mqConn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}

		publisher = mq.NewPublisher(mqConn, logger)
	}

	// Создаём worker
	w := worker.New(worker.Config{
		RunRepo:     runRepo,
		MealRepo:    mealRepo,
		SymptomRepo: symptomRepo,
		ResultRepo:  resultRepo,
		UsageRepo:   usageRepo,
		AI:          aiClient,
		Publisher:   publisher,
		Conn:        mqConn,
		Logger:      logger,
	})

	// Запускаем worker
	if err := w.Start(ctx); err != nil {
		logger.Error("failed to start worker", "error", err)
		os.Exit(1)
	}

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	port := ":8082"
	if v := os.Getenv("WORKER_PORT"); v != "" {
		port = ":" + v
	}

	go func() {
		logger.Info("listening", "addr", port)
		if err := http.ListenAndServe(port, mux); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()

	// Останавливаем worker
	w.Stop()
	logger.Info("bloaty-worker stopped")
}
