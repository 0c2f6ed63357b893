// Bloaty Scheduler — фоновые maintenance-задачи:
// таймаут зависших runs, истечение выгрузок, чистка usage-логов.
//
// Допускает несколько экземпляров: задачи выполняет только лидер,
// выбранный через pg_try_advisory_lock.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/twm105/bloaty-mcbloatface-sub001/internal/repo"
	"github.com/twm105/bloaty-mcbloatface-sub001/internal/scheduler"
	"github.com/twm105/bloaty-mcbloatface-sub001/internal/telemetry"
)

const schedLockKey int64 = 310331

func main() {
	logger := telemetry.SetupLogger()
	logger.Info("starting bloaty-scheduler")

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

	staleTimeout := scheduler.DefaultStaleRunTimeout
	if v := os.Getenv("STALE_RUN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			staleTimeout = d
		} else {
			logger.Warn("invalid STALE_RUN_TIMEOUT, using default", "value", v)
		}
	}

	sched := scheduler.New(scheduler.Config{
		RunRepo:         repo.NewRunRepo(pool),
		ExportRepo:      repo.NewExportRepo(pool),
		UsageRepo:       repo.NewUsageRepo(pool),
		Logger:          logger,
		StaleRunTimeout: staleTimeout,
	})

	// Leader election: задачи запускает только держатель advisory lock.
	// Lock живёт в пределах сессии, поэтому соединение забирается из
	// пула и удерживается на весь срок лидерства — иначе lock и unlock
	// могут попасть на разные сессии.
	go func() {
		tk := time.NewTicker(5 * time.Second)
		defer tk.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-tk.C:
			}

			conn, err := pool.Acquire(ctx)
			if err != nil {
				logger.Error("failed to acquire connection for leader election", "error", err)
				continue
			}

			var isLeader bool
			if err := conn.QueryRow(ctx, "select pg_try_advisory_lock($1)", schedLockKey).Scan(&isLeader); err != nil {
				logger.Error("advisory lock failed", "error", err)
				conn.Release()
				continue
			}
			if !isLeader {
				conn.Release()
				continue
			}

			logger.Info("became scheduler leader")

			// Блокируется до отмены контекста
			if err := sched.Run(ctx); err != nil {
				logger.Error("scheduler stopped", "error", err)
			}

			_, _ = conn.Exec(context.Background(), "select pg_advisory_unlock($1)", schedLockKey)
			conn.Release()
			return
		}
	}()

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	port := ":8081"
	if v := os.Getenv("SCHED_PORT"); v != "" {
		port = ":" + v
	}

	go func() {
		logger.Info("listening", "addr", port)
		if err := http.ListenAndServe(port, mux); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("bloaty-scheduler stopped")
}
