package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/twm105/bloaty-mcbloatface-sub001/internal/repo"
)

// Дефолты фоновых задач.
const (
	// DefaultStaleRunTimeout — через сколько зависший processing run
	// считается мёртвым и помечается failed.
	DefaultStaleRunTimeout = 30 * time.Minute

	// DefaultUsageRetention — срок хранения логов расхода AI-токенов.
	DefaultUsageRetention = 90 * 24 * time.Hour
)

// Scheduler — фоновые maintenance-задачи.
type Scheduler struct {
	runRepo    *repo.RunRepo
	exportRepo *repo.ExportRepo
	usageRepo  *repo.UsageRepo
	logger     *slog.Logger

	staleRunTimeout time.Duration
	usageRetention  time.Duration
}

// Config — конфигурация Scheduler.
type Config struct {
	RunRepo    *repo.RunRepo
	ExportRepo *repo.ExportRepo
	UsageRepo  *repo.UsageRepo
	Logger     *slog.Logger

	// StaleRunTimeout — таймаут зависших runs (default: 30m).
	StaleRunTimeout time.Duration

	// UsageRetention — срок хранения usage-логов (default: 90 дней).
	UsageRetention time.Duration
}

// New создаёт новый Scheduler.
func New(cfg Config) *Scheduler {
	staleTimeout := cfg.StaleRunTimeout
	if staleTimeout <= 0 {
		staleTimeout = DefaultStaleRunTimeout
	}

	usageRetention := cfg.UsageRetention
	if usageRetention <= 0 {
		usageRetention = DefaultUsageRetention
	}

	return &Scheduler{
		runRepo:         cfg.RunRepo,
		exportRepo:      cfg.ExportRepo,
		usageRepo:       cfg.UsageRepo,
		logger:          cfg.Logger,
		staleRunTimeout: staleTimeout,
		usageRetention:  usageRetention,
	}
}

// FailStaleRuns помечает failed зависшие processing runs.
//
// Run зависает, если воркер умер посреди обработки: сообщения
// потеряны, счётчик completed_ingredients больше не растёт.
// Пользователь после этого может запустить новый run.
func (s *Scheduler) FailStaleRuns(ctx context.Context) error {
	cutoff := time.Now().Add(-s.staleRunTimeout)

	count, err := s.runRepo.FailStale(ctx, cutoff, "diagnosis timed out")
	if err != nil {
		return fmt.Errorf("fail stale runs: %w", err)
	}

	if count > 0 {
		s.logger.Warn("failed stale diagnosis runs", "count", count, "timeout", s.staleRunTimeout)
	}
	return nil
}

// ExpireExports помечает expired выгрузки с истёкшим сроком
// и освобождает их payload.
func (s *Scheduler) ExpireExports(ctx context.Context) error {
	count, err := s.exportRepo.ExpireOlderThan(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("expire exports: %w", err)
	}

	if count > 0 {
		s.logger.Info("expired data exports", "count", count)
	}
	return nil
}

// CleanupUsageLogs удаляет usage-логи старше срока хранения.
func (s *Scheduler) CleanupUsageLogs(ctx context.Context) error {
	cutoff := time.Now().Add(-s.usageRetention)

	count, err := s.usageRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("cleanup usage logs: %w", err)
	}

	if count > 0 {
		s.logger.Info("deleted old ai usage logs", "count", count, "retention", s.usageRetention)
	}
	return nil
}
