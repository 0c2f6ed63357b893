package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Расписания фоновых задач (стандартный 5-польный cron, UTC).
const (
	scheduleStaleRuns = "* * * * *"  // каждую минуту
	scheduleExports   = "0 * * * *"  // каждый час
	scheduleUsageLogs = "30 3 * * *" // раз в сутки, ночью

	jobTimeout = 5 * time.Minute
)

// Run регистрирует задачи и блокируется до отмены контекста.
func (s *Scheduler) Run(ctx context.Context) error {
	c := cron.New(cron.WithLocation(time.UTC))

	jobs := []struct {
		name string
		spec string
		fn   func(context.Context) error
	}{
		{"fail_stale_runs", scheduleStaleRuns, s.FailStaleRuns},
		{"expire_exports", scheduleExports, s.ExpireExports},
		{"cleanup_usage_logs", scheduleUsageLogs, s.CleanupUsageLogs},
	}

	for _, job := range jobs {
		_, err := c.AddFunc(job.spec, func() {
			jobCtx, cancel := context.WithTimeout(ctx, jobTimeout)
			defer cancel()

			if err := job.fn(jobCtx); err != nil {
				s.logger.Error("scheduled job failed", "job", job.name, "error", err)
			}
		})
		if err != nil {
			return fmt.Errorf("register job %s: %w", job.name, err)
		}
	}

	s.logger.Info("scheduler started", "jobs", len(jobs))
	c.Start()

	<-ctx.Done()

	// Дожидаемся завершения запущенных задач
	stopCtx := c.Stop()
	<-stopCtx.Done()

	s.logger.Info("scheduler stopped")
	return nil
}
