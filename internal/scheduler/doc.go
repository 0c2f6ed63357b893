// Package scheduler реализует фоновые maintenance-задачи.
//
// Задачи:
//   - FailStaleRuns     — помечает failed зависшие diagnosis runs
//   - ExpireExports     — истекает старые GDPR-выгрузки
//   - CleanupUsageLogs  — удаляет старые логи расхода AI-токенов
//
// Структура:
//   - scheduler.go — логика задач
//   - cron.go      — регистрация задач в cron и жизненный цикл
//
// Использование:
//
//	sched := scheduler.New(scheduler.Config{
//	    RunRepo:    runRepo,
//	    ExportRepo: exportRepo,
//	    UsageRepo:  usageRepo,
//	    Logger:     logger,
//	})
//
//	// Блокируется до отмены контекста
//	if err := sched.Run(ctx); err != nil {
//	    logger.Error("scheduler failed", "error", err)
//	}
//
// Leader Election:
//
// Scheduler не реализует leader election самостоятельно.
// Это делается в main.go через pg_try_advisory_lock:
// Run() вызывается только лидером.
package scheduler
