package worker

import "errors"

// Ошибки воркера.
var (
	// ErrRunNotFound — run не найден в БД.
	ErrRunNotFound = errors.New("run not found")

	// ErrRunNotPending — run не в статусе pending.
	ErrRunNotPending = errors.New("run is not in pending status")

	// ErrRetryExhausted — все попытки AI-шага исчерпаны.
	ErrRetryExhausted = errors.New("retry attempts exhausted")
)
