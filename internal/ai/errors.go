package ai

import "errors"

// Ошибки уровня AI-клиента. Воркер по ним решает, ретраить ли шаг.
var (
	// ErrRateLimited — провайдер ответил 429. Шаг стоит повторить
	// с бэкоффом.
	ErrRateLimited = errors.New("ai: rate limited")

	// ErrServiceUnavailable — провайдер недоступен (5xx или сеть).
	ErrServiceUnavailable = errors.New("ai: service unavailable")

	// ErrBadResponse — ответ модели не удалось разобрать как JSON
	// ожидаемой формы. Повтор обычно помогает.
	ErrBadResponse = errors.New("ai: malformed model response")
)
