package domain

// RunStatus — статус diagnosis run.
//
// Жизненный цикл:
//
//	pending → processing → completed
//	                     ↘ failed
type RunStatus string

const (
	// RunStatusPending — run создан, ожидает обработки воркером.
	RunStatusPending RunStatus = "pending"

	// RunStatusProcessing — run в процессе анализа.
	RunStatusProcessing RunStatus = "processing"

	// RunStatusCompleted — анализ успешно завершён.
	RunStatusCompleted RunStatus = "completed"

	// RunStatusFailed — анализ завершился с ошибкой.
	RunStatusFailed RunStatus = "failed"
)

// IsTerminal возвращает true, если статус финальный (run завершён).
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusCompleted, RunStatusFailed:
		return true
	default:
		return false
	}
}

// MealStatus — статус meal.
//
// Жизненный цикл:
//
//	draft → published
//
// Переход односторонний: опубликованный meal нельзя вернуть в черновик.
// Черновики не участвуют в диагностике.
type MealStatus string

const (
	// MealStatusDraft — черновик, редактируется пользователем.
	MealStatusDraft MealStatus = "draft"

	// MealStatusPublished — опубликован, участвует в анализе.
	MealStatusPublished MealStatus = "published"
)

// ExportStatus — статус выгрузки данных пользователя.
type ExportStatus string

const (
	// ExportStatusPending — выгрузка формируется.
	ExportStatusPending ExportStatus = "pending"

	// ExportStatusReady — выгрузка готова к скачиванию.
	ExportStatusReady ExportStatus = "ready"

	// ExportStatusExpired — срок хранения выгрузки истёк.
	ExportStatusExpired ExportStatus = "expired"
)

// ConfidenceLevel — качественная оценка уверенности для diagnosis result.
type ConfidenceLevel string

const (
	ConfidenceHigh             ConfidenceLevel = "high"
	ConfidenceMedium           ConfidenceLevel = "medium"
	ConfidenceLow              ConfidenceLevel = "low"
	ConfidenceInsufficientData ConfidenceLevel = "insufficient_data"
)

// Пороги для LevelForScore.
const (
	confidenceHighThreshold   = 0.7
	confidenceMediumThreshold = 0.4
)

// LevelForScore переводит численный score [0..1] в качественный уровень.
func LevelForScore(score float64) ConfidenceLevel {
	switch {
	case score >= confidenceHighThreshold:
		return ConfidenceHigh
	case score >= confidenceMediumThreshold:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// IngredientState — состояние ингредиента в блюде.
type IngredientState string

const (
	IngredientStateRaw       IngredientState = "raw"
	IngredientStateCooked    IngredientState = "cooked"
	IngredientStateProcessed IngredientState = "processed"
)

// Valid проверяет, что состояние ингредиента известно.
func (s IngredientState) Valid() bool {
	switch s {
	case IngredientStateRaw, IngredientStateCooked, IngredientStateProcessed:
		return true
	default:
		return false
	}
}

// RiskLevel — уровень риска ингредиента по данным медицинского поиска.
type RiskLevel string

const (
	RiskHigh    RiskLevel = "high_risk"
	RiskLow     RiskLevel = "low_risk"
	RiskUnknown RiskLevel = "no_known_risk"
)

// Valid проверяет, что уровень риска известен.
func (r RiskLevel) Valid() bool {
	switch r {
	case RiskHigh, RiskLow, RiskUnknown:
		return true
	default:
		return false
	}
}
