package domain

import (
	"time"

	"github.com/google/uuid"
)

// AIUsageLog — запись о расходе токенов на один вызов модели.
//
// Используется для учёта стоимости и лимитов.
type AIUsageLog struct {
	// ID — уникальный идентификатор записи.
	ID uuid.UUID `json:"id"`

	// UserID — пользователь, от имени которого сделан вызов.
	UserID uuid.UUID `json:"user_id"`

	// Operation — операция: meal_analysis, symptom_clarify,
	// ingredient_research, root_cause_classify, report_adapt.
	// Совпадает с именем использованного промпта.
	Operation string `json:"operation"`

	// PromptVersion — версия промпта, породившего вызов.
	PromptVersion int `json:"prompt_version"`

	// Model — использованная модель.
	Model string `json:"model"`

	// InputTokens — токены запроса.
	InputTokens int `json:"input_tokens"`

	// OutputTokens — токены ответа.
	OutputTokens int `json:"output_tokens"`

	// CreatedAt — время вызова.
	CreatedAt time.Time `json:"created_at"`
}
