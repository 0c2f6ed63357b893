package domain

import (
	"time"

	"github.com/google/uuid"
)

// Meal — приём пищи, записанный пользователем.
//
// Meal создаётся в статусе draft и публикуется явно.
// Только опубликованные meals участвуют в диагностике.
type Meal struct {
	// ID — уникальный идентификатор meal.
	ID uuid.UUID `json:"id"`

	// UserID — владелец записи.
	UserID uuid.UUID `json:"user_id"`

	// Name — название блюда ("Grilled Chicken Salad").
	Name string `json:"name"`

	// Notes — заметки пользователя о блюде.
	Notes string `json:"notes,omitempty"`

	// Status — draft или published.
	Status MealStatus `json:"status"`

	// EatenAt — время приёма пищи (UTC).
	EatenAt time.Time `json:"eaten_at"`

	// LocalTimezone — таймзона, в которой пользователь записал meal.
	// Используется для группировки истории по локальным датам.
	LocalTimezone string `json:"local_timezone"`

	// Ingredients — состав блюда.
	Ingredients []MealIngredient `json:"ingredients,omitempty"`

	// CreatedAt — время создания записи.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt — время последнего изменения.
	UpdatedAt time.Time `json:"updated_at"`
}

// IsDraft возвращает true для черновика.
func (m *Meal) IsDraft() bool {
	return m.Status == MealStatusDraft
}

// Publish переводит meal из draft в published.
// Переход односторонний.
func (m *Meal) Publish() {
	m.Status = MealStatusPublished
	m.UpdatedAt = time.Now()
}

// MealIngredient — ингредиент в составе конкретного meal.
type MealIngredient struct {
	// ID — уникальный идентификатор записи.
	ID uuid.UUID `json:"id"`

	// MealID — ссылка на meal.
	MealID uuid.UUID `json:"meal_id"`

	// IngredientID — ссылка на нормализованный ингредиент.
	IngredientID uuid.UUID `json:"ingredient_id"`

	// IngredientName — имя ингредиента (денормализовано для удобства API).
	IngredientName string `json:"ingredient_name,omitempty"`

	// State — состояние: raw, cooked, processed.
	State IngredientState `json:"state"`

	// Quantity — количество в свободной форме ("150g", "2 ломтика").
	Quantity string `json:"quantity,omitempty"`

	// AIConfidence — уверенность модели при автоматическом распознавании.
	// Nil, если ингредиент добавлен вручную.
	AIConfidence *float64 `json:"ai_confidence,omitempty"`
}
