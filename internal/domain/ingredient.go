package domain

import (
	"strings"

	"github.com/google/uuid"
)

// Ingredient — нормализованный ингредиент, общий для всех meals.
//
// Два написания одного ингредиента ("Sea Salt", "sea-salt") сводятся
// к одному NormalizedName и одной записи.
type Ingredient struct {
	// ID — уникальный идентификатор ингредиента.
	ID uuid.UUID `json:"id"`

	// Name — имя в исходном написании пользователя.
	Name string `json:"name"`

	// NormalizedName — ключ дедупликации (см. NormalizeIngredientName).
	NormalizedName string `json:"normalized_name"`
}

// NormalizeIngredientName приводит имя ингредиента к каноническому виду:
// нижний регистр, обрезанные пробелы, пробелы и дефисы заменены на "_".
func NormalizeIngredientName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.ReplaceAll(n, "-", " ")
	return strings.Join(strings.Fields(n), "_")
}
