package domain

import (
	"github.com/google/uuid"
)

// DiagnosisResult — ингредиент, признанный вероятным триггером симптомов.
//
// Для каждого run ингредиент попадает либо в results (root cause),
// либо в discounted_ingredients (корреляция объяснена другим
// ингредиентом) — никогда в оба.
type DiagnosisResult struct {
	// ID — уникальный идентификатор результата.
	ID uuid.UUID `json:"id"`

	// RunID — ссылка на diagnosis run.
	RunID uuid.UUID `json:"run_id"`

	// IngredientID — ингредиент-триггер.
	IngredientID uuid.UUID `json:"ingredient_id"`

	// IngredientName — имя ингредиента (денормализовано для API).
	IngredientName string `json:"ingredient_name,omitempty"`

	// ConfidenceScore — численная уверенность [0..1].
	ConfidenceScore float64 `json:"confidence_score"`

	// ConfidenceLevel — качественный уровень (high/medium/low/insufficient_data).
	ConfidenceLevel ConfidenceLevel `json:"confidence_level"`

	// Корреляции по временным окнам после приёма пищи.
	ImmediateCorrelations  int `json:"immediate_correlations"`  // 0–2 часа
	DelayedCorrelations    int `json:"delayed_correlations"`    // 4–24 часа
	CumulativeCorrelations int `json:"cumulative_correlations"` // 24–168 часов

	// TimesEaten — сколько раз ингредиент встречался в meals.
	TimesEaten int `json:"times_eaten"`

	// TimesFollowedBySymptoms — сколько приёмов сопровождались симптомами.
	TimesFollowedBySymptoms int `json:"times_followed_by_symptoms"`

	// AssociatedSymptoms — симптомы, коррелирующие с ингредиентом.
	AssociatedSymptoms []AssociatedSymptom `json:"associated_symptoms,omitempty"`

	// Человекочитаемые выводы (plain English, пишутся adapt-шагом).
	DiagnosisSummary       string `json:"diagnosis_summary,omitempty"`
	RecommendationsSummary string `json:"recommendations_summary,omitempty"`
	ProcessingSuggestions  string `json:"processing_suggestions,omitempty"`
	AlternativeMeals       string `json:"alternative_meals,omitempty"`

	// Citations — источники медицинских утверждений.
	Citations []Citation `json:"citations,omitempty"`
}

// AssociatedSymptom — симптом, связанный с ингредиентом в результатах.
type AssociatedSymptom struct {
	// Name — название симптома.
	Name string `json:"name"`

	// Occurrences — сколько раз симптом следовал за ингредиентом.
	Occurrences int `json:"occurrences"`

	// AvgSeverity — средняя тяжесть по шкале 1..10.
	AvgSeverity float64 `json:"avg_severity"`
}

// Citation — ссылка на источник медицинского утверждения.
// URL уникален в рамках одного результата.
type Citation struct {
	// ID — уникальный идентификатор citation.
	ID uuid.UUID `json:"id"`

	// ResultID — ссылка на diagnosis result.
	ResultID uuid.UUID `json:"result_id"`

	// Title — заголовок источника.
	Title string `json:"title"`

	// URL — адрес источника.
	URL string `json:"url"`

	// Snippet — цитата из источника.
	Snippet string `json:"snippet,omitempty"`
}

// DiscountedIngredient — ингредиент, исключённый из результатов.
//
// Корреляция ингредиента с симптомами объяснена confounding'ом:
// ингредиент почти всегда встречается вместе с другим (ConfoundedBy),
// который и признан причиной.
type DiscountedIngredient struct {
	// ID — уникальный идентификатор записи.
	ID uuid.UUID `json:"id"`

	// RunID — ссылка на diagnosis run.
	RunID uuid.UUID `json:"run_id"`

	// IngredientID — исключённый ингредиент.
	IngredientID uuid.UUID `json:"ingredient_id"`

	// IngredientName — имя ингредиента (денормализовано для API).
	IngredientName string `json:"ingredient_name,omitempty"`

	// DiscardJustification — обоснование исключения. Всегда непустое.
	DiscardJustification string `json:"discard_justification"`

	// ConfoundedBy — ингредиент, объясняющий корреляцию.
	ConfoundedBy string `json:"confounded_by,omitempty"`

	// ConditionalProbability — P(confounder | ingredient).
	ConditionalProbability float64 `json:"conditional_probability"`

	// ReverseProbability — P(ingredient | confounder).
	ReverseProbability float64 `json:"reverse_probability"`

	// Lift — мера совместной встречаемости относительно независимости.
	Lift float64 `json:"lift"`

	// CooccurrenceMealsCount — число meals, где пара встречалась вместе.
	CooccurrenceMealsCount int `json:"cooccurrence_meals_count"`

	// MedicalGroundingSummary — краткая медицинская справка по ингредиенту.
	MedicalGroundingSummary string `json:"medical_grounding_summary,omitempty"`
}
