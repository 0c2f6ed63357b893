package diagnosis

import (
	"sort"

	"github.com/twm105/bloaty-mcbloatface-sub001/internal/domain"
)

// Пороги достаточности данных по умолчанию.
const (
	DefaultMinMeals              = 5
	DefaultMinSymptomOccurrences = 3
)

// Options — настройки анализа.
type Options struct {
	// MinMeals — минимальное число опубликованных meals.
	MinMeals int

	// MinSymptomOccurrences — минимальное число эпизодов симптомов.
	MinSymptomOccurrences int
}

// Analysis — результат статистического анализа.
type Analysis struct {
	// Sufficient — хватило ли данных. При false Ingredients пуст.
	Sufficient bool

	// MealsAnalyzed и SymptomsAnalyzed — размер входа.
	MealsAnalyzed    int
	SymptomsAnalyzed int

	// Episodes — число эпизодов после кластеризации.
	Episodes int

	// Ingredients — статистика по ингредиентам, по убыванию confidence.
	Ingredients []IngredientStats
}

// Analyze выполняет полный статистический анализ.
//
// Symptoms должны быть отсортированы по start_time по возрастанию
// (так их возвращает репозиторий). Черновики meals не должны
// попадать на вход — отбор делает вызывающая сторона.
func Analyze(meals []domain.Meal, symptoms []domain.Symptom, opts Options) *Analysis {
	minMeals := opts.MinMeals
	if minMeals <= 0 {
		minMeals = DefaultMinMeals
	}
	minOccurrences := opts.MinSymptomOccurrences
	if minOccurrences <= 0 {
		minOccurrences = DefaultMinSymptomOccurrences
	}

	episodes := ClusterEpisodes(symptoms)

	analysis := &Analysis{
		MealsAnalyzed:    len(meals),
		SymptomsAnalyzed: len(symptoms),
		Episodes:         len(episodes),
	}

	if len(meals) < minMeals || len(episodes) < minOccurrences {
		analysis.Sufficient = false
		return analysis
	}
	analysis.Sufficient = true

	stats := correlate(meals, episodes)
	cooccurrence(meals, stats)

	for _, st := range stats {
		st.Confidence = confidence(st)
		st.Level = domain.LevelForScore(st.Confidence)
		analysis.Ingredients = append(analysis.Ingredients, *st)
	}

	sort.Slice(analysis.Ingredients, func(i, j int) bool {
		if analysis.Ingredients[i].Confidence != analysis.Ingredients[j].Confidence {
			return analysis.Ingredients[i].Confidence > analysis.Ingredients[j].Confidence
		}
		return analysis.Ingredients[i].Name < analysis.Ingredients[j].Name
	})

	return analysis
}
