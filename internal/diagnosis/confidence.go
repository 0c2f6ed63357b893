package diagnosis

import "math"

// Веса компонентов confidence score.
const (
	weightSymptomRate = 0.5
	weightWindow      = 0.3
	weightSeverity    = 0.2

	// dampeningMeals — число приёмов, при котором статистика
	// считается полной (демпфер sqrt(times_eaten/10)).
	dampeningMeals = 10.0
)

// confidence вычисляет score ингредиента [0..1].
//
// Составляющие:
//   - 0.5 · взвешенная по тяжести частота симптомов после приёма
//     (cap 1.0), демпфированная sqrt(times_eaten/10) (cap 1.0) —
//     редко съеденный ингредиент не может дать высокий score;
//   - 0.3 · доля попаданий лучшего временного окна;
//   - 0.2 · средняя тяжесть ассоциированных симптомов / 10.
func confidence(s *IngredientStats) float64 {
	if s.TimesEaten == 0 {
		return 0
	}

	rate := s.severitySum / float64(s.TimesEaten)
	if rate > 1 {
		rate = 1
	}

	damp := math.Sqrt(float64(s.TimesEaten) / dampeningMeals)
	if damp > 1 {
		damp = 1
	}

	window := float64(s.maxWindowHits()) / float64(s.TimesEaten)
	if window > 1 {
		window = 1
	}

	severity := s.avgSeverity() / 10.0

	score := weightSymptomRate*rate*damp + weightWindow*window + weightSeverity*severity
	return clamp01(score)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
