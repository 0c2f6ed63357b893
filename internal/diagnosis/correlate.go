package diagnosis

import (
	"time"

	"github.com/google/uuid"

	"github.com/twm105/bloaty-mcbloatface-sub001/internal/domain"
)

// Временные окна корреляции после приёма пищи.
const (
	ImmediateWindowStart = 0
	ImmediateWindowEnd   = 2 * time.Hour

	DelayedWindowStart = 4 * time.Hour
	DelayedWindowEnd   = 24 * time.Hour

	CumulativeWindowStart = 24 * time.Hour
	CumulativeWindowEnd   = 168 * time.Hour
)

// IngredientStats — статистика одного ингредиента по истории питания.
type IngredientStats struct {
	// IngredientID и Name идентифицируют ингредиент.
	IngredientID uuid.UUID
	Name         string

	// TimesEaten — число meals с этим ингредиентом.
	TimesEaten int

	// TimesFollowedBySymptoms — число приёмов, за которыми в любом
	// из окон следовал эпизод симптомов.
	TimesFollowedBySymptoms int

	// Попадания по окнам. Один приём может попасть в несколько окон.
	Immediate  int
	Delayed    int
	Cumulative int

	// severitySum — сумма (max severity эпизода / 10) по приёмам
	// с симптомами; используется в confidence.
	severitySum float64

	// AssociatedSymptoms — симптомы, следовавшие за ингредиентом.
	AssociatedSymptoms []domain.AssociatedSymptom

	// Confidence и Level заполняются на финальном шаге Analyze.
	Confidence float64
	Level      domain.ConfidenceLevel

	// Confounders — кандидаты, объясняющие корреляцию (cooccurrence.go).
	Confounders []Confounder
}

// correlate подсчитывает статистику всех ингредиентов
// по опубликованным meals и эпизодам симптомов.
func correlate(meals []domain.Meal, episodes []Episode) map[uuid.UUID]*IngredientStats {
	stats := make(map[uuid.UUID]*IngredientStats)
	// аккумулятор по тегам: имя → (occurrences, severity sum)
	type tagAcc struct {
		occurrences int
		severitySum int
	}
	tagsByIngredient := make(map[uuid.UUID]map[string]*tagAcc)

	for mi := range meals {
		meal := &meals[mi]

		// Эпизоды, попавшие в окна этого meal
		var matched []*Episode
		bestWindowHit := struct{ immediate, delayed, cumulative bool }{}
		for ei := range episodes {
			ep := &episodes[ei]
			lag := ep.Start.Sub(meal.EatenAt)
			switch {
			case lag >= ImmediateWindowStart && lag <= ImmediateWindowEnd:
				bestWindowHit.immediate = true
			case lag >= DelayedWindowStart && lag <= DelayedWindowEnd:
				bestWindowHit.delayed = true
			case lag >= CumulativeWindowStart && lag <= CumulativeWindowEnd:
				bestWindowHit.cumulative = true
			default:
				continue
			}
			matched = append(matched, ep)
		}

		maxSeverity := 0
		for _, ep := range matched {
			if s := ep.MaxSeverity(); s > maxSeverity {
				maxSeverity = s
			}
		}

		for ii := range meal.Ingredients {
			ing := &meal.Ingredients[ii]
			st, ok := stats[ing.IngredientID]
			if !ok {
				st = &IngredientStats{IngredientID: ing.IngredientID, Name: ing.IngredientName}
				stats[ing.IngredientID] = st
				tagsByIngredient[ing.IngredientID] = make(map[string]*tagAcc)
			}
			st.TimesEaten++

			if len(matched) == 0 {
				continue
			}

			st.TimesFollowedBySymptoms++
			st.severitySum += float64(maxSeverity) / 10.0
			if bestWindowHit.immediate {
				st.Immediate++
			}
			if bestWindowHit.delayed {
				st.Delayed++
			}
			if bestWindowHit.cumulative {
				st.Cumulative++
			}

			acc := tagsByIngredient[ing.IngredientID]
			for _, ep := range matched {
				for _, tag := range ep.Tags() {
					a, ok := acc[tag.Name]
					if !ok {
						a = &tagAcc{}
						acc[tag.Name] = a
					}
					a.occurrences++
					a.severitySum += tag.Severity
				}
			}
		}
	}

	// Сворачиваем аккумуляторы тегов в AssociatedSymptoms
	for id, st := range stats {
		for name, a := range tagsByIngredient[id] {
			st.AssociatedSymptoms = append(st.AssociatedSymptoms, domain.AssociatedSymptom{
				Name:        name,
				Occurrences: a.occurrences,
				AvgSeverity: float64(a.severitySum) / float64(a.occurrences),
			})
		}
	}

	return stats
}

// maxWindowHits возвращает максимальное число попаданий среди трёх окон.
func (s *IngredientStats) maxWindowHits() int {
	max := s.Immediate
	if s.Delayed > max {
		max = s.Delayed
	}
	if s.Cumulative > max {
		max = s.Cumulative
	}
	return max
}

// avgSeverity возвращает среднюю тяжесть ассоциированных симптомов (0..10).
func (s *IngredientStats) avgSeverity() float64 {
	if len(s.AssociatedSymptoms) == 0 {
		return 0
	}
	var sum float64
	for _, as := range s.AssociatedSymptoms {
		sum += as.AvgSeverity
	}
	return sum / float64(len(s.AssociatedSymptoms))
}
