package diagnosis

import (
	"sort"

	"github.com/google/uuid"

	"github.com/twm105/bloaty-mcbloatface-sub001/internal/domain"
)

// Пороги отбора кандидатов в confounders.
const (
	// ConfounderProbabilityThreshold — минимальная P(B|A),
	// при которой B считается кандидатом для A.
	ConfounderProbabilityThreshold = 0.8

	// ConfounderLiftThreshold — минимальный lift пары.
	ConfounderLiftThreshold = 3.0

	// minCooccurrence — пары, встретившиеся меньше двух раз, не учитываются.
	minCooccurrence = 2

	// maxConfounders — лимит кандидатов на один ингредиент.
	maxConfounders = 10
)

// Confounder — ингредиент, часто встречающийся вместе с анализируемым.
type Confounder struct {
	// Name — нормализованное имя потенциального confounder'а.
	Name string

	// ConditionalProbability — P(confounder | ingredient).
	ConditionalProbability float64

	// ReverseProbability — P(ingredient | confounder).
	ReverseProbability float64

	// Lift — P(A∩B) / (P(A)·P(B)). Значения > 1 означают,
	// что пара встречается чаще, чем при независимости.
	Lift float64

	// CooccurrenceMeals — число meals, где пара встретилась вместе.
	CooccurrenceMeals int
}

// cooccurrence заполняет Confounders для каждого ингредиента.
//
// Кандидат — ингредиент B, для которого P(B|A) > 0.8 или lift > 3.0.
// Кандидаты сортируются по убыванию lift, не больше maxConfounders.
func cooccurrence(meals []domain.Meal, stats map[uuid.UUID]*IngredientStats) {
	totalMeals := len(meals)
	if totalMeals == 0 {
		return
	}

	// Матрица совместной встречаемости по парам
	pairCount := make(map[[2]uuid.UUID]int)
	for mi := range meals {
		ings := meals[mi].Ingredients
		for a := 0; a < len(ings); a++ {
			for b := 0; b < len(ings); b++ {
				if a == b {
					continue
				}
				pairCount[[2]uuid.UUID{ings[a].IngredientID, ings[b].IngredientID}]++
			}
		}
	}

	for aID, aStats := range stats {
		var candidates []Confounder
		for bID, bStats := range stats {
			if aID == bID {
				continue
			}

			together := pairCount[[2]uuid.UUID{aID, bID}]
			if together < minCooccurrence {
				continue
			}

			pBGivenA := float64(together) / float64(aStats.TimesEaten)
			pAGivenB := float64(together) / float64(bStats.TimesEaten)
			pA := float64(aStats.TimesEaten) / float64(totalMeals)
			pB := float64(bStats.TimesEaten) / float64(totalMeals)
			pAB := float64(together) / float64(totalMeals)
			lift := pAB / (pA * pB)

			if pBGivenA <= ConfounderProbabilityThreshold && lift <= ConfounderLiftThreshold {
				continue
			}

			candidates = append(candidates, Confounder{
				Name:                   bStats.Name,
				ConditionalProbability: pBGivenA,
				ReverseProbability:     pAGivenB,
				Lift:                   lift,
				CooccurrenceMeals:      together,
			})
		}

		sort.Slice(candidates, func(i, j int) bool {
			return candidates[i].Lift > candidates[j].Lift
		})
		if len(candidates) > maxConfounders {
			candidates = candidates[:maxConfounders]
		}
		aStats.Confounders = candidates
	}
}
