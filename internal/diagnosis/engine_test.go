package diagnosis

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/twm105/bloaty-mcbloatface-sub001/internal/domain"
)

// ingredientIDs выдаёт стабильные ID по имени в пределах теста.
type ingredientIDs map[string]uuid.UUID

func (ids ingredientIDs) get(name string) uuid.UUID {
	id, ok := ids[name]
	if !ok {
		id = uuid.New()
		ids[name] = id
	}
	return id
}

func (ids ingredientIDs) mealAt(offset time.Duration, names ...string) domain.Meal {
	meal := domain.Meal{
		ID:      uuid.New(),
		EatenAt: base.Add(offset),
		Status:  domain.MealStatusPublished,
	}
	for _, name := range names {
		meal.Ingredients = append(meal.Ingredients, domain.MealIngredient{
			IngredientID:   ids.get(name),
			IngredientName: name,
		})
	}
	return meal
}

func findStats(t *testing.T, a *Analysis, name string) IngredientStats {
	t.Helper()
	for _, st := range a.Ingredients {
		if st.Name == name {
			return st
		}
	}
	t.Fatalf("ingredient %q not found in analysis", name)
	return IngredientStats{}
}

func TestAnalyze_InsufficientMeals(t *testing.T) {
	ids := ingredientIDs{}
	meals := []domain.Meal{
		ids.mealAt(0, "milk"),
		ids.mealAt(24*time.Hour, "milk"),
	}
	symptoms := []domain.Symptom{
		symptomAt(time.Hour, 5),
		symptomAt(25*time.Hour, 5),
		symptomAt(49*time.Hour, 5),
	}

	a := Analyze(meals, symptoms, Options{})
	if a.Sufficient {
		t.Error("expected Sufficient=false with 2 meals")
	}
	if len(a.Ingredients) != 0 {
		t.Errorf("expected no ingredients, got %d", len(a.Ingredients))
	}
}

func TestAnalyze_InsufficientEpisodes(t *testing.T) {
	ids := ingredientIDs{}
	var meals []domain.Meal
	for day := 0; day < 6; day++ {
		meals = append(meals, ids.mealAt(time.Duration(day)*24*time.Hour, "milk"))
	}
	// три симптома, но в одном 4-часовом окне — один эпизод
	symptoms := []domain.Symptom{
		symptomAt(time.Hour, 5),
		symptomAt(2*time.Hour, 6),
		symptomAt(3*time.Hour, 4),
	}

	a := Analyze(meals, symptoms, Options{})
	if a.Sufficient {
		t.Error("expected Sufficient=false with a single episode")
	}
	if a.Episodes != 1 {
		t.Errorf("Episodes = %d, want 1", a.Episodes)
	}
}

func TestAnalyze_WindowsAndConfidence(t *testing.T) {
	ids := ingredientIDs{}
	var meals []domain.Meal
	for day := 0; day < 3; day++ {
		meals = append(meals, ids.mealAt(time.Duration(day)*24*time.Hour, "milk"))
	}
	for day := 3; day < 6; day++ {
		meals = append(meals, ids.mealAt(time.Duration(day)*24*time.Hour, "milk", "rice"))
	}
	// симптомы через час после первых трёх meals
	symptoms := []domain.Symptom{
		symptomAt(time.Hour, 8),
		symptomAt(25*time.Hour, 8),
		symptomAt(49*time.Hour, 8),
	}

	a := Analyze(meals, symptoms, Options{})
	if !a.Sufficient {
		t.Fatal("expected Sufficient=true")
	}
	if a.Episodes != 3 {
		t.Fatalf("Episodes = %d, want 3", a.Episodes)
	}

	milk := findStats(t, a, "milk")
	if milk.TimesEaten != 6 {
		t.Errorf("milk TimesEaten = %d, want 6", milk.TimesEaten)
	}
	if milk.TimesFollowedBySymptoms != 3 {
		t.Errorf("milk TimesFollowedBySymptoms = %d, want 3", milk.TimesFollowedBySymptoms)
	}
	if milk.Immediate != 3 {
		t.Errorf("milk Immediate = %d, want 3", milk.Immediate)
	}
	if milk.Delayed != 0 {
		t.Errorf("milk Delayed = %d, want 0", milk.Delayed)
	}
	// эпизоды дней 2 и 3 попадают в cumulative-окно meals дней 1 и 2
	if milk.Cumulative != 2 {
		t.Errorf("milk Cumulative = %d, want 2", milk.Cumulative)
	}
	if milk.Level != domain.ConfidenceMedium {
		t.Errorf("milk Level = %s, want medium (confidence %.3f)", milk.Level, milk.Confidence)
	}

	// rice ели только после окончания симптомов
	rice := findStats(t, a, "rice")
	if rice.TimesFollowedBySymptoms != 0 {
		t.Errorf("rice TimesFollowedBySymptoms = %d, want 0", rice.TimesFollowedBySymptoms)
	}
	if rice.Confidence != 0 {
		t.Errorf("rice Confidence = %.3f, want 0", rice.Confidence)
	}

	// сортировка по убыванию confidence
	if a.Ingredients[0].Name != "milk" {
		t.Errorf("first ingredient = %q, want milk", a.Ingredients[0].Name)
	}
}

func TestAnalyze_AssociatedSymptoms(t *testing.T) {
	ids := ingredientIDs{}
	var meals []domain.Meal
	for day := 0; day < 6; day++ {
		meals = append(meals, ids.mealAt(time.Duration(day)*24*time.Hour, "milk"))
	}
	symptoms := []domain.Symptom{
		symptomAt(time.Hour, 8),
		symptomAt(25*time.Hour, 6),
		symptomAt(49*time.Hour, 7),
	}

	a := Analyze(meals, symptoms, Options{})
	milk := findStats(t, a, "milk")
	if len(milk.AssociatedSymptoms) != 1 {
		t.Fatalf("expected 1 associated symptom tag, got %d", len(milk.AssociatedSymptoms))
	}
	as := milk.AssociatedSymptoms[0]
	if as.Name != "bloating" {
		t.Errorf("tag name = %q, want bloating", as.Name)
	}
	if as.Occurrences == 0 {
		t.Error("expected non-zero occurrences")
	}
	if as.AvgSeverity < 6 || as.AvgSeverity > 8 {
		t.Errorf("AvgSeverity = %.2f, want within [6, 8]", as.AvgSeverity)
	}
}

func TestAnalyze_Confounders(t *testing.T) {
	ids := ingredientIDs{}
	var meals []domain.Meal
	// ham и cheese всегда вместе; milk во всех meals
	for day := 0; day < 4; day++ {
		meals = append(meals, ids.mealAt(time.Duration(day)*24*time.Hour, "milk", "ham", "cheese"))
	}
	for day := 4; day < 6; day++ {
		meals = append(meals, ids.mealAt(time.Duration(day)*24*time.Hour, "milk"))
	}
	symptoms := []domain.Symptom{
		symptomAt(time.Hour, 8),
		symptomAt(25*time.Hour, 8),
		symptomAt(49*time.Hour, 8),
	}

	a := Analyze(meals, symptoms, Options{})
	if !a.Sufficient {
		t.Fatal("expected Sufficient=true")
	}

	ham := findStats(t, a, "ham")
	var cheese *Confounder
	for i := range ham.Confounders {
		if ham.Confounders[i].Name == "cheese" {
			cheese = &ham.Confounders[i]
		}
	}
	if cheese == nil {
		t.Fatalf("cheese not among ham confounders: %+v", ham.Confounders)
	}
	if cheese.ConditionalProbability != 1.0 {
		t.Errorf("P(cheese|ham) = %.2f, want 1.0", cheese.ConditionalProbability)
	}
	if cheese.CooccurrenceMeals != 4 {
		t.Errorf("CooccurrenceMeals = %d, want 4", cheese.CooccurrenceMeals)
	}
	if cheese.Lift <= 1.0 {
		t.Errorf("Lift = %.2f, want > 1.0", cheese.Lift)
	}

	// milk ели и без ham: P(milk|ham)=1.0 — milk тоже кандидат,
	// но обратная вероятность ниже
	var milkConf *Confounder
	for i := range ham.Confounders {
		if ham.Confounders[i].Name == "milk" {
			milkConf = &ham.Confounders[i]
		}
	}
	if milkConf == nil {
		t.Fatalf("milk not among ham confounders: %+v", ham.Confounders)
	}
	if milkConf.ReverseProbability >= 1.0 {
		t.Errorf("P(ham|milk) = %.2f, want < 1.0", milkConf.ReverseProbability)
	}
}

func TestConfidence_Bounds(t *testing.T) {
	if got := confidence(&IngredientStats{}); got != 0 {
		t.Errorf("confidence of empty stats = %.3f, want 0", got)
	}

	full := &IngredientStats{
		TimesEaten:              10,
		TimesFollowedBySymptoms: 10,
		Immediate:               10,
		severitySum:             10,
		AssociatedSymptoms: []domain.AssociatedSymptom{
			{Name: "bloating", Occurrences: 10, AvgSeverity: 10},
		},
	}
	if got := confidence(full); got != 1.0 {
		t.Errorf("confidence of saturated stats = %.3f, want 1.0", got)
	}
	if domain.LevelForScore(confidence(full)) != domain.ConfidenceHigh {
		t.Error("saturated stats should be high confidence")
	}

	// редко съеденный ингредиент демпфируется ниже high
	rare := &IngredientStats{
		TimesEaten:              2,
		TimesFollowedBySymptoms: 2,
		Immediate:               2,
		severitySum:             2,
		AssociatedSymptoms: []domain.AssociatedSymptom{
			{Name: "bloating", Occurrences: 2, AvgSeverity: 10},
		},
	}
	if got := confidence(rare); got >= confidence(full) {
		t.Errorf("rare ingredient confidence %.3f should be below saturated %.3f",
			got, confidence(full))
	}
}
