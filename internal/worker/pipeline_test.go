package worker

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/twm105/bloaty-mcbloatface-sub001/internal/ai"
	"github.com/twm105/bloaty-mcbloatface-sub001/internal/diagnosis"
	"github.com/twm105/bloaty-mcbloatface-sub001/internal/domain"
	"github.com/twm105/bloaty-mcbloatface-sub001/internal/mq"
)

func TestCalculateBackoff(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{5, 16 * time.Second},
		{10, 30 * time.Second}, // cap
	}

	for _, tt := range tests {
		if got := calculateBackoff(tt.attempt); got != tt.want {
			t.Errorf("calculateBackoff(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"rate limited", ai.ErrRateLimited, true},
		{"unavailable", ai.ErrServiceUnavailable, true},
		{"bad response", ai.ErrBadResponse, true},
		{"wrapped", errors.Join(errors.New("step"), ai.ErrRateLimited), true},
		{"other", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryable(tt.err); got != tt.want {
				t.Errorf("isRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func sampleTask() mq.IngredientTaskPayload {
	return mq.IngredientTaskPayload{
		RunID:          uuid.New(),
		UserID:         domain.MVPUserID,
		IngredientID:   uuid.New(),
		IngredientName: "milk",
		Stats: mq.IngredientStatsPayload{
			TimesEaten:    6,
			TimesFollowed: 3,
			Immediate:     3,
			Cumulative:    2,
			Confidence:    0.46,
			Level:         domain.ConfidenceMedium,
			Symptoms: []domain.AssociatedSymptom{
				{Name: "bloating", Occurrences: 6, AvgSeverity: 8},
			},
			Confounders: []mq.ConfounderPayload{
				{Name: "cheese", ConditionalProbability: 1.0, ReverseProbability: 0.67, Lift: 1.5, CooccurrenceMeals: 4},
			},
		},
	}
}

func TestBuildResult(t *testing.T) {
	task := sampleTask()
	research := &ai.Research{
		Summary: "lactose intolerance is common",
		Citations: []domain.Citation{
			{Title: "Lactose intolerance", URL: "https://example.org/lactose"},
		},
	}
	report := &ai.Report{
		Title:                 "Milk looks like a trigger",
		Body:                  "Your symptoms often follow milk.",
		Advice:                "Try a dairy-free week.",
		ProcessingSuggestions: "Hard cheeses carry much less lactose than fresh milk.",
		AlternativeMeals:      "Porridge with oat milk instead of dairy.",
	}

	result := buildResult(task, research, report)

	if result.RunID != task.RunID || result.IngredientID != task.IngredientID {
		t.Error("result does not reference task run/ingredient")
	}
	if result.ConfidenceScore != 0.46 || result.ConfidenceLevel != domain.ConfidenceMedium {
		t.Errorf("confidence = %.2f/%s, want 0.46/medium", result.ConfidenceScore, result.ConfidenceLevel)
	}
	if result.DiagnosisSummary != report.Body {
		t.Error("diagnosis summary should come from the adapted report")
	}
	if result.ProcessingSuggestions != report.ProcessingSuggestions {
		t.Error("processing suggestions not carried over from report")
	}
	if result.AlternativeMeals != report.AlternativeMeals {
		t.Error("alternative meals not carried over from report")
	}
	if len(result.Citations) != 1 {
		t.Fatalf("citations = %d, want 1", len(result.Citations))
	}
	if result.Citations[0].ResultID != result.ID {
		t.Error("citation not linked to result")
	}
}

func TestBuildDiscounted(t *testing.T) {
	task := sampleTask()
	verdict := &ai.Verdict{
		Verdict:          "confounded",
		ConfoundedBy:     "cheese",
		Justification:    "milk was always eaten with cheese, a known trigger",
		MedicalReasoning: "cheese contains the same lactose at higher concentration",
	}
	research := &ai.Research{Summary: "no direct mechanism found"}

	d := buildDiscounted(task, verdict, research)

	if d.DiscardJustification == "" {
		t.Fatal("discard justification must be non-empty")
	}
	if d.ConfoundedBy != "cheese" {
		t.Errorf("ConfoundedBy = %q, want cheese", d.ConfoundedBy)
	}
	// статистика пары подтянута из co-occurrence кандидатов
	if d.ConditionalProbability != 1.0 || d.Lift != 1.5 || d.CooccurrenceMealsCount != 4 {
		t.Errorf("pair stats = %.2f/%.1f/%d, want 1.00/1.5/4",
			d.ConditionalProbability, d.Lift, d.CooccurrenceMealsCount)
	}
	if d.MedicalGroundingSummary != verdict.MedicalReasoning {
		t.Error("expected medical reasoning of the verdict carried over")
	}
}

func TestBuildDiscounted_FallsBackToResearchSummary(t *testing.T) {
	task := sampleTask()
	verdict := &ai.Verdict{
		Verdict:       "confounded",
		ConfoundedBy:  "cheese",
		Justification: "explained by cheese",
	}
	research := &ai.Research{Summary: "no direct mechanism found"}

	d := buildDiscounted(task, verdict, research)
	if d.MedicalGroundingSummary != "no direct mechanism found" {
		t.Error("expected research summary when verdict carries no reasoning")
	}
}

func TestBuildFailureDiscounted(t *testing.T) {
	task := sampleTask()

	d := buildFailureDiscounted(task, errors.New("research: retry budget exhausted"))

	if d.RunID != task.RunID || d.IngredientID != task.IngredientID {
		t.Error("failure record does not reference task run/ingredient")
	}
	if !strings.Contains(d.DiscardJustification, "retry budget exhausted") {
		t.Errorf("justification %q does not carry the failure cause", d.DiscardJustification)
	}
	if d.ConfoundedBy != "" {
		t.Error("failed ingredient has no confounder verdict")
	}
	if d.ConditionalProbability != 0 || d.Lift != 0 {
		t.Error("failed ingredient carries no pair statistics")
	}
}

func TestBuildDiscounted_UnknownConfounder(t *testing.T) {
	task := sampleTask()
	verdict := &ai.Verdict{
		Verdict:       "confounded",
		ConfoundedBy:  "bread",
		Justification: "likely explained by bread",
	}

	d := buildDiscounted(task, verdict, nil)
	// модель назвала ингредиент вне co-occurrence списка — статистика пары нулевая
	if d.ConditionalProbability != 0 || d.Lift != 0 {
		t.Errorf("expected zero pair stats, got %.2f/%.1f", d.ConditionalProbability, d.Lift)
	}
}

func TestFormatConfounders(t *testing.T) {
	task := sampleTask()

	got := formatConfounders(task.Stats.Confounders)
	if !strings.Contains(got, "cheese") || !strings.Contains(got, "lift=1.5") {
		t.Errorf("unexpected confounders summary: %q", got)
	}

	if got := formatConfounders(nil); got != "" {
		t.Errorf("expected empty summary for no confounders, got %q", got)
	}
}

func TestIngredientTask(t *testing.T) {
	run := &domain.DiagnosisRun{ID: uuid.New(), UserID: domain.MVPUserID}
	st := &diagnosis.IngredientStats{
		IngredientID:            uuid.New(),
		Name:                    "milk",
		TimesEaten:              6,
		TimesFollowedBySymptoms: 3,
		Immediate:               3,
		Confidence:              0.46,
		Level:                   domain.ConfidenceMedium,
		Confounders: []diagnosis.Confounder{
			{Name: "cheese", Lift: 1.5, CooccurrenceMeals: 4},
		},
	}

	task := ingredientTask(run, st)

	if task.RunID != run.ID || task.UserID != run.UserID {
		t.Error("task does not reference run")
	}
	if task.IngredientName != "milk" || task.Stats.TimesEaten != 6 {
		t.Error("task stats not carried over")
	}
	if len(task.Stats.Confounders) != 1 || task.Stats.Confounders[0].Name != "cheese" {
		t.Error("confounders not carried over")
	}
}
