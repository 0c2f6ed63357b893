package domain

import "testing"

func TestRunStatusIsTerminal(t *testing.T) {
	cases := []struct {
		status RunStatus
		want   bool
	}{
		{RunStatusPending, false},
		{RunStatusProcessing, false},
		{RunStatusCompleted, true},
		{RunStatusFailed, true},
	}

	for _, c := range cases {
		if got := c.status.IsTerminal(); got != c.want {
			t.Errorf("%s.IsTerminal() = %v, want %v", c.status, got, c.want)
		}
	}
}

func TestRunMarkTransitions(t *testing.T) {
	run := &DiagnosisRun{Status: RunStatusPending}

	run.MarkProcessing()
	if run.Status != RunStatusProcessing || run.StartedAt == nil {
		t.Errorf("MarkProcessing: status=%s started_at=%v", run.Status, run.StartedAt)
	}

	run.MarkCompleted()
	if run.Status != RunStatusCompleted || run.CompletedAt == nil {
		t.Errorf("MarkCompleted: status=%s completed_at=%v", run.Status, run.CompletedAt)
	}

	failed := &DiagnosisRun{Status: RunStatusProcessing}
	failed.MarkFailed("model unavailable")
	if failed.Status != RunStatusFailed || failed.Error != "model unavailable" {
		t.Errorf("MarkFailed: status=%s error=%q", failed.Status, failed.Error)
	}
}

func TestRunProgress(t *testing.T) {
	run := &DiagnosisRun{TotalIngredients: 4, CompletedIngredients: 1}
	if got := run.Progress(); got != 0.25 {
		t.Errorf("Progress() = %v, want 0.25", got)
	}

	empty := &DiagnosisRun{}
	if got := empty.Progress(); got != 0 {
		t.Errorf("Progress() on empty run = %v, want 0", got)
	}
}

func TestLevelForScore(t *testing.T) {
	cases := []struct {
		score float64
		want  ConfidenceLevel
	}{
		{0.9, ConfidenceHigh},
		{0.7, ConfidenceHigh},
		{0.69, ConfidenceMedium},
		{0.4, ConfidenceMedium},
		{0.39, ConfidenceLow},
		{0.0, ConfidenceLow},
	}

	for _, c := range cases {
		if got := LevelForScore(c.score); got != c.want {
			t.Errorf("LevelForScore(%v) = %s, want %s", c.score, got, c.want)
		}
	}
}
