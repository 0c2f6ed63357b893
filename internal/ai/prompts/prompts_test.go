package prompts

import "testing"

func TestGet(t *testing.T) {
	p, err := Get(RootCauseClassify, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Version != 1 {
		t.Errorf("Version = %d, want 1", p.Version)
	}
	if p.Text == "" {
		t.Error("expected non-empty prompt text")
	}
}

func TestGet_LatestVersion(t *testing.T) {
	tests := []struct {
		name string
		want int
	}{
		{MealAnalysis, 4},
		{SymptomClarify, 2},
		{IngredientResearch, 1},
		{RootCauseClassify, 2},
		{ReportAdapt, 1},
	}

	for _, tt := range tests {
		p, err := Get(tt.name, 0)
		if err != nil {
			t.Fatalf("Get(%q, 0): %v", tt.name, err)
		}
		if p.Version != tt.want {
			t.Errorf("latest %s version = %d, want %d", tt.name, p.Version, tt.want)
		}
	}
}

func TestGet_Unknown(t *testing.T) {
	if _, err := Get("no_such_prompt", 0); err == nil {
		t.Error("expected error for unknown prompt name")
	}
	if _, err := Get(MealAnalysis, 99); err == nil {
		t.Error("expected error for unknown version")
	}
}

func TestRegistryComplete(t *testing.T) {
	for name, version := range latest {
		if _, ok := registry[name][version]; !ok {
			t.Errorf("latest version %d of %q missing from registry", version, name)
		}
	}
	for name := range registry {
		if _, ok := latest[name]; !ok {
			t.Errorf("prompt %q has no latest version", name)
		}
	}
}
