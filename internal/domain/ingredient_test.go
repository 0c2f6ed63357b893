package domain

import "testing"

func TestNormalizeIngredientName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Sea Salt", "sea_salt"},
		{"sea-salt", "sea_salt"},
		{"  Olive   Oil ", "olive_oil"},
		{"TOMATO", "tomato"},
		{"extra-virgin olive oil", "extra_virgin_olive_oil"},
		{"", ""},
	}

	for _, c := range cases {
		if got := NormalizeIngredientName(c.in); got != c.want {
			t.Errorf("NormalizeIngredientName(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestSymptomTagValidate(t *testing.T) {
	cases := []struct {
		name    string
		tag     SymptomTag
		wantErr bool
	}{
		{"valid", SymptomTag{Name: "bloating", Severity: 6}, false},
		{"min severity", SymptomTag{Name: "nausea", Severity: 1}, false},
		{"max severity", SymptomTag{Name: "nausea", Severity: 10}, false},
		{"zero severity", SymptomTag{Name: "nausea", Severity: 0}, true},
		{"severity too high", SymptomTag{Name: "nausea", Severity: 11}, true},
		{"empty name", SymptomTag{Name: "", Severity: 5}, true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.tag.Validate()
			if (err != nil) != c.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, c.wantErr)
			}
		})
	}
}
