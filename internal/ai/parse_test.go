package ai

import (
	"errors"
	"testing"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{
			name: "bare object",
			raw:  `{"verdict":"confounded"}`,
			want: `{"verdict":"confounded"}`,
		},
		{
			name: "json fence",
			raw:  "```json\n{\"verdict\":\"root_cause\"}\n```",
			want: `{"verdict":"root_cause"}`,
		},
		{
			name: "plain fence",
			raw:  "```\n{\"done\":true}\n```",
			want: `{"done":true}`,
		},
		{
			name: "surrounding prose",
			raw:  "Here is the result:\n{\"summary\":\"ok\"}\nHope this helps.",
			want: `{"summary":"ok"}`,
		},
		{
			name:    "no object",
			raw:     "I cannot answer that.",
			wantErr: true,
		},
		{
			name:    "empty",
			raw:     "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrBadResponse) {
					t.Fatalf("expected ErrBadResponse, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ExtractJSON() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodeResponse(t *testing.T) {
	var out struct {
		Done bool `json:"done"`
	}
	if err := decodeResponse("```json\n{\"done\": true}\n```", &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Done {
		t.Error("expected done=true")
	}

	if err := decodeResponse(`{"done": "not-a-bool"}`, &out); !errors.Is(err, ErrBadResponse) {
		t.Errorf("expected ErrBadResponse for type mismatch, got %v", err)
	}
}
