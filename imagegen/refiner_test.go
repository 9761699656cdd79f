package imagegen

import (
	"context"
	"strings"
	"testing"
)

func TestHeuristicRefinerAlwaysProducesPrompt(t *testing.T) {
	r := HeuristicRefiner{}
	tests := []string{
		"Los niños resuelven retos usando números en su pueblo.",
		"The children work together to measure the river.",
		"",
		"el la de en",
	}
	for _, text := range tests {
		got, err := r.Refine(context.Background(), "Misión Matemática", text)
		if err != nil {
			t.Fatalf("Refine(%q): %v", text, err)
		}
		if got == "" {
			t.Fatalf("Refine(%q) returned empty prompt", text)
		}
		if !strings.Contains(got, "--neg") {
			t.Errorf("prompt missing negative cues: %q", got)
		}
	}
}

func TestHeuristicRefinerStripsStopwordsAndDuplicates(t *testing.T) {
	r := HeuristicRefiner{}
	got, err := r.Refine(context.Background(), "", "el río río brilla bajo la luna luna")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(got, "luna") != 1 {
		t.Errorf("expected deduplicated tokens, got %q", got)
	}
	if strings.Contains(got, " el,") || strings.Contains(got, "(el,") {
		t.Errorf("stopword leaked into prompt: %q", got)
	}
}
