package cefr

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestParseVote(t *testing.T) {
	tests := []struct {
		name     string
		response string
		wantErr  bool
		level    string
	}{
		{
			name:     "plain json",
			response: `{"level": "B1", "confidence": 0.8, "reasoning": "common vocabulary"}`,
			level:    "B1",
		},
		{
			name:     "markdown fenced",
			response: "```json\n{\"level\": \"C2\", \"confidence\": 0.95}\n```",
			level:    "C2",
		},
		{
			name:     "lowercase level normalized",
			response: `{"level": "b2", "confidence": 0.5}`,
			level:    "B2",
		},
		{
			name:     "surrounding whitespace",
			response: "  \n{\"level\": \"A1\", \"confidence\": 1.0}\n  ",
			level:    "A1",
		},
		{
			name:     "invalid level not coerced",
			response: `{"level": "B3", "confidence": 0.8}`,
			wantErr:  true,
		},
		{
			name:     "level outside scale",
			response: `{"level": "native", "confidence": 0.8}`,
			wantErr:  true,
		},
		{
			name:     "confidence above one",
			response: `{"level": "B1", "confidence": 1.5}`,
			wantErr:  true,
		},
		{
			name:     "not json",
			response: "The text is probably B1 level.",
			wantErr:  true,
		},
		{
			name:     "empty response",
			response: "",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vote, err := ParseVote("test-model", tt.response)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseVote() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr {
				if vote.Level != tt.level {
					t.Errorf("Level = %s, want %s", vote.Level, tt.level)
				}
				if vote.ModelID != "test-model" {
					t.Errorf("ModelID = %s, want test-model", vote.ModelID)
				}
			}
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt("De kat zit op de mat.", "")
	if !strings.Contains(prompt, "De kat zit op de mat.") {
		t.Error("prompt does not contain the text")
	}
	if strings.Contains(prompt, "frequency") {
		t.Error("prompt contains frequency block without a hint")
	}

	withHint := BuildPrompt("huis", "- 'huis': rank 120")
	if !strings.Contains(withHint, "rank 120") {
		t.Error("prompt does not contain the frequency hint")
	}
}

func TestRouter(t *testing.T) {
	calls := make(map[string]int)
	mk := func(name string) Invoker {
		return InvokerFunc(func(ctx context.Context, modelID, prompt string) (string, error) {
			calls[name]++
			return name, nil
		})
	}

	router := NewRouter(mk("fallback"))
	router.Register("gpt-4o", mk("openai"))
	router.Register("gemini-2.0-flash", mk("gemini"))

	ctx := context.Background()
	if got, _ := router.Invoke(ctx, "gpt-4o", "p"); got != "openai" {
		t.Errorf("route gpt-4o -> %s, want openai", got)
	}
	if got, _ := router.Invoke(ctx, "gemini-2.0-flash", "p"); got != "gemini" {
		t.Errorf("route gemini-2.0-flash -> %s, want gemini", got)
	}
	if got, _ := router.Invoke(ctx, "mistral-large", "p"); got != "fallback" {
		t.Errorf("route mistral-large -> %s, want fallback", got)
	}

	bare := NewRouter(nil)
	_, err := bare.Invoke(ctx, "unknown", "p")
	var noRoute *NoRouteError
	if !errors.As(err, &noRoute) {
		t.Errorf("expected NoRouteError, got %v", err)
	}
}

func TestBreakerInvokerOpensAfterConsecutiveFailures(t *testing.T) {
	fail := errors.New("provider down")
	attempts := 0
	breaker := NewBreakerInvoker(InvokerFunc(func(ctx context.Context, modelID, prompt string) (string, error) {
		attempts++
		return "", fail
	}))

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := breaker.Invoke(ctx, "m1", "p"); !errors.Is(err, fail) {
			t.Fatalf("attempt %d: error = %v, want provider error", i, err)
		}
	}

	// Breaker is now open: the underlying invoker must not be called.
	before := attempts
	if _, err := breaker.Invoke(ctx, "m1", "p"); err == nil {
		t.Fatal("expected error from open breaker")
	}
	if attempts != before {
		t.Errorf("open breaker still called the invoker (%d -> %d attempts)", before, attempts)
	}

	// A different model has its own breaker and still goes through.
	if _, err := breaker.Invoke(ctx, "m2", "p"); !errors.Is(err, fail) {
		t.Errorf("independent model error = %v, want provider error", err)
	}
}
