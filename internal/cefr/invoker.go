package cefr

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"codeberg.org/feitsma/stapel/internal/card"
)

// Invoker is the uniform capability all voting models conform to: one
// prompt in, one text completion out. Provider differences stay behind
// this interface; the engine never dispatches on provider type.
type Invoker interface {
	// Invoke sends the prompt to the given model and returns its raw
	// text response.
	Invoke(ctx context.Context, modelID, prompt string) (string, error)
}

// InvokerFunc adapts a function to the Invoker interface.
type InvokerFunc func(ctx context.Context, modelID, prompt string) (string, error)

func (f InvokerFunc) Invoke(ctx context.Context, modelID, prompt string) (string, error) {
	return f(ctx, modelID, prompt)
}

const classificationPrompt = `You are a language proficiency assessor. Classify the following text
to a CEFR level (A1, A2, B1, B2, C1 or C2).

Text:
%s
%s
Return a JSON object with this structure:
{"level": "B1", "confidence": 0.8, "reasoning": "short explanation"}

Rules:
- "level" must be exactly one of A1, A2, B1, B2, C1, C2
- "confidence" is 0.0-1.0 based on how certain the classification is
- Judge vocabulary, grammar and idiom complexity, not text length

Return ONLY the JSON, no other text.`

// BuildPrompt renders the classification prompt for a text, optionally
// including a word-frequency hint block.
func BuildPrompt(text, frequencyHint string) string {
	hint := ""
	if frequencyHint != "" {
		hint = "\nWord frequency data (rank 1 = most common):\n" + frequencyHint + "\n"
	}
	return fmt.Sprintf(classificationPrompt, text, hint)
}

// voteResponse is the JSON shape models are instructed to return.
type voteResponse struct {
	Level      string  `json:"level"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// ParseVote parses a model response into a Vote. A level outside the six
// valid CEFR codes is an error for that model, never coerced to the
// nearest valid code.
func ParseVote(modelID, response string) (card.Vote, error) {
	cleaned := strings.TrimSpace(response)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var resp voteResponse
	if err := json.Unmarshal([]byte(cleaned), &resp); err != nil {
		return card.Vote{}, fmt.Errorf("parse vote json: %w (response: %.200s)", err, cleaned)
	}

	level := strings.ToUpper(strings.TrimSpace(resp.Level))
	if !card.IsValidLevel(level) {
		return card.Vote{}, fmt.Errorf("model %s returned invalid level %q", modelID, resp.Level)
	}
	if resp.Confidence < 0 || resp.Confidence > 1 {
		return card.Vote{}, fmt.Errorf("model %s returned confidence %f outside [0,1]", modelID, resp.Confidence)
	}

	return card.Vote{
		ModelID:    modelID,
		Level:      level,
		Confidence: resp.Confidence,
		Reasoning:  strings.TrimSpace(resp.Reasoning),
	}, nil
}
