package cefr

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiInvoker invokes Google Gemini models for classification votes.
// Having a second, independent provider in the ensemble keeps a single
// vendor outage from taking the whole vote down.
type GeminiInvoker struct {
	apiKey string
	client *genai.Client
}

// NewGeminiInvoker creates an invoker backed by the Gemini API.
func NewGeminiInvoker(ctx context.Context, apiKey string) (*GeminiInvoker, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiInvoker{apiKey: apiKey, client: client}, nil
}

// Invoke sends the classification prompt to a Gemini model.
func (g *GeminiInvoker) Invoke(ctx context.Context, modelID, prompt string) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](0.1),
		MaxOutputTokens: 500,
	}

	resp, err := g.client.Models.GenerateContent(ctx, modelID, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("no response from model %s", modelID)
	}
	return text, nil
}
