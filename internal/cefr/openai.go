package cefr

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// OpenAIInvoker invokes OpenAI chat models for classification votes.
type OpenAIInvoker struct {
	apiKey string
	client *openai.Client
}

// NewOpenAIInvoker creates an invoker backed by the OpenAI chat API.
func NewOpenAIInvoker(apiKey string) *OpenAIInvoker {
	return &OpenAIInvoker{
		apiKey: apiKey,
		client: openai.NewClient(apiKey),
	}
}

// Invoke sends the classification prompt to an OpenAI chat model.
func (o *OpenAIInvoker) Invoke(ctx context.Context, modelID, prompt string) (string, error) {
	if o.apiKey == "" {
		return "", fmt.Errorf("OpenAI API key not configured")
	}

	req := openai.ChatCompletionRequest{
		Model: modelID,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		// Low temperature for consistent votes across runs.
		Temperature: 0.1,
		MaxTokens:   500,
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from model %s", modelID)
	}

	return resp.Choices[0].Message.Content, nil
}
