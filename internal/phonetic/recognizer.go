package phonetic

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// Recognizer transcribes recorded speech to text
type Recognizer interface {
	Recognize(ctx context.Context, audioPath, language string) (string, error)
}

// WhisperRecognizer implements Recognizer using OpenAI Whisper
type WhisperRecognizer struct {
	client *openai.Client
}

// NewWhisperRecognizer creates a Whisper-backed speech recognizer
func NewWhisperRecognizer(apiKey string) (*WhisperRecognizer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	return &WhisperRecognizer{client: openai.NewClient(apiKey)}, nil
}

// Recognize transcribes the audio file at audioPath
func (r *WhisperRecognizer) Recognize(ctx context.Context, audioPath, language string) (string, error) {
	req := openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: audioPath,
		Language: language,
	}

	resp, err := r.client.CreateTranscription(ctx, req)
	if err != nil {
		return "", fmt.Errorf("Whisper transcription failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", fmt.Errorf("Whisper returned empty transcription for %s", audioPath)
	}

	return text, nil
}
