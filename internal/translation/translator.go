package translation

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// languageNames maps ISO 639-1 codes to the names used in prompts.
var languageNames = map[string]string{
	"nl": "Dutch",
	"en": "English",
	"de": "German",
	"fr": "French",
	"es": "Spanish",
}

// Translator translates study words to and from English
type Translator struct {
	apiKey   string
	language string
	client   *openai.Client
}

// NewTranslator creates a new translator for the given study language
func NewTranslator(apiKey, language string) *Translator {
	return &Translator{
		apiKey:   apiKey,
		language: language,
		client:   openai.NewClient(apiKey),
	}
}

func (t *Translator) languageName() string {
	if name, ok := languageNames[t.language]; ok {
		return name
	}
	return t.language
}

// TranslateWord translates a study-language word to English
func (t *Translator) TranslateWord(ctx context.Context, word string) (string, error) {
	prompt := fmt.Sprintf("Translate the %s word '%s' to English. Respond with only the English translation, nothing else.", t.languageName(), word)
	return t.complete(ctx, prompt)
}

// TranslateToStudyLanguage translates an English word to the study language
func (t *Translator) TranslateToStudyLanguage(ctx context.Context, word string) (string, error) {
	prompt := fmt.Sprintf("Translate the English word '%s' to %s. Respond with only the %s translation, nothing else.", word, t.languageName(), t.languageName())
	return t.complete(ctx, prompt)
}

func (t *Translator) complete(ctx context.Context, prompt string) (string, error) {
	if t.apiKey == "" {
		return "", fmt.Errorf("OpenAI API key not found")
	}

	req := openai.ChatCompletionRequest{
		Model: openai.GPT4oMini,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   50,
		Temperature: 0.3,
	}

	resp, err := t.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no translation returned")
	}

	translation := strings.TrimSpace(resp.Choices[0].Message.Content)
	return translation, nil
}

// SaveTranslation saves the translation to a file in the word directory
func SaveTranslation(wordDir, word, translation string) error {
	outputFile := filepath.Join(wordDir, word+"_translation.txt")
	content := fmt.Sprintf("%s = %s\n", word, translation)

	if err := os.WriteFile(outputFile, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write translation file: %w", err)
	}

	return nil
}

// TranslationCache stores translations in memory for batch operations
type TranslationCache struct {
	translations map[string]string
}

// NewTranslationCache creates a new translation cache
func NewTranslationCache() *TranslationCache {
	return &TranslationCache{
		translations: make(map[string]string),
	}
}

// Add adds a translation to the cache
func (tc *TranslationCache) Add(word, translation string) {
	tc.translations[word] = translation
}

// Get retrieves a translation from the cache
func (tc *TranslationCache) Get(word string) (string, bool) {
	translation, ok := tc.translations[word]
	return translation, ok
}

// GetAll returns all cached translations
func (tc *TranslationCache) GetAll() map[string]string {
	// Return a copy to prevent external modification
	result := make(map[string]string)
	for k, v := range tc.translations {
		result[k] = v
	}
	return result
}
