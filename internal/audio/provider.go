package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"codeberg.org/feitsma/stapel/internal/card"
)

// Provider defines the interface for text-to-speech providers
type Provider interface {
	// GenerateAudio generates audio for text in the given language and
	// saves it to the specified file
	GenerateAudio(ctx context.Context, text, language, outputFile string) error

	// VoiceFor returns the voice used for the given language code, or
	// card.ErrUnsupportedLanguage when no voice is mapped for it
	VoiceFor(language string) (string, error)

	// Name returns the provider name
	Name() string

	// IsAvailable checks if the provider is properly configured and available
	IsAvailable() error
}

// VoiceProfile describes how a language should be spoken
type VoiceProfile struct {
	Voice       string // OpenAI voice name
	Instruction string // Voice instructions for gpt-4o-mini-tts
}

// DefaultVoiceProfiles maps ISO 639-1 language codes to voice profiles.
// Languages outside this map are rejected rather than guessed at.
func DefaultVoiceProfiles() map[string]VoiceProfile {
	return map[string]VoiceProfile{
		"nl": {
			Voice:       "alloy",
			Instruction: "You are speaking Dutch (Nederlands). Pronounce the text with authentic Dutch phonetics, not German or Flemish. Speak slowly and clearly for language learners.",
		},
		"en": {
			Voice:       "nova",
			Instruction: "Speak clearly and at a measured pace for language learners.",
		},
		"de": {
			Voice:       "onyx",
			Instruction: "You are speaking German (Deutsch). Pronounce the text with standard Hochdeutsch phonetics. Speak slowly and clearly for language learners.",
		},
		"fr": {
			Voice:       "shimmer",
			Instruction: "You are speaking French (français). Pronounce the text with metropolitan French phonetics. Speak slowly and clearly for language learners.",
		},
		"es": {
			Voice:       "echo",
			Instruction: "You are speaking Spanish (español). Pronounce the text with Castilian phonetics. Speak slowly and clearly for language learners.",
		},
	}
}

// Config holds common configuration for audio providers
type Config struct {
	Provider     string // Provider name: "openai" or "espeak"
	OutputDir    string // Directory for output files
	OutputFormat string // Output format: "mp3" or "wav"

	// Language to voice mapping shared by all providers
	VoiceProfiles map[string]VoiceProfile

	// OpenAI-specific settings
	OpenAIKey   string
	OpenAIModel string  // "tts-1", "tts-1-hd", or "gpt-4o-mini-tts"
	OpenAISpeed float64 // 0.25 to 4.0

	// Local audio cache
	CacheDir    string
	EnableCache bool
}

// DefaultProviderConfig returns default configuration
func DefaultProviderConfig() *Config {
	return &Config{
		Provider:      "openai",
		OutputDir:     "./",
		OutputFormat:  "mp3",
		VoiceProfiles: DefaultVoiceProfiles(),
		OpenAIModel:   "gpt-4o-mini-tts",
		OpenAISpeed:   1.0,
	}
}

// ProfileFor resolves the voice profile for a language code
func (c *Config) ProfileFor(language string) (VoiceProfile, error) {
	profile, ok := c.VoiceProfiles[language]
	if !ok {
		return VoiceProfile{}, fmt.Errorf("no voice mapped for language %q: %w",
			language, card.ErrUnsupportedLanguage)
	}
	return profile, nil
}

// NewProvider creates the appropriate audio provider based on configuration
func NewProvider(config *Config) (Provider, error) {
	if config == nil {
		config = DefaultProviderConfig()
	}
	if config.VoiceProfiles == nil {
		config.VoiceProfiles = DefaultVoiceProfiles()
	}

	switch config.Provider {
	case "openai":
		if config.OpenAIKey == "" {
			return nil, fmt.Errorf("OpenAI API key is required")
		}
		return NewOpenAIProvider(config)

	case "espeak":
		return NewESpeakProvider(nil)

	default:
		return nil, fmt.Errorf("unknown audio provider: %s", config.Provider)
	}
}

// ProviderWithFallback wraps a primary provider with a fallback option
type ProviderWithFallback struct {
	primary  Provider
	fallback Provider
	logger   *slog.Logger
}

// NewProviderWithFallback creates a provider that falls back to secondary if primary fails
func NewProviderWithFallback(primary, fallback Provider) Provider {
	return &ProviderWithFallback{
		primary:  primary,
		fallback: fallback,
		logger:   slog.Default(),
	}
}

// GenerateAudio tries primary provider first, falls back to secondary on error
func (p *ProviderWithFallback) GenerateAudio(ctx context.Context, text, language, outputFile string) error {
	err := p.primary.GenerateAudio(ctx, text, language, outputFile)
	if err != nil {
		// An unmapped language is a configuration problem, not a
		// provider outage, and fails the same way everywhere
		if errors.Is(err, card.ErrUnsupportedLanguage) {
			return err
		}

		p.logger.Warn("primary TTS provider failed, falling back",
			"primary", p.primary.Name(), "fallback", p.fallback.Name(), "error", err)

		return p.fallback.GenerateAudio(ctx, text, language, outputFile)
	}
	return nil
}

// VoiceFor resolves the voice via the primary provider
func (p *ProviderWithFallback) VoiceFor(language string) (string, error) {
	return p.primary.VoiceFor(language)
}

// Name returns the provider name
func (p *ProviderWithFallback) Name() string {
	return fmt.Sprintf("%s (fallback: %s)", p.primary.Name(), p.fallback.Name())
}

// IsAvailable checks if at least one provider is available
func (p *ProviderWithFallback) IsAvailable() error {
	primaryErr := p.primary.IsAvailable()
	if primaryErr == nil {
		return nil
	}

	fallbackErr := p.fallback.IsAvailable()
	if fallbackErr == nil {
		return nil
	}

	return fmt.Errorf("both providers unavailable: primary=%v, fallback=%v",
		primaryErr, fallbackErr)
}
