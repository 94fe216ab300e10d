package audio

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"codeberg.org/feitsma/stapel/internal/card"
)

// espeakVoices maps ISO 639-1 language codes to espeak-ng voice names
var espeakVoices = map[string]string{
	"nl": "nl",
	"en": "en",
	"de": "de",
	"fr": "fr-fr",
	"es": "es",
}

// ESpeakProvider implements Provider interface for espeak-ng
type ESpeakProvider struct {
	espeak *ESpeak
	voices map[string]string
}

// NewESpeakProvider creates a new espeak-ng provider
func NewESpeakProvider(config *ESpeakConfig) (Provider, error) {
	espeak, err := New(config)
	if err != nil {
		return nil, err
	}

	return &ESpeakProvider{
		espeak: espeak,
		voices: espeakVoices,
	}, nil
}

// VoiceFor returns the espeak voice for a language code
func (p *ESpeakProvider) VoiceFor(language string) (string, error) {
	voice, ok := p.voices[language]
	if !ok {
		return "", fmt.Errorf("no espeak voice mapped for language %q: %w",
			language, card.ErrUnsupportedLanguage)
	}
	return voice, nil
}

// GenerateAudio generates audio using espeak-ng
func (p *ESpeakProvider) GenerateAudio(ctx context.Context, text, language, outputFile string) error {
	if err := ValidateText(text); err != nil {
		return err
	}

	voice, err := p.VoiceFor(language)
	if err != nil {
		return err
	}

	// Determine format from output file extension
	ext := strings.ToLower(filepath.Ext(outputFile))

	switch ext {
	case ".mp3":
		return p.espeak.GenerateMP3(text, voice, outputFile)
	case ".wav":
		return p.espeak.GenerateAudio(text, voice, outputFile)
	default:
		// Default to MP3 if extension is unclear
		if !strings.HasSuffix(outputFile, ".mp3") {
			outputFile += ".mp3"
		}
		return p.espeak.GenerateMP3(text, voice, outputFile)
	}
}

// Name returns the provider name
func (p *ESpeakProvider) Name() string {
	return "espeak-ng"
}

// IsAvailable checks if espeak-ng is installed
func (p *ESpeakProvider) IsAvailable() error {
	return checkESpeakInstalled()
}
