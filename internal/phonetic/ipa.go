package phonetic

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// espeakVoices maps ISO 639-1 language codes to espeak-ng voice names
var espeakVoices = map[string]string{
	"nl": "nl",
	"en": "en",
	"de": "de",
	"fr": "fr-fr",
	"es": "es",
}

// ESpeakIPA returns the IPA transcription of a word using espeak-ng
func ESpeakIPA(word, language string) (string, error) {
	voice, ok := espeakVoices[language]
	if !ok {
		return "", fmt.Errorf("no espeak voice for language %q", language)
	}

	cmd := exec.Command("espeak-ng", "-v", voice, "--ipa", "-q", word)
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("espeak-ng failed: %w", err)
	}

	ipa := strings.TrimSpace(string(output))
	if ipa == "" {
		return "", fmt.Errorf("espeak-ng produced no transcription for %q", word)
	}

	return ipa, nil
}

// ReferenceTranscriber produces reference IPA transcriptions, preferring
// local espeak-ng and falling back to OpenAI when it is unavailable
type ReferenceTranscriber struct {
	fetcher *Fetcher
	logger  *slog.Logger
}

// NewReferenceTranscriber creates a transcriber with an OpenAI fallback.
// The fetcher may be nil, in which case only espeak-ng is used.
func NewReferenceTranscriber(fetcher *Fetcher) *ReferenceTranscriber {
	return &ReferenceTranscriber{
		fetcher: fetcher,
		logger:  slog.Default(),
	}
}

// Transcribe returns the IPA transcription for a word
func (t *ReferenceTranscriber) Transcribe(ctx context.Context, word, language string) (string, error) {
	ipa, err := ESpeakIPA(word, language)
	if err == nil {
		return ipa, nil
	}

	if t.fetcher == nil {
		return "", err
	}

	t.logger.Warn("espeak-ng transcription failed, falling back to OpenAI",
		"word", word, "language", language, "error", err)

	return t.fetcher.FetchIPA(ctx, word, language)
}
