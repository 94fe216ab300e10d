// Package enrich manages the media lifecycle of study cards: image
// attachment, audio synthesis with phonetic reference data, pronunciation
// scoring of learner recordings, and regeneration of expired media.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"codeberg.org/feitsma/stapel/internal/audio"
	"codeberg.org/feitsma/stapel/internal/card"
	"codeberg.org/feitsma/stapel/internal/image"
	"codeberg.org/feitsma/stapel/internal/phonetic"
)

// ImageFinder locates and downloads the best image for a search query
type ImageFinder interface {
	DownloadBestMatch(ctx context.Context, opts *image.SearchOptions) (*image.SearchResult, string, error)
}

// IPASource produces a reference IPA transcription for a word
type IPASource interface {
	Transcribe(ctx context.Context, word, language string) (string, error)
}

// CardStore is the subset of the card store the enricher needs for
// media regeneration
type CardStore interface {
	ExpiredAudioCards(ctx context.Context, asOf time.Time) ([]*card.Card, error)
	SaveCard(ctx context.Context, c *card.Card) error
}

// Config holds enrichment settings
type Config struct {
	MediaDir string        // Root directory for downloaded media
	Language string        // Default language for audio synthesis
	ImageTTL time.Duration // Image cache window
	AudioTTL time.Duration // Audio cache window
}

// DefaultConfig returns the standard cache windows
func DefaultConfig() Config {
	return Config{
		MediaDir: "./media",
		Language: "nl",
		ImageTTL: 7 * 24 * time.Hour,
		AudioTTL: 30 * 24 * time.Hour,
	}
}

// RecordingScore is the result of scoring one learner recording
type RecordingScore struct {
	TranscribedText  string
	IPATranscription string
	PhoneticScore    float64
}

// Enricher attaches media to cards and scores learner recordings
type Enricher struct {
	images     ImageFinder
	tts        audio.Provider
	ipa        IPASource
	recognizer phonetic.Recognizer
	config     Config
	logger     *slog.Logger
	now        func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates an Enricher. The image finder, IPA source and recognizer
// may be nil; the corresponding operations then report unavailability.
func New(images ImageFinder, tts audio.Provider, ipa IPASource, recognizer phonetic.Recognizer, config Config, logger *slog.Logger) *Enricher {
	if config.ImageTTL == 0 {
		config.ImageTTL = 7 * 24 * time.Hour
	}
	if config.AudioTTL == 0 {
		config.AudioTTL = 30 * 24 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Enricher{
		images:     images,
		tts:        tts,
		ipa:        ipa,
		recognizer: recognizer,
		config:     config,
		logger:     logger,
		now:        time.Now,
		locks:      make(map[string]*sync.Mutex),
	}
}

// lockFor returns the mutex guarding a single card's media
func (e *Enricher) lockFor(cardID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()

	l, ok := e.locks[cardID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[cardID] = l
	}
	return l
}

// AttachImage searches for an image matching query and attaches it to
// the card. Image attachment is decorative: every failure is logged at
// warning level and leaves the card unchanged. The returned metadata is
// nil when nothing was attached.
func (e *Enricher) AttachImage(ctx context.Context, c *card.Card, query string) *card.ImageMetadata {
	if e.images == nil {
		e.logger.Warn("image attachment skipped, no image provider configured", "card", c.ID)
		return nil
	}

	opts := image.DefaultSearchOptions(query)
	opts.Language = e.config.Language

	result, localPath, err := e.images.DownloadBestMatch(ctx, opts)
	if err != nil {
		e.logger.Warn("image attachment failed",
			"card", c.ID, "query", query, "error", err)
		return nil
	}

	expiry := e.now().Add(e.config.ImageTTL)
	meta := &card.ImageMetadata{
		URL:             result.URL,
		Source:          result.Source,
		License:         result.License,
		AttributionText: result.Attribution,
		CachedPath:      localPath,
		CacheExpiry:     &expiry,
	}

	lock := e.lockFor(c.ID)
	lock.Lock()
	c.Image = meta
	lock.Unlock()

	e.logger.Info("image attached",
		"card", c.ID, "source", result.Source, "path", localPath)

	return meta
}

// AttachAudio synthesizes reference audio for text in the given language
// and attaches it to the card. An unmapped language code is the one
// audio error that propagates; guessing a voice would produce
// wrong-language speech. Any other synthesis failure is logged at
// warning level and leaves the card's prior audio state unchanged.
func (e *Enricher) AttachAudio(ctx context.Context, c *card.Card, text, language string) (*card.AudioMetadata, error) {
	if e.tts == nil {
		e.logger.Warn("audio attachment skipped, no TTS provider configured", "card", c.ID)
		return nil, nil
	}

	voice, err := e.tts.VoiceFor(language)
	if err != nil {
		if errors.Is(err, card.ErrUnsupportedLanguage) {
			return nil, err
		}
		e.logger.Warn("voice lookup failed", "card", c.ID, "language", language, "error", err)
		return nil, nil
	}

	outputFile := filepath.Join(e.config.MediaDir, c.ID, "reference.mp3")

	if err := e.tts.GenerateAudio(ctx, text, language, outputFile); err != nil {
		if errors.Is(err, card.ErrUnsupportedLanguage) {
			return nil, err
		}
		e.logger.Warn("audio synthesis failed",
			"card", c.ID, "language", language, "error", err)
		return nil, nil
	}

	// The reference transcription is useful but not essential; an IPA
	// failure does not discard freshly synthesized audio
	referenceIPA := ""
	if e.ipa != nil {
		referenceIPA, err = e.ipa.Transcribe(ctx, text, language)
		if err != nil {
			e.logger.Warn("reference transcription failed",
				"card", c.ID, "language", language, "error", err)
			referenceIPA = ""
		}
	}

	expiresAt := e.now().Add(e.config.AudioTTL)
	meta := &card.AudioMetadata{
		ReferenceMP3:   outputFile,
		ReferenceIPA:   referenceIPA,
		Voice:          voice,
		AudioExpiresAt: &expiresAt,
	}

	lock := e.lockFor(c.ID)
	lock.Lock()
	if c.Audio != nil {
		// Regeneration keeps earlier practice history
		meta.UserRecordings = c.Audio.UserRecordings
		meta.PhoneticScores = c.Audio.PhoneticScores
		meta.IPATranscriptions = c.Audio.IPATranscriptions
	}
	c.Audio = meta
	lock.Unlock()

	e.logger.Info("audio attached",
		"card", c.ID, "voice", voice, "path", outputFile)

	return meta, nil
}

// ScoreRecording transcribes a learner recording, scores it against the
// card's reference transcription and appends the results to the card's
// practice history. Prior recordings are never overwritten.
func (e *Enricher) ScoreRecording(ctx context.Context, c *card.Card, recordingPath, referenceText string) (*RecordingScore, error) {
	if e.recognizer == nil {
		return nil, fmt.Errorf("no speech recognizer configured")
	}
	if c.Audio == nil {
		return nil, fmt.Errorf("card %s has no audio metadata to score against", c.ID)
	}

	language := e.config.Language
	if c.Language != "" {
		language = c.Language
	}

	transcribed, err := e.recognizer.Recognize(ctx, recordingPath, language)
	if err != nil {
		return nil, fmt.Errorf("recording transcription failed: %w", err)
	}

	spokenIPA := ""
	if e.ipa != nil {
		spokenIPA, err = e.ipa.Transcribe(ctx, transcribed, language)
		if err != nil {
			return nil, fmt.Errorf("spoken transcription failed: %w", err)
		}
	}

	referenceIPA := c.Audio.ReferenceIPA
	if referenceIPA == "" && e.ipa != nil {
		referenceIPA, err = e.ipa.Transcribe(ctx, referenceText, language)
		if err != nil {
			return nil, fmt.Errorf("reference transcription failed: %w", err)
		}
	}

	score := phonetic.Similarity(referenceIPA, spokenIPA)

	lock := e.lockFor(c.ID)
	lock.Lock()
	c.Audio.AppendRecording(recordingPath, score, spokenIPA)
	lock.Unlock()

	e.logger.Info("recording scored",
		"card", c.ID, "recording", recordingPath, "score", score)

	return &RecordingScore{
		TranscribedText:  transcribed,
		IPATranscription: spokenIPA,
		PhoneticScore:    score,
	}, nil
}

// EnrichCard attaches image and audio concurrently and waits for both.
// The card's Front is used as search query and synthesis text.
func (e *Enricher) EnrichCard(ctx context.Context, c *card.Card) error {
	language := e.config.Language
	if c.Language != "" {
		language = c.Language
	}

	var wg sync.WaitGroup
	var audioErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		e.AttachImage(ctx, c, c.Front)
	}()
	go func() {
		defer wg.Done()
		_, audioErr = e.AttachAudio(ctx, c, c.Front, language)
	}()
	wg.Wait()

	return audioErr
}

// RegenerateExpiredAudio re-synthesizes audio for every card whose audio
// has passed its expiry. A failed regeneration leaves the stale audio in
// place. Returns the number of cards refreshed.
func (e *Enricher) RegenerateExpiredAudio(ctx context.Context, store CardStore) (int, error) {
	cards, err := store.ExpiredAudioCards(ctx, e.now())
	if err != nil {
		return 0, fmt.Errorf("failed to list expired audio: %w", err)
	}

	regenerated := 0
	for _, c := range cards {
		language := e.config.Language
		if c.Language != "" {
			language = c.Language
		}

		meta, err := e.AttachAudio(ctx, c, c.Front, language)
		if err != nil {
			e.logger.Warn("audio regeneration failed", "card", c.ID, "error", err)
			continue
		}
		if meta == nil {
			continue
		}

		if err := store.SaveCard(ctx, c); err != nil {
			return regenerated, fmt.Errorf("failed to save card %s: %w", c.ID, err)
		}
		regenerated++
	}

	e.logger.Info("expired audio regenerated",
		"candidates", len(cards), "regenerated", regenerated)

	return regenerated, nil
}
