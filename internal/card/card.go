// Package card holds the flashcard domain model shared by the voting
// engine, the media lifecycle and the store.
package card

import (
	"fmt"
	"strings"
	"time"
)

// ValidLevels are the six CEFR proficiency levels, in ascending order.
var ValidLevels = []string{"A1", "A2", "B1", "B2", "C1", "C2"}

// IsValidLevel reports whether level is one of the six CEFR codes.
func IsValidLevel(level string) bool {
	for _, l := range ValidLevels {
		if level == l {
			return true
		}
	}
	return false
}

// Vote is a single model's opinion on the CEFR level of a text.
// Votes are immutable once created.
type Vote struct {
	ModelID    string  `json:"model_id"`
	Level      string  `json:"level"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning,omitempty"`
}

// ClassificationResult is the resolved outcome of a voting round. It is
// derived from the votes and never persisted on its own; the confidence
// is a function of vote agreement, not of the models' self-reported
// confidences.
type ClassificationResult struct {
	Level      string  `json:"level"`
	Confidence float64 `json:"confidence"`
	Votes      []Vote  `json:"votes"`
}

// ImageMetadata describes a card's image attachment, either fetched from
// an external search API or uploaded by the user.
type ImageMetadata struct {
	URL             string     `json:"url,omitempty"`
	Source          string     `json:"source"` // "unsplash", "pexels", "pixabay", "upload"
	License         string     `json:"license,omitempty"`
	AttributionText string     `json:"attribution_text,omitempty"`
	CachedPath      string     `json:"cached_path,omitempty"`
	CacheExpiry     *time.Time `json:"cache_expiry,omitempty"`
}

// AudioMetadata holds the reference pronunciation and the user's practice
// recordings. UserRecordings, PhoneticScores and IPATranscriptions are
// strictly parallel: index i of each refers to the same practice attempt.
type AudioMetadata struct {
	ReferenceMP3   string     `json:"reference_mp3,omitempty"`
	ReferenceIPA   string     `json:"reference_ipa,omitempty"`
	Voice          string     `json:"voice,omitempty"`
	AudioExpiresAt *time.Time `json:"audio_expires_at,omitempty"`

	UserRecordings    []string  `json:"user_recordings"`
	PhoneticScores    []float64 `json:"phonetic_scores"`
	IPATranscriptions []string  `json:"ipa_transcriptions"`
}

// AppendRecording records one practice attempt, keeping the three parallel
// sequences aligned. It never overwrites prior attempts.
func (a *AudioMetadata) AppendRecording(path string, score float64, ipa string) {
	a.UserRecordings = append(a.UserRecordings, path)
	a.PhoneticScores = append(a.PhoneticScores, score)
	a.IPATranscriptions = append(a.IPATranscriptions, ipa)
}

// CheckParallel verifies the parallel-sequence invariant.
func (a *AudioMetadata) CheckParallel() error {
	if len(a.UserRecordings) != len(a.PhoneticScores) ||
		len(a.UserRecordings) != len(a.IPATranscriptions) {
		return fmt.Errorf("%w: recordings=%d scores=%d transcriptions=%d",
			ErrInvalidInput, len(a.UserRecordings), len(a.PhoneticScores), len(a.IPATranscriptions))
	}
	return nil
}

// Card is a single flashcard. A card owns at most one image and one audio
// attachment; both are replaced wholesale on regeneration. CEFR fields are
// overwritten, not accumulated, on re-classification.
type Card struct {
	ID       string   `json:"id"`
	DeckID   string   `json:"deck_id,omitempty"`
	Front    string   `json:"front"`
	Back     string   `json:"back"`
	Language string   `json:"language,omitempty"` // ISO 639-1 code of the front side
	Notes    string   `json:"notes,omitempty"`
	Tags     []string `json:"tags,omitempty"`

	CEFRLevel      string  `json:"cefr_level,omitempty"`
	CEFRConfidence float64 `json:"cefr_confidence,omitempty"`
	CEFRVotes      []Vote  `json:"cefr_votes,omitempty"`

	Image *ImageMetadata `json:"image_metadata,omitempty"`
	Audio *AudioMetadata `json:"audio_metadata,omitempty"`

	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`
}

// Validate checks the card's own invariants. The back side may be empty:
// translation is a soft enrichment leg and is backfilled on a later run.
func (c *Card) Validate() error {
	if strings.TrimSpace(c.Front) == "" {
		return fmt.Errorf("%w: card front cannot be empty", ErrInvalidInput)
	}
	if c.CEFRLevel != "" && !IsValidLevel(c.CEFRLevel) {
		return fmt.Errorf("%w: CEFR level must be one of %v", ErrInvalidInput, ValidLevels)
	}
	if c.Audio != nil {
		return c.Audio.CheckParallel()
	}
	return nil
}

// SetClassification overwrites the card's CEFR fields with a new result.
func (c *Card) SetClassification(r *ClassificationResult) {
	c.CEFRLevel = r.Level
	c.CEFRConfidence = r.Confidence
	c.CEFRVotes = append([]Vote(nil), r.Votes...)
}

// Deck is a collection of cards organized by topic.
type Deck struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	Created     time.Time `json:"created"`
}

// Validate checks the deck's own invariants.
func (d *Deck) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("%w: deck name cannot be empty", ErrInvalidInput)
	}
	return nil
}

// IsExpired reports whether metadata with the given expiry is stale as of
// the given instant. A nil expiry never expires. The result is monotonic
// in asOf.
func IsExpired(expiry *time.Time, asOf time.Time) bool {
	if expiry == nil {
		return false
	}
	return asOf.After(*expiry)
}

// IsImageExpired reports whether the card's image attachment is stale.
func (c *Card) IsImageExpired(asOf time.Time) bool {
	if c.Image == nil {
		return false
	}
	return IsExpired(c.Image.CacheExpiry, asOf)
}

// IsAudioExpired reports whether the card's reference audio is stale and
// needs regeneration on next access.
func (c *Card) IsAudioExpired(asOf time.Time) bool {
	if c.Audio == nil {
		return false
	}
	return IsExpired(c.Audio.AudioExpiresAt, asOf)
}
