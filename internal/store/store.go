// Package store persists decks, cards and supporting lookup tables in a
// local SQLite database.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"codeberg.org/feitsma/stapel/internal/card"
)

//go:embed schema.sql
var schema string

// Store handles database operations
type Store struct {
	db *sql.DB
}

// New creates a new Store with the given database path
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Initialize schema
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateDeck creates a new deck and returns it
func (s *Store) CreateDeck(ctx context.Context, name, description string) (*card.Deck, error) {
	d := &card.Deck{
		ID:          uuid.New().String(),
		Name:        name,
		Description: description,
		Created:     time.Now(),
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}

	tags, err := json.Marshal(d.Tags)
	if err != nil {
		return nil, fmt.Errorf("marshal deck tags: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO decks (id, name, description, tags, created_at) VALUES (?, ?, ?, ?, ?)",
		d.ID, d.Name, d.Description, string(tags), d.Created,
	)
	if err != nil {
		return nil, fmt.Errorf("insert deck: %w", err)
	}

	return d, nil
}

// GetDeck retrieves a deck by ID
func (s *Store) GetDeck(ctx context.Context, id string) (*card.Deck, error) {
	var d card.Deck
	var tags string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, description, tags, created_at FROM decks WHERE id = ?",
		id,
	).Scan(&d.ID, &d.Name, &d.Description, &tags, &d.Created)
	if err != nil {
		return nil, fmt.Errorf("get deck: %w", err)
	}

	if err := json.Unmarshal([]byte(tags), &d.Tags); err != nil {
		return nil, fmt.Errorf("unmarshal deck tags: %w", err)
	}

	return &d, nil
}

// GetDeckByName retrieves a deck by its unique name
func (s *Store) GetDeckByName(ctx context.Context, name string) (*card.Deck, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		"SELECT id FROM decks WHERE name = ?", name,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("get deck by name: %w", err)
	}
	return s.GetDeck(ctx, id)
}

// ListDecks returns all decks ordered by name
func (s *Store) ListDecks(ctx context.Context) ([]card.Deck, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, description, tags, created_at FROM decks ORDER BY name",
	)
	if err != nil {
		return nil, fmt.Errorf("list decks: %w", err)
	}
	defer rows.Close()

	var decks []card.Deck
	for rows.Next() {
		var d card.Deck
		var tags string
		if err := rows.Scan(&d.ID, &d.Name, &d.Description, &tags, &d.Created); err != nil {
			return nil, fmt.Errorf("scan deck: %w", err)
		}
		if err := json.Unmarshal([]byte(tags), &d.Tags); err != nil {
			return nil, fmt.Errorf("unmarshal deck tags: %w", err)
		}
		decks = append(decks, d)
	}

	return decks, rows.Err()
}

// SaveCard inserts or updates a card. New cards without an ID get one.
func (s *Store) SaveCard(ctx context.Context, c *card.Card) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.Created.IsZero() {
		c.Created = time.Now()
	}
	c.Updated = time.Now()

	if err := c.Validate(); err != nil {
		return err
	}

	tags, err := json.Marshal(c.Tags)
	if err != nil {
		return fmt.Errorf("marshal card tags: %w", err)
	}
	votes, err := json.Marshal(c.CEFRVotes)
	if err != nil {
		return fmt.Errorf("marshal votes: %w", err)
	}

	var imageJSON, audioJSON sql.NullString
	if c.Image != nil {
		b, err := json.Marshal(c.Image)
		if err != nil {
			return fmt.Errorf("marshal image metadata: %w", err)
		}
		imageJSON = sql.NullString{String: string(b), Valid: true}
	}
	var audioExpiry sql.NullTime
	if c.Audio != nil {
		b, err := json.Marshal(c.Audio)
		if err != nil {
			return fmt.Errorf("marshal audio metadata: %w", err)
		}
		audioJSON = sql.NullString{String: string(b), Valid: true}
		if c.Audio.AudioExpiresAt != nil {
			audioExpiry = sql.NullTime{Time: *c.Audio.AudioExpiresAt, Valid: true}
		}
	}

	var deckID sql.NullString
	if c.DeckID != "" {
		deckID = sql.NullString{String: c.DeckID, Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO cards (id, deck_id, front, back, language, notes, tags,
			cefr_level, cefr_confidence, cefr_votes,
			image_metadata, audio_metadata, audio_expires_at,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			deck_id = excluded.deck_id,
			front = excluded.front,
			back = excluded.back,
			language = excluded.language,
			notes = excluded.notes,
			tags = excluded.tags,
			cefr_level = excluded.cefr_level,
			cefr_confidence = excluded.cefr_confidence,
			cefr_votes = excluded.cefr_votes,
			image_metadata = excluded.image_metadata,
			audio_metadata = excluded.audio_metadata,
			audio_expires_at = excluded.audio_expires_at,
			updated_at = excluded.updated_at
	`, c.ID, deckID, c.Front, c.Back, c.Language, c.Notes, string(tags),
		c.CEFRLevel, c.CEFRConfidence, string(votes),
		imageJSON, audioJSON, audioExpiry,
		c.Created, c.Updated)
	if err != nil {
		return fmt.Errorf("save card: %w", err)
	}

	return nil
}

// GetCard retrieves a card by ID
func (s *Store) GetCard(ctx context.Context, id string) (*card.Card, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, deck_id, front, back, language, notes, tags,
			cefr_level, cefr_confidence, cefr_votes,
			image_metadata, audio_metadata, created_at, updated_at
		FROM cards WHERE id = ?
	`, id)

	c, err := scanCard(row)
	if err != nil {
		return nil, fmt.Errorf("get card: %w", err)
	}
	return c, nil
}

// ListCards returns all cards in a deck ordered by creation time
func (s *Store) ListCards(ctx context.Context, deckID string) ([]*card.Card, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, deck_id, front, back, language, notes, tags,
			cefr_level, cefr_confidence, cefr_votes,
			image_metadata, audio_metadata, created_at, updated_at
		FROM cards WHERE deck_id = ? ORDER BY created_at
	`, deckID)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	return collectCards(rows)
}

// AllCards returns every card in the database regardless of deck
func (s *Store) AllCards(ctx context.Context) ([]*card.Card, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, deck_id, front, back, language, notes, tags,
			cefr_level, cefr_confidence, cefr_votes,
			image_metadata, audio_metadata, created_at, updated_at
		FROM cards ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("list all cards: %w", err)
	}
	defer rows.Close()

	return collectCards(rows)
}

// DeleteCard removes a card by ID
func (s *Store) DeleteCard(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM cards WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete card: %w", err)
	}
	return nil
}

// ExpiredAudioCards returns all cards whose reference audio expired
// before the given instant
func (s *Store) ExpiredAudioCards(ctx context.Context, asOf time.Time) ([]*card.Card, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, deck_id, front, back, language, notes, tags,
			cefr_level, cefr_confidence, cefr_votes,
			image_metadata, audio_metadata, created_at, updated_at
		FROM cards
		WHERE audio_expires_at IS NOT NULL AND audio_expires_at < ?
		ORDER BY audio_expires_at
	`, asOf)
	if err != nil {
		return nil, fmt.Errorf("list expired audio: %w", err)
	}
	defer rows.Close()

	return collectCards(rows)
}

// scanner covers both sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

func scanCard(row scanner) (*card.Card, error) {
	var c card.Card
	var deckID sql.NullString
	var tags, votes string
	var imageJSON, audioJSON sql.NullString

	err := row.Scan(&c.ID, &deckID, &c.Front, &c.Back, &c.Language, &c.Notes, &tags,
		&c.CEFRLevel, &c.CEFRConfidence, &votes,
		&imageJSON, &audioJSON, &c.Created, &c.Updated)
	if err != nil {
		return nil, err
	}

	c.DeckID = deckID.String

	if err := json.Unmarshal([]byte(tags), &c.Tags); err != nil {
		return nil, fmt.Errorf("unmarshal card tags: %w", err)
	}
	if err := json.Unmarshal([]byte(votes), &c.CEFRVotes); err != nil {
		return nil, fmt.Errorf("unmarshal votes: %w", err)
	}
	if imageJSON.Valid {
		c.Image = &card.ImageMetadata{}
		if err := json.Unmarshal([]byte(imageJSON.String), c.Image); err != nil {
			return nil, fmt.Errorf("unmarshal image metadata: %w", err)
		}
	}
	if audioJSON.Valid {
		c.Audio = &card.AudioMetadata{}
		if err := json.Unmarshal([]byte(audioJSON.String), c.Audio); err != nil {
			return nil, fmt.Errorf("unmarshal audio metadata: %w", err)
		}
	}

	return &c, nil
}

func collectCards(rows *sql.Rows) ([]*card.Card, error) {
	var cards []*card.Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}
