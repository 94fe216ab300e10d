package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// LoadWordFrequencies bulk-inserts a word frequency table for a language.
// The map holds word to frequency rank, where rank 1 is the most common.
func (s *Store) LoadWordFrequencies(ctx context.Context, language string, ranks map[string]int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin frequency load: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO word_frequency (word, language, rank)
		VALUES (?, ?, ?)
		ON CONFLICT(word) DO UPDATE SET language = excluded.language, rank = excluded.rank
	`)
	if err != nil {
		return fmt.Errorf("prepare frequency insert: %w", err)
	}
	defer stmt.Close()

	for word, rank := range ranks {
		if _, err := stmt.ExecContext(ctx, strings.ToLower(word), language, rank); err != nil {
			return fmt.Errorf("insert frequency for %q: %w", word, err)
		}
	}

	return tx.Commit()
}

// WordRank returns the frequency rank of a word, or 0 when unknown
func (s *Store) WordRank(ctx context.Context, word string) (int, error) {
	var rank int
	err := s.db.QueryRowContext(ctx,
		"SELECT rank FROM word_frequency WHERE word = ?",
		strings.ToLower(strings.TrimSpace(word)),
	).Scan(&rank)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("word rank: %w", err)
	}
	return rank, nil
}

// FrequencyHint renders a short prompt hint describing how common the
// given text's words are. Unknown words yield an empty hint.
func (s *Store) FrequencyHint(text string) string {
	words := strings.Fields(strings.ToLower(text))
	if len(words) == 0 {
		return ""
	}

	best := 0
	for _, w := range words {
		rank, err := s.WordRank(context.Background(), strings.Trim(w, ".,!?;:\"'"))
		if err != nil || rank == 0 {
			continue
		}
		if best == 0 || rank < best {
			best = rank
		}
	}
	if best == 0 {
		return ""
	}

	switch {
	case best <= 1000:
		return fmt.Sprintf("The text contains very common vocabulary (a word ranked #%d by frequency).", best)
	case best <= 5000:
		return fmt.Sprintf("The text contains moderately common vocabulary (a word ranked #%d by frequency).", best)
	default:
		return fmt.Sprintf("The text contains rare vocabulary (a word ranked #%d by frequency).", best)
	}
}
