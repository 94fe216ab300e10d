package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"codeberg.org/feitsma/stapel/internal/card"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateAndGetDeck(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	deck, err := s.CreateDeck(ctx, "Dutch basics", "starter vocabulary")
	if err != nil {
		t.Fatalf("CreateDeck() failed: %v", err)
	}
	if deck.ID == "" {
		t.Error("deck ID not assigned")
	}

	got, err := s.GetDeck(ctx, deck.ID)
	if err != nil {
		t.Fatalf("GetDeck() failed: %v", err)
	}
	if got.Name != "Dutch basics" {
		t.Errorf("deck name = %q, want %q", got.Name, "Dutch basics")
	}

	byName, err := s.GetDeckByName(ctx, "Dutch basics")
	if err != nil {
		t.Fatalf("GetDeckByName() failed: %v", err)
	}
	if byName.ID != deck.ID {
		t.Errorf("GetDeckByName() ID = %q, want %q", byName.ID, deck.ID)
	}
}

func TestCreateDeckEmptyName(t *testing.T) {
	s := newTestStore(t)

	_, err := s.CreateDeck(context.Background(), "  ", "")
	if err == nil {
		t.Error("expected error for empty deck name")
	}
}

func TestSaveAndGetCard(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	deck, err := s.CreateDeck(ctx, "Dutch basics", "")
	if err != nil {
		t.Fatalf("CreateDeck() failed: %v", err)
	}

	expiry := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	c := &card.Card{
		DeckID:   deck.ID,
		Front:    "fiets",
		Back:     "bicycle",
		Language: "nl",
		Tags:     []string{"transport"},

		CEFRLevel:      "A1",
		CEFRConfidence: 0.667,
		CEFRVotes: []card.Vote{
			{ModelID: "gpt-4o", Level: "A1", Confidence: 0.9},
			{ModelID: "gpt-4o-mini", Level: "A1", Confidence: 0.7},
			{ModelID: "gemini-2.0-flash", Level: "A2", Confidence: 0.8},
		},
		Image: &card.ImageMetadata{
			URL:    "https://example.com/fiets.jpg",
			Source: "unsplash",
		},
		Audio: &card.AudioMetadata{
			ReferenceMP3:   "/media/c1/reference.mp3",
			ReferenceIPA:   "fits",
			Voice:          "alloy",
			AudioExpiresAt: &expiry,
		},
	}

	if err := s.SaveCard(ctx, c); err != nil {
		t.Fatalf("SaveCard() failed: %v", err)
	}
	if c.ID == "" {
		t.Fatal("card ID not assigned")
	}

	got, err := s.GetCard(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetCard() failed: %v", err)
	}

	if got.Front != "fiets" || got.Back != "bicycle" {
		t.Errorf("card content = %q/%q", got.Front, got.Back)
	}
	if got.CEFRLevel != "A1" {
		t.Errorf("CEFR level = %q, want A1", got.CEFRLevel)
	}
	if len(got.CEFRVotes) != 3 {
		t.Errorf("votes = %d, want 3", len(got.CEFRVotes))
	}
	if got.Image == nil || got.Image.Source != "unsplash" {
		t.Error("image metadata not round-tripped")
	}
	if got.Audio == nil || got.Audio.Voice != "alloy" {
		t.Error("audio metadata not round-tripped")
	}
	if got.Audio.AudioExpiresAt == nil || !got.Audio.AudioExpiresAt.Equal(expiry) {
		t.Error("audio expiry not round-tripped")
	}
}

func TestSaveCardUpdate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := &card.Card{Front: "fiets", Back: "bicycle"}
	if err := s.SaveCard(ctx, c); err != nil {
		t.Fatalf("SaveCard() failed: %v", err)
	}

	c.CEFRLevel = "B1"
	if err := s.SaveCard(ctx, c); err != nil {
		t.Fatalf("SaveCard() update failed: %v", err)
	}

	got, err := s.GetCard(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetCard() failed: %v", err)
	}
	if got.CEFRLevel != "B1" {
		t.Errorf("updated CEFR level = %q, want B1", got.CEFRLevel)
	}
}

func TestSaveCardInvalid(t *testing.T) {
	s := newTestStore(t)

	c := &card.Card{Front: "", Back: "bicycle"}
	if err := s.SaveCard(context.Background(), c); err == nil {
		t.Error("expected validation error for empty front")
	}
}

func TestListCards(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	deck, _ := s.CreateDeck(ctx, "Dutch basics", "")
	for _, front := range []string{"fiets", "huis", "sneeuw"} {
		c := &card.Card{DeckID: deck.ID, Front: front, Back: "x"}
		if err := s.SaveCard(ctx, c); err != nil {
			t.Fatalf("SaveCard(%s) failed: %v", front, err)
		}
	}

	cards, err := s.ListCards(ctx, deck.ID)
	if err != nil {
		t.Fatalf("ListCards() failed: %v", err)
	}
	if len(cards) != 3 {
		t.Errorf("listed %d cards, want 3", len(cards))
	}
}

func TestAllCards(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	deck, _ := s.CreateDeck(ctx, "Dutch basics", "")
	inDeck := &card.Card{DeckID: deck.ID, Front: "fiets", Back: "bicycle"}
	if err := s.SaveCard(ctx, inDeck); err != nil {
		t.Fatalf("SaveCard() failed: %v", err)
	}
	loose := &card.Card{Front: "huis", Back: "house"}
	if err := s.SaveCard(ctx, loose); err != nil {
		t.Fatalf("SaveCard() failed: %v", err)
	}

	cards, err := s.AllCards(ctx)
	if err != nil {
		t.Fatalf("AllCards() failed: %v", err)
	}
	if len(cards) != 2 {
		t.Errorf("listed %d cards, want 2", len(cards))
	}
}

func TestDeleteCard(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := &card.Card{Front: "fiets", Back: "bicycle"}
	if err := s.SaveCard(ctx, c); err != nil {
		t.Fatalf("SaveCard() failed: %v", err)
	}

	if err := s.DeleteCard(ctx, c.ID); err != nil {
		t.Fatalf("DeleteCard() failed: %v", err)
	}

	if _, err := s.GetCard(ctx, c.ID); err == nil {
		t.Error("expected error getting deleted card")
	}
}

func TestExpiredAudioCards(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	expired := &card.Card{Front: "fiets", Back: "bicycle",
		Audio: &card.AudioMetadata{AudioExpiresAt: &past}}
	fresh := &card.Card{Front: "huis", Back: "house",
		Audio: &card.AudioMetadata{AudioExpiresAt: &future}}
	never := &card.Card{Front: "sneeuw", Back: "snow",
		Audio: &card.AudioMetadata{}}
	noAudio := &card.Card{Front: "kat", Back: "cat"}

	for _, c := range []*card.Card{expired, fresh, never, noAudio} {
		if err := s.SaveCard(ctx, c); err != nil {
			t.Fatalf("SaveCard(%s) failed: %v", c.Front, err)
		}
	}

	cards, err := s.ExpiredAudioCards(ctx, now)
	if err != nil {
		t.Fatalf("ExpiredAudioCards() failed: %v", err)
	}
	if len(cards) != 1 {
		t.Fatalf("expired cards = %d, want 1", len(cards))
	}
	if cards[0].Front != "fiets" {
		t.Errorf("expired card = %q, want fiets", cards[0].Front)
	}
}

func TestImageCachePrune(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	dir := t.TempDir()

	// Three files of 100 bytes, oldest accessed first
	paths := make([]string, 3)
	for i := range paths {
		paths[i] = filepath.Join(dir, []string{"a.jpg", "b.jpg", "c.jpg"}[i])
		if err := os.WriteFile(paths[i], make([]byte, 100), 0644); err != nil {
			t.Fatalf("write test file: %v", err)
		}
		if err := s.RecordCachedImage(ctx, paths[i], 100); err != nil {
			t.Fatalf("RecordCachedImage() failed: %v", err)
		}
		// Ensure distinct access timestamps
		time.Sleep(5 * time.Millisecond)
	}

	total, err := s.ImageCacheSize(ctx)
	if err != nil {
		t.Fatalf("ImageCacheSize() failed: %v", err)
	}
	if total != 300 {
		t.Errorf("cache size = %d, want 300", total)
	}

	// Budget forces evicting the least recently accessed file
	evicted, err := s.PruneImageCache(ctx, 250)
	if err != nil {
		t.Fatalf("PruneImageCache() failed: %v", err)
	}
	if len(evicted) != 1 || evicted[0] != paths[0] {
		t.Errorf("evicted = %v, want [%s]", evicted, paths[0])
	}

	if _, err := os.Stat(paths[0]); !os.IsNotExist(err) {
		t.Error("evicted file should be removed from disk")
	}
	if _, err := os.Stat(paths[1]); err != nil {
		t.Error("remaining files should stay on disk")
	}

	// Within budget, nothing to do
	evicted, err = s.PruneImageCache(ctx, 250)
	if err != nil {
		t.Fatalf("PruneImageCache() second run failed: %v", err)
	}
	if len(evicted) != 0 {
		t.Errorf("second prune evicted %v, want none", evicted)
	}
}

func TestImageCacheTouchProtectsFromEviction(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	dir := t.TempDir()

	a := filepath.Join(dir, "a.jpg")
	b := filepath.Join(dir, "b.jpg")
	for _, p := range []string{a, b} {
		os.WriteFile(p, make([]byte, 100), 0644)
		if err := s.RecordCachedImage(ctx, p, 100); err != nil {
			t.Fatalf("RecordCachedImage() failed: %v", err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	// Touching the older file makes the newer one the eviction candidate
	time.Sleep(5 * time.Millisecond)
	if err := s.TouchCachedImage(ctx, a); err != nil {
		t.Fatalf("TouchCachedImage() failed: %v", err)
	}

	evicted, err := s.PruneImageCache(ctx, 100)
	if err != nil {
		t.Fatalf("PruneImageCache() failed: %v", err)
	}
	if len(evicted) != 1 || evicted[0] != b {
		t.Errorf("evicted = %v, want [%s]", evicted, b)
	}
}

func TestWordFrequency(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.LoadWordFrequencies(ctx, "nl", map[string]int{
		"de":             1,
		"fiets":          800,
		"sneeuw":         3200,
		"jurisprudentie": 48000,
	})
	if err != nil {
		t.Fatalf("LoadWordFrequencies() failed: %v", err)
	}

	rank, err := s.WordRank(ctx, "Fiets")
	if err != nil {
		t.Fatalf("WordRank() failed: %v", err)
	}
	if rank != 800 {
		t.Errorf("rank = %d, want 800", rank)
	}

	rank, err = s.WordRank(ctx, "onbekendwoord")
	if err != nil {
		t.Fatalf("WordRank() failed: %v", err)
	}
	if rank != 0 {
		t.Errorf("unknown word rank = %d, want 0", rank)
	}
}

func TestFrequencyHint(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.LoadWordFrequencies(ctx, "nl", map[string]int{
		"fiets":          800,
		"jurisprudentie": 48000,
	})
	if err != nil {
		t.Fatalf("LoadWordFrequencies() failed: %v", err)
	}

	hint := s.FrequencyHint("de fiets")
	if hint == "" {
		t.Error("expected a hint for a known common word")
	}

	hint = s.FrequencyHint("jurisprudentie")
	if hint == "" {
		t.Error("expected a hint for a known rare word")
	}

	hint = s.FrequencyHint("volstrekt onbekend")
	if hint != "" {
		t.Errorf("expected empty hint for unknown words, got %q", hint)
	}

	hint = s.FrequencyHint("")
	if hint != "" {
		t.Errorf("expected empty hint for empty text, got %q", hint)
	}
}
