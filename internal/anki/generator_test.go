package anki

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	stapelcard "codeberg.org/feitsma/stapel/internal/card"
	"codeberg.org/feitsma/stapel/internal/testutil"
)

func TestDefaultGeneratorOptions(t *testing.T) {
	opts := DefaultGeneratorOptions()

	if opts.OutputPath != "anki_import.csv" {
		t.Errorf("Expected output path 'anki_import.csv', got '%s'", opts.OutputPath)
	}

	if opts.MediaFolder != "." {
		t.Errorf("Expected media folder '.', got '%s'", opts.MediaFolder)
	}

	if !opts.IncludeHeaders {
		t.Error("Expected IncludeHeaders to be true")
	}

	if opts.AudioFormat != "mp3" {
		t.Errorf("Expected audio format 'mp3', got '%s'", opts.AudioFormat)
	}

	if opts.ImageFormat != "jpg" {
		t.Errorf("Expected image format 'jpg', got '%s'", opts.ImageFormat)
	}
}

func TestNewGenerator(t *testing.T) {
	// Test with nil options
	gen := NewGenerator(nil)
	if gen == nil {
		t.Fatal("NewGenerator returned nil")
	}
	if gen.options == nil {
		t.Error("Generator options should not be nil")
	}

	// Test with custom options
	opts := &GeneratorOptions{
		OutputPath: "custom.csv",
	}
	gen = NewGenerator(opts)
	if gen.options.OutputPath != "custom.csv" {
		t.Errorf("Expected custom output path, got '%s'", gen.options.OutputPath)
	}
}

func TestFromCard(t *testing.T) {
	expiry := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	c := &stapelcard.Card{
		Front:     "fiets",
		Back:      "bicycle",
		CEFRLevel: "A1",
		Notes:     "transport",
		Audio: &stapelcard.AudioMetadata{
			ReferenceMP3:   "/media/c1/reference.mp3",
			ReferenceIPA:   "fits",
			AudioExpiresAt: &expiry,
		},
		Image: &stapelcard.ImageMetadata{
			CachedPath: "/media/c1/fiets.jpg",
		},
	}

	row := FromCard(c)

	if row.Front != "fiets" || row.Back != "bicycle" {
		t.Errorf("content = %q/%q", row.Front, row.Back)
	}
	if row.IPA != "fits" {
		t.Errorf("IPA = %q, want fits", row.IPA)
	}
	if row.CEFRLevel != "A1" {
		t.Errorf("level = %q, want A1", row.CEFRLevel)
	}
	if row.AudioFile != "/media/c1/reference.mp3" {
		t.Errorf("audio file = %q", row.AudioFile)
	}
	if row.ImageFile != "/media/c1/fiets.jpg" {
		t.Errorf("image file = %q", row.ImageFile)
	}

	// Cards without media export empty media fields
	bare := FromCard(&stapelcard.Card{Front: "huis", Back: "house"})
	if bare.AudioFile != "" || bare.ImageFile != "" || bare.IPA != "" {
		t.Error("bare card should have empty media fields")
	}
}

func TestAddCard(t *testing.T) {
	gen := NewGenerator(nil)

	card := Card{
		Front:     "fiets",
		AudioFile: "audio.mp3",
		ImageFile: "image.jpg",
		Back:      "bicycle",
		Notes:     "test note",
	}

	gen.AddCard(card)

	if len(gen.cards) != 1 {
		t.Errorf("Expected 1 card, got %d", len(gen.cards))
	}

	if gen.cards[0].Front != "fiets" {
		t.Errorf("Expected front 'fiets', got '%s'", gen.cards[0].Front)
	}
}

func TestGetCards(t *testing.T) {
	gen := NewGenerator(nil)

	card1 := Card{Front: "fiets"}
	card2 := Card{Front: "kat"}

	gen.AddCard(card1)
	gen.AddCard(card2)

	cards := gen.GetCards()
	if len(cards) != 2 {
		t.Errorf("Expected 2 cards, got %d", len(cards))
	}

	// Test that we can modify the returned slice
	cards[0].Back = "bicycle"
	if gen.cards[0].Back != "bicycle" {
		t.Error("GetCards should return the actual slice, not a copy")
	}
}

func TestFormatAudioField(t *testing.T) {
	gen := NewGenerator(nil)

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty path",
			input:    "",
			expected: "",
		},
		{
			name:     "simple audio file",
			input:    "/path/to/word123/audio.mp3",
			expected: "[sound:audio.mp3]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := gen.formatAudioField(tt.input)
			if result != tt.expected {
				t.Errorf("formatAudioField(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestFormatImageField(t *testing.T) {
	gen := NewGenerator(nil)

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty path",
			input:    "",
			expected: "",
		},
		{
			name:     "simple image file",
			input:    "/path/to/word123/image.jpg",
			expected: `<img src="image.jpg">`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := gen.formatImageField(tt.input)
			if result != tt.expected {
				t.Errorf("formatImageField(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestGenerateCSV(t *testing.T) {
	tempDir := t.TempDir()
	outputPath := filepath.Join(tempDir, "test.csv")

	gen := NewGenerator(&GeneratorOptions{
		OutputPath:     outputPath,
		IncludeHeaders: true,
	})

	// Add test cards
	gen.AddCard(Card{
		Front:     "fiets",
		AudioFile: "/path/to/fiets/audio.mp3",
		ImageFile: "/path/to/fiets/image.jpg",
		Back:      "bicycle",
		IPA:       "fits",
		CEFRLevel: "A1",
		Notes:     "transport",
	})

	gen.AddCard(Card{
		Front:     "kat",
		AudioFile: "/path/to/kat/audio.mp3",
		ImageFile: "/path/to/kat/image.jpg",
		Back:      "cat",
		Notes:     "an animal",
	})

	// Generate CSV
	err := gen.GenerateCSV()
	if err != nil {
		t.Fatalf("GenerateCSV() error = %v", err)
	}

	// Verify file exists
	if _, err := os.Stat(outputPath); os.IsNotExist(err) {
		t.Fatal("CSV file was not created")
	}

	// Read and verify content
	file, err := os.Open(outputPath)
	if err != nil {
		t.Fatalf("Failed to open CSV file: %v", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("Failed to read CSV: %v", err)
	}

	// Check headers
	if len(records) < 1 {
		t.Fatal("CSV file is empty")
	}

	expectedHeaders := []string{"Front", "Audio", "Image", "Back", "IPA", "Level", "Notes"}
	if len(records[0]) != len(expectedHeaders) {
		t.Errorf("Expected %d columns, got %d", len(expectedHeaders), len(records[0]))
	}

	for i, header := range expectedHeaders {
		if records[0][i] != header {
			t.Errorf("Expected header '%s' at position %d, got '%s'", header, i, records[0][i])
		}
	}

	// Check first data row
	if len(records) < 2 {
		t.Fatal("CSV file has no data rows")
	}

	if records[1][0] != "fiets" {
		t.Errorf("Expected front 'fiets', got '%s'", records[1][0])
	}

	if records[1][1] != "[sound:audio.mp3]" {
		t.Errorf("Expected audio field '[sound:audio.mp3]', got '%s'", records[1][1])
	}

	if records[1][2] != `<img src="image.jpg">` {
		t.Errorf("Expected image field '<img src=\"image.jpg\">', got '%s'", records[1][2])
	}

	if records[1][3] != "bicycle" {
		t.Errorf("Expected back 'bicycle', got '%s'", records[1][3])
	}

	if records[1][4] != "fits" {
		t.Errorf("Expected IPA 'fits', got '%s'", records[1][4])
	}

	if records[1][5] != "A1" {
		t.Errorf("Expected level 'A1', got '%s'", records[1][5])
	}
}

func TestGenerateCSVWithoutHeaders(t *testing.T) {
	tempDir := t.TempDir()
	outputPath := filepath.Join(tempDir, "test.csv")

	gen := NewGenerator(&GeneratorOptions{
		OutputPath:     outputPath,
		IncludeHeaders: false,
	})

	gen.AddCard(Card{
		Front: "fiets",
	})

	err := gen.GenerateCSV()
	if err != nil {
		t.Fatalf("GenerateCSV() error = %v", err)
	}

	// Read and verify no headers
	file, err := os.Open(outputPath)
	if err != nil {
		t.Fatalf("Failed to open CSV file: %v", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("Failed to read CSV: %v", err)
	}

	if len(records) != 1 {
		t.Errorf("Expected 1 record (no headers), got %d", len(records))
	}

	if records[0][0] != "fiets" {
		t.Errorf("First field should be 'fiets', got '%s'", records[0][0])
	}
}

func TestGenerateFromDirectory(t *testing.T) {
	// Create test directory structure
	tempDir := t.TempDir()

	// Create word directories
	word1Dir := filepath.Join(tempDir, "fiets")
	os.MkdirAll(word1Dir, 0755)

	word2Dir := filepath.Join(tempDir, "kat")
	os.MkdirAll(word2Dir, 0755)

	// Create hidden directory (should be skipped)
	hiddenDir := filepath.Join(tempDir, ".hidden")
	os.MkdirAll(hiddenDir, 0755)

	// Create word files
	os.WriteFile(filepath.Join(word1Dir, "fiets_translation.txt"), []byte("fiets = bicycle"), 0644)
	os.WriteFile(filepath.Join(word1Dir, "fiets.mp3"), []byte("audio data"), 0644)
	os.WriteFile(filepath.Join(word1Dir, "fiets.jpg"), []byte("image data"), 0644)

	// Word 2 with audio only
	os.WriteFile(filepath.Join(word2Dir, "kat.wav"), []byte("audio data"), 0644)

	// Hidden directory files (should be ignored)
	os.WriteFile(filepath.Join(hiddenDir, "hidden.mp3"), []byte("audio"), 0644)

	gen := NewGenerator(nil)
	err := gen.GenerateFromDirectory(tempDir)
	if err != nil {
		t.Fatalf("GenerateFromDirectory() error = %v", err)
	}

	// Check results
	if len(gen.cards) != 2 {
		t.Fatalf("Expected 2 cards, got %d", len(gen.cards))
	}

	// Find and check first card
	var bikeCard *Card
	for i := range gen.cards {
		if gen.cards[i].Front == "fiets" {
			bikeCard = &gen.cards[i]
			break
		}
	}

	if bikeCard == nil {
		t.Fatal("Could not find fiets card")
	}

	if bikeCard.Back != "bicycle" {
		t.Errorf("Expected back 'bicycle', got '%s'", bikeCard.Back)
	}

	if !strings.HasSuffix(bikeCard.AudioFile, "fiets.mp3") {
		t.Errorf("Expected audio file to end with 'fiets.mp3', got '%s'", bikeCard.AudioFile)
	}

	if !strings.HasSuffix(bikeCard.ImageFile, "fiets.jpg") {
		t.Errorf("Expected image file to end with 'fiets.jpg', got '%s'", bikeCard.ImageFile)
	}
}

func TestGenerateFromDirectoryStandardLayout(t *testing.T) {
	tempDir := t.TempDir()
	wordDir := testutil.CreateTestWordDirectory(t, tempDir, "brood")

	gen := NewGenerator(nil)
	if err := gen.GenerateFromDirectory(tempDir); err != nil {
		t.Fatalf("GenerateFromDirectory() error = %v", err)
	}

	if len(gen.cards) != 1 {
		t.Fatalf("Expected 1 card, got %d", len(gen.cards))
	}

	card := gen.cards[0]
	if card.Front != "brood" {
		t.Errorf("Expected front 'brood', got '%s'", card.Front)
	}
	if card.Back != "test translation" {
		t.Errorf("Expected back 'test translation', got '%s'", card.Back)
	}
	testutil.AssertFileExists(t, card.AudioFile)
	testutil.AssertFileExists(t, card.ImageFile)
	testutil.AssertFileContains(t, filepath.Join(wordDir, "brood_translation.txt"), "brood")
}

func TestCopyMediaFile(t *testing.T) {
	tempDir := t.TempDir()

	// Create source file structure
	srcDir := filepath.Join(tempDir, "src", "word123")
	os.MkdirAll(srcDir, 0755)

	srcFile := filepath.Join(srcDir, "audio.mp3")
	os.WriteFile(srcFile, []byte("test audio"), 0644)

	// Create destination directory
	destDir := filepath.Join(tempDir, "dest")
	os.MkdirAll(destDir, 0755)

	gen := NewGenerator(nil)

	// Test copying file
	newPath, err := gen.copyMediaFile(srcFile, destDir)
	if err != nil {
		t.Fatalf("copyMediaFile() error = %v", err)
	}

	expectedName := "audio.mp3"
	if newPath != expectedName {
		t.Errorf("Expected filename '%s', got '%s'", expectedName, newPath)
	}

	// Verify file was copied
	destFile := filepath.Join(destDir, newPath)
	if _, err := os.Stat(destFile); os.IsNotExist(err) {
		t.Error("Destination file was not created")
	}

	// Verify content
	content, err := os.ReadFile(destFile)
	if err != nil {
		t.Fatalf("Failed to read destination file: %v", err)
	}

	if string(content) != "test audio" {
		t.Errorf("File content mismatch: got '%s', want 'test audio'", string(content))
	}

	// Test copying same file again (should create unique name)
	newPath2, err := gen.copyMediaFile(srcFile, destDir)
	if err != nil {
		t.Fatalf("copyMediaFile() second call error = %v", err)
	}

	if newPath2 == newPath {
		t.Error("Second copy should have unique name")
	}

	expectedName2 := "audio_1.mp3"
	if newPath2 != expectedName2 {
		t.Errorf("Expected filename '%s', got '%s'", expectedName2, newPath2)
	}
}

func TestStats(t *testing.T) {
	gen := NewGenerator(nil)

	// Empty stats
	total, audio, images := gen.Stats()
	if total != 0 || audio != 0 || images != 0 {
		t.Errorf("Expected empty stats, got total=%d, audio=%d, images=%d", total, audio, images)
	}

	// Add cards with different media
	gen.AddCard(Card{
		Front:     "fiets",
		AudioFile: "audio1.mp3",
		ImageFile: "image1.jpg",
	})

	gen.AddCard(Card{
		Front:     "kat",
		AudioFile: "audio2.mp3",
	})

	gen.AddCard(Card{
		Front:     "hond",
		ImageFile: "image3.jpg",
	})

	gen.AddCard(Card{
		Front: "brood",
		Back:  "bread",
	})

	total, audio, images = gen.Stats()
	if total != 4 {
		t.Errorf("Expected 4 total cards, got %d", total)
	}

	if audio != 2 {
		t.Errorf("Expected 2 cards with audio, got %d", audio)
	}

	if images != 2 {
		t.Errorf("Expected 2 cards with images, got %d", images)
	}
}

func TestGeneratePackage(t *testing.T) {
	tempDir := t.TempDir()

	// Create source files
	srcDir := filepath.Join(tempDir, "src", "word1")
	os.MkdirAll(srcDir, 0755)

	audioFile := filepath.Join(srcDir, "audio.mp3")
	os.WriteFile(audioFile, []byte("audio data"), 0644)

	imageFile := filepath.Join(srcDir, "image.jpg")
	os.WriteFile(imageFile, []byte("image data"), 0644)

	// Create generator with card
	gen := NewGenerator(nil)
	gen.AddCard(Card{
		Front:     "fiets",
		AudioFile: audioFile,
		ImageFile: imageFile,
	})

	// Generate package
	outputDir := filepath.Join(tempDir, "output")
	err := gen.GeneratePackage(outputDir)
	if err != nil {
		t.Fatalf("GeneratePackage() error = %v", err)
	}

	// Verify structure
	mediaDir := filepath.Join(outputDir, "collection.media")
	if _, err := os.Stat(mediaDir); os.IsNotExist(err) {
		t.Error("Media directory was not created")
	}

	csvFile := filepath.Join(outputDir, "import.csv")
	if _, err := os.Stat(csvFile); os.IsNotExist(err) {
		t.Error("CSV file was not created")
	}

	// Verify media files were copied
	copiedAudio := filepath.Join(mediaDir, "audio.mp3")
	if _, err := os.Stat(copiedAudio); os.IsNotExist(err) {
		t.Error("Audio file was not copied")
	}

	copiedImage := filepath.Join(mediaDir, "image.jpg")
	if _, err := os.Stat(copiedImage); os.IsNotExist(err) {
		t.Error("Image file was not copied")
	}
}
