// Package testutil holds shared helpers for building media fixtures on
// disk the way a processing run lays them out.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// CreateTestFile creates a test file with content
func CreateTestFile(t *testing.T, path string, content []byte) {
	t.Helper()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Failed to create directory for test file: %v", err)
	}

	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("Failed to create test file %s: %v", path, err)
	}
}

// CreateTestWordDirectory creates a word directory with the standard
// layout: translation text plus reference audio and image
func CreateTestWordDirectory(t *testing.T, baseDir, word string) string {
	t.Helper()

	wordDir := filepath.Join(baseDir, word)
	if err := os.MkdirAll(wordDir, 0755); err != nil {
		t.Fatalf("Failed to create word directory: %v", err)
	}

	files := map[string]string{
		"word.txt":                word,
		word + "_translation.txt": word + " = test translation",
		"phonetic.txt":            "test phonetic info",
	}
	for filename, content := range files {
		CreateTestFile(t, filepath.Join(wordDir, filename), []byte(content))
	}

	// MP3 and JPEG magic bytes are enough for the generator
	CreateTestFile(t, filepath.Join(wordDir, word+".mp3"), []byte{0xFF, 0xFB, 0x90, 0x00})
	CreateTestFile(t, filepath.Join(wordDir, word+".jpg"), []byte{0xFF, 0xD8, 0xFF, 0xE0})

	return wordDir
}

// AssertFileExists checks if a file exists
func AssertFileExists(t *testing.T, path string) {
	t.Helper()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("Expected file to exist: %s", path)
	}
}

// AssertFileContains checks if a file contains a substring
func AssertFileContains(t *testing.T, path string, substring string) {
	t.Helper()

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}

	if !strings.Contains(string(content), substring) {
		t.Errorf("File %s does not contain expected substring: %q", path, substring)
	}
}
