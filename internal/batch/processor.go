package batch

import (
	"fmt"
	"os"
	"strings"
)

// WordEntry represents a word with optional translation
type WordEntry struct {
	Front string
	Back  string
	// NeedsTranslation indicates if translation from English back to the
	// study language is needed
	NeedsTranslation bool
}

// ReadBatchFile reads words from a file and returns WordEntry slice
// Supports formats:
// - Study word only: "fiets" (will be translated to English)
// - With translation: "fiets = bicycle" (both provided, no translation needed)
// - English only: "= bicycle" (will be translated to the study language)
func ReadBatchFile(filename string) ([]WordEntry, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}

	var entries []WordEntry
	lines := string(content)

	for _, line := range splitLines(lines) {
		if line = trimSpace(line); line != "" {
			// Check if line contains '=' for translation format
			if strings.Contains(line, "=") {
				parts := strings.SplitN(line, "=", 2)
				if len(parts) == 2 {
					front := strings.TrimSpace(parts[0])
					back := strings.TrimSpace(parts[1])

					if front == "" && back != "" {
						// Format: "= ENGLISH" - need to translate back to the study language
						entries = append(entries, WordEntry{
							Front:            "", // Will be filled by translation
							Back:             back,
							NeedsTranslation: true,
						})
					} else if front != "" && back != "" {
						// Format: "WORD = ENGLISH" - both provided
						entries = append(entries, WordEntry{
							Front:            front,
							Back:             back,
							NeedsTranslation: false,
						})
					}
					// Ignore lines with empty English part
				}
			} else {
				// Just a study word - needs translation to English
				entries = append(entries, WordEntry{
					Front:            line,
					Back:             "",
					NeedsTranslation: false,
				})
			}
		}
	}

	return entries, nil
}

// splitLines splits a string by newlines
func splitLines(s string) []string {
	var lines []string
	current := ""
	for _, r := range s {
		if r == '\n' {
			lines = append(lines, current)
			current = ""
		} else if r != '\r' {
			current += string(r)
		}
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}

// trimSpace trims whitespace from string
func trimSpace(s string) string {
	start := 0
	end := len(s)

	// Trim from start
	for start < end && isSpace(rune(s[start])) {
		start++
	}

	// Trim from end
	for end > start && isSpace(rune(s[end-1])) {
		end--
	}

	return s[start:end]
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
