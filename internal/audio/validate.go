package audio

import (
	"fmt"
	"strings"
	"unicode"
)

// ValidateText validates that the input contains speakable text
func ValidateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("text cannot be empty")
	}

	hasLetter := false
	for _, r := range text {
		if unicode.IsLetter(r) {
			hasLetter = true
			break
		}
	}

	if !hasLetter {
		return fmt.Errorf("text must contain at least one letter")
	}

	return nil
}
