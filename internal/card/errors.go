package card

import "errors"

// Fatal errors. Everything else in the enrichment path is a soft failure:
// absorbed, logged as a warning, and represented as "no contribution".
var (
	// ErrInvalidInput marks degenerate input, such as empty classification
	// text or an empty card field.
	ErrInvalidInput = errors.New("invalid input")

	// ErrAllModelsUnavailable means every configured model failed to
	// produce a vote; a classification with zero votes would be a silently
	// corrupt result, so it is fatal.
	ErrAllModelsUnavailable = errors.New("all models unavailable")

	// ErrUnsupportedLanguage means no voice profile is mapped for the
	// requested language code. Guessing a voice would produce
	// wrong-language speech, so this propagates instead of being absorbed.
	ErrUnsupportedLanguage = errors.New("unsupported language")
)
