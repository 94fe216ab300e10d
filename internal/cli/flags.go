package cli

// Flags holds all command-line flag values
type Flags struct {
	// General flags
	CfgFile         string
	OutputDir       string
	DatabasePath    string
	Language        string
	AudioFormat     string
	ImageAPI        string
	BatchFile       string
	SkipAudio       bool
	SkipImages      bool
	SkipClassify    bool
	GenerateAnki    bool
	AnkiCSV         bool
	DeckName        string
	ListModels      bool
	RegenerateAudio bool
	Archive         bool
	ScoreCardID     string
	RecordingPath   string

	// Classification flags
	ClassifyModels []string
	GeminiModel    string

	// OpenAI flags
	OpenAIModel string
	OpenAISpeed float64

	// Image search flags
	ImagePerPage     int
	ImageOrientation string
	ImageCacheMB     int

	// Frequency list to load into the database
	FrequencyList string
}

// NewFlags creates a new Flags instance with default values
func NewFlags() *Flags {
	return &Flags{
		Language:         "nl",
		AudioFormat:      "mp3",
		ImageAPI:         "unsplash",
		DeckName:         "Dutch Vocabulary",
		ClassifyModels:   []string{"gpt-4o", "gpt-4o-mini", "gemini-2.0-flash"},
		GeminiModel:      "gemini-2.0-flash",
		OpenAIModel:      "gpt-4o-mini-tts",
		OpenAISpeed:      0.9,
		ImagePerPage:     5,
		ImageOrientation: "landscape",
		ImageCacheMB:     200,
	}
}
