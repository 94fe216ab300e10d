package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"codeberg.org/feitsma/stapel/internal"
)

// CreateRootCommand creates and configures the root cobra command
func CreateRootCommand(flags *Flags) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "stapel [word]",
		Short: "Dutch Anki Flashcard Generator",
		Long: `stapel generates Anki flashcard materials from Dutch words.

It classifies each word into a CEFR level using a multi-model vote,
creates reference pronunciation audio using OpenAI TTS and downloads
representative images from web search APIs.

Examples:
  stapel fiets                  # Generate materials for "bicycle"
  stapel --batch words.txt      # Process multiple words from file
  stapel --regenerate-audio     # Refresh expired reference audio`,
		Args:    cobra.MaximumNArgs(1),
		Version: internal.Version,
	}

	// Set up flags
	setupFlags(rootCmd, flags)

	return rootCmd
}

func setupFlags(cmd *cobra.Command, flags *Flags) {
	home, _ := os.UserHomeDir()
	defaultOutputDir := filepath.Join(home, ".local", "state", "stapel", "cards")
	defaultDBPath := filepath.Join(home, ".local", "state", "stapel", "stapel.db")

	// Global flags
	cmd.PersistentFlags().StringVar(&flags.CfgFile, "config", "", "config file (default is $HOME/.stapel.yaml)")

	// Local flags
	cmd.Flags().StringVarP(&flags.OutputDir, "output", "o", defaultOutputDir, "Output directory")
	cmd.Flags().StringVar(&flags.DatabasePath, "db", defaultDBPath, "Card database path")
	cmd.Flags().StringVarP(&flags.Language, "language", "l", flags.Language, "Study language (ISO 639-1 code)")
	cmd.Flags().StringVarP(&flags.AudioFormat, "format", "f", flags.AudioFormat, "Audio format (wav or mp3)")
	cmd.Flags().StringVar(&flags.ImageAPI, "image-api", flags.ImageAPI, "Image source: unsplash, pexels or pixabay")
	cmd.Flags().StringVar(&flags.BatchFile, "batch", "", "Process words from file (one per line)")
	cmd.Flags().BoolVar(&flags.SkipAudio, "skip-audio", false, "Skip audio generation")
	cmd.Flags().BoolVar(&flags.SkipImages, "skip-images", false, "Skip image download")
	cmd.Flags().BoolVar(&flags.SkipClassify, "skip-classify", false, "Skip CEFR level classification")
	cmd.Flags().BoolVar(&flags.GenerateAnki, "anki", false, "Generate Anki import file (APKG format by default, use --anki-csv for legacy CSV)")
	cmd.Flags().BoolVar(&flags.AnkiCSV, "anki-csv", false, "Generate legacy CSV format instead of APKG when using --anki")
	cmd.Flags().StringVar(&flags.DeckName, "deck-name", flags.DeckName, "Deck name for APKG export")
	cmd.Flags().BoolVar(&flags.ListModels, "list-models", false, "List available OpenAI models for the current API key")
	cmd.Flags().BoolVar(&flags.RegenerateAudio, "regenerate-audio", false, "Regenerate reference audio for cards whose audio has expired")
	cmd.Flags().BoolVar(&flags.Archive, "archive", false, "Archive the current cards directory and start fresh")
	cmd.Flags().StringVar(&flags.ScoreCardID, "score-card", "", "Card ID to score a pronunciation recording against")
	cmd.Flags().StringVar(&flags.RecordingPath, "recording", "", "Path to the learner recording to score (requires --score-card)")

	// Classification flags
	cmd.Flags().StringSliceVar(&flags.ClassifyModels, "models", flags.ClassifyModels, "Models to poll for CEFR level classification")
	cmd.Flags().StringVar(&flags.GeminiModel, "gemini-model", flags.GeminiModel, "Gemini model for classification votes")

	// OpenAI flags
	cmd.Flags().StringVar(&flags.OpenAIModel, "openai-model", flags.OpenAIModel, "OpenAI TTS model: tts-1, tts-1-hd, gpt-4o-mini-tts")
	cmd.Flags().Float64Var(&flags.OpenAISpeed, "openai-speed", flags.OpenAISpeed, "OpenAI speech speed (0.25 to 4.0, may be ignored by gpt-4o-mini-tts)")

	// Image search flags
	cmd.Flags().IntVar(&flags.ImagePerPage, "image-candidates", flags.ImagePerPage, "Number of image search results to try per word")
	cmd.Flags().StringVar(&flags.ImageOrientation, "image-orientation", flags.ImageOrientation, "Preferred image orientation: landscape, portrait or squarish")
	cmd.Flags().IntVar(&flags.ImageCacheMB, "image-cache-mb", flags.ImageCacheMB, "Image cache budget in megabytes, least-recently-used files are evicted")

	// Frequency list flags
	cmd.Flags().StringVar(&flags.FrequencyList, "load-frequencies", "", "Load a word frequency list (one word per line, most common first) into the database")

	// Bind flags to viper
	bindFlagsToViper(cmd)
}

func bindFlagsToViper(cmd *cobra.Command) {
	viper.BindPFlag("language", cmd.Flags().Lookup("language"))
	viper.BindPFlag("audio.format", cmd.Flags().Lookup("format"))
	viper.BindPFlag("audio.openai_model", cmd.Flags().Lookup("openai-model"))
	viper.BindPFlag("audio.openai_speed", cmd.Flags().Lookup("openai-speed"))
	viper.BindPFlag("output.directory", cmd.Flags().Lookup("output"))
	viper.BindPFlag("storage.database", cmd.Flags().Lookup("db"))
	viper.BindPFlag("classify.models", cmd.Flags().Lookup("models"))
	viper.BindPFlag("classify.gemini_model", cmd.Flags().Lookup("gemini-model"))
	viper.BindPFlag("image.provider", cmd.Flags().Lookup("image-api"))
	viper.BindPFlag("image.per_page", cmd.Flags().Lookup("image-candidates"))
	viper.BindPFlag("image.orientation", cmd.Flags().Lookup("image-orientation"))
	viper.BindPFlag("image.cache_budget_mb", cmd.Flags().Lookup("image-cache-mb"))
}

// InitConfig initializes viper configuration
func InitConfig(cfgFile string) {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting home directory: %v\n", err)
			return
		}

		// Search config in home directory with name ".stapel" (without extension)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".stapel")
	}

	// Environment variables
	viper.SetEnvPrefix("STAPEL")
	viper.AutomaticEnv()

	// Read config file
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// GetOpenAIKey retrieves the OpenAI API key from environment or config
func GetOpenAIKey() string {
	// First check environment variable
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return key
	}

	// Then check config file
	return viper.GetString("audio.openai_key")
}

// GetGeminiKey retrieves the Gemini API key from environment or config
func GetGeminiKey() string {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		return key
	}

	return viper.GetString("classify.gemini_key")
}

// GetImageKey retrieves the API key for the given image provider from
// environment or config
func GetImageKey(provider string) string {
	envNames := map[string]string{
		"unsplash": "UNSPLASH_ACCESS_KEY",
		"pexels":   "PEXELS_API_KEY",
		"pixabay":  "PIXABAY_API_KEY",
	}
	if env, ok := envNames[provider]; ok {
		if key := os.Getenv(env); key != "" {
			return key
		}
	}

	return viper.GetString("image." + provider + "_key")
}
