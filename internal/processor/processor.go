package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"codeberg.org/feitsma/stapel/internal"
	"codeberg.org/feitsma/stapel/internal/anki"
	"codeberg.org/feitsma/stapel/internal/archive"
	"codeberg.org/feitsma/stapel/internal/audio"
	"codeberg.org/feitsma/stapel/internal/batch"
	"codeberg.org/feitsma/stapel/internal/card"
	"codeberg.org/feitsma/stapel/internal/cefr"
	"codeberg.org/feitsma/stapel/internal/cli"
	"codeberg.org/feitsma/stapel/internal/enrich"
	"codeberg.org/feitsma/stapel/internal/image"
	"codeberg.org/feitsma/stapel/internal/phonetic"
	stapelstore "codeberg.org/feitsma/stapel/internal/store"
	"codeberg.org/feitsma/stapel/internal/translation"
)

// Processor handles the main word processing logic
type Processor struct {
	flags            *cli.Flags
	store            *stapelstore.Store
	engine           *cefr.Engine
	enricher         *enrich.Enricher
	translator       *translation.Translator
	translationCache *translation.TranslationCache
	logger           *slog.Logger
	deck             *card.Deck
}

// NewProcessor creates a new word processor. It opens the card database
// and wires up the classification engine and media enricher.
func NewProcessor(flags *cli.Flags) (*Processor, error) {
	logger := slog.Default()
	apiKey := cli.GetOpenAIKey()

	if err := os.MkdirAll(filepath.Dir(flags.DatabasePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	st, err := stapelstore.New(flags.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open card database: %w", err)
	}

	p := &Processor{
		flags:            flags,
		store:            st,
		translator:       translation.NewTranslator(apiKey, flags.Language),
		translationCache: translation.NewTranslationCache(),
		logger:           logger,
	}

	if !flags.SkipClassify {
		engine, err := buildEngine(flags, st, apiKey, logger)
		if err != nil {
			st.Close()
			return nil, err
		}
		p.engine = engine
	}

	p.enricher = buildEnricher(flags, apiKey, logger)

	return p, nil
}

// buildEngine wires the multi-model voting engine. OpenAI models share one
// invoker; Gemini models get their own. Each route goes through a circuit
// breaker so a flapping provider cannot stall every classification.
func buildEngine(flags *cli.Flags, st *stapelstore.Store, openAIKey string, logger *slog.Logger) (*cefr.Engine, error) {
	openAIInvoker := cefr.NewOpenAIInvoker(openAIKey)
	router := cefr.NewRouter(openAIInvoker)

	hasGemini := false
	for _, modelID := range flags.ClassifyModels {
		if strings.HasPrefix(modelID, "gemini") {
			hasGemini = true
			break
		}
	}

	if hasGemini {
		geminiKey := cli.GetGeminiKey()
		if geminiKey == "" {
			logger.Warn("gemini models configured but no GEMINI_API_KEY set, their votes will fail")
		} else {
			geminiInvoker, err := cefr.NewGeminiInvoker(context.Background(), geminiKey)
			if err != nil {
				return nil, fmt.Errorf("failed to create gemini client: %w", err)
			}
			for _, modelID := range flags.ClassifyModels {
				if strings.HasPrefix(modelID, "gemini") {
					router.Register(modelID, geminiInvoker)
				}
			}
		}
	}

	config := cefr.DefaultConfig(flags.ClassifyModels...)
	config.FrequencyHint = func(ctx context.Context, text string) string {
		return st.FrequencyHint(text)
	}

	return cefr.NewEngine(cefr.NewBreakerInvoker(router), config, logger)
}

// buildEnricher assembles the media enricher from the configured image
// provider, TTS provider and phonetic tooling. Each leg is optional: a
// missing API key disables that leg instead of failing construction.
func buildEnricher(flags *cli.Flags, apiKey string, logger *slog.Logger) *enrich.Enricher {
	var finder enrich.ImageFinder
	if !flags.SkipImages {
		imageKey := cli.GetImageKey(flags.ImageAPI)
		searcher, err := image.NewSearcher(flags.ImageAPI, imageKey)
		if err != nil {
			logger.Warn("image search disabled", "provider", flags.ImageAPI, "error", err)
		} else {
			opts := image.DefaultDownloadOptions()
			opts.OutputDir = flags.OutputDir
			opts.OverwriteExisting = true
			finder = image.NewDownloader(searcher, opts, logger)
		}
	}

	var tts audio.Provider
	if !flags.SkipAudio {
		providerConfig := audioConfig(flags, apiKey)
		provider, err := audio.NewProvider(providerConfig)
		if err != nil {
			logger.Warn("audio synthesis disabled", "error", err)
		} else {
			tts = provider
		}
	}

	var ipa enrich.IPASource
	var recognizer phonetic.Recognizer
	if apiKey != "" {
		ipa = phonetic.NewReferenceTranscriber(phonetic.NewFetcher(apiKey))
		if r, err := phonetic.NewWhisperRecognizer(apiKey); err == nil {
			recognizer = r
		}
	}

	config := enrich.DefaultConfig()
	config.MediaDir = flags.OutputDir
	config.Language = flags.Language

	return enrich.New(finder, tts, ipa, recognizer, config, logger)
}

// audioConfig builds the TTS provider configuration from flags, with
// config file values filling in anything the flags left at their default.
func audioConfig(flags *cli.Flags, apiKey string) *audio.Config {
	config := audio.DefaultProviderConfig()
	config.OutputDir = flags.OutputDir
	config.OutputFormat = flags.AudioFormat
	config.OpenAIKey = apiKey
	config.OpenAIModel = flags.OpenAIModel
	config.OpenAISpeed = flags.OpenAISpeed
	config.EnableCache = viper.GetBool("audio.enable_cache")
	config.CacheDir = viper.GetString("audio.cache_dir")

	if config.CacheDir == "" {
		config.CacheDir = "./.audio_cache"
	}

	// Use config file values if not overridden by flags
	if flags.OpenAIModel == "gpt-4o-mini-tts" && viper.IsSet("audio.openai_model") {
		config.OpenAIModel = viper.GetString("audio.openai_model")
	}
	if flags.OpenAISpeed == 0.9 && viper.IsSet("audio.openai_speed") {
		config.OpenAISpeed = viper.GetFloat64("audio.openai_speed")
	}

	return config
}

// Close releases the card database.
func (p *Processor) Close() error {
	return p.store.Close()
}

// ProcessBatch processes multiple words from a batch file
func (p *Processor) ProcessBatch(ctx context.Context) error {
	entries, err := batch.ReadBatchFile(p.flags.BatchFile)
	if err != nil {
		return err
	}

	// Create output directory (including parent directories)
	if err := os.MkdirAll(p.flags.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	// First pass: handle entries that need English to study-language translation
	for i, entry := range entries {
		if entry.NeedsTranslation && entry.Back != "" {
			front, err := p.translator.TranslateToStudyLanguage(ctx, entry.Back)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error translating '%s': %v\n", entry.Back, err)
				continue
			}
			entries[i].Front = front
			fmt.Printf("Translated '%s': %s\n", entry.Back, front)
		}
	}

	// Validate words before spending any API calls
	for _, entry := range entries {
		if entry.Front != "" {
			if err := audio.ValidateText(entry.Front); err != nil {
				return fmt.Errorf("invalid word '%s': %w", entry.Front, err)
			}
		}
	}

	// Track statistics
	skippedCount := 0
	processedCount := 0
	errorCount := 0

	// Process each entry
	for i, entry := range entries {
		if entry.Front == "" {
			continue // Skip entries that failed translation
		}

		fmt.Printf("\nProcessing %d/%d: %s\n", i+1, len(entries), entry.Front)

		existing, err := p.findCard(ctx, entry.Front)
		if err == nil && existing != nil && p.isCardComplete(existing) {
			fmt.Printf("  ✓ Skipping '%s' - already fully processed\n", entry.Front)
			p.touchImage(ctx, existing)
			skippedCount++
			continue
		}

		if err := p.ProcessWordWithTranslation(ctx, entry.Front, entry.Back); err != nil {
			fmt.Fprintf(os.Stderr, "Error processing '%s': %v\n", entry.Front, err)
			errorCount++
			// Continue with next word
		} else {
			processedCount++
		}
	}

	if evicted, err := p.pruneImageCache(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: image cache prune failed: %v\n", err)
	} else if evicted > 0 {
		fmt.Printf("\nEvicted %d cached images to stay within the cache budget\n", evicted)
	}

	// Print summary
	fmt.Printf("\n=== Batch Processing Summary ===\n")
	fmt.Printf("Total words: %d\n", len(entries))
	fmt.Printf("Processed: %d\n", processedCount)
	fmt.Printf("Skipped (already complete): %d\n", skippedCount)
	if errorCount > 0 {
		fmt.Printf("Errors: %d\n", errorCount)
	}
	fmt.Printf("================================\n")

	return nil
}

// ProcessSingleWord processes a single word from command line
func (p *Processor) ProcessSingleWord(ctx context.Context, word string) error {
	// Validate word
	if err := audio.ValidateText(word); err != nil {
		return fmt.Errorf("invalid word '%s': %w", word, err)
	}

	// Create output directory (including parent directories)
	if err := os.MkdirAll(p.flags.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	fmt.Printf("\nProcessing: %s\n", word)
	return p.ProcessWordWithTranslation(ctx, word, "")
}

// ProcessWordWithTranslation processes a word with optional provided translation
func (p *Processor) ProcessWordWithTranslation(ctx context.Context, word, providedTranslation string) error {
	translationText := providedTranslation
	if translationText != "" {
		fmt.Printf("  Using provided translation: %s\n", translationText)
	} else if cached, ok := p.translationCache.Get(word); ok {
		translationText = cached
	} else {
		fmt.Printf("  Translating to English...\n")
		var err error
		translationText, err = p.translator.TranslateWord(ctx, word)
		if err != nil {
			fmt.Printf("  Warning: Translation failed: %v\n", err)
			translationText = "" // Continue without translation
		} else {
			fmt.Printf("  Translation: %s\n", translationText)
		}
	}

	if translationText != "" {
		p.translationCache.Add(word, translationText)
	}

	c, err := p.findOrCreateCard(ctx, word, translationText)
	if err != nil {
		return err
	}

	// Classify
	if p.engine != nil && c.CEFRLevel == "" {
		fmt.Printf("  Classifying CEFR level...\n")
		result, err := p.engine.Classify(ctx, word)
		if err != nil {
			if errors.Is(err, card.ErrInvalidInput) {
				return err
			}
			// All models down: keep the card, classify on a later run
			fmt.Printf("  Warning: Classification failed: %v\n", err)
		} else {
			c.SetClassification(result)
			fmt.Printf("  Level: %s (confidence %.2f, %d votes)\n",
				result.Level, result.Confidence, len(result.Votes))
		}
	}

	// Attach media
	if !p.flags.SkipImages {
		fmt.Printf("  Downloading image...\n")
		if meta := p.enricher.AttachImage(ctx, c, imageQuery(word, translationText)); meta != nil {
			fmt.Printf("    Downloaded: %s\n", meta.CachedPath)
			p.recordImage(ctx, meta.CachedPath)
		}
	}

	if !p.flags.SkipAudio {
		fmt.Printf("  Generating audio...\n")
		meta, err := p.enricher.AttachAudio(ctx, c, word, p.cardLanguage(c))
		if err != nil {
			return fmt.Errorf("audio generation failed: %w", err)
		}
		if meta != nil {
			fmt.Printf("    Generated: %s (voice: %s)\n", meta.ReferenceMP3, meta.Voice)
		}
	}

	if err := p.store.SaveCard(ctx, c); err != nil {
		return fmt.Errorf("failed to save card: %w", err)
	}

	// Persist the translation next to the media for Anki directory import
	if translationText != "" {
		wordDir := filepath.Join(p.flags.OutputDir, c.ID)
		if err := os.MkdirAll(wordDir, 0755); err == nil {
			if err := translation.SaveTranslation(wordDir, word, translationText); err != nil {
				fmt.Printf("  Warning: Failed to save translation: %v\n", err)
			}
		}
	}

	return nil
}

// ScoreRecording scores a learner recording of a card's front word and
// persists the updated practice history.
func (p *Processor) ScoreRecording(ctx context.Context, cardID, recordingPath string) (*enrich.RecordingScore, error) {
	c, err := p.store.GetCard(ctx, cardID)
	if err != nil {
		return nil, err
	}

	score, err := p.enricher.ScoreRecording(ctx, c, recordingPath, c.Front)
	if err != nil {
		return nil, err
	}

	if err := p.store.SaveCard(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to save card: %w", err)
	}

	return score, nil
}

// RegenerateExpiredAudio refreshes reference audio for every card whose
// audio cache window has lapsed. Returns the number of cards refreshed.
func (p *Processor) RegenerateExpiredAudio(ctx context.Context) (int, error) {
	return p.enricher.RegenerateExpiredAudio(ctx, p.store)
}

// ArchiveMedia rotates the output directory into a timestamped archive
// and reconciles the cards whose media moved with it.
func (p *Processor) ArchiveMedia(ctx context.Context) (*archive.Result, error) {
	return archive.Rotate(ctx, p.flags.OutputDir, p.store)
}

// LoadFrequencyList loads a word frequency list into the database. The
// file holds one word per line, most common first; the line number is the
// frequency rank. Returns the number of words loaded.
func (p *Processor) LoadFrequencyList(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read frequency list: %w", err)
	}

	ranks := make(map[string]int)
	rank := 0
	for _, line := range strings.Split(string(data), "\n") {
		word := strings.TrimSpace(line)
		if word == "" || strings.HasPrefix(word, "#") {
			continue
		}
		rank++
		if _, seen := ranks[strings.ToLower(word)]; !seen {
			ranks[strings.ToLower(word)] = rank
		}
	}
	if len(ranks) == 0 {
		return 0, fmt.Errorf("frequency list %s contains no words", path)
	}

	if err := p.store.LoadWordFrequencies(ctx, p.flags.Language, ranks); err != nil {
		return 0, err
	}
	return len(ranks), nil
}

// recordImage registers a downloaded image in the cache bookkeeping so
// batch runs can evict the least-recently-used files. Bookkeeping failures
// never block word processing.
func (p *Processor) recordImage(ctx context.Context, path string) {
	info, err := os.Stat(path)
	if err != nil {
		p.logger.Warn("cannot stat downloaded image", "path", path, "error", err)
		return
	}
	if err := p.store.RecordCachedImage(ctx, path, info.Size()); err != nil {
		p.logger.Warn("image cache bookkeeping failed", "path", path, "error", err)
	}
}

// touchImage marks a card's cached image as recently used.
func (p *Processor) touchImage(ctx context.Context, c *card.Card) {
	if c.Image == nil || c.Image.CachedPath == "" {
		return
	}
	if err := p.store.TouchCachedImage(ctx, c.Image.CachedPath); err != nil {
		p.logger.Warn("image cache bookkeeping failed", "path", c.Image.CachedPath, "error", err)
	}
}

// pruneImageCache evicts least-recently-used cached images until the
// cache fits the configured budget.
func (p *Processor) pruneImageCache(ctx context.Context) (int, error) {
	budget := int64(p.flags.ImageCacheMB) * 1024 * 1024
	if budget <= 0 {
		return 0, nil
	}
	evicted, err := p.store.PruneImageCache(ctx, budget)
	return len(evicted), err
}

// GenerateAnkiFile generates the Anki import file and returns the output path
func (p *Processor) GenerateAnkiFile(ctx context.Context) (string, error) {
	// When --anki is used from CLI, save to home directory
	var outputDir string
	if p.flags.GenerateAnki {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		outputDir = homeDir
	} else {
		outputDir = p.flags.OutputDir
	}

	// Create Anki generator
	gen := anki.NewGenerator(&anki.GeneratorOptions{
		OutputPath:     filepath.Join(outputDir, "anki_import.csv"),
		MediaFolder:    p.flags.OutputDir,
		IncludeHeaders: true,
		AudioFormat:    p.flags.AudioFormat,
	})

	deck, err := p.currentDeck(ctx)
	if err != nil {
		return "", err
	}

	cards, err := p.store.ListCards(ctx, deck.ID)
	if err != nil {
		return "", fmt.Errorf("failed to list cards: %w", err)
	}

	for _, c := range cards {
		gen.AddCard(anki.FromCard(c))
	}

	var outputPath string
	if p.flags.AnkiCSV {
		// Generate CSV
		outputPath = filepath.Join(outputDir, "anki_import.csv")
		if err := gen.GenerateCSV(); err != nil {
			return "", fmt.Errorf("failed to generate CSV: %w", err)
		}
	} else {
		// Generate APKG
		outputPath = filepath.Join(outputDir, fmt.Sprintf("%s.apkg", internal.SanitizeFilename(p.flags.DeckName)))
		if err := gen.GenerateAPKG(outputPath, p.flags.DeckName); err != nil {
			return "", fmt.Errorf("failed to generate APKG: %w", err)
		}
	}

	// Print stats
	total, withAudio, withImages := gen.Stats()
	fmt.Printf("  Generated %d cards (%d with audio, %d with images)\n",
		total, withAudio, withImages)

	return outputPath, nil
}

// Helper methods

func (p *Processor) cardLanguage(c *card.Card) string {
	if c.Language != "" {
		return c.Language
	}
	return p.flags.Language
}

// imageQuery prefers the English translation for image search, since the
// stock photo providers index in English far better than in Dutch.
func imageQuery(word, translationText string) string {
	if translationText != "" {
		return translationText
	}
	return word
}

func (p *Processor) currentDeck(ctx context.Context) (*card.Deck, error) {
	if p.deck != nil {
		return p.deck, nil
	}

	deck, err := p.store.GetDeckByName(ctx, p.flags.DeckName)
	if err != nil {
		deck, err = p.store.CreateDeck(ctx, p.flags.DeckName, "")
		if err != nil {
			return nil, fmt.Errorf("failed to create deck: %w", err)
		}
	}

	p.deck = deck
	return deck, nil
}

func (p *Processor) findCard(ctx context.Context, front string) (*card.Card, error) {
	deck, err := p.currentDeck(ctx)
	if err != nil {
		return nil, err
	}

	cards, err := p.store.ListCards(ctx, deck.ID)
	if err != nil {
		return nil, err
	}

	for _, c := range cards {
		if c.Front == front {
			return c, nil
		}
	}
	return nil, nil
}

func (p *Processor) findOrCreateCard(ctx context.Context, front, back string) (*card.Card, error) {
	existing, err := p.findCard(ctx, front)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.Back == "" && back != "" {
			existing.Back = back
		}
		return existing, nil
	}

	deck, err := p.currentDeck(ctx)
	if err != nil {
		return nil, err
	}

	c := &card.Card{
		DeckID:   deck.ID,
		Front:    front,
		Back:     back,
		Language: p.flags.Language,
	}
	if err := p.store.SaveCard(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create card: %w", err)
	}
	return c, nil
}

// isCardComplete reports whether a card already has everything the current
// flags would produce, so batch runs can skip it.
func (p *Processor) isCardComplete(c *card.Card) bool {
	if c.Back == "" {
		return false
	}
	if p.engine != nil && c.CEFRLevel == "" {
		return false
	}
	if !p.flags.SkipImages && c.Image == nil {
		return false
	}
	if !p.flags.SkipAudio {
		if c.Audio == nil {
			return false
		}
		if c.IsAudioExpired(time.Now()) {
			return false
		}
	}
	return true
}
