package cefr

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"codeberg.org/feitsma/stapel/internal/card"
)

// Config holds the engine's explicit construction-time configuration so
// the engine stays testable with mock invokers.
type Config struct {
	// ModelIDs are the models consulted per classification, in dispatch
	// order. At least one is required.
	ModelIDs []string

	// CallTimeout bounds each model call. A model exceeding it is treated
	// identically to an error.
	CallTimeout time.Duration

	// FrequencyHint, when set, is called with the text and may return a
	// word-frequency block appended to the prompt. Optional.
	FrequencyHint func(ctx context.Context, text string) string
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig(modelIDs ...string) *Config {
	return &Config{
		ModelIDs:    modelIDs,
		CallTimeout: 30 * time.Second,
	}
}

// Engine dispatches a classification prompt to every configured model in
// parallel and resolves a single consensus level.
type Engine struct {
	invoker Invoker
	config  *Config
	logger  *slog.Logger
}

// NewEngine creates a voting engine. The invoker is shared by all model
// calls; wrap it with NewBreakerInvoker to isolate flapping providers.
func NewEngine(invoker Invoker, config *Config, logger *slog.Logger) (*Engine, error) {
	if config == nil || len(config.ModelIDs) == 0 {
		return nil, fmt.Errorf("at least one model ID is required")
	}
	if config.CallTimeout <= 0 {
		config.CallTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{invoker: invoker, config: config, logger: logger}, nil
}

// Classify sends text to every configured model and resolves the votes.
// It fails only when the input is degenerate or when every model failed;
// partial failure is tolerated and absorbed.
func (e *Engine) Classify(ctx context.Context, text string) (*card.ClassificationResult, error) {
	if strings.TrimSpace(text) == "" {
		// Fail fast before spending any API calls.
		return nil, fmt.Errorf("%w: classification text is empty", card.ErrInvalidInput)
	}

	hint := ""
	if e.config.FrequencyHint != nil {
		hint = e.config.FrequencyHint(ctx, text)
	}
	prompt := BuildPrompt(text, hint)

	votes := e.collectVotes(ctx, prompt)
	if len(votes) == 0 {
		return nil, fmt.Errorf("%w: %d models consulted, none produced a vote",
			card.ErrAllModelsUnavailable, len(e.config.ModelIDs))
	}

	level, confidence := resolveConsensus(votes)
	e.logger.Info("classification resolved",
		"level", level, "confidence", confidence,
		"votes", len(votes), "models", len(e.config.ModelIDs))

	return &card.ClassificationResult{Level: level, Confidence: confidence, Votes: votes}, nil
}

// collectVotes fans the prompt out to all models and waits for every call
// to settle. There is no early termination: plurality needs all available
// votes. Slots are indexed by dispatch order so the returned sequence
// preserves it regardless of completion order.
func (e *Engine) collectVotes(ctx context.Context, prompt string) []card.Vote {
	slots := make([]*card.Vote, len(e.config.ModelIDs))

	var mu sync.Mutex
	var wg sync.WaitGroup

	for i, modelID := range e.config.ModelIDs {
		wg.Add(1)
		go func(i int, modelID string) {
			defer wg.Done()

			callCtx, cancel := context.WithTimeout(ctx, e.config.CallTimeout)
			defer cancel()

			response, err := e.invoker.Invoke(callCtx, modelID, prompt)
			if err != nil {
				// Soft failure: this model contributes zero votes, not a
				// vote of "unknown".
				e.logger.Warn("model vote failed", "model", modelID, "error", err)
				return
			}

			vote, err := ParseVote(modelID, response)
			if err != nil {
				e.logger.Warn("model vote discarded", "model", modelID, "error", err)
				return
			}

			mu.Lock()
			slots[i] = &vote
			mu.Unlock()
		}(i, modelID)
	}
	wg.Wait()

	votes := make([]card.Vote, 0, len(slots))
	for _, v := range slots {
		if v != nil {
			votes = append(votes, *v)
		}
	}
	return votes
}

// resolveConsensus picks the plurality winner. Ties break by highest
// average self-reported confidence among the tied levels, then by lexical
// order of the level code, so the result is deterministic. The returned
// confidence is winners/total, independent of self-reported confidences.
func resolveConsensus(votes []card.Vote) (string, float64) {
	counts := make(map[string]int)
	confSums := make(map[string]float64)
	for _, v := range votes {
		counts[v.Level]++
		confSums[v.Level] += v.Confidence
	}

	levels := make([]string, 0, len(counts))
	for level := range counts {
		levels = append(levels, level)
	}
	sort.Slice(levels, func(i, j int) bool {
		li, lj := levels[i], levels[j]
		if counts[li] != counts[lj] {
			return counts[li] > counts[lj]
		}
		avgI := confSums[li] / float64(counts[li])
		avgJ := confSums[lj] / float64(counts[lj])
		if avgI != avgJ {
			return avgI > avgJ
		}
		return li < lj
	})

	winner := levels[0]
	return winner, float64(counts[winner]) / float64(len(votes))
}
