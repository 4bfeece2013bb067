// Package generator sequences strategy text through the inference backend
// and the admission pipeline, producing accepted tank behaviors or
// structured failures the caller can show and retry on.
package generator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"tankforge/internal/llm"
	"tankforge/internal/logging"
	"tankforge/internal/script"
)

// TankBehavior is the accepted (or rejected) artifact bound to one
// player-configurable agent slot. It is replaced wholesale on regeneration,
// never mutated in place.
type TankBehavior struct {
	ID           string
	Code         string
	StrategyText string
	IsValid      bool
	Error        string
	CreatedAt    time.Time
}

// GenerationResult is the outcome of one generation attempt. On validation
// failure, RawText and a best-effort invalid Behavior are still populated so
// the caller can show what was attempted.
type GenerationResult struct {
	Success  bool
	Behavior *TankBehavior
	Error    string
	RawText  string
}

// Generator turns strategy text into validated script bodies.
type Generator struct {
	backend   *llm.Backend
	validator *script.Validator
}

// New creates a generator over the given backend.
func New(backend *llm.Backend) *Generator {
	return &Generator{
		backend:   backend,
		validator: script.NewValidator(),
	}
}

// Generate runs one strategy-to-script attempt: backend call, clean,
// validate. It fails fast, without calling the backend, when the backend is
// not ready.
func (g *Generator) Generate(ctx context.Context, strategyText string) *GenerationResult {
	return g.generate(ctx, strategyText, fmt.Sprintf(userPromptTemplate, strategyText))
}

func (g *Generator) generate(ctx context.Context, strategyText, userPrompt string) *GenerationResult {
	timer := logging.StartTimer(logging.CategoryGeneration, "Generate")
	defer timer.Stop()

	if !g.backend.IsAvailable() {
		return &GenerationResult{
			Success: false,
			Error:   fmt.Sprintf("inference backend not available (state: %s)", g.backend.State()),
		}
	}

	logging.Generation("generating script for strategy (%d bytes)", len(strategyText))

	res := g.backend.Generate(ctx, systemPrompt, userPrompt)
	if !res.Success {
		logging.Generation("backend call failed: %s", res.Error)
		return &GenerationResult{Success: false, Error: res.Error}
	}

	validation := g.validator.Validate(res.Content)
	cleaned := g.validator.CleanedCode()

	behavior := &TankBehavior{
		ID:           uuid.NewString(),
		Code:         cleaned,
		StrategyText: strategyText,
		IsValid:      validation.Valid,
		CreatedAt:    time.Now(),
	}

	if !validation.Valid {
		behavior.Error = strings.Join(validation.Errors, "; ")
		logging.Generation("generated script rejected: %s", behavior.Error)
		return &GenerationResult{
			Success:  false,
			Behavior: behavior,
			Error:    behavior.Error,
			RawText:  res.Content,
		}
	}

	for _, w := range validation.Warnings {
		logging.Generation("validation warning: %s", w)
	}
	logging.Generation("script accepted (%d bytes)", len(cleaned))
	return &GenerationResult{
		Success:  true,
		Behavior: behavior,
		RawText:  res.Content,
	}
}

// GenerateWithAutoRetry calls Generate, then retries with the failing code
// and its rejection fed back as context, up to maxAttempts additional
// attempts. Retrying stops early when there is no candidate code at all to
// iterate on. The final failure names the attempt count and the last
// underlying error.
func (g *Generator) GenerateWithAutoRetry(ctx context.Context, strategyText string, maxAttempts int) *GenerationResult {
	result := g.Generate(ctx, strategyText)
	if result.Success {
		return result
	}

	attempts := 0
	for attempts < maxAttempts && !result.Success {
		if result.Behavior == nil || result.Behavior.Code == "" {
			// Nothing useful to show the model as "what went wrong".
			logging.Generation("no candidate code to iterate on; stopping retries")
			break
		}

		attempts++
		logging.Generation("retry %d/%d after: %s", attempts, maxAttempts, result.Error)

		prompt := fmt.Sprintf(feedbackPromptTemplate,
			result.Behavior.Code,
			result.Error,
			hintsFor(result.Error),
			strategyText)

		result = g.generate(ctx, strategyText, prompt)
	}

	if !result.Success {
		result.Error = fmt.Sprintf("generation failed after %d attempt(s): %s", attempts+1, result.Error)
	}
	return result
}

// hintsFor collects hand-authored hints whose trigger appears in the
// rejection text.
func hintsFor(errText string) string {
	var b strings.Builder
	for _, h := range retryHints {
		if strings.Contains(errText, h.match) {
			b.WriteString("Hint: ")
			b.WriteString(h.hint)
			b.WriteString("\n")
		}
	}
	return b.String()
}
