// Package llm is the inference backend boundary. The rest of the system
// never depends on which concrete provider or model sits behind it.
package llm

import (
	"context"
)

// Client defines the interface for LLM interactions.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Result is the structured outcome of one generation request.
type Result struct {
	Success bool
	Content string
	Error   string
}

// Progress reports best-effort model load progress to the caller.
type Progress struct {
	Percent float64
	Status  string
	Elapsed float64 // seconds since the load began
}

// ProgressFunc receives load progress callbacks.
type ProgressFunc func(Progress)
