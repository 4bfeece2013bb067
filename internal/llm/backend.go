package llm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tankforge/internal/logging"
)

// State is the backend lifecycle state.
type State int

const (
	StateUnloaded State = iota
	StateLoading
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ClientFactory builds a Client for a model id. Injected so the lifecycle is
// testable without a real provider.
type ClientFactory func(modelID string) (Client, error)

// Backend wraps a Client with an explicit lifecycle state machine:
// Unloaded -> Loading -> Ready (or Failed). Only one load may be in progress
// at a time; a concurrent load call is rejected outright rather than queued
// or raced.
type Backend struct {
	mu      sync.Mutex
	state   State
	modelID string
	client  Client
	lastErr string

	factory ClientFactory
}

// NewBackend creates an unloaded backend with the given client factory.
func NewBackend(factory ClientFactory) *Backend {
	return &Backend{factory: factory}
}

// State returns the current lifecycle state.
func (b *Backend) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// IsAvailable reports whether the backend is ready to serve generations.
func (b *Backend) IsAvailable() bool {
	return b.State() == StateReady
}

// ModelID returns the currently loaded model id, if any.
func (b *Backend) ModelID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.modelID
}

// LastError returns the most recent load or generation failure reason.
func (b *Backend) LastError() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastErr
}

// LoadModel transitions the backend to Ready for the given model id.
// Loading the already-loaded id is an idempotent no-op. A load arriving
// while another is in flight is rejected.
func (b *Backend) LoadModel(ctx context.Context, modelID string, onProgress ProgressFunc) error {
	b.mu.Lock()
	switch b.state {
	case StateLoading:
		b.mu.Unlock()
		return fmt.Errorf("model load already in progress")
	case StateReady:
		if b.modelID == modelID {
			b.mu.Unlock()
			logging.BackendDebug("LoadModel: %s already loaded", modelID)
			return nil
		}
	}
	b.state = StateLoading
	b.mu.Unlock()

	logging.Backend("loading model %s", modelID)
	start := time.Now()
	report := func(percent float64, status string) {
		if onProgress != nil {
			onProgress(Progress{
				Percent: percent,
				Status:  status,
				Elapsed: time.Since(start).Seconds(),
			})
		}
	}

	report(0, "initializing client")

	client, err := b.factory(modelID)

	b.mu.Lock()
	defer b.mu.Unlock()

	if ctx.Err() != nil {
		err = ctx.Err()
	}
	if err != nil {
		b.state = StateFailed
		b.lastErr = err.Error()
		logging.Backend("model load failed: %v", err)
		report(100, "load failed")
		return fmt.Errorf("load model %s: %w", modelID, err)
	}

	b.client = client
	b.modelID = modelID
	b.state = StateReady
	b.lastErr = ""
	report(100, "ready")
	logging.Backend("model %s ready (%.1fs)", modelID, time.Since(start).Seconds())
	return nil
}

// Generate runs one completion. It never returns a Go error for provider
// failures; the outcome is always a structured Result the orchestrator can
// surface and retry on.
func (b *Backend) Generate(ctx context.Context, systemPrompt, userPrompt string) Result {
	b.mu.Lock()
	client := b.client
	state := b.state
	b.mu.Unlock()

	if state != StateReady || client == nil {
		return Result{Success: false, Error: fmt.Sprintf("backend not ready (state: %s)", state)}
	}

	timer := logging.StartTimer(logging.CategoryBackend, "Generate")
	defer timer.Stop()

	content, err := client.CompleteWithSystem(ctx, systemPrompt, userPrompt)
	if err != nil {
		b.mu.Lock()
		b.lastErr = err.Error()
		b.mu.Unlock()
		return Result{Success: false, Error: err.Error()}
	}
	if content == "" {
		return Result{Success: false, Error: "backend returned empty content"}
	}
	return Result{Success: true, Content: content}
}

// Unload drops the client and returns to Unloaded. Safe to call in any
// state except mid-load.
func (b *Backend) Unload() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateLoading {
		return
	}
	b.client = nil
	b.modelID = ""
	b.state = StateUnloaded
	logging.Backend("model unloaded")
}
