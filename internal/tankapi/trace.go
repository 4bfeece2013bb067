package tankapi

import (
	"fmt"
	"sync"
)

// TraceKind classifies a capability call for observability tooling.
type TraceKind string

const (
	KindSensor  TraceKind = "sensor"
	KindAction  TraceKind = "action"
	KindUtility TraceKind = "utility"
	KindConfig  TraceKind = "config"
)

// TraceEntry records one capability call made by a script during a tick.
type TraceEntry struct {
	Method string
	Args   string
	Result string
	Kind   TraceKind
}

// Trace accumulates the capability calls of one tick, in call order.
// It is cleared at the start of every tick and never read by script code.
type Trace struct {
	mu      sync.Mutex
	entries []TraceEntry
}

// NewTrace returns an empty trace buffer.
func NewTrace() *Trace {
	return &Trace{}
}

// Append adds one entry to the trace.
func (t *Trace) Append(e TraceEntry) {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.entries = append(t.entries, e)
	t.mu.Unlock()
}

// Reset clears the trace for a new tick.
func (t *Trace) Reset() {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.entries = t.entries[:0]
	t.mu.Unlock()
}

// Entries returns a copy of the recorded entries.
func (t *Trace) Entries() []TraceEntry {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]TraceEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of recorded entries.
func (t *Trace) Len() int {
	if t == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// render formats a value for trace display. Formatting must never raise, so
// anything that panics inside fmt is swallowed into a placeholder.
func render(v interface{}) (s string) {
	defer func() {
		if r := recover(); r != nil {
			s = "<unprintable>"
		}
	}()
	switch val := v.(type) {
	case nil:
		return "nil"
	case *EnemyInfo:
		if val == nil {
			return "nil"
		}
		return fmt.Sprintf("enemy(%s d=%.1f b=%.1f)", val.ID, val.Distance, val.Bearing)
	case []EnemyInfo:
		return fmt.Sprintf("%d enemies", len(val))
	case float64:
		return fmt.Sprintf("%.2f", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
