// Package calllog records every function invocation for audit and debugging.
// Recording is fire-and-forget from the dispatcher's perspective: a sink
// failure is reported through the agent's logger but never fails the
// invocation it describes.
package calllog

import (
	"time"
	"unicode/utf8"

	"github.com/GediminasPukys/clinic-voice-agent/core"
	"github.com/GediminasPukys/clinic-voice-agent/session"
)

// resultLimit truncates recorded payloads so a single verbose result cannot
// bloat the log stream.
const resultLimit = 500

// Entry is one structured invocation record. Entries are append-only,
// ordered by invocation completion time.
type Entry struct {
	Timestamp    time.Time        `json:"timestamp"`
	SessionID    string           `json:"session_id"`
	InvocationID string           `json:"invocation_id"`
	Function     string           `json:"function"`
	Arguments    map[string]any   `json:"arguments,omitempty"`
	Status       string           `json:"status"`
	Code         core.ErrorKind   `json:"code,omitempty"`
	Result       string           `json:"result,omitempty"`
	DurationMs   int64            `json:"duration_ms"`
	Context      session.Snapshot `json:"context"`
}

// Truncate caps the result payload at resultLimit bytes, backing up to a rune
// boundary so the stored prefix stays valid UTF-8.
func (e *Entry) Truncate() {
	if len(e.Result) <= resultLimit {
		return
	}
	cut := resultLimit
	for cut > 0 && !utf8.RuneStart(e.Result[cut]) {
		cut--
	}
	e.Result = e.Result[:cut]
}

// Recorder persists invocation entries. Implementations must never block the
// caller for long and must swallow their own failures.
type Recorder interface {
	// Record appends an entry to the log.
	Record(entry Entry)

	// Close flushes pending entries and releases the sink.
	Close() error
}

// NoOpRecorder discards all entries. Useful for tests and minimal setups.
type NoOpRecorder struct{}

// Record discards the entry.
func (NoOpRecorder) Record(Entry) {}

// Close is a no-op.
func (NoOpRecorder) Close() error { return nil }
