package session

import (
	"sync"
	"time"

	"github.com/GediminasPukys/clinic-voice-agent/clinic"
)

// historyLimit bounds the per-session invocation history. Older entries are
// discarded; the call log keeps the full audit trail.
const historyLimit = 32

// HistoryEntry records one prior invocation within the session.
type HistoryEntry struct {
	Function string    `json:"function"`
	Status   string    `json:"status"`
	At       time.Time `json:"at"`
}

// Snapshot is an immutable view of the context attached to call log entries.
type Snapshot struct {
	SessionID         string `json:"session_id"`
	PatientID         int64  `json:"patient_id,omitempty"`
	PatientName       string `json:"patient_name,omitempty"`
	InvocationCount   int    `json:"invocation_count"`
	HasPatientContext bool   `json:"has_patient_context"`
}

// Context is the mutable state of one live conversation. Within a session
// invocations execute strictly sequentially, but the transport goroutine and
// the call logger may observe the context concurrently, so access is guarded.
//
// The current-patient link is a non-owning reference: the store keeps the
// record, the context only remembers which patient the caller identified as.
type Context struct {
	id string

	mu      sync.Mutex
	patient *clinic.Patient
	history []HistoryEntry
	started time.Time
}

// NewContext creates a fresh context for a conversation.
func NewContext(id string) *Context {
	return &Context{id: id, started: time.Now()}
}

// ID returns the session identifier.
func (c *Context) ID() string { return c.id }

// CurrentPatient returns the currently identified patient, or nil when the
// caller has not been identified yet.
func (c *Context) CurrentPatient() *clinic.Patient {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.patient
}

// SetCurrentPatient records the identified patient so subsequent invocations
// in the same session need not re-identify the caller.
func (c *Context) SetCurrentPatient(p *clinic.Patient) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.patient = p
}

// Clear resets the identity and history, returning the context to its
// session-start state.
func (c *Context) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.patient = nil
	c.history = nil
}

// RecordInvocation appends an invocation outcome to the bounded history.
func (c *Context) RecordInvocation(function, status string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = append(c.history, HistoryEntry{Function: function, Status: status, At: time.Now()})
	if len(c.history) > historyLimit {
		c.history = c.history[len(c.history)-historyLimit:]
	}
}

// History returns a defensive copy of the invocation history.
func (c *Context) History() []HistoryEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]HistoryEntry, len(c.history))
	copy(out, c.history)
	return out
}

// Snapshot captures the state relevant for call log correlation.
func (c *Context) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := Snapshot{
		SessionID:       c.id,
		InvocationCount: len(c.history),
	}
	if c.patient != nil {
		snap.PatientID = c.patient.ID
		snap.PatientName = c.patient.Name
		snap.HasPatientContext = true
	}
	return snap
}
