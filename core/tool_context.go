package core

import (
	"context"
	"fmt"

	"github.com/GediminasPukys/clinic-voice-agent/logging"
	"github.com/GediminasPukys/clinic-voice-agent/session"
)

// ToolContext provides a constrained, auditable surface for function handlers
// invoked by the dispatcher. Handlers read and update the session's current
// patient through it but never hold the context beyond the call.
type ToolContext struct {
	ctx            context.Context
	session        *session.Context
	invocationID   string
	functionCallID string

	*loggerAdapter
}

// NewToolContext constructs a tool context bound to a session and a unique
// function call id.
func NewToolContext(
	ctx context.Context,
	sess *session.Context,
	invocationID, functionCallID string,
	logger logging.Logger,
) *ToolContext {
	return &ToolContext{
		ctx:            ctx,
		session:        sess,
		invocationID:   invocationID,
		functionCallID: functionCallID,
		loggerAdapter:  newLoggerAdapter(logger),
	}
}

// Context returns the context associated with the invocation. Storage calls
// made by handlers must honor its deadline.
func (tc *ToolContext) Context() context.Context { return tc.ctx }

// Session returns the per-conversation state shared across handler calls.
func (tc *ToolContext) Session() *session.Context { return tc.session }

// SessionID returns the session ID associated with the invocation.
func (tc *ToolContext) SessionID() string {
	if tc.session == nil {
		return ""
	}
	return tc.session.ID()
}

// InvocationID returns the dispatcher-assigned invocation ID.
func (tc *ToolContext) InvocationID() string { return tc.invocationID }

// FunctionCallID returns the provider-assigned function call ID, correlating
// the model's request with the emitted response.
func (tc *ToolContext) FunctionCallID() string { return tc.functionCallID }

// Logger returns the logger associated with the invocation.
func (tc *ToolContext) Logger() logging.Logger { return tc.loggerAdapter.Logger() }

// Validate performs a structural sanity check of the context.
func (tc *ToolContext) Validate() error {
	if tc.ctx == nil || tc.session == nil || tc.functionCallID == "" {
		return fmt.Errorf("invalid ToolContext")
	}
	return nil
}
