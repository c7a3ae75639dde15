// Package tool implements the function-calling subsystem of the clinic agent:
// the Tool contract, a schema-validating FunctionTool adapter, the immutable
// Registry exposed to the conversational model, and the clinic operation
// catalog itself.
package tool

import (
	"github.com/GediminasPukys/clinic-voice-agent/core"
)

// Tool defines a single named clinic operation callable by the model.
//
// Tool implementations should:
//   - Provide clear, descriptive names (snake_case) and descriptions; both are
//     surfaced verbatim to the model
//   - Define a JSON schema for parameters, used for model guidance and for
//     runtime argument validation
//   - Return *core.DomainError for expected failures so the dispatcher can
//     classify them; any other error is treated as internal
//   - Be safe for concurrent use across sessions (per-session state lives in
//     the ToolContext, never in the tool)
type Tool interface {
	// Name returns the unique operation identifier.
	Name() string

	// Description returns the natural-language description provided to the
	// model to decide when and how to call the operation.
	Description() string

	// Parameters returns a JSON schema describing the expected arguments.
	Parameters() map[string]any

	// Call executes the operation with validated arguments and the session's
	// ToolContext.
	Call(toolCtx *core.ToolContext, args map[string]any) (any, error)
}
