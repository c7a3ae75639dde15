package tool

import (
	"github.com/GediminasPukys/clinic-voice-agent/core"
	"github.com/GediminasPukys/clinic-voice-agent/internal/util"
)

// FunctionTool adapts a plain Go function into a Tool.
//
// Responsibilities:
//   - Holds a JSON-Schema-like parameter specification
//   - Validates model-supplied arguments against that schema before execution
//   - Invokes the wrapped function with the session's *core.ToolContext
//
// A FunctionTool has no internal mutable state after construction and is safe
// for concurrent use by multiple goroutines.
type FunctionTool struct {
	// Operation identifier (snake_case)
	name string
	// Human-readable description shown to models
	description string
	// JSON schema describing accepted arguments
	parameters map[string]any
	// Implementation receiving already-validated args
	fn func(toolCtx *core.ToolContext, args map[string]any) (any, error)
}

// NewFunctionTool constructs a FunctionTool from explicit schema and function.
func NewFunctionTool(
	name, description string,
	parameters map[string]any,
	fn func(toolCtx *core.ToolContext, args map[string]any) (any, error),
) *FunctionTool {
	return &FunctionTool{
		name:        name,
		description: description,
		parameters:  parameters,
		fn:          fn,
	}
}

// NewFunctionToolFromStruct derives the parameter schema from a struct's json
// and description tags, equivalent to util.CreateSchema(argsType).
func NewFunctionToolFromStruct(
	name, description string,
	argsType any,
	fn func(toolCtx *core.ToolContext, args map[string]any) (any, error),
) *FunctionTool {
	return NewFunctionTool(name, description, util.CreateSchema(argsType), fn)
}

// Name returns the unique operation name used in catalog export and routing.
func (t *FunctionTool) Name() string { return t.name }

// Description returns the natural-language description exposed to models.
func (t *FunctionTool) Description() string { return t.description }

// Parameters returns the JSON schema describing expected arguments.
func (t *FunctionTool) Parameters() map[string]any { return t.parameters }

// Call validates the provided args against the declared schema then invokes
// the underlying function. A schema mismatch yields a ValidationError without
// the function ever running.
func (t *FunctionTool) Call(toolCtx *core.ToolContext, args map[string]any) (any, error) {
	if err := util.ValidateParameters(args, t.parameters); err != nil {
		toolCtx.LogWarn("tool.call.validation_failed", "tool", t.name, "error", err.Error())
		return nil, &core.DomainError{Kind: core.ErrValidation, Message: err.Error(), Err: err}
	}
	return t.fn(toolCtx, args)
}
