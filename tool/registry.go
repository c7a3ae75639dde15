package tool

import (
	"fmt"

	"github.com/GediminasPukys/clinic-voice-agent/core"
)

// Definition is the catalog entry exported to model configuration at session
// start: the contract the model uses to decide when and how to call each
// operation.
type Definition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Registry is a fixed catalog of named operations. It is populated once at
// startup and immutable thereafter, so concurrent sessions can resolve
// against it without locking.
type Registry struct {
	order []string
	tools map[string]Tool
}

// NewRegistry builds a registry from the given tools, preserving registration
// order for catalog export. Duplicate names are a programming error and fail
// construction.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		name := t.Name()
		if _, exists := r.tools[name]; exists {
			return nil, fmt.Errorf("duplicate tool name %q", name)
		}
		r.tools[name] = t
		r.order = append(r.order, name)
	}
	return r, nil
}

// MustNewRegistry is NewRegistry panicking on duplicate names; intended for
// static catalogs wired at startup.
func MustNewRegistry(tools ...Tool) *Registry {
	r, err := NewRegistry(tools...)
	if err != nil {
		panic(err)
	}
	return r
}

// Resolve returns the tool registered under name. An unregistered name yields
// an UnknownFunctionError.
func (r *Registry) Resolve(name string) (Tool, error) {
	t, ok := r.tools[name]
	if !ok {
		return nil, core.NewDomainError(core.ErrUnknownFunction, "unknown function %q", name)
	}
	return t, nil
}

// Len returns the number of registered operations.
func (r *Registry) Len() int { return len(r.order) }

// Definitions exports the ordered catalog for model configuration.
func (r *Registry) Definitions() []Definition {
	defs := make([]Definition, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		defs = append(defs, Definition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	return defs
}
