// Package tools holds the deterministic helpers a model may call while it
// reasons about an expense.
package tools

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/Veraticus/geospice/internal/llm"
	"github.com/Veraticus/geospice/internal/model"
	"github.com/sashabaranov/go-openai/jsonschema"
)

// Registry errors.
var (
	ErrUnknownTool       = errors.New("unknown tool")
	ErrInvalidArguments  = errors.New("invalid tool arguments")
	ErrToolFailed        = errors.New("tool failed")
	errDuplicateToolName = errors.New("duplicate tool name")
)

// Tool is a side-effect-free helper exposed to the model.
type Tool interface {
	Definition() llm.ToolDefinition
	Call(args json.RawMessage) (any, error)
}

// Registry is an immutable set of tools keyed by name.
type Registry struct {
	tools map[string]Tool
	order []string
}

// NewRegistry creates a registry. Tool names must be unique.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		name := t.Definition().Name
		if _, exists := r.tools[name]; exists {
			return nil, fmt.Errorf("%w: %s", errDuplicateToolName, name)
		}
		r.tools[name] = t
		r.order = append(r.order, name)
	}
	return r, nil
}

// Default returns the registry with the amount range and weekday helpers.
func Default() *Registry {
	r, _ := NewRegistry(AmountRangeTool{}, DayOfWeekTool{})
	return r
}

// Definitions returns the tool declarations in registration order.
func (r *Registry) Definitions() []llm.ToolDefinition {
	if r == nil {
		return nil
	}
	defs := make([]llm.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].Definition())
	}
	return defs
}

// Names returns the registered tool names, sorted.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := append([]string(nil), r.order...)
	sort.Strings(names)
	return names
}

// Invoke validates args against the tool's declared schema and runs it.
// The returned invocation is populated even when err is non-nil, with
// Error describing the failure.
func (r *Registry) Invoke(name string, args json.RawMessage) (inv model.ToolInvocation, err error) {
	if len(bytes.TrimSpace(args)) == 0 {
		args = json.RawMessage("{}")
	}
	inv = model.ToolInvocation{Name: name, Arguments: args}

	defer func() {
		if err != nil {
			inv.Error = err.Error()
		}
	}()

	var tool Tool
	if r != nil {
		tool = r.tools[name]
	}
	if tool == nil {
		return inv, fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}

	if err := validateArguments(tool.Definition().Parameters, args); err != nil {
		return inv, err
	}

	result, err := safeCall(tool, args)
	if err != nil {
		return inv, err
	}

	encoded, err := json.Marshal(result)
	if err != nil {
		return inv, fmt.Errorf("%w: failed to encode result: %v", ErrToolFailed, err)
	}
	inv.Result = encoded
	return inv, nil
}

func safeCall(tool Tool, args json.RawMessage) (result any, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrToolFailed, p)
		}
	}()
	result, err = tool.Call(args)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrToolFailed, err)
	}
	return result, nil
}

// validateArguments checks that args is an object carrying every required
// property with the declared JSON type. Undeclared properties are ignored.
func validateArguments(schema jsonschema.Definition, args json.RawMessage) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(args, &fields); err != nil || fields == nil {
		return fmt.Errorf("%w: arguments must be a JSON object", ErrInvalidArguments)
	}

	for _, key := range schema.Required {
		raw, ok := fields[key]
		if !ok || isNull(raw) {
			return fmt.Errorf("%w: missing required argument %q", ErrInvalidArguments, key)
		}
	}

	for key, raw := range fields {
		prop, declared := schema.Properties[key]
		if !declared || isNull(raw) {
			continue
		}
		if !matchesType(raw, prop.Type) {
			return fmt.Errorf("%w: argument %q must be of type %s", ErrInvalidArguments, key, prop.Type)
		}
	}
	return nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func matchesType(raw json.RawMessage, want jsonschema.DataType) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return false
	}
	switch want {
	case jsonschema.String:
		return trimmed[0] == '"'
	case jsonschema.Number:
		var f float64
		return json.Unmarshal(trimmed, &f) == nil
	case jsonschema.Integer:
		var i int64
		return json.Unmarshal(trimmed, &i) == nil
	case jsonschema.Boolean:
		var b bool
		return json.Unmarshal(trimmed, &b) == nil
	case jsonschema.Object:
		return trimmed[0] == '{'
	case jsonschema.Array:
		return trimmed[0] == '['
	default:
		return true
	}
}
