// Package tools exposes the assistant's structured capabilities: schema
// described operations over the pantry, recipes, grocery lists and meal
// plans, callable by the chat worker or directly over HTTP.
package tools

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Tool is one named capability. Parameters returns a minimal JSON-Schema
// shaped map describing the accepted arguments, suitable for LLM function
// calling. Call receives the acting user and arguments already decoded from
// JSON.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]any
	Call(ctx context.Context, userID uuid.UUID, args map[string]any) (any, error)
}

// Error codes attached to ToolError.
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeExecution  = "EXECUTION_ERROR"
	CodeUnknown    = "UNKNOWN_TOOL"
)

// ToolError carries a stable code so callers can categorize failures.
type ToolError struct {
	Tool    string `json:"tool"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
}

func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{
		Tool:    tool,
		Message: message,
		Code:    code,
	}
}

// FuncTool adapts a plain function into a Tool. It has no mutable state
// after construction and is safe for concurrent use.
type FuncTool struct {
	name        string
	description string
	parameters  map[string]any
	fn          func(ctx context.Context, userID uuid.UUID, args map[string]any) (any, error)
}

func NewFuncTool(name, description string, parameters map[string]any,
	fn func(ctx context.Context, userID uuid.UUID, args map[string]any) (any, error)) *FuncTool {
	return &FuncTool{
		name:        name,
		description: description,
		parameters:  parameters,
		fn:          fn,
	}
}

func (t *FuncTool) Name() string               { return t.name }
func (t *FuncTool) Description() string        { return t.description }
func (t *FuncTool) Parameters() map[string]any { return t.parameters }

func (t *FuncTool) Call(ctx context.Context, userID uuid.UUID, args map[string]any) (any, error) {
	result, err := t.fn(ctx, userID, args)
	if err != nil {
		var toolErr *ToolError
		if ok := asToolError(err, &toolErr); ok {
			return nil, toolErr
		}
		return nil, NewToolError(t.name, err.Error(), CodeExecution)
	}
	return result, nil
}

func asToolError(err error, target **ToolError) bool {
	te, ok := err.(*ToolError)
	if ok {
		*target = te
	}
	return ok
}

// stringArg extracts a required string argument.
func stringArg(tool string, args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok {
		return "", NewToolError(tool, fmt.Sprintf("missing required argument %q", key), CodeValidation)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", NewToolError(tool, fmt.Sprintf("argument %q must be a non-empty string", key), CodeValidation)
	}
	return s, nil
}

// optionalStringArg extracts a string argument, returning "" when absent.
func optionalStringArg(tool string, args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", NewToolError(tool, fmt.Sprintf("argument %q must be a string", key), CodeValidation)
	}
	return s, nil
}

// numberArg extracts an optional numeric argument with a default. JSON
// numbers decode as float64.
func numberArg(tool string, args map[string]any, key string, fallback float64) (float64, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return fallback, nil
	}
	n, ok := v.(float64)
	if !ok {
		return 0, NewToolError(tool, fmt.Sprintf("argument %q must be a number", key), CodeValidation)
	}
	return n, nil
}
