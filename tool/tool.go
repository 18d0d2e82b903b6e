// Package tool exposes engine operations as schema-validated function tools
// that a model can call, with uniform error codes and logging.
package tool

import (
	"errors"
	"fmt"

	"github.com/hupe1980/grocerymesh/core"
	"github.com/hupe1980/grocerymesh/internal/util"
)

// Tool is a callable capability advertised to a model.
//
// Implementations should:
//   - Provide clear snake_case names and short imperative descriptions
//   - Define a JSON schema for parameters
//   - Be safe for concurrent use
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description is shown to the model to decide when to call the tool.
	Description() string

	// Parameters returns a JSON schema describing the expected input.
	Parameters() map[string]any

	// Call executes the tool with decoded arguments.
	Call(toolCtx *core.ToolContext, args map[string]any) (any, error)
}

// ValidationError represents parameter validation errors with detailed information.
type ValidationError = util.ValidationError

// Generic error codes. Engine failures use their core.Kind as code.
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeExecution  = "EXECUTION_ERROR"
	CodeNotFound   = "TOOL_NOT_FOUND"
)

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string `json:"tool"`              // Name of the tool that failed
	Message string `json:"message"`           // User-facing message
	Code    string `json:"code"`              // Error code for categorization
	Details any    `json:"details,omitempty"` // Additional error details
	Err     error  `json:"-"`
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// Unwrap exposes the underlying cause so errors.Is works through a ToolError.
func (e *ToolError) Unwrap() error { return e.Err }

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{
		Tool:    tool,
		Message: message,
		Code:    code,
	}
}

// FromError converts err into a *ToolError. Engine errors keep their kind as
// code and their user-facing message.
func FromError(tool string, err error) *ToolError {
	var te *ToolError
	if errors.As(err, &te) {
		return te
	}
	if kind := core.KindOf(err); kind != "" {
		return &ToolError{Tool: tool, Message: core.MessageOf(err), Code: string(kind), Err: err}
	}
	return &ToolError{Tool: tool, Message: err.Error(), Code: CodeExecution, Err: err}
}
