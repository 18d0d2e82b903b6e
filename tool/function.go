package tool

import (
	"time"

	"github.com/hupe1980/grocerymesh/core"
	"github.com/hupe1980/grocerymesh/internal/util"
	"github.com/hupe1980/grocerymesh/logging"
)

// FunctionTool adapts a plain Go function into a Tool.
//
// Arguments are validated against the parameter schema before the function
// runs. Failures surface as *ToolError:
//
//	VALIDATION_ERROR -> schema or argument mismatch
//	core.Kind        -> engine failure, message kept for the user
//	EXECUTION_ERROR  -> any other error
//
// A FunctionTool holds no mutable state and is safe for concurrent use.
type FunctionTool struct {
	name        string
	description string
	parameters  map[string]any
	fn          func(toolCtx *core.ToolContext, args map[string]any) (any, error)
}

// NewFunctionTool constructs a FunctionTool from an explicit schema.
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

// NewFunctionToolFromStruct derives the parameter schema from a struct.
//
// Example:
//
//	type trackArgs struct {
//	  OrderID string `json:"order_id" description:"Order id to track"`
//	}
//
//	t := NewFunctionToolFromStruct("track_order", "Track an existing order id", trackArgs{}, fn)
func NewFunctionToolFromStruct(
	name, description string,
	structType any,
	fn func(toolCtx *core.ToolContext, args map[string]any) (any, error),
) *FunctionTool {
	return NewFunctionTool(name, description, util.CreateSchema(structType), fn)
}

// Name returns the tool name.
func (t *FunctionTool) Name() string { return t.name }

// Description returns the description exposed to models.
func (t *FunctionTool) Description() string { return t.description }

// Parameters returns the JSON schema of accepted arguments.
func (t *FunctionTool) Parameters() map[string]any { return t.parameters }

// Call validates args and invokes the wrapped function.
func (t *FunctionTool) Call(toolCtx *core.ToolContext, args map[string]any) (any, error) {
	logger := toolCtx.Logger()
	start := time.Now()

	logger.Debug("tool.call.start", "tool", t.name, "fc_id", toolCtx.FunctionCallID())

	if args == nil {
		args = map[string]any{}
	}

	if err := util.ValidateParameters(args, t.parameters); err != nil {
		logger.Warn("tool.call.validation_failed", "tool", t.name, "error", err.Error())

		return nil, &ToolError{
			Tool:    t.name,
			Message: "parameter validation failed: " + err.Error(),
			Code:    CodeValidation,
			Details: err,
			Err:     err,
		}
	}

	result, err := t.fn(toolCtx, args)
	if err != nil {
		toolErr := FromError(t.name, err)
		logging.LogToolCall(logger, t.name, time.Since(start), toolErr)
		return nil, toolErr
	}

	logging.LogToolCall(logger, t.name, time.Since(start), nil)

	return result, nil
}
