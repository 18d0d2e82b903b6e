package core

import (
	"context"
	"fmt"

	"github.com/hupe1980/grocerymesh/logging"
)

// ToolContext is the constrained surface handed to tool implementations. It
// scopes a call to a session and a function call id and carries the logger.
type ToolContext struct {
	ctx            context.Context
	sessionID      string
	functionCallID string
	logger         logging.Logger
}

// NewToolContext binds a tool call to ctx, a session and a function call id.
// A nil logger discards output.
func NewToolContext(ctx context.Context, sessionID, functionCallID string, logger logging.Logger) *ToolContext {
	if ctx == nil {
		ctx = context.Background()
	}
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &ToolContext{
		ctx:            ctx,
		sessionID:      sessionID,
		functionCallID: functionCallID,
		logger:         logger,
	}
}

// Context returns the context associated with the tool invocation.
func (tc *ToolContext) Context() context.Context { return tc.ctx }

// SessionID returns the session the call belongs to.
func (tc *ToolContext) SessionID() string { return tc.sessionID }

// FunctionCallID returns the function call identifier.
func (tc *ToolContext) FunctionCallID() string { return tc.functionCallID }

// Logger returns the logger associated with the tool invocation.
func (tc *ToolContext) Logger() logging.Logger { return tc.logger }

// Validate performs a structural sanity check of the context.
func (tc *ToolContext) Validate() error {
	if tc.sessionID == "" || tc.functionCallID == "" {
		return fmt.Errorf("invalid ToolContext")
	}
	return nil
}
