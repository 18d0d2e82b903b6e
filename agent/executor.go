package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/hupe1980/grocerymesh/core"
	"github.com/hupe1980/grocerymesh/logging"
	"github.com/hupe1980/grocerymesh/tool"
)

// ExecutorConfig configures an Executor.
type ExecutorConfig struct {
	MaxParallel int // 0 or <1 => len(calls)
}

// Executor runs a batch of function calls and returns exactly one response
// per call in call order. It never panics: a panicking tool produces an
// error response.
type Executor struct {
	cfg    ExecutorConfig
	logger logging.Logger
}

// NewExecutor creates an Executor.
func NewExecutor(cfg ExecutorConfig, logger logging.Logger) *Executor {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Executor{cfg: cfg, logger: logger}
}

// Execute runs calls against tools. Calls not started before ctx is done get
// a cancellation error response.
func (e *Executor) Execute(ctx context.Context, sessionID string, tools map[string]tool.Tool, calls []core.FunctionCall) []core.FunctionResponse {
	n := len(calls)
	out := make([]core.FunctionResponse, n)
	if n == 0 {
		return out
	}
	if n == 1 {
		out[0] = e.executeOne(ctx, sessionID, tools, calls[0])
		return out
	}

	maxPar := e.cfg.MaxParallel
	if maxPar <= 0 || maxPar > n {
		maxPar = n
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, maxPar)
	batchStart := time.Now()

	for i, fc := range calls {
		if ctx.Err() != nil {
			out[i] = errorResponse(fc, ctx.Err())
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, fc core.FunctionCall) {
			defer wg.Done()
			defer func() { <-sem }()
			out[idx] = e.executeOne(ctx, sessionID, tools, fc)
		}(i, fc)
	}
	wg.Wait()

	e.logger.Debug("agent.functions.batch.complete",
		"count", n,
		"parallelism", maxPar,
		"duration_ms", time.Since(batchStart).Milliseconds(),
	)
	return out
}

func (e *Executor) executeOne(ctx context.Context, sessionID string, tools map[string]tool.Tool, fc core.FunctionCall) core.FunctionResponse {
	if err := ctx.Err(); err != nil {
		return errorResponse(fc, err)
	}
	toolCtx := core.NewToolContext(ctx, sessionID, fc.ID, e.logger)

	start := time.Now()
	var (
		result any
		err    error
	)
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = panicError(r)
				e.logger.Error("agent.function.panic", "function", fc.Name, "recover", r)
			}
		}()
		result, err = executeTool(tools, toolCtx, fc.Name, fc.Arguments)
	}()

	e.logger.Info("agent.function.executed",
		"function", fc.Name,
		"function_call_id", fc.ID,
		"duration_ms", time.Since(start).Milliseconds(),
		"error", err != nil,
	)

	if err != nil {
		return errorResponse(fc, err)
	}
	return core.FunctionResponse{ID: fc.ID, Name: fc.Name, Response: result}
}

func errorResponse(fc core.FunctionCall, err error) core.FunctionResponse {
	msg := err.Error()
	var te *tool.ToolError
	if errors.As(err, &te) {
		msg = te.Message
	}
	return core.FunctionResponse{ID: fc.ID, Name: fc.Name, Error: msg}
}

// panicError converts a recovered panic value to an error.
func panicError(r any) error { return &panicErr{val: r, stack: debug.Stack()} }

type panicErr struct {
	val   any
	stack []byte
}

func (p *panicErr) Error() string { return fmt.Sprintf("panic recovered: %v", p.val) }

// executeTool looks up toolName and calls it with decoded JSON arguments.
func executeTool(tools map[string]tool.Tool, toolCtx *core.ToolContext, toolName, args string) (any, error) {
	impl, ok := tools[toolName]
	if !ok {
		return nil, tool.NewToolError(toolName, fmt.Sprintf("tool %s not found", toolName), tool.CodeNotFound)
	}

	argMap := map[string]any{}
	if args != "" {
		if err := json.Unmarshal([]byte(args), &argMap); err != nil {
			return nil, tool.NewToolError(toolName, "failed to unmarshal args: "+err.Error(), tool.CodeValidation)
		}
	}
	return impl.Call(toolCtx, argMap)
}
