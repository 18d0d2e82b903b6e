package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/hupe1980/grocerymesh/core"
	"github.com/hupe1980/grocerymesh/logging"
	"github.com/hupe1980/grocerymesh/model"
	"github.com/hupe1980/grocerymesh/tool"
)

// ErrMaxStepsExceeded is returned when the model keeps calling tools past
// the configured step budget.
var ErrMaxStepsExceeded = errors.New("agent: max steps exceeded")

const (
	defaultMaxSteps   = 6
	defaultMaxHistory = 40

	// NoModelReply is spoken when text matches no quick command and no model
	// is configured.
	NoModelReply = "Sorry, I can help with adding or removing items, your cart, recipes and orders."
	gaveUpReply  = "Sorry, I couldn't finish that request."
)

// Options configure an Assistant.
type Options struct {
	// Instruction is sent as the system prompt on every model call.
	Instruction Instruction

	// MaxSteps bounds model calls per user turn.
	MaxSteps int

	// MaxHistory bounds the retained conversation contents.
	MaxHistory int

	// DisableCommands sends every utterance to the model.
	DisableCommands bool

	// Executor runs tool calls. Defaults to a sequential executor.
	Executor *Executor

	Logger logging.Logger
}

// Assistant is the dialogue layer of one session. Quick commands are mapped
// to tools directly; everything else goes through a model tool-calling loop.
// Turns are serialized per assistant.
type Assistant struct {
	sessionID string
	model     model.Model
	tools     map[string]tool.Tool
	defs      []model.ToolDefinition
	opts      Options
	logger    logging.Logger

	mu      sync.Mutex
	history []core.Content
}

// NewAssistant creates an assistant. m may be nil, in which case only quick
// commands are understood.
func NewAssistant(sessionID string, m model.Model, tools []tool.Tool, optFns ...func(o *Options)) *Assistant {
	opts := Options{
		MaxSteps:   defaultMaxSteps,
		MaxHistory: defaultMaxHistory,
		Logger:     logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	logger := logging.With(opts.Logger, "session_id", sessionID)
	if opts.Executor == nil {
		opts.Executor = NewExecutor(ExecutorConfig{MaxParallel: 1}, logger)
	}
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = defaultMaxSteps
	}
	if opts.MaxHistory <= 0 {
		opts.MaxHistory = defaultMaxHistory
	}

	return &Assistant{
		sessionID: sessionID,
		model:     m,
		tools:     tool.Index(tools),
		defs:      ToolDefinitions(tools),
		opts:      opts,
		logger:    logger,
	}
}

// ToolDefinitions describes tools for a model request.
func ToolDefinitions(tools []tool.Tool) []model.ToolDefinition {
	defs := make([]model.ToolDefinition, 0, len(tools))
	for _, t := range tools {
		defs = append(defs, model.ToolDefinition{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}
	return defs
}

// Respond handles one user utterance and returns the reply to speak.
func (a *Assistant) Respond(ctx context.Context, text string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.opts.DisableCommands {
		if cmd, ok := MatchCommand(text); ok {
			reply := a.runCommand(ctx, cmd)
			a.remember(core.NewTextContent(model.RoleUser, text), core.NewTextContent(model.RoleAssistant, reply))
			return reply, nil
		}
	}

	if a.model == nil {
		return NoModelReply, nil
	}

	return a.runModel(ctx, text)
}

// Reset forgets the conversation history.
func (a *Assistant) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.history = nil
}

// History returns a copy of the retained conversation.
func (a *Assistant) History() []core.Content {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]core.Content(nil), a.history...)
}

func (a *Assistant) runCommand(ctx context.Context, cmd Command) string {
	args, err := json.Marshal(cmd.Args)
	if err != nil {
		return gaveUpReply
	}
	a.logger.Debug("agent.command.matched", "tool", cmd.Tool)
	fc := core.FunctionCall{ID: "cmd-" + uuid.NewString(), Name: cmd.Tool, Arguments: string(args)}
	return replyText(a.opts.Executor.Execute(ctx, a.sessionID, a.tools, []core.FunctionCall{fc})[0])
}

func (a *Assistant) runModel(ctx context.Context, text string) (string, error) {
	instruction, err := a.opts.Instruction.Resolve(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve instruction: %w", err)
	}

	a.remember(core.NewTextContent(model.RoleUser, text))

	for step := 0; step < a.opts.MaxSteps; step++ {
		resp, err := a.model.Generate(ctx, model.Request{
			Instructions: instruction,
			Contents:     a.history,
			Tools:        a.defs,
		})
		if err != nil {
			a.logger.Error("agent.model.failed", "step", step, "error", err)
			return "", fmt.Errorf("generate: %w", err)
		}

		content := resp.Content
		content.Role = model.RoleAssistant
		calls := content.FunctionCalls()
		if len(calls) == 0 {
			a.remember(content)
			return content.Text(), nil
		}

		for i, p := range content.Parts {
			if fcp, ok := p.(core.FunctionCallPart); ok && fcp.FunctionCall.ID == "" {
				fcp.FunctionCall.ID = "call-" + uuid.NewString()
				content.Parts[i] = fcp
			}
		}
		calls = content.FunctionCalls()
		a.remember(content)

		results := a.opts.Executor.Execute(ctx, a.sessionID, a.tools, calls)
		parts := make([]core.Part, 0, len(results))
		for _, r := range results {
			parts = append(parts, core.FunctionResponsePart{FunctionResponse: r})
		}
		a.remember(core.Content{Role: model.RoleTool, Parts: parts})
	}

	a.logger.Warn("agent.max_steps_exceeded", "max_steps", a.opts.MaxSteps)
	return gaveUpReply, ErrMaxStepsExceeded
}

// remember appends contents and trims history at a user turn boundary so a
// tool call is never separated from its response.
func (a *Assistant) remember(contents ...core.Content) {
	a.history = append(a.history, contents...)
	if len(a.history) <= a.opts.MaxHistory {
		return
	}
	start := len(a.history) - a.opts.MaxHistory
	for start < len(a.history) && a.history[start].Role != model.RoleUser {
		start++
	}
	if start >= len(a.history) {
		return
	}
	a.history = append([]core.Content(nil), a.history[start:]...)
}

func replyText(r core.FunctionResponse) string {
	if r.Error != "" {
		return r.Error
	}
	s, _ := model.ToolResultText(r)
	return s
}
