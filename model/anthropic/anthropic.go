// Package anthropic implements model.Model on the Anthropic Messages API.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"

	"github.com/hupe1980/grocerymesh/core"
	"github.com/hupe1980/grocerymesh/model"
)

// Options configures the Anthropic model adapter.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

// Model wraps the Anthropic Messages API behind model.Model.
type Model struct {
	client *anthropic.Client
	opts   Options
}

func defaultOptions() Options {
	return Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   1024,
	}
}

// NewModel creates a model using the official client.
func NewModel(optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)

	return &Model{client: &client, opts: opts}
}

// NewModelFromClient creates a model from an existing client.
func NewModelFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

// Generate sends the conversation and returns the assistant turn.
func (m *Model) Generate(ctx context.Context, req model.Request) (model.Response, error) {
	params := anthropic.MessageNewParams{
		Model:       m.opts.Model,
		Messages:    buildMessages(req.Contents),
		MaxTokens:   m.opts.MaxTokens,
		Temperature: anthropic.Float(m.opts.Temperature),
	}
	if system := systemBlocks(req); len(system) > 0 {
		params.System = system
	}
	if len(req.Tools) > 0 {
		params.Tools = buildTools(req.Tools)
	}

	resp, err := m.client.Messages.New(ctx, params)
	if err != nil {
		return model.Response{}, fmt.Errorf("anthropic api error: %w", err)
	}

	var parts []core.Part
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			if tb := block.AsText(); tb.Text != "" {
				parts = append(parts, core.TextPart{Text: tb.Text})
			}
		case "tool_use":
			tu := block.AsToolUse()
			args := "{}"
			if tu.Input != nil {
				if b, err := json.Marshal(tu.Input); err == nil && string(b) != "null" {
					args = string(b)
				}
			}
			parts = append(parts, core.FunctionCallPart{FunctionCall: core.FunctionCall{
				ID:        tu.ID,
				Name:      tu.Name,
				Arguments: args,
			}})
		}
	}

	finishReason := "stop"
	if resp.StopReason != "" {
		finishReason = string(resp.StopReason)
	}

	return model.Response{
		ID:           resp.ID,
		Content:      core.Content{Role: model.RoleAssistant, Parts: parts},
		FinishReason: finishReason,
		Usage: &model.TokenUsage{
			PromptTokens:     int(resp.Usage.InputTokens),
			CompletionTokens: int(resp.Usage.OutputTokens),
			TotalTokens:      int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
		},
	}, nil
}

func systemBlocks(req model.Request) []anthropic.TextBlockParam {
	var blocks []anthropic.TextBlockParam
	if req.Instructions != "" {
		blocks = append(blocks, anthropic.TextBlockParam{Text: req.Instructions})
	}
	for _, c := range req.Contents {
		if c.Role != model.RoleSystem {
			continue
		}
		if text := c.Text(); text != "" {
			blocks = append(blocks, anthropic.TextBlockParam{Text: text})
		}
	}
	return blocks
}

// buildMessages converts contents to Anthropic messages. Tool results are
// sent as user turns, and consecutive user turns are merged because the API
// requires alternating roles.
func buildMessages(contents []core.Content) []anthropic.MessageParam {
	var messages []anthropic.MessageParam

	appendUser := func(blocks []anthropic.ContentBlockParamUnion) {
		if len(blocks) == 0 {
			return
		}
		if n := len(messages); n > 0 && messages[n-1].Role == anthropic.MessageParamRoleUser {
			messages[n-1].Content = append(messages[n-1].Content, blocks...)
			return
		}
		messages = append(messages, anthropic.NewUserMessage(blocks...))
	}

	for _, c := range contents {
		switch c.Role {
		case model.RoleSystem:
			continue
		case model.RoleAssistant:
			if blocks := assistantBlocks(c.Parts); len(blocks) > 0 {
				messages = append(messages, anthropic.NewAssistantMessage(blocks...))
			}
		case model.RoleTool:
			var blocks []anthropic.ContentBlockParamUnion
			for _, p := range c.Parts {
				fr, ok := p.(core.FunctionResponsePart)
				if !ok || fr.FunctionResponse.ID == "" {
					continue
				}
				text, isErr := model.ToolResultText(fr.FunctionResponse)
				blocks = append(blocks, anthropic.NewToolResultBlock(fr.FunctionResponse.ID, text, isErr))
			}
			appendUser(blocks)
		default:
			if text := c.Text(); text != "" {
				appendUser([]anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(text)})
			}
		}
	}
	return messages
}

func assistantBlocks(parts []core.Part) []anthropic.ContentBlockParamUnion {
	var blocks []anthropic.ContentBlockParamUnion
	for _, p := range parts {
		switch part := p.(type) {
		case core.TextPart:
			if part.Text != "" {
				blocks = append(blocks, anthropic.NewTextBlock(part.Text))
			}
		case core.FunctionCallPart:
			var input any = map[string]any{}
			if part.FunctionCall.Arguments != "" {
				var decoded map[string]any
				if err := json.Unmarshal([]byte(part.FunctionCall.Arguments), &decoded); err == nil {
					input = decoded
				}
			}
			blocks = append(blocks, anthropic.NewToolUseBlock(part.FunctionCall.ID, input, part.FunctionCall.Name))
		}
	}
	return blocks
}

func buildTools(tools []model.ToolDefinition) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, len(tools))
	for i, t := range tools {
		schema := anthropic.ToolInputSchemaParam{Type: constant.Object("object")}
		if t.Function.Parameters != nil {
			if props, ok := t.Function.Parameters["properties"]; ok {
				schema.Properties = props
			}
			switch req := t.Function.Parameters["required"].(type) {
			case []string:
				schema.Required = req
			case []any:
				for _, r := range req {
					if s, ok := r.(string); ok {
						schema.Required = append(schema.Required, s)
					}
				}
			}
		}
		out[i] = anthropic.ToolUnionParamOfTool(schema, t.Function.Name)
		if out[i].OfTool != nil && t.Function.Description != "" {
			out[i].OfTool.Description = anthropic.String(t.Function.Description)
		}
	}
	return out
}

// Info returns metadata describing this model.
func (m *Model) Info() model.Info {
	return model.Info{Name: string(m.opts.Model), Provider: "anthropic", SupportsTools: true}
}
