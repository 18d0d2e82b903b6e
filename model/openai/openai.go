// Package openai implements model.Model on the OpenAI Chat Completions API
// with function calling.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/hupe1980/grocerymesh/core"
	"github.com/hupe1980/grocerymesh/model"
)

// Options configure the OpenAI model adapter.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
	APIKey              string
}

// Model wraps the OpenAI Chat Completions API behind model.Model.
type Model struct {
	client *openai.Client
	opts   Options
}

func defaultOptions() Options {
	return Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 1024,
	}
}

// NewModel creates a model using the official client. Without APIKey the
// client reads OPENAI_API_KEY.
func NewModel(optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := openai.NewClient(clientOpts...)
	return &Model{client: &client, opts: opts}
}

// NewModelFromClient creates a model from an existing client.
func NewModelFromClient(client *openai.Client, optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

// Generate sends the conversation and returns the assistant turn.
func (m *Model) Generate(ctx context.Context, req model.Request) (model.Response, error) {
	params := m.buildParams(req, buildMessages(req))

	resp, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return model.Response{}, fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return model.Response{}, fmt.Errorf("openai: no choices returned")
	}

	ch0 := resp.Choices[0]
	parts := make([]core.Part, 0, len(ch0.Message.ToolCalls)+1)
	if ch0.Message.Content != "" {
		parts = append(parts, core.TextPart{Text: ch0.Message.Content})
	}
	for _, tc := range ch0.Message.ToolCalls {
		parts = append(parts, core.FunctionCallPart{FunctionCall: core.FunctionCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		}})
	}

	return model.Response{
		ID:           resp.ID,
		Content:      core.Content{Role: model.RoleAssistant, Parts: parts},
		FinishReason: ch0.FinishReason,
		Usage: &model.TokenUsage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}, nil
}

// buildMessages converts contents into chat messages. Tool responses follow
// the assistant message that requested them.
func buildMessages(req model.Request) []openai.ChatCompletionMessageParamUnion {
	var messages []openai.ChatCompletionMessageParamUnion
	if req.Instructions != "" {
		messages = append(messages, openai.SystemMessage(req.Instructions))
	}
	for _, c := range req.Contents {
		text := c.Text()
		switch c.Role {
		case model.RoleSystem:
			messages = append(messages, openai.SystemMessage(text))
		case model.RoleAssistant:
			toolCalls := extractToolCalls(c)
			if len(toolCalls) == 0 {
				messages = append(messages, openai.AssistantMessage(text))
				continue
			}
			asst := &openai.ChatCompletionAssistantMessageParam{ToolCalls: toolCalls}
			if text != "" {
				asst.Content.OfString = openai.String(text)
			}
			messages = append(messages, openai.ChatCompletionMessageParamUnion{OfAssistant: asst})
		case model.RoleTool:
			for _, p := range c.Parts {
				fr, ok := p.(core.FunctionResponsePart)
				if !ok || fr.FunctionResponse.ID == "" {
					continue
				}
				out, _ := model.ToolResultText(fr.FunctionResponse)
				messages = append(messages, openai.ToolMessage(out, fr.FunctionResponse.ID))
			}
		default:
			if text != "" {
				messages = append(messages, openai.UserMessage(text))
			}
		}
	}
	return messages
}

func extractToolCalls(c core.Content) []openai.ChatCompletionMessageToolCallParam {
	var toolCalls []openai.ChatCompletionMessageToolCallParam
	for _, fc := range c.FunctionCalls() {
		toolCalls = append(toolCalls, openai.ChatCompletionMessageToolCallParam{
			ID: fc.ID,
			Function: openai.ChatCompletionMessageToolCallFunctionParam{
				Name:      fc.Name,
				Arguments: fc.Arguments,
			},
		})
	}
	return toolCalls
}

func (m *Model) buildParams(req model.Request, messages []openai.ChatCompletionMessageParamUnion) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               m.opts.Model,
		Temperature:         openai.Float(m.opts.Temperature),
		MaxCompletionTokens: openai.Int(m.opts.MaxCompletionTokens),
	}
	if len(req.Tools) == 0 {
		return params
	}
	tools := make([]openai.ChatCompletionToolParam, len(req.Tools))
	for i, tdef := range req.Tools {
		tools[i] = openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        tdef.Function.Name,
				Description: openai.String(tdef.Function.Description),
				Parameters:  tdef.Function.Parameters,
			},
		}
	}
	params.Tools = tools
	return params
}

// Info returns metadata describing this model.
func (m *Model) Info() model.Info {
	return model.Info{Name: m.opts.Model, Provider: "openai", SupportsTools: true}
}
