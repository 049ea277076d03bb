// Package openai implements model.LLM over the OpenAI chat completions API,
// or any endpoint compatible with it.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"google.golang.org/genai"

	"github.com/boat-builder/weatherpod/model"
)

// DefaultModel is the OpenAI model offered as an alternative to Gemini.
const DefaultModel = "gpt-4.1"

type Config struct {
	APIKey  string
	BaseURL string
}

// Model wraps the openai client, injecting the caller identity found in the
// request context.
type Model struct {
	name   string
	client openai.Client
}

var _ model.LLM = (*Model)(nil)

func New(name string, cfg Config) *Model {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Model{
		name:   name,
		client: openai.NewClient(opts...),
	}
}

func (m *Model) Name() string {
	return m.name
}

// GenerateContent implements model.LLM.
func (m *Model) GenerateContent(ctx context.Context, req *model.Request) (*model.Response, error) {
	if req == nil {
		return nil, errors.New("openai: request cannot be nil")
	}
	params, err := m.buildParams(ctx, req)
	if err != nil {
		return nil, err
	}
	completion, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai: chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, model.ErrNoCandidates
	}
	choice := completion.Choices[0]

	content := &genai.Content{Role: string(genai.RoleModel)}
	if choice.Message.Content != "" {
		content.Parts = append(content.Parts, genai.NewPartFromText(choice.Message.Content))
	}
	for _, tc := range choice.Message.ToolCalls {
		args := map[string]any{}
		if tc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				return nil, fmt.Errorf("openai: parse arguments of %s: %w", tc.Function.Name, err)
			}
		}
		content.Parts = append(content.Parts, &genai.Part{
			FunctionCall: &genai.FunctionCall{ID: tc.ID, Name: tc.Function.Name, Args: args},
		})
	}

	return &model.Response{
		Content:      content,
		FinishReason: choice.FinishReason,
		Usage: &model.Usage{
			PromptTokens:     completion.Usage.PromptTokens,
			CompletionTokens: completion.Usage.CompletionTokens,
			TotalTokens:      completion.Usage.TotalTokens,
		},
	}, nil
}

func (m *Model) buildParams(ctx context.Context, req *model.Request) (openai.ChatCompletionNewParams, error) {
	messages, err := convertContents(req.SystemInstruction, req.Contents)
	if err != nil {
		return openai.ChatCompletionNewParams{}, err
	}
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(m.name),
		Messages: messages,
	}
	if userID := model.IdentityFromContext(ctx).UserID; userID != "" {
		params.User = openai.String(userID)
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}
	if req.MaxTokens != nil {
		params.MaxTokens = openai.Int(int64(*req.MaxTokens))
	}
	if len(req.Tools) > 0 {
		tools, err := convertTools(req.Tools)
		if err != nil {
			return openai.ChatCompletionNewParams{}, err
		}
		params.Tools = tools
	}
	return params, nil
}

func convertContents(system string, contents []*genai.Content) ([]openai.ChatCompletionMessageParamUnion, error) {
	messages := []openai.ChatCompletionMessageParamUnion{}
	if system != "" {
		messages = append(messages, openai.SystemMessage(system))
	}
	for _, c := range contents {
		if c == nil {
			continue
		}
		text := contentText(c)
		if c.Role == string(genai.RoleModel) {
			calls := model.FunctionCalls(c)
			if len(calls) == 0 {
				messages = append(messages, openai.AssistantMessage(text))
				continue
			}
			toolCalls := make([]openai.ChatCompletionMessageToolCall, 0, len(calls))
			for _, call := range calls {
				args, err := json.Marshal(call.Args)
				if err != nil {
					return nil, fmt.Errorf("openai: marshal arguments of %s: %w", call.Name, err)
				}
				toolCalls = append(toolCalls, openai.ChatCompletionMessageToolCall{
					ID:   callID(call.ID, call.Name),
					Type: "function",
					Function: openai.ChatCompletionMessageToolCallFunction{
						Name:      call.Name,
						Arguments: string(args),
					},
				})
			}
			assistant := openai.ChatCompletionMessage{
				Role:      "assistant",
				Content:   text,
				ToolCalls: toolCalls,
			}
			messages = append(messages, assistant.ToParam())
			continue
		}

		for _, fr := range model.FunctionResponses(c) {
			body, err := json.Marshal(fr.Response)
			if err != nil {
				return nil, fmt.Errorf("openai: marshal response of %s: %w", fr.Name, err)
			}
			messages = append(messages, openai.ToolMessage(string(body), callID(fr.ID, fr.Name)))
		}
		if text != "" {
			messages = append(messages, openai.UserMessage(text))
		}
	}
	return messages, nil
}

func convertTools(decls []*model.ToolDeclaration) ([]openai.ChatCompletionToolParam, error) {
	tools := make([]openai.ChatCompletionToolParam, 0, len(decls))
	for _, d := range decls {
		parameters := openai.FunctionParameters{"type": "object", "properties": map[string]any{}}
		if d.InputSchema != nil {
			raw, err := json.Marshal(d.InputSchema)
			if err != nil {
				return nil, fmt.Errorf("openai: marshal schema of %s: %w", d.Name, err)
			}
			parameters = openai.FunctionParameters{}
			if err := json.Unmarshal(raw, &parameters); err != nil {
				return nil, fmt.Errorf("openai: decode schema of %s: %w", d.Name, err)
			}
		}
		tools = append(tools, openai.ChatCompletionToolParam{
			Type: "function",
			Function: openai.FunctionDefinitionParam{
				Name:        d.Name,
				Description: openai.String(d.Description),
				Parameters:  parameters,
			},
		})
	}
	return tools, nil
}

func contentText(c *genai.Content) string {
	var b strings.Builder
	for _, part := range c.Parts {
		if part != nil && part.Text != "" && !part.Thought {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}

// callID keeps tool call and tool result paired when the content came from a
// backend that does not assign call ids.
func callID(id, name string) string {
	if id != "" {
		return id
	}
	return "call_" + name
}
