// Package anthropic implements model.LLM over the Anthropic Messages API.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"google.golang.org/genai"

	"github.com/boat-builder/weatherpod/model"
)

// DefaultModel is the Claude model offered as an alternative to Gemini.
const DefaultModel = "claude-sonnet-4-20250514"

// defaultMaxTokens is required by the Messages API when the request does not
// set one.
const defaultMaxTokens = 1024

type Config struct {
	APIKey  string
	BaseURL string
}

type Model struct {
	name   string
	client anthropic.Client
}

var _ model.LLM = (*Model)(nil)

func New(name string, cfg Config) *Model {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Model{
		name:   name,
		client: anthropic.NewClient(opts...),
	}
}

func (m *Model) Name() string {
	return m.name
}

// GenerateContent implements model.LLM.
func (m *Model) GenerateContent(ctx context.Context, req *model.Request) (*model.Response, error) {
	if req == nil {
		return nil, errors.New("anthropic: request cannot be nil")
	}
	params, err := m.buildParams(req)
	if err != nil {
		return nil, err
	}
	message, err := m.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic: messages: %w", err)
	}

	content := &genai.Content{Role: string(genai.RoleModel)}
	for _, block := range message.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			content.Parts = append(content.Parts, genai.NewPartFromText(b.Text))
		case anthropic.ToolUseBlock:
			args := map[string]any{}
			if err := json.Unmarshal([]byte(b.JSON.Input.Raw()), &args); err != nil {
				return nil, fmt.Errorf("anthropic: parse input of %s: %w", b.Name, err)
			}
			content.Parts = append(content.Parts, &genai.Part{
				FunctionCall: &genai.FunctionCall{ID: b.ID, Name: b.Name, Args: args},
			})
		}
	}
	if len(content.Parts) == 0 {
		return nil, model.ErrNoCandidates
	}

	return &model.Response{
		Content:      content,
		FinishReason: string(message.StopReason),
		Usage: &model.Usage{
			PromptTokens:     message.Usage.InputTokens,
			CompletionTokens: message.Usage.OutputTokens,
			TotalTokens:      message.Usage.InputTokens + message.Usage.OutputTokens,
		},
	}, nil
}

func (m *Model) buildParams(req *model.Request) (anthropic.MessageNewParams, error) {
	messages, err := convertContents(req.Contents)
	if err != nil {
		return anthropic.MessageNewParams{}, err
	}
	maxTokens := int64(defaultMaxTokens)
	if req.MaxTokens != nil {
		maxTokens = int64(*req.MaxTokens)
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(m.name),
		Messages:  messages,
		MaxTokens: maxTokens,
	}
	if req.SystemInstruction != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.SystemInstruction}}
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}
	if len(req.Tools) > 0 {
		params.Tools = convertTools(req.Tools)
	}
	return params, nil
}

func convertContents(contents []*genai.Content) ([]anthropic.MessageParam, error) {
	messages := make([]anthropic.MessageParam, 0, len(contents))
	for _, c := range contents {
		if c == nil {
			continue
		}
		var blocks []anthropic.ContentBlockParamUnion
		for _, part := range c.Parts {
			switch {
			case part == nil:
			case part.FunctionCall != nil:
				blocks = append(blocks, anthropic.NewToolUseBlock(
					callID(part.FunctionCall.ID, part.FunctionCall.Name),
					part.FunctionCall.Args,
					part.FunctionCall.Name,
				))
			case part.FunctionResponse != nil:
				body, err := json.Marshal(part.FunctionResponse.Response)
				if err != nil {
					return nil, fmt.Errorf("anthropic: marshal response of %s: %w", part.FunctionResponse.Name, err)
				}
				blocks = append(blocks, anthropic.NewToolResultBlock(
					callID(part.FunctionResponse.ID, part.FunctionResponse.Name),
					string(body),
					false,
				))
			case part.Text != "" && !part.Thought:
				blocks = append(blocks, anthropic.NewTextBlock(part.Text))
			}
		}
		if len(blocks) == 0 {
			continue
		}
		if c.Role == string(genai.RoleModel) {
			messages = append(messages, anthropic.NewAssistantMessage(blocks...))
		} else {
			messages = append(messages, anthropic.NewUserMessage(blocks...))
		}
	}
	return messages, nil
}

func convertTools(decls []*model.ToolDeclaration) []anthropic.ToolUnionParam {
	tools := make([]anthropic.ToolUnionParam, 0, len(decls))
	for _, d := range decls {
		tool := anthropic.ToolParam{
			Name:        d.Name,
			Description: anthropic.String(d.Description),
		}
		if d.InputSchema != nil {
			tool.InputSchema = anthropic.ToolInputSchemaParam{
				Properties: d.InputSchema.Properties,
				Required:   d.InputSchema.Required,
			}
		}
		tools = append(tools, anthropic.ToolUnionParam{OfTool: &tool})
	}
	return tools
}

func callID(id, name string) string {
	if id != "" {
		return id
	}
	return "toolu_" + name
}
