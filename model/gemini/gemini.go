// Package gemini implements model.LLM on top of the Google GenAI SDK.
package gemini

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/boat-builder/weatherpod/model"
)

// DefaultModel is the model the weather agent runs on unless configured
// otherwise.
const DefaultModel = "gemini-2.0-flash"

// Models is the part of genai.Models the backend calls. It exists so tests
// can replace the network client.
type Models interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content,
		config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Model is a Gemini backed model.LLM.
type Model struct {
	name   string
	models Models
}

var _ model.LLM = (*Model)(nil)

// New creates a Gemini model. An empty APIKey in cfg lets the SDK fall back
// to GOOGLE_API_KEY / GEMINI_API_KEY.
func New(ctx context.Context, name string, cfg *genai.ClientConfig) (*Model, error) {
	if name == "" {
		return nil, errors.New("gemini: model name is required")
	}
	if cfg == nil {
		cfg = &genai.ClientConfig{}
	}
	if cfg.Backend == genai.BackendUnspecified {
		cfg.Backend = genai.BackendGeminiAPI
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &Model{name: name, models: client.Models}, nil
}

// NewWithModels creates a Model over an existing Models implementation.
func NewWithModels(name string, models Models) *Model {
	return &Model{name: name, models: models}
}

func (m *Model) Name() string {
	return m.name
}

// GenerateContent implements model.LLM.
func (m *Model) GenerateContent(ctx context.Context, req *model.Request) (*model.Response, error) {
	if req == nil {
		return nil, errors.New("gemini: request cannot be nil")
	}
	rsp, err := m.models.GenerateContent(ctx, m.name, req.Contents, buildConfig(req))
	if err != nil {
		return nil, fmt.Errorf("gemini: generate content: %w", err)
	}
	if rsp == nil || len(rsp.Candidates) == 0 || rsp.Candidates[0].Content == nil {
		return nil, model.ErrNoCandidates
	}
	candidate := rsp.Candidates[0]
	content := candidate.Content
	if content.Role == "" {
		content.Role = string(genai.RoleModel)
	}
	return &model.Response{
		Content:      content,
		FinishReason: string(candidate.FinishReason),
		Usage:        convertUsage(rsp.UsageMetadata),
	}, nil
}

func buildConfig(req *model.Request) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Tools: convertTools(req.Tools),
	}
	if req.SystemInstruction != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemInstruction, genai.RoleUser)
	}
	if len(req.Tools) > 0 {
		cfg.ToolConfig = &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{
				Mode: genai.FunctionCallingConfigModeAuto,
			},
		}
	}
	if req.Temperature != nil {
		cfg.Temperature = genai.Ptr(float32(*req.Temperature))
	}
	if req.MaxTokens != nil {
		cfg.MaxOutputTokens = int32(*req.MaxTokens)
	}
	return cfg
}

func convertTools(decls []*model.ToolDeclaration) []*genai.Tool {
	if len(decls) == 0 {
		return nil
	}
	fns := make([]*genai.FunctionDeclaration, 0, len(decls))
	for _, d := range decls {
		fn := &genai.FunctionDeclaration{
			Name:        d.Name,
			Description: d.Description,
		}
		if d.InputSchema != nil {
			fn.ParametersJsonSchema = d.InputSchema
		}
		fns = append(fns, fn)
	}
	return []*genai.Tool{{FunctionDeclarations: fns}}
}

func convertUsage(usage *genai.GenerateContentResponseUsageMetadata) *model.Usage {
	if usage == nil {
		return nil
	}
	return &model.Usage{
		PromptTokens:     int64(usage.PromptTokenCount),
		CompletionTokens: int64(usage.CandidatesTokenCount),
		TotalTokens:      int64(usage.TotalTokenCount),
	}
}
