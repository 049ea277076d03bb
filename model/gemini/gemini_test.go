package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/invopop/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/boat-builder/weatherpod/model"
)

type fakeModels struct {
	gotModel    string
	gotContents []*genai.Content
	gotConfig   *genai.GenerateContentConfig
	rsp         *genai.GenerateContentResponse
	err         error
}

func (f *fakeModels) GenerateContent(_ context.Context, name string, contents []*genai.Content,
	config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.gotModel = name
	f.gotContents = contents
	f.gotConfig = config
	return f.rsp, f.err
}

func TestGenerateContent(t *testing.T) {
	fake := &fakeModels{
		rsp: &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []*genai.Part{
					genai.NewPartFromFunctionCall("get_weather", map[string]any{"city": "London"}),
				}},
				FinishReason: genai.FinishReasonStop,
			}},
			UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
				PromptTokenCount:     12,
				CandidatesTokenCount: 3,
				TotalTokenCount:      15,
			},
		},
	}
	m := NewWithModels(DefaultModel, fake)
	temp := 0.2

	rsp, err := m.GenerateContent(context.Background(), &model.Request{
		SystemInstruction: "You are a helpful weather assistant.",
		Contents:          []*genai.Content{genai.NewContentFromText("What is the weather like in London?", genai.RoleUser)},
		Tools: []*model.ToolDeclaration{{
			Name:        "get_weather",
			Description: "weather",
			InputSchema: &jsonschema.Schema{Type: "object"},
		}},
		Temperature: &temp,
	})
	require.NoError(t, err)

	assert.Equal(t, DefaultModel, fake.gotModel)
	require.Len(t, fake.gotContents, 1)
	require.NotNil(t, fake.gotConfig.SystemInstruction)
	assert.Equal(t, "You are a helpful weather assistant.", fake.gotConfig.SystemInstruction.Parts[0].Text)
	require.Len(t, fake.gotConfig.Tools, 1)
	assert.Equal(t, "get_weather", fake.gotConfig.Tools[0].FunctionDeclarations[0].Name)
	assert.Equal(t, genai.FunctionCallingConfigModeAuto, fake.gotConfig.ToolConfig.FunctionCallingConfig.Mode)
	require.NotNil(t, fake.gotConfig.Temperature)
	assert.InDelta(t, 0.2, float64(*fake.gotConfig.Temperature), 1e-6)

	assert.Equal(t, string(genai.RoleModel), rsp.Content.Role)
	assert.Equal(t, string(genai.FinishReasonStop), rsp.FinishReason)
	assert.Equal(t, &model.Usage{PromptTokens: 12, CompletionTokens: 3, TotalTokens: 15}, rsp.Usage)
	require.Len(t, model.FunctionCalls(rsp.Content), 1)
}

func TestGenerateContentErrors(t *testing.T) {
	m := NewWithModels(DefaultModel, &fakeModels{err: errors.New("quota exceeded")})
	_, err := m.GenerateContent(context.Background(), &model.Request{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")

	m = NewWithModels(DefaultModel, &fakeModels{rsp: &genai.GenerateContentResponse{}})
	_, err = m.GenerateContent(context.Background(), &model.Request{})
	assert.ErrorIs(t, err, model.ErrNoCandidates)

	_, err = m.GenerateContent(context.Background(), nil)
	assert.Error(t, err)
}

func TestBuildConfigWithoutTools(t *testing.T) {
	cfg := buildConfig(&model.Request{})
	assert.Nil(t, cfg.Tools)
	assert.Nil(t, cfg.ToolConfig)
	assert.Nil(t, cfg.SystemInstruction)
}
