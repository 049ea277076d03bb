package anthropic

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/invopop/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/boat-builder/weatherpod/model"
)

const toolUseMessage = `{
  "id": "msg_1",
  "type": "message",
  "role": "assistant",
  "model": "claude-sonnet-4-20250514",
  "content": [
    {"type": "text", "text": "Let me check."},
    {"type": "tool_use", "id": "toolu_1", "name": "get_weather", "input": {"city": "London"}}
  ],
  "stop_reason": "tool_use",
  "stop_sequence": null,
  "usage": {"input_tokens": 30, "output_tokens": 8}
}`

func TestGenerateContentToolUse(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, &captured))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, toolUseMessage)
	}))
	t.Cleanup(srv.Close)

	m := New(DefaultModel, Config{APIKey: "test", BaseURL: srv.URL})
	rsp, err := m.GenerateContent(context.Background(), &model.Request{
		SystemInstruction: "You are a helpful weather assistant.",
		Contents:          []*genai.Content{genai.NewContentFromText("What is the weather like in London?", genai.RoleUser)},
		Tools: []*model.ToolDeclaration{{
			Name:        "get_weather",
			Description: "weather",
			InputSchema: &jsonschema.Schema{Type: "object", Required: []string{"city"}},
		}},
	})
	require.NoError(t, err)

	assert.Equal(t, DefaultModel, captured["model"])
	assert.EqualValues(t, defaultMaxTokens, captured["max_tokens"])
	assert.NotNil(t, captured["system"])

	require.Len(t, rsp.Content.Parts, 2)
	assert.Equal(t, "Let me check.", rsp.Content.Parts[0].Text)
	calls := model.FunctionCalls(rsp.Content)
	require.Len(t, calls, 1)
	assert.Equal(t, "toolu_1", calls[0].ID)
	assert.Equal(t, "London", calls[0].Args["city"])
	assert.Equal(t, "tool_use", rsp.FinishReason)
	assert.Equal(t, int64(38), rsp.Usage.TotalTokens)
}

func TestConvertContents(t *testing.T) {
	contents := []*genai.Content{
		genai.NewContentFromText("What is the weather like in Paris?", genai.RoleUser),
		{Role: string(genai.RoleModel), Parts: []*genai.Part{{
			FunctionCall: &genai.FunctionCall{Name: "get_weather", Args: map[string]any{"city": "Paris"}},
		}}},
		{Role: string(genai.RoleUser), Parts: []*genai.Part{{
			FunctionResponse: &genai.FunctionResponse{Name: "get_weather", Response: map[string]any{"status": "error"}},
		}}},
		{Role: string(genai.RoleUser)},
	}

	messages, err := convertContents(contents)
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, anthropic.MessageParamRoleUser, messages[0].Role)
	assert.Equal(t, anthropic.MessageParamRoleAssistant, messages[1].Role)
	require.NotNil(t, messages[1].Content[0].OfToolUse)
	assert.Equal(t, "toolu_get_weather", messages[1].Content[0].OfToolUse.ID)
	require.NotNil(t, messages[2].Content[0].OfToolResult)
	assert.Equal(t, "toolu_get_weather", messages[2].Content[0].OfToolResult.ToolUseID)
}

