package model

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestUsageAdd(t *testing.T) {
	u := Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}
	got := u.Add(&Usage{PromptTokens: 1, CompletionTokens: 2, TotalTokens: 3})
	assert.Equal(t, Usage{PromptTokens: 11, CompletionTokens: 7, TotalTokens: 18}, got)
	assert.Equal(t, int64(10), u.PromptTokens)
	assert.Equal(t, got, got.Add(nil))
}

func TestFunctionPartsHelpers(t *testing.T) {
	c := &genai.Content{
		Role: string(genai.RoleModel),
		Parts: []*genai.Part{
			genai.NewPartFromText("checking"),
			genai.NewPartFromFunctionCall("get_weather", map[string]any{"city": "London"}),
			genai.NewPartFromFunctionResponse("get_weather", map[string]any{"status": "success"}),
		},
	}

	calls := FunctionCalls(c)
	require.Len(t, calls, 1)
	assert.Equal(t, "get_weather", calls[0].Name)
	assert.Equal(t, "London", calls[0].Args["city"])

	responses := FunctionResponses(c)
	require.Len(t, responses, 1)
	assert.Equal(t, "success", responses[0].Response["status"])

	assert.Nil(t, FunctionCalls(nil))
	assert.Nil(t, FunctionResponses(genai.NewContentFromText("hi", genai.RoleUser)))
}

func TestIdentityRoundTrip(t *testing.T) {
	id := Identity{AppName: "weather_tutorial_app", UserID: "user_1", SessionID: "session_001"}
	ctx := WithIdentity(context.Background(), id)
	assert.Equal(t, id, IdentityFromContext(ctx))
	assert.Equal(t, Identity{}, IdentityFromContext(context.Background()))
}
