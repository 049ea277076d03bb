package weatherpod

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boat-builder/weatherpod/model"
)

func TestSessionCost(t *testing.T) {
	first := NewEvent("inv", "agent")
	first.Usage = &model.Usage{PromptTokens: 1000000, CompletionTokens: 500000, TotalTokens: 1500000}
	second := NewEvent("inv", "agent")
	second.Usage = &model.Usage{PromptTokens: 1000000, CompletionTokens: 500000, TotalTokens: 1500000}
	sess := &Session{Events: []*Event{NewEvent("inv", AuthorUser), first, second}}

	cost, ok := sess.Cost("gemini-2.0-flash")
	require.True(t, ok)
	assert.Equal(t, int64(2000000), cost.InputTokens)
	assert.Equal(t, int64(1000000), cost.OutputTokens)
	assert.InDelta(t, 0.6, cost.TotalCost, 1e-9)

	cost, ok = sess.Cost("gpt-4.1")
	require.True(t, ok)
	assert.InDelta(t, 12.0, cost.TotalCost, 1e-9)

	_, ok = sess.Cost("scripted")
	assert.False(t, ok)
}
