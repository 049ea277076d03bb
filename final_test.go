package weatherpod

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/genai"
)

func stream(events ...*Event) <-chan *Event {
	ch := make(chan *Event, len(events))
	for _, evt := range events {
		ch <- evt
	}
	close(ch)
	return ch
}

func textEvent(text string) *Event {
	evt := NewEvent("inv", "agent")
	evt.Content = genai.NewContentFromText(text, genai.RoleModel)
	return evt
}

func TestTakeUntil(t *testing.T) {
	ch := make(chan int, 5)
	for _, v := range []int{1, 3, 4, 5} {
		ch <- v
	}
	close(ch)

	v, ok := TakeUntil(context.Background(), ch, func(v int) bool { return v%2 == 0 })
	assert.True(t, ok)
	assert.Equal(t, 4, v)

	v, ok = TakeUntil(context.Background(), ch, func(v int) bool { return v > 10 })
	assert.False(t, ok)
	assert.Zero(t, v)
}

func TestTakeUntilCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, ok := TakeUntil(ctx, make(chan int), func(int) bool { return true })
	assert.False(t, ok)
}

func TestFinalResponse(t *testing.T) {
	call := NewEvent("inv", "agent")
	call.Content = genai.NewContentFromParts([]*genai.Part{
		genai.NewPartFromFunctionCall("get_weather", map[string]any{"city": "London"}),
	}, genai.RoleModel)
	noMessage := NewEscalationEvent("inv", "agent", "", "")
	emptyFinal := NewEvent("inv", "agent")

	tests := []struct {
		name   string
		events []*Event
		want   string
	}{
		{"text", []*Event{call, textEvent("It's cloudy.")}, "It's cloudy."},
		{"first final wins", []*Event{textEvent("first"), textEvent("second")}, "first"},
		{"empty stream", nil, DefaultFinalResponse},
		{"only intermediate", []*Event{call}, DefaultFinalResponse},
		{"escalation with message", []*Event{NewEscalationEvent("inv", "agent", "X_ERR", "X")}, "Agent escalated: X"},
		{"escalation without message", []*Event{noMessage}, "Agent escalated: No specific message."},
		{"final without content", []*Event{emptyFinal}, DefaultFinalResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FinalResponse(context.Background(), stream(tt.events...)))
		})
	}
}
