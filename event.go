package weatherpod

import (
	"time"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"github.com/boat-builder/weatherpod/model"
)

// AuthorUser is the author of events carrying the end user's message.
const AuthorUser = "user"

// EventActions are the side effects an event asks the runtime to apply.
type EventActions struct {
	// Escalate marks the event as terminal for the turn.
	Escalate bool `json:"escalate,omitempty"`
	// StateDelta is merged into the session state when the event is stored.
	StateDelta map[string]any `json:"stateDelta,omitempty"`
}

// Event is one step of an agent turn: the user's message, a model answer, a
// batch of tool results or an escalation.
type Event struct {
	ID           string         `json:"id"`
	InvocationID string         `json:"invocationID"`
	Author       string         `json:"author"`
	Content      *genai.Content `json:"content,omitempty"`
	Actions      EventActions   `json:"actions"`
	ErrorCode    string         `json:"errorCode,omitempty"`
	ErrorMessage string         `json:"errorMessage,omitempty"`
	Partial      bool           `json:"partial,omitempty"`
	Usage        *model.Usage   `json:"usage,omitempty"`
	Timestamp    time.Time      `json:"timestamp"`
}

func NewEvent(invocationID, author string) *Event {
	return &Event{
		ID:           uuid.NewString(),
		InvocationID: invocationID,
		Author:       author,
		Timestamp:    time.Now(),
	}
}

// NewEscalationEvent builds a terminal event without content.
func NewEscalationEvent(invocationID, author, code, message string) *Event {
	evt := NewEvent(invocationID, author)
	evt.Actions.Escalate = true
	evt.ErrorCode = code
	evt.ErrorMessage = message
	return evt
}

// FunctionCalls returns the function calls carried by the event.
func (e *Event) FunctionCalls() []*genai.FunctionCall {
	return model.FunctionCalls(e.Content)
}

// FunctionResponses returns the function responses carried by the event.
func (e *Event) FunctionResponses() []*genai.FunctionResponse {
	return model.FunctionResponses(e.Content)
}

// IsFinalResponse reports whether the event ends the turn. Escalations always
// do; otherwise the event must be complete and neither ask for nor answer a
// tool call.
func (e *Event) IsFinalResponse() bool {
	if e == nil {
		return false
	}
	if e.Actions.Escalate {
		return true
	}
	return !e.Partial && len(e.FunctionCalls()) == 0 && len(e.FunctionResponses()) == 0
}

// Text returns the first part's text, which is what a final response shows
// to the user. The boolean is false when there is no content part at all.
func (e *Event) Text() (string, bool) {
	if e == nil || e.Content == nil || len(e.Content.Parts) == 0 || e.Content.Parts[0] == nil {
		return "", false
	}
	return e.Content.Parts[0].Text, true
}
