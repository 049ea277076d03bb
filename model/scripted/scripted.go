// Package scripted provides a deterministic model.LLM that replays a fixed
// list of steps. It stands in for a real provider in tests and offline runs.
package scripted

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"github.com/boat-builder/weatherpod/model"
)

// Name is the model identifier reported by scripted models.
const Name = "scripted"

// ErrScriptExhausted is returned once every step has been used.
var ErrScriptExhausted = errors.New("scripted: no steps left")

// Step produces the response for one model call.
type Step func(req *model.Request) (*model.Response, error)

// Model replays its steps in order, one per GenerateContent call.
type Model struct {
	mu       sync.Mutex
	steps    []Step
	next     int
	requests []*model.Request
}

var _ model.LLM = (*Model)(nil)

func New(steps ...Step) *Model {
	return &Model{steps: steps}
}

func (m *Model) Name() string {
	return Name
}

// GenerateContent implements model.LLM.
func (m *Model) GenerateContent(ctx context.Context, req *model.Request) (*model.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.requests = append(m.requests, req)
	if m.next >= len(m.steps) {
		m.mu.Unlock()
		return nil, ErrScriptExhausted
	}
	step := m.steps[m.next]
	m.next++
	m.mu.Unlock()
	return step(req)
}

// Requests returns the requests received so far.
func (m *Model) Requests() []*model.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*model.Request(nil), m.requests...)
}

// Text answers with a plain text response.
func Text(text string) Step {
	return func(*model.Request) (*model.Response, error) {
		return respond(genai.NewPartFromText(text)), nil
	}
}

// Fail makes the call return err.
func Fail(err error) Step {
	return func(*model.Request) (*model.Response, error) {
		return nil, err
	}
}

// CallTool asks for one call of the named tool with fixed arguments.
func CallTool(name string, args map[string]any) Step {
	return func(*model.Request) (*model.Response, error) {
		return respond(functionCall(name, args)), nil
	}
}

// CallToolWith derives the tool arguments from the latest user text, e.g. to
// turn "What is the weather like in London?" into {"city": "London"}.
func CallToolWith(name string, args func(userText string) map[string]any) Step {
	return func(req *model.Request) (*model.Response, error) {
		return respond(functionCall(name, args(LastUserText(req.Contents)))), nil
	}
}

// ReplyWithResponseField answers with the first non-empty string field of the
// latest function response, trying keys in order. This reproduces a model that
// relays a tool result verbatim.
func ReplyWithResponseField(keys ...string) Step {
	return func(req *model.Request) (*model.Response, error) {
		for i := len(req.Contents) - 1; i >= 0; i-- {
			responses := model.FunctionResponses(req.Contents[i])
			if len(responses) == 0 {
				continue
			}
			for _, key := range keys {
				if v, ok := responses[len(responses)-1].Response[key].(string); ok && v != "" {
					return respond(genai.NewPartFromText(v)), nil
				}
			}
			return nil, fmt.Errorf("scripted: function response has none of %s", strings.Join(keys, ", "))
		}
		return nil, errors.New("scripted: no function response in request")
	}
}

// LastUserText returns the text of the latest user content that is not a
// function response.
func LastUserText(contents []*genai.Content) string {
	for i := len(contents) - 1; i >= 0; i-- {
		c := contents[i]
		if c == nil || c.Role != string(genai.RoleUser) {
			continue
		}
		var b strings.Builder
		for _, part := range c.Parts {
			if part != nil && part.Text != "" {
				b.WriteString(part.Text)
			}
		}
		if b.Len() > 0 {
			return b.String()
		}
	}
	return ""
}

func functionCall(name string, args map[string]any) *genai.Part {
	return &genai.Part{FunctionCall: &genai.FunctionCall{
		ID:   "call_" + uuid.NewString(),
		Name: name,
		Args: args,
	}}
}

func respond(parts ...*genai.Part) *model.Response {
	return &model.Response{
		Content:      &genai.Content{Role: string(genai.RoleModel), Parts: parts},
		FinishReason: "STOP",
		Usage:        &model.Usage{},
	}
}
