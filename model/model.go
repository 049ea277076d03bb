// Package model defines the provider-neutral contract between agents and
// language-model backends. Conversation content is carried as genai.Content
// so every backend converts from the same shape.
package model

import (
	"context"
	"errors"

	"github.com/invopop/jsonschema"
	"google.golang.org/genai"
)

// ErrorCodeModel marks responses and events produced by a failed model call.
const ErrorCodeModel = "MODEL_ERROR"

// ErrNoCandidates is returned by backends when the provider answered without
// any usable choice.
var ErrNoCandidates = errors.New("model returned no candidates")

// LLM is the minimal contract the agent runtime relies on.
type LLM interface {
	// Name is the model identifier the backend sends to its provider.
	Name() string
	// GenerateContent issues one non-streaming request.
	GenerateContent(ctx context.Context, req *Request) (*Response, error)
}

// ToolDeclaration describes a callable tool to the model.
type ToolDeclaration struct {
	Name        string
	Description string
	InputSchema *jsonschema.Schema
}

// Request is one model call.
type Request struct {
	SystemInstruction string
	Contents          []*genai.Content
	Tools             []*ToolDeclaration
	Temperature       *float64
	MaxTokens         *int
}

// Response is the model's answer. Content uses genai.RoleModel and may hold
// text parts, function call parts or both.
type Response struct {
	Content      *genai.Content
	FinishReason string
	Usage        *Usage
}

// Usage is the token accounting of a single call.
type Usage struct {
	PromptTokens     int64 `json:"promptTokens"`
	CompletionTokens int64 `json:"completionTokens"`
	TotalTokens      int64 `json:"totalTokens"`
}

// Add returns the sum of u and other; nil adds nothing.
func (u Usage) Add(other *Usage) Usage {
	if other == nil {
		return u
	}
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
	return u
}

// FunctionCalls returns the function call parts of c.
func FunctionCalls(c *genai.Content) []*genai.FunctionCall {
	if c == nil {
		return nil
	}
	var calls []*genai.FunctionCall
	for _, part := range c.Parts {
		if part != nil && part.FunctionCall != nil {
			calls = append(calls, part.FunctionCall)
		}
	}
	return calls
}

// FunctionResponses returns the function response parts of c.
func FunctionResponses(c *genai.Content) []*genai.FunctionResponse {
	if c == nil {
		return nil
	}
	var responses []*genai.FunctionResponse
	for _, part := range c.Parts {
		if part != nil && part.FunctionResponse != nil {
			responses = append(responses, part.FunctionResponse)
		}
	}
	return responses
}
