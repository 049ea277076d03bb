// Package provider resolves model identifiers such as "gemini-2.0-flash",
// "openai/gpt-4.1" or "anthropic/claude-sonnet-4-20250514" to a backend.
package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/boat-builder/weatherpod/model"
	"github.com/boat-builder/weatherpod/model/anthropic"
	"github.com/boat-builder/weatherpod/model/gemini"
	"github.com/boat-builder/weatherpod/model/openai"
)

// Model identifiers known to work with the weather agent.
const (
	ModelGemini20Flash = gemini.DefaultModel
	ModelGPT41         = "openai/" + openai.DefaultModel
	ModelClaudeSonnet  = "anthropic/" + anthropic.DefaultModel
)

var (
	// ErrUnknownModel is returned for identifiers no backend claims.
	ErrUnknownModel = errors.New("unknown model identifier")
	// ErrMissingCredentials is returned when the backend needs an API key
	// that was not configured.
	ErrMissingCredentials = errors.New("missing credentials")
)

type Credentials struct {
	GoogleAPIKey    string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	AnthropicAPIKey string
}

// Provider names returned by Resolve.
const (
	Gemini    = "gemini"
	OpenAI    = "openai"
	Anthropic = "anthropic"
)

// Resolve splits an identifier into provider and provider-side model name.
func Resolve(id string) (providerName, modelName string, err error) {
	id = strings.TrimSpace(id)
	if prefix, name, ok := strings.Cut(id, "/"); ok {
		if name == "" {
			return "", "", fmt.Errorf("%w: %q", ErrUnknownModel, id)
		}
		switch prefix {
		case Gemini, OpenAI, Anthropic:
			return prefix, name, nil
		}
		return "", "", fmt.Errorf("%w: %q", ErrUnknownModel, id)
	}
	switch {
	case strings.HasPrefix(id, "gemini-"):
		return Gemini, id, nil
	case strings.HasPrefix(id, "gpt-"), strings.HasPrefix(id, "o3"), strings.HasPrefix(id, "o4"):
		return OpenAI, id, nil
	case strings.HasPrefix(id, "claude-"):
		return Anthropic, id, nil
	}
	return "", "", fmt.Errorf("%w: %q", ErrUnknownModel, id)
}

// New builds the backend for id.
func New(ctx context.Context, id string, creds Credentials) (model.LLM, error) {
	providerName, name, err := Resolve(id)
	if err != nil {
		return nil, err
	}
	switch providerName {
	case OpenAI:
		if creds.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("%w: OPENAI_API_KEY for %s", ErrMissingCredentials, id)
		}
		return openai.New(name, openai.Config{APIKey: creds.OpenAIAPIKey, BaseURL: creds.OpenAIBaseURL}), nil
	case Anthropic:
		if creds.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("%w: ANTHROPIC_API_KEY for %s", ErrMissingCredentials, id)
		}
		return anthropic.New(name, anthropic.Config{APIKey: creds.AnthropicAPIKey}), nil
	default:
		return gemini.New(ctx, name, &genai.ClientConfig{APIKey: creds.GoogleAPIKey})
	}
}
