package weatherpod

import "github.com/boat-builder/weatherpod/model"

type TokenRates struct {
	Input  float64
	Output float64
}

// Pricing constants in dollars per million tokens.
const (
	Gemini20FlashInputRate  = 0.10
	Gemini20FlashOutputRate = 0.40
	GPT41InputRate          = 2.0
	GPT41OutputRate         = 8.0
	GPT4oInputRate          = 2.5
	GPT4oOutputRate         = 10.0
	ClaudeSonnet4InputRate  = 3.0
	ClaudeSonnet4OutputRate = 15.0
)

// ModelPricings is a map of model names to their pricing information.
var ModelPricings = map[string]TokenRates{
	"gemini-2.0-flash": {
		Input:  Gemini20FlashInputRate,
		Output: Gemini20FlashOutputRate,
	},
	"gpt-4.1": {
		Input:  GPT41InputRate,
		Output: GPT41OutputRate,
	},
	"gpt-4o": {
		Input:  GPT4oInputRate,
		Output: GPT4oOutputRate,
	},
	"claude-sonnet-4-20250514": {
		Input:  ClaudeSonnet4InputRate,
		Output: ClaudeSonnet4OutputRate,
	},
}

// CostDetails represents detailed cost information for a session.
type CostDetails struct {
	InputTokens  int64
	OutputTokens int64
	TotalCost    float64
}

// Usage sums the token usage of every event in the session.
func (s *Session) Usage() model.Usage {
	var total model.Usage
	for _, evt := range s.Events {
		total = total.Add(evt.Usage)
	}
	return total
}

// Cost returns the accumulated cost of the session priced for modelName.
// The boolean is false when the model has no pricing.
func (s *Session) Cost(modelName string) (*CostDetails, bool) {
	pricing, exists := ModelPricings[modelName]
	if !exists {
		return nil, false
	}

	usage := s.Usage()
	inputCost := float64(usage.PromptTokens) * pricing.Input / 1000000
	outputCost := float64(usage.CompletionTokens) * pricing.Output / 1000000

	return &CostDetails{
		InputTokens:  usage.PromptTokens,
		OutputTokens: usage.CompletionTokens,
		TotalCost:    inputCost + outputCost,
	}, true
}
