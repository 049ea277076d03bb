package weather

import (
	"io"
	"strings"

	"github.com/boat-builder/weatherpod"
	"github.com/boat-builder/weatherpod/model"
	"github.com/boat-builder/weatherpod/model/scripted"
)

const (
	AgentName        = "Weather_agent"
	AgentDescription = "Provides weather information for specific cities."
	AgentInstruction = "You are a helpful weather assistant." +
		"When the user asks for the weather in a specific city, " +
		"use the 'get_weather' tool to find the information. " +
		"If the tool returns an error, inform the user politely. " +
		"If the tool is successful, present the weather report clearly."
)

// NewAgent builds the weather agent on llm with the default table. Tool
// traces go to w.
func NewAgent(llm model.LLM, w io.Writer) (*weatherpod.Agent, error) {
	tool, err := NewTool(DefaultTable(), w)
	if err != nil {
		return nil, err
	}
	return weatherpod.NewAgent(weatherpod.AgentConfig{
		Name:        AgentName,
		Model:       llm,
		Description: AgentDescription,
		Instruction: AgentInstruction,
		Tools:       []weatherpod.Tool{tool},
	})
}

// OfflineModel answers weather questions without a provider: it calls
// get_weather with the city named after " in " and relays the tool's report
// or error message.
func OfflineModel() *scripted.Model {
	return scripted.New(
		scripted.CallToolWith(ToolName, func(userText string) map[string]any {
			return map[string]any{"city": CityFromQuery(userText)}
		}),
		scripted.ReplyWithResponseField("report", "error_message"),
	)
}

// CityFromQuery extracts the city from questions such as "What is the
// weather like in London?".
func CityFromQuery(query string) string {
	city := query
	if i := strings.LastIndex(strings.ToLower(query), " in "); i >= 0 {
		city = query[i+len(" in "):]
	}
	return strings.TrimSpace(strings.TrimRight(strings.TrimSpace(city), "?!."))
}
