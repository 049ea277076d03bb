package prompts

// AgentPromptData contains data for the agent system prompt template.
type AgentPromptData struct {
	Name        string
	Description string
	Instruction string
	ToolNames   []string
}

// AgentPromptTemplate is the template for an agent's system instruction.
const AgentPromptTemplate = `
{{ trim .Instruction }}

You are an agent. Your internal name is "{{ .Name }}".
{{- if .Description }}

The description about you is "{{ trim .Description }}".
{{- end }}
{{- if .ToolNames }}

You can call these tools: {{ formatToolNames .ToolNames }}.
{{- end }}`

// AgentPrompt creates the agent system prompt by applying the provided data.
func AgentPrompt(data AgentPromptData) (string, error) {
	return generateFromTemplate(AgentPromptTemplate, data)
}
