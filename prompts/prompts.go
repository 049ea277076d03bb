// Package prompts renders the system instructions sent to models.
package prompts

import (
	"bytes"
	"strings"
	"text/template"
)

// generateFromTemplate renders templateString with data.
func generateFromTemplate[T any](templateString string, data T) (string, error) {
	funcMap := template.FuncMap{
		"formatToolNames": formatToolNames,
		"trim":            strings.TrimSpace,
	}

	tmpl, err := template.New("prompt").Funcs(funcMap).Parse(templateString)
	if err != nil {
		return "", err
	}
	var prompt bytes.Buffer
	if err := tmpl.Execute(&prompt, data); err != nil {
		return "", err
	}
	return strings.TrimSpace(prompt.String()), nil
}

// formatToolNames formats tool names as a comma-separated string.
func formatToolNames(names []string) string {
	return strings.Join(names, ", ")
}
