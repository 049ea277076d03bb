package weatherpod

import (
	"google.golang.org/genai"
)

// BuildContents turns stored events into the conversation sent to a model.
// Partial events, escalations and events without parts are left out.
func BuildContents(events []*Event) []*genai.Content {
	contents := make([]*genai.Content, 0, len(events))
	for _, evt := range events {
		if evt == nil || evt.Partial || evt.Content == nil || len(evt.Content.Parts) == 0 {
			continue
		}
		content := evt.Content
		if content.Role == "" {
			role := string(genai.RoleModel)
			if evt.Author == AuthorUser {
				role = string(genai.RoleUser)
			}
			content = &genai.Content{Role: role, Parts: content.Parts}
		}
		contents = append(contents, content)
	}
	return contents
}
