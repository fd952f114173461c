// ABOUTME: Schema translation - converts MCP tool input schemas into the
// ABOUTME: declaration shape the LLM's function-calling interface expects.
package orchestrator

import (
	"encoding/json"

	"github.com/lunalab/mcpchat/llm"
	"github.com/lunalab/mcpchat/mcpclient"
)

// ToolDefinition translates one MCP tool into an LLM tool declaration.
// Input schemas arrive at runtime from arbitrary servers and are treated as
// data: the object shape is passed through, with missing properties/required
// defaulting to empty.
func ToolDefinition(t mcpclient.Tool) llm.ToolDefinition {
	schema := map[string]any{
		"type":       "object",
		"properties": map[string]any{},
		"required":   []any{},
	}

	if t.InputSchema != nil {
		if raw, err := json.Marshal(t.InputSchema); err == nil {
			var decoded map[string]any
			if err := json.Unmarshal(raw, &decoded); err == nil {
				if props, ok := decoded["properties"]; ok && props != nil {
					schema["properties"] = props
				}
				if required, ok := decoded["required"]; ok && required != nil {
					schema["required"] = required
				}
			}
		}
	}

	return llm.ToolDefinition{
		Name:        t.Name,
		Description: t.Description,
		InputSchema: schema,
	}
}
