// ABOUTME: Pure helpers over tool results - image extraction and conversion
// ABOUTME: of MCP content blocks into JSON-friendly values.
package mcpclient

import (
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// DefaultImageMimeType is assumed when an image block omits its mime type.
const DefaultImageMimeType = "image/webp"

// ExtractedImage is a binary payload pulled out of a tool result. The bytes
// are never fed back to the model; only the URL of the uploaded copy is.
type ExtractedImage struct {
	Data     []byte
	MimeType string
}

// ExtractImages collects the image content blocks of a tool result. Pure
// function; performs no I/O.
func ExtractImages(res *mcp.CallToolResult) []ExtractedImage {
	if res == nil {
		return nil
	}
	var images []ExtractedImage
	for _, block := range res.Content {
		img, ok := block.(*mcp.ImageContent)
		if !ok {
			continue
		}
		mime := img.MIMEType
		if mime == "" {
			mime = DefaultImageMimeType
		}
		images = append(images, ExtractedImage{Data: img.Data, MimeType: mime})
	}
	return images
}

// ContentValues converts a tool result's content blocks into plain
// JSON-encodable values, preserving inline image data. This is the shape
// stored in tool-call records.
func ContentValues(res *mcp.CallToolResult) []any {
	if res == nil {
		return nil
	}
	values := make([]any, 0, len(res.Content))
	for _, block := range res.Content {
		values = append(values, contentValue(block))
	}
	return values
}

func contentValue(block mcp.Content) any {
	switch c := block.(type) {
	case *mcp.TextContent:
		return map[string]any{"type": "text", "text": c.Text}
	case *mcp.ImageContent:
		return map[string]any{"type": "image", "mimeType": c.MIMEType, "data": c.Data}
	case *mcp.AudioContent:
		return map[string]any{"type": "audio", "mimeType": c.MIMEType, "data": c.Data}
	case *mcp.EmbeddedResource:
		return map[string]any{"type": "resource", "resource": c.Resource}
	default:
		return map[string]any{"type": "unknown"}
	}
}

// ResultValue reduces a tool result to the value a model should see. A single
// text block that parses as JSON becomes that value; a single plain-text block
// becomes its string; anything else becomes the list of content values.
func ResultValue(res *mcp.CallToolResult) any {
	if res == nil {
		return nil
	}
	if len(res.Content) == 1 {
		if text, ok := res.Content[0].(*mcp.TextContent); ok {
			var parsed any
			if err := json.Unmarshal([]byte(text.Text), &parsed); err == nil {
				switch parsed.(type) {
				case map[string]any, []any:
					return parsed
				}
			}
			return text.Text
		}
	}
	return ContentValues(res)
}
