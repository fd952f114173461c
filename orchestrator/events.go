// ABOUTME: Defines the per-turn event stream - tool-call snapshots, uploaded
// ABOUTME: image URLs, and final text emitted by the orchestration loop.
package orchestrator

// EventType identifies the kind of turn event.
type EventType string

const (
	// EventToolCalls carries the cumulative tool-call record list, emitted
	// after every iteration that executed calls.
	EventToolCalls EventType = "tool_calls"
	// EventImages carries the uploaded image URLs for the turn.
	EventImages EventType = "images"
	// EventText carries answer text. The plain streaming path emits many of
	// these; the tool loop emits exactly one final chunk.
	EventText EventType = "text"
)

// Event is one frame of a turn's output stream.
type Event struct {
	Type      EventType
	ToolCalls []ToolCallRecord
	Images    []string
	Text      string
}

// ToolCallRecord is one executed tool invocation within a single turn.
// Exactly one of Result and Error is set. The full ordered list is surfaced
// to the caller for transparency.
type ToolCallRecord struct {
	ToolName  string         `json:"toolName"`
	Arguments map[string]any `json:"arguments"`
	Result    any            `json:"result,omitempty"`
	Error     string         `json:"error,omitempty"`
}
