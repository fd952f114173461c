// ABOUTME: Follow-up question convention - the system prompt that requests
// ABOUTME: them and the best-effort parser that splits them off answer text.
package orchestrator

import (
	"encoding/json"
	"strings"
)

// FollowupSeparator is the literal line the model is instructed to emit
// between its answer and the suggested follow-up questions.
const FollowupSeparator = "---FOLLOWUP---"

// DefaultSystemPrompt asks the model to answer and then propose follow-up
// questions behind the separator. The convention is enforced by instruction
// only; the server parses it best-effort when persisting messages.
const DefaultSystemPrompt = `You are a helpful AI assistant. Answer the user's questions clearly and kindly.

After your answer, you must suggest 3 follow-up questions the user might find interesting, in this exact format:

[answer content]

---FOLLOWUP---
["question 1", "question 2", "question 3"]

Rules:
1. The ---FOLLOWUP--- separator must be on its own line, separate from the answer.
2. The follow-up questions must be a valid JSON array.
3. The follow-up questions must relate closely to the answer.`

// ParseFollowups splits answer text from the trailing suggested-question
// array. Malformed or missing JSON is silently treated as "no suggestions".
func ParseFollowups(text string) (answer string, suggestions []string) {
	idx := strings.LastIndex(text, FollowupSeparator)
	if idx < 0 {
		return text, nil
	}

	answer = strings.TrimRight(text[:idx], " \n\t")
	tail := strings.TrimSpace(text[idx+len(FollowupSeparator):])

	var parsed []string
	if err := json.Unmarshal([]byte(tail), &parsed); err != nil {
		return answer, nil
	}
	return answer, parsed
}
