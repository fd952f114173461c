// ABOUTME: Implements the bounded tool-orchestration loop - drives one user
// ABOUTME: turn through the LLM, executing requested MCP tool calls along the way.
package orchestrator

import (
	"context"
	"log/slog"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lunalab/mcpchat/llm"
	"github.com/lunalab/mcpchat/mcpclient"
)

// MaxIterations caps LLM round trips per turn. A safety valve against
// runaway tool-calling: on exhaustion the partial text is returned normally.
const MaxIterations = 5

// User-facing error texts. Loop failures are always delivered as final text
// inside an otherwise-normal stream, never as a transport fault.
const (
	rateLimitText    = "The AI service is receiving too many requests right now. Please try again in a moment."
	badRequestText   = "The request could not be processed. Please rephrase your message and try again."
	genericErrorText = "Something went wrong while generating a response. Please try again."
)

// CapabilityClient is the slice of the MCP capability surface the loop uses.
type CapabilityClient interface {
	ListTools(ctx context.Context, serverID string) ([]mcpclient.Tool, error)
	CallTool(ctx context.Context, serverID, name string, args map[string]any) (*mcp.CallToolResult, error)
}

// Uploader stores an extracted image and returns its public URL.
type Uploader interface {
	Upload(data []byte, mimeType string) (string, error)
}

// HistoryMessage is one prior message of the conversation, text only.
// Function call/response parts from earlier turns are deliberately not
// replayed; providers are format-sensitive about stale function responses.
type HistoryMessage struct {
	Role string `json:"role"` // "user" or "model"
	Text string `json:"text"`
}

// TurnRequest is one user turn.
type TurnRequest struct {
	Message        string           `json:"message"`
	History        []HistoryMessage `json:"history"`
	Model          string           `json:"model,omitempty"`
	EnabledServers []string         `json:"enabledServers,omitempty"`
}

// Config holds orchestrator configuration.
type Config struct {
	Model         string
	SystemPrompt  string
	MaxIterations int
}

// Orchestrator runs chat turns, with or without tool access.
type Orchestrator struct {
	client   llm.Client
	caps     CapabilityClient
	uploader Uploader
	logger   *slog.Logger
	config   Config
}

// New creates an Orchestrator. The client should already be wrapped with the
// retry policy; every LLM call made here goes through it.
func New(client llm.Client, caps CapabilityClient, uploader Uploader, logger *slog.Logger, config Config) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if config.MaxIterations <= 0 {
		config.MaxIterations = MaxIterations
	}
	if config.SystemPrompt == "" {
		config.SystemPrompt = DefaultSystemPrompt
	}
	return &Orchestrator{client: client, caps: caps, uploader: uploader, logger: logger, config: config}
}

// Run executes one turn through the tool-calling loop and returns its event
// stream. The channel is closed when the turn completes; errors are converted
// to final text, so the stream always ends cleanly.
func (o *Orchestrator) Run(ctx context.Context, req TurnRequest) <-chan Event {
	events := make(chan Event, 16)
	go func() {
		defer close(events)
		o.run(ctx, req, events)
	}()
	return events
}

func (o *Orchestrator) run(ctx context.Context, req TurnRequest, events chan<- Event) {
	definitions, byName := o.collectTools(ctx, req.EnabledServers)

	messages := seedMessages(req)

	var (
		records   []ToolCallRecord
		imageURLs []string
		finalText strings.Builder
		lastResp  *llm.Response
	)

	for i := 0; i < o.config.MaxIterations; i++ {
		resp, err := o.client.CreateMessage(ctx, &llm.Request{
			Model:    req.Model,
			System:   o.config.SystemPrompt,
			Messages: messages,
			Tools:    definitions,
		})
		if err != nil {
			o.logger.Error("llm call failed", "iteration", i, "error", err)
			events <- Event{Type: EventText, Text: userFacingError(err)}
			return
		}
		lastResp = resp

		if len(resp.Content) == 0 {
			break
		}

		var callBlocks, responseBlocks []llm.ContentBlock

		for _, block := range resp.Content {
			switch block.Type {
			case llm.ContentTypeText:
				finalText.WriteString(block.Text)

			case llm.ContentTypeToolUse:
				serverID, ok := byName[block.Name]
				if !ok {
					o.logger.Warn("model requested unknown tool", "tool", block.Name)
					continue
				}

				record, response := o.executeCall(ctx, serverID, block, &imageURLs)
				records = append(records, record)
				callBlocks = append(callBlocks, block)
				responseBlocks = append(responseBlocks, response)
			}
		}

		if len(responseBlocks) == 0 {
			break
		}

		// One model-role turn with the calls, one turn with all responses,
		// in the order the calls appeared.
		messages = append(messages,
			llm.Message{Role: llm.RoleAssistant, Blocks: callBlocks},
			llm.Message{Role: llm.RoleUser, Blocks: responseBlocks},
		)
		events <- Event{Type: EventToolCalls, ToolCalls: append([]ToolCallRecord(nil), records...)}
	}

	text := finalText.String()
	if text == "" && lastResp != nil {
		text = lastResp.TextContent()
	}

	if len(imageURLs) > 0 {
		events <- Event{Type: EventImages, Images: imageURLs}
	}
	events <- Event{Type: EventText, Text: text}
}

// executeCall invokes one tool and produces both the audit record and the
// function-response block fed back to the model. A failing tool never aborts
// the turn: the error is recorded and reported to the model so it can adapt.
func (o *Orchestrator) executeCall(ctx context.Context, serverID string, call llm.ContentBlock, imageURLs *[]string) (ToolCallRecord, llm.ContentBlock) {
	record := ToolCallRecord{ToolName: call.Name, Arguments: call.Input}
	response := llm.ContentBlock{Type: llm.ContentTypeToolResult, Name: call.Name}

	o.logger.Info("calling tool", "server", serverID, "tool", call.Name)
	result, err := o.caps.CallTool(ctx, serverID, call.Name, call.Input)
	if err != nil {
		o.logger.Error("tool call failed", "server", serverID, "tool", call.Name, "error", err)
		record.Error = err.Error()
		response.Response = map[string]any{"error": err.Error()}
		return record, response
	}

	// The record keeps the original tool content; the model sees either the
	// uploaded image URLs or the reduced result value, never raw bytes.
	record.Result = mcpclient.ContentValues(result)

	images := mcpclient.ExtractImages(result)
	if len(images) > 0 && o.uploader != nil {
		urls := o.uploadImages(images)
		*imageURLs = append(*imageURLs, urls...)
		response.Response = map[string]any{
			"success":   true,
			"message":   "Image generated and uploaded successfully.",
			"imageUrls": urls,
		}
		return record, response
	}

	response.Response = responsePayload(mcpclient.ResultValue(result))
	return record, response
}

func (o *Orchestrator) uploadImages(images []mcpclient.ExtractedImage) []string {
	urls := make([]string, 0, len(images))
	for _, img := range images {
		url, err := o.uploader.Upload(img.Data, img.MimeType)
		if err != nil {
			o.logger.Error("image upload failed", "mimeType", img.MimeType, "error", err)
			continue
		}
		urls = append(urls, url)
	}
	return urls
}

// collectTools merges the tool lists of every enabled connected server into
// one declaration list plus a name-to-server map. On a name collision the
// last registration wins. A server whose listing fails is skipped; one bad
// server must not take down the turn.
func (o *Orchestrator) collectTools(ctx context.Context, enabled []string) ([]llm.ToolDefinition, map[string]string) {
	var definitions []llm.ToolDefinition
	byName := make(map[string]string)

	for _, serverID := range enabled {
		tools, err := o.caps.ListTools(ctx, serverID)
		if err != nil {
			o.logger.Warn("listing tools failed, skipping server", "server", serverID, "error", err)
			continue
		}
		for _, t := range tools {
			if _, exists := byName[t.Name]; exists {
				o.logger.Warn("tool name collision, last registration wins", "tool", t.Name, "server", serverID)
			}
			byName[t.Name] = serverID
			definitions = append(definitions, ToolDefinition(t))
		}
	}
	return definitions, byName
}

// seedMessages builds the conversation for one turn: prior history as plain
// text plus the new user message.
func seedMessages(req TurnRequest) []llm.Message {
	messages := make([]llm.Message, 0, len(req.History)+1)
	for _, h := range req.History {
		if h.Text == "" {
			continue
		}
		if h.Role == "model" {
			messages = append(messages, llm.NewAssistantMessage(h.Text))
		} else {
			messages = append(messages, llm.NewUserMessage(h.Text))
		}
	}
	return append(messages, llm.NewUserMessage(req.Message))
}

// responsePayload shapes a tool result for the function response. Objects
// pass through; everything else is wrapped so the payload stays a map.
func responsePayload(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{"result": v}
}

// userFacingError maps a loop failure to one of three user-facing texts.
func userFacingError(err error) string {
	if llm.IsRateLimited(err) {
		return rateLimitText
	}
	msg := err.Error()
	if strings.Contains(msg, "400") || strings.Contains(msg, "INVALID_ARGUMENT") {
		return badRequestText
	}
	return genericErrorText
}

// RunPlain executes one turn as a single streaming call with no tool access.
// Used when the turn has no enabled servers; it shares the retry policy with
// the tool loop through the wrapped client.
func (o *Orchestrator) RunPlain(ctx context.Context, req TurnRequest) <-chan Event {
	events := make(chan Event, 16)
	go func() {
		defer close(events)

		stream, err := o.client.CreateMessageStream(ctx, &llm.Request{
			Model:    req.Model,
			System:   o.config.SystemPrompt,
			Messages: seedMessages(req),
		})
		if err != nil {
			o.logger.Error("llm stream failed", "error", err)
			events <- Event{Type: EventText, Text: userFacingError(err)}
			return
		}

		for event := range stream {
			switch event.Type {
			case llm.EventContentDelta:
				if event.Text != "" {
					events <- Event{Type: EventText, Text: event.Text}
				}
			case llm.EventError:
				o.logger.Error("llm stream failed", "error", event.Error)
				events <- Event{Type: EventText, Text: userFacingError(event.Error)}
				return
			}
		}
	}()
	return events
}
