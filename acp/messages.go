// Package acp normalizes the typed session-update dialect: a discriminated
// union of update notifications carrying content blocks, explicit tool
// statuses, and plan snapshots.
package acp

import (
	"encoding/json"
	"fmt"
)

// Session update discriminator values.
const (
	UpdateAgentMessageChunk = "agent_message_chunk"
	UpdateAgentThoughtChunk = "agent_thought_chunk"
	UpdateUserMessageChunk  = "user_message_chunk"
	UpdateToolCall          = "tool_call"
	UpdateToolCallUpdate    = "tool_call_update"
	UpdatePlan              = "plan"
	UpdateAvailableCommands = "available_commands_update"
	UpdateCurrentMode       = "current_mode_update"
)

// ContentBlock is a typed piece of message content.
type ContentBlock struct {
	Type string `json:"type"` // "text", "image", "audio", "resource_link"
	Text string `json:"text,omitempty"`

	// image / audio
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
	URI      string `json:"uri,omitempty"`

	// resource_link
	Name string `json:"name,omitempty"`
}

// ToolCallContent is one element of a tool call's content array: either a
// nested content block or an inline diff.
type ToolCallContent struct {
	Type    string        `json:"type"` // "content", "diff"
	Content *ContentBlock `json:"content,omitempty"`

	// diff fields
	Path    string `json:"path,omitempty"`
	OldText string `json:"oldText,omitempty"`
	NewText string `json:"newText,omitempty"`
}

// Location points a tool call at a file.
type Location struct {
	Path string `json:"path"`
	Line int    `json:"line,omitempty"`
}

// Plan is the agent's current execution plan.
type Plan struct {
	Entries []PlanEntry `json:"entries"`
}

// PlanEntry is a single step in a plan.
type PlanEntry struct {
	Content  string `json:"content"`
	Status   string `json:"status,omitempty"`   // "pending", "in_progress", "completed"
	Priority string `json:"priority,omitempty"` // "high", "medium", "low"
}

// AvailableCommand describes a command the agent advertises.
type AvailableCommand struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// SessionUpdate is the discriminated union of update types. The
// "sessionUpdate" field selects which other fields are populated. Content is
// kept raw because message chunks carry a single block where tool calls
// carry an array.
type SessionUpdate struct {
	Type string `json:"sessionUpdate"`

	Content json.RawMessage `json:"content,omitempty"`

	// tool_call / tool_call_update
	ToolCallID string         `json:"toolCallId,omitempty"`
	Title      string         `json:"title,omitempty"`
	Kind       string         `json:"kind,omitempty"`   // "read", "edit", "delete", "execute", "search", ...
	Status     string         `json:"status,omitempty"` // "pending", "in_progress", "completed", "failed"
	RawInput   map[string]any `json:"rawInput,omitempty"`
	Locations  []Location     `json:"locations,omitempty"`

	// plan
	Entries []PlanEntry `json:"entries,omitempty"`

	// available_commands_update
	AvailableCommands []AvailableCommand `json:"availableCommands,omitempty"`

	// current_mode_update
	CurrentModeID string `json:"currentModeId,omitempty"`
}

// MessageContent decodes the single content block of a message or thought
// chunk.
func (u SessionUpdate) MessageContent() (ContentBlock, bool) {
	if len(u.Content) == 0 {
		return ContentBlock{}, false
	}
	var block ContentBlock
	if err := json.Unmarshal(u.Content, &block); err != nil {
		return ContentBlock{}, false
	}
	return block, true
}

// ToolContent decodes the content array of a tool call update.
func (u SessionUpdate) ToolContent() []ToolCallContent {
	if len(u.Content) == 0 {
		return nil
	}
	var items []ToolCallContent
	if err := json.Unmarshal(u.Content, &items); err != nil {
		return nil
	}
	return items
}

// SessionNotification wraps an update with its session id, as delivered by
// a session/update notification.
type SessionNotification struct {
	SessionID string        `json:"sessionId"`
	Update    SessionUpdate `json:"update"`
}

// notificationEnvelope matches the JSON-RPC framing some agents emit.
type notificationEnvelope struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

// ParseUpdate decodes one line into a session update. Three framings are
// accepted: a JSON-RPC session/update notification, a bare notification
// object, and a naked update.
func ParseUpdate(line []byte) (SessionNotification, error) {
	var env notificationEnvelope
	if err := json.Unmarshal(line, &env); err != nil {
		return SessionNotification{}, fmt.Errorf("parse session update: %w", err)
	}
	if env.Method != "" {
		if env.Method != "session/update" {
			return SessionNotification{}, fmt.Errorf("unexpected method %q", env.Method)
		}
		var note SessionNotification
		if err := json.Unmarshal(env.Params, &note); err != nil {
			return SessionNotification{}, fmt.Errorf("parse session/update params: %w", err)
		}
		return note, nil
	}

	var note SessionNotification
	if err := json.Unmarshal(line, &note); err == nil && note.Update.Type != "" {
		return note, nil
	}

	var update SessionUpdate
	if err := json.Unmarshal(line, &update); err != nil {
		return SessionNotification{}, fmt.Errorf("parse session update: %w", err)
	}
	if update.Type == "" {
		return SessionNotification{}, fmt.Errorf("line carries no sessionUpdate tag")
	}
	return SessionNotification{Update: update}, nil
}
