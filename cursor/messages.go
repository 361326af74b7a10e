// Package cursor normalizes the plain JSONL dialect: flat tagged messages
// with an explicit two-phase tool lifecycle (started/completed sharing a
// call id) and single-key tool invocation payloads.
package cursor

import (
	"encoding/json"
	"fmt"
)

// RawMessage carries just the discriminating tags of a line.
type RawMessage struct {
	Type    string `json:"type"`
	Subtype string `json:"subtype,omitempty"`
}

// SystemInitMessage announces session parameters.
// Example: {"type":"system","subtype":"init","session_id":"...","model":"...","cwd":"..."}
type SystemInitMessage struct {
	Type           string `json:"type"`
	Subtype        string `json:"subtype"`
	SessionID      string `json:"session_id"`
	Model          string `json:"model"`
	CWD            string `json:"cwd"`
	PermissionMode string `json:"permissionMode"`
	APIKeySource   string `json:"apiKeySource"`
}

// TextPart is one element of a message content array.
type TextPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// MessageInner is the role/content body shared by user and assistant
// messages.
type MessageInner struct {
	Role    string     `json:"role"`
	Content []TextPart `json:"content"`
}

// Text concatenates the text parts of the content array.
func (m MessageInner) Text() string {
	var out string
	for _, part := range m.Content {
		if part.Type == "text" {
			out += part.Text
		}
	}
	return out
}

// UserMessage is user input echoed into the stream.
type UserMessage struct {
	Type      string       `json:"type"`
	Message   MessageInner `json:"message"`
	SessionID string       `json:"session_id"`
}

// AssistantMessage is a streamed chunk of assistant text.
// Example: {"type":"assistant","message":{"role":"assistant","content":[{"type":"text","text":"chunk"}]},"session_id":"..."}
type AssistantMessage struct {
	Type      string       `json:"type"`
	Message   MessageInner `json:"message"`
	SessionID string       `json:"session_id"`
}

// ThinkingMessage is a streamed chunk of reasoning text.
type ThinkingMessage struct {
	Type      string `json:"type"`
	Text      string `json:"text"`
	SessionID string `json:"session_id"`
}

// ToolCallBody is the args/result pair nested under the invocation's tool
// key. Result is absent on the started occurrence.
type ToolCallBody struct {
	Args   map[string]any  `json:"args"`
	Result json.RawMessage `json:"result,omitempty"`
}

// ToolCall is the single-key invocation payload: tool key → body.
type ToolCall map[string]ToolCallBody

// Detail extracts the single tool key and its body.
func (tc ToolCall) Detail() (string, ToolCallBody, error) {
	if len(tc) == 0 {
		return "", ToolCallBody{}, fmt.Errorf("empty tool_call field")
	}
	for name, body := range tc {
		return name, body, nil
	}
	return "", ToolCallBody{}, fmt.Errorf("no tool call entries found")
}

// ToolCallMessage is one occurrence of the two-phase tool lifecycle.
// Example: {"type":"tool_call","subtype":"started","call_id":"c1","tool_call":{"readToolCall":{"args":{"path":"main.go"}}},"session_id":"..."}
type ToolCallMessage struct {
	Type      string   `json:"type"`
	Subtype   string   `json:"subtype"`
	CallID    string   `json:"call_id"`
	ToolCall  ToolCall `json:"tool_call"`
	SessionID string   `json:"session_id"`
}

// ResultMessage is the final message of a turn.
type ResultMessage struct {
	Type          string `json:"type"`
	Subtype       string `json:"subtype"`
	DurationMs    int64  `json:"duration_ms"`
	DurationAPIMs int64  `json:"duration_api_ms"`
	IsError       bool   `json:"is_error"`
	Result        string `json:"result"`
	SessionID     string `json:"session_id"`
}

// Message is the union type returned by ParseMessage.
type Message interface {
	messageType() string
}

// UnknownMessage carries a line whose tag is not part of the dialect.
type UnknownMessage struct {
	Type string
	Raw  json.RawMessage
}

func (m *SystemInitMessage) messageType() string { return "system" }
func (m *UserMessage) messageType() string       { return "user" }
func (m *AssistantMessage) messageType() string  { return "assistant" }
func (m *ThinkingMessage) messageType() string   { return "thinking" }
func (m *ToolCallMessage) messageType() string   { return "tool_call" }
func (m *ResultMessage) messageType() string     { return "result" }
func (m *UnknownMessage) messageType() string    { return m.Type }

// ParseMessage parses one JSON line into a typed message. Unknown tags yield
// an UnknownMessage, never an error.
func ParseMessage(line []byte) (Message, error) {
	var raw RawMessage
	if err := json.Unmarshal(line, &raw); err != nil {
		return nil, fmt.Errorf("parse message type: %w", err)
	}

	switch raw.Type {
	case "system":
		var msg SystemInitMessage
		if err := json.Unmarshal(line, &msg); err != nil {
			return nil, fmt.Errorf("parse system message: %w", err)
		}
		return &msg, nil
	case "user":
		var msg UserMessage
		if err := json.Unmarshal(line, &msg); err != nil {
			return nil, fmt.Errorf("parse user message: %w", err)
		}
		return &msg, nil
	case "assistant":
		var msg AssistantMessage
		if err := json.Unmarshal(line, &msg); err != nil {
			return nil, fmt.Errorf("parse assistant message: %w", err)
		}
		return &msg, nil
	case "thinking":
		var msg ThinkingMessage
		if err := json.Unmarshal(line, &msg); err != nil {
			return nil, fmt.Errorf("parse thinking message: %w", err)
		}
		return &msg, nil
	case "tool_call":
		var msg ToolCallMessage
		if err := json.Unmarshal(line, &msg); err != nil {
			return nil, fmt.Errorf("parse tool call message: %w", err)
		}
		return &msg, nil
	case "result":
		var msg ResultMessage
		if err := json.Unmarshal(line, &msg); err != nil {
			return nil, fmt.Errorf("parse result message: %w", err)
		}
		return &msg, nil
	default:
		return &UnknownMessage{Type: raw.Type, Raw: append(json.RawMessage(nil), line...)}, nil
	}
}
