// Package protocol defines the wire types of the control dialect: UTF-8
// text, one JSON value per line, with bidirectional control traffic
// multiplexed into the same stream as session output.
package protocol

import (
	"encoding/json"
	"fmt"
)

// MessageType discriminates between message kinds.
type MessageType string

const (
	MessageTypeSystem          MessageType = "system"
	MessageTypeAssistant       MessageType = "assistant"
	MessageTypeUser            MessageType = "user"
	MessageTypeToolUse         MessageType = "tool_use"
	MessageTypeResult          MessageType = "result"
	MessageTypeControlRequest  MessageType = "control_request"
	MessageTypeControlResponse MessageType = "control_response"
)

// Message is the interface for all protocol messages.
type Message interface {
	MsgType() MessageType
}

// SystemMessage represents session initialization and system events.
type SystemMessage struct {
	Type           MessageType `json:"type"`
	Subtype        string      `json:"subtype,omitempty"`
	SessionID      string      `json:"session_id,omitempty"`
	SessionIDAlt   string      `json:"sessionId,omitempty"`
	Model          string      `json:"model,omitempty"`
	CWD            string      `json:"cwd,omitempty"`
	PermissionMode string      `json:"permissionMode,omitempty"`
	Tools          []string    `json:"tools,omitempty"`
}

// MsgType returns the message type.
func (m SystemMessage) MsgType() MessageType { return MessageTypeSystem }

// Session returns the session identifier regardless of which field spelling
// the CLI used.
func (m SystemMessage) Session() string {
	if m.SessionID != "" {
		return m.SessionID
	}
	return m.SessionIDAlt
}

// FlexibleContent can be either a string or an array of content blocks.
type FlexibleContent struct {
	raw json.RawMessage
}

// NewStringContent builds a FlexibleContent holding a plain string.
func NewStringContent(s string) FlexibleContent {
	raw, _ := json.Marshal(s)
	return FlexibleContent{raw: raw}
}

// UnmarshalJSON implements json.Unmarshaler.
func (fc *FlexibleContent) UnmarshalJSON(data []byte) error {
	fc.raw = data
	return nil
}

// MarshalJSON implements json.Marshaler.
func (fc FlexibleContent) MarshalJSON() ([]byte, error) {
	if fc.raw == nil {
		return []byte("null"), nil
	}
	return fc.raw, nil
}

// IsString returns true if the content is a string.
func (fc FlexibleContent) IsString() bool {
	if len(fc.raw) == 0 {
		return false
	}
	return fc.raw[0] == '"'
}

// AsString returns the content as a string (if it is one).
func (fc FlexibleContent) AsString() (string, bool) {
	if !fc.IsString() {
		return "", false
	}
	var s string
	if err := json.Unmarshal(fc.raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// AsBlocks returns the content as content blocks (if it is an array).
func (fc FlexibleContent) AsBlocks() (ContentBlocks, bool) {
	if fc.IsString() || len(fc.raw) == 0 {
		return nil, false
	}
	var blocks ContentBlocks
	if err := json.Unmarshal(fc.raw, &blocks); err != nil {
		return nil, false
	}
	return blocks, true
}

// MessageContent is the inner content of assistant/user messages.
type MessageContent struct {
	Model   string          `json:"model,omitempty"`
	Role    string          `json:"role"`
	Content FlexibleContent `json:"content"`
}

// AssistantMessage is a complete message from the agent.
type AssistantMessage struct {
	Type      MessageType    `json:"type"`
	SessionID string         `json:"session_id,omitempty"`
	Message   MessageContent `json:"message"`
}

// MsgType returns the message type.
func (m AssistantMessage) MsgType() MessageType { return MessageTypeAssistant }

// UserMessage is user input echoed back, or tool results routed through the
// user role.
type UserMessage struct {
	Type      MessageType    `json:"type"`
	SessionID string         `json:"session_id,omitempty"`
	Message   MessageContent `json:"message"`
}

// MsgType returns the message type.
func (m UserMessage) MsgType() MessageType { return MessageTypeUser }

// ToolUseMessage is the dedicated tool-lifecycle message type. The dialect
// routes actual results through user messages, so consumers parse this type
// and then drop it.
type ToolUseMessage struct {
	Type MessageType     `json:"type"`
	Raw  json.RawMessage `json:"-"`
}

// MsgType returns the message type.
func (m ToolUseMessage) MsgType() MessageType { return MessageTypeToolUse }

// ResultMessage signals turn completion.
type ResultMessage struct {
	Type       MessageType     `json:"type"`
	Subtype    string          `json:"subtype,omitempty"`
	SessionID  string          `json:"session_id,omitempty"`
	Result     json.RawMessage `json:"result,omitempty"`
	DurationMs int64           `json:"duration_ms,omitempty"`
	IsError    bool            `json:"is_error,omitempty"`
}

// MsgType returns the message type.
func (m ResultMessage) MsgType() MessageType { return MessageTypeResult }

// ResultText returns the result payload as display text: unquoted when it is
// a JSON string, raw JSON text otherwise.
func (m ResultMessage) ResultText() string {
	if len(m.Result) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(m.Result, &s); err == nil {
		return s
	}
	return string(m.Result)
}

// OpaqueTextMessage wraps an inbound line that was not valid JSON. It never
// appears on the wire; the local transport synthesizes it so consumers can
// choose fallback behavior (typically a plain system message).
type OpaqueTextMessage struct {
	Text string
}

// MsgType returns the message type.
func (m OpaqueTextMessage) MsgType() MessageType { return "opaque_text" }

// UnknownMessage carries a message whose tag is not part of the dialect.
// It is an explicit fallback variant so callers can log or skip it.
type UnknownMessage struct {
	Type MessageType
	Raw  json.RawMessage
}

// MsgType returns the message type.
func (m UnknownMessage) MsgType() MessageType { return m.Type }

// ParseMessage parses one complete JSON line into a typed message.
// Unknown tags yield an UnknownMessage, never an error.
func ParseMessage(line []byte) (Message, error) {
	var base struct {
		Type MessageType `json:"type"`
	}
	if err := json.Unmarshal(line, &base); err != nil {
		return nil, fmt.Errorf("parse message type: %w", err)
	}

	switch base.Type {
	case MessageTypeSystem:
		var m SystemMessage
		if err := json.Unmarshal(line, &m); err != nil {
			return nil, fmt.Errorf("parse system message: %w", err)
		}
		return m, nil
	case MessageTypeAssistant:
		var m AssistantMessage
		if err := json.Unmarshal(line, &m); err != nil {
			return nil, fmt.Errorf("parse assistant message: %w", err)
		}
		return m, nil
	case MessageTypeUser:
		var m UserMessage
		if err := json.Unmarshal(line, &m); err != nil {
			return nil, fmt.Errorf("parse user message: %w", err)
		}
		return m, nil
	case MessageTypeToolUse:
		return ToolUseMessage{Type: base.Type, Raw: append(json.RawMessage(nil), line...)}, nil
	case MessageTypeResult:
		var m ResultMessage
		if err := json.Unmarshal(line, &m); err != nil {
			return nil, fmt.Errorf("parse result message: %w", err)
		}
		return m, nil
	case MessageTypeControlRequest:
		var m ControlRequest
		if err := json.Unmarshal(line, &m); err != nil {
			return nil, fmt.Errorf("parse control request: %w", err)
		}
		return m, nil
	case MessageTypeControlResponse:
		var m ControlResponse
		if err := json.Unmarshal(line, &m); err != nil {
			return nil, fmt.Errorf("parse control response: %w", err)
		}
		return m, nil
	default:
		return UnknownMessage{Type: base.Type, Raw: append(json.RawMessage(nil), line...)}, nil
	}
}
