package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Outbound is a host→agent command ready to serialize as one JSON line.
type Outbound interface {
	Marshal() ([]byte, error)
}

// UserMessageToSend is a user message we send to the agent.
type UserMessageToSend struct {
	Type      string                 `json:"type"`
	Message   UserMessageToSendInner `json:"message"`
	SessionID string                 `json:"session_id,omitempty"`
}

// UserMessageToSendInner is the inner part of messages we send.
type UserMessageToSendInner struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

// Marshal serializes the message to a JSON line ready to write.
func (m UserMessageToSend) Marshal() ([]byte, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal UserMessageToSend: %w", err)
	}
	return b, nil
}

// NewUserTextMessage constructs a UserMessageToSend with a plain text string.
func NewUserTextMessage(text string, sessionID string) UserMessageToSend {
	return UserMessageToSend{
		Type:      "user",
		SessionID: sessionID,
		Message: UserMessageToSendInner{
			Role:    "user",
			Content: text,
		},
	}
}

// NewUserBlocksMessage constructs a UserMessageToSend with content blocks.
func NewUserBlocksMessage(blocks []any, sessionID string) UserMessageToSend {
	return UserMessageToSend{
		Type:      "user",
		SessionID: sessionID,
		Message: UserMessageToSendInner{
			Role:    "user",
			Content: blocks,
		},
	}
}

// SDKControlRequest is a fire-and-forget host→agent command. The agent does
// not answer it, so no correlation machinery applies; the id is carried for
// log matching only.
type SDKControlRequest struct {
	Type      string `json:"type"`
	RequestID string `json:"request_id,omitempty"`
	Request   any    `json:"request"`
}

// Marshal serializes the control request to a JSON line ready to write.
func (m SDKControlRequest) Marshal() ([]byte, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal SDKControlRequest: %w", err)
	}
	return b, nil
}

// InitializeRequestBody is the body of an initialize command.
type InitializeRequestBody struct {
	Type  string         `json:"type"`
	Hooks map[string]any `json:"hooks,omitempty"`
}

// NewInitialize constructs the initialize handshake command.
func NewInitialize(hooks map[string]any) SDKControlRequest {
	return SDKControlRequest{
		Type:      "sdk_control_request",
		RequestID: uuid.NewString(),
		Request:   InitializeRequestBody{Type: "initialize", Hooks: hooks},
	}
}

// SetPermissionModeBody is the body of a set_permission_mode command.
type SetPermissionModeBody struct {
	Type  string `json:"type"`
	Mode  string `json:"mode"`
	Scope string `json:"scope,omitempty"`
}

// NewSetPermissionMode constructs a command that changes the permission mode.
func NewSetPermissionMode(mode, scope string) SDKControlRequest {
	return SDKControlRequest{
		Type:      "sdk_control_request",
		RequestID: uuid.NewString(),
		Request:   SetPermissionModeBody{Type: "set_permission_mode", Mode: mode, Scope: scope},
	}
}

// SetModelBody is the body of a set_model command.
type SetModelBody struct {
	Type  string `json:"type"`
	Model string `json:"model"`
}

// NewSetModel constructs a command that switches the active model.
func NewSetModel(model string) SDKControlRequest {
	return SDKControlRequest{
		Type:      "sdk_control_request",
		RequestID: uuid.NewString(),
		Request:   SetModelBody{Type: "set_model", Model: model},
	}
}

// InterruptMessage cancels the current turn.
type InterruptMessage struct {
	Type    string        `json:"type"`
	Control InterruptBody `json:"control"`
}

// InterruptBody is the inner control payload of an interrupt.
type InterruptBody struct {
	Type string `json:"type"`
}

// Marshal serializes the interrupt to a JSON line ready to write.
func (m InterruptMessage) Marshal() ([]byte, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal InterruptMessage: %w", err)
	}
	return b, nil
}

// NewInterrupt constructs an interrupt command.
func NewInterrupt() InterruptMessage {
	return InterruptMessage{
		Type:    "control",
		Control: InterruptBody{Type: "interrupt"},
	}
}
