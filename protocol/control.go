package protocol

import (
	"encoding/json"
	"fmt"
	"log/slog"
)

// ControlRequest wraps an agent→host control request. The host must answer
// with a ControlResponse carrying the same correlation id.
type ControlRequest struct {
	Type         MessageType     `json:"type"`
	RequestID    string          `json:"requestId,omitempty"`
	RequestIDAlt string          `json:"request_id,omitempty"`
	Request      json.RawMessage `json:"request"`
}

// MsgType returns the message type.
func (m ControlRequest) MsgType() MessageType { return MessageTypeControlRequest }

// ID returns the correlation id regardless of which field spelling the CLI
// used.
func (m ControlRequest) ID() string {
	if m.RequestID != "" {
		return m.RequestID
	}
	return m.RequestIDAlt
}

// ParsedRequest parses the inner request from a ControlRequest.
func (m ControlRequest) ParsedRequest() (ControlRequestData, error) {
	return ParseControlRequest(m.Request)
}

// ControlRequestSubtype is the subtype of a control request.
type ControlRequestSubtype string

const (
	ControlRequestSubtypeCanUseTool ControlRequestSubtype = "can_use_tool"
	ControlRequestSubtypeMCPMessage ControlRequestSubtype = "mcp_message"
)

// ControlRequestData is the interface for control request discrimination.
type ControlRequestData interface {
	Subtype() ControlRequestSubtype
}

// CanUseToolRequest asks permission for tool use.
type CanUseToolRequest struct {
	SubtypeField ControlRequestSubtype `json:"subtype"`
	ToolName     string                `json:"tool_name"`
	Input        map[string]any        `json:"input"`
}

// Subtype returns the control request subtype.
func (r CanUseToolRequest) Subtype() ControlRequestSubtype { return r.SubtypeField }

// MCPMessageRequest wraps a JSON-RPC message addressed to an in-process MCP
// server.
type MCPMessageRequest struct {
	SubtypeField ControlRequestSubtype `json:"subtype"`
	ServerName   string                `json:"server_name"`
	Message      json.RawMessage       `json:"message"`
}

// Subtype returns the control request subtype.
func (r MCPMessageRequest) Subtype() ControlRequestSubtype { return r.SubtypeField }

// UnknownControlRequest is the fallback variant for future subtypes.
type UnknownControlRequest struct {
	SubtypeField ControlRequestSubtype
	Raw          json.RawMessage
}

// Subtype returns the control request subtype.
func (r UnknownControlRequest) Subtype() ControlRequestSubtype { return r.SubtypeField }

// ParseControlRequest parses the inner request from a ControlRequest.
func ParseControlRequest(data json.RawMessage) (ControlRequestData, error) {
	var base struct {
		Subtype ControlRequestSubtype `json:"subtype"`
	}
	if err := json.Unmarshal(data, &base); err != nil {
		return nil, err
	}

	switch base.Subtype {
	case ControlRequestSubtypeCanUseTool:
		var r CanUseToolRequest
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, err
		}
		return r, nil
	case ControlRequestSubtypeMCPMessage:
		var r MCPMessageRequest
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, err
		}
		return r, nil
	default:
		slog.Warn("unknown control request subtype", "subtype", base.Subtype)
		return UnknownControlRequest{SubtypeField: base.Subtype, Raw: append(json.RawMessage(nil), data...)}, nil
	}
}

// ControlResponseType tags a control response as success or error.
type ControlResponseType string

const (
	ControlResponseSuccess ControlResponseType = "success"
	ControlResponseError   ControlResponseType = "error"
)

// ControlResponsePayload is the inner payload of a control response.
type ControlResponsePayload struct {
	Type      ControlResponseType `json:"type"`
	RequestID string              `json:"requestId"`
	Response  any                 `json:"response,omitempty"`
	Error     string              `json:"error,omitempty"`
}

// ControlResponse answers a ControlRequest, correlated by request id.
type ControlResponse struct {
	Type     MessageType            `json:"type"`
	Response ControlResponsePayload `json:"response"`
}

// MsgType returns the message type.
func (m ControlResponse) MsgType() MessageType { return MessageTypeControlResponse }

// Marshal serializes the control response to a JSON line ready to write.
func (m ControlResponse) Marshal() ([]byte, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal ControlResponse: %w", err)
	}
	return b, nil
}

// NewControlSuccess builds a success response for requestID.
func NewControlSuccess(requestID string, result any) ControlResponse {
	return ControlResponse{
		Type: MessageTypeControlResponse,
		Response: ControlResponsePayload{
			Type:      ControlResponseSuccess,
			RequestID: requestID,
			Response:  result,
		},
	}
}

// NewControlError builds an error response for requestID.
func NewControlError(requestID string, message string) ControlResponse {
	return ControlResponse{
		Type: MessageTypeControlResponse,
		Response: ControlResponsePayload{
			Type:      ControlResponseError,
			RequestID: requestID,
			Error:     message,
		},
	}
}
