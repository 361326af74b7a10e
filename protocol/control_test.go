package protocol

import (
	"encoding/json"
	"testing"
)

func TestParseMessage_ControlRequest(t *testing.T) {
	line := []byte(`{"type":"control_request","requestId":"r1","request":{"subtype":"can_use_tool","tool_name":"Bash","input":{"command":"ls"}}}`)
	msg, err := ParseMessage(line)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	cr, ok := msg.(ControlRequest)
	if !ok {
		t.Fatalf("expected ControlRequest, got %T", msg)
	}
	if cr.ID() != "r1" {
		t.Errorf("expected id 'r1', got %q", cr.ID())
	}

	data, err := cr.ParsedRequest()
	if err != nil {
		t.Fatalf("ParsedRequest failed: %v", err)
	}
	canUse, ok := data.(CanUseToolRequest)
	if !ok {
		t.Fatalf("expected CanUseToolRequest, got %T", data)
	}
	if canUse.ToolName != "Bash" {
		t.Errorf("expected tool name 'Bash', got %q", canUse.ToolName)
	}
}

func TestControlRequest_SnakeCaseID(t *testing.T) {
	line := []byte(`{"type":"control_request","request_id":"r2","request":{"subtype":"can_use_tool"}}`)
	msg, err := ParseMessage(line)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if msg.(ControlRequest).ID() != "r2" {
		t.Error("expected snake_case request_id to be read")
	}
}

func TestParseControlRequest_MCPMessage(t *testing.T) {
	raw := json.RawMessage(`{"subtype":"mcp_message","server_name":"tools","message":{"jsonrpc":"2.0","method":"tools/list","id":1}}`)
	data, err := ParseControlRequest(raw)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	mcp, ok := data.(MCPMessageRequest)
	if !ok {
		t.Fatalf("expected MCPMessageRequest, got %T", data)
	}
	if mcp.ServerName != "tools" {
		t.Errorf("expected server 'tools', got %q", mcp.ServerName)
	}
}

func TestParseControlRequest_UnknownSubtypeFallback(t *testing.T) {
	raw := json.RawMessage(`{"subtype":"brand_new"}`)
	data, err := ParseControlRequest(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := data.(UnknownControlRequest); !ok {
		t.Fatalf("expected UnknownControlRequest, got %T", data)
	}
}

func TestNewControlSuccess_Wire(t *testing.T) {
	resp := NewControlSuccess("r1", map[string]any{"result": "allow"})
	b, err := resp.Marshal()
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded struct {
		Type     string `json:"type"`
		Response struct {
			Type      string         `json:"type"`
			RequestID string         `json:"requestId"`
			Response  map[string]any `json:"response"`
		} `json:"response"`
	}
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded.Type != "control_response" {
		t.Errorf("expected type control_response, got %q", decoded.Type)
	}
	if decoded.Response.Type != "success" || decoded.Response.RequestID != "r1" {
		t.Errorf("unexpected payload: %+v", decoded.Response)
	}
	if decoded.Response.Response["result"] != "allow" {
		t.Errorf("expected result 'allow', got %v", decoded.Response.Response)
	}
}

func TestNewControlError_Wire(t *testing.T) {
	resp := NewControlError("r2", "handler exploded")
	b, err := resp.Marshal()
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded struct {
		Response struct {
			Type      string `json:"type"`
			RequestID string `json:"requestId"`
			Error     string `json:"error"`
		} `json:"response"`
	}
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded.Response.Type != "error" || decoded.Response.Error != "handler exploded" {
		t.Errorf("unexpected payload: %+v", decoded.Response)
	}
}
