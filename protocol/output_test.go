package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundtrip(t *testing.T, m Outbound) map[string]any {
	t.Helper()
	b, err := m.Marshal()
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(b, &decoded))
	return decoded
}

func TestNewUserTextMessage(t *testing.T) {
	decoded := roundtrip(t, NewUserTextMessage("hello", "sess-1"))
	assert.Equal(t, "user", decoded["type"])
	assert.Equal(t, "sess-1", decoded["session_id"])
	msg := decoded["message"].(map[string]any)
	assert.Equal(t, "user", msg["role"])
	assert.Equal(t, "hello", msg["content"])
}

func TestNewUserBlocksMessage(t *testing.T) {
	blocks := []any{map[string]any{"type": "text", "text": "hi"}}
	decoded := roundtrip(t, NewUserBlocksMessage(blocks, ""))
	_, hasSession := decoded["session_id"]
	assert.False(t, hasSession, "empty session id should be omitted")
	msg := decoded["message"].(map[string]any)
	content := msg["content"].([]any)
	require.Len(t, content, 1)
}

func TestNewInitialize(t *testing.T) {
	decoded := roundtrip(t, NewInitialize(map[string]any{"preToolUse": []any{}}))
	assert.Equal(t, "sdk_control_request", decoded["type"])
	assert.NotEmpty(t, decoded["request_id"])
	req := decoded["request"].(map[string]any)
	assert.Equal(t, "initialize", req["type"])
	assert.Contains(t, req, "hooks")
}

func TestNewSetPermissionMode(t *testing.T) {
	decoded := roundtrip(t, NewSetPermissionMode("acceptEdits", "session"))
	req := decoded["request"].(map[string]any)
	assert.Equal(t, "set_permission_mode", req["type"])
	assert.Equal(t, "acceptEdits", req["mode"])
	assert.Equal(t, "session", req["scope"])
}

func TestNewSetModel(t *testing.T) {
	decoded := roundtrip(t, NewSetModel("opus"))
	req := decoded["request"].(map[string]any)
	assert.Equal(t, "set_model", req["type"])
	assert.Equal(t, "opus", req["model"])
}

func TestNewInterrupt(t *testing.T) {
	decoded := roundtrip(t, NewInterrupt())
	assert.Equal(t, "control", decoded["type"])
	control := decoded["control"].(map[string]any)
	assert.Equal(t, "interrupt", control["type"])
}
