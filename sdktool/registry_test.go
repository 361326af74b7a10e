package sdktool

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codetide/agentpipe/protocol"
)

type echoParams struct {
	Text string `json:"text" jsonschema:"required,description=Text to echo back"`
}

func echoRegistry() *Registry {
	reg := NewRegistry("helpers")
	Add(reg, "echo", "Echo back the input text",
		func(ctx context.Context, params echoParams) (string, error) {
			return "Echo: " + params.Text, nil
		})
	Add(reg, "fail", "Always fails",
		func(ctx context.Context, params struct{}) (string, error) {
			return "", errors.New("boom")
		})
	return reg
}

func TestRegistry_Definitions(t *testing.T) {
	defs := echoRegistry().Definitions()
	require.Len(t, defs, 2)
	assert.Equal(t, "echo", defs[0].Name)
	assert.Equal(t, "Echo back the input text", defs[0].Description)

	var schema map[string]any
	require.NoError(t, json.Unmarshal(defs[0].InputSchema, &schema))
	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "text")
}

func TestRegistry_Call(t *testing.T) {
	reg := echoRegistry()

	result, err := reg.Call(context.Background(), "echo", json.RawMessage(`{"text":"hi"}`))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	require.Len(t, result.Content, 1)
	assert.Equal(t, "Echo: hi", result.Content[0].Text)
}

func TestRegistry_CallHandlerErrorBecomesResult(t *testing.T) {
	result, err := echoRegistry().Call(context.Background(), "fail", json.RawMessage(`{}`))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Equal(t, "boom", result.Content[0].Text)
}

func TestRegistry_CallUnknownTool(t *testing.T) {
	result, err := echoRegistry().Call(context.Background(), "nope", json.RawMessage(`{}`))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, result.Content[0].Text, "Unknown tool")
}

func TestRegistry_HandleRPC(t *testing.T) {
	reg := echoRegistry()

	init := reg.HandleRPC(context.Background(), protocol.JSONRPCRequest{ID: 1, JSONRPC: "2.0", Method: "initialize"})
	require.Nil(t, init.Error)
	initResult, ok := init.Result.(protocol.MCPInitializeResult)
	require.True(t, ok)
	assert.Equal(t, "helpers", initResult.ServerInfo.Name)

	list := reg.HandleRPC(context.Background(), protocol.JSONRPCRequest{ID: 2, JSONRPC: "2.0", Method: "tools/list"})
	require.Nil(t, list.Error)
	listResult, ok := list.Result.(protocol.MCPToolsListResult)
	require.True(t, ok)
	assert.Len(t, listResult.Tools, 2)

	call := reg.HandleRPC(context.Background(), protocol.JSONRPCRequest{
		ID: 3, JSONRPC: "2.0", Method: "tools/call",
		Params: json.RawMessage(`{"name":"echo","arguments":{"text":"yo"}}`),
	})
	require.Nil(t, call.Error)
	callResult, ok := call.Result.(*protocol.MCPToolCallResult)
	require.True(t, ok)
	assert.Equal(t, "Echo: yo", callResult.Content[0].Text)

	unknown := reg.HandleRPC(context.Background(), protocol.JSONRPCRequest{ID: 4, JSONRPC: "2.0", Method: "prompts/list"})
	require.NotNil(t, unknown.Error)
	assert.Equal(t, -32601, unknown.Error.Code)
}

func TestRegistry_HandleControl(t *testing.T) {
	reg := echoRegistry()
	req := protocol.ControlRequest{
		Type:      protocol.MessageTypeControlRequest,
		RequestID: "r1",
		Request:   json.RawMessage(`{"subtype":"mcp_message","server_name":"helpers","message":{"jsonrpc":"2.0","id":7,"method":"tools/list"}}`),
	}
	result, err := reg.HandleControl(context.Background(), req)
	require.NoError(t, err)
	wrapped, ok := result.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, wrapped, "mcp_response")
}

func TestRegistry_HandleControlWrongServer(t *testing.T) {
	reg := echoRegistry()
	req := protocol.ControlRequest{
		Type:      protocol.MessageTypeControlRequest,
		RequestID: "r2",
		Request:   json.RawMessage(`{"subtype":"mcp_message","server_name":"other","message":{"jsonrpc":"2.0","method":"tools/list"}}`),
	}
	_, err := reg.HandleControl(context.Background(), req)
	assert.Error(t, err)
}
