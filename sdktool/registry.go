// Package sdktool implements an in-process MCP tool server for the control
// dialect. The agent routes MCP traffic through mcp_message control
// requests; a Registry answers initialize, tools/list, and tools/call over
// that channel, with JSON schemas generated from Go struct tags.
package sdktool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"

	"github.com/codetide/agentpipe/protocol"
)

const protocolVersion = "2024-11-05"

// Registry holds the registered tools of one in-process MCP server.
type Registry struct {
	name    string
	version string
	tools   []registration
}

// registration stores a single tool's metadata and type-erased handler.
type registration struct {
	name        string
	description string
	schema      json.RawMessage
	invoke      func(context.Context, json.RawMessage) (*protocol.MCPToolCallResult, error)
}

// NewRegistry creates an empty registry for a server name.
func NewRegistry(name string) *Registry {
	return &Registry{name: name, version: "1.0.0"}
}

// Add registers a type-safe tool handler. The type parameter T is a struct
// with json and jsonschema tags; its schema is generated automatically.
// Returns the registry for chaining.
//
// Example:
//
//	type EchoParams struct {
//	    Text string `json:"text" jsonschema:"required,description=Text to echo back"`
//	}
//
//	reg := sdktool.NewRegistry("helpers")
//	sdktool.Add(reg, "echo", "Echo back the input text",
//	    func(ctx context.Context, params EchoParams) (string, error) {
//	        return params.Text, nil
//	    })
func Add[T any](
	r *Registry,
	name, description string,
	handler func(context.Context, T) (string, error),
) *Registry {
	schema := generateSchema[T]()

	invoke := func(ctx context.Context, args json.RawMessage) (*protocol.MCPToolCallResult, error) {
		var params T
		if err := json.Unmarshal(args, &params); err != nil {
			return nil, fmt.Errorf("invalid arguments for tool %s: %w", name, err)
		}

		result, err := handler(ctx, params)
		if err != nil {
			return &protocol.MCPToolCallResult{
				Content: []protocol.MCPContentItem{{Type: "text", Text: err.Error()}},
				IsError: true,
			}, nil
		}
		return &protocol.MCPToolCallResult{
			Content: []protocol.MCPContentItem{{Type: "text", Text: result}},
		}, nil
	}

	r.tools = append(r.tools, registration{
		name:        name,
		description: description,
		schema:      schema,
		invoke:      invoke,
	})
	return r
}

// Name returns the server name the registry answers for.
func (r *Registry) Name() string { return r.name }

// Definitions returns the tool definitions exposed by this registry.
func (r *Registry) Definitions() []protocol.MCPToolDefinition {
	defs := make([]protocol.MCPToolDefinition, len(r.tools))
	for i, tool := range r.tools {
		defs[i] = protocol.MCPToolDefinition{
			Name:        tool.name,
			Description: tool.description,
			InputSchema: tool.schema,
		}
	}
	return defs
}

// Call invokes a registered tool by name. An unknown name yields an
// error-flagged result rather than a Go error, so the agent sees the failure.
func (r *Registry) Call(ctx context.Context, name string, args json.RawMessage) (*protocol.MCPToolCallResult, error) {
	for _, tool := range r.tools {
		if tool.name == name {
			return tool.invoke(ctx, args)
		}
	}
	return &protocol.MCPToolCallResult{
		Content: []protocol.MCPContentItem{{Type: "text", Text: fmt.Sprintf("Unknown tool: %s", name)}},
		IsError: true,
	}, nil
}

// HandleRPC answers one JSON-RPC message addressed to this server.
func (r *Registry) HandleRPC(ctx context.Context, req protocol.JSONRPCRequest) protocol.JSONRPCResponse {
	resp := protocol.JSONRPCResponse{ID: req.ID, JSONRPC: "2.0"}

	switch req.Method {
	case "initialize":
		resp.Result = protocol.MCPInitializeResult{
			ProtocolVersion: protocolVersion,
			Capabilities:    protocol.MCPCapabilities{Tools: map[string]any{}},
			ServerInfo:      protocol.MCPServerInfo{Name: r.name, Version: r.version},
		}
	case "tools/list":
		resp.Result = protocol.MCPToolsListResult{Tools: r.Definitions()}
	case "tools/call":
		var params protocol.MCPToolsCallParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			resp.Error = &protocol.JSONRPCError{Code: -32602, Message: fmt.Sprintf("invalid tools/call params: %v", err)}
			break
		}
		result, err := r.Call(ctx, params.Name, params.Arguments)
		if err != nil {
			resp.Error = &protocol.JSONRPCError{Code: -32603, Message: err.Error()}
			break
		}
		resp.Result = result
	case "notifications/initialized":
		// Notification, nothing to return.
	default:
		resp.Error = &protocol.JSONRPCError{Code: -32601, Message: fmt.Sprintf("method not found: %s", req.Method)}
	}
	return resp
}

// HandleControl answers an mcp_message control request addressed to this
// server. It satisfies the peer's ControlHandler signature so a registry can
// be wired directly into a Peer.
func (r *Registry) HandleControl(ctx context.Context, req protocol.ControlRequest) (any, error) {
	data, err := req.ParsedRequest()
	if err != nil {
		return nil, fmt.Errorf("parse control request: %w", err)
	}
	mcp, ok := data.(protocol.MCPMessageRequest)
	if !ok {
		return nil, fmt.Errorf("unsupported control request subtype %q", data.Subtype())
	}
	if mcp.ServerName != r.name {
		return nil, fmt.Errorf("unknown MCP server %q", mcp.ServerName)
	}

	var rpc protocol.JSONRPCRequest
	if err := json.Unmarshal(mcp.Message, &rpc); err != nil {
		return nil, fmt.Errorf("parse MCP message: %w", err)
	}
	return map[string]any{"mcp_response": r.HandleRPC(ctx, rpc)}, nil
}

// generateSchema creates a JSON schema for a Go struct type, inlining all
// definitions so the agent receives a self-contained schema.
func generateSchema[T any]() json.RawMessage {
	reflector := &jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}

	var zero T
	schema := reflector.Reflect(zero)

	bytes, err := json.Marshal(schema)
	if err != nil {
		panic(fmt.Sprintf("failed to generate schema for type %T: %v", zero, err))
	}
	return json.RawMessage(bytes)
}
