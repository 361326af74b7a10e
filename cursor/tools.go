package cursor

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/codetide/agentpipe/entry"
	"github.com/codetide/agentpipe/udiff"
)

// The dialect keys its invocation payload by tool: readToolCall,
// writeToolCall, editToolCall, deleteToolCall, shellToolCall, grepToolCall,
// globToolCall, lsToolCall, semSearchToolCall, mcpToolCall,
// updateTodosToolCall. Unknown keys classify as a generic tool named by the
// key with the suffix stripped.
const toolKeySuffix = "ToolCall"

// ClassifyTool maps one keyed invocation shape onto a canonical action.
func ClassifyTool(workdir, key string, args map[string]any) entry.Action {
	switch key {
	case "readToolCall":
		return entry.Action{
			Kind: entry.ActionFileRead,
			Path: relPath(workdir, args, "path"),
		}
	case "writeToolCall":
		return entry.Action{
			Kind:    entry.ActionFileWrite,
			Path:    relPath(workdir, args, "path"),
			Content: firstString(args, "fileText", "contents", "content"),
		}
	case "editToolCall":
		return classifyEdit(workdir, args)
	case "deleteToolCall":
		return entry.Action{
			Kind:    entry.ActionFileEdit,
			Path:    relPath(workdir, args, "path"),
			Changes: []entry.FileChange{{Delete: true}},
		}
	case "shellToolCall":
		return entry.Action{
			Kind:    entry.ActionCommandRun,
			Command: firstString(args, "command"),
		}
	case "grepToolCall":
		return entry.Action{
			Kind:  entry.ActionSearch,
			Query: firstString(args, "pattern", "query"),
		}
	case "globToolCall":
		return entry.Action{
			Kind:  entry.ActionSearch,
			Query: firstString(args, "globPattern", "pattern"),
		}
	default:
		return entry.NewGenericAction(toolName(key), args)
	}
}

func classifyEdit(workdir string, args map[string]any) entry.Action {
	path := relPath(workdir, args, "path")
	action := entry.Action{Kind: entry.ActionFileEdit, Path: path}

	oldText, hasOld := args["oldString"].(string)
	newText, hasNew := args["newString"].(string)
	if hasOld || hasNew {
		diff := udiff.FromReplacements(path, []udiff.Replacement{{Old: oldText, New: newText}})
		action.Changes = []entry.FileChange{{UnifiedDiff: diff}}
	}
	return action
}

// toolName strips the key suffix: "readToolCall" → "read".
func toolName(key string) string {
	return strings.TrimSuffix(key, toolKeySuffix)
}

// Outcome decodes the completed occurrence's result payload. The dialect
// reports success and failure as sibling branches; the failure branch wins.
// A bare string or an unbranched object counts as success data.
func Outcome(result json.RawMessage) (failed bool, payload string) {
	if len(result) == 0 {
		return false, ""
	}
	var branches map[string]json.RawMessage
	if err := json.Unmarshal(result, &branches); err != nil {
		var s string
		if json.Unmarshal(result, &s) == nil {
			return false, s
		}
		return false, string(result)
	}
	if raw, ok := branches["failure"]; ok {
		return true, rawText(raw)
	}
	if raw, ok := branches["success"]; ok {
		return false, rawText(raw)
	}
	return false, string(result)
}

// CompleteAction folds the completed result into the action built at start.
func CompleteAction(action entry.Action, result json.RawMessage) entry.Action {
	_, payload := Outcome(result)

	switch action.Kind {
	case entry.ActionCommandRun, entry.ActionGenericTool:
		if payload == "" {
			return action
		}
		action.Result = &entry.ToolResult{
			Output:   commandOutput(payload),
			ExitCode: exitCode(payload),
		}
	case entry.ActionFileEdit:
		if len(action.Changes) > 0 {
			return action
		}
		if diff, ok := resultDiff(action.Path, payload); ok {
			action.Changes = []entry.FileChange{{UnifiedDiff: diff}}
		}
	}
	return action
}

// commandOutput prefers the shell result's output fields over the raw branch
// payload.
func commandOutput(payload string) string {
	var obj map[string]any
	if err := json.Unmarshal([]byte(payload), &obj); err != nil {
		return payload
	}
	for _, key := range []string{"output", "stdout"} {
		if s, ok := obj[key].(string); ok {
			return s
		}
	}
	return payload
}

func exitCode(payload string) *int {
	var obj map[string]any
	if err := json.Unmarshal([]byte(payload), &obj); err != nil {
		return nil
	}
	if v, ok := obj["exitCode"].(float64); ok {
		code := int(v)
		return &code
	}
	return nil
}

// resultDiff looks for a unified diff in the completed payload, either the
// raw text or a diff-bearing field of a JSON object.
func resultDiff(path, payload string) (string, bool) {
	if diff, ok := udiff.Rewrap(path, payload); ok {
		return diff, true
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(payload), &obj); err != nil {
		return "", false
	}
	for _, key := range []string{"diff", "patch"} {
		if patch, ok := obj[key].(string); ok {
			if diff, ok := udiff.Rewrap(path, patch); ok {
				return diff, true
			}
		}
	}
	return "", false
}

// rawText unquotes a JSON string, otherwise returns the raw JSON text.
func rawText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// summarize renders the one-line display content of a tool-use entry.
func summarize(key string, action entry.Action) string {
	switch action.Kind {
	case entry.ActionFileRead:
		return "Read " + action.Path
	case entry.ActionFileWrite:
		return "Write " + action.Path
	case entry.ActionFileEdit:
		if len(action.Changes) == 1 && action.Changes[0].Delete {
			return "Delete " + action.Path
		}
		return "Edit " + action.Path
	case entry.ActionCommandRun:
		return action.Command
	case entry.ActionSearch:
		return fmt.Sprintf("Search: %s", action.Query)
	default:
		return toolName(key)
	}
}

func firstString(args map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := args[key].(string); ok {
			return s
		}
	}
	return ""
}

func relPath(workdir string, args map[string]any, key string) string {
	return entry.RelativizePath(workdir, firstString(args, key))
}
