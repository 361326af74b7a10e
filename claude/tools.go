package claude

import (
	"encoding/json"
	"fmt"

	"github.com/codetide/agentpipe/entry"
	"github.com/codetide/agentpipe/udiff"
)

// ClassifyTool maps a tool name and its input to a canonical action. Unknown
// tools fall back to a generic action carrying the raw arguments.
func ClassifyTool(workdir, name string, input map[string]any) entry.Action {
	switch name {
	case "Read", "NotebookRead":
		return entry.Action{
			Kind: entry.ActionFileRead,
			Path: relPath(workdir, input, "file_path"),
		}
	case "Write":
		return entry.Action{
			Kind:    entry.ActionFileWrite,
			Path:    relPath(workdir, input, "file_path"),
			Content: stringField(input, "content"),
		}
	case "Edit":
		return classifyEdit(workdir, input)
	case "MultiEdit":
		return classifyMultiEdit(workdir, input)
	case "Bash":
		return entry.Action{
			Kind:    entry.ActionCommandRun,
			Command: stringField(input, "command"),
		}
	case "Grep", "Glob":
		return entry.Action{
			Kind:  entry.ActionSearch,
			Query: stringField(input, "pattern"),
		}
	case "WebSearch":
		return entry.Action{
			Kind:  entry.ActionSearch,
			Query: stringField(input, "query"),
		}
	default:
		return entry.NewGenericAction(name, input)
	}
}

// classifyEdit reconstructs a unified diff from whichever edit encoding the
// invocation carries: an old/new replacement pair, or a full patch. An
// invocation with neither yields an edit action without changes; the result
// may still supply a diff at completion.
func classifyEdit(workdir string, input map[string]any) entry.Action {
	path := relPath(workdir, input, "file_path")
	action := entry.Action{Kind: entry.ActionFileEdit, Path: path}

	oldText, hasOld := lookupString(input, "old_string")
	newText, hasNew := lookupString(input, "new_string")
	if hasOld || hasNew {
		diff := udiff.FromReplacements(path, []udiff.Replacement{{Old: oldText, New: newText}})
		action.Changes = []entry.FileChange{{UnifiedDiff: diff}}
		return action
	}

	if patch, ok := lookupString(input, "patch"); ok {
		if diff, ok := udiff.Rewrap(path, patch); ok {
			action.Changes = []entry.FileChange{{UnifiedDiff: diff}}
		} else {
			action.Changes = []entry.FileChange{{UnifiedDiff: patch}}
		}
	}
	return action
}

func classifyMultiEdit(workdir string, input map[string]any) entry.Action {
	path := relPath(workdir, input, "file_path")
	action := entry.Action{Kind: entry.ActionFileEdit, Path: path}

	edits, ok := input["edits"].([]any)
	if !ok {
		return action
	}
	reps := make([]udiff.Replacement, 0, len(edits))
	for _, raw := range edits {
		edit, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		reps = append(reps, udiff.Replacement{
			Old: stringField(edit, "old_string"),
			New: stringField(edit, "new_string"),
		})
	}
	if len(reps) > 0 {
		action.Changes = []entry.FileChange{{UnifiedDiff: udiff.FromReplacements(path, reps)}}
	}
	return action
}

// CompleteAction folds a tool's reported result into its action. Commands
// and generic tools keep the output; an edit that produced no diff at start
// falls back to a diff embedded in the result.
func CompleteAction(action entry.Action, resultText string) entry.Action {
	switch action.Kind {
	case entry.ActionCommandRun, entry.ActionGenericTool:
		if resultText == "" {
			return action
		}
		action.Result = &entry.ToolResult{
			Output:   resultText,
			ExitCode: parseExitCode(resultText),
		}
	case entry.ActionFileEdit:
		if len(action.Changes) > 0 {
			return action
		}
		if diff, ok := resultDiff(action.Path, resultText); ok {
			action.Changes = []entry.FileChange{{UnifiedDiff: diff}}
		}
	}
	return action
}

// resultDiff looks for a unified diff in a result payload: either the raw
// text itself, or a patch-bearing field of a JSON object.
func resultDiff(path, resultText string) (string, bool) {
	if diff, ok := udiff.Rewrap(path, resultText); ok {
		return diff, true
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(resultText), &payload); err != nil {
		return "", false
	}
	for _, key := range []string{"diff", "patch"} {
		if patch, ok := payload[key].(string); ok {
			if diff, ok := udiff.Rewrap(path, patch); ok {
				return diff, true
			}
		}
	}
	return "", false
}

// DetectFailure decides whether a tool result reports failure. An explicit
// error flag always wins; without one, a JSON-shaped result with a nonzero
// exit code or an error field counts as failure, and plain text counts as
// success.
func DetectFailure(resultText string, isError *bool) bool {
	if isError != nil {
		return *isError
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(resultText), &payload); err != nil {
		return false
	}
	if code, ok := exitCodeOf(payload); ok && code != 0 {
		return true
	}
	if _, ok := payload["error"]; ok {
		return true
	}
	return false
}

func exitCodeOf(payload map[string]any) (int, bool) {
	for _, key := range []string{"exitCode", "exit_code"} {
		if v, ok := payload[key].(float64); ok {
			return int(v), true
		}
	}
	return 0, false
}

func parseExitCode(resultText string) *int {
	var payload map[string]any
	if err := json.Unmarshal([]byte(resultText), &payload); err != nil {
		return nil
	}
	if code, ok := exitCodeOf(payload); ok {
		return &code
	}
	return nil
}

// summarize renders the one-line display content of a tool-use entry.
func summarize(name string, action entry.Action) string {
	switch action.Kind {
	case entry.ActionFileRead:
		return "Read " + action.Path
	case entry.ActionFileWrite:
		return "Write " + action.Path
	case entry.ActionFileEdit:
		return "Edit " + action.Path
	case entry.ActionCommandRun:
		return action.Command
	case entry.ActionSearch:
		return fmt.Sprintf("Search: %s", action.Query)
	default:
		return name
	}
}

func stringField(input map[string]any, key string) string {
	s, _ := lookupString(input, key)
	return s
}

func lookupString(input map[string]any, key string) (string, bool) {
	s, ok := input[key].(string)
	return s, ok
}

func relPath(workdir string, input map[string]any, key string) string {
	return entry.RelativizePath(workdir, stringField(input, key))
}
