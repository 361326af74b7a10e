package acp

import (
	"fmt"

	"github.com/codetide/agentpipe/entry"
	"github.com/codetide/agentpipe/udiff"
)

// classify maps a tool call's declared kind onto a canonical action. The
// dialect tags every call with a kind, so classification keys on it rather
// than on a tool name.
func (n *Normalizer) classify(u SessionUpdate) entry.Action {
	path := n.callPath(u)

	switch u.Kind {
	case "read":
		return entry.Action{Kind: entry.ActionFileRead, Path: path}
	case "edit":
		action := entry.Action{Kind: entry.ActionFileEdit, Path: path}
		action.Changes = n.diffChanges(u)
		return action
	case "delete":
		return entry.Action{
			Kind:    entry.ActionFileEdit,
			Path:    path,
			Changes: []entry.FileChange{{Delete: true}},
		}
	case "execute":
		command, _ := u.RawInput["command"].(string)
		if command == "" {
			command = u.Title
		}
		return entry.Action{Kind: entry.ActionCommandRun, Command: command}
	case "search":
		query := firstString(u.RawInput, "pattern", "query")
		if query == "" {
			query = u.Title
		}
		return entry.Action{Kind: entry.ActionSearch, Query: query}
	default:
		return entry.NewGenericAction(toolName(u), u.RawInput)
	}
}

// completeAction folds an update's content into the action built at the
// initial call: inline diffs become file changes, text blocks become command
// or tool output.
func (n *Normalizer) completeAction(action entry.Action, u SessionUpdate) entry.Action {
	switch action.Kind {
	case entry.ActionFileEdit:
		if changes := n.diffChanges(u); len(changes) > 0 {
			action.Changes = changes
		}
	case entry.ActionCommandRun, entry.ActionGenericTool:
		if text := toolText(u); text != "" {
			action.Result = &entry.ToolResult{Output: text}
		}
	}
	return action
}

// diffChanges reconstructs unified diffs from the update's inline diff
// content.
func (n *Normalizer) diffChanges(u SessionUpdate) []entry.FileChange {
	var changes []entry.FileChange
	for _, item := range u.ToolContent() {
		if item.Type != "diff" {
			continue
		}
		path := entry.RelativizePath(n.workdir, item.Path)
		diff := udiff.FromReplacements(path, []udiff.Replacement{{Old: item.OldText, New: item.NewText}})
		changes = append(changes, entry.FileChange{UnifiedDiff: diff})
	}
	return changes
}

// callPath picks the file a call operates on: the first location, falling
// back to a path argument.
func (n *Normalizer) callPath(u SessionUpdate) string {
	if len(u.Locations) > 0 {
		return entry.RelativizePath(n.workdir, u.Locations[0].Path)
	}
	if p, ok := u.RawInput["path"].(string); ok {
		return entry.RelativizePath(n.workdir, p)
	}
	return ""
}

// toolText concatenates the update's text content blocks.
func toolText(u SessionUpdate) string {
	var out string
	for _, item := range u.ToolContent() {
		if item.Type == "content" && item.Content != nil && item.Content.Type == "text" {
			out += item.Content.Text
		}
	}
	return out
}

func toolName(u SessionUpdate) string {
	if u.Kind != "" {
		return u.Kind
	}
	return "tool"
}

func (n *Normalizer) summarize(u SessionUpdate, action entry.Action) string {
	if u.Title != "" {
		return u.Title
	}
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
		return toolName(u)
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
