package entry

import (
	"path/filepath"
	"strings"
)

// ActionKind identifies the canonical category of a tool invocation.
type ActionKind string

const (
	ActionFileRead    ActionKind = "file_read"
	ActionFileWrite   ActionKind = "file_write"
	ActionFileEdit    ActionKind = "file_edit"
	ActionCommandRun  ActionKind = "command_run"
	ActionSearch      ActionKind = "search"
	ActionGenericTool ActionKind = "tool"
)

// FileChange is one change within a file-edit action: either a unified-diff
// edit or a deletion marker.
type FileChange struct {
	UnifiedDiff string `json:"unified_diff,omitempty"`
	Delete      bool   `json:"delete,omitempty"`
}

// Action is the canonical tool-invocation shape. Kind selects which fields
// are populated.
type Action struct {
	Kind ActionKind `json:"kind"`

	// file_read / file_write / file_edit
	Path string `json:"path,omitempty"`

	// file_write
	Content string `json:"content,omitempty"`

	// file_edit
	Changes []FileChange `json:"changes,omitempty"`

	// command_run
	Command string `json:"command,omitempty"`

	// search
	Query string `json:"query,omitempty"`

	// tool
	ToolName string         `json:"tool_name,omitempty"`
	Args     map[string]any `json:"args,omitempty"`

	// command_run / tool completion payload
	Result *ToolResult `json:"result,omitempty"`
}

// ToolResult is the reported outcome of a command or generic tool.
type ToolResult struct {
	Output   string `json:"output,omitempty"`
	ExitCode *int   `json:"exit_code,omitempty"`
}

// NewGenericAction builds a generic-tool action for unknown shapes.
func NewGenericAction(name string, args map[string]any) Action {
	return Action{Kind: ActionGenericTool, ToolName: name, Args: args}
}

// RelativizePath rewrites an absolute path relative to workdir when the path
// lies under it. Paths that would relativize to an upward traversal keep the
// absolute form; so do paths when workdir is empty.
func RelativizePath(workdir, path string) string {
	if workdir == "" || path == "" || !filepath.IsAbs(path) {
		return path
	}
	rel, err := filepath.Rel(workdir, path)
	if err != nil {
		return path
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return rel
}
