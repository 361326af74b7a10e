package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/codetide/agentpipe/entry"
)

var (
	// Role colors — blue for user, emerald for assistant, slate for system.
	colorUser      = lipgloss.AdaptiveColor{Light: "#2563eb", Dark: "#60a5fa"}
	colorAssistant = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34d399"}
	colorSystem    = lipgloss.AdaptiveColor{Light: "#64748b", Dark: "#94a3b8"}
	colorTool      = lipgloss.AdaptiveColor{Light: "#7c3aed", Dark: "#a78bfa"}
	colorError     = lipgloss.AdaptiveColor{Light: "#dc2626", Dark: "#f87171"}
	colorDim       = lipgloss.AdaptiveColor{Light: "#94a3b8", Dark: "#64748b"}
)

var (
	styleUserBadge      = lipgloss.NewStyle().Foreground(colorUser).Bold(true)
	styleAssistantBadge = lipgloss.NewStyle().Foreground(colorAssistant).Bold(true)
	styleSystemBadge    = lipgloss.NewStyle().Foreground(colorSystem).Bold(true)
	styleToolBadge      = lipgloss.NewStyle().Foreground(colorTool).Bold(true)
	styleErrorBadge     = lipgloss.NewStyle().Foreground(colorError).Bold(true)

	styleThinking = lipgloss.NewStyle().Foreground(colorDim).Italic(true)
	styleDetail   = lipgloss.NewStyle().Foreground(colorDim)
)

// renderEntry writes one normalized entry as a badge-prefixed card.
func renderEntry(w io.Writer, e entry.Normalized) {
	switch e.Kind {
	case entry.KindUserMessage:
		fmt.Fprintf(w, "%s %s\n", styleUserBadge.Render("user"), e.Content)
	case entry.KindAssistantMessage:
		fmt.Fprintf(w, "%s %s\n", styleAssistantBadge.Render("assistant"), e.Content)
	case entry.KindThinking:
		fmt.Fprintf(w, "%s %s\n", styleSystemBadge.Render("thinking"), styleThinking.Render(e.Content))
	case entry.KindToolUse:
		renderToolUse(w, e)
	case entry.KindError:
		fmt.Fprintf(w, "%s %s\n", styleErrorBadge.Render("error"), e.Content)
	default:
		fmt.Fprintf(w, "%s %s\n", styleSystemBadge.Render("system"), e.Content)
	}
}

func renderToolUse(w io.Writer, e entry.Normalized) {
	tu := e.ToolUse
	if tu == nil {
		fmt.Fprintf(w, "%s %s\n", styleToolBadge.Render("tool"), e.Content)
		return
	}

	fmt.Fprintf(w, "%s %s %s\n",
		styleToolBadge.Render(tu.ToolName),
		statusGlyph(tu.Status),
		e.Content,
	)

	if tu.Action.Kind == entry.ActionFileEdit {
		for _, change := range tu.Action.Changes {
			if change.Delete {
				fmt.Fprintln(w, styleDetail.Render("  (deleted)"))
				continue
			}
			renderDiff(w, change.UnifiedDiff)
		}
	}
	if result := tu.Action.Result; result != nil && result.Output != "" {
		fmt.Fprintln(w, styleDetail.Render(indent(result.Output)))
	}
}

func renderDiff(w io.Writer, diff string) {
	added := lipgloss.NewStyle().Foreground(colorAssistant)
	removed := lipgloss.NewStyle().Foreground(colorError)
	for _, line := range strings.Split(strings.TrimRight(diff, "\n"), "\n") {
		switch {
		case strings.HasPrefix(line, "+"):
			fmt.Fprintln(w, "  "+added.Render(line))
		case strings.HasPrefix(line, "-"):
			fmt.Fprintln(w, "  "+removed.Render(line))
		default:
			fmt.Fprintln(w, "  "+styleDetail.Render(line))
		}
	}
}

func statusGlyph(status entry.ToolStatus) string {
	switch status {
	case entry.StatusSuccess:
		return styleAssistantBadge.Render("✓")
	case entry.StatusFailed:
		return styleErrorBadge.Render("✗")
	case entry.StatusRunning:
		return styleDetail.Render("…")
	default:
		return styleDetail.Render("·")
	}
}

func indent(text string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i, line := range lines {
		lines[i] = "  " + line
	}
	return strings.Join(lines, "\n")
}

func renderJSON(w io.Writer, e entry.Normalized) {
	enc := json.NewEncoder(w)
	if err := enc.Encode(e); err != nil {
		fmt.Fprintf(w, "{\"error\":%q}\n", err.Error())
	}
}
