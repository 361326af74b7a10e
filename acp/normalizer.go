package acp

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/codetide/agentpipe/entry"
)

// Normalizer is the typed-dialect normalization state. Owned by a single
// reader goroutine.
type Normalizer struct {
	workdir string
	now     func() time.Time

	index  entry.IndexProvider
	buffer entry.CoalesceBuffer
	tools  entry.CorrelationTable
	meta   entry.MetadataCache
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithWorkdir sets the directory file paths are relativized against.
func WithWorkdir(dir string) Option {
	return func(n *Normalizer) { n.workdir = dir }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) { n.now = now }
}

// NewNormalizer builds a Normalizer.
func NewNormalizer(opts ...Option) *Normalizer {
	n := &Normalizer{now: time.Now}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Handle consumes one raw line and returns the emissions it produces. Lines
// that fail to parse degrade to a system-message entry.
func (n *Normalizer) Handle(line []byte) []entry.Normalized {
	note, err := ParseUpdate(line)
	if err != nil {
		return []entry.Normalized{n.rawSystem(string(line))}
	}
	return n.HandleUpdate(note)
}

// HandleUpdate consumes one parsed session update.
func (n *Normalizer) HandleUpdate(note SessionNotification) []entry.Normalized {
	n.meta.Observe(note.SessionID, "")
	u := note.Update

	switch u.Type {
	case UpdateAgentMessageChunk:
		if block, ok := u.MessageContent(); ok && block.Text != "" {
			return []entry.Normalized{n.appendStream(entry.StreamAssistant, block.Text, entry.KindAssistantMessage)}
		}
		return nil
	case UpdateAgentThoughtChunk:
		if block, ok := u.MessageContent(); ok && block.Text != "" {
			return []entry.Normalized{n.appendStream(entry.StreamThinking, block.Text, entry.KindThinking)}
		}
		return nil
	case UpdateUserMessageChunk:
		return n.handleUserChunk(u)
	case UpdateToolCall:
		return n.handleToolCall(u)
	case UpdateToolCallUpdate:
		return n.handleToolCallUpdate(u)
	case UpdatePlan:
		return n.handlePlan(u)
	case UpdateAvailableCommands, UpdateCurrentMode:
		// Capability advertisements carry nothing a transcript needs.
		return nil
	default:
		slog.Warn("skipping unknown session update type", "type", u.Type)
		return nil
	}
}

func (n *Normalizer) handleUserChunk(u SessionUpdate) []entry.Normalized {
	n.buffer.Close()
	block, ok := u.MessageContent()
	if !ok || block.Text == "" {
		return nil
	}
	return []entry.Normalized{{
		Timestamp: n.now(),
		Content:   block.Text,
		Kind:      entry.KindUserMessage,
		Metadata:  n.meta.Metadata(),
		Index:     n.index.Next(),
	}}
}

func (n *Normalizer) handleToolCall(u SessionUpdate) []entry.Normalized {
	n.buffer.Close()
	action := n.classify(u)
	e := entry.Normalized{
		Timestamp: n.now(),
		Content:   n.summarize(u, action),
		Kind:      entry.KindToolUse,
		ToolUse: &entry.ToolUse{
			ToolName: toolName(u),
			Action:   action,
			Status:   mapStatus(u.Status),
		},
		Metadata: n.meta.Metadata(),
		Index:    n.index.Next(),
	}
	if u.ToolCallID != "" {
		n.tools.Put(u.ToolCallID, e)
	}
	return []entry.Normalized{e}
}

// handleToolCallUpdate re-emits the call's entry under its original index
// with the updated status and any content the update delivered. An update
// for an unseen id synthesizes a standalone entry.
func (n *Normalizer) handleToolCallUpdate(u SessionUpdate) []entry.Normalized {
	n.buffer.Close()

	rec, ok := n.tools.Get(u.ToolCallID)
	if !ok {
		return n.handleToolCall(u)
	}

	e := rec.Entry
	tu := *e.ToolUse
	if u.Status != "" {
		tu.Status = mapStatus(u.Status)
	}
	tu.Action = n.completeAction(tu.Action, u)
	e.ToolUse = &tu
	e.Timestamp = n.now()
	e.Metadata = n.meta.Metadata()
	n.tools.Put(u.ToolCallID, e)
	return []entry.Normalized{e}
}

// handlePlan renders the plan as a numbered thinking entry and keeps the
// structured entries in metadata.
func (n *Normalizer) handlePlan(u SessionUpdate) []entry.Normalized {
	n.buffer.Close()
	if len(u.Entries) == 0 {
		return nil
	}

	var b strings.Builder
	for i, step := range u.Entries {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d. %s", i+1, step.Content)
		if step.Status != "" {
			fmt.Fprintf(&b, " (%s)", step.Status)
		}
	}

	meta := n.meta.Metadata()
	meta.Extra = map[string]any{"plan": u.Entries}
	return []entry.Normalized{{
		Timestamp: n.now(),
		Content:   b.String(),
		Kind:      entry.KindThinking,
		Metadata:  meta,
		Index:     n.index.Next(),
	}}
}

func (n *Normalizer) rawSystem(text string) entry.Normalized {
	n.buffer.Close()
	return entry.Normalized{
		Timestamp: n.now(),
		Content:   strings.TrimRight(text, "\n"),
		Kind:      entry.KindSystemMessage,
		Metadata:  n.meta.Metadata(),
		Index:     n.index.Next(),
	}
}

func (n *Normalizer) appendStream(cat entry.StreamCategory, fragment string, kind entry.Kind) entry.Normalized {
	idx, content := n.buffer.Append(cat, fragment, n.index.Next)
	return entry.Normalized{
		Timestamp: n.now(),
		Content:   content,
		Kind:      kind,
		Metadata:  n.meta.Metadata(),
		Index:     idx,
	}
}

// mapStatus maps the dialect's explicit status enumeration onto the
// canonical lifecycle.
func mapStatus(status string) entry.ToolStatus {
	switch status {
	case "pending", "":
		return entry.StatusCreated
	case "in_progress", "running":
		return entry.StatusRunning
	case "completed", "success":
		return entry.StatusSuccess
	case "failed", "errored", "error":
		return entry.StatusFailed
	default:
		return entry.StatusCreated
	}
}
