// Package claude normalizes the control dialect's session stream into
// canonical entries: assistant text and thinking coalesce across consecutive
// messages, tool invocations correlate with their results by id, and session
// metadata is reported once then attached to every entry.
package claude

import (
	"log/slog"
	"strings"
	"time"

	"github.com/codetide/agentpipe/entry"
	"github.com/codetide/agentpipe/protocol"
)

// Normalizer is the control-dialect normalization state. It is owned by a
// single reader goroutine and must not be shared.
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

// Handle consumes one raw line and returns the emissions it produces, in
// order. Lines that fail to parse degrade to a system-message entry.
func (n *Normalizer) Handle(line []byte) []entry.Normalized {
	msg, err := protocol.ParseMessage(line)
	if err != nil {
		return []entry.Normalized{n.rawSystem(string(line))}
	}
	return n.HandleMessage(msg)
}

// HandleMessage consumes one parsed message.
func (n *Normalizer) HandleMessage(msg protocol.Message) []entry.Normalized {
	switch m := msg.(type) {
	case protocol.SystemMessage:
		return n.handleSystem(m)
	case protocol.AssistantMessage:
		return n.handleAssistant(m)
	case protocol.UserMessage:
		return n.handleUser(m)
	case protocol.ToolUseMessage:
		// Results arrive through user messages; the dedicated type carries
		// nothing a consumer needs.
		return nil
	case protocol.ResultMessage:
		return n.handleResult(m)
	case protocol.OpaqueTextMessage:
		return []entry.Normalized{n.rawSystem(m.Text)}
	case protocol.ControlRequest, protocol.ControlResponse:
		// Control traffic never surfaces as session output.
		return nil
	default:
		slog.Warn("skipping unknown message type", "type", msg.MsgType())
		return nil
	}
}

func (n *Normalizer) handleSystem(m protocol.SystemMessage) []entry.Normalized {
	n.buffer.Close()
	n.meta.Observe(m.Session(), m.Model)

	var lines []string
	if s := n.meta.ReportSession(); s != "" {
		lines = append(lines, "Session started: "+s)
	}
	if model := n.meta.ReportModel(); model != "" {
		lines = append(lines, "Model: "+model)
	}
	if len(lines) == 0 {
		return nil
	}
	return []entry.Normalized{{
		Timestamp: n.now(),
		Content:   strings.Join(lines, "\n"),
		Kind:      entry.KindSystemMessage,
		Metadata:  n.meta.Metadata(),
		Index:     n.index.Next(),
	}}
}

func (n *Normalizer) handleAssistant(m protocol.AssistantMessage) []entry.Normalized {
	n.meta.Observe(m.SessionID, m.Message.Model)

	if s, ok := m.Message.Content.AsString(); ok {
		return []entry.Normalized{n.appendStream(entry.StreamAssistant, s, entry.KindAssistantMessage)}
	}

	blocks, ok := m.Message.Content.AsBlocks()
	if !ok {
		return nil
	}

	var out []entry.Normalized
	for _, block := range blocks {
		switch b := block.(type) {
		case protocol.TextBlock:
			out = append(out, n.appendStream(entry.StreamAssistant, b.Text, entry.KindAssistantMessage))
		case protocol.ThinkingBlock:
			out = append(out, n.appendStream(entry.StreamThinking, b.Thinking, entry.KindThinking))
		case protocol.ToolUseBlock:
			n.buffer.Close()
			e := n.toolStart(b)
			n.tools.Put(b.ID, e)
			out = append(out, e)
		}
	}
	return out
}

func (n *Normalizer) handleUser(m protocol.UserMessage) []entry.Normalized {
	n.buffer.Close()
	n.meta.Observe(m.SessionID, "")

	if s, ok := m.Message.Content.AsString(); ok {
		return []entry.Normalized{{
			Timestamp: n.now(),
			Content:   s,
			Kind:      entry.KindUserMessage,
			Metadata:  n.meta.Metadata(),
			Index:     n.index.Next(),
		}}
	}

	blocks, ok := m.Message.Content.AsBlocks()
	if !ok {
		return nil
	}

	var out []entry.Normalized
	for _, block := range blocks {
		switch b := block.(type) {
		case protocol.TextBlock:
			out = append(out, entry.Normalized{
				Timestamp: n.now(),
				Content:   b.Text,
				Kind:      entry.KindUserMessage,
				Metadata:  n.meta.Metadata(),
				Index:     n.index.Next(),
			})
		case protocol.ToolResultBlock:
			out = append(out, n.toolComplete(b))
		}
	}
	return out
}

func (n *Normalizer) handleResult(m protocol.ResultMessage) []entry.Normalized {
	n.buffer.Close()
	n.meta.Observe(m.SessionID, "")
	if !m.IsError {
		return nil
	}
	content := m.ResultText()
	if content == "" {
		content = "turn failed"
	}
	return []entry.Normalized{{
		Timestamp: n.now(),
		Content:   content,
		Kind:      entry.KindError,
		Metadata:  n.meta.Metadata(),
		Index:     n.index.Next(),
	}}
}

// toolStart emits the running entry for a tool invocation and classifies its
// input into a canonical action.
func (n *Normalizer) toolStart(b protocol.ToolUseBlock) entry.Normalized {
	action := ClassifyTool(n.workdir, b.Name, b.Input)
	return entry.Normalized{
		Timestamp: n.now(),
		Content:   summarize(b.Name, action),
		Kind:      entry.KindToolUse,
		ToolUse: &entry.ToolUse{
			ToolName: b.Name,
			Action:   action,
			Status:   entry.StatusRunning,
		},
		Metadata: n.meta.Metadata(),
		Index:    n.index.Next(),
	}
}

// toolComplete re-emits the invocation's entry under its original index with
// the final status. A result whose id was never seen synthesizes a
// standalone entry so the outcome is not lost.
func (n *Normalizer) toolComplete(b protocol.ToolResultBlock) entry.Normalized {
	text := b.ContentText()
	failed := DetectFailure(text, b.IsError)

	status := entry.StatusSuccess
	if failed {
		status = entry.StatusFailed
	}

	rec, ok := n.tools.Get(b.ToolUseID)
	if !ok {
		action := entry.NewGenericAction("unknown", nil)
		action = CompleteAction(action, text)
		e := entry.Normalized{
			Timestamp: n.now(),
			Content:   "unknown tool",
			Kind:      entry.KindToolUse,
			ToolUse: &entry.ToolUse{
				ToolName: "unknown",
				Action:   action,
				Status:   status,
			},
			Metadata: n.meta.Metadata(),
			Index:    n.index.Next(),
		}
		n.tools.Put(b.ToolUseID, e)
		return e
	}

	e := rec.Entry
	tu := *e.ToolUse
	tu.Status = status
	tu.Action = CompleteAction(tu.Action, text)
	e.ToolUse = &tu
	e.Timestamp = n.now()
	e.Metadata = n.meta.Metadata()
	n.tools.Put(b.ToolUseID, e)
	return e
}

// rawSystem wraps a non-protocol line as a plain system message.
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
