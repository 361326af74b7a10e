package cursor

import (
	"log/slog"
	"strings"
	"time"

	"github.com/codetide/agentpipe/entry"
)

// Normalizer is the plain-dialect normalization state. Owned by a single
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
	msg, err := ParseMessage(line)
	if err != nil {
		return []entry.Normalized{n.rawSystem(string(line))}
	}
	return n.HandleMessage(msg)
}

// HandleMessage consumes one parsed message.
func (n *Normalizer) HandleMessage(msg Message) []entry.Normalized {
	switch m := msg.(type) {
	case *SystemInitMessage:
		return n.handleSystem(m)
	case *UserMessage:
		return n.handleUser(m)
	case *AssistantMessage:
		n.meta.Observe(m.SessionID, "")
		if text := m.Message.Text(); text != "" {
			return []entry.Normalized{n.appendStream(entry.StreamAssistant, text, entry.KindAssistantMessage)}
		}
		return nil
	case *ThinkingMessage:
		n.meta.Observe(m.SessionID, "")
		if m.Text != "" {
			return []entry.Normalized{n.appendStream(entry.StreamThinking, m.Text, entry.KindThinking)}
		}
		return nil
	case *ToolCallMessage:
		return n.handleToolCall(m)
	case *ResultMessage:
		return n.handleResult(m)
	default:
		slog.Warn("skipping unknown message type", "type", msg.messageType())
		return nil
	}
}

func (n *Normalizer) handleSystem(m *SystemInitMessage) []entry.Normalized {
	n.buffer.Close()
	n.meta.Observe(m.SessionID, m.Model)
	if n.workdir == "" && m.CWD != "" {
		n.workdir = m.CWD
	}

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

func (n *Normalizer) handleUser(m *UserMessage) []entry.Normalized {
	n.buffer.Close()
	n.meta.Observe(m.SessionID, "")
	text := m.Message.Text()
	if text == "" {
		return nil
	}
	return []entry.Normalized{{
		Timestamp: n.now(),
		Content:   text,
		Kind:      entry.KindUserMessage,
		Metadata:  n.meta.Metadata(),
		Index:     n.index.Next(),
	}}
}

func (n *Normalizer) handleToolCall(m *ToolCallMessage) []entry.Normalized {
	n.buffer.Close()
	n.meta.Observe(m.SessionID, "")

	key, body, err := m.ToolCall.Detail()
	if err != nil {
		slog.Warn("skipping tool call with empty payload", "call_id", m.CallID)
		return nil
	}

	switch m.Subtype {
	case "started":
		action := ClassifyTool(n.workdir, key, body.Args)
		e := entry.Normalized{
			Timestamp: n.now(),
			Content:   summarize(key, action),
			Kind:      entry.KindToolUse,
			ToolUse: &entry.ToolUse{
				ToolName: toolName(key),
				Action:   action,
				Status:   entry.StatusRunning,
			},
			Metadata: n.meta.Metadata(),
			Index:    n.index.Next(),
		}
		n.tools.Put(m.CallID, e)
		return []entry.Normalized{e}
	case "completed":
		return []entry.Normalized{n.toolCompleted(m.CallID, key, body)}
	default:
		slog.Warn("skipping tool call with unknown subtype", "subtype", m.Subtype)
		return nil
	}
}

// toolCompleted re-emits the started entry under its original index with the
// final status. A completion whose call id was never started synthesizes a
// standalone entry.
func (n *Normalizer) toolCompleted(callID, key string, body ToolCallBody) entry.Normalized {
	failed, _ := Outcome(body.Result)
	status := entry.StatusSuccess
	if failed {
		status = entry.StatusFailed
	}

	rec, ok := n.tools.Get(callID)
	if !ok {
		action := ClassifyTool(n.workdir, key, body.Args)
		action = CompleteAction(action, body.Result)
		e := entry.Normalized{
			Timestamp: n.now(),
			Content:   summarize(key, action),
			Kind:      entry.KindToolUse,
			ToolUse: &entry.ToolUse{
				ToolName: toolName(key),
				Action:   action,
				Status:   status,
			},
			Metadata: n.meta.Metadata(),
			Index:    n.index.Next(),
		}
		n.tools.Put(callID, e)
		return e
	}

	e := rec.Entry
	tu := *e.ToolUse
	tu.Status = status
	tu.Action = CompleteAction(tu.Action, body.Result)
	e.ToolUse = &tu
	e.Timestamp = n.now()
	e.Metadata = n.meta.Metadata()
	n.tools.Put(callID, e)
	return e
}

func (n *Normalizer) handleResult(m *ResultMessage) []entry.Normalized {
	n.buffer.Close()
	n.meta.Observe(m.SessionID, "")
	if !m.IsError {
		return nil
	}
	content := m.Result
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
