// Package entry defines the canonical, dialect-independent output record
// produced by the normalizers, plus the small pieces of state they share:
// the monotonic index provider, the streaming coalesce buffer, and the
// metadata-once cache.
package entry

import "time"

// Kind identifies the category of a normalized entry.
type Kind string

const (
	KindSystemMessage    Kind = "system_message"
	KindUserMessage      Kind = "user_message"
	KindAssistantMessage Kind = "assistant_message"
	KindThinking         Kind = "thinking"
	KindToolUse          Kind = "tool_use"
	KindError            Kind = "error"
)

// ToolStatus is the lifecycle state of a tool-use entry.
type ToolStatus string

const (
	StatusCreated ToolStatus = "created"
	StatusRunning ToolStatus = "running"
	StatusSuccess ToolStatus = "success"
	StatusFailed  ToolStatus = "failed"
)

// Metadata carries session-level context attached to every entry once known,
// plus kind-specific extras.
type Metadata struct {
	SessionID string         `json:"session_id,omitempty"`
	Model     string         `json:"model,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// ToolUse describes the tool-invocation payload of a KindToolUse entry.
type ToolUse struct {
	ToolName string     `json:"tool_name"`
	Action   Action     `json:"action"`
	Status   ToolStatus `json:"status"`
}

// Normalized is the canonical output unit. The Index is the identity of a
// logical entry: an entry may be emitted more than once with the same index
// to represent an update (coalesced text growing, or a tool transitioning
// from running to success/failed).
type Normalized struct {
	Timestamp time.Time `json:"timestamp"`
	Content   string    `json:"content"`
	Kind      Kind      `json:"kind"`
	ToolUse   *ToolUse  `json:"tool_use,omitempty"`
	Metadata  Metadata  `json:"metadata"`
	Index     int       `json:"index"`
}

// Normalizer is the single-operation contract every dialect implements:
// consume one line in arrival order, produce the resulting emissions.
// A message usually yields zero or one entry; assistant messages bundling
// several content blocks fan out into one emission per block. Handle never
// fails: unparseable input degrades to a system-message entry.
type Normalizer interface {
	Handle(line []byte) []Normalized
}

// Reduce folds a sequence of emissions into final logical entries, keeping
// the last emission for each index in first-seen order. Useful for
// collaborators that persist a replayable transcript.
func Reduce(emissions []Normalized) []Normalized {
	byIndex := make(map[int]int, len(emissions))
	var out []Normalized
	for _, e := range emissions {
		if pos, ok := byIndex[e.Index]; ok {
			out[pos] = e
			continue
		}
		byIndex[e.Index] = len(out)
		out = append(out, e)
	}
	return out
}
