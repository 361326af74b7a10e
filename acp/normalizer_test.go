package acp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codetide/agentpipe/entry"
)

func testNormalizer() *Normalizer {
	at := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	return NewNormalizer(WithWorkdir("/work"), WithClock(func() time.Time { return at }))
}

func handleAll(n *Normalizer, lines ...string) []entry.Normalized {
	var out []entry.Normalized
	for _, line := range lines {
		out = append(out, n.Handle([]byte(line))...)
	}
	return out
}

func TestParseUpdate_Framings(t *testing.T) {
	rpc := `{"jsonrpc":"2.0","method":"session/update","params":{"sessionId":"s1","update":{"sessionUpdate":"agent_message_chunk","content":{"type":"text","text":"hi"}}}}`
	note, err := ParseUpdate([]byte(rpc))
	require.NoError(t, err)
	assert.Equal(t, "s1", note.SessionID)
	assert.Equal(t, UpdateAgentMessageChunk, note.Update.Type)

	bare := `{"sessionId":"s2","update":{"sessionUpdate":"plan","entries":[{"content":"step"}]}}`
	note, err = ParseUpdate([]byte(bare))
	require.NoError(t, err)
	assert.Equal(t, "s2", note.SessionID)
	assert.Equal(t, UpdatePlan, note.Update.Type)

	naked := `{"sessionUpdate":"agent_thought_chunk","content":{"type":"text","text":"hm"}}`
	note, err = ParseUpdate([]byte(naked))
	require.NoError(t, err)
	assert.Equal(t, UpdateAgentThoughtChunk, note.Update.Type)

	_, err = ParseUpdate([]byte(`{"jsonrpc":"2.0","method":"session/request_permission","params":{}}`))
	assert.Error(t, err)
}

func TestNormalizer_MessageChunksCoalesce(t *testing.T) {
	n := testNormalizer()
	out := handleAll(n,
		`{"sessionId":"s1","update":{"sessionUpdate":"agent_message_chunk","content":{"type":"text","text":"Hello "}}}`,
		`{"sessionId":"s1","update":{"sessionUpdate":"agent_message_chunk","content":{"type":"text","text":"world"}}}`,
	)
	require.Len(t, out, 2)
	assert.Equal(t, out[0].Index, out[1].Index)
	assert.Equal(t, "Hello world", out[1].Content)
	assert.Equal(t, "s1", out[1].Metadata.SessionID)
}

func TestNormalizer_ThoughtThenMessage(t *testing.T) {
	n := testNormalizer()
	out := handleAll(n,
		`{"update":{"sessionUpdate":"agent_thought_chunk","content":{"type":"text","text":"considering"}}}`,
		`{"update":{"sessionUpdate":"agent_message_chunk","content":{"type":"text","text":"answer"}}}`,
	)
	require.Len(t, out, 2)
	assert.Equal(t, entry.KindThinking, out[0].Kind)
	assert.Equal(t, entry.KindAssistantMessage, out[1].Kind)
	assert.NotEqual(t, out[0].Index, out[1].Index)
}

func TestNormalizer_ToolCallStatusMapping(t *testing.T) {
	cases := []struct {
		status string
		want   entry.ToolStatus
	}{
		{"pending", entry.StatusCreated},
		{"in_progress", entry.StatusRunning},
		{"completed", entry.StatusSuccess},
		{"failed", entry.StatusFailed},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, mapStatus(tc.status), tc.status)
	}
}

func TestNormalizer_ToolCallLifecycle(t *testing.T) {
	n := testNormalizer()
	out := handleAll(n,
		`{"update":{"sessionUpdate":"tool_call","toolCallId":"t1","title":"Run tests","kind":"execute","status":"pending","rawInput":{"command":"go test ./..."}}}`,
		`{"update":{"sessionUpdate":"tool_call_update","toolCallId":"t1","status":"in_progress"}}`,
		`{"update":{"sessionUpdate":"tool_call_update","toolCallId":"t1","status":"completed","content":[{"type":"content","content":{"type":"text","text":"ok\n"}}]}}`,
	)
	require.Len(t, out, 3)
	assert.Equal(t, out[0].Index, out[1].Index)
	assert.Equal(t, out[0].Index, out[2].Index)

	assert.Equal(t, entry.StatusCreated, out[0].ToolUse.Status)
	assert.Equal(t, entry.StatusRunning, out[1].ToolUse.Status)
	assert.Equal(t, entry.StatusSuccess, out[2].ToolUse.Status)

	assert.Equal(t, entry.ActionCommandRun, out[0].ToolUse.Action.Kind)
	assert.Equal(t, "go test ./...", out[0].ToolUse.Action.Command)
	require.NotNil(t, out[2].ToolUse.Action.Result)
	assert.Equal(t, "ok\n", out[2].ToolUse.Action.Result.Output)
}

func TestNormalizer_EditDiffFromContent(t *testing.T) {
	n := testNormalizer()
	out := handleAll(n,
		`{"update":{"sessionUpdate":"tool_call","toolCallId":"t2","title":"Edit main.go","kind":"edit","status":"pending","locations":[{"path":"/work/main.go"}]}}`,
		`{"update":{"sessionUpdate":"tool_call_update","toolCallId":"t2","status":"completed","content":[{"type":"diff","path":"/work/main.go","oldText":"old","newText":"new"}]}}`,
	)
	require.Len(t, out, 2)
	action := out[1].ToolUse.Action
	assert.Equal(t, entry.ActionFileEdit, action.Kind)
	assert.Equal(t, "main.go", action.Path)
	require.Len(t, action.Changes, 1)
	assert.Contains(t, action.Changes[0].UnifiedDiff, "--- a/main.go")
	assert.Contains(t, action.Changes[0].UnifiedDiff, "-old")
	assert.Contains(t, action.Changes[0].UnifiedDiff, "+new")
}

func TestNormalizer_UpdateForUnseenIDSynthesizes(t *testing.T) {
	n := testNormalizer()
	out := n.Handle([]byte(`{"update":{"sessionUpdate":"tool_call_update","toolCallId":"ghost","kind":"read","status":"completed","locations":[{"path":"/work/a.go"}]}}`))
	require.Len(t, out, 1)
	assert.Equal(t, entry.KindToolUse, out[0].Kind)
	assert.Equal(t, entry.StatusSuccess, out[0].ToolUse.Status)
	assert.Equal(t, "a.go", out[0].ToolUse.Action.Path)
}

func TestNormalizer_PlanRendersNumberedThinking(t *testing.T) {
	n := testNormalizer()
	out := n.Handle([]byte(`{"update":{"sessionUpdate":"plan","entries":[{"content":"inspect","status":"completed"},{"content":"refactor","status":"in_progress"},{"content":"verify"}]}}`))
	require.Len(t, out, 1)
	assert.Equal(t, entry.KindThinking, out[0].Kind)
	assert.Equal(t, "1. inspect (completed)\n2. refactor (in_progress)\n3. verify", out[0].Content)

	plan, ok := out[0].Metadata.Extra["plan"].([]PlanEntry)
	require.True(t, ok)
	assert.Len(t, plan, 3)
}

func TestNormalizer_CapabilityUpdatesConsumed(t *testing.T) {
	n := testNormalizer()
	out := handleAll(n,
		`{"update":{"sessionUpdate":"available_commands_update","availableCommands":[{"name":"test"}]}}`,
		`{"update":{"sessionUpdate":"current_mode_update","currentModeId":"auto"}}`,
	)
	assert.Empty(t, out)
}

func TestNormalizer_PlanClosesStream(t *testing.T) {
	n := testNormalizer()
	out := handleAll(n,
		`{"update":{"sessionUpdate":"agent_message_chunk","content":{"type":"text","text":"one"}}}`,
		`{"update":{"sessionUpdate":"plan","entries":[{"content":"step"}]}}`,
		`{"update":{"sessionUpdate":"agent_message_chunk","content":{"type":"text","text":"two"}}}`,
	)
	require.Len(t, out, 3)
	assert.NotEqual(t, out[0].Index, out[2].Index)
	assert.Equal(t, "two", out[2].Content)
}

func TestNormalizer_NonJSONLine(t *testing.T) {
	n := testNormalizer()
	out := n.Handle([]byte("gemini booting"))
	require.Len(t, out, 1)
	assert.Equal(t, entry.KindSystemMessage, out[0].Kind)
	assert.Equal(t, "gemini booting", out[0].Content)
}
