package jsonl

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, sc *Scanner) []Line {
	t.Helper()
	var lines []Line
	for {
		line, err := sc.Next()
		if err == io.EOF {
			return lines
		}
		require.NoError(t, err)
		lines = append(lines, line)
	}
}

func TestScanner_ParsesJSONLines(t *testing.T) {
	input := "{\"type\":\"system\"}\n{\"type\":\"assistant\"}\n"
	lines := collect(t, NewScanner(strings.NewReader(input)))

	require.Len(t, lines, 2)
	assert.True(t, lines[0].IsJSON())
	assert.JSONEq(t, `{"type":"system"}`, string(lines[0].Value))
	assert.True(t, lines[1].IsJSON())
}

func TestScanner_SkipsBlankLines(t *testing.T) {
	input := "\n  \n{\"a\":1}\n\t\n{\"b\":2}\n\n"
	lines := collect(t, NewScanner(strings.NewReader(input)))

	require.Len(t, lines, 2)
	assert.JSONEq(t, `{"a":1}`, string(lines[0].Value))
	assert.JSONEq(t, `{"b":2}`, string(lines[1].Value))
}

func TestScanner_NonJSONLineIsRawText(t *testing.T) {
	input := "not json at all\n{\"ok\":true}\n"
	lines := collect(t, NewScanner(strings.NewReader(input)))

	require.Len(t, lines, 2)
	assert.False(t, lines[0].IsJSON())
	assert.Equal(t, "not json at all", lines[0].Raw)
	assert.True(t, lines[1].IsJSON())
}

func TestScanner_FlushesTrailingPartialLine(t *testing.T) {
	// No trailing newline: the final line is still delivered.
	input := "{\"a\":1}\n{\"b\":2}"
	lines := collect(t, NewScanner(strings.NewReader(input)))

	require.Len(t, lines, 2)
	assert.JSONEq(t, `{"b":2}`, string(lines[1].Value))
}

// chunkReader returns input in fixed-size chunks to exercise lines split
// across read boundaries.
type chunkReader struct {
	data []byte
	size int
	pos  int
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	end := r.pos + r.size
	if end > len(r.data) {
		end = len(r.data)
	}
	n := copy(p, r.data[r.pos:end])
	r.pos += n
	return n, nil
}

func TestScanner_ToleratesArbitraryChunkBoundaries(t *testing.T) {
	input := "{\"type\":\"assistant\",\"text\":\"hello world\"}\n{\"type\":\"result\"}\n"
	for _, size := range []int{1, 3, 7, 16} {
		lines := collect(t, NewScanner(&chunkReader{data: []byte(input), size: size}))
		require.Len(t, lines, 2, "chunk size %d", size)
		assert.True(t, lines[0].IsJSON())
		assert.True(t, lines[1].IsJSON())
	}
}

func TestScanner_TruncatedJSONIsRawText(t *testing.T) {
	input := "{\"type\":\"assistant\",\"text\":\"cut off\n"
	lines := collect(t, NewScanner(strings.NewReader(input)))

	require.Len(t, lines, 1)
	assert.False(t, lines[0].IsJSON())
}

func TestScanner_EOFAfterExhaustion(t *testing.T) {
	sc := NewScanner(strings.NewReader(""))
	_, err := sc.Next()
	assert.Equal(t, io.EOF, err)
	_, err = sc.Next()
	assert.Equal(t, io.EOF, err)
}
