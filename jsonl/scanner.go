// Package jsonl turns a raw byte stream into a sequence of parsed JSON
// values, one per newline-terminated line. Lines may be split arbitrarily
// across input chunks; blank lines are dropped; a trailing unterminated line
// is flushed at end of stream. Lines that are not valid JSON are reported as
// raw text rather than as errors, so callers can decide fallback behavior.
package jsonl

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"
)

const (
	// initialBufferSize is the starting size of the scanner buffer.
	initialBufferSize = 64 * 1024
	// maxLineSize bounds a single line. Agent CLIs embed whole file contents
	// in tool results, so lines can run to several megabytes.
	maxLineSize = 32 * 1024 * 1024
)

// Line is one non-blank line from the stream. Value is the parsed JSON
// document, or nil when the line is not valid JSON; Raw always holds the
// original text.
type Line struct {
	Value json.RawMessage
	Raw   string
}

// IsJSON reports whether the line parsed as a JSON document.
func (l Line) IsJSON() bool { return l.Value != nil }

// Scanner reads newline-delimited JSON from an io.Reader.
// Not safe for concurrent use; each stream owns exactly one Scanner.
type Scanner struct {
	s *bufio.Scanner
}

// NewScanner creates a Scanner over r.
func NewScanner(r io.Reader) *Scanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, initialBufferSize), maxLineSize)
	return &Scanner{s: s}
}

// Next returns the next non-blank line. It returns io.EOF when the stream is
// exhausted, or the underlying reader's error if reading fails. Output order
// equals input line order.
func (sc *Scanner) Next() (Line, error) {
	for sc.s.Scan() {
		text := sc.s.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}
		return parseLine(text), nil
	}
	if err := sc.s.Err(); err != nil {
		return Line{}, err
	}
	return Line{}, io.EOF
}

// parseLine attempts to parse one complete line as a JSON document.
func parseLine(text string) Line {
	trimmed := strings.TrimSpace(text)
	if json.Valid([]byte(trimmed)) {
		return Line{Value: json.RawMessage(trimmed), Raw: text}
	}
	return Line{Raw: text}
}
