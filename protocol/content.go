package protocol

import (
	"encoding/json"
	"log/slog"
	"strings"
)

// ContentBlockType identifies the kind of content block.
type ContentBlockType string

const (
	ContentBlockTypeText       ContentBlockType = "text"
	ContentBlockTypeThinking   ContentBlockType = "thinking"
	ContentBlockTypeToolUse    ContentBlockType = "tool_use"
	ContentBlockTypeToolResult ContentBlockType = "tool_result"
)

// ContentBlock is the interface for content block discrimination.
type ContentBlock interface {
	BlockType() ContentBlockType
}

// TextBlock is a block of assistant or user text.
type TextBlock struct {
	Type ContentBlockType `json:"type"`
	Text string           `json:"text"`
}

// BlockType returns the content block type.
func (b TextBlock) BlockType() ContentBlockType { return ContentBlockTypeText }

// ThinkingBlock is a block of reasoning content.
type ThinkingBlock struct {
	Type     ContentBlockType `json:"type"`
	Thinking string           `json:"thinking"`
}

// BlockType returns the content block type.
func (b ThinkingBlock) BlockType() ContentBlockType { return ContentBlockTypeThinking }

// ToolUseBlock starts a tool invocation.
type ToolUseBlock struct {
	Type  ContentBlockType `json:"type"`
	ID    string           `json:"id"`
	Name  string           `json:"name"`
	Input map[string]any   `json:"input"`
}

// BlockType returns the content block type.
func (b ToolUseBlock) BlockType() ContentBlockType { return ContentBlockTypeToolUse }

// ToolResultBlock carries the outcome of a tool invocation, keyed by the
// originating tool_use id. Content may be a string, an array of text
// fragments, or absent.
type ToolResultBlock struct {
	Type      ContentBlockType `json:"type"`
	ToolUseID string           `json:"tool_use_id"`
	Content   FlexibleContent  `json:"content"`
	IsError   *bool            `json:"is_error,omitempty"`
}

// BlockType returns the content block type.
func (b ToolResultBlock) BlockType() ContentBlockType { return ContentBlockTypeToolResult }

// ContentText flattens the result content into one string: a bare string is
// returned as-is, an array of text fragments is concatenated, absent content
// yields "".
func (b ToolResultBlock) ContentText() string {
	if s, ok := b.Content.AsString(); ok {
		return s
	}
	blocks, ok := b.Content.AsBlocks()
	if !ok {
		return ""
	}
	var sb strings.Builder
	for _, block := range blocks {
		if tb, ok := block.(TextBlock); ok {
			sb.WriteString(tb.Text)
		}
	}
	return sb.String()
}

// UnknownBlock carries a content block with an unrecognized type tag.
type UnknownBlock struct {
	Type ContentBlockType
	Raw  json.RawMessage
}

// BlockType returns the content block type.
func (b UnknownBlock) BlockType() ContentBlockType { return b.Type }

// UnmarshalContentBlock parses one content block by its type tag.
// Unrecognized tags produce an UnknownBlock rather than an error.
func UnmarshalContentBlock(data json.RawMessage) (ContentBlock, error) {
	var base struct {
		Type ContentBlockType `json:"type"`
	}
	if err := json.Unmarshal(data, &base); err != nil {
		return nil, err
	}

	switch base.Type {
	case ContentBlockTypeText:
		var b TextBlock
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, err
		}
		return b, nil
	case ContentBlockTypeThinking:
		var b ThinkingBlock
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, err
		}
		return b, nil
	case ContentBlockTypeToolUse:
		var b ToolUseBlock
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, err
		}
		return b, nil
	case ContentBlockTypeToolResult:
		var b ToolResultBlock
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, err
		}
		return b, nil
	default:
		slog.Warn("skipping unknown content block type", "type", base.Type)
		return UnknownBlock{Type: base.Type, Raw: append(json.RawMessage(nil), data...)}, nil
	}
}

// ContentBlocks is a slice of heterogeneous content blocks.
type ContentBlocks []ContentBlock

// UnmarshalJSON implements json.Unmarshaler.
func (cb *ContentBlocks) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return err
	}
	blocks := make(ContentBlocks, 0, len(raws))
	for _, raw := range raws {
		block, err := UnmarshalContentBlock(raw)
		if err != nil {
			return err
		}
		blocks = append(blocks, block)
	}
	*cb = blocks
	return nil
}
