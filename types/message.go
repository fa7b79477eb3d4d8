package types

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role represents the message role
type Role string

const (
	// RoleUser represents a user message
	RoleUser Role = "user"

	// RoleAssistant represents an assistant message
	RoleAssistant Role = "assistant"

	// RoleSystem represents a system message
	RoleSystem Role = "system"
)

// ContentType represents the type of content block
type ContentType string

const (
	// ContentTypeText represents text content
	ContentTypeText ContentType = "text"

	// ContentTypeImage represents an image block
	ContentTypeImage ContentType = "image"

	// ContentTypeToolUse represents a tool use block
	ContentTypeToolUse ContentType = "tool_use"

	// ContentTypeToolResult represents a tool result block
	ContentTypeToolResult ContentType = "tool_result"
)

// ContentBlock is a tagged union: Type selects which of the fields are meaningful.
type ContentBlock struct {
	Type ContentType `json:"type"`

	// Text content
	Text string `json:"text,omitempty"`

	// Image content
	ImageSource *ImageSource `json:"source,omitempty"`

	// Tool use content
	ToolUseID string          `json:"id,omitempty"`
	ToolName  string          `json:"name,omitempty"`
	ToolInput json.RawMessage `json:"input,omitempty"`

	// Tool result content
	ToolResultID string `json:"tool_use_id,omitempty"`
	ToolContent  string `json:"content,omitempty"`
	IsError      bool   `json:"is_error,omitempty"`
}

// ImageSource represents an image source
type ImageSource struct {
	Type      string `json:"type"`       // "base64" or "url"
	MediaType string `json:"media_type"` // "image/jpeg", "image/png", etc.
	Data      string `json:"data,omitempty"`
	URL       string `json:"url,omitempty"`
}

// TextBlock returns a text content block.
func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: ContentTypeText, Text: text}
}

// ImageBlock returns an image content block.
func ImageBlock(src *ImageSource) ContentBlock {
	return ContentBlock{Type: ContentTypeImage, ImageSource: src}
}

// ToolUseBlock returns a tool use content block.
func ToolUseBlock(id, name string, input json.RawMessage) ContentBlock {
	return ContentBlock{Type: ContentTypeToolUse, ToolUseID: id, ToolName: name, ToolInput: input}
}

// ToolResultBlock returns a tool result content block.
func ToolResultBlock(toolUseID, content string, isError bool) ContentBlock {
	return ContentBlock{Type: ContentTypeToolResult, ToolResultID: toolUseID, ToolContent: content, IsError: isError}
}

// Message represents a conversation message.
// Messages are treated as immutable once handed to the compaction package.
type Message struct {
	ID      string         `json:"id"`
	Role    Role           `json:"role"`
	Content []ContentBlock `json:"content"`

	// IsPreserved pins the message regardless of its position. Unlike an index
	// bookmark it follows the message through earlier summarization rounds.
	IsPreserved bool `json:"is_preserved"`

	// IsSummary marks a message produced by summarization.
	IsSummary bool `json:"is_summary"`
}

// NewMessage creates a message with a fresh ID.
func NewMessage(role Role, blocks ...ContentBlock) *Message {
	return &Message{
		ID:      uuid.New().String(),
		Role:    role,
		Content: blocks,
	}
}

// NewTextMessage creates a single-text-block message with a fresh ID.
func NewTextMessage(role Role, text string) *Message {
	return NewMessage(role, TextBlock(text))
}

// Text returns the concatenated text blocks of the message.
func (m *Message) Text() string {
	if m == nil {
		return ""
	}
	var parts []string
	for _, block := range m.Content {
		if block.Type == ContentTypeText && block.Text != "" {
			parts = append(parts, block.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// HasContentType reports whether any block has the given type.
func (m *Message) HasContentType(t ContentType) bool {
	if m == nil {
		return false
	}
	for _, block := range m.Content {
		if block.Type == t {
			return true
		}
	}
	return false
}

// ToolSpec describes a tool offered to the model.
type ToolSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"input_schema,omitempty"`
}

// SummaryEvent describes one completed summarization round.
type SummaryEvent struct {
	Strategy           string
	Style              string
	OriginalTokens     int
	CompactedTokens    int
	MessagesSummarized int
	TokensSaved        int
	SummaryContent     string
	UsedFallback       bool
	PreservedIndices   []int
	Duration           time.Duration
}
