package anthropic

import (
	"encoding/json"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/youssefsiam38/agentctx/types"
)

// ToMessageParams converts a (possibly compacted) conversation to request
// messages. System-role messages are left out; pass them through BuildSystem.
// Messages without any convertible block are skipped. A leading assistant
// text message, such as a summary, is sent in the user role because the API
// requires the conversation to open with a user turn.
func ToMessageParams(messages []*types.Message) []anthropic.MessageParam {
	params := make([]anthropic.MessageParam, 0, len(messages))

	for _, msg := range messages {
		if msg == nil || msg.Role == types.RoleSystem {
			continue
		}

		blocks := make([]anthropic.ContentBlockParamUnion, 0, len(msg.Content))
		for _, block := range msg.Content {
			if param, ok := convertContentBlock(block); ok {
				blocks = append(blocks, param)
			}
		}
		if len(blocks) == 0 {
			continue
		}

		role := anthropic.MessageParamRoleUser
		if msg.Role == types.RoleAssistant && (len(params) > 0 || msg.HasContentType(types.ContentTypeToolUse)) {
			role = anthropic.MessageParamRoleAssistant
		}
		params = append(params, anthropic.MessageParam{
			Role:    role,
			Content: blocks,
		})
	}

	return params
}

// convertContentBlock converts a single content block
func convertContentBlock(block types.ContentBlock) (anthropic.ContentBlockParamUnion, bool) {
	switch block.Type {
	case types.ContentTypeText:
		// The API rejects empty text blocks
		if block.Text == "" {
			return anthropic.ContentBlockParamUnion{}, false
		}
		return anthropic.NewTextBlock(block.Text), true

	case types.ContentTypeToolUse:
		var input any
		if len(block.ToolInput) > 0 {
			_ = json.Unmarshal(block.ToolInput, &input)
		}
		// Ensure input is a valid object (API requires a dictionary, not null)
		if input == nil {
			input = map[string]any{}
		}
		return anthropic.NewToolUseBlock(block.ToolUseID, input, block.ToolName), true

	case types.ContentTypeToolResult:
		return anthropic.NewToolResultBlock(block.ToolResultID, block.ToolContent, block.IsError), true

	case types.ContentTypeImage:
		if block.ImageSource == nil {
			break
		}
		switch block.ImageSource.Type {
		case "base64":
			return anthropic.NewImageBlockBase64(block.ImageSource.MediaType, block.ImageSource.Data), true
		case "url":
			return anthropic.NewImageBlock(anthropic.URLImageSourceParam{URL: block.ImageSource.URL}), true
		}
	}

	return anthropic.ContentBlockParamUnion{}, false
}

// FromMessageParams converts request messages back to library messages, for
// callers that keep their history as SDK params. Blocks with no library
// equivalent are dropped.
func FromMessageParams(params []anthropic.MessageParam) []*types.Message {
	messages := make([]*types.Message, 0, len(params))
	for _, p := range params {
		msg := types.NewMessage(types.Role(p.Role))
		for _, union := range p.Content {
			if block, ok := fromContentBlockParam(union); ok {
				msg.Content = append(msg.Content, block)
			}
		}
		messages = append(messages, msg)
	}
	return messages
}

func fromContentBlockParam(union anthropic.ContentBlockParamUnion) (types.ContentBlock, bool) {
	switch {
	case union.OfText != nil:
		return types.TextBlock(union.OfText.Text), true

	case union.OfToolUse != nil:
		input, err := json.Marshal(union.OfToolUse.Input)
		if err != nil {
			input = json.RawMessage("{}")
		}
		return types.ToolUseBlock(union.OfToolUse.ID, union.OfToolUse.Name, input), true

	case union.OfToolResult != nil:
		var content strings.Builder
		for _, part := range union.OfToolResult.Content {
			if part.OfText != nil {
				content.WriteString(part.OfText.Text)
			}
		}
		return types.ToolResultBlock(union.OfToolResult.ToolUseID, content.String(), union.OfToolResult.IsError.Value), true

	case union.OfImage != nil:
		src := union.OfImage.Source
		switch {
		case src.OfBase64 != nil:
			return types.ImageBlock(&types.ImageSource{
				Type:      "base64",
				MediaType: string(src.OfBase64.MediaType),
				Data:      src.OfBase64.Data,
			}), true
		case src.OfURL != nil:
			return types.ImageBlock(&types.ImageSource{Type: "url", URL: src.OfURL.URL}), true
		}
	}

	return types.ContentBlock{}, false
}

// FromResponse converts a Messages API response to an assistant message.
// Thinking and server-tool blocks are dropped.
func FromResponse(resp *anthropic.Message) *types.Message {
	if resp == nil {
		return nil
	}

	msg := types.NewMessage(types.RoleAssistant)
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			if block.Text != "" {
				msg.Content = append(msg.Content, types.TextBlock(block.Text))
			}
		case "tool_use":
			msg.Content = append(msg.Content, types.ToolUseBlock(block.ID, block.Name, block.Input))
		}
	}
	return msg
}

// BuildSystem creates system prompt blocks from prompt and the text of any
// system-role messages, in order. Empty parts are dropped.
func BuildSystem(prompt string, messages []*types.Message) []anthropic.TextBlockParam {
	var blocks []anthropic.TextBlockParam
	if strings.TrimSpace(prompt) != "" {
		blocks = append(blocks, anthropic.TextBlockParam{Text: prompt})
	}
	for _, msg := range messages {
		if msg == nil || msg.Role != types.RoleSystem {
			continue
		}
		if text := msg.Text(); text != "" {
			blocks = append(blocks, anthropic.TextBlockParam{Text: text})
		}
	}
	return blocks
}

// ToolParams converts tool specs for a request.
func ToolParams(specs []types.ToolSpec) []anthropic.ToolUnionParam {
	tools := make([]anthropic.ToolUnionParam, 0, len(specs))
	for _, spec := range specs {
		inputSchema := anthropic.ToolInputSchemaParam{
			Type:       "object",
			Properties: spec.InputSchema["properties"],
		}
		if required := requiredFields(spec.InputSchema["required"]); len(required) > 0 {
			inputSchema.Required = required
		}

		toolParam := anthropic.ToolParam{
			Name:        spec.Name,
			Description: anthropic.String(spec.Description),
			InputSchema: inputSchema,
		}
		tools = append(tools, anthropic.ToolUnionParam{OfTool: &toolParam})
	}
	return tools
}

// requiredFields accepts both []string and decoded JSON ([]any).
func requiredFields(v any) []string {
	switch fields := v.(type) {
	case []string:
		return fields
	case []any:
		out := make([]string, 0, len(fields))
		for _, f := range fields {
			if s, ok := f.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
