package compaction

import (
	"fmt"
	"strings"

	"github.com/youssefsiam38/agentctx/types"
)

// styleInstructions holds the fixed instruction for each summarization style.
var styleInstructions = map[SummarizationStyle]string{
	StyleAggressive: "Summarize the conversation below in 1-2 sentences. " +
		"Keep only the user's goal and the most important outcome.",
	StyleBalanced: "Summarize the conversation below in 2-4 sentences. " +
		"Cover what the user asked for, the key decisions and results, and anything still open.",
	StyleConservative: "Summarize the conversation below as one detailed paragraph. " +
		"Preserve the user's requests and constraints, technical details such as file names, " +
		"commands and error messages, the decisions reached, and any pending work.",
}

// BuildSummarizationPrompt creates the collaborator prompt for style.
// Unknown styles fall back to the balanced instruction.
func BuildSummarizationPrompt(style SummarizationStyle, conversationText string) string {
	instruction, ok := styleInstructions[style]
	if !ok {
		instruction = styleInstructions[StyleBalanced]
	}

	return instruction + `
Write the summary in plain prose, as a note to yourself for continuing the conversation.
Do not add information that was not in the conversation.

<conversation>
` + conversationText + `
</conversation>`
}

// FormatMessagesAsText renders messages as a role-labelled transcript.
func FormatMessagesAsText(messages []*types.Message) string {
	var sb strings.Builder
	for _, msg := range messages {
		content := extractMessageContent(msg)
		if content == "" {
			continue
		}
		sb.WriteString(roleLabel(msg.Role))
		sb.WriteString(":\n")
		sb.WriteString(content)
		sb.WriteString("\n\n")
	}
	return sb.String()
}

// extractMessageContent extracts readable text content from a message.
func extractMessageContent(msg *types.Message) string {
	if msg == nil {
		return ""
	}

	var parts []string
	for _, block := range msg.Content {
		switch block.Type {
		case types.ContentTypeText:
			if block.Text != "" {
				parts = append(parts, block.Text)
			}
		case types.ContentTypeImage:
			parts = append(parts, "[Image]")
		case types.ContentTypeToolUse:
			parts = append(parts, fmt.Sprintf("[Tool: %s, Input: %s]", block.ToolName, string(block.ToolInput)))
		case types.ContentTypeToolResult:
			// Abbreviate long results
			result := truncateText(block.ToolContent, 500)
			if block.IsError {
				parts = append(parts, fmt.Sprintf("[Tool Error for %s: %s]", block.ToolResultID, result))
			} else {
				parts = append(parts, fmt.Sprintf("[Tool Result for %s: %s]", block.ToolResultID, result))
			}
		}
	}

	return strings.Join(parts, "\n")
}

func roleLabel(role types.Role) string {
	switch role {
	case types.RoleAssistant:
		return "Assistant"
	case types.RoleSystem:
		return "System"
	default:
		return "User"
	}
}

// truncateText limits text to maxChars with ellipsis
func truncateText(text string, maxChars int) string {
	if len(text) <= maxChars {
		return text
	}
	if maxChars <= 3 {
		return text[:maxChars]
	}
	return text[:maxChars-3] + "..."
}
