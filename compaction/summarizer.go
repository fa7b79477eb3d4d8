package compaction

import (
	"context"
	"fmt"
	"strings"

	"github.com/youssefsiam38/agentctx/types"
)

// SummaryMarker opens the header of every summary message.
const SummaryMarker = "[Conversation summary"

const (
	// MaxToolFailures caps the number of failures included in a summary
	MaxToolFailures = 8
	// MaxToolFailureChars truncates individual failure messages
	MaxToolFailureChars = 240
)

// Generator is the text-generation collaborator used for summaries.
// Implementations may block on the network; cancellation is carried by ctx.
type Generator interface {
	Generate(ctx context.Context, prompt string, maxOutputTokens int) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string, maxOutputTokens int) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, prompt string, maxOutputTokens int) (string, error) {
	return f(ctx, prompt, maxOutputTokens)
}

// Summary is the outcome of Summarizer.Summarize. Text is always usable:
// when the collaborator fails, Fallback is set, Err records why and Text
// holds the rule-based summary. Empty input yields no text and
// ErrNoMessagesToCompact.
type Summary struct {
	Text     string
	Fallback bool
	Err      error
}

// Summarizer collapses a span of messages into summary text.
type Summarizer struct {
	generator Generator
	maxTokens int
	logger    Logger
}

// NewSummarizer creates a Summarizer. A nil generator means every summary
// comes from the fallback.
func NewSummarizer(generator Generator, maxTokens int, logger Logger) *Summarizer {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Summarizer{
		generator: generator,
		maxTokens: maxTokens,
		logger:    logger,
	}
}

// Summarize produces summary text for messages in the given style. It never
// fails: collaborator errors are logged and replaced by FallbackSummary.
// The collaborator is called once; there are no retries.
func (s *Summarizer) Summarize(ctx context.Context, messages []*types.Message, style SummarizationStyle) Summary {
	if len(messages) == 0 {
		return Summary{Err: ErrNoMessagesToCompact}
	}

	prompt := BuildSummarizationPrompt(style, FormatMessagesAsText(messages))
	text, err := s.generate(ctx, prompt)
	if err != nil {
		s.logger.Warn("summarization collaborator failed, using fallback",
			"messages", len(messages),
			"style", style,
			"error", err,
		)
		return Summary{
			Text:     FallbackSummary(messages),
			Fallback: true,
			Err:      err,
		}
	}

	return Summary{Text: EnhancedSummary(messages, text)}
}

func (s *Summarizer) generate(ctx context.Context, prompt string) (text string, err error) {
	if s.generator == nil {
		return "", NewCompactionError("Generate", ErrCollaboratorUnavailable).
			WithContext("reason", "no generator configured")
	}

	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = NewCompactionError("Generate", fmt.Errorf("%w: panic: %v", ErrCollaboratorUnavailable, r))
		}
	}()

	text, err = s.generator.Generate(ctx, prompt, s.maxTokens)
	if err != nil {
		return "", NewCompactionError("Generate", fmt.Errorf("%w: %w", ErrCollaboratorUnavailable, err))
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", NewCompactionError("Generate", ErrEmptySummary)
	}
	return text, nil
}

// FallbackSummary builds a deterministic summary from role counts and keyword
// checks. It returns non-empty text for any non-empty input.
func FallbackSummary(messages []*types.Message) string {
	if len(messages) == 0 {
		return ""
	}

	userCount, assistantCount := 0, 0
	hasCode, hasError := false, false
	for _, msg := range messages {
		if msg == nil {
			continue
		}
		switch msg.Role {
		case types.RoleUser:
			userCount++
		case types.RoleAssistant:
			assistantCount++
		}
		text := msg.Text()
		if strings.Contains(text, CodeFenceMarker) {
			hasCode = true
		}
		if containsAny(strings.ToLower(text), errorWords) {
			hasError = true
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Earlier in this conversation the user sent %s and the assistant sent %s.",
		plural(userCount, "message"), plural(assistantCount, "message"))
	if hasCode {
		sb.WriteString(" Code snippets were shared and discussed.")
	}
	if hasError {
		sb.WriteString(" Errors or failures came up and were worked on.")
	}

	return EnhancedSummary(messages, sb.String())
}

// EnhancedSummary appends a tool failure section to a summary when the
// summarized span contains failed tool results.
func EnhancedSummary(messages []*types.Message, baseSummary string) string {
	section := FormatToolFailuresSection(CollectToolFailures(messages))
	if section == "" {
		return baseSummary
	}
	return baseSummary + section
}

// ToolFailure is a failed tool execution worth keeping in a summary.
type ToolFailure struct {
	ToolUseID string
	ToolName  string
	Summary   string
}

// CollectToolFailures extracts failed tool results, deduplicated by tool use ID.
func CollectToolFailures(messages []*types.Message) []ToolFailure {
	names := make(map[string]string)
	for _, msg := range messages {
		if msg == nil {
			continue
		}
		for _, block := range msg.Content {
			if block.Type == types.ContentTypeToolUse && block.ToolUseID != "" {
				names[block.ToolUseID] = block.ToolName
			}
		}
	}

	var failures []ToolFailure
	seen := make(map[string]bool)
	for _, msg := range messages {
		if msg == nil {
			continue
		}
		for _, block := range msg.Content {
			if block.Type != types.ContentTypeToolResult || !block.IsError {
				continue
			}
			if block.ToolResultID == "" || seen[block.ToolResultID] {
				continue
			}
			seen[block.ToolResultID] = true

			name := names[block.ToolResultID]
			if name == "" {
				name = "tool"
			}
			summary := strings.Join(strings.Fields(block.ToolContent), " ")
			if summary == "" {
				summary = "failed (no output)"
			}

			failures = append(failures, ToolFailure{
				ToolUseID: block.ToolResultID,
				ToolName:  name,
				Summary:   truncateText(summary, MaxToolFailureChars),
			})
		}
	}
	return failures
}

// FormatToolFailuresSection renders failures, or "" when there are none.
func FormatToolFailuresSection(failures []ToolFailure) string {
	if len(failures) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("\n\nTool failures:\n")
	for _, f := range failures[:min(len(failures), MaxToolFailures)] {
		fmt.Fprintf(&sb, "- %s: %s\n", f.ToolName, f.Summary)
	}
	if len(failures) > MaxToolFailures {
		fmt.Fprintf(&sb, "- ...and %d more\n", len(failures)-MaxToolFailures)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// IdentifyImportantMessages returns indices that must survive summarization:
// bookmarks, pinned messages, fenced code, error mentions and long user input.
func IdentifyImportantMessages(messages []*types.Message, bookmarks IndexSet) IndexSet {
	important := make(IndexSet)
	for i, msg := range messages {
		if bookmarks.Has(i) {
			important.Add(i)
			continue
		}
		if msg == nil {
			continue
		}
		text := msg.Text()
		switch {
		case msg.IsPreserved,
			strings.Contains(text, CodeFenceMarker),
			strings.Contains(strings.ToLower(text), "error"),
			msg.Role == types.RoleUser && len(text) > 100:
			important.Add(i)
		}
	}
	return important
}

// BuildSummaryMessage wraps summary text in an assistant message whose header
// states how many messages it replaces and the estimated savings.
func BuildSummaryMessage(text string, originalCount, tokensSaved int) *types.Message {
	msg := types.NewTextMessage(types.RoleAssistant,
		fmt.Sprintf("%s: replaces %d earlier messages, ~%d tokens saved]\n\n%s",
			SummaryMarker, originalCount, tokensSaved, text))
	msg.IsSummary = true
	return msg
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
