// Package anthropic adapts the Anthropic Messages API to the compaction
// package: a summary Generator and converters from agentctx messages to
// request parameters.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/youssefsiam38/agentctx/compaction"
)

// DefaultModel is used for summaries when Config.Model is empty.
const DefaultModel = "claude-haiku-4-5"

// SummarizationSystemPrompt frames the summarization request.
const SummarizationSystemPrompt = `You condense earlier parts of a conversation between a user and an AI assistant so the assistant can continue without the original messages.
Follow the length and focus given in the request. Report only what happened in the conversation.`

var (
	// ErrNoClient is returned when the Generator has no API client.
	ErrNoClient = errors.New("anthropic client is required")

	// ErrSummarizationFailed wraps API and stream failures.
	ErrSummarizationFailed = errors.New("summarization request failed")
)

// Config configures a Generator.
type Config struct {
	// Client is the Anthropic API client (required).
	Client *anthropic.Client

	// Model used for summaries.
	// Default: DefaultModel
	Model string

	// SystemPrompt overrides SummarizationSystemPrompt.
	SystemPrompt string
}

// Generator produces summaries with Claude's streaming API.
type Generator struct {
	client       *anthropic.Client
	model        string
	systemPrompt string
}

var _ compaction.Generator = (*Generator)(nil)

// NewGenerator creates a Generator.
func NewGenerator(cfg Config) *Generator {
	g := &Generator{
		client:       cfg.Client,
		model:        cfg.Model,
		systemPrompt: cfg.SystemPrompt,
	}
	if g.model == "" {
		g.model = DefaultModel
	}
	if g.systemPrompt == "" {
		g.systemPrompt = SummarizationSystemPrompt
	}
	return g
}

// Model returns the model used for summaries.
func (g *Generator) Model() string {
	return g.model
}

// Generate sends prompt as a single user turn and returns the concatenated
// text of the response.
func (g *Generator) Generate(ctx context.Context, prompt string, maxOutputTokens int) (string, error) {
	if g.client == nil {
		return "", ErrNoClient
	}

	stream := g.client.Messages.NewStreaming(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(g.model),
		MaxTokens: int64(maxOutputTokens),
		System: []anthropic.TextBlockParam{
			{Text: g.systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	defer stream.Close()

	// Accumulate the streamed response
	message := anthropic.Message{}
	for stream.Next() {
		if err := message.Accumulate(stream.Current()); err != nil {
			return "", fmt.Errorf("%w: failed to accumulate stream: %v", ErrSummarizationFailed, err)
		}
	}

	if err := stream.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrSummarizationFailed, err)
	}

	var summary strings.Builder
	for _, block := range message.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			summary.WriteString(text.Text)
		}
	}

	return summary.String(), nil
}
