package compaction

import (
	"github.com/youssefsiam38/agentctx/types"
)

// Token estimation constants.
const (
	CharsPerToken         = 4
	ImageTokens           = 170
	ToolSpecTokens        = 100
	MessageOverheadTokens = 10
)

// TokenEstimator approximates token counts without calling a tokenizer.
// It is pure and safe for concurrent use.
type TokenEstimator struct {
	outputReservation int
}

// NewTokenEstimator creates an estimator that reserves outputReservation tokens
// when budgeting a request. A negative value is treated as zero.
func NewTokenEstimator(outputReservation int) *TokenEstimator {
	if outputReservation < 0 {
		outputReservation = 0
	}
	return &TokenEstimator{outputReservation: outputReservation}
}

// OutputReservation returns the tokens reserved for the model's response.
func (e *TokenEstimator) OutputReservation() int {
	return e.outputReservation
}

// ApproximateTokens estimates token count from character count,
// rounding up with a minimum of 1 for non-empty text.
func ApproximateTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	return (len(text) + CharsPerToken - 1) / CharsPerToken
}

// EstimateText estimates the tokens in text.
func (e *TokenEstimator) EstimateText(text string) int {
	return ApproximateTokens(text)
}

// EstimateImage returns the flat per-image estimate. Pixel data is not inspected.
func (e *TokenEstimator) EstimateImage() int {
	return ImageTokens
}

// EstimateTools returns a flat per-tool estimate; schema size is ignored.
func (e *TokenEstimator) EstimateTools(specs []types.ToolSpec) int {
	return ToolSpecTokens * len(specs)
}

// EstimateBlock estimates a single content block. Unknown kinds count as zero.
func (e *TokenEstimator) EstimateBlock(block types.ContentBlock) int {
	switch block.Type {
	case types.ContentTypeText:
		return e.EstimateText(block.Text)
	case types.ContentTypeImage:
		return e.EstimateImage()
	case types.ContentTypeToolUse:
		return e.EstimateText(block.ToolName) + e.EstimateText(string(block.ToolInput))
	case types.ContentTypeToolResult:
		return e.EstimateText(block.ToolContent)
	default:
		return 0
	}
}

// EstimateMessage estimates a message: its blocks plus fixed structural overhead.
func (e *TokenEstimator) EstimateMessage(msg *types.Message) int {
	if msg == nil {
		return 0
	}
	total := MessageOverheadTokens
	for _, block := range msg.Content {
		total += e.EstimateBlock(block)
	}
	return total
}

// EstimateMessages sums EstimateMessage over messages.
func (e *TokenEstimator) EstimateMessages(messages []*types.Message) int {
	total := 0
	for _, msg := range messages {
		total += e.EstimateMessage(msg)
	}
	return total
}

// EstimateTotal sizes stored history: messages, system prompt and tool specs.
func (e *TokenEstimator) EstimateTotal(messages []*types.Message, system string, tools []types.ToolSpec) int {
	return e.EstimateMessages(messages) + e.EstimateText(system) + e.EstimateTools(tools)
}

// EstimateRequest sizes an upcoming request: EstimateTotal plus the output reservation.
func (e *TokenEstimator) EstimateRequest(messages []*types.Message, system string, tools []types.ToolSpec) int {
	return e.EstimateTotal(messages, system, tools) + e.outputReservation
}
