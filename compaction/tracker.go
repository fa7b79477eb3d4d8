package compaction

import (
	"iter"

	"github.com/youssefsiam38/agentctx/types"
)

// Usage is a point-in-time view of context window consumption.
type Usage struct {
	MessagesTokens int
	SystemTokens   int
	ToolsTokens    int
	TotalTokens    int
	MaxTokens      int

	// UsagePercent is TotalTokens/MaxTokens*100.
	UsagePercent float64

	// RemainingTokens is MaxTokens-TotalTokens and goes negative on overflow.
	RemainingTokens int
}

// MessageTokens is one row of a per-message breakdown.
type MessageTokens struct {
	Index  int
	Role   types.Role
	Tokens int
}

// ContextTracker measures messages against one model's context window.
type ContextTracker struct {
	model     string
	maxTokens int
	estimator *TokenEstimator
}

// NewContextTracker binds a tracker to model, resolving its window through limits.
// A nil estimator gets one with no output reservation.
func NewContextTracker(model string, limits ModelLimits, estimator *TokenEstimator) *ContextTracker {
	if estimator == nil {
		estimator = NewTokenEstimator(0)
	}
	return &ContextTracker{
		model:     model,
		maxTokens: limits.Resolve(model),
		estimator: estimator,
	}
}

// Model returns the model the tracker was built for.
func (t *ContextTracker) Model() string {
	return t.model
}

// MaxTokens returns the resolved context window.
func (t *ContextTracker) MaxTokens() int {
	return t.maxTokens
}

// CalculateUsage estimates the stored history against the context window.
func (t *ContextTracker) CalculateUsage(messages []*types.Message, system string, tools []types.ToolSpec) Usage {
	u := Usage{
		MessagesTokens: t.estimator.EstimateMessages(messages),
		SystemTokens:   t.estimator.EstimateText(system),
		ToolsTokens:    t.estimator.EstimateTools(tools),
		MaxTokens:      t.maxTokens,
	}
	u.TotalTokens = u.MessagesTokens + u.SystemTokens + u.ToolsTokens
	u.RemainingTokens = u.MaxTokens - u.TotalTokens
	if u.MaxTokens > 0 {
		u.UsagePercent = float64(u.TotalTokens) / float64(u.MaxTokens) * 100
	}
	return u
}

// ShouldSummarize reports whether totalTokens reaches threshold (a fraction) of the window.
func (t *ContextTracker) ShouldSummarize(totalTokens int, threshold float64) bool {
	return float64(totalTokens) >= float64(t.maxTokens)*threshold
}

// PerMessageBreakdown yields each message's estimate in order. The sequence can
// be ranged over more than once. It is meant for diagnostics only.
func (t *ContextTracker) PerMessageBreakdown(messages []*types.Message) iter.Seq[MessageTokens] {
	return func(yield func(MessageTokens) bool) {
		for i, msg := range messages {
			row := MessageTokens{Index: i, Tokens: t.estimator.EstimateMessage(msg)}
			if msg != nil {
				row.Role = msg.Role
			}
			if !yield(row) {
				return
			}
		}
	}
}
