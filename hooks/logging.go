package hooks

import (
	"context"
	"log"

	"github.com/youssefsiam38/agentctx/types"
)

// LoggingHooks provides built-in logging hooks for observability
type LoggingHooks struct {
	logger *log.Logger
}

// NewLoggingHooks creates logging hooks with the provided logger
func NewLoggingHooks(logger *log.Logger) *LoggingHooks {
	return &LoggingHooks{logger: logger}
}

// DefaultLoggingHooks creates logging hooks with default logger
func DefaultLoggingHooks() *LoggingHooks {
	return &LoggingHooks{logger: log.Default()}
}

// Register attaches the hooks to r
func (h *LoggingHooks) Register(r *Registry) {
	r.OnBeforeSummarize(h.BeforeSummarize)
	r.OnAfterSummarize(h.AfterSummarize)
}

// BeforeSummarize logs before a summarization round
func (h *LoggingHooks) BeforeSummarize(ctx context.Context, span []*types.Message) error {
	h.logger.Printf("[AgentCtx] Summarizing %d messages", len(span))
	return nil
}

// AfterSummarize logs after a summarization round
func (h *LoggingHooks) AfterSummarize(ctx context.Context, event *types.SummaryEvent) error {
	h.logger.Printf("[AgentCtx] Summarization complete: %d → %d tokens (%.1f%% reduction, %d messages summarized, strategy: %s, fallback: %t)",
		event.OriginalTokens, event.CompactedTokens, reductionPct(event), event.MessagesSummarized, event.Strategy, event.UsedFallback)
	return nil
}

// VerboseLoggingHooks provides detailed logging for debugging
type VerboseLoggingHooks struct {
	logger *log.Logger
}

// NewVerboseLoggingHooks creates verbose logging hooks
func NewVerboseLoggingHooks(logger *log.Logger) *VerboseLoggingHooks {
	return &VerboseLoggingHooks{logger: logger}
}

// Register attaches the hooks to r
func (h *VerboseLoggingHooks) Register(r *Registry) {
	r.OnBeforeSummarize(h.BeforeSummarize)
	r.OnAfterSummarize(h.AfterSummarize)
}

// BeforeSummarize logs each message in the span
func (h *VerboseLoggingHooks) BeforeSummarize(ctx context.Context, span []*types.Message) error {
	h.logger.Printf("[AgentCtx][VERBOSE] === Summarizing %d messages ===", len(span))
	for i, msg := range span {
		h.logger.Printf("[AgentCtx][VERBOSE] Message %d: role=%s blocks=%d", i, msg.Role, len(msg.Content))
	}
	return nil
}

// AfterSummarize logs detailed round results
func (h *VerboseLoggingHooks) AfterSummarize(ctx context.Context, event *types.SummaryEvent) error {
	h.logger.Printf("[AgentCtx][VERBOSE] === Summarization Complete ===")
	h.logger.Printf("[AgentCtx][VERBOSE] Strategy: %s (style %s)", event.Strategy, event.Style)
	h.logger.Printf("[AgentCtx][VERBOSE] Original tokens: %d", event.OriginalTokens)
	h.logger.Printf("[AgentCtx][VERBOSE] Compacted tokens: %d", event.CompactedTokens)
	h.logger.Printf("[AgentCtx][VERBOSE] Messages summarized: %d", event.MessagesSummarized)
	h.logger.Printf("[AgentCtx][VERBOSE] Fallback used: %t", event.UsedFallback)
	h.logger.Printf("[AgentCtx][VERBOSE] Duration: %v", event.Duration)

	if event.OriginalTokens > 0 {
		h.logger.Printf("[AgentCtx][VERBOSE] Reduction: %.1f%%", reductionPct(event))
	}
	return nil
}

// MetricsHooks collects metrics for monitoring
type MetricsHooks struct {
	OnMetric func(name string, value float64, tags map[string]string)
}

// NewMetricsHooks creates metrics collection hooks
func NewMetricsHooks(onMetric func(string, float64, map[string]string)) *MetricsHooks {
	return &MetricsHooks{OnMetric: onMetric}
}

// AfterSummarize records summarization metrics
func (h *MetricsHooks) AfterSummarize(ctx context.Context, event *types.SummaryEvent) error {
	tags := map[string]string{"strategy": event.Strategy, "style": event.Style}

	h.OnMetric("context.summarize.original_tokens", float64(event.OriginalTokens), tags)
	h.OnMetric("context.summarize.compacted_tokens", float64(event.CompactedTokens), tags)
	h.OnMetric("context.summarize.messages", float64(event.MessagesSummarized), tags)
	h.OnMetric("context.summarize.tokens_saved", float64(event.TokensSaved), tags)

	if event.UsedFallback {
		h.OnMetric("context.summarize.fallback", 1, tags)
	}
	if event.OriginalTokens > 0 {
		h.OnMetric("context.summarize.reduction_pct", reductionPct(event), tags)
	}
	return nil
}

func reductionPct(event *types.SummaryEvent) float64 {
	if event.OriginalTokens <= 0 {
		return 0
	}
	return float64(event.OriginalTokens-event.CompactedTokens) / float64(event.OriginalTokens) * 100
}
