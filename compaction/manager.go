package compaction

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/youssefsiam38/agentctx/hooks"
	"github.com/youssefsiam38/agentctx/types"
)

// UsageStatistics accumulates over the life of a Manager until reset.
type UsageStatistics struct {
	Rounds                  int
	TotalMessagesSummarized int
	TotalTokensSaved        int
}

// Info describes what a summarization call did.
type Info struct {
	Strategy StrategyName
	Forced   bool

	MessagesSummarized int
	MessagesKept       int
	TokensBefore       int
	TokensAfter        int
	TokensSaved        int
	UsageBefore        float64
	UsageAfter         float64

	// UsedFallback is set when the collaborator failed and the rule-based
	// summary was used instead.
	UsedFallback bool

	// OverThreshold is set when the result is still at or above the
	// strategy threshold because everything left is protected.
	OverThreshold bool

	// Reason explains a forced call that summarized nothing.
	Reason string
}

// String renders a one-line description for display.
func (i *Info) String() string {
	if i == nil {
		return ""
	}
	if i.MessagesSummarized == 0 {
		return fmt.Sprintf("Nothing summarized: %s", i.Reason)
	}
	s := fmt.Sprintf("Summarized %d messages into 1 (kept %d), saved ~%d tokens; usage %.1f%% → %.1f%%",
		i.MessagesSummarized, i.MessagesKept, i.TokensSaved, i.UsageBefore, i.UsageAfter)
	if i.UsedFallback {
		s += " [fallback summary]"
	}
	if i.OverThreshold {
		s += " [still over threshold]"
	}
	return s
}

// Snapshot is a read-only view computed fresh by GetStats.
type Snapshot struct {
	Usage

	MessageCount    int
	Strategy        StrategyConfig
	Bookmarks       []int
	Statistics      UsageStatistics
	ShouldSummarize bool

	// RequestTokens is TotalTokens plus the output reservation: the budget
	// the next request needs.
	RequestTokens int

	RollingSummaryTokens int

	RecentCount      int
	BookmarkedCount  int
	ImportantCount   int
	CompactableCount int
}

// Manager owns one conversation's strategy, bookmarks, rolling summary and
// statistics, and drives the tracker, partitioner and summarizer on each call.
//
// A Manager is not safe for concurrent use. Use one per conversation.
type Manager struct {
	config *Config
	logger Logger
	hooks  *hooks.Registry

	estimator   *TokenEstimator
	tracker     *ContextTracker
	pruner      *Pruner
	partitioner *Partitioner
	summarizer  *Summarizer

	strategy       StrategyConfig
	bookmarks      IndexSet
	rollingSummary string
	stats          UsageStatistics
}

// NewManager creates a Manager. If config is nil, DefaultConfig is used.
func NewManager(config *Config) (*Manager, error) {
	if config == nil {
		config = DefaultConfig()
	} else {
		config.ApplyDefaults()
	}

	if err := config.Validate(); err != nil {
		return nil, WrapError("NewManager", err)
	}

	estimator := NewTokenEstimator(config.OutputReservation)
	scorer := NewScorer(*config.Weights)

	return &Manager{
		config:      config,
		logger:      config.Logger,
		hooks:       config.Hooks,
		estimator:   estimator,
		tracker:     NewContextTracker(config.Model, config.ModelLimits, estimator),
		pruner:      NewPruner(scorer, estimator),
		partitioner: NewPartitioner(estimator),
		summarizer:  NewSummarizer(config.Generator, config.SummaryMaxTokens, config.Logger),
		strategy:    strategies[config.Strategy],
		bookmarks:   make(IndexSet),
	}, nil
}

// ManageContext summarizes older messages when usage crosses the strategy
// threshold. It returns the input unchanged and a nil Info when nothing was
// done. The call may block on the summarization collaborator.
func (m *Manager) ManageContext(ctx context.Context, messages []*types.Message, opts ...RequestOption) ([]*types.Message, *Info) {
	out, info, _ := m.run(ctx, messages, resolveOptions(opts), m.strategy, false)
	return out, info
}

// ForceSummarize summarizes regardless of usage, keeping the last
// preserveRecent messages (a negative value keeps the current strategy's
// window). The active strategy is restored before returning. The returned
// Info is never nil.
func (m *Manager) ForceSummarize(ctx context.Context, messages []*types.Message, preserveRecent int, opts ...RequestOption) ([]*types.Message, *Info) {
	prior := m.strategy
	defer func() { m.strategy = prior }()

	forced := strategies[StrategyAggressive]
	forced.Threshold = 0
	forced.PreserveRecent = prior.PreserveRecent
	if preserveRecent >= 0 {
		forced.PreserveRecent = preserveRecent
	}
	forced.Label = "Forced"
	m.strategy = forced

	o := resolveOptions(opts)
	o.hasPreserve = false

	out, info, reason := m.run(ctx, messages, o, forced, true)
	if info == nil {
		usage := m.tracker.CalculateUsage(messages, o.system, o.tools)
		info = &Info{
			Strategy:     forced.Name,
			Forced:       true,
			MessagesKept: len(messages),
			TokensBefore: usage.TotalTokens,
			TokensAfter:  usage.TotalTokens,
			UsageBefore:  usage.UsagePercent,
			UsageAfter:   usage.UsagePercent,
			Reason:       reason,
		}
	}
	return out, info
}

func (m *Manager) run(ctx context.Context, messages []*types.Message, o requestOptions, strategy StrategyConfig, forced bool) ([]*types.Message, *Info, string) {
	if len(messages) == 0 {
		return messages, nil, "no messages"
	}

	usage := m.tracker.CalculateUsage(messages, o.system, o.tools)
	if !forced {
		if !strategy.AutoTriggers() {
			return messages, nil, "manual strategy"
		}
		if !m.tracker.ShouldSummarize(usage.TotalTokens, strategy.Threshold) {
			m.logger.Debug("context below threshold",
				"total_tokens", usage.TotalTokens,
				"max_tokens", usage.MaxTokens,
				"threshold", strategy.Threshold,
			)
			return messages, nil, "below threshold"
		}
	}

	start := time.Now()

	preserveRecent := strategy.PreserveRecent
	if o.hasPreserve {
		preserveRecent = o.preserveRecent
	}

	partition := m.partitioner.Partition(messages, preserveRecent, m.bookmarks)
	if !partition.CanCompact() {
		m.logger.Info("no messages eligible for summarization",
			"messages", len(messages),
			"recent", len(partition.Recent),
			"bookmarked", len(partition.Bookmarked),
			"important", len(partition.Important),
		)
		return messages, nil, "every message is protected"
	}

	span := Select(messages, partition.Compactable)
	if err := m.hooks.TriggerBeforeSummarize(ctx, span); err != nil {
		m.logger.Warn("before-summarize hook failed", "error", err)
	}

	summary := m.summarizer.Summarize(ctx, span, strategy.Style)

	if m.rollingSummary != "" {
		m.rollingSummary += "\n\n"
	}
	m.rollingSummary += summary.Text

	probe := BuildSummaryMessage(summary.Text, len(span), 0)
	saved := max(0, partition.Stats.CompactableTokens-m.estimator.EstimateMessage(probe))
	summaryMsg := BuildSummaryMessage(summary.Text, len(span), saved)

	keep := partition.Keep()
	out := make([]*types.Message, 0, len(keep)+1)
	out = append(out, summaryMsg)
	out = append(out, Select(messages, keep)...)

	m.stats.Rounds++
	m.stats.TotalMessagesSummarized += len(span)
	m.stats.TotalTokensSaved += saved

	after := m.tracker.CalculateUsage(out, o.system, o.tools)
	info := &Info{
		Strategy:           strategy.Name,
		Forced:             forced,
		MessagesSummarized: len(span),
		MessagesKept:       len(keep),
		TokensBefore:       usage.TotalTokens,
		TokensAfter:        after.TotalTokens,
		TokensSaved:        saved,
		UsageBefore:        usage.UsagePercent,
		UsageAfter:         after.UsagePercent,
		UsedFallback:       summary.Fallback,
		OverThreshold:      !forced && m.tracker.ShouldSummarize(after.TotalTokens, strategy.Threshold),
	}

	event := &types.SummaryEvent{
		Strategy:           string(strategy.Name),
		Style:              string(strategy.Style),
		OriginalTokens:     usage.TotalTokens,
		CompactedTokens:    after.TotalTokens,
		MessagesSummarized: len(span),
		TokensSaved:        saved,
		SummaryContent:     summary.Text,
		UsedFallback:       summary.Fallback,
		PreservedIndices:   keep,
		Duration:           time.Since(start),
	}
	if err := m.hooks.TriggerAfterSummarize(ctx, event); err != nil {
		m.logger.Warn("after-summarize hook failed", "error", err)
	}

	m.logger.Info("summarization complete",
		"strategy", strategy.Name,
		"forced", forced,
		"messages_summarized", len(span),
		"messages_kept", len(keep),
		"tokens_before", usage.TotalTokens,
		"tokens_after", after.TotalTokens,
		"tokens_saved", saved,
		"fallback", summary.Fallback,
		"duration_ms", event.Duration.Milliseconds(),
	)
	if info.OverThreshold {
		m.logger.Warn("context still over threshold after summarization",
			"tokens_after", after.TotalTokens,
			"threshold", strategy.Threshold,
		)
	}

	return out, info, ""
}

// PruneToBudget drops low-importance messages without summarizing them,
// honoring the manager's bookmarks and the strategy's recent window unless
// overridden.
func (m *Manager) PruneToBudget(messages []*types.Message, targetTokens int, opts ...RequestOption) *PruneResult {
	o := resolveOptions(opts)
	preserveRecent := m.strategy.PreserveRecent
	if o.hasPreserve {
		preserveRecent = o.preserveRecent
	}
	return m.pruner.PruneToBudget(messages, targetTokens, preserveRecent, m.bookmarks)
}

// GetStats returns usage and management statistics, computed fresh each call.
func (m *Manager) GetStats(messages []*types.Message, opts ...RequestOption) *Snapshot {
	o := resolveOptions(opts)
	usage := m.tracker.CalculateUsage(messages, o.system, o.tools)

	preserveRecent := m.strategy.PreserveRecent
	if o.hasPreserve {
		preserveRecent = o.preserveRecent
	}
	partition := m.partitioner.Partition(messages, preserveRecent, m.bookmarks)

	return &Snapshot{
		Usage:                usage,
		MessageCount:         len(messages),
		Strategy:             m.strategy,
		Bookmarks:            m.bookmarks.Sorted(),
		Statistics:           m.stats,
		ShouldSummarize:      m.strategy.AutoTriggers() && m.tracker.ShouldSummarize(usage.TotalTokens, m.strategy.Threshold),
		RequestTokens:        m.estimator.EstimateRequest(messages, o.system, o.tools),
		RollingSummaryTokens: m.estimator.EstimateText(m.rollingSummary),
		RecentCount:          len(partition.Recent),
		BookmarkedCount:      len(partition.Bookmarked),
		ImportantCount:       len(partition.Important),
		CompactableCount:     len(partition.Compactable),
	}
}

// Breakdown yields per-message token estimates for diagnostics.
func (m *Manager) Breakdown(messages []*types.Message) iter.Seq[MessageTokens] {
	return m.tracker.PerMessageBreakdown(messages)
}

// SetStrategy switches strategy. Unknown names are logged and ignored.
func (m *Manager) SetStrategy(name string) bool {
	cfg, ok := LookupStrategy(name)
	if !ok {
		m.logger.Warn("ignoring unknown strategy", "strategy", name, "current", m.strategy.Name)
		return false
	}
	m.strategy = cfg
	return true
}

// Strategy returns the active strategy.
func (m *Manager) Strategy() StrategyConfig {
	return m.strategy
}

// Bookmark marks index as never-summarize. Negative indices are rejected.
// Bookmarks are positional: after a summarization round the same index may
// refer to a different message. Use Message.IsPreserved for a stable pin.
func (m *Manager) Bookmark(index int) bool {
	if index < 0 {
		m.logger.Warn("ignoring negative bookmark index", "index", index)
		return false
	}
	m.bookmarks.Add(index)
	return true
}

// Unbookmark removes a bookmark. It reports whether one was present.
func (m *Manager) Unbookmark(index int) bool {
	if !m.bookmarks.Has(index) {
		return false
	}
	delete(m.bookmarks, index)
	return true
}

// ListBookmarks returns bookmarked indices in ascending order.
func (m *Manager) ListBookmarks() []int {
	return m.bookmarks.Sorted()
}

// ClearBookmarks removes every bookmark.
func (m *Manager) ClearBookmarks() {
	m.bookmarks = make(IndexSet)
}

// RollingSummary returns every summary produced so far, blank-line separated.
func (m *Manager) RollingSummary() string {
	return m.rollingSummary
}

// ClearRollingSummary discards the accumulated summary.
func (m *Manager) ClearRollingSummary() {
	m.rollingSummary = ""
}

// Statistics returns the accumulated counters.
func (m *Manager) Statistics() UsageStatistics {
	return m.stats
}

// ResetStatistics zeroes the counters.
func (m *Manager) ResetStatistics() {
	m.stats = UsageStatistics{}
}

// Tracker returns the manager's context tracker.
func (m *Manager) Tracker() *ContextTracker {
	return m.tracker
}

// Estimator returns the manager's token estimator.
func (m *Manager) Estimator() *TokenEstimator {
	return m.estimator
}
