package compaction

import (
	"cmp"
	"regexp"
	"slices"
	"strings"

	"github.com/youssefsiam38/agentctx/types"
)

// CodeFenceMarker marks a fenced code block in message text.
const CodeFenceMarker = "```"

var (
	ackPattern = regexp.MustCompile(`(?i)^(ok(ay)?|k|thanks?|thank you|thx|ty|got it|sure|yes|yep|no|nope|alright|great|cool|nice|perfect|understood|sounds good|will do|noted|done)[\s.!]*$`)

	fillerWords = []string{"thinking", "processing", "working", "wait"}
	toolWords   = []string{"tool", "calling"}
	errorWords  = []string{"error", "failed"}
)

// IndexSet is a set of message positions.
type IndexSet map[int]struct{}

// NewIndexSet builds a set from indices.
func NewIndexSet(indices ...int) IndexSet {
	s := make(IndexSet, len(indices))
	for _, i := range indices {
		s[i] = struct{}{}
	}
	return s
}

// Has reports membership. A nil set is empty.
func (s IndexSet) Has(i int) bool {
	_, ok := s[i]
	return ok
}

// Add inserts i.
func (s IndexSet) Add(i int) {
	s[i] = struct{}{}
}

// Sorted returns the members in ascending order.
func (s IndexSet) Sorted() []int {
	out := make([]int, 0, len(s))
	for i := range s {
		out = append(out, i)
	}
	slices.Sort(out)
	return out
}

// ScoredMessage is a message's importance and whether it may be discarded.
type ScoredMessage struct {
	Index     int
	Score     float64
	Tokens    int
	Protected bool
}

// Scorer rates messages in [0,1] for discard priority.
type Scorer struct {
	weights Weights
}

// NewScorer creates a scorer with the given policy.
func NewScorer(w Weights) *Scorer {
	return &Scorer{weights: w}
}

// Weights returns the scoring policy.
func (s *Scorer) Weights() Weights {
	return s.weights
}

// BaseScore scores a message before the recency boost. The first matching
// rule wins.
func (s *Scorer) BaseScore(msg *types.Message, bookmarked bool) float64 {
	w := s.weights

	if msg == nil {
		return w.Fallback
	}
	if bookmarked || msg.IsPreserved {
		return w.Bookmarked
	}
	if msg.HasContentType(types.ContentTypeImage) {
		return w.Image
	}

	text := msg.Text()
	switch msg.Role {
	case types.RoleUser:
		switch {
		case len(text) > w.UserLongChars:
			return w.UserLong
		case len(text) > w.UserMediumChars:
			return w.UserMedium
		default:
			return w.UserShort
		}

	case types.RoleAssistant:
		return s.assistantScore(msg, text)

	case types.RoleSystem:
		if msg.IsSummary || strings.Contains(text, SummaryMarker) {
			return w.SystemSummary
		}
		return w.SystemDefault
	}

	return w.Fallback
}

func (s *Scorer) assistantScore(msg *types.Message, text string) float64 {
	w := s.weights
	lower := strings.ToLower(text)

	switch {
	case strings.Contains(text, CodeFenceMarker):
		return w.AssistantCode
	case containsAny(lower, errorWords):
		return w.AssistantError
	case isAcknowledgment(text):
		return w.AssistantAck
	case len(text) < w.AssistantFillerChars && containsAny(lower, fillerWords):
		return w.AssistantFiller
	case msg.HasContentType(types.ContentTypeToolUse) || containsAny(lower, toolWords):
		if len(text) < w.AssistantToolChars {
			return w.AssistantToolShort
		}
		return w.AssistantToolLong
	case len(text) > w.AssistantLongChars:
		return w.AssistantLong
	default:
		return w.AssistantDefault
	}
}

// ScoreAll scores every message, boosting and protecting the last
// preserveRecent positions and protecting bookmarks.
func (s *Scorer) ScoreAll(messages []*types.Message, preserveRecent int, bookmarks IndexSet) []ScoredMessage {
	recentStart := recentStart(len(messages), preserveRecent)

	scored := make([]ScoredMessage, len(messages))
	for i, msg := range messages {
		bookmarked := bookmarks.Has(i) || (msg != nil && msg.IsPreserved)
		score := s.BaseScore(msg, bookmarked)
		recent := i >= recentStart
		if recent {
			score = min(1.0, score+s.weights.RecencyBoost)
		}
		scored[i] = ScoredMessage{
			Index:     i,
			Score:     score,
			Protected: bookmarked || recent,
		}
	}
	return scored
}

// PruneResult describes the outcome of PruneToBudget.
type PruneResult struct {
	// Messages is the retained list in original order.
	Messages []*types.Message

	// Discarded holds the original indices that were dropped, ascending.
	Discarded []int

	TokensBefore int
	TokensAfter  int
	TokensFreed  int

	// BudgetMet is false when even discarding every unprotected message
	// could not reach the target.
	BudgetMet bool
}

// Pruner drops the least important messages until a token target is met.
type Pruner struct {
	scorer    *Scorer
	estimator *TokenEstimator
}

// NewPruner creates a pruner.
func NewPruner(scorer *Scorer, estimator *TokenEstimator) *Pruner {
	return &Pruner{scorer: scorer, estimator: estimator}
}

// PruneToBudget discards the lowest-scored unprotected messages until the
// estimate is at or under targetTokens. When the input already fits, the
// input slice itself is returned. Recent and bookmarked messages are never
// dropped, so the budget may remain unmet; check BudgetMet.
func (p *Pruner) PruneToBudget(messages []*types.Message, targetTokens, preserveRecent int, bookmarks IndexSet) *PruneResult {
	tokens := make([]int, len(messages))
	total := 0
	for i, msg := range messages {
		tokens[i] = p.estimator.EstimateMessage(msg)
		total += tokens[i]
	}

	if total <= targetTokens {
		return &PruneResult{
			Messages:     messages,
			TokensBefore: total,
			TokensAfter:  total,
			BudgetMet:    true,
		}
	}

	scored := p.scorer.ScoreAll(messages, preserveRecent, bookmarks)
	candidates := make([]ScoredMessage, 0, len(scored))
	for _, sm := range scored {
		if !sm.Protected {
			sm.Tokens = tokens[sm.Index]
			candidates = append(candidates, sm)
		}
	}
	slices.SortStableFunc(candidates, func(a, b ScoredMessage) int {
		return cmp.Compare(a.Score, b.Score)
	})

	discard := make(IndexSet)
	remaining := total
	for _, c := range candidates {
		if remaining <= targetTokens {
			break
		}
		discard.Add(c.Index)
		remaining -= c.Tokens
	}

	kept := make([]*types.Message, 0, len(messages)-len(discard))
	for i, msg := range messages {
		if !discard.Has(i) {
			kept = append(kept, msg)
		}
	}

	return &PruneResult{
		Messages:     kept,
		Discarded:    discard.Sorted(),
		TokensBefore: total,
		TokensAfter:  remaining,
		TokensFreed:  total - remaining,
		BudgetMet:    remaining <= targetTokens,
	}
}

// IsRedundant reports whether candidate adds nothing over the last lookback
// messages of recent: an acknowledgment right after another acknowledgment,
// or an exact repeat of a message from the same role. It is meant for
// display dedup and plays no part in pruning.
func IsRedundant(candidate *types.Message, recent []*types.Message, lookback int) bool {
	if candidate == nil || lookback <= 0 || len(recent) == 0 {
		return false
	}
	text := candidate.Text()
	if text == "" {
		return false
	}

	if prev := recent[len(recent)-1]; prev != nil && isAcknowledgment(text) && isAcknowledgment(prev.Text()) {
		return true
	}

	start := max(0, len(recent)-lookback)
	for _, msg := range recent[start:] {
		if msg != nil && msg.Role == candidate.Role && msg.Text() == text {
			return true
		}
	}
	return false
}

func isAcknowledgment(text string) bool {
	return ackPattern.MatchString(strings.TrimSpace(text))
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// recentStart returns the first index inside the recency window.
func recentStart(n, preserveRecent int) int {
	if preserveRecent <= 0 {
		return n
	}
	return max(0, n-preserveRecent)
}
