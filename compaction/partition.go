package compaction

import (
	"github.com/youssefsiam38/agentctx/types"
)

// MessagePartition categorizes message indices for summarization.
// Every index lands in exactly one category, checked in this order:
// recent, bookmarked, important, compactable. Messages completing a kept
// tool call are important.
type MessagePartition struct {
	// Recent messages are within the preserve-recent window at the tail.
	Recent []int

	// Bookmarked messages are pinned by index bookmark or IsPreserved.
	Bookmarked []int

	// Important messages carry code, errors or long user input.
	Important []int

	// Compactable messages are replaced by the summary.
	Compactable []int

	Stats PartitionStats
}

// PartitionStats contains token statistics for each partition.
type PartitionStats struct {
	RecentTokens      int
	BookmarkedTokens  int
	ImportantTokens   int
	CompactableTokens int
	TotalTokens       int
}

// Partitioner splits a conversation into keep and discard sets.
type Partitioner struct {
	estimator *TokenEstimator
}

// NewPartitioner creates a Partitioner.
func NewPartitioner(estimator *TokenEstimator) *Partitioner {
	return &Partitioner{estimator: estimator}
}

// Partition categorizes messages. The keep set is recent ∪ bookmarked ∪ important.
// A compactable message whose tool_use or tool_result has its counterpart in
// the keep set is promoted to important, so the pair is never split.
func (p *Partitioner) Partition(messages []*types.Message, preserveRecent int, bookmarks IndexSet) *MessagePartition {
	partition := &MessagePartition{
		Recent:      make([]int, 0),
		Bookmarked:  make([]int, 0),
		Important:   make([]int, 0),
		Compactable: make([]int, 0),
	}
	if len(messages) == 0 {
		return partition
	}

	important := IdentifyImportantMessages(messages, bookmarks)
	start := recentStart(len(messages), preserveRecent)

	categories := make([]category, len(messages))
	for i, msg := range messages {
		switch {
		case i >= start:
			categories[i] = categoryRecent
		case bookmarks.Has(i) || (msg != nil && msg.IsPreserved):
			categories[i] = categoryBookmarked
		case important.Has(i):
			categories[i] = categoryImportant
		default:
			categories[i] = categoryCompactable
		}
	}
	keepToolPairs(messages, categories)

	for i, msg := range messages {
		tokens := p.estimator.EstimateMessage(msg)
		partition.Stats.TotalTokens += tokens

		switch categories[i] {
		case categoryRecent:
			partition.Recent = append(partition.Recent, i)
			partition.Stats.RecentTokens += tokens
		case categoryBookmarked:
			partition.Bookmarked = append(partition.Bookmarked, i)
			partition.Stats.BookmarkedTokens += tokens
		case categoryImportant:
			partition.Important = append(partition.Important, i)
			partition.Stats.ImportantTokens += tokens
		default:
			partition.Compactable = append(partition.Compactable, i)
			partition.Stats.CompactableTokens += tokens
		}
	}

	return partition
}

type category int

const (
	categoryCompactable category = iota
	categoryRecent
	categoryBookmarked
	categoryImportant
)

// keepToolPairs promotes compactable messages to important until no kept
// tool_use or tool_result refers to a compactable counterpart.
func keepToolPairs(messages []*types.Message, categories []category) {
	for changed := true; changed; {
		changed = false

		keptUses := make(map[string]struct{})
		keptResults := make(map[string]struct{})
		for i, msg := range messages {
			if msg == nil || categories[i] == categoryCompactable {
				continue
			}
			for _, block := range msg.Content {
				switch block.Type {
				case types.ContentTypeToolUse:
					keptUses[block.ToolUseID] = struct{}{}
				case types.ContentTypeToolResult:
					keptResults[block.ToolResultID] = struct{}{}
				}
			}
		}

		for i, msg := range messages {
			if msg == nil || categories[i] != categoryCompactable {
				continue
			}
			for _, block := range msg.Content {
				_, useKept := keptResults[block.ToolUseID]
				_, resultKept := keptUses[block.ToolResultID]
				if (block.Type == types.ContentTypeToolUse && useKept) ||
					(block.Type == types.ContentTypeToolResult && resultKept) {
					categories[i] = categoryImportant
					changed = true
					break
				}
			}
		}
	}
}

// CanCompact returns true if there are messages eligible for compaction.
func (p *MessagePartition) CanCompact() bool {
	return len(p.Compactable) > 0
}

// Keep returns every retained index in ascending order.
func (p *MessagePartition) Keep() []int {
	keep := NewIndexSet(p.Recent...)
	for _, i := range p.Bookmarked {
		keep.Add(i)
	}
	for _, i := range p.Important {
		keep.Add(i)
	}
	return keep.Sorted()
}

// KeptTokens is the estimate for everything outside the compactable set.
func (p *MessagePartition) KeptTokens() int {
	return p.Stats.TotalTokens - p.Stats.CompactableTokens
}

// Select returns the messages at indices, in the order given.
func Select(messages []*types.Message, indices []int) []*types.Message {
	out := make([]*types.Message, 0, len(indices))
	for _, i := range indices {
		if i >= 0 && i < len(messages) {
			out = append(out, messages[i])
		}
	}
	return out
}
