// Package eventlog records summarization rounds for auditing.
//
// Events are written after the conversation has already been rewritten, so a
// recorder failure never affects the messages returned to the caller. The log
// is write-mostly: Manager state is not rebuilt from it.
//
// Wire a recorder into a Manager through its hook registry:
//
//	reg := hooks.NewRegistry()
//	reg.OnAfterSummarize(eventlog.Hook(pgxv5.New(pool), conversationID))
//	mgr, _ := compaction.NewManager(&compaction.Config{Hooks: reg, ...})
package eventlog

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/youssefsiam38/agentctx/hooks"
	"github.com/youssefsiam38/agentctx/types"
)

// ErrNilEvent is returned when Record is called without an event.
var ErrNilEvent = errors.New("eventlog: nil event")

// TableName is the table both SQL recorders write to.
const TableName = "agentctx_summary_events"

// SchemaStatements create the events table and its lookup index.
var SchemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS agentctx_summary_events (
		id                  UUID PRIMARY KEY,
		conversation_id     TEXT NOT NULL,
		strategy            TEXT NOT NULL,
		style               TEXT NOT NULL,
		original_tokens     INTEGER NOT NULL,
		compacted_tokens    INTEGER NOT NULL,
		messages_summarized INTEGER NOT NULL,
		tokens_saved        INTEGER NOT NULL,
		summary_content     TEXT NOT NULL,
		used_fallback       BOOLEAN NOT NULL DEFAULT FALSE,
		preserved_indices   BIGINT[] NOT NULL DEFAULT '{}',
		duration_ms         BIGINT NOT NULL DEFAULT 0,
		created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_agentctx_summary_events_conversation
		ON agentctx_summary_events (conversation_id, created_at DESC)`,
}

// Event is one recorded summarization round.
type Event struct {
	ID                 uuid.UUID
	ConversationID     string
	Strategy           string
	Style              string
	OriginalTokens     int
	CompactedTokens    int
	MessagesSummarized int
	TokensSaved        int
	SummaryContent     string
	UsedFallback       bool
	PreservedIndices   []int
	DurationMS         int64
	CreatedAt          time.Time
}

// Recorder persists events.
type Recorder interface {
	// Record stores event, assigning ID and CreatedAt when unset.
	Record(ctx context.Context, event *Event) error

	// History returns a conversation's events, newest first.
	History(ctx context.Context, conversationID string) ([]*Event, error)
}

// NewEvent converts a hook payload into an Event.
func NewEvent(conversationID string, e *types.SummaryEvent) *Event {
	return &Event{
		ID:                 uuid.New(),
		ConversationID:     conversationID,
		Strategy:           e.Strategy,
		Style:              e.Style,
		OriginalTokens:     e.OriginalTokens,
		CompactedTokens:    e.CompactedTokens,
		MessagesSummarized: e.MessagesSummarized,
		TokensSaved:        e.TokensSaved,
		SummaryContent:     e.SummaryContent,
		UsedFallback:       e.UsedFallback,
		PreservedIndices:   slices.Clone(e.PreservedIndices),
		DurationMS:         e.Duration.Milliseconds(),
	}
}

// Hook returns an after-summarize hook that records every round for conversationID.
func Hook(rec Recorder, conversationID string) hooks.AfterSummarizeHook {
	return func(ctx context.Context, e *types.SummaryEvent) error {
		return rec.Record(ctx, NewEvent(conversationID, e))
	}
}

// Int64s converts indices for SQL array parameters.
func Int64s(in []int) []int64 {
	out := make([]int64, len(in))
	for i, v := range in {
		out[i] = int64(v)
	}
	return out
}

// Ints converts scanned SQL array values back to indices.
func Ints(in []int64) []int {
	out := make([]int, len(in))
	for i, v := range in {
		out[i] = int(v)
	}
	return out
}

// MemoryRecorder keeps events in process memory. It is safe for concurrent use.
type MemoryRecorder struct {
	mu     sync.RWMutex
	events map[string][]*Event
	now    func() time.Time
}

// NewMemoryRecorder creates an empty MemoryRecorder.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{
		events: make(map[string][]*Event),
		now:    time.Now,
	}
}

// Record stores a copy of event.
func (r *MemoryRecorder) Record(ctx context.Context, event *Event) error {
	if event == nil {
		return ErrNilEvent
	}
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = r.now()
	}

	stored := *event
	stored.PreservedIndices = slices.Clone(event.PreservedIndices)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[event.ConversationID] = append(r.events[event.ConversationID], &stored)
	return nil
}

// History returns copies of the conversation's events, newest first.
func (r *MemoryRecorder) History(ctx context.Context, conversationID string) ([]*Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	events := r.events[conversationID]
	out := make([]*Event, 0, len(events))
	for i := len(events) - 1; i >= 0; i-- {
		e := *events[i]
		out = append(out, &e)
	}
	return out, nil
}
