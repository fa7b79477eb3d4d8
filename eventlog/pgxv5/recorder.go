// Package pgxv5 provides a pgx/v5 event recorder.
//
// Usage:
//
//	pool, _ := pgxpool.New(ctx, databaseURL)
//	rec := pgxv5.New(pool)
//	if err := rec.Migrate(ctx); err != nil {
//	    return err
//	}
//	registry.OnAfterSummarize(eventlog.Hook(rec, conversationID))
package pgxv5

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/youssefsiam38/agentctx/eventlog"
)

// Recorder implements eventlog.Recorder on a pgx connection pool.
type Recorder struct {
	pool *pgxpool.Pool
}

var _ eventlog.Recorder = (*Recorder)(nil)

// executor is satisfied by both *pgxpool.Pool and pgx.Tx.
type executor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// New creates a recorder using pool.
func New(pool *pgxpool.Pool) *Recorder {
	return &Recorder{pool: pool}
}

// getExecutor returns the transaction from context if present, otherwise the pool.
func (r *Recorder) getExecutor(ctx context.Context) executor {
	if tx, ok := eventlog.TxFromContext[pgx.Tx](ctx); ok && tx != nil {
		return tx
	}
	return r.pool
}

// Migrate creates the events table if it does not exist.
func (r *Recorder) Migrate(ctx context.Context) error {
	for _, stmt := range eventlog.SchemaStatements {
		if _, err := r.getExecutor(ctx).Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate summary events: %w", err)
		}
	}
	return nil
}

// Record saves a summary event.
func (r *Recorder) Record(ctx context.Context, event *eventlog.Event) error {
	if event == nil {
		return eventlog.ErrNilEvent
	}
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}

	query := `
		INSERT INTO agentctx_summary_events
			(id, conversation_id, strategy, style, original_tokens, compacted_tokens,
			 messages_summarized, tokens_saved, summary_content, used_fallback,
			 preserved_indices, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW())
		RETURNING created_at
	`

	err := r.getExecutor(ctx).QueryRow(ctx, query,
		event.ID,
		event.ConversationID,
		event.Strategy,
		event.Style,
		event.OriginalTokens,
		event.CompactedTokens,
		event.MessagesSummarized,
		event.TokensSaved,
		event.SummaryContent,
		event.UsedFallback,
		eventlog.Int64s(event.PreservedIndices),
		event.DurationMS,
	).Scan(&event.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save summary event: %w", err)
	}

	return nil
}

// History retrieves a conversation's summary events, newest first.
func (r *Recorder) History(ctx context.Context, conversationID string) ([]*eventlog.Event, error) {
	query := `
		SELECT id, conversation_id, strategy, style, original_tokens, compacted_tokens,
		       messages_summarized, tokens_saved, summary_content, used_fallback,
		       preserved_indices, duration_ms, created_at
		FROM agentctx_summary_events
		WHERE conversation_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.getExecutor(ctx).Query(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query summary events: %w", err)
	}
	defer rows.Close()

	var events []*eventlog.Event
	for rows.Next() {
		var event eventlog.Event
		var preserved []int64

		err := rows.Scan(
			&event.ID,
			&event.ConversationID,
			&event.Strategy,
			&event.Style,
			&event.OriginalTokens,
			&event.CompactedTokens,
			&event.MessagesSummarized,
			&event.TokensSaved,
			&event.SummaryContent,
			&event.UsedFallback,
			&preserved,
			&event.DurationMS,
			&event.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan summary event: %w", err)
		}

		event.PreservedIndices = eventlog.Ints(preserved)
		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate summary events: %w", err)
	}

	return events, nil
}
