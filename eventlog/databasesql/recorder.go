// Package databasesql provides a database/sql event recorder for PostgreSQL.
// Array columns are encoded with lib/pq, so open the database with the
// "postgres" driver registered by github.com/lib/pq.
package databasesql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/youssefsiam38/agentctx/eventlog"
)

// Recorder implements eventlog.Recorder using database/sql.
type Recorder struct {
	db *sql.DB
}

var _ eventlog.Recorder = (*Recorder)(nil)

// executor is satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New creates a recorder using db.
func New(db *sql.DB) *Recorder {
	return &Recorder{db: db}
}

// getExecutor returns the transaction from context if present, otherwise the database.
func (r *Recorder) getExecutor(ctx context.Context) executor {
	if tx, ok := eventlog.TxFromContext[*sql.Tx](ctx); ok && tx != nil {
		return tx
	}
	return r.db
}

// Migrate creates the events table if it does not exist.
func (r *Recorder) Migrate(ctx context.Context) error {
	for _, stmt := range eventlog.SchemaStatements {
		if _, err := r.getExecutor(ctx).ExecContext(ctx, stmt); err != nil {
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

	// Use pq.Array for PostgreSQL array parameter
	err := r.getExecutor(ctx).QueryRowContext(ctx, query,
		event.ID.String(),
		event.ConversationID,
		event.Strategy,
		event.Style,
		event.OriginalTokens,
		event.CompactedTokens,
		event.MessagesSummarized,
		event.TokensSaved,
		event.SummaryContent,
		event.UsedFallback,
		pq.Array(eventlog.Int64s(event.PreservedIndices)),
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

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query summary events: %w", err)
	}
	defer rows.Close()

	var events []*eventlog.Event
	for rows.Next() {
		var event eventlog.Event
		var id string
		var preserved pq.Int64Array

		err := rows.Scan(
			&id,
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

		event.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("failed to parse summary event id: %w", err)
		}
		event.PreservedIndices = eventlog.Ints(preserved)
		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate summary events: %w", err)
	}

	return events, nil
}
