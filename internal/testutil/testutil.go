// Package testutil provides test utilities for agentctx
package testutil

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/youssefsiam38/agentctx/types"
)

// TestDB wraps a PostgreSQL connection pool for testing
type TestDB struct {
	Pool *pgxpool.Pool
}

// NewTestDB creates a test database connection from DATABASE_URL env var.
// The test is skipped if DATABASE_URL is not set.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	dbURL := DatabaseURL(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		t.Fatalf("Failed to ping database: %v", err)
	}

	return &TestDB{Pool: pool}
}

// Close closes the database connection
func (db *TestDB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

// CleanConversation removes a conversation's summary events. Tests use unique
// conversation IDs so packages can share one database.
func (db *TestDB) CleanConversation(ctx context.Context, conversationID string) error {
	_, err := db.Pool.Exec(ctx, "DELETE FROM agentctx_summary_events WHERE conversation_id = $1", conversationID)
	if err != nil {
		return fmt.Errorf("failed to clean conversation %s: %w", conversationID, err)
	}
	return nil
}

// DatabaseURL returns DATABASE_URL or skips the test.
func DatabaseURL(t *testing.T) string {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("Skipping integration test: DATABASE_URL not set")
	}
	return dbURL
}

// Filler is neutral prose with no code, error or tool vocabulary, so it
// scores at the plain default for its role.
const Filler = "the quick brown fox jumps over the lazy dog while the river keeps flowing past "

// TextOfLength returns neutral text of exactly n characters.
func TextOfLength(n int) string {
	if n <= 0 {
		return ""
	}
	s := strings.Repeat(Filler, n/len(Filler)+1)
	return s[:n]
}

// User returns a user text message of n characters.
func User(n int) *types.Message {
	return types.NewTextMessage(types.RoleUser, TextOfLength(n))
}

// Assistant returns an assistant text message of n characters.
func Assistant(n int) *types.Message {
	return types.NewTextMessage(types.RoleAssistant, TextOfLength(n))
}

// Conversation returns count messages alternating user and assistant,
// starting with user, each with n characters of text.
func Conversation(count, n int) []*types.Message {
	messages := make([]*types.Message, count)
	for i := range messages {
		if i%2 == 0 {
			messages[i] = User(n)
		} else {
			messages[i] = Assistant(n)
		}
	}
	return messages
}
