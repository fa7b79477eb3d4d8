package compaction

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/youssefsiam38/agentctx/internal/testutil"
	"github.com/youssefsiam38/agentctx/types"
)

func assistant(text string) *types.Message {
	return types.NewTextMessage(types.RoleAssistant, text)
}

func user(text string) *types.Message {
	return types.NewTextMessage(types.RoleUser, text)
}

func TestScorerBaseScore(t *testing.T) {
	s := NewScorer(DefaultWeights())

	pinned := testutil.Assistant(10)
	pinned.IsPreserved = true

	summary := types.NewTextMessage(types.RoleSystem, "earlier context")
	summary.IsSummary = true

	tests := []struct {
		name       string
		msg        *types.Message
		bookmarked bool
		expected   float64
	}{
		{"bookmarked", testutil.Assistant(10), true, 1.0},
		{"pinned", pinned, false, 1.0},
		{"image", types.NewMessage(types.RoleUser, types.ImageBlock(&types.ImageSource{Type: "url", URL: "https://example.com/x.png"})), false, 0.85},
		{"user long", testutil.User(250), false, 0.9},
		{"user medium", testutil.User(60), false, 0.85},
		{"user short", testutil.User(10), false, 0.75},
		{"assistant code", assistant("Try this:\n```go\nfmt.Println(1)\n```"), false, 0.8},
		{"assistant error", assistant("The build FAILED on step two."), false, 0.8},
		{"assistant ack", assistant("Got it!"), false, 0.2},
		{"assistant ack okay", assistant("okay."), false, 0.2},
		{"assistant filler", assistant("thinking..."), false, 0.1},
		{"assistant tool short", assistant("calling the search tool"), false, 0.4},
		{"assistant tool long", assistant("calling the search tool " + testutil.TextOfLength(100)), false, 0.7},
		{"assistant tool_use block", types.NewMessage(types.RoleAssistant, types.ToolUseBlock("tu_1", "search", json.RawMessage(`{}`))), false, 0.4},
		{"assistant long", testutil.Assistant(150), false, 0.6},
		{"assistant default", assistant("Here is the answer you wanted."), false, 0.5},
		{"system summary", summary, false, 0.75},
		{"system with marker", types.NewTextMessage(types.RoleSystem, SummaryMarker+": replaces 3]"), false, 0.75},
		{"system default", types.NewTextMessage(types.RoleSystem, "be concise"), false, 0.5},
		{"nil", nil, false, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, s.BaseScore(tt.msg, tt.bookmarked), 1e-9)
		})
	}
}

func TestScorerCustomWeights(t *testing.T) {
	w := DefaultWeights()
	w.AssistantAck = 0.05
	w.UserMediumChars = 5
	s := NewScorer(w)

	assert.InDelta(t, 0.05, s.BaseScore(assistant("ok"), false), 1e-9)
	assert.InDelta(t, w.UserMedium, s.BaseScore(testutil.User(10), false), 1e-9)
	assert.Equal(t, w, s.Weights())
}

func TestScorerScoreAll(t *testing.T) {
	s := NewScorer(DefaultWeights())
	messages := []*types.Message{
		assistant("ok"),
		testutil.User(10),
		testutil.User(250),
		assistant("ok"),
	}

	scored := s.ScoreAll(messages, 2, NewIndexSet(0))
	require.Len(t, scored, 4)

	assert.InDelta(t, 1.0, scored[0].Score, 1e-9)
	assert.True(t, scored[0].Protected)

	assert.InDelta(t, 0.75, scored[1].Score, 1e-9)
	assert.False(t, scored[1].Protected)

	assert.InDelta(t, 1.0, scored[2].Score, 1e-9, "boost is capped at 1")
	assert.True(t, scored[2].Protected)

	assert.InDelta(t, 0.5, scored[3].Score, 1e-9)
	assert.True(t, scored[3].Protected)

	for _, sm := range scored {
		assert.GreaterOrEqual(t, sm.Score, 0.0)
		assert.LessOrEqual(t, sm.Score, 1.0)
	}
}

// pruneFixture returns six messages totalling 130 tokens:
//
//	0 user short      13 tokens  0.75
//	1 assistant ack   11 tokens  0.2
//	2 assistant long  48 tokens  0.6
//	3 user medium     25 tokens  0.85
//	4 user short      13 tokens  recent
//	5 assistant       20 tokens  recent
func pruneFixture() []*types.Message {
	return []*types.Message{
		testutil.User(10),
		assistant("ok"),
		testutil.Assistant(150),
		testutil.User(60),
		testutil.User(10),
		testutil.Assistant(40),
	}
}

func newTestPruner() *Pruner {
	return NewPruner(NewScorer(DefaultWeights()), NewTokenEstimator(0))
}

func TestPruneToBudgetUnderBudgetIsIdentity(t *testing.T) {
	messages := pruneFixture()
	res := newTestPruner().PruneToBudget(messages, 1000, 2, nil)

	require.Len(t, res.Messages, len(messages))
	assert.True(t, &res.Messages[0] == &messages[0], "the input slice is returned as-is")
	assert.Empty(t, res.Discarded)
	assert.Equal(t, 130, res.TokensBefore)
	assert.Equal(t, 130, res.TokensAfter)
	assert.True(t, res.BudgetMet)
}

func TestPruneToBudgetDropsLowestFirst(t *testing.T) {
	messages := pruneFixture()
	res := newTestPruner().PruneToBudget(messages, 80, 2, nil)

	assert.Equal(t, []int{1, 2}, res.Discarded)
	assert.Equal(t, []*types.Message{messages[0], messages[3], messages[4], messages[5]}, res.Messages)
	assert.Equal(t, 130, res.TokensBefore)
	assert.Equal(t, 71, res.TokensAfter)
	assert.Equal(t, 59, res.TokensFreed)
	assert.True(t, res.BudgetMet)
}

func TestPruneToBudgetHonorsBookmarks(t *testing.T) {
	messages := pruneFixture()
	res := newTestPruner().PruneToBudget(messages, 80, 2, NewIndexSet(1))

	assert.Equal(t, []int{0, 2}, res.Discarded)
	assert.Contains(t, res.Messages, messages[1])
	assert.Equal(t, 69, res.TokensAfter)
}

func TestPruneToBudgetUnreachable(t *testing.T) {
	messages := pruneFixture()
	res := newTestPruner().PruneToBudget(messages, 10, 2, nil)

	assert.Equal(t, []int{0, 1, 2, 3}, res.Discarded)
	assert.Equal(t, []*types.Message{messages[4], messages[5]}, res.Messages)
	assert.Equal(t, 33, res.TokensAfter)
	assert.False(t, res.BudgetMet)
}

func TestPruneToBudgetTiesKeepOriginalOrder(t *testing.T) {
	messages := []*types.Message{
		assistant("ok"),
		assistant("ok"),
		assistant("ok"),
	}
	res := newTestPruner().PruneToBudget(messages, 25, 0, nil)

	assert.Equal(t, []int{0}, res.Discarded)
	assert.True(t, res.BudgetMet)
}

func TestIsRedundant(t *testing.T) {
	history := []*types.Message{
		user("Please rename the config file."),
		assistant("Renamed config.yaml to settings.yaml."),
		user("Also update the README."),
		assistant("ok"),
	}

	tests := []struct {
		name      string
		candidate *types.Message
		recent    []*types.Message
		lookback  int
		expected  bool
	}{
		{"ack after ack", user("thanks!"), history, 3, true},
		{"repeat same role in window", user("Also update the README."), history, 3, true},
		{"repeat other role", assistant("Also update the README."), history, 3, false},
		{"repeat outside window", user("Please rename the config file."), history, 3, false},
		{"repeat inside wider window", user("Please rename the config file."), history, 4, true},
		{"new content", user("Now run the tests."), history, 3, false},
		{"zero lookback", user("thanks!"), history, 0, false},
		{"no history", user("thanks!"), nil, 3, false},
		{"nil candidate", nil, history, 3, false},
		{"empty text", types.NewMessage(types.RoleUser), history, 3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsRedundant(tt.candidate, tt.recent, tt.lookback))
		})
	}
}

func TestIndexSet(t *testing.T) {
	var empty IndexSet
	assert.False(t, empty.Has(0))
	assert.Empty(t, empty.Sorted())

	s := NewIndexSet(5, 1, 3)
	s.Add(1)
	assert.True(t, s.Has(3))
	assert.Equal(t, []int{1, 3, 5}, s.Sorted())
}
