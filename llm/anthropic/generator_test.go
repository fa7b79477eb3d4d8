package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/youssefsiam38/agentctx/compaction"
	"github.com/youssefsiam38/agentctx/internal/testutil"
)

func sseEvent(w io.Writer, name, data string) {
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data)
}

func streamingServer(t *testing.T, chunks []string, captured *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/v1/messages") {
			http.NotFound(w, r)
			return
		}
		if captured != nil {
			body, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(body, captured)
		}

		w.Header().Set("Content-Type", "text/event-stream")
		sseEvent(w, "message_start", `{"type":"message_start","message":{"id":"msg_test","type":"message","role":"assistant","model":"claude-haiku-4-5","content":[],"stop_reason":null,"stop_sequence":null,"usage":{"input_tokens":12,"output_tokens":1}}}`)
		sseEvent(w, "content_block_start", `{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`)
		for _, chunk := range chunks {
			data, _ := json.Marshal(map[string]any{
				"type":  "content_block_delta",
				"index": 0,
				"delta": map[string]any{"type": "text_delta", "text": chunk},
			})
			sseEvent(w, "content_block_delta", string(data))
		}
		sseEvent(w, "content_block_stop", `{"type":"content_block_stop","index":0}`)
		sseEvent(w, "message_delta", `{"type":"message_delta","delta":{"stop_reason":"end_turn","stop_sequence":null},"usage":{"output_tokens":9}}`)
		sseEvent(w, "message_stop", `{"type":"message_stop"}`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(baseURL string) *anthropic.Client {
	client := anthropic.NewClient(
		option.WithAPIKey("test-key"),
		option.WithBaseURL(baseURL),
		option.WithMaxRetries(0),
	)
	return &client
}

func TestGeneratorStreamsSummary(t *testing.T) {
	var body map[string]any
	srv := streamingServer(t, []string{"The user ", "set up CI."}, &body)

	gen := NewGenerator(Config{Client: newTestClient(srv.URL)})
	text, err := gen.Generate(context.Background(), "Summarize this", 256)
	require.NoError(t, err)
	assert.Equal(t, "The user set up CI.", text)

	assert.Equal(t, DefaultModel, body["model"])
	assert.EqualValues(t, 256, body["max_tokens"])
	assert.Equal(t, true, body["stream"])
	assert.Contains(t, fmt.Sprint(body["messages"]), "Summarize this")
	assert.Contains(t, fmt.Sprint(body["system"]), "condense earlier parts")
}

func TestGeneratorDrivesManager(t *testing.T) {
	srv := streamingServer(t, []string{"Earlier the user and assistant discussed the fox."}, nil)
	gen := NewGenerator(Config{Client: newTestClient(srv.URL), Model: "claude-sonnet-4-5"})
	assert.Equal(t, "claude-sonnet-4-5", gen.Model())

	m, err := compaction.NewManager(&compaction.Config{
		Model:       "tiny",
		ModelLimits: compaction.ModelLimits{"tiny": 2000},
		Generator:   gen,
	})
	require.NoError(t, err)

	out, info := m.ManageContext(context.Background(), testutil.Conversation(50, 76))
	require.NotNil(t, info)
	assert.False(t, info.UsedFallback)
	assert.Contains(t, out[0].Text(), "discussed the fox.")
}

func TestGeneratorAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"type":"error","error":{"type":"invalid_request_error","message":"max_tokens too large"}}`)
	}))
	t.Cleanup(srv.Close)

	gen := NewGenerator(Config{Client: newTestClient(srv.URL)})
	_, err := gen.Generate(context.Background(), "Summarize this", 256)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSummarizationFailed)
}

func TestGeneratorWithoutClient(t *testing.T) {
	gen := NewGenerator(Config{})
	_, err := gen.Generate(context.Background(), "prompt", 10)
	assert.ErrorIs(t, err, ErrNoClient)

	summary := compaction.NewSummarizer(gen, 10, nil).Summarize(context.Background(), testutil.Conversation(2, 10), compaction.StyleBalanced)
	assert.True(t, summary.Fallback)
	assert.ErrorIs(t, summary.Err, ErrNoClient)
}
