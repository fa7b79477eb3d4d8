package display

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/youssefsiam38/agentctx/compaction"
	"github.com/youssefsiam38/agentctx/types"
)

func TestDedup(t *testing.T) {
	messages := []*types.Message{
		types.NewTextMessage(types.RoleUser, "Deploy the staging branch."),
		types.NewTextMessage(types.RoleAssistant, "ok"),
		types.NewTextMessage(types.RoleUser, "thanks"),
		types.NewTextMessage(types.RoleUser, "Check the logs."),
		types.NewTextMessage(types.RoleUser, "Check the logs."),
		nil,
		types.NewTextMessage(types.RoleAssistant, "The logs are clean."),
	}

	got := Dedup(messages, 3)
	assert.Equal(t, []*types.Message{messages[0], messages[1], messages[3], messages[6]}, got)
	assert.Len(t, messages, 7, "input is untouched")
}

func TestDedupDefaultLookback(t *testing.T) {
	a := types.NewTextMessage(types.RoleUser, "same")
	b := types.NewTextMessage(types.RoleUser, "same")
	assert.Equal(t, []*types.Message{a}, Dedup([]*types.Message{a, b}, 0))
}

func TestMarkdown(t *testing.T) {
	out := Markdown("**bold** and ~~gone~~\n\n| a | b |\n|---|---|\n| 1 | 2 |")
	assert.Contains(t, out, "<strong>bold</strong>")
	assert.Contains(t, out, "<del>gone</del>")
	assert.Contains(t, out, "<table>")

	assert.Equal(t, "", Markdown(""))
}

func TestMarkdownSanitizes(t *testing.T) {
	out := Markdown("hello <script>alert(1)</script> <a href=\"javascript:alert(1)\">x</a> <img src=x onerror=alert(1)>")
	assert.NotContains(t, out, "<script")
	assert.NotContains(t, out, "javascript:")
	assert.NotContains(t, out, "onerror")
	assert.Contains(t, out, "hello")
}

func TestRenderHTML(t *testing.T) {
	msg := types.NewMessage(types.RoleAssistant,
		types.TextBlock("Run:\n```sh\nmake test\n```"),
		types.ToolUseBlock("tu_1", "bash", json.RawMessage(`{"cmd":"<rm>"}`)),
		types.ToolResultBlock("tu_1", "exit 1 & failed", true),
		types.ImageBlock(&types.ImageSource{Type: "url", URL: "https://example.com/a.png"}),
	)

	out := RenderHTML(msg)
	assert.Contains(t, out, "<pre><code")
	assert.Contains(t, out, "make test")
	assert.Contains(t, out, `<pre class="tool-use">bash({&#34;cmd&#34;:&#34;&lt;rm&gt;&#34;})</pre>`)
	assert.Contains(t, out, `<pre class="tool-result tool-error">exit 1 &amp; failed</pre>`)
	assert.Contains(t, out, "[image]")

	assert.Equal(t, "", RenderHTML(nil))
}

func TestRenderConversation(t *testing.T) {
	summary := compaction.BuildSummaryMessage("They planned the release.", 8, 120)
	messages := []*types.Message{
		summary,
		types.NewTextMessage(types.RoleUser, "Ship it."),
		types.NewTextMessage(types.RoleUser, "Ship it."),
	}

	out := RenderConversation(messages, 3)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.NotEmpty(t, lines)

	assert.Equal(t, 2, strings.Count(out, `<div class="message`))
	assert.Contains(t, out, `<div class="message assistant summary" id="msg-`+summary.ID+`">`)
	assert.Contains(t, out, `<div class="message user" id="msg-`)
	assert.Contains(t, out, "They planned the release.")
}
