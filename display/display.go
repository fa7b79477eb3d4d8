// Package display prepares a managed conversation for people to read:
// redundant chatter is dropped and message text is rendered from markdown to
// sanitized HTML. Nothing here changes what is sent to the model.
package display

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/youssefsiam38/agentctx/compaction"
	"github.com/youssefsiam38/agentctx/types"
)

var (
	md = goldmark.New(
		goldmark.WithExtensions(
			extension.GFM, // tables, strikethrough, autolinks, task lists
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			gmhtml.WithHardWraps(),
			gmhtml.WithUnsafe(), // raw HTML is removed by the sanitizer below
		),
	)

	policy = bluemonday.UGCPolicy()
)

// Dedup drops messages that IsRedundant reports against the messages kept
// so far. The input is not modified.
func Dedup(messages []*types.Message, lookback int) []*types.Message {
	if lookback <= 0 {
		lookback = compaction.DefaultRedundancyLookback
	}

	kept := make([]*types.Message, 0, len(messages))
	for _, msg := range messages {
		if msg == nil || compaction.IsRedundant(msg, kept, lookback) {
			continue
		}
		kept = append(kept, msg)
	}
	return kept
}

// Markdown renders markdown to sanitized HTML. It returns "" for empty input
// or when conversion fails.
func Markdown(content string) string {
	if content == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := md.Convert([]byte(content), &buf); err != nil {
		return ""
	}
	return policy.Sanitize(buf.String())
}

// RenderHTML renders one message body. Text blocks go through Markdown; tool
// calls, tool results and images get plain escaped placeholders.
func RenderHTML(msg *types.Message) string {
	if msg == nil {
		return ""
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		switch block.Type {
		case types.ContentTypeText:
			sb.WriteString(Markdown(block.Text))
		case types.ContentTypeImage:
			sb.WriteString(`<p class="image">[image]</p>`)
		case types.ContentTypeToolUse:
			fmt.Fprintf(&sb, `<pre class="tool-use">%s(%s)</pre>`,
				html.EscapeString(block.ToolName), html.EscapeString(string(block.ToolInput)))
		case types.ContentTypeToolResult:
			class := "tool-result"
			if block.IsError {
				class = "tool-result tool-error"
			}
			fmt.Fprintf(&sb, `<pre class="%s">%s</pre>`, class, html.EscapeString(block.ToolContent))
		}
	}
	return sb.String()
}

// RenderConversation renders messages as a sequence of role-tagged divs,
// marking summary messages so they can be styled apart.
func RenderConversation(messages []*types.Message, lookback int) string {
	var sb strings.Builder
	for _, msg := range Dedup(messages, lookback) {
		class := "message " + string(msg.Role)
		if msg.IsSummary {
			class += " summary"
		}
		fmt.Fprintf(&sb, "<div class=\"%s\" id=\"msg-%s\">%s</div>\n",
			class, html.EscapeString(msg.ID), RenderHTML(msg))
	}
	return sb.String()
}
