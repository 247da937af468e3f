package markdown

import (
	"bytes"
	stdhtml "html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// TextProcessor turns user-written thread and reply bodies into markup that is
// safe to place in a card.
type TextProcessor struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
	plain  *bluemonday.Policy
}

func New() *TextProcessor {
	md := goldmark.New(
		goldmark.WithRendererOptions(html.WithHardWraps()),
		goldmark.WithExtensions(extension.Strikethrough, extension.Linkify),
	)

	policy := bluemonday.UGCPolicy()
	policy.RequireNoFollowOnLinks(true)
	policy.AddTargetBlankToFullyQualifiedLinks(true)

	return &TextProcessor{md: md, policy: policy, plain: bluemonday.StrictPolicy()}
}

// Render converts a markdown body to sanitized HTML. On a markdown failure the
// body is shown escaped as-is.
func (tp *TextProcessor) Render(body string) string {
	rendered, err := tp.renderText(body)
	if err != nil {
		return tp.policy.Sanitize(stdhtml.EscapeString(body))
	}
	return tp.sanitizeText(rendered)
}

// Snippet returns at most limit runes of the body as plain text, for list cards.
func (tp *TextProcessor) Snippet(body string, limit int) string {
	rendered, err := tp.renderText(body)
	if err != nil {
		rendered = body
	}
	text := strings.Join(strings.Fields(stdhtml.UnescapeString(tp.plain.Sanitize(rendered))), " ")
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:limit])) + "…"
}

func (tp *TextProcessor) renderText(text string) (string, error) {
	var buf bytes.Buffer
	if err := tp.md.Convert([]byte(text), &buf); err != nil {
		return text, err
	}
	return strings.TrimSpace(buf.String()), nil
}

func (tp *TextProcessor) sanitizeText(text string) string {
	return tp.policy.Sanitize(text)
}
