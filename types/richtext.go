package types

import (
	"encoding/json"
	"strings"
)

// Annotations carries the styling flags on a rich text span.
type Annotations struct {
	Bold          bool   `json:"bold"`
	Italic        bool   `json:"italic"`
	Strikethrough bool   `json:"strikethrough"`
	Underline     bool   `json:"underline"`
	Code          bool   `json:"code"`
	Color         string `json:"color,omitempty"`
}

// Link is an inline hyperlink inside a text span.
type Link struct {
	URL string `json:"url"`
}

// TextContent is the payload of a plain text span.
type TextContent struct {
	Content string `json:"content"`
	Link    *Link  `json:"link,omitempty"`
}

// Equation is the payload of an inline LaTeX span.
type Equation struct {
	Expression string `json:"expression"`
}

// RichText is one span of Notion rich text. Type selects which payload field
// is populated; mention payloads are kept raw because their shape varies by
// mention kind.
type RichText struct {
	Type        string          `json:"type,omitempty"`
	Text        *TextContent    `json:"text,omitempty"`
	Mention     json.RawMessage `json:"mention,omitempty"`
	Equation    *Equation       `json:"equation,omitempty"`
	Annotations *Annotations    `json:"annotations,omitempty"`
	PlainText   string          `json:"plain_text,omitempty"`
	Href        string          `json:"href,omitempty"`
}

// NewText builds a plain text span suitable for create and update payloads.
func NewText(content string) RichText {
	return RichText{Type: "text", Text: &TextContent{Content: content}}
}

// Plain returns the span's rendered text, falling back to the text content
// when the API-provided plain_text is absent (locally constructed spans).
func (rt RichText) Plain() string {
	if rt.PlainText != "" {
		return rt.PlainText
	}
	if rt.Text != nil {
		return rt.Text.Content
	}
	return ""
}

// PlainText joins the rendered text of a rich text array.
func PlainText(spans []RichText) string {
	var b strings.Builder
	for _, s := range spans {
		b.WriteString(s.Plain())
	}
	return b.String()
}
