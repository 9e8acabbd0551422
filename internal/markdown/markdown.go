// Package markdown turns assistant reply text into structured display
// blocks. It understands the small subset the bot actually emits: `### `
// headings, `- ` bullets and `**bold**` emphasis. Rendering is a pure
// function; feeding already-plain text through it yields one paragraph per
// non-blank line, unchanged by repeated application.
package markdown

import "strings"

const (
	headingMarker  = "### "
	bulletMarker   = "- "
	emphasisMarker = "**"
)

// BlockKind enumerates the block shapes a reply line can render to.
type BlockKind string

const (
	BlockSeparator BlockKind = "separator"
	BlockHeading   BlockKind = "heading"
	BlockBullet    BlockKind = "bullet"
	BlockParagraph BlockKind = "paragraph"
)

// Span is a run of text, plain or emphasized.
type Span struct {
	Emphasis bool   `json:"emphasis,omitempty"`
	Text     string `json:"text"`
}

// Block is one rendered line. Headings carry Text; bullets and paragraphs
// carry Spans; separators carry neither.
type Block struct {
	Kind  BlockKind `json:"kind"`
	Text  string    `json:"text,omitempty"`
	Spans []Span    `json:"spans,omitempty"`
}

// Render splits text into lines and classifies each one.
func Render(text string) []Block {
	lines := strings.Split(text, "\n")
	blocks := make([]Block, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			blocks = append(blocks, Block{Kind: BlockSeparator})
		case strings.HasPrefix(line, headingMarker):
			blocks = append(blocks, Block{Kind: BlockHeading, Text: strings.TrimPrefix(line, headingMarker)})
		case strings.HasPrefix(trimmed, bulletMarker):
			blocks = append(blocks, Block{Kind: BlockBullet, Spans: tokenize(strings.TrimPrefix(trimmed, bulletMarker))})
		default:
			blocks = append(blocks, Block{Kind: BlockParagraph, Spans: tokenize(line)})
		}
	}
	return blocks
}

// tokenize splits a line on **...** pairs into alternating plain and
// emphasis spans. A delimiter with no closing partner is kept literally
// inside a plain span, so malformed markup still renders all of its text.
func tokenize(s string) []Span {
	var spans []Span
	for s != "" {
		open := strings.Index(s, emphasisMarker)
		if open < 0 {
			spans = append(spans, Span{Text: s})
			break
		}
		end := strings.Index(s[open+len(emphasisMarker):], emphasisMarker)
		if end < 0 {
			spans = append(spans, Span{Text: s})
			break
		}
		if open > 0 {
			spans = append(spans, Span{Text: s[:open]})
		}
		start := open + len(emphasisMarker)
		spans = append(spans, Span{Emphasis: true, Text: s[start : start+end]})
		s = s[start+end+len(emphasisMarker):]
	}
	return spans
}
