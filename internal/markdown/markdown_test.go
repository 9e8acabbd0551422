package markdown

import (
	"reflect"
	"testing"
)

func TestRender_HeadingAndBullet(t *testing.T) {
	got := Render("### Title\n- **Item** rest")
	want := []Block{
		{Kind: BlockHeading, Text: "Title"},
		{Kind: BlockBullet, Spans: []Span{{Emphasis: true, Text: "Item"}, {Text: " rest"}}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v want %#v", got, want)
	}
}

func TestRender_PlainTextIsIdempotent(t *testing.T) {
	in := "first line\nsecond line"
	got := Render(in)
	want := []Block{
		{Kind: BlockParagraph, Spans: []Span{{Text: "first line"}}},
		{Kind: BlockParagraph, Spans: []Span{{Text: "second line"}}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v want %#v", got, want)
	}
}

func TestRender_BlankLineSeparator(t *testing.T) {
	got := Render("a\n\nb")
	if len(got) != 3 || got[1].Kind != BlockSeparator {
		t.Fatalf("expected separator middle block, got %#v", got)
	}
}

func TestRender_IndentedBullet(t *testing.T) {
	got := Render("  - punto")
	if len(got) != 1 || got[0].Kind != BlockBullet {
		t.Fatalf("trimmed bullet marker should still make a bullet, got %#v", got)
	}
	if !reflect.DeepEqual(got[0].Spans, []Span{{Text: "punto"}}) {
		t.Fatalf("unexpected spans %#v", got[0].Spans)
	}
}

func TestRender_HeadingNeedsSpaceAfterMarker(t *testing.T) {
	got := Render("###Title")
	if got[0].Kind != BlockParagraph {
		t.Fatalf("marker without space is a paragraph, got %#v", got[0])
	}
}

func TestTokenize_Emphasis(t *testing.T) {
	cases := []struct {
		in   string
		want []Span
	}{
		{"plain", []Span{{Text: "plain"}}},
		{"**bold**", []Span{{Emphasis: true, Text: "bold"}}},
		{"a **b** c **d**", []Span{{Text: "a "}, {Emphasis: true, Text: "b"}, {Text: " c "}, {Emphasis: true, Text: "d"}}},
	}
	for _, tc := range cases {
		if got := tokenize(tc.in); !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("tokenize(%q) = %#v, want %#v", tc.in, got, tc.want)
		}
	}
}

func TestTokenize_UnmatchedDelimiterStaysLiteral(t *testing.T) {
	got := tokenize("a **b")
	want := []Span{{Text: "a **b"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v want %#v", got, want)
	}
	// Matched pair followed by a dangling delimiter keeps the tail literal.
	got = tokenize("**x** then **tail")
	want = []Span{{Emphasis: true, Text: "x"}, {Text: " then **tail"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v want %#v", got, want)
	}
}
