package tags_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/alphadoc/internal/tags"
)

func lit(s string) tags.Segment { return tags.Segment{Kind: tags.Literal, Text: s} }
func ref(s string) tags.Segment { return tags.Segment{Kind: tags.Reference, Text: s} }

func TestSegments(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []tags.Segment
	}{
		{"empty", "", nil},
		{"plain text", "no tags here", []tags.Segment{lit("no tags here")}},
		{
			"single reference",
			"Risk noted [contract.pdf, Chunk 2] in section four.",
			[]tags.Segment{lit("Risk noted "), ref("contract.pdf, Chunk 2"), lit(" in section four.")},
		},
		{
			"reference only",
			"[a, b]",
			[]tags.Segment{ref("a, b")},
		},
		{
			"adjacent references",
			"[a, b][c, d]",
			[]tags.Segment{ref("a, b"), ref("c, d")},
		},
		{
			"brackets without comma stay literal",
			"see [appendix] and [Doc 1, Chunk 0]",
			[]tags.Segment{lit("see [appendix] and "), ref("Doc 1, Chunk 0")},
		},
		{
			"unterminated bracket",
			"trailing [Doc 1, Chunk 0 and more",
			[]tags.Segment{lit("trailing [Doc 1, Chunk 0 and more")},
		},
		{
			"nested opening bracket restarts match",
			"[[x, y]]",
			[]tags.Segment{lit("["), ref("x, y"), lit("]")},
		},
		{
			"newline breaks a tag",
			"[a,\nb] then [c, d]",
			[]tags.Segment{lit("[a,\nb] then "), ref("c, d")},
		},
		{
			"multibyte text",
			"Überblick [Vertrag.pdf, Abschnitt 3] – fertig",
			[]tags.Segment{lit("Überblick "), ref("Vertrag.pdf, Abschnitt 3"), lit(" – fertig")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tags.Segments(tt.input))
		})
	}
}

func TestParseIsRestartable(t *testing.T) {
	seq := tags.Parse("alpha [a, b] beta [gamma] delta [c, d]")

	first := collect(seq)
	second := collect(seq)

	require.Len(t, first, 4)
	assert.Equal(t, first, second)
}

func TestParseStopsEarly(t *testing.T) {
	var seen []tags.Segment
	for seg := range tags.Parse("one [a, b] two [c, d] three") {
		seen = append(seen, seg)
		if seg.Kind == tags.Reference {
			break
		}
	}

	assert.Equal(t, []tags.Segment{lit("one "), ref("a, b")}, seen)
}

func TestReferences(t *testing.T) {
	got := tags.References("[a, b] plain [skip] [c,d]")
	assert.Equal(t, []string{"a, b", "c,d"}, got)
}

func TestSegmentParts(t *testing.T) {
	assert.Equal(t, []string{"contract.pdf", "Chunk 2"}, ref("contract.pdf ,  Chunk 2").Parts())
}

func FuzzParseRoundTrip(f *testing.F) {
	seeds := []string{
		"",
		"plain",
		"[a, b]",
		"x [a] y [b, c] z",
		"[[[,]]]",
		"[,",
		"],[",
		"line one [a,\nb]",
	}
	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, input string) {
		segments := tags.Segments(input)

		if got := tags.Reconstruct(tags.Parse(input)); got != input {
			t.Fatalf("round trip mismatch: got %q, want %q", got, input)
		}

		for i, seg := range segments {
			switch seg.Kind {
			case tags.Reference:
				if !strings.Contains(seg.Text, ",") {
					t.Fatalf("reference without comma: %q", seg.Text)
				}
				if strings.ContainsAny(seg.Text, "[]\n\r") {
					t.Fatalf("reference label contains delimiter: %q", seg.Text)
				}
			case tags.Literal:
				if seg.Text == "" {
					t.Fatalf("empty literal at %d", i)
				}
				if i > 0 && segments[i-1].Kind == tags.Literal {
					t.Fatalf("adjacent literals at %d", i)
				}
			}
		}
	})
}

func collect(seq func(func(tags.Segment) bool)) []tags.Segment {
	var out []tags.Segment
	for seg := range seq {
		out = append(out, seg)
	}
	return out
}
