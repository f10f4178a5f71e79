// Package tags splits narrative intelligence text into literal runs and
// bracketed reference tags such as "[Team Alpha.pdf, Chunk 3]".
//
// A reference is an opening bracket, a label containing at least one comma,
// and a closing bracket on the same line. The label may not itself contain
// brackets. Bracketed text without a comma and unterminated brackets are
// literal text.
package tags

import (
	"iter"
	"slices"
	"strings"
)

// Kind distinguishes literal text from reference tags.
type Kind int

const (
	Literal Kind = iota
	Reference
)

func (k Kind) String() string {
	if k == Reference {
		return "reference"
	}
	return "literal"
}

// Segment is one piece of parsed text. For a Reference, Text holds the label
// with the surrounding brackets removed.
type Segment struct {
	Kind Kind
	Text string
}

// Raw returns the segment in its original textual form.
func (s Segment) Raw() string {
	if s.Kind == Reference {
		return "[" + s.Text + "]"
	}
	return s.Text
}

// Parts splits a reference label on commas and trims each part.
func (s Segment) Parts() []string {
	parts := strings.Split(s.Text, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// Parse returns a lazy sequence over the segments of text. Each iteration
// rescans text from the start, so the sequence can be ranged over any number
// of times with identical results. Adjacent literal text is yielded as a
// single segment and empty literals are never yielded.
func Parse(text string) iter.Seq[Segment] {
	return func(yield func(Segment) bool) {
		literalStart := 0
		i := 0

		for i < len(text) {
			if text[i] != '[' {
				i++
				continue
			}

			end, ok := matchReference(text, i)
			if !ok {
				i++
				continue
			}

			if i > literalStart {
				if !yield(Segment{Kind: Literal, Text: text[literalStart:i]}) {
					return
				}
			}
			if !yield(Segment{Kind: Reference, Text: text[i+1 : end]}) {
				return
			}

			i = end + 1
			literalStart = i
		}

		if literalStart < len(text) {
			yield(Segment{Kind: Literal, Text: text[literalStart:]})
		}
	}
}

// Segments collects the parsed segments of text.
func Segments(text string) []Segment {
	return slices.Collect(Parse(text))
}

// References returns the labels of every reference tag in text, in order.
func References(text string) []string {
	var labels []string
	for seg := range Parse(text) {
		if seg.Kind == Reference {
			labels = append(labels, seg.Text)
		}
	}
	return labels
}

// Reconstruct joins segments back into text, restoring reference brackets.
func Reconstruct(segments iter.Seq[Segment]) string {
	var b strings.Builder
	for seg := range segments {
		b.WriteString(seg.Raw())
	}
	return b.String()
}

// matchReference reports the index of the closing bracket of a reference tag
// opening at text[open].
func matchReference(text string, open int) (int, bool) {
	comma := false
	for j := open + 1; j < len(text); j++ {
		switch text[j] {
		case ']':
			return j, comma
		case '[', '\n', '\r':
			return 0, false
		case ',':
			comma = true
		}
	}
	return 0, false
}
