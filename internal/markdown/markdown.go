// Package markdown formats the bold-span subset of markdown used by INSEEK
// answers into typed text segments for display.
package markdown

import "regexp"

// SegmentKind distinguishes plain from bold text.
type SegmentKind string

const (
	// Plain is unformatted text.
	Plain SegmentKind = "plain"
	// Bold is text that appeared between ** delimiters.
	Bold SegmentKind = "bold"
)

// Segment is one run of text with a single formatting kind. Concatenating all
// segment texts in order reproduces the input with the ** delimiters removed.
type Segment struct {
	Kind SegmentKind
	Text string
}

// boldPattern matches non-nested, non-overlapping **...** spans. The interior
// excludes '*' so an unterminated opener never captures across a later pair.
var boldPattern = regexp.MustCompile(`\*\*([^*]+)\*\*`)

// Parse scans text left to right and splits it into plain and bold segments.
// An empty input yields nil. Unmatched ** sequences are kept as literal plain
// text.
func Parse(text string) []Segment {
	if text == "" {
		return nil
	}

	var segments []Segment
	last := 0
	for _, m := range boldPattern.FindAllStringSubmatchIndex(text, -1) {
		if m[0] > last {
			segments = append(segments, Segment{Kind: Plain, Text: text[last:m[0]]})
		}
		segments = append(segments, Segment{Kind: Bold, Text: text[m[2]:m[3]]})
		last = m[1]
	}
	if last < len(text) {
		segments = append(segments, Segment{Kind: Plain, Text: text[last:]})
	}
	return segments
}

// Join concatenates all segment texts in order, producing the de-marked text.
func Join(segments []Segment) string {
	var out []byte
	for _, s := range segments {
		out = append(out, s.Text...)
	}
	return string(out)
}
