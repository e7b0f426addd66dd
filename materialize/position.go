// Package materialize turns the flat capture log a pmvm.Match
// produces back into a tree of values, and knows how to print that
// tree for humans (cmd/pmvmdump uses it for exactly that).
package materialize

import (
	"fmt"
	"sort"
	"unicode/utf8"
)

// Range is a half-open byte range into the subject, the smallest
// representation that still lets every Value report where it came
// from (adapted from go/range.go and go/pos.go, which
// carried three near-identical copies of this type across the
// package — collapsed here to one).
type Range struct{ Start, End int }

func NewRange(start, end int) Range {
	return Range{Start: start, End: end}
}

func (r Range) String() string {
	if r.Start == r.End {
		return fmt.Sprintf("%d", r.Start)
	}
	return fmt.Sprintf("%d..%d", r.Start, r.End)
}

func (r Range) Str(subject []byte) string {
	return string(subject[r.Start:r.End])
}

func (r Range) Contains(other Range) bool {
	return other.Start >= r.Start && other.End <= r.End
}

// Location is a 1-based line/column position, plus the byte cursor it
// was computed from.
type Location struct {
	Line   int32
	Column int32
	Cursor int
}

// Span is a Range expressed as a pair of Locations.
type Span struct {
	Start, End Location
}

func (s Span) String() string {
	sl, sc := int(s.Start.Line), int(s.Start.Column)
	el, ec := int(s.End.Line), int(s.End.Column)
	if sl == el && sl == 1 {
		if sc == ec {
			return fmt.Sprintf("%d", sc)
		}
		return fmt.Sprintf("%d..%d", sc, ec)
	}
	if sl == el && sc == ec {
		return fmt.Sprintf("%d:%d", sl, sc)
	}
	return fmt.Sprintf("%d:%d..%d:%d", sl, sc, el, ec)
}

// LineIndex converts byte cursors to line/column positions in O(log
// lines) after an O(n) build, exactly as pos.go does.
type LineIndex struct {
	input     []byte
	lineStart []int
}

func NewLineIndex(input []byte) *LineIndex {
	lineStart := make([]int, 1, 64)
	lineStart[0] = 0
	for i, b := range input {
		if b == '\n' {
			lineStart = append(lineStart, i+1)
		}
	}
	return &LineIndex{input: input, lineStart: lineStart}
}

func (li *LineIndex) Span(r Range) Span {
	return Span{Start: li.LocationAt(r.Start), End: li.LocationAt(r.End)}
}

func (li *LineIndex) LocationAt(cursor int) Location {
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(li.input) {
		cursor = len(li.input)
	}
	lineIdx := sort.Search(len(li.lineStart), func(i int) bool {
		return li.lineStart[i] > cursor
	}) - 1
	if lineIdx < 0 {
		lineIdx = 0
	}
	lineStart := li.lineStart[lineIdx]
	col := int32(utf8.RuneCount(li.input[lineStart:cursor])) + 1
	return Location{Line: int32(lineIdx + 1), Column: col, Cursor: cursor}
}
