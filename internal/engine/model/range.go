package model

import "fmt"

// Range is a contiguous selection between two positions of one root.
// Start never follows End.
type Range struct {
	start Position
	end   Position
}

// NewRange creates a range. Reversed boundaries are swapped; boundaries in
// different roots are rejected.
func NewRange(start, end Position) (Range, error) {
	switch start.Compare(end) {
	case Different:
		return Range{}, fmt.Errorf("range %s..%s: %w", start, end, ErrCrossRoot)
	case After:
		start, end = end, start
	}
	return Range{start: start, end: end}, nil
}

// newRange builds a range from transformed boundaries, swapping them when needed.
func newRange(start, end Position) Range {
	if start.Compare(end) == After {
		start, end = end, start
	}
	return Range{start: start, end: end}
}

// RangeFromElement returns the range spanning the whole content of e.
func RangeFromElement(e *Element) (Range, error) {
	start, err := PositionFromParentAndOffset(e, 0)
	if err != nil {
		return Range{}, err
	}
	return Range{start: start, end: start.ShiftedBy(e.MaxOffset())}, nil
}

// RangeFromParentsAndOffsets creates a range from two parent/offset pairs.
func RangeFromParentsAndOffsets(startParent *Element, startOffset int, endParent *Element, endOffset int) (Range, error) {
	start, err := PositionFromParentAndOffset(startParent, startOffset)
	if err != nil {
		return Range{}, fmt.Errorf("range start: %w", err)
	}
	end, err := PositionFromParentAndOffset(endParent, endOffset)
	if err != nil {
		return Range{}, fmt.Errorf("range end: %w", err)
	}
	return NewRange(start, end)
}

// RangeFromPositionAndShift creates a flat range starting at pos and
// spanning shift offsets.
func RangeFromPositionAndShift(pos Position, shift int) (Range, error) {
	if pos.Depth() == 0 {
		return Range{}, fmt.Errorf("range from empty position: %w", ErrInvalidPath)
	}
	end, err := NewPosition(pos.root, pos.ShiftedBy(shift).path)
	if err != nil {
		return Range{}, fmt.Errorf("range shift %d: %w", shift, err)
	}
	return NewRange(pos, end)
}

// RangeFromRange returns a copy of r.
func RangeFromRange(r Range) Range {
	return Range{start: r.start, end: r.end}
}

// Start returns the start boundary.
func (r Range) Start() Position { return r.start }

// End returns the end boundary.
func (r Range) End() Position { return r.end }

// Root returns the root shared by both boundaries.
func (r Range) Root() *Element { return r.start.root }

// IsCollapsed reports whether start and end are equal.
func (r Range) IsCollapsed() bool {
	return r.start.IsEqual(r.end)
}

// IsFlat reports whether both boundaries share the same parent.
func (r Range) IsFlat() bool {
	if len(r.start.path) != len(r.end.path) {
		return false
	}
	return comparePaths(r.start.path[:len(r.start.path)-1], r.end.path[:len(r.end.path)-1]) == Same
}

// ContainsPosition reports whether p lies strictly between the boundaries.
func (r Range) ContainsPosition(p Position) bool {
	return p.IsAfter(r.start) && p.IsBefore(r.end)
}

// ContainsRange reports whether other lies within r's boundaries and is not
// equal to r.
func (r Range) ContainsRange(other Range) bool {
	if r.start.Compare(other.start) == Different {
		return false
	}
	inside := r.start.Compare(other.start) != After && other.end.Compare(r.end) != After
	return inside && !r.IsEqual(other)
}

// IsEqual reports whether both boundaries are equal.
func (r Range) IsEqual(other Range) bool {
	return r.start.IsEqual(other.start) && r.end.IsEqual(other.end)
}

// IsIntersecting reports whether the ranges share more than a boundary.
func (r Range) IsIntersecting(other Range) bool {
	return r.start.IsBefore(other.end) && other.start.IsBefore(r.end)
}

// Intersection returns the common part of two ranges.
func (r Range) Intersection(other Range) (Range, bool) {
	if !r.IsIntersecting(other) {
		return Range{}, false
	}
	start, end := r.start, r.end
	if other.start.IsAfter(start) {
		start = other.start
	}
	if other.end.IsBefore(end) {
		end = other.end
	}
	return Range{start: start, end: end}, true
}

// Difference returns the parts of r not covered by other, in document order.
func (r Range) Difference(other Range) []Range {
	if !r.IsIntersecting(other) {
		return []Range{r}
	}
	var out []Range
	if r.start.IsBefore(other.start) {
		out = append(out, Range{start: r.start, end: other.start})
	}
	if other.end.IsBefore(r.end) {
		out = append(out, Range{start: other.end, end: r.end})
	}
	return out
}

// String returns a debug representation.
func (r Range) String() string {
	return fmt.Sprintf("%s..%s", r.start, r.end)
}

// flatSize returns the offset length of a flat range.
func (r Range) flatSize() int {
	return r.end.Offset() - r.start.Offset()
}
