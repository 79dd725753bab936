package model

import "slices"

// affectedBy reports whether a change anchored at at can shift p: both share
// a root, and p runs through the element holding at.
func (p Position) affectedBy(at Position) bool {
	if p.root != at.root || len(at.path) == 0 {
		return false
	}
	d := len(at.path) - 1
	if len(p.path) < d+1 {
		return false
	}
	return slices.Equal(p.path[:d], at.path[:d])
}

// TransformedByInsertion returns p after howMany offset units were inserted
// at at. A position equal to at moves after the inserted content.
func (p Position) TransformedByInsertion(at Position, howMany int) Position {
	return p.transformedByInsertion(at, howMany, true)
}

func (p Position) transformedByInsertion(at Position, howMany int, sticky bool) Position {
	if !p.affectedBy(at) {
		return p
	}
	d := len(at.path) - 1
	// Stickiness only decides ties at the insertion depth. A deeper position
	// with p[d] == at[d] lives in the node that was pushed forward.
	shift := p.path[d] > at.path[d] ||
		(p.path[d] == at.path[d] && (sticky || len(p.path) > d+1))
	if !shift {
		return p
	}
	path := slices.Clone(p.path)
	path[d] += howMany
	return newPosition(p.root, path)
}

// TransformedByDeletion returns p after howMany offset units starting at at
// were removed. The second result is false when p was inside the removed
// content, in which case the returned position is unchanged.
func (p Position) TransformedByDeletion(at Position, howMany int) (Position, bool) {
	if !p.affectedBy(at) {
		return p, true
	}
	d := len(at.path) - 1
	v, start, end := p.path[d], at.path[d], at.path[d]+howMany
	flat := len(p.path) == d+1
	switch {
	case v < start, flat && v == start:
		return p, true
	case v < end:
		return p, false
	}
	path := slices.Clone(p.path)
	path[d] -= howMany
	return newPosition(p.root, path), true
}

// CombinedWith translates p, which lies inside content starting at source,
// to the same location relative to target.
func (p Position) CombinedWith(source, target Position) Position {
	i := len(source.path) - 1
	path := slices.Clone(target.path)
	path = append(path, p.path[i+1:]...)
	path[len(target.path)-1] += p.path[i] - source.path[i]
	return newPosition(target.root, path)
}

// TransformedByChange returns p as it is after change c. The second result is
// false when p was removed; the position then collapses to the removal start.
func (p Position) TransformedByChange(c Change) (Position, bool) {
	switch c := c.(type) {
	case InsertChange:
		return p.TransformedByInsertion(c.Range.start, c.Range.flatSize()), true
	case RemoveChange:
		out, ok := p.TransformedByDeletion(c.Range.start, c.Range.flatSize())
		if !ok {
			return c.Range.start, false
		}
		return out, true
	case MoveChange:
		n := c.Range.flatSize()
		out, ok := p.TransformedByDeletion(c.SourcePosition, n)
		if !ok {
			return p.CombinedWith(c.SourcePosition, c.Range.start), true
		}
		return out.TransformedByInsertion(c.Range.start, n), true
	default:
		return p, true
	}
}

// TransformedByChange returns r as it is after change c.
func (r Range) TransformedByChange(c Change) Range {
	switch c := c.(type) {
	case InsertChange:
		n := c.Range.flatSize()
		return newRange(
			r.start.TransformedByInsertion(c.Range.start, n),
			r.end.TransformedByInsertion(c.Range.start, n),
		)
	case RemoveChange:
		start, _ := r.start.TransformedByChange(c)
		end, _ := r.end.TransformedByChange(c)
		return newRange(start, end)
	case MoveChange:
		return r.transformedByMove(c)
	default:
		return r
	}
}

func (r Range) transformedByMove(c MoveChange) Range {
	n := c.Range.flatSize()
	if n <= 0 {
		return r
	}
	source, target := c.SourcePosition, c.Range.start
	span := newRange(source, source.ShiftedBy(n))

	if span.holdsForMove(r) {
		return newRange(r.start.CombinedWith(source, target), r.end.CombinedWith(source, target))
	}

	start, startKept := r.start.TransformedByDeletion(source, n)
	if startKept {
		start = start.TransformedByInsertion(target, n)
	} else {
		// The start was moved away while the end stayed. Keep the range on
		// the moved content when nothing separates it from the rest.
		survivor := source.TransformedByInsertion(target, n)
		if c.Range.end.IsTouching(survivor) {
			start = r.start.CombinedWith(source, target)
		} else {
			start = survivor
		}
	}

	end, endKept := r.end.TransformedByDeletion(source, n)
	if endKept {
		end = end.TransformedByInsertion(target, n)
	} else {
		survivor := source.transformedByInsertion(target, n, false)
		if survivor.IsTouching(c.Range.start) {
			end = r.end.CombinedWith(source, target)
		} else {
			end = survivor
		}
	}

	return newRange(start, end)
}

// holdsForMove reports whether the moved span r carries all of other. A
// collapsed range must lie strictly inside.
func (r Range) holdsForMove(other Range) bool {
	if r.Root() != other.Root() {
		return false
	}
	if other.IsCollapsed() {
		return r.ContainsPosition(other.start)
	}
	return r.start.Compare(other.start) != After && other.end.Compare(r.end) != After
}
