package model

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Relation is the result of comparing two positions.
type Relation int

const (
	// Before means the first position precedes the second.
	Before Relation = iota - 1
	// Same means both positions address the same location.
	Same
	// After means the first position follows the second.
	After
	// Different means the positions have different roots and cannot be ordered.
	Different
)

// String returns the relation name.
func (r Relation) String() string {
	switch r {
	case Before:
		return "before"
	case Same:
		return "same"
	case After:
		return "after"
	case Different:
		return "different"
	default:
		return "unknown"
	}
}

// Position is a location in a tree: a root element plus a path of offsets.
// Every entry but the last enters the element starting at that offset; the
// last entry is an offset inside the element reached.
//
// Position is an immutable value.
type Position struct {
	root *Element
	path []int
}

// NewPosition creates a position and checks that it resolves in the current tree.
func NewPosition(root *Element, path []int) (Position, error) {
	p := Position{root: root, path: slices.Clone(path)}
	if err := p.validate(); err != nil {
		return Position{}, err
	}
	return p, nil
}

// PositionFromParentAndOffset creates a position at offset inside parent.
func PositionFromParentAndOffset(parent *Element, offset int) (Position, error) {
	if parent == nil {
		return Position{}, ErrNilRoot
	}
	root := RootElement(parent)
	path := append(NodePath(parent), offset)
	return NewPosition(root, path)
}

// PositionBefore returns the position right before n in its parent.
func PositionBefore(n Node) (Position, error) {
	if n.Parent() == nil {
		return Position{}, fmt.Errorf("position before root: %w", ErrInvalidPath)
	}
	return PositionFromParentAndOffset(n.Parent(), StartOffset(n))
}

// PositionAfter returns the position right after n in its parent.
func PositionAfter(n Node) (Position, error) {
	if n.Parent() == nil {
		return Position{}, fmt.Errorf("position after root: %w", ErrInvalidPath)
	}
	return PositionFromParentAndOffset(n.Parent(), StartOffset(n)+n.OffsetSize())
}

// newPosition builds a position without validation. Positions produced by
// change replay track intended continuity and are not checked against the tree.
func newPosition(root *Element, path []int) Position {
	return Position{root: root, path: path}
}

func (p Position) validate() error {
	if p.root == nil {
		return ErrNilRoot
	}
	if len(p.path) == 0 {
		return fmt.Errorf("empty path: %w", ErrInvalidPath)
	}
	cur := p.root
	for i, offset := range p.path {
		if offset < 0 {
			return fmt.Errorf("path %v entry %d is negative: %w", p.path, i, ErrInvalidPath)
		}
		if offset > cur.MaxOffset() {
			return fmt.Errorf("path %v entry %d: offset %d of %d: %w", p.path, i, offset, cur.MaxOffset(), ErrOffsetOutOfRange)
		}
		if i == len(p.path)-1 {
			break
		}
		next, ok := cur.childElementAt(offset)
		if !ok {
			return fmt.Errorf("path %v entry %d does not enter an element: %w", p.path, i, ErrInvalidPath)
		}
		cur = next
	}
	return nil
}

// IsZero reports whether p is the zero value.
func (p Position) IsZero() bool {
	return p.root == nil && p.path == nil
}

// Root returns the root element.
func (p Position) Root() *Element {
	return p.root
}

// Path returns a copy of the path.
func (p Position) Path() []int {
	return slices.Clone(p.path)
}

// Depth returns the number of path entries.
func (p Position) Depth() int {
	return len(p.path)
}

// Offset returns the last path entry.
func (p Position) Offset() int {
	return p.path[len(p.path)-1]
}

// ParentPath returns the path of the element containing the position.
func (p Position) ParentPath() []int {
	return slices.Clone(p.path[:len(p.path)-1])
}

// Parent resolves the element containing the position in the current tree.
func (p Position) Parent() (*Element, error) {
	if p.root == nil {
		return nil, ErrNilRoot
	}
	cur := p.root
	for i, offset := range p.path[:len(p.path)-1] {
		next, ok := cur.childElementAt(offset)
		if !ok {
			return nil, fmt.Errorf("path %v entry %d does not enter an element: %w", p.path, i, ErrInvalidPath)
		}
		cur = next
	}
	return cur, nil
}

// NodeAfter returns the node starting right at the position, or nil.
func (p Position) NodeAfter() Node {
	parent, err := p.Parent()
	if err != nil {
		return nil
	}
	return parent.nodeAfter(p.Offset())
}

// TextNode returns the text node the position falls inside of, with the
// offset inside that node. It returns nil when the position is on a node boundary.
func (p Position) TextNode() (*Text, int) {
	parent, err := p.Parent()
	if err != nil {
		return nil, 0
	}
	index, inner := parent.locate(p.Offset())
	if inner == 0 {
		return nil, 0
	}
	t, _ := parent.Child(index).(*Text)
	return t, inner
}

// IsAtStart reports whether the position is at offset 0 of its parent.
func (p Position) IsAtStart() bool {
	return p.Offset() == 0
}

// IsAtEnd reports whether the position is at the end of its parent.
func (p Position) IsAtEnd() bool {
	parent, err := p.Parent()
	return err == nil && p.Offset() == parent.MaxOffset()
}

// Compare orders p against other. Positions in different roots yield Different.
func (p Position) Compare(other Position) Relation {
	if p.root != other.root {
		return Different
	}
	return comparePaths(p.path, other.path)
}

// IsBefore reports whether p precedes other.
func (p Position) IsBefore(other Position) bool {
	return p.Compare(other) == Before
}

// IsAfter reports whether p follows other.
func (p Position) IsAfter(other Position) bool {
	return p.Compare(other) == After
}

// IsEqual reports whether p and other address the same location.
func (p Position) IsEqual(other Position) bool {
	return p.Compare(other) == Same
}

// ShiftedBy returns the position with its offset moved by delta.
// The result is not validated.
func (p Position) ShiftedBy(delta int) Position {
	path := slices.Clone(p.path)
	path[len(path)-1] += delta
	return newPosition(p.root, path)
}

// IsTouching reports whether no content lies between p and other in the
// current tree. Only ascending moves are allowed: the left position may
// leave its parent when it sits at the parent's end, the right one when it
// sits at offset 0. An element in between, even an empty one, is content.
// The check is directional and p must not be after other.
func (p Position) IsTouching(other Position) bool {
	switch p.Compare(other) {
	case Same:
		return true
	case Before:
	default:
		return false
	}
	left, right := p.path, other.path
	for len(left) > 0 && len(right) > 0 {
		if comparePaths(left, right) == Same {
			return true
		}
		if len(left) > len(right) {
			parent, err := newPosition(p.root, left).Parent()
			if err != nil || left[len(left)-1] != parent.MaxOffset() {
				return false
			}
			left = slices.Clone(left[:len(left)-1])
			left[len(left)-1]++
			continue
		}
		if right[len(right)-1] != 0 {
			return false
		}
		right = right[:len(right)-1]
	}
	return false
}

// String returns the root name and path, for example "main[0 1 4]".
func (p Position) String() string {
	if p.root == nil {
		return "<nil>"
	}
	parts := make([]string, len(p.path))
	for i, v := range p.path {
		parts[i] = strconv.Itoa(v)
	}
	return p.root.name + "[" + strings.Join(parts, " ") + "]"
}

// comparePaths orders two paths. A proper prefix sorts before the longer path.
func comparePaths(a, b []int) Relation {
	for i := 0; i < len(a) && i < len(b); i++ {
		switch {
		case a[i] < b[i]:
			return Before
		case a[i] > b[i]:
			return After
		}
	}
	switch {
	case len(a) < len(b):
		return Before
	case len(a) > len(b):
		return After
	default:
		return Same
	}
}
