package model

import (
	"errors"
	"testing"
)

func TestNewPosition(t *testing.T) {
	_, root := newListTree(t)

	p, err := NewPosition(root, []int{0, 1, 4})
	if err != nil {
		t.Fatalf("NewPosition failed: %v", err)
	}
	if p.Root() != root {
		t.Error("root mismatch")
	}
	if !pathsEqual(p.Path(), []int{0, 1, 4}) {
		t.Errorf("expected path [0 1 4], got %v", p.Path())
	}
	if p.Offset() != 4 || p.Depth() != 3 {
		t.Errorf("expected offset 4 depth 3, got %d %d", p.Offset(), p.Depth())
	}
	if !pathsEqual(p.ParentPath(), []int{0, 1}) {
		t.Errorf("expected parent path [0 1], got %v", p.ParentPath())
	}
}

func TestNewPositionCopiesPath(t *testing.T) {
	_, root := newListTree(t)

	path := []int{0, 1, 4}
	p, err := NewPosition(root, path)
	if err != nil {
		t.Fatalf("NewPosition failed: %v", err)
	}
	path[2] = 9
	if p.Offset() != 4 {
		t.Errorf("position should not alias caller path, got offset %d", p.Offset())
	}

	out := p.Path()
	out[0] = 5
	if p.Path()[0] != 0 {
		t.Error("Path should return a copy")
	}
}

func TestNewPositionErrors(t *testing.T) {
	_, root := newListTree(t)

	tests := []struct {
		name string
		root *Element
		path []int
		want error
	}{
		{"nil root", nil, []int{0}, ErrNilRoot},
		{"empty path", root, nil, ErrInvalidPath},
		{"negative offset", root, []int{-1}, ErrInvalidPath},
		{"offset past end", root, []int{9}, ErrOffsetOutOfRange},
		{"nested offset past end", root, []int{0, 1, 11}, ErrOffsetOutOfRange},
		{"enters text", root, []int{2, 0}, ErrInvalidPath},
		{"enters nothing", root, []int{8, 0}, ErrInvalidPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPosition(tt.root, tt.path)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestPositionFromParentAndOffset(t *testing.T) {
	_, root := newListTree(t)
	p := root.Child(1).(*Element)

	got, err := PositionFromParentAndOffset(p, 2)
	if err != nil {
		t.Fatalf("PositionFromParentAndOffset failed: %v", err)
	}
	if !pathsEqual(got.Path(), []int{1, 2}) {
		t.Errorf("expected [1 2], got %v", got.Path())
	}

	if _, err := PositionFromParentAndOffset(p, 11); !errors.Is(err, ErrOffsetOutOfRange) {
		t.Errorf("expected ErrOffsetOutOfRange, got %v", err)
	}
	if _, err := PositionFromParentAndOffset(nil, 0); !errors.Is(err, ErrNilRoot) {
		t.Errorf("expected ErrNilRoot, got %v", err)
	}
}

func TestPositionBeforeAfter(t *testing.T) {
	_, root := newListTree(t)
	p := root.Child(1)

	before, err := PositionBefore(p)
	if err != nil {
		t.Fatalf("PositionBefore failed: %v", err)
	}
	if !pathsEqual(before.Path(), []int{1}) {
		t.Errorf("expected [1], got %v", before.Path())
	}

	after, err := PositionAfter(p)
	if err != nil {
		t.Fatalf("PositionAfter failed: %v", err)
	}
	if !pathsEqual(after.Path(), []int{2}) {
		t.Errorf("expected [2], got %v", after.Path())
	}

	if _, err := PositionBefore(root); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("expected ErrInvalidPath for root, got %v", err)
	}
}

func TestPositionCompare(t *testing.T) {
	doc, root := newListTree(t)
	other, err := doc.CreateRoot("other")
	if err != nil {
		t.Fatalf("CreateRoot failed: %v", err)
	}

	tests := []struct {
		name string
		a, b Position
		want Relation
	}{
		{"same", pos(root, 0, 1, 4), pos(root, 0, 1, 4), Same},
		{"prefix is before", pos(root, 0, 1), pos(root, 0, 1, 4), Before},
		{"longer is after prefix", pos(root, 0, 1, 4), pos(root, 0, 1), After},
		{"first difference decides", pos(root, 0, 2), pos(root, 0, 1, 9), After},
		{"shallow before", pos(root, 0), pos(root, 1), Before},
		{"different roots", pos(root, 0), pos(other, 0), Different},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Compare(tt.b); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestPositionPredicates(t *testing.T) {
	_, root := newListTree(t)

	a, b := pos(root, 0, 1, 4), pos(root, 0, 2, 2)
	if !a.IsBefore(b) || a.IsAfter(b) || a.IsEqual(b) {
		t.Error("ordering predicates are inconsistent")
	}
	if !pos(root, 0, 1, 0).IsAtStart() {
		t.Error("expected [0 1 0] at start")
	}
	if !pos(root, 0, 1, 10).IsAtEnd() {
		t.Error("expected [0 1 10] at end")
	}
	if pos(root, 0, 1, 9).IsAtEnd() {
		t.Error("did not expect [0 1 9] at end")
	}
}

func TestPositionNodeAfter(t *testing.T) {
	_, root := newListTree(t)

	if n := pos(root, 0).NodeAfter(); n != root.Child(0) {
		t.Errorf("expected ul, got %v", n)
	}
	if n := pos(root, 2).NodeAfter(); n != root.Child(2) {
		t.Errorf("expected text, got %v", n)
	}
	if n := pos(root, 3).NodeAfter(); n != nil {
		t.Errorf("expected nil inside text, got %v", n)
	}
	if n := pos(root, 8).NodeAfter(); n != nil {
		t.Errorf("expected nil at end, got %v", n)
	}

	text, offset := pos(root, 4).TextNode()
	if text == nil || text.Data() != "xyzxyz" || offset != 2 {
		t.Errorf("expected xyzxyz at 2, got %v at %d", text, offset)
	}
	if text, _ := pos(root, 2).TextNode(); text != nil {
		t.Error("a position on a node boundary has no text node")
	}
}

func TestPositionIsTouching(t *testing.T) {
	_, root := newListTree(t)

	tests := []struct {
		name string
		a, b Position
		want bool
	}{
		{"equal", pos(root, 0, 3), pos(root, 0, 3), true},
		{"end of item to start of next", pos(root, 0, 2, 10), pos(root, 0, 3, 0), true},
		{"into following element", pos(root, 0, 6), pos(root, 0, 6, 0), true},
		{"out of list into paragraph", pos(root, 0, 8), pos(root, 1, 0), true},
		{"out of paragraph", pos(root, 1, 10), pos(root, 2), true},
		{"text in between", pos(root, 0, 2, 9), pos(root, 0, 3, 0), false},
		{"text after end", pos(root, 0, 2, 1), pos(root, 2, 0), false},
		{"reversed", pos(root, 0, 3, 0), pos(root, 0, 2, 10), false},
		{"top level text", pos(root, 2), pos(root, 3), false},
	}

	_, blocks := newBlockTree(t)
	tests = append(tests, []struct {
		name string
		a, b Position
		want bool
	}{
		{"empty element in between", pos(blocks, 0, 0), pos(blocks, 0, 1), false},
		{"two empty elements in between", pos(blocks, 0, 1), pos(blocks, 0, 3), false},
		{"out of empty element", pos(blocks, 0, 0, 0), pos(blocks, 0, 1), true},
		{"into empty element", pos(blocks, 0, 1), pos(blocks, 0, 1, 0), true},
		{"across empty element from inside", pos(blocks, 0, 0, 0), pos(blocks, 0, 2), false},
		{"out of container", pos(blocks, 0, 4), pos(blocks, 1), true},
	}...)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.IsTouching(tt.b); got != tt.want {
				t.Errorf("%s.IsTouching(%s) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestPositionShiftedBy(t *testing.T) {
	_, root := newListTree(t)

	p := pos(root, 0, 1, 4)
	q := p.ShiftedBy(3)
	if !pathsEqual(q.Path(), []int{0, 1, 7}) {
		t.Errorf("expected [0 1 7], got %v", q.Path())
	}
	if p.Offset() != 4 {
		t.Error("ShiftedBy must not modify the receiver")
	}
}

func TestPositionString(t *testing.T) {
	_, root := newListTree(t)

	if got := pos(root, 0, 1, 4).String(); got != "root[0 1 4]" {
		t.Errorf("unexpected string %q", got)
	}
	if got := (Position{}).String(); got != "<nil>" {
		t.Errorf("unexpected zero string %q", got)
	}
}

func TestRelationString(t *testing.T) {
	tests := []struct {
		rel  Relation
		want string
	}{
		{Before, "before"},
		{Same, "same"},
		{After, "after"},
		{Different, "different"},
		{Relation(42), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.rel.String(); got != tt.want {
			t.Errorf("Relation(%d).String() = %q, want %q", tt.rel, got, tt.want)
		}
	}
}
