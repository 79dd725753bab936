package model

import (
	"fmt"
	"iter"
)

// Element is a named node that owns an ordered list of children.
//
// Children of an element that is not yet part of a document may be changed
// directly. Once the element is attached under a document root, structure
// changes go through Document.Apply so that every change is announced.
type Element struct {
	nodeBase
	name     string
	children *NodeList

	// doc is set on document roots only.
	doc *Document
}

// NewElement creates a detached element holding children.
// It panics if one of the children already has a parent.
func NewElement(name string, attrs map[string]string, children ...Node) *Element {
	e := &Element{
		nodeBase: newNodeBase(attrs),
		name:     name,
		children: NewNodeList(),
	}
	if err := e.insertChildren(0, children); err != nil {
		panic(fmt.Sprintf("model: NewElement(%q): %v", name, err))
	}
	return e
}

// Name returns the element name.
func (e *Element) Name() string {
	return e.name
}

// OffsetSize implements Node. An element always takes one offset unit.
func (e *Element) OffsetSize() int {
	return 1
}

// Document returns the document owning this element's tree, or nil.
func (e *Element) Document() *Document {
	return DocumentOf(e)
}

// IsDocumentRoot reports whether e is a root created by a document.
func (e *Element) IsDocumentRoot() bool {
	return e.doc != nil
}

// ChildCount returns the number of children.
func (e *Element) ChildCount() int {
	return e.children.Len()
}

// Child returns the child at index, or nil.
func (e *Element) Child(index int) Node {
	return e.children.Get(index)
}

// ChildIndex returns the index of a child, or -1.
func (e *Element) ChildIndex(n Node) int {
	return e.children.IndexOf(n)
}

// Children returns a copy of the children.
func (e *Element) Children() []Node {
	return e.children.Slice()
}

// All iterates the children in order.
func (e *Element) All() iter.Seq2[int, Node] {
	return e.children.All()
}

// MaxOffset returns the total offset size of the children.
func (e *Element) MaxOffset() int {
	total := 0
	for _, child := range e.children.All() {
		total += child.OffsetSize()
	}
	return total
}

// InsertChildren inserts nodes before the child at index.
func (e *Element) InsertChildren(index int, nodes ...Node) error {
	if e.Document() != nil {
		return ErrAttached
	}
	return e.insertChildren(index, nodes)
}

// RemoveChildren removes count children starting at index and returns them
// detached.
func (e *Element) RemoveChildren(index, count int) ([]Node, error) {
	if e.Document() != nil {
		return nil, ErrAttached
	}
	return e.removeChildren(index, count)
}

// String returns a debug representation.
func (e *Element) String() string {
	return fmt.Sprintf("<%s>", e.name)
}

func (e *Element) insertChildren(index int, nodes []Node) error {
	for _, n := range nodes {
		if n == nil {
			return fmt.Errorf("nil child: %w", ErrInvalidPath)
		}
		if n.Parent() != nil {
			return ErrNodeHasParent
		}
		if el, ok := n.(*Element); ok && el.doc != nil {
			return ErrAttached
		}
	}
	if err := e.children.Insert(index, nodes...); err != nil {
		return fmt.Errorf("insert at %d of %d: %w", index, e.children.Len(), err)
	}
	for _, n := range nodes {
		n.base().parent = e
	}
	return nil
}

func (e *Element) removeChildren(index, count int) ([]Node, error) {
	removed, err := e.children.Remove(index, count)
	if err != nil {
		return nil, fmt.Errorf("remove %d at %d of %d: %w", count, index, e.children.Len(), err)
	}
	for _, n := range removed {
		n.base().parent = nil
	}
	return removed, nil
}

// locate returns the index of the child containing offset and the offset
// inside that child. An offset on a boundary yields the child starting
// there with inner offset 0; the end offset yields (ChildCount, 0).
func (e *Element) locate(offset int) (index, inner int) {
	start := 0
	for i, child := range e.children.All() {
		size := child.OffsetSize()
		if offset < start+size {
			return i, offset - start
		}
		start += size
	}
	return e.children.Len(), offset - start
}

// nodeAfter returns the node that starts exactly at offset, or nil.
func (e *Element) nodeAfter(offset int) Node {
	index, inner := e.locate(offset)
	if inner != 0 {
		return nil
	}
	return e.children.Get(index)
}

// childElementAt returns the element starting exactly at offset.
func (e *Element) childElementAt(offset int) (*Element, bool) {
	el, ok := e.nodeAfter(offset).(*Element)
	return el, ok
}

// splitAt makes sure a child boundary exists at offset, splitting a text
// node when needed. It returns the index of the child starting there and
// the tail node created by the split, if any.
func (e *Element) splitAt(offset int) (int, *Text) {
	index, inner := e.locate(offset)
	if inner == 0 {
		return index, nil
	}
	text := e.children.Get(index).(*Text)
	tail := text.split(inner)
	tail.parent = e
	_ = e.children.Insert(index+1, tail)
	return index + 1, tail
}

// mergeTextAt joins the children at index-1 and index when both are text
// nodes with equal attributes, and returns the dropped right node.
// Offsets are not affected.
func (e *Element) mergeTextAt(index int) *Text {
	if index <= 0 || index >= e.children.Len() {
		return nil
	}
	left, ok := e.children.Get(index - 1).(*Text)
	if !ok {
		return nil
	}
	right, ok := e.children.Get(index).(*Text)
	if !ok || !sameAttrs(left, right) {
		return nil
	}
	left.data = append(left.data, right.data...)
	_, _ = e.removeChildren(index, 1)
	return right
}
