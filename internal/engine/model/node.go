package model

import (
	"maps"
	"slices"

	"github.com/google/uuid"
)

// Node is an entity of the content tree: either a *Text or an *Element.
type Node interface {
	// ID returns the stable identity of the node.
	ID() uuid.UUID

	// Parent returns the element holding this node, or nil for roots and
	// detached nodes. The reference does not own the parent.
	Parent() *Element

	// OffsetSize returns how many offset units the node occupies in its parent.
	OffsetSize() int

	// Attr returns the value of an attribute.
	Attr(key string) (string, bool)

	// AttrKeys returns the attribute keys in sorted order.
	AttrKeys() []string

	base() *nodeBase
}

// nodeBase holds the state shared by all node kinds.
type nodeBase struct {
	id     uuid.UUID
	parent *Element
	attrs  map[string]string
}

func newNodeBase(attrs map[string]string) nodeBase {
	b := nodeBase{id: uuid.New()}
	if len(attrs) > 0 {
		b.attrs = maps.Clone(attrs)
	}
	return b
}

func (b *nodeBase) base() *nodeBase { return b }

// ID returns the node identity.
func (b *nodeBase) ID() uuid.UUID { return b.id }

// Parent returns the parent element.
func (b *nodeBase) Parent() *Element { return b.parent }

// Attr returns the value of an attribute.
func (b *nodeBase) Attr(key string) (string, bool) {
	v, ok := b.attrs[key]
	return v, ok
}

// HasAttr reports whether the attribute is set.
func (b *nodeBase) HasAttr(key string) bool {
	_, ok := b.attrs[key]
	return ok
}

// AttrKeys returns the attribute keys in sorted order.
func (b *nodeBase) AttrKeys() []string {
	return slices.Sorted(maps.Keys(b.attrs))
}

// SetAttr sets an attribute, replacing any previous value.
func (b *nodeBase) SetAttr(key, value string) {
	if b.attrs == nil {
		b.attrs = make(map[string]string)
	}
	b.attrs[key] = value
}

// RemoveAttr deletes an attribute. It reports whether the key was present.
func (b *nodeBase) RemoveAttr(key string) bool {
	if _, ok := b.attrs[key]; !ok {
		return false
	}
	delete(b.attrs, key)
	return true
}

// Root returns the topmost ancestor of n, or n itself when it has no parent.
func Root(n Node) Node {
	var cur Node = n
	for cur.Parent() != nil {
		cur = cur.Parent()
	}
	return cur
}

// RootElement returns the root of n when that root is an element.
func RootElement(n Node) *Element {
	e, _ := Root(n).(*Element)
	return e
}

// DocumentOf returns the document owning the tree n belongs to, or nil.
func DocumentOf(n Node) *Document {
	if root := RootElement(n); root != nil {
		return root.doc
	}
	return nil
}

// Index returns the index of n in its parent's children, or -1.
func Index(n Node) int {
	if n.Parent() == nil {
		return -1
	}
	return n.Parent().ChildIndex(n)
}

// StartOffset returns the offset at which n starts inside its parent, or -1.
func StartOffset(n Node) int {
	p := n.Parent()
	if p == nil {
		return -1
	}
	offset := 0
	for _, child := range p.children.All() {
		if child == n {
			return offset
		}
		offset += child.OffsetSize()
	}
	return -1
}

// NodePath returns the offsets leading from the root of n to n.
// A root node has an empty path.
func NodePath(n Node) []int {
	var path []int
	for cur := n; cur.Parent() != nil; cur = cur.Parent() {
		path = append(path, StartOffset(cur))
	}
	slices.Reverse(path)
	return path
}

// Ancestors returns the ancestors of n from the root down to its parent.
// When includeSelf is set, n is appended as the last entry.
func Ancestors(n Node, includeSelf bool) []Node {
	var out []Node
	if includeSelf {
		out = append(out, n)
	}
	for p := n.Parent(); p != nil; p = p.Parent() {
		out = append(out, p)
	}
	slices.Reverse(out)
	return out
}

func sameAttrs(a, b Node) bool {
	return maps.Equal(a.base().attrs, b.base().attrs)
}
