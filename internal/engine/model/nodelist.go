package model

import (
	"iter"
	"slices"
)

// NodeList is an ordered sequence of nodes. It carries no ownership: the
// element holding the list owns the nodes in it.
type NodeList struct {
	nodes []Node
}

// NewNodeList creates a list holding the given nodes.
func NewNodeList(nodes ...Node) *NodeList {
	return &NodeList{nodes: slices.Clone(nodes)}
}

// Len returns the number of nodes.
func (l *NodeList) Len() int {
	return len(l.nodes)
}

// Get returns the node at index, or nil when index is out of range.
func (l *NodeList) Get(index int) Node {
	if index < 0 || index >= len(l.nodes) {
		return nil
	}
	return l.nodes[index]
}

// IndexOf returns the index of n, or -1.
func (l *NodeList) IndexOf(n Node) int {
	for i, node := range l.nodes {
		if node == n {
			return i
		}
	}
	return -1
}

// Insert inserts nodes before index.
func (l *NodeList) Insert(index int, nodes ...Node) error {
	if index < 0 || index > len(l.nodes) {
		return ErrIndexOutOfRange
	}
	l.nodes = slices.Insert(l.nodes, index, nodes...)
	return nil
}

// Remove removes count nodes starting at index and returns them.
func (l *NodeList) Remove(index, count int) ([]Node, error) {
	if index < 0 || count < 0 || index+count > len(l.nodes) {
		return nil, ErrIndexOutOfRange
	}
	removed := slices.Clone(l.nodes[index : index+count])
	l.nodes = slices.Delete(l.nodes, index, index+count)
	return removed, nil
}

// All iterates the nodes in order.
func (l *NodeList) All() iter.Seq2[int, Node] {
	return func(yield func(int, Node) bool) {
		for i, n := range l.nodes {
			if !yield(i, n) {
				return
			}
		}
	}
}

// Slice returns a copy of the nodes.
func (l *NodeList) Slice() []Node {
	return slices.Clone(l.nodes)
}
