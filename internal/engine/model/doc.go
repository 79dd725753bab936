// Package model implements the content tree of a livetree document and the
// position algebra used to keep references into it valid.
//
// # Tree
//
// A tree is made of Element and Text nodes hanging under a root element
// created by a Document. Inside an element every Text contributes one
// offset unit per code point and every child Element contributes one unit.
//
// # Positions and ranges
//
// A Position is a root plus a path of offsets. Every entry but the last
// enters the child element starting at that offset; the last entry is an
// offset inside the element reached:
//
//	root
//	 └─ ul            [0]
//	     ├─ li "abc"  [0 0]   "b" starts at [0 0 1]
//	     └─ li "de"   [0 1]
//
// A Range is an ordered pair of positions sharing a root.
//
// # Changes
//
// Document.Apply consumes an Operation, mutates the tree and emits one
// Change describing what happened. Position.TransformedByChange and
// Range.TransformedByChange map coordinates from before a change to after
// it; the liverange package builds self-updating ranges on top of them.
package model
