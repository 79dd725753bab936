package model

import (
	"strings"
	"testing"
)

// newListTree builds:
//
//	root
//	 ├─ ul
//	 │   ├─ li "aaaaaaaaaa"
//	 │   ├─ ...            (eight items, ten characters each)
//	 │   └─ li "hhhhhhhhhh"
//	 ├─ p "qwertyuiop"
//	 └─ "xyzxyz"
func newListTree(t *testing.T) (*Document, *Element) {
	t.Helper()

	doc := NewDocument()
	root, err := doc.CreateRoot("root")
	if err != nil {
		t.Fatalf("CreateRoot failed: %v", err)
	}

	var items []Node
	for _, ch := range "abcdefgh" {
		items = append(items, NewElement("li", nil, NewText(strings.Repeat(string(ch), 10), nil)))
	}
	ul := NewElement("ul", nil, items...)
	p := NewElement("p", nil, NewText("qwertyuiop", nil))

	if _, err := doc.Insert(pos(root, 0), ul, p, NewText("xyzxyz", nil)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	return doc, root
}

// pos builds an unchecked position.
func pos(root *Element, path ...int) Position {
	return newPosition(root, path)
}

func rng(start, end Position) Range {
	return Range{start: start, end: end}
}

func pathsEqual(a, b []int) bool {
	return comparePaths(a, b) == Same
}

func expectPanic(t *testing.T, fn func()) (recovered any) {
	t.Helper()
	defer func() {
		recovered = recover()
		if recovered == nil {
			t.Fatal("expected panic")
		}
	}()
	fn()
	return nil
}

// newBlockTree builds root > div > (a, b, c, d) with empty leaf elements.
func newBlockTree(t *testing.T) (*Document, *Element) {
	t.Helper()

	doc := NewDocument()
	root, err := doc.CreateRoot("root")
	if err != nil {
		t.Fatalf("CreateRoot failed: %v", err)
	}
	div := NewElement("div", nil,
		NewElement("a", nil), NewElement("b", nil), NewElement("c", nil), NewElement("d", nil))
	if _, err := doc.Insert(pos(root, 0), div); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	return doc, root
}

func mustPosition(t *testing.T, root *Element, path []int) Position {
	t.Helper()
	p, err := NewPosition(root, path)
	if err != nil {
		t.Fatalf("NewPosition(%v) failed: %v", path, err)
	}
	return p
}
