package model

import "fmt"

// TextProxy is a read-only view over part of a Text node.
type TextProxy struct {
	text   *Text
	offset int
	size   int
	data   string
}

// NewTextProxy creates a view of length code points starting at offsetInText.
func NewTextProxy(text *Text, offsetInText, length int) (*TextProxy, error) {
	if offsetInText < 0 || offsetInText > text.Size() {
		return nil, fmt.Errorf("text proxy offset %d of %d: %w", offsetInText, text.Size(), ErrOffsetOutOfRange)
	}
	if length < 0 || offsetInText+length > text.Size() {
		return nil, fmt.Errorf("text proxy length %d at %d of %d: %w", length, offsetInText, text.Size(), ErrInvalidLength)
	}
	data, _ := text.Symbols(offsetInText, length)
	return &TextProxy{
		text:   text,
		offset: offsetInText,
		size:   length,
		data:   data,
	}, nil
}

// TextNode returns the viewed node.
func (p *TextProxy) TextNode() *Text { return p.text }

// OffsetInText returns where the view starts inside its node.
func (p *TextProxy) OffsetInText() int { return p.offset }

// Size returns the number of code points in the view.
func (p *TextProxy) Size() int { return p.size }

// Data returns the viewed characters.
func (p *TextProxy) Data() string { return p.data }

// IsPartial reports whether the view covers less than the whole node.
func (p *TextProxy) IsPartial() bool {
	return p.size != p.text.Size()
}

// Parent returns the parent of the viewed node.
func (p *TextProxy) Parent() *Element { return p.text.Parent() }

// Root returns the root of the viewed node.
func (p *TextProxy) Root() Node { return Root(p.text) }

// Ancestors returns the ancestors of the viewed node, root first.
func (p *TextProxy) Ancestors(includeNode bool) []Node {
	return Ancestors(p.text, includeNode)
}
