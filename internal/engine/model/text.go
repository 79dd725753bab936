package model

import "fmt"

// Text is a run of characters. Offsets and sizes count Unicode code points.
type Text struct {
	nodeBase
	data []rune
}

// NewText creates a detached text node.
func NewText(data string, attrs map[string]string) *Text {
	return &Text{
		nodeBase: newNodeBase(attrs),
		data:     []rune(data),
	}
}

// Data returns the text content.
func (t *Text) Data() string {
	return string(t.data)
}

// Size returns the number of code points.
func (t *Text) Size() int {
	return len(t.data)
}

// OffsetSize implements Node.
func (t *Text) OffsetSize() int {
	return len(t.data)
}

// Symbols returns length code points starting at offset.
func (t *Text) Symbols(offset, length int) (string, error) {
	if offset < 0 || offset > len(t.data) {
		return "", fmt.Errorf("text offset %d of %d: %w", offset, len(t.data), ErrOffsetOutOfRange)
	}
	if length < 0 || offset+length > len(t.data) {
		return "", fmt.Errorf("text length %d at %d of %d: %w", length, offset, len(t.data), ErrInvalidLength)
	}
	return string(t.data[offset : offset+length]), nil
}

// String returns a debug representation.
func (t *Text) String() string {
	return fmt.Sprintf("%q", t.Data())
}

// split cuts the text at offset. The receiver keeps the head and the
// returned node, carrying the same attributes, holds the tail.
func (t *Text) split(offset int) *Text {
	tail := NewText(string(t.data[offset:]), t.attrs)
	t.data = t.data[:offset:offset]
	return tail
}
