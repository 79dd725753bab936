package notation

import (
	"strings"

	"github.com/dshills/livetree/internal/engine/model"
)

var (
	textEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		"[", "&#91;",
		"]", "&#93;",
		"{", "&#123;",
		"}", "&#125;",
	)
	attrEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&#34;",
	)
)

// boundary is a range boundary resolved to its parent element.
type boundary struct {
	parent *model.Element
	offset int
	mark   string
}

// Stringify renders the content of e. Boundaries of r that fall inside e
// are written as [ and ]. r may be nil.
func Stringify(e *model.Element, r *model.Range) string {
	w := &writer{}
	if r != nil {
		w.bounds = []boundary{resolve(r.Start(), "["), resolve(r.End(), "]")}
	}
	w.content(e)
	return w.sb.String()
}

// StringifyNode renders n itself, including the tag of an element.
func StringifyNode(n model.Node) string {
	w := &writer{}
	switch n := n.(type) {
	case *model.Element:
		w.element(n)
	case *model.Text:
		w.text(n, 0, nil)
	}
	return w.sb.String()
}

func resolve(p model.Position, mark string) boundary {
	parent, err := p.Parent()
	if err != nil {
		return boundary{}
	}
	return boundary{parent: parent, offset: p.Offset(), mark: mark}
}

type writer struct {
	sb     strings.Builder
	bounds []boundary
}

func (w *writer) markers(parent *model.Element, offset int) {
	for _, b := range w.bounds {
		if b.parent == parent && b.offset == offset {
			w.sb.WriteString(b.mark)
		}
	}
}

func (w *writer) content(e *model.Element) {
	offset := 0
	for _, child := range e.All() {
		w.markers(e, offset)
		switch c := child.(type) {
		case *model.Element:
			w.element(c)
		case *model.Text:
			w.text(c, offset, e)
		}
		offset += child.OffsetSize()
	}
	w.markers(e, offset)
}

func (w *writer) element(e *model.Element) {
	w.openTag(e.Name(), e)
	w.content(e)
	w.sb.WriteString("</" + e.Name() + ">")
}

func (w *writer) openTag(name string, n model.Node) {
	w.sb.WriteString("<" + name)
	for _, key := range n.AttrKeys() {
		val, _ := n.Attr(key)
		w.sb.WriteString(" " + key + `="` + attrEscaper.Replace(val) + `"`)
	}
	w.sb.WriteString(">")
}

// text writes t starting at offset in parent. Markers at the first
// character are written by the caller, outside any x-text wrapper.
func (w *writer) text(t *model.Text, offset int, parent *model.Element) {
	wrapped := len(t.AttrKeys()) > 0
	if wrapped {
		w.openTag(textTag, t)
	}
	i := 0
	for _, r := range t.Data() {
		if i > 0 {
			w.markers(parent, offset+i)
		}
		w.sb.WriteString(textEscaper.Replace(string(r)))
		i++
	}
	if wrapped {
		w.sb.WriteString("</" + textTag + ">")
	}
}
