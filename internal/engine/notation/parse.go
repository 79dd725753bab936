package notation

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/dshills/livetree/internal/engine/model"
)

const textTag = "x-text"

// Fragment is parsed markup: detached nodes plus an optional range.
type Fragment struct {
	// Nodes are the top level nodes in order.
	Nodes []model.Node

	// Start and End are paths relative to the fragment. Both are nil when
	// the markup holds no markers.
	Start, End []int
}

// HasRange reports whether the markup contained range markers.
func (f *Fragment) HasRange() bool {
	return f.Start != nil
}

// Size returns the offset size of the top level nodes.
func (f *Fragment) Size() int {
	n := 0
	for _, node := range f.Nodes {
		n += node.OffsetSize()
	}
	return n
}

// frame is an element being built. The bottom frame collects top level nodes.
type frame struct {
	name     string
	attrs    map[string]string
	index    int // offset of the element in its parent frame
	children []model.Node
	offset   int

	pending   strings.Builder
	textAttrs map[string]string
	inText    bool
}

func (f *frame) flush() {
	if f.pending.Len() == 0 {
		return
	}
	f.children = append(f.children, model.NewText(f.pending.String(), f.textAttrs))
	f.pending.Reset()
}

type parser struct {
	frames     []*frame
	start, end []int
}

// Parse reads markup into detached nodes.
func Parse(markup string) (*Fragment, error) {
	p := &parser{frames: []*frame{{}}}
	z := html.NewTokenizer(strings.NewReader(markup))

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("notation: %w", err)
			}
			return p.finish()
		case html.TextToken:
			if err := p.text(string(z.Raw())); err != nil {
				return nil, err
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			name, attrs := readTag(z)
			if err := p.open(name, attrs); err != nil {
				return nil, err
			}
			if tt == html.SelfClosingTagToken {
				if err := p.close(name); err != nil {
					return nil, err
				}
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if err := p.close(string(name)); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("notation: %s token: %w", tt, ErrUnsupported)
		}
	}
}

func readTag(z *html.Tokenizer) (string, map[string]string) {
	name, more := z.TagName()
	var attrs map[string]string
	for more {
		var key, val []byte
		key, val, more = z.TagAttr()
		if attrs == nil {
			attrs = make(map[string]string)
		}
		attrs[string(key)] = string(val)
	}
	return string(name), attrs
}

func (p *parser) top() *frame {
	return p.frames[len(p.frames)-1]
}

// text consumes raw character data, splitting out markers before entities
// are decoded.
func (p *parser) text(raw string) error {
	f := p.top()
	for {
		i := strings.IndexAny(raw, "[]{}")
		if i < 0 {
			f.appendText(raw)
			return nil
		}
		f.appendText(raw[:i])
		if err := p.marker(raw[i]); err != nil {
			return err
		}
		raw = raw[i+1:]
	}
}

func (f *frame) appendText(raw string) {
	if raw == "" {
		return
	}
	s := html.UnescapeString(raw)
	f.pending.WriteString(s)
	f.offset += utf8.RuneCountInString(s)
}

func (p *parser) marker(c byte) error {
	path := p.path()
	switch c {
	case '[', '{':
		if p.start != nil {
			return fmt.Errorf("notation: second range start at %v: %w", path, ErrMarker)
		}
		p.start = path
	default:
		if p.start == nil {
			return fmt.Errorf("notation: range end before start at %v: %w", path, ErrMarker)
		}
		if p.end != nil {
			return fmt.Errorf("notation: second range end at %v: %w", path, ErrMarker)
		}
		p.end = path
	}
	return nil
}

func (p *parser) path() []int {
	path := make([]int, 0, len(p.frames))
	for _, f := range p.frames[1:] {
		path = append(path, f.index)
	}
	return append(path, p.top().offset)
}

func (p *parser) open(name string, attrs map[string]string) error {
	f := p.top()
	if f.inText {
		return fmt.Errorf("notation: <%s> inside %s: %w", name, textTag, ErrNestedText)
	}
	f.flush()
	if name == textTag {
		f.inText = true
		f.textAttrs = attrs
		return nil
	}
	p.frames = append(p.frames, &frame{name: name, attrs: attrs, index: f.offset})
	return nil
}

func (p *parser) close(name string) error {
	f := p.top()
	if name == textTag {
		if !f.inText {
			return fmt.Errorf("notation: </%s>: %w", name, ErrUnexpectedEndTag)
		}
		f.flush()
		f.inText = false
		f.textAttrs = nil
		return nil
	}
	if len(p.frames) == 1 || f.name != name || f.inText {
		return fmt.Errorf("notation: </%s>: %w", name, ErrUnexpectedEndTag)
	}
	f.flush()
	p.frames = p.frames[:len(p.frames)-1]

	parent := p.top()
	parent.children = append(parent.children, model.NewElement(f.name, f.attrs, f.children...))
	parent.offset++
	return nil
}

func (p *parser) finish() (*Fragment, error) {
	f := p.top()
	if len(p.frames) > 1 {
		return nil, fmt.Errorf("notation: <%s>: %w", f.name, ErrUnclosedElement)
	}
	if f.inText {
		return nil, fmt.Errorf("notation: <%s>: %w", textTag, ErrUnclosedElement)
	}
	if p.start != nil && p.end == nil {
		return nil, fmt.Errorf("notation: range start at %v without end: %w", p.start, ErrMarker)
	}
	f.flush()
	return &Fragment{Nodes: f.children, Start: p.start, End: p.end}, nil
}

// Load parses markup and inserts its nodes at at through doc. When the
// markup marks a range, the range is returned translated to document
// positions; otherwise the returned range is nil.
func Load(doc *model.Document, at model.Position, markup string) (*model.Range, error) {
	f, err := Parse(markup)
	if err != nil {
		return nil, err
	}
	if len(f.Nodes) > 0 {
		if _, err := doc.Insert(at, f.Nodes...); err != nil {
			return nil, fmt.Errorf("notation: load at %s: %w", at, err)
		}
	}
	if !f.HasRange() {
		return nil, nil
	}

	start, err := model.NewPosition(at.Root(), relocate(at, f.Start))
	if err != nil {
		return nil, err
	}
	end, err := model.NewPosition(at.Root(), relocate(at, f.End))
	if err != nil {
		return nil, err
	}
	r, err := model.NewRange(start, end)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// relocate turns a fragment path into a document path for content
// inserted at at.
func relocate(at model.Position, rel []int) []int {
	path := slices.Concat(at.ParentPath(), []int{at.Offset() + rel[0]})
	return append(path, rel[1:]...)
}
