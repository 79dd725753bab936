package notation

import (
	"errors"
	"slices"
	"testing"

	"github.com/dshills/livetree/internal/engine/model"
)

func newRoot(t *testing.T) (*model.Document, *model.Element) {
	t.Helper()
	doc := model.NewDocument()
	root, err := doc.CreateRoot("main")
	if err != nil {
		t.Fatalf("CreateRoot failed: %v", err)
	}
	return doc, root
}

func at(t *testing.T, root *model.Element, path ...int) model.Position {
	t.Helper()
	p, err := model.NewPosition(root, path)
	if err != nil {
		t.Fatalf("NewPosition(%v) failed: %v", path, err)
	}
	return p
}

func TestParse(t *testing.T) {
	f, err := Parse(`<ul><li>foo</li><li>bar</li></ul><p class="lead">baz</p>qux`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(f.Nodes) != 3 {
		t.Fatalf("expected 3 top level nodes, got %d", len(f.Nodes))
	}
	if f.HasRange() {
		t.Error("no markers were given")
	}
	if f.Size() != 5 {
		t.Errorf("expected size 5, got %d", f.Size())
	}

	ul, ok := f.Nodes[0].(*model.Element)
	if !ok || ul.Name() != "ul" || ul.ChildCount() != 2 {
		t.Fatalf("unexpected first node %v", f.Nodes[0])
	}
	li := ul.Child(1).(*model.Element)
	if text := li.Child(0).(*model.Text); text.Data() != "bar" {
		t.Errorf("expected bar, got %q", text.Data())
	}

	p := f.Nodes[1].(*model.Element)
	if v, _ := p.Attr("class"); v != "lead" {
		t.Errorf("expected class lead, got %q", v)
	}
	if text := f.Nodes[2].(*model.Text); text.Data() != "qux" {
		t.Errorf("expected qux, got %q", text.Data())
	}
}

func TestParseMarkers(t *testing.T) {
	tests := []struct {
		name       string
		markup     string
		start, end []int
	}{
		{"square", "<p>[foobar]</p>", []int{0, 0}, []int{0, 6}},
		{"curly", "<p>f{oob}ar</p>", []int{0, 1}, []int{0, 4}},
		{"mixed", "<p>f{oo<b>ba]r</b></p>", []int{0, 1}, []int{0, 3, 2}},
		{"collapsed", "<p>foo[]</p>", []int{0, 3}, []int{0, 3}},
		{"top level", "[<p></p>]", []int{0}, []int{1}},
		{"unicode", "<p>நி{லை}க்கு</p>", []int{0, 2}, []int{0, 4}},
		{"across elements", "<ul><li>a[a</li></ul><p>b]b</p>", []int{0, 0, 1}, []int{1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Parse(tt.markup)
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if !slices.Equal(f.Start, tt.start) || !slices.Equal(f.End, tt.end) {
				t.Errorf("expected %v..%v, got %v..%v", tt.start, tt.end, f.Start, f.End)
			}
		})
	}
}

func TestParseTextAttributes(t *testing.T) {
	f, err := Parse(`<p>a<x-text bold="true">bc</x-text>d</p>`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	p := f.Nodes[0].(*model.Element)
	if p.ChildCount() != 3 {
		t.Fatalf("expected 3 text nodes, got %d", p.ChildCount())
	}
	bold := p.Child(1).(*model.Text)
	if bold.Data() != "bc" || !bold.HasAttr("bold") {
		t.Errorf("unexpected attributed text %v", bold)
	}
	if p.Child(2).(*model.Text).HasAttr("bold") {
		t.Error("attributes should end with the wrapper")
	}
}

func TestParseEntities(t *testing.T) {
	f, err := Parse(`<p>a &amp; &#91;b&#93; &lt;c&gt;</p>`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if f.HasRange() {
		t.Error("escaped brackets are not markers")
	}
	text := f.Nodes[0].(*model.Element).Child(0).(*model.Text)
	if text.Data() != "a & [b] <c>" {
		t.Errorf("unexpected text %q", text.Data())
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   error
	}{
		{"unclosed", "<p>foo", ErrUnclosedElement},
		{"unclosed text", "<p><x-text a=\"1\">foo</p>", ErrUnexpectedEndTag},
		{"stray end", "foo</p>", ErrUnexpectedEndTag},
		{"mismatched", "<p><b>x</p></b>", ErrUnexpectedEndTag},
		{"nested text", `<x-text a="1"><x-text b="2">x</x-text></x-text>`, ErrNestedText},
		{"element in text", `<x-text a="1"><b>x</b></x-text>`, ErrNestedText},
		{"end before start", "<p>]foo[</p>", ErrMarker},
		{"two starts", "<p>[fo[o]</p>", ErrMarker},
		{"two ends", "<p>[f]o]o</p>", ErrMarker},
		{"start only", "<p>[foo</p>", ErrMarker},
		{"comment", "<p><!-- x --></p>", ErrUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.markup); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	doc, root := newRoot(t)
	if _, err := Load(doc, at(t, root, 0), "<p>xy</p><p>zz</p>"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	r, err := Load(doc, at(t, root, 1, 1), "a[bc]d")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if r == nil {
		t.Fatal("expected a range")
	}
	if !slices.Equal(r.Start().Path(), []int{1, 2}) || !slices.Equal(r.End().Path(), []int{1, 4}) {
		t.Errorf("unexpected range %s", r)
	}

	second := root.Child(1).(*model.Element)
	if second.ChildCount() != 1 {
		t.Errorf("inserted text should merge, got %d children", second.ChildCount())
	}
	if got := Stringify(root, r); got != "<p>xy</p><p>za[bc]dz</p>" {
		t.Errorf("unexpected markup %q", got)
	}

	empty, err := Load(doc, at(t, root, 0), "[]")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !empty.IsCollapsed() || !slices.Equal(empty.Start().Path(), []int{0}) {
		t.Errorf("unexpected collapsed range %s", empty)
	}

	none, err := Load(doc, at(t, root, 0), "<hr></hr>")
	if err != nil || none != nil {
		t.Errorf("expected no range, got %v %v", none, err)
	}

	if _, err := Load(doc, at(t, root, 0), "<p>"); !errors.Is(err, ErrUnclosedElement) {
		t.Errorf("expected ErrUnclosedElement, got %v", err)
	}

	stale := at(t, root, 3)
	if _, err := doc.Remove(at(t, root, 0), 1); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := Load(doc, stale, "x"); !errors.Is(err, model.ErrOffsetOutOfRange) {
		t.Errorf("expected ErrOffsetOutOfRange, got %v", err)
	}
}

func TestStringify(t *testing.T) {
	doc, root := newRoot(t)
	markup := `<ul><li>foo</li><li>b[ar</li></ul><p a="1">baz <x-text bold="true">b]old</x-text></p>`
	r, err := Load(doc, at(t, root, 0), markup)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if got := Stringify(root, r); got != markup {
		t.Errorf("round trip mismatch:\n got  %s\n want %s", got, markup)
	}
	if got := Stringify(root, nil); got != `<ul><li>foo</li><li>bar</li></ul><p a="1">baz <x-text bold="true">bold</x-text></p>` {
		t.Errorf("unexpected plain markup %q", got)
	}

	ul := root.Child(0).(*model.Element)
	if got := StringifyNode(ul.Child(0)); got != "<li>foo</li>" {
		t.Errorf("unexpected node markup %q", got)
	}
}

func TestStringifyMarkerAtAttributedTextStart(t *testing.T) {
	doc, root := newRoot(t)
	markup := `<p>a[<x-text bold="true">bc</x-text>]</p>`
	r, err := Load(doc, at(t, root, 0), markup)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := Stringify(root, r); got != markup {
		t.Errorf("expected %q, got %q", markup, got)
	}
}

func TestStringifyEscapes(t *testing.T) {
	text := model.NewText(`a<b>&[c]{d}`, nil)
	e := model.NewElement("p", map[string]string{"title": `say "hi"`}, text)

	want := `<p title="say &#34;hi&#34;">a&lt;b&gt;&amp;&#91;c&#93;&#123;d&#125;</p>`
	got := StringifyNode(e)
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}

	f, err := Parse(got)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	back := f.Nodes[0].(*model.Element)
	if back.Child(0).(*model.Text).Data() != text.Data() {
		t.Errorf("escaped text did not round trip: %q", back.Child(0).(*model.Text).Data())
	}
	if v, _ := back.Attr("title"); v != `say "hi"` {
		t.Errorf("escaped attribute did not round trip: %q", v)
	}
}
