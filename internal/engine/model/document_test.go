package model

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newTextRoot(t *testing.T, data string) (*Document, *Element) {
	t.Helper()
	doc := NewDocument()
	root, err := doc.CreateRoot("main")
	if err != nil {
		t.Fatalf("CreateRoot failed: %v", err)
	}
	if data != "" {
		if _, err := doc.Insert(pos(root, 0), NewText(data, nil)); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}
	return doc, root
}

func textOf(t *testing.T, e *Element) string {
	t.Helper()
	var out []rune
	for _, child := range e.All() {
		text, ok := child.(*Text)
		if !ok {
			t.Fatalf("unexpected element child %v", child)
		}
		out = append(out, text.data...)
	}
	return string(out)
}

func TestDocumentCreateRoot(t *testing.T) {
	doc := NewDocument()

	main, err := doc.CreateRoot("main")
	if err != nil {
		t.Fatalf("CreateRoot failed: %v", err)
	}
	title, err := doc.CreateRoot("title")
	if err != nil {
		t.Fatalf("CreateRoot failed: %v", err)
	}

	if !main.IsDocumentRoot() || main.Document() != doc {
		t.Error("root should belong to the document")
	}
	if got, ok := doc.Root("title"); !ok || got != title {
		t.Error("Root lookup failed")
	}
	if _, ok := doc.Root("missing"); ok {
		t.Error("unexpected root")
	}
	roots := doc.Roots()
	if len(roots) != 2 || roots[0] != main || roots[1] != title {
		t.Errorf("roots should keep creation order, got %v", roots)
	}

	if _, err := doc.CreateRoot("main"); !errors.Is(err, ErrDuplicateRoot) {
		t.Errorf("expected ErrDuplicateRoot, got %v", err)
	}
	if _, err := doc.CreateRoot(""); !errors.Is(err, ErrInvalidName) {
		t.Errorf("expected ErrInvalidName, got %v", err)
	}
	if n, ok := doc.NodeByID(main.ID()); !ok || n != main {
		t.Error("root should be indexed")
	}
}

func TestDocumentInsertMergesText(t *testing.T) {
	doc, root := newTextRoot(t, "abcd")

	change, err := doc.Insert(pos(root, 2), NewText("XY", nil))
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	ins, ok := change.(InsertChange)
	if !ok {
		t.Fatalf("expected InsertChange, got %T", change)
	}
	if !pathsEqual(ins.Range.Start().Path(), []int{2}) || !pathsEqual(ins.Range.End().Path(), []int{4}) {
		t.Errorf("unexpected change range %s", ins.Range)
	}
	if root.ChildCount() != 1 {
		t.Errorf("adjacent text should merge, got %d children", root.ChildCount())
	}
	if got := textOf(t, root); got != "abXYcd" {
		t.Errorf("expected abXYcd, got %q", got)
	}
	if doc.NodeCount() != 2 {
		t.Errorf("expected root and one text indexed, got %d", doc.NodeCount())
	}
	if doc.Version() != 2 {
		t.Errorf("expected version 2, got %d", doc.Version())
	}
}

func TestDocumentInsertKeepsDistinctAttributes(t *testing.T) {
	doc, root := newTextRoot(t, "abcd")

	bold := NewText("XY", map[string]string{"bold": "true"})
	if _, err := doc.Insert(pos(root, 2), bold); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if root.ChildCount() != 3 {
		t.Fatalf("expected split into 3 children, got %d", root.ChildCount())
	}
	if root.Child(1) != bold {
		t.Error("inserted node should sit between the halves")
	}
	if doc.NodeCount() != 4 {
		t.Errorf("expected 4 indexed nodes, got %d", doc.NodeCount())
	}
	if n, ok := doc.NodeByID(bold.ID()); !ok || n != bold {
		t.Error("inserted node should be indexed")
	}
}

func TestDocumentInsertErrors(t *testing.T) {
	doc, root := newTextRoot(t, "abcd")
	other := NewDocument()
	otherRoot, _ := other.CreateRoot("main")
	parented := NewText("x", nil)
	NewElement("p", nil, parented)

	tests := []struct {
		name string
		op   InsertOperation
		want error
	}{
		{"foreign document", InsertOperation{Position: pos(otherRoot, 0), Nodes: []Node{NewText("x", nil)}}, ErrNotInDocument},
		{"offset out of range", InsertOperation{Position: pos(root, 9), Nodes: []Node{NewText("x", nil)}}, ErrOffsetOutOfRange},
		{"node with parent", InsertOperation{Position: pos(root, 0), Nodes: []Node{parented}}, ErrNodeHasParent},
		{"document root", InsertOperation{Position: pos(root, 0), Nodes: []Node{otherRoot}}, ErrAttached},
		{"empty", InsertOperation{Position: pos(root, 0)}, ErrInvalidLength},
		{"nil root", InsertOperation{Nodes: []Node{NewText("x", nil)}}, ErrNilRoot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := doc.Apply(tt.op); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	if doc.Version() != 1 {
		t.Errorf("rejected operations must not bump the version, got %d", doc.Version())
	}
	if got := textOf(t, root); got != "abcd" {
		t.Errorf("rejected operations must not mutate, got %q", got)
	}
}

func TestDocumentRemove(t *testing.T) {
	doc, root := newTextRoot(t, "abcd")

	change, err := doc.Remove(pos(root, 1), 2)
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	rm, ok := change.(RemoveChange)
	if !ok {
		t.Fatalf("expected RemoveChange, got %T", change)
	}
	if !pathsEqual(rm.Range.Start().Path(), []int{1}) || !pathsEqual(rm.Range.End().Path(), []int{3}) {
		t.Errorf("unexpected change range %s", rm.Range)
	}
	if HowMany(change) != 2 {
		t.Errorf("expected 2 units, got %d", HowMany(change))
	}
	if got := textOf(t, root); got != "ad" || root.ChildCount() != 1 {
		t.Errorf("expected single text ad, got %q in %d children", got, root.ChildCount())
	}
	if doc.NodeCount() != 2 {
		t.Errorf("expected 2 indexed nodes, got %d", doc.NodeCount())
	}

	if _, err := doc.Remove(pos(root, 1), 5); !errors.Is(err, ErrInvalidLength) {
		t.Errorf("expected ErrInvalidLength, got %v", err)
	}
	if _, err := doc.Remove(pos(root, 1), 0); !errors.Is(err, ErrInvalidLength) {
		t.Errorf("expected ErrInvalidLength, got %v", err)
	}
}

func TestDocumentRemoveElement(t *testing.T) {
	doc, root := newListTree(t)
	ul := root.Child(0).(*Element)
	li := ul.Child(2).(*Element)
	text := li.Child(0)

	if _, err := doc.Remove(pos(root, 0, 2), 1); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if ul.ChildCount() != 7 {
		t.Errorf("expected 7 items, got %d", ul.ChildCount())
	}
	if li.Parent() != nil {
		t.Error("removed element should be detached")
	}
	if _, ok := doc.NodeByID(li.ID()); ok {
		t.Error("removed element should leave the index")
	}
	if _, ok := doc.NodeByID(text.ID()); ok {
		t.Error("removed descendants should leave the index")
	}
}

func TestDocumentMove(t *testing.T) {
	doc := NewDocument()
	root, _ := doc.CreateRoot("main")
	first := NewElement("p", nil, NewText("abc", nil))
	second := NewElement("p", nil, NewText("def", nil))
	if _, err := doc.Insert(pos(root, 0), first, second); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	change, err := doc.Move(pos(root, 0, 1), 2, pos(root, 1, 0))
	if err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	mv, ok := change.(MoveChange)
	if !ok {
		t.Fatalf("expected MoveChange, got %T", change)
	}
	if !pathsEqual(mv.Range.Start().Path(), []int{1, 0}) || !pathsEqual(mv.Range.End().Path(), []int{1, 2}) {
		t.Errorf("unexpected change range %s", mv.Range)
	}
	if !pathsEqual(mv.SourcePosition.Path(), []int{0, 1}) {
		t.Errorf("unexpected source %s", mv.SourcePosition)
	}
	if got := textOf(t, first); got != "a" {
		t.Errorf("expected a, got %q", got)
	}
	if got := textOf(t, second); got != "bcdef" || second.ChildCount() != 1 {
		t.Errorf("expected merged bcdef, got %q in %d children", got, second.ChildCount())
	}
}

func TestDocumentMoveForwardInSameParent(t *testing.T) {
	doc, root := newTextRoot(t, "abcdef")

	change, err := doc.Move(pos(root, 0), 2, pos(root, 4))
	if err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if got := textOf(t, root); got != "cdabef" {
		t.Errorf("expected cdabef, got %q", got)
	}
	span := change.Span()
	if !pathsEqual(span.Start().Path(), []int{2}) || !pathsEqual(span.End().Path(), []int{4}) {
		t.Errorf("unexpected change range %s", span)
	}
}

func TestDocumentMoveAcrossRoots(t *testing.T) {
	doc, root := newTextRoot(t, "abcdef")
	title, _ := doc.CreateRoot("title")

	if _, err := doc.Move(pos(root, 1), 3, pos(title, 0)); err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if got := textOf(t, root); got != "aef" {
		t.Errorf("expected aef, got %q", got)
	}
	if got := textOf(t, title); got != "bcd" {
		t.Errorf("expected bcd, got %q", got)
	}
}

func TestDocumentMoveErrors(t *testing.T) {
	doc, root := newListTree(t)

	if _, err := doc.Move(pos(root, 0), 1, pos(root, 0, 3, 2)); !errors.Is(err, ErrMoveIntoItself) {
		t.Errorf("expected ErrMoveIntoItself, got %v", err)
	}
	if _, err := doc.Move(pos(root, 2), 4, pos(root, 4)); !errors.Is(err, ErrMoveIntoItself) {
		t.Errorf("expected ErrMoveIntoItself for flat target inside, got %v", err)
	}
	if _, err := doc.Move(pos(root, 2), 9, pos(root, 0)); !errors.Is(err, ErrInvalidLength) {
		t.Errorf("expected ErrInvalidLength, got %v", err)
	}
	if _, err := doc.Move(pos(root, 2), 1, pos(root, 0, 12)); !errors.Is(err, ErrOffsetOutOfRange) {
		t.Errorf("expected ErrOffsetOutOfRange, got %v", err)
	}
}

func TestDocumentSubscribe(t *testing.T) {
	doc, root := newTextRoot(t, "abcd")

	var order []string
	doc.Subscribe(func(Change) { order = append(order, "first") })
	doc.Subscribe(func(Change) { order = append(order, "second") })

	if _, err := doc.Insert(pos(root, 0), NewText("x", nil)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("handlers should run in registration order, got %v", order)
	}
}

func TestDocumentUnsubscribeDuringDispatch(t *testing.T) {
	doc, root := newTextRoot(t, "abcd")

	var later *Subscription
	calls := 0
	doc.Subscribe(func(Change) { later.Unsubscribe() })
	later = doc.Subscribe(func(Change) { calls++ })

	if _, err := doc.Insert(pos(root, 0), NewText("x", nil)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if calls != 0 {
		t.Errorf("handler removed during dispatch should not run, ran %d times", calls)
	}
	if later.Active() {
		t.Error("subscription should be inactive")
	}
	if doc.SubscriberCount() != 1 {
		t.Errorf("expected 1 subscriber, got %d", doc.SubscriberCount())
	}

	later.Unsubscribe()
	doc.Unsubscribe(nil)
}

func TestDocumentSubscribeRoot(t *testing.T) {
	doc, root := newTextRoot(t, "abcd")
	title, _ := doc.CreateRoot("title")

	var got []Change
	doc.SubscribeRoot(title, func(c Change) { got = append(got, c) })

	if _, err := doc.Insert(pos(root, 0), NewText("x", nil)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("change in another root should be filtered, got %d", len(got))
	}
	if _, err := doc.Move(pos(root, 0), 2, pos(title, 0)); err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if _, err := doc.Move(pos(title, 0), 1, pos(root, 0)); err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("moves into and out of the root should be delivered, got %d", len(got))
	}
}

func TestDocumentReentrantApplyPanics(t *testing.T) {
	doc, root := newTextRoot(t, "abcd")

	doc.Subscribe(func(Change) {
		_, _ = doc.Insert(pos(root, 0), NewText("y", nil))
	})

	r := expectPanic(t, func() {
		_, _ = doc.Insert(pos(root, 0), NewText("x", nil))
	})
	err, ok := r.(error)
	if !ok || !errors.Is(err, ErrReentrantApply) {
		t.Errorf("expected ErrReentrantApply panic, got %v", r)
	}
	if doc.IsDispatching() {
		t.Error("dispatch flag should be reset after a panic")
	}
}

func TestDocumentLogsOperations(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	doc := NewDocument(WithLogger(zap.New(core)))
	root, _ := doc.CreateRoot("main")

	if _, err := doc.Insert(pos(root, 0), NewText("abc", nil)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	_, _ = doc.Remove(pos(root, 0), 10)

	if n := logs.FilterMessage("operation applied").Len(); n != 1 {
		t.Errorf("expected 1 applied entry, got %d", n)
	}
	rejected := logs.FilterMessage("operation rejected").All()
	if len(rejected) != 1 || rejected[0].Level != zap.WarnLevel {
		t.Errorf("expected 1 warn entry for the rejected remove, got %v", rejected)
	}
}

func TestChangeKindString(t *testing.T) {
	tests := []struct {
		kind ChangeKind
		want string
	}{
		{ChangeInsert, "insert"},
		{ChangeRemove, "remove"},
		{ChangeMove, "move"},
		{ChangeKind(9), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("ChangeKind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}
