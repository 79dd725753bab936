package model

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Document owns a set of named roots and is the only entry point for
// changing their structure. Every applied operation produces exactly one
// Change which is delivered synchronously to subscribers in registration order.
//
// A Document is not safe for concurrent use. Readers of the tree never
// lock; callers serialize writes themselves.
type Document struct {
	id     uuid.UUID
	roots  []*Element
	byName map[string]*Element
	nodes  map[uuid.UUID]Node

	notify      notifier
	version     uint64
	dispatching bool

	logger *zap.Logger
}

// NewDocument creates an empty document.
func NewDocument(opts ...Option) *Document {
	d := &Document{
		id:     uuid.New(),
		byName: make(map[string]*Element),
		nodes:  make(map[uuid.UUID]Node),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ID returns the document identity.
func (d *Document) ID() uuid.UUID {
	return d.id
}

// Version returns the number of operations applied so far.
func (d *Document) Version() uint64 {
	return d.version
}

// CreateRoot creates an empty root element with the given name.
func (d *Document) CreateRoot(name string) (*Element, error) {
	if name == "" {
		return nil, fmt.Errorf("create root: %w", ErrInvalidName)
	}
	if _, ok := d.byName[name]; ok {
		return nil, fmt.Errorf("create root %q: %w", name, ErrDuplicateRoot)
	}
	root := NewElement(name, nil)
	root.doc = d
	d.roots = append(d.roots, root)
	d.byName[name] = root
	d.register(root)
	d.logger.Debug("root created", zap.String("root", name), zap.Stringer("id", root.ID()))
	return root, nil
}

// Root returns the root with the given name.
func (d *Document) Root(name string) (*Element, bool) {
	root, ok := d.byName[name]
	return root, ok
}

// Roots returns the roots in creation order.
func (d *Document) Roots() []*Element {
	out := make([]*Element, len(d.roots))
	copy(out, d.roots)
	return out
}

// NodeByID returns the attached node with the given identity.
func (d *Document) NodeByID(id uuid.UUID) (Node, bool) {
	n, ok := d.nodes[id]
	return n, ok
}

// NodeCount returns the number of attached nodes, roots included.
func (d *Document) NodeCount() int {
	return len(d.nodes)
}

// Subscribe registers a handler for every change.
func (d *Document) Subscribe(h Handler) *Subscription {
	return d.notify.add(d, nil, h)
}

// SubscribeRoot registers a handler for changes touching root.
func (d *Document) SubscribeRoot(root *Element, h Handler) *Subscription {
	return d.notify.add(d, root, h)
}

// Unsubscribe removes a subscription. Removing one that is not registered
// is a no-op. A subscription removed during dispatch gets no further calls.
func (d *Document) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	d.notify.remove(sub)
}

// SubscriberCount returns the number of registered handlers.
func (d *Document) SubscriberCount() int {
	return d.notify.len()
}

// IsDispatching reports whether a change is currently being delivered.
func (d *Document) IsDispatching() bool {
	return d.dispatching
}

// Insert is shorthand for applying an InsertOperation.
func (d *Document) Insert(pos Position, nodes ...Node) (Change, error) {
	return d.Apply(InsertOperation{Position: pos, Nodes: nodes})
}

// Remove is shorthand for applying a RemoveOperation.
func (d *Document) Remove(pos Position, howMany int) (Change, error) {
	return d.Apply(RemoveOperation{Position: pos, HowMany: howMany})
}

// Move is shorthand for applying a MoveOperation.
func (d *Document) Move(source Position, howMany int, target Position) (Change, error) {
	return d.Apply(MoveOperation{Source: source, HowMany: howMany, Target: target})
}

// Apply validates op, mutates the tree and delivers the resulting change.
// Nothing is mutated when an error is returned.
//
// Calling Apply from a change handler panics with ErrReentrantApply.
func (d *Document) Apply(op Operation) (Change, error) {
	if d.dispatching {
		panic(fmt.Errorf("model: %s: %w", op, ErrReentrantApply))
	}
	if op == nil {
		return nil, fmt.Errorf("apply nil operation: %w", ErrInvalidPath)
	}

	var (
		change Change
		err    error
	)
	switch op := op.(type) {
	case InsertOperation:
		change, err = d.applyInsert(op)
	case RemoveOperation:
		change, err = d.applyRemove(op)
	case MoveOperation:
		change, err = d.applyMove(op)
	default:
		err = fmt.Errorf("apply %T: unsupported operation", op)
	}
	if err != nil {
		d.logger.Warn("operation rejected", zap.Stringer("op", op), zap.Error(err))
		return nil, err
	}

	d.version++
	d.logger.Debug("operation applied",
		zap.Stringer("op", op),
		zap.Stringer("kind", change.Kind()),
		zap.Stringer("range", change.Span()),
		zap.Uint64("version", d.version),
	)
	d.dispatch(change)
	return change, nil
}

func (d *Document) dispatch(change Change) {
	d.dispatching = true
	defer func() { d.dispatching = false }()
	d.notify.deliver(change)
}

// resolve validates p against this document and returns the element holding it.
func (d *Document) resolve(p Position) (*Element, error) {
	if p.root == nil {
		return nil, ErrNilRoot
	}
	if p.root.doc != d {
		return nil, fmt.Errorf("position %s: %w", p, ErrNotInDocument)
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return p.Parent()
}

func (d *Document) applyInsert(op InsertOperation) (Change, error) {
	parent, err := d.resolve(op.Position)
	if err != nil {
		return nil, fmt.Errorf("insert: %w", err)
	}
	size := 0
	seen := make(map[Node]bool, len(op.Nodes))
	for _, n := range op.Nodes {
		if n == nil {
			return nil, fmt.Errorf("insert nil node: %w", ErrInvalidPath)
		}
		if seen[n] {
			return nil, fmt.Errorf("insert node %s twice: %w", n.ID(), ErrNodeHasParent)
		}
		seen[n] = true
		if n.Parent() != nil {
			return nil, fmt.Errorf("insert node %s: %w", n.ID(), ErrNodeHasParent)
		}
		if el, ok := n.(*Element); ok && el.doc != nil {
			return nil, fmt.Errorf("insert root %q: %w", el.name, ErrAttached)
		}
		size += n.OffsetSize()
	}
	if size == 0 {
		return nil, fmt.Errorf("insert %d node(s) of size 0: %w", len(op.Nodes), ErrInvalidLength)
	}

	index := d.splitAt(parent, op.Position.Offset())
	if err := parent.insertChildren(index, op.Nodes); err != nil {
		return nil, fmt.Errorf("insert: %w", err)
	}
	for _, n := range op.Nodes {
		d.register(n)
	}
	d.mergeAt(parent, index+len(op.Nodes))
	d.mergeAt(parent, index)

	start := newPosition(op.Position.root, op.Position.Path())
	return InsertChange{Range: newRange(start, start.ShiftedBy(size))}, nil
}

func (d *Document) applyRemove(op RemoveOperation) (Change, error) {
	parent, err := d.checkSpan(op.Position, op.HowMany)
	if err != nil {
		return nil, fmt.Errorf("remove: %w", err)
	}
	start := newPosition(op.Position.root, op.Position.Path())

	for _, n := range d.cut(parent, op.Position.Offset(), op.HowMany) {
		d.unregister(n)
	}
	return RemoveChange{Range: newRange(start, start.ShiftedBy(op.HowMany))}, nil
}

func (d *Document) applyMove(op MoveOperation) (Change, error) {
	source, err := d.checkSpan(op.Source, op.HowMany)
	if err != nil {
		return nil, fmt.Errorf("move source: %w", err)
	}
	if _, err := d.resolve(op.Target); err != nil {
		return nil, fmt.Errorf("move target: %w", err)
	}
	target, ok := op.Target.TransformedByDeletion(op.Source, op.HowMany)
	if !ok {
		return nil, fmt.Errorf("move %s into %s: %w", op.Source, op.Target, ErrMoveIntoItself)
	}
	target = newPosition(target.root, target.Path())
	sourcePos := newPosition(op.Source.root, op.Source.Path())

	moved := d.cut(source, op.Source.Offset(), op.HowMany)

	parent, err := target.Parent()
	if err != nil {
		// Unreachable: the target path was validated and only shifted.
		panic(fmt.Sprintf("model: move target %s lost: %v", target, err))
	}
	index := d.splitAt(parent, target.Offset())
	if err := parent.insertChildren(index, moved); err != nil {
		panic(fmt.Sprintf("model: move into %s: %v", target, err))
	}
	d.mergeAt(parent, index+len(moved))
	d.mergeAt(parent, index)

	return MoveChange{
		Range:          newRange(target, target.ShiftedBy(op.HowMany)),
		SourcePosition: sourcePos,
	}, nil
}

// checkSpan validates a flat span of howMany units starting at p.
func (d *Document) checkSpan(p Position, howMany int) (*Element, error) {
	parent, err := d.resolve(p)
	if err != nil {
		return nil, err
	}
	if howMany < 1 || p.Offset()+howMany > parent.MaxOffset() {
		return nil, fmt.Errorf("span %d at %s of %d: %w", howMany, p, parent.MaxOffset(), ErrInvalidLength)
	}
	return parent, nil
}

// cut detaches the children covering [offset, offset+howMany) of parent and
// returns them. Text nodes on the edges are split first.
func (d *Document) cut(parent *Element, offset, howMany int) []Node {
	from := d.splitAt(parent, offset)
	to := d.splitAt(parent, offset+howMany)
	removed, err := parent.removeChildren(from, to-from)
	if err != nil {
		panic(fmt.Sprintf("model: cut %d at %d: %v", howMany, offset, err))
	}
	d.mergeAt(parent, from)
	return removed
}

func (d *Document) splitAt(parent *Element, offset int) int {
	index, tail := parent.splitAt(offset)
	if tail != nil {
		d.nodes[tail.id] = tail
	}
	return index
}

func (d *Document) mergeAt(parent *Element, index int) {
	if dropped := parent.mergeTextAt(index); dropped != nil {
		delete(d.nodes, dropped.id)
	}
}

// register indexes n and its descendants.
func (d *Document) register(n Node) {
	d.nodes[n.ID()] = n
	if el, ok := n.(*Element); ok {
		for _, child := range el.children.All() {
			d.register(child)
		}
	}
}

func (d *Document) unregister(n Node) {
	delete(d.nodes, n.ID())
	if el, ok := n.(*Element); ok {
		for _, child := range el.children.All() {
			d.unregister(child)
		}
	}
}
