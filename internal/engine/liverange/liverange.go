package liverange

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dshills/livetree/internal/engine/model"
)

// ChangeFunc is called after the boundaries of a live range moved.
// old holds the boundaries from before the change.
type ChangeFunc func(lr *LiveRange, old model.Range)

// Option configures a LiveRange during creation.
type Option func(*LiveRange)

// WithLogger sets the logger used for boundary updates.
func WithLogger(logger *zap.Logger) Option {
	return func(lr *LiveRange) {
		if logger != nil {
			lr.logger = logger
		}
	}
}

// WithName labels the range in logs and in the scenario and script layers.
func WithName(name string) Option {
	return func(lr *LiveRange) {
		lr.name = name
	}
}

// LiveRange is a range that follows the edits applied to its document.
//
// A LiveRange belongs to the goroutine driving its document. It is not safe
// for concurrent use.
type LiveRange struct {
	id   uuid.UUID
	name string
	rng  model.Range
	doc  *model.Document
	sub  *model.Subscription

	listeners []ChangeFunc
	updates   int

	logger *zap.Logger
}

// New creates a live range between start and end. Reversed boundaries are
// swapped. Both boundaries must lie in a root owned by a document.
func New(start, end model.Position, opts ...Option) (*LiveRange, error) {
	r, err := model.NewRange(start, end)
	if err != nil {
		return nil, err
	}
	return attach(r, opts)
}

// FromElement creates a live range spanning the content of e.
func FromElement(e *model.Element, opts ...Option) (*LiveRange, error) {
	r, err := model.RangeFromElement(e)
	if err != nil {
		return nil, err
	}
	return attach(r, opts)
}

// FromParentsAndOffsets creates a live range from two parent/offset pairs.
func FromParentsAndOffsets(startParent *model.Element, startOffset int, endParent *model.Element, endOffset int, opts ...Option) (*LiveRange, error) {
	r, err := model.RangeFromParentsAndOffsets(startParent, startOffset, endParent, endOffset)
	if err != nil {
		return nil, err
	}
	return attach(r, opts)
}

// FromPositionAndShift creates a flat live range of shift units starting at pos.
func FromPositionAndShift(pos model.Position, shift int, opts ...Option) (*LiveRange, error) {
	r, err := model.RangeFromPositionAndShift(pos, shift)
	if err != nil {
		return nil, err
	}
	return attach(r, opts)
}

// FromRange creates a live range with the boundaries of r.
func FromRange(r model.Range, opts ...Option) (*LiveRange, error) {
	return attach(model.RangeFromRange(r), opts)
}

func attach(r model.Range, opts []Option) (*LiveRange, error) {
	if r.Root() == nil {
		return nil, model.ErrNilRoot
	}
	doc := r.Root().Document()
	if doc == nil {
		return nil, fmt.Errorf("live range %s: %w", r, ErrNoDocument)
	}

	lr := &LiveRange{
		id:     uuid.New(),
		rng:    r,
		doc:    doc,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(lr)
	}
	lr.sub = doc.Subscribe(lr.handle)
	return lr, nil
}

// ID returns the range identity.
func (lr *LiveRange) ID() uuid.UUID { return lr.id }

// Name returns the label set with WithName.
func (lr *LiveRange) Name() string { return lr.name }

// Start returns the current start boundary.
func (lr *LiveRange) Start() model.Position { return lr.rng.Start() }

// End returns the current end boundary.
func (lr *LiveRange) End() model.Position { return lr.rng.End() }

// Range returns a snapshot of the current boundaries.
func (lr *LiveRange) Range() model.Range { return lr.rng }

// Root returns the root both boundaries belong to.
func (lr *LiveRange) Root() *model.Element { return lr.rng.Root() }

// Document returns the document the range follows.
func (lr *LiveRange) Document() *model.Document { return lr.doc }

// IsCollapsed reports whether the range is empty.
func (lr *LiveRange) IsCollapsed() bool { return lr.rng.IsCollapsed() }

// IsEqual reports whether the boundaries equal those of r.
func (lr *LiveRange) IsEqual(r model.Range) bool { return lr.rng.IsEqual(r) }

// Updates returns how many changes moved the boundaries so far.
func (lr *LiveRange) Updates() int { return lr.updates }

// IsDetached reports whether Detach was called.
func (lr *LiveRange) IsDetached() bool {
	return lr.sub == nil
}

// Detach stops following the document. The range keeps its last boundaries.
// Calling Detach again has no effect.
func (lr *LiveRange) Detach() {
	if lr.sub == nil {
		return
	}
	lr.doc.Unsubscribe(lr.sub)
	lr.sub = nil
	lr.listeners = nil
	lr.logger.Debug("live range detached", zap.String("name", lr.name), zap.Stringer("range", lr.rng))
}

// OnChange registers fn to run whenever the boundaries move. Listeners run in
// registration order, after the new boundaries are stored.
//
// Registering on a detached range panics with ErrDetached.
func (lr *LiveRange) OnChange(fn ChangeFunc) {
	if lr.IsDetached() {
		panic(fmt.Errorf("liverange: OnChange on %s: %w", lr.rng, ErrDetached))
	}
	lr.listeners = append(lr.listeners, fn)
}

// String returns a debug representation.
func (lr *LiveRange) String() string {
	if lr.name != "" {
		return lr.name + "=" + lr.rng.String()
	}
	return lr.rng.String()
}

func (lr *LiveRange) handle(change model.Change) {
	if lr.sub == nil {
		return
	}
	old := lr.rng
	lr.rng = old.TransformedByChange(change)
	if lr.rng.IsEqual(old) {
		return
	}
	lr.updates++
	lr.logger.Debug("live range transformed",
		zap.String("name", lr.name),
		zap.Stringer("change", change.Kind()),
		zap.Stringer("from", old),
		zap.Stringer("to", lr.rng),
	)
	for _, fn := range lr.listeners {
		fn(lr, old)
	}
}
