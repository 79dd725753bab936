package tracking

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dshills/livetree/internal/engine/model"
)

// DefaultMaxChanges is the default journal capacity.
const DefaultMaxChanges = 10000

// Option configures a Tracker.
type Option func(*Tracker)

// WithMaxChanges sets the journal capacity. Older entries are dropped first.
func WithMaxChanges(n int) Option {
	return func(t *Tracker) {
		if n > 0 {
			t.maxChanges = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(t *Tracker) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// Tracker records the changes delivered by one document.
type Tracker struct {
	mu sync.RWMutex

	doc *model.Document
	sub *model.Subscription

	// Ring buffer of entries.
	entries    []Entry
	head       int // Index of the oldest entry
	count      int
	maxChanges int

	// Revision reached by the last recorded change.
	revision uint64
	// Revision before the oldest retained entry.
	baseRevision uint64

	marks  *markSet
	now    func() time.Time
	logger *zap.Logger
}

// NewTracker creates a detached tracker.
func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{
		maxChanges: DefaultMaxChanges,
		marks:      newMarkSet(),
		now:        time.Now,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.entries = make([]Entry, t.maxChanges)
	return t
}

// Attach starts recording the changes of doc. The journal is cleared and the
// current document version becomes the base revision.
func (t *Tracker) Attach(doc *model.Document) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.sub != nil {
		return ErrAlreadyAttached
	}
	t.doc = doc
	t.resetLocked(doc.Version())
	t.sub = doc.Subscribe(t.record)
	t.logger.Debug("tracker attached", zap.Stringer("document", doc.ID()), zap.Uint64("revision", t.revision))
	return nil
}

// Detach stops recording. Recorded entries are kept.
func (t *Tracker) Detach() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.sub == nil {
		return ErrNotAttached
	}
	t.doc.Unsubscribe(t.sub)
	t.sub = nil
	t.logger.Debug("tracker detached", zap.Uint64("revision", t.revision))
	return nil
}

// IsAttached reports whether the tracker is recording.
func (t *Tracker) IsAttached() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.sub != nil
}

func (t *Tracker) record(change model.Change) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.sub == nil {
		return
	}

	e := Entry{
		ID:        uuid.New(),
		Revision:  t.doc.Version(),
		Change:    change,
		Timestamp: t.now(),
	}

	idx := (t.head + t.count) % t.maxChanges
	if t.count == t.maxChanges {
		// Full: overwrite the oldest entry.
		t.baseRevision = t.entries[t.head].Revision
		t.head = (t.head + 1) % t.maxChanges
	} else {
		t.count++
	}
	t.entries[idx] = e
	t.revision = e.Revision
}

// Revision returns the revision reached by the last recorded change.
func (t *Tracker) Revision() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.revision
}

// OldestRevision returns the earliest revision ChangesSince can answer
// completely.
func (t *Tracker) OldestRevision() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.baseRevision
}

// Count returns the number of retained entries.
func (t *Tracker) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.count
}

// ChangesSince returns the entries recorded after revision, oldest first.
// The second result is false when older entries were already dropped and
// the answer is incomplete.
func (t *Tracker) ChangesSince(revision uint64) ([]Entry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.sinceLocked(revision), revision >= t.baseRevision
}

// Latest returns up to n of the most recent entries, oldest first.
func (t *Tracker) Latest(n int) []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if n > t.count {
		n = t.count
	}
	if n <= 0 {
		return nil
	}
	out := make([]Entry, n)
	start := t.count - n
	for i := range n {
		out[i] = t.entries[(t.head+start+i)%t.maxChanges]
	}
	return out
}

// ChangeSet collects the entries recorded after revision.
func (t *Tracker) ChangeSet(revision uint64) *ChangeSet {
	t.mu.RLock()
	defer t.mu.RUnlock()

	cs := NewChangeSet(revision)
	for _, e := range t.sinceLocked(revision) {
		cs.Add(e)
	}
	return cs
}

// Mark records the current revision under name, replacing any previous mark
// with the same name.
func (t *Tracker) Mark(name string) Mark {
	t.mu.Lock()
	defer t.mu.Unlock()

	m := t.marks.set(name, t.revision, t.now())
	t.logger.Debug("mark set", zap.String("name", name), zap.Uint64("revision", m.Revision))
	return m
}

// GetMark returns the mark with the given name.
func (t *Tracker) GetMark(name string) (Mark, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.marks.get(name)
}

// DeleteMark removes a mark. It returns false if the mark does not exist.
func (t *Tracker) DeleteMark(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.marks.delete(name)
}

// Marks returns all marks ordered by revision.
func (t *Tracker) Marks() []Mark {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.marks.list()
}

// ChangesSinceMark returns the entries recorded after the named mark.
func (t *Tracker) ChangesSinceMark(name string) ([]Entry, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	m, ok := t.marks.get(name)
	if !ok {
		return nil, ErrMarkNotFound
	}
	return t.sinceLocked(m.Revision), nil
}

// Summary describes the entries recorded after revision.
func (t *Tracker) Summary(revision uint64) string {
	return t.ChangeSet(revision).Summary()
}

// Clear drops all entries and marks. The current revision becomes the base.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetLocked(t.revision)
}

func (t *Tracker) resetLocked(revision uint64) {
	clear(t.entries)
	t.head = 0
	t.count = 0
	t.revision = revision
	t.baseRevision = revision
	t.marks.clear()
}

func (t *Tracker) sinceLocked(revision uint64) []Entry {
	var out []Entry
	for i := range t.count {
		e := t.entries[(t.head+i)%t.maxChanges]
		if e.Revision > revision {
			out = append(out, e)
		}
	}
	return out
}
