package tracking

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/livetree/internal/engine/model"
)

// Entry is a recorded change.
type Entry struct {
	// ID uniquely identifies the entry.
	ID uuid.UUID

	// Revision is the document version produced by the change.
	Revision uint64

	// Change is the change as delivered by the document.
	Change model.Change

	// Timestamp is when the change was recorded.
	Timestamp time.Time
}

// Kind returns the kind of the recorded change.
func (e Entry) Kind() model.ChangeKind {
	return e.Change.Kind()
}

// String returns a short description such as "r3 move 2 to main[1 0]".
func (e Entry) String() string {
	switch c := e.Change.(type) {
	case model.MoveChange:
		return fmt.Sprintf("r%d move %d from %s to %s", e.Revision, model.HowMany(c), c.SourcePosition, c.Range.Start())
	default:
		return fmt.Sprintf("r%d %s %d at %s", e.Revision, c.Kind(), model.HowMany(c), c.Span().Start())
	}
}

// ChangeSet is a run of consecutive entries.
type ChangeSet struct {
	// Entries in application order.
	Entries []Entry

	// StartRevision is the revision before any entry.
	StartRevision uint64

	// EndRevision is the revision after the last entry.
	EndRevision uint64
}

// NewChangeSet creates an empty change set starting at the given revision.
func NewChangeSet(startRevision uint64) *ChangeSet {
	return &ChangeSet{
		StartRevision: startRevision,
		EndRevision:   startRevision,
	}
}

// Add appends an entry.
func (cs *ChangeSet) Add(e Entry) {
	cs.Entries = append(cs.Entries, e)
	cs.EndRevision = e.Revision
}

// Len returns the number of entries.
func (cs *ChangeSet) Len() int {
	return len(cs.Entries)
}

// IsEmpty returns true if there are no entries.
func (cs *ChangeSet) IsEmpty() bool {
	return len(cs.Entries) == 0
}

// Delta returns the net number of offset units added to the document.
// Moves do not change the total.
func (cs *ChangeSet) Delta() int {
	delta := 0
	for _, e := range cs.Entries {
		switch e.Kind() {
		case model.ChangeInsert:
			delta += model.HowMany(e.Change)
		case model.ChangeRemove:
			delta -= model.HowMany(e.Change)
		}
	}
	return delta
}

// Summary returns a human-readable summary, for example
// "2 inserts (+5 units), 1 move (3 units)".
func (cs *ChangeSet) Summary() string {
	if cs.IsEmpty() {
		return "no changes"
	}

	var inserts, removes, moves int
	var inserted, removed, moved int
	for _, e := range cs.Entries {
		n := model.HowMany(e.Change)
		switch e.Kind() {
		case model.ChangeInsert:
			inserts++
			inserted += n
		case model.ChangeRemove:
			removes++
			removed += n
		case model.ChangeMove:
			moves++
			moved += n
		}
	}

	var parts []string
	if inserts > 0 {
		parts = append(parts, fmt.Sprintf("%s (+%d units)", plural(inserts, "insert"), inserted))
	}
	if removes > 0 {
		parts = append(parts, fmt.Sprintf("%s (-%d units)", plural(removes, "remove"), removed))
	}
	if moves > 0 {
		parts = append(parts, fmt.Sprintf("%s (%d units)", plural(moves, "move"), moved))
	}
	return strings.Join(parts, ", ")
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}
