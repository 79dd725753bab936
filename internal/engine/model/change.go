package model

// ChangeKind identifies the kind of structural change.
type ChangeKind int

const (
	// ChangeInsert means content was added.
	ChangeInsert ChangeKind = iota
	// ChangeRemove means content was excised.
	ChangeRemove
	// ChangeMove means content was relocated.
	ChangeMove
)

// String returns the change kind name.
func (k ChangeKind) String() string {
	switch k {
	case ChangeInsert:
		return "insert"
	case ChangeRemove:
		return "remove"
	case ChangeMove:
		return "move"
	default:
		return "unknown"
	}
}

// Change describes one applied structural edit. It is emitted by the
// document after the tree has been mutated.
//
// The set of implementations is closed: InsertChange, RemoveChange and
// MoveChange. Code switching over changes handles all three.
type Change interface {
	Kind() ChangeKind
	// Span returns the descriptor range.
	Span() Range
	isChange()
}

// InsertChange reports that Range, in post-insert coordinates, holds new content.
type InsertChange struct {
	Range Range
}

// Kind implements Change.
func (InsertChange) Kind() ChangeKind { return ChangeInsert }

// Span implements Change.
func (c InsertChange) Span() Range { return c.Range }

func (InsertChange) isChange() {}

// RemoveChange reports that the content of Range, in pre-removal
// coordinates, no longer exists.
type RemoveChange struct {
	Range Range
}

// Kind implements Change.
func (RemoveChange) Kind() ChangeKind { return ChangeRemove }

// Span implements Change.
func (c RemoveChange) Span() Range { return c.Range }

func (RemoveChange) isChange() {}

// MoveChange reports that content starting at SourcePosition (pre-move
// coordinates) now occupies Range (post-move coordinates).
type MoveChange struct {
	Range          Range
	SourcePosition Position
}

// Kind implements Change.
func (MoveChange) Kind() ChangeKind { return ChangeMove }

// Span implements Change.
func (c MoveChange) Span() Range { return c.Range }

func (MoveChange) isChange() {}

// HowMany returns the number of offset units the change affects.
func HowMany(c Change) int {
	return c.Span().flatSize()
}
