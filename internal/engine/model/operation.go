package model

import "fmt"

// Operation is an edit request consumed by Document.Apply.
//
// The set of implementations is closed: InsertOperation, RemoveOperation
// and MoveOperation.
type Operation interface {
	// Kind returns the kind of change the operation produces.
	Kind() ChangeKind
	fmt.Stringer
	isOperation()
}

// InsertOperation inserts detached nodes at Position.
type InsertOperation struct {
	Position Position
	Nodes    []Node
}

// Kind implements Operation.
func (InsertOperation) Kind() ChangeKind { return ChangeInsert }

func (op InsertOperation) String() string {
	return fmt.Sprintf("insert %d node(s) at %s", len(op.Nodes), op.Position)
}

func (InsertOperation) isOperation() {}

// RemoveOperation removes HowMany offset units starting at Position.
type RemoveOperation struct {
	Position Position
	HowMany  int
}

// Kind implements Operation.
func (RemoveOperation) Kind() ChangeKind { return ChangeRemove }

func (op RemoveOperation) String() string {
	return fmt.Sprintf("remove %d at %s", op.HowMany, op.Position)
}

func (RemoveOperation) isOperation() {}

// MoveOperation moves HowMany offset units from Source to Target.
// Target is expressed in coordinates from before the move.
type MoveOperation struct {
	Source  Position
	HowMany int
	Target  Position
}

// Kind implements Operation.
func (MoveOperation) Kind() ChangeKind { return ChangeMove }

func (op MoveOperation) String() string {
	return fmt.Sprintf("move %d from %s to %s", op.HowMany, op.Source, op.Target)
}

func (MoveOperation) isOperation() {}
