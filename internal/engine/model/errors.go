package model

import "errors"

// Errors returned by model operations.
var (
	// ErrInvalidPath indicates a path that is empty, negative or does not
	// descend through elements.
	ErrInvalidPath = errors.New("invalid path")

	// ErrOffsetOutOfRange indicates an offset outside [0, size] of its container.
	ErrOffsetOutOfRange = errors.New("offset out of range")

	// ErrInvalidLength indicates a length that does not fit its container.
	ErrInvalidLength = errors.New("invalid length")

	// ErrIndexOutOfRange indicates a child index outside the children list.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrCrossRoot indicates positions that do not share a root.
	ErrCrossRoot = errors.New("positions have different roots")

	// ErrNilRoot indicates a position without a root element.
	ErrNilRoot = errors.New("nil root")

	// ErrAttached indicates direct mutation of an element that belongs to a document.
	ErrAttached = errors.New("element is attached to a document")

	// ErrNodeHasParent indicates insertion of a node that already has a parent.
	ErrNodeHasParent = errors.New("node already has a parent")

	// ErrNotInDocument indicates a position or node outside the document.
	ErrNotInDocument = errors.New("not in document")

	// ErrInvalidName indicates an empty root name.
	ErrInvalidName = errors.New("invalid name")

	// ErrDuplicateRoot indicates a root name already in use.
	ErrDuplicateRoot = errors.New("root already exists")

	// ErrMoveIntoItself indicates a move whose target lies inside the moved content.
	ErrMoveIntoItself = errors.New("cannot move content into itself")

	// ErrNotFlat indicates a change range whose boundaries have different parents.
	ErrNotFlat = errors.New("range is not flat")

	// ErrReentrantApply indicates Apply was called while a change was being dispatched.
	ErrReentrantApply = errors.New("operation applied during change dispatch")
)
