package liverange

import "errors"

var (
	// ErrDetached indicates use of a detached live range as if it were attached.
	ErrDetached = errors.New("live range is detached")

	// ErrNoDocument indicates a range whose root does not belong to a document.
	ErrNoDocument = errors.New("range root is not owned by a document")
)
