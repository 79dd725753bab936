package notation

import "errors"

// Errors returned by Parse and Load.
var (
	ErrUnexpectedEndTag = errors.New("unexpected end tag")
	ErrUnclosedElement  = errors.New("unclosed element")
	ErrNestedText       = errors.New("nested x-text")
	ErrMarker           = errors.New("misplaced range marker")
	ErrUnsupported      = errors.New("unsupported markup")
)
