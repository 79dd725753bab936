package script

import "errors"

// Errors returned by the host.
var (
	ErrHostClosed    = errors.New("script host is closed")
	ErrCallLimit     = errors.New("script call limit exceeded")
	ErrScriptTimeout = errors.New("script timed out")
)
