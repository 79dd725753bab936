package model

import "go.uber.org/zap"

// Option configures a Document during creation.
type Option func(*Document)

// WithLogger sets the logger used for applied and rejected operations.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Document) {
		if logger != nil {
			d.logger = logger
		}
	}
}
