package sqlite

import (
	"time"

	"go.uber.org/zap"
)

// Option configures a Backend.
type Option func(*options)

type options struct {
	logger      *zap.Logger
	busyTimeout time.Duration
}

func defaultOptions() *options {
	return &options{
		logger:      zap.NewNop(),
		busyTimeout: 5 * time.Second,
	}
}

// WithLogger sets the logger. Store sessions are logged at debug level.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithBusyTimeout sets how long SQLite waits on a locked database.
// Default is 5 seconds.
func WithBusyTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.busyTimeout = timeout
	}
}
