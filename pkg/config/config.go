package config

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrNoValue indicates the source has no value, and the default applies
	ErrNoValue = errors.New("config: no value set")

	// ErrShutdown indicates the use of a Config after calling Shutdown
	ErrShutdown = errors.New("config: shutdown")
)

// Config is a source of raw configuration values. Env and file sources yield
// []byte, while in memory sources yield typed values directly.
type Config interface {
	Get(ctx context.Context) (interface{}, error)
	Shutdown()
}

// Value is a Config converted to T, falling back to a default.
type Value[T any] interface {
	// Get returns the latest value, or the last good value if the source fails
	Get(ctx context.Context) T

	GetSafe(ctx context.Context) (T, error)

	Shutdown()
}

type (
	Duration = Value[time.Duration]
	Uint64   = Value[uint64]
)
