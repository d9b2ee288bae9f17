// Package memory provides a settable config for tests and manual overrides.
package memory

import (
	"context"
	"sync"

	"github.com/code-payments/custody-server/pkg/config"
)

// Config holds a value in memory. A nil value reports config.ErrNoValue, which
// wrapped configs resolve to their default.
type Config struct {
	mu       sync.RWMutex
	value    interface{}
	err      error
	shutdown bool
}

func NewConfig(value interface{}) *Config {
	return &Config{value: value}
}

// Get implements config.Config.Get
func (c *Config) Get(_ context.Context) (interface{}, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch {
	case c.shutdown:
		return nil, config.ErrShutdown
	case c.err != nil:
		return nil, c.err
	case c.value == nil:
		return nil, config.ErrNoValue
	}
	return c.value, nil
}

// Shutdown implements config.Config.Shutdown
func (c *Config) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shutdown = true
}

// SetValue replaces the value. Passing nil clears it.
func (c *Config) SetValue(value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = value
}

// SetError makes Get fail with err until it is reset with a nil error.
func (c *Config) SetError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}
