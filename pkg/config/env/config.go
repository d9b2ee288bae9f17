package env

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/code-payments/custody-server/pkg/config"
	"github.com/code-payments/custody-server/pkg/config/wrapper"
)

// snapshot is an environment variable captured when the config is built, so a
// running Bank never observes a partially changed environment.
type snapshot []byte

// NewConfig returns a config holding the current value of the environment
// variable key. Keys are case insensitive and resolve to the upper case name.
func NewConfig(key string) config.Config {
	return snapshot(os.Getenv(strings.ToUpper(key)))
}

// Get implements config.Config.Get
func (s snapshot) Get(_ context.Context) (interface{}, error) {
	if len(s) == 0 {
		return nil, config.ErrNoValue
	}
	return []byte(s), nil
}

// Shutdown implements config.Config.Shutdown
func (snapshot) Shutdown() {}

func NewUint64Config(key string, defaultValue uint64) config.Uint64 {
	return wrapper.NewUint64Config(NewConfig(key), defaultValue)
}

func NewDurationConfig(key string, defaultValue time.Duration) config.Duration {
	return wrapper.NewDurationConfig(NewConfig(key), defaultValue)
}
