package file

import (
	"context"
	"time"

	"github.com/spf13/viper"

	"github.com/code-payments/custody-server/pkg/config"
	"github.com/code-payments/custody-server/pkg/config/wrapper"
)

type conf struct {
	v   *viper.Viper
	key string
}

// NewConfig returns a config backed by a key in a viper instance, which may be
// loaded from a config file, bound flags or environment variables. Unlike the
// env source, the value is resolved on every Get.
func NewConfig(v *viper.Viper, key string) config.Config {
	return &conf{
		v:   v,
		key: key,
	}
}

// Get implements Config.Get
func (c *conf) Get(_ context.Context) (interface{}, error) {
	if !c.v.IsSet(c.key) {
		return nil, config.ErrNoValue
	}

	value := c.v.GetString(c.key)
	if len(value) == 0 {
		return nil, config.ErrNoValue
	}

	return []byte(value), nil
}

// Shutdown implements Config.Shutdown
func (c *conf) Shutdown() {
}

// NewUint64Config creates a viper-based uint64 config
func NewUint64Config(v *viper.Viper, key string, defaultValue uint64) config.Uint64 {
	return wrapper.NewUint64Config(NewConfig(v, key), defaultValue)
}

// NewDurationConfig creates a viper-based duration config
func NewDurationConfig(v *viper.Viper, key string, defaultValue time.Duration) config.Duration {
	return wrapper.NewDurationConfig(NewConfig(v, key), defaultValue)
}
