package custody

import (
	"time"

	"github.com/spf13/viper"

	"github.com/code-payments/custody-server/pkg/config"
	"github.com/code-payments/custody-server/pkg/config/env"
	"github.com/code-payments/custody-server/pkg/config/file"
	"github.com/code-payments/custody-server/pkg/config/memory"
	"github.com/code-payments/custody-server/pkg/config/wrapper"
)

const (
	envConfigPrefix = "CUSTODY_CLIENT_"

	MaxRetriesConfigEnvName = envConfigPrefix + "MAX_RETRIES"
	defaultMaxRetries       = 5

	RetryBackoffConfigEnvName = envConfigPrefix + "RETRY_BACKOFF"
	defaultRetryBackoff       = 50 * time.Millisecond

	MaxRetryBackoffConfigEnvName = envConfigPrefix + "MAX_RETRY_BACKOFF"
	defaultMaxRetryBackoff       = time.Second
)

type conf struct {
	maxRetries      config.Uint64
	retryBackoff    config.Duration
	maxRetryBackoff config.Duration
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			maxRetries:      env.NewUint64Config(MaxRetriesConfigEnvName, defaultMaxRetries),
			retryBackoff:    env.NewDurationConfig(RetryBackoffConfigEnvName, defaultRetryBackoff),
			maxRetryBackoff: env.NewDurationConfig(MaxRetryBackoffConfigEnvName, defaultMaxRetryBackoff),
		}
	}
}

// WithFileConfigs returns configuration pulled from the custody_client
// section of a viper instance.
func WithFileConfigs(v *viper.Viper) ConfigProvider {
	return func() *conf {
		return &conf{
			maxRetries:      file.NewUint64Config(v, "custody_client.max_retries", defaultMaxRetries),
			retryBackoff:    file.NewDurationConfig(v, "custody_client.retry_backoff", defaultRetryBackoff),
			maxRetryBackoff: file.NewDurationConfig(v, "custody_client.max_retry_backoff", defaultMaxRetryBackoff),
		}
	}
}

type testOverrides struct {
	maxRetries   uint64
	retryBackoff time.Duration
}

func withManualTestOverrides(overrides *testOverrides) ConfigProvider {
	return func() *conf {
		return &conf{
			maxRetries:      wrapper.NewUint64Config(memory.NewConfig(overrides.maxRetries), defaultMaxRetries),
			retryBackoff:    wrapper.NewDurationConfig(memory.NewConfig(overrides.retryBackoff), defaultRetryBackoff),
			maxRetryBackoff: wrapper.NewDurationConfig(memory.NewConfig(nil), defaultMaxRetryBackoff),
		}
	}
}
