package ledger

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/code-payments/custody-server/pkg/config"
	"github.com/code-payments/custody-server/pkg/config/env"
	"github.com/code-payments/custody-server/pkg/config/file"
	"github.com/code-payments/custody-server/pkg/config/memory"
	"github.com/code-payments/custody-server/pkg/config/wrapper"
)

const (
	envConfigPrefix = "LEDGER_"

	LamportsPerSignatureConfigEnvName = envConfigPrefix + "LAMPORTS_PER_SIGNATURE"
	defaultLamportsPerSignature       = 5000

	LockStripesConfigEnvName = envConfigPrefix + "LOCK_STRIPES"
	defaultLockStripes       = 1024

	RentLamportsPerByteYearConfigEnvName = envConfigPrefix + "RENT_LAMPORTS_PER_BYTE_YEAR"
	defaultRentLamportsPerByteYear       = 3480

	RentExemptionThresholdConfigEnvName = envConfigPrefix + "RENT_EXEMPTION_THRESHOLD"
	defaultRentExemptionThreshold       = 2

	SignatureFilterSizeConfigEnvName = envConfigPrefix + "SIGNATURE_FILTER_SIZE"
	defaultSignatureFilterSize       = 1_000_000
)

type conf struct {
	lamportsPerSignature    config.Uint64
	lockStripes             config.Uint64
	rentLamportsPerByteYear config.Uint64
	rentExemptionThreshold  config.Uint64
	signatureFilterSize     config.Uint64
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			lamportsPerSignature:    env.NewUint64Config(LamportsPerSignatureConfigEnvName, defaultLamportsPerSignature),
			lockStripes:             env.NewUint64Config(LockStripesConfigEnvName, defaultLockStripes),
			rentLamportsPerByteYear: env.NewUint64Config(RentLamportsPerByteYearConfigEnvName, defaultRentLamportsPerByteYear),
			rentExemptionThreshold:  env.NewUint64Config(RentExemptionThresholdConfigEnvName, defaultRentExemptionThreshold),
			signatureFilterSize:     env.NewUint64Config(SignatureFilterSizeConfigEnvName, defaultSignatureFilterSize),
		}
	}
}

// WithFileConfigs returns configuration pulled from the ledger section of a
// viper instance, keyed by the lower cased env names without their prefix
// (for example ledger.lamports_per_signature).
func WithFileConfigs(v *viper.Viper) ConfigProvider {
	key := func(envName string) string {
		return "ledger." + strings.ToLower(strings.TrimPrefix(envName, envConfigPrefix))
	}

	return func() *conf {
		return &conf{
			lamportsPerSignature:    file.NewUint64Config(v, key(LamportsPerSignatureConfigEnvName), defaultLamportsPerSignature),
			lockStripes:             file.NewUint64Config(v, key(LockStripesConfigEnvName), defaultLockStripes),
			rentLamportsPerByteYear: file.NewUint64Config(v, key(RentLamportsPerByteYearConfigEnvName), defaultRentLamportsPerByteYear),
			rentExemptionThreshold:  file.NewUint64Config(v, key(RentExemptionThresholdConfigEnvName), defaultRentExemptionThreshold),
			signatureFilterSize:     file.NewUint64Config(v, key(SignatureFilterSizeConfigEnvName), defaultSignatureFilterSize),
		}
	}
}

type testOverrides struct {
	lamportsPerSignature uint64
	lockStripes          uint64
}

func withManualTestOverrides(overrides *testOverrides) ConfigProvider {
	return func() *conf {
		return &conf{
			lamportsPerSignature:    wrapper.NewUint64Config(memory.NewConfig(overrides.lamportsPerSignature), defaultLamportsPerSignature),
			lockStripes:             wrapper.NewUint64Config(memory.NewConfig(overrides.lockStripes), defaultLockStripes),
			rentLamportsPerByteYear: wrapper.NewUint64Config(memory.NewConfig(uint64(defaultRentLamportsPerByteYear)), defaultRentLamportsPerByteYear),
			rentExemptionThreshold:  wrapper.NewUint64Config(memory.NewConfig(uint64(defaultRentExemptionThreshold)), defaultRentExemptionThreshold),
			signatureFilterSize:     wrapper.NewUint64Config(memory.NewConfig(uint64(1000)), defaultSignatureFilterSize),
		}
	}
}
