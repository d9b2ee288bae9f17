package cli

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	dbAuthPassword = "password"
	dbAuthIam      = "iam"
)

// Config is the CLI configuration, loaded from an optional config file and
// overridden by CUSTODY_* environment variables and flags.
type Config struct {
	LogLevel string `mapstructure:"log_level"`

	AppName string `mapstructure:"app_name"`

	// Tracing is enabled when a license key is provided
	NewRelicLicenseKey string `mapstructure:"new_relic_license_key"`

	Database DatabaseConfig `mapstructure:"database"`
}

type DatabaseConfig struct {
	Host   string `mapstructure:"host"`
	Port   int    `mapstructure:"port"`
	User   string `mapstructure:"user"`
	DbName string `mapstructure:"db_name"`

	// Auth selects password or AWS RDS IAM authentication
	Auth     string `mapstructure:"auth"`
	Password string `mapstructure:"password"`

	MaxOpenConnections int `mapstructure:"max_open_connections"`
	MaxIdleConnections int `mapstructure:"max_idle_connections"`
}

var defaultConfig = Config{
	LogLevel: "info",

	AppName: "custody",

	Database: DatabaseConfig{
		Host:   "localhost",
		Port:   5432,
		User:   "postgres",
		DbName: "custody",
		Auth:   dbAuthPassword,

		MaxOpenConnections: 10,
		MaxIdleConnections: 2,
	},
}

func bindEnvs(v *viper.Viper) {
	_ = v.BindEnv("log_level", "CUSTODY_LOG_LEVEL")

	_ = v.BindEnv("app_name", "CUSTODY_APP_NAME")

	_ = v.BindEnv("new_relic_license_key", "NEW_RELIC_LICENSE_KEY")

	_ = v.BindEnv("database.host", "CUSTODY_DATABASE_HOST")
	_ = v.BindEnv("database.port", "CUSTODY_DATABASE_PORT")
	_ = v.BindEnv("database.user", "CUSTODY_DATABASE_USER")
	_ = v.BindEnv("database.db_name", "CUSTODY_DATABASE_DB_NAME")
	_ = v.BindEnv("database.auth", "CUSTODY_DATABASE_AUTH")
	_ = v.BindEnv("database.password", "CUSTODY_DATABASE_PASSWORD")
	_ = v.BindEnv("database.max_open_connections", "CUSTODY_DATABASE_MAX_OPEN_CONNECTIONS")
	_ = v.BindEnv("database.max_idle_connections", "CUSTODY_DATABASE_MAX_IDLE_CONNECTIONS")

	_ = v.BindEnv("ledger.lamports_per_signature", "LEDGER_LAMPORTS_PER_SIGNATURE")
	_ = v.BindEnv("ledger.rent_lamports_per_byte_year", "LEDGER_RENT_LAMPORTS_PER_BYTE_YEAR")
	_ = v.BindEnv("ledger.rent_exemption_threshold", "LEDGER_RENT_EXEMPTION_THRESHOLD")
	_ = v.BindEnv("ledger.lock_stripes", "LEDGER_LOCK_STRIPES")
	_ = v.BindEnv("ledger.signature_filter_size", "LEDGER_SIGNATURE_FILTER_SIZE")

	_ = v.BindEnv("custody_client.max_retries", "CUSTODY_CLIENT_MAX_RETRIES")
	_ = v.BindEnv("custody_client.retry_backoff", "CUSTODY_CLIENT_RETRY_BACKOFF")
	_ = v.BindEnv("custody_client.max_retry_backoff", "CUSTODY_CLIENT_MAX_RETRY_BACKOFF")
}

// loadConfig reads the config file at path, if it exists, into v and decodes
// the result over the defaults.
func loadConfig(v *viper.Viper, path string) (*Config, error) {
	bindEnvs(v)

	// viper only reports ConfigFileNotFoundError when it searches for a
	// default file, so a missing explicit path is checked here
	if len(path) > 0 {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, errors.Wrap(err, "failed to load config")
			}
		} else if !os.IsNotExist(err) {
			return nil, errors.Wrap(err, "failed to check if config exists")
		}
	}

	config := defaultConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	switch config.Database.Auth {
	case dbAuthPassword, dbAuthIam:
	default:
		return nil, errors.Errorf("unsupported database auth %q", config.Database.Auth)
	}

	return &config, nil
}
