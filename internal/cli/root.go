package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/code-payments/custody-server/pkg/metrics"
)

// state is shared by every command of a single invocation
type state struct {
	ctx    context.Context
	v      *viper.Viper
	config *Config
	log    *logrus.Entry

	configPath string

	app *newrelic.Application
	txn *newrelic.Transaction
}

// Execute runs the root command against os.Args.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func NewRootCommand() *cobra.Command {
	s := &state{
		ctx: context.Background(),
		v:   viper.New(),
		log: logrus.StandardLogger().WithField("type", "cli"),
	}

	cmd := &cobra.Command{
		Use:   "custody",
		Short: "Inspect the vault and escrow custody programs",
		Long: `custody derives the program addresses used by the vault and escrow
programs, and inspects their accounts in a postgres backed ledger.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return s.init(cmd.CommandPath())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			s.shutdown()
		},
	}

	cmd.PersistentFlags().StringVar(&s.configPath, "config", "config.yaml", "configuration file path")
	cmd.PersistentFlags().String("log-level", defaultConfig.LogLevel, "log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("db-auth", defaultConfig.Database.Auth, "database authentication: password or iam")

	_ = s.v.BindPFlag("log_level", cmd.PersistentFlags().Lookup("log-level"))
	_ = s.v.BindPFlag("database.auth", cmd.PersistentFlags().Lookup("db-auth"))

	cmd.AddCommand(
		newDeriveCommand(),
		newInspectCommand(s),
		newEscrowsCommand(s),
		newBalanceCommand(s),
	)

	return cmd
}

func (s *state) init(name string) error {
	config, err := loadConfig(s.v, s.configPath)
	if err != nil {
		return err
	}
	s.config = config

	// todo: Better abstraction so we're not directly tied to NR
	var metricsProvider *newrelic.Application
	if len(config.NewRelicLicenseKey) > 0 {
		metricsProvider, err = newrelic.NewApplication(
			newrelic.ConfigFromEnvironment(),
			newrelic.ConfigAppName(config.AppName),
			newrelic.ConfigLicense(config.NewRelicLicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
		)
		if err != nil {
			return errors.Wrap(err, "error connecting to new relic")
		}
		s.app = metricsProvider
		s.txn = metricsProvider.StartTransaction(name)
		s.ctx = newrelic.NewContext(metrics.NewContext(s.ctx, metricsProvider), s.txn)
	}

	configureLogger(config)
	return nil
}

func (s *state) shutdown() {
	if s.app == nil {
		return
	}

	s.txn.End()
	s.app.Shutdown(5 * time.Second)
}

func configureLogger(config *Config) {
	logrus.SetFormatter(&logrus.JSONFormatter{})

	level, err := logrus.ParseLevel(strings.ToLower(config.LogLevel))
	if err != nil {
		logrus.StandardLogger().WithField("log_level", config.LogLevel).Warn("unknown log level, ignoring")
	} else {
		logrus.SetLevel(level)
	}

	logrus.SetOutput(os.Stderr)
}
