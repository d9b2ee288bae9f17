package cli

import (
	"database/sql"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/external"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/custody-server/pkg/custody"
	pg "github.com/code-payments/custody-server/pkg/database/postgres"
	"github.com/code-payments/custody-server/pkg/ledger"
	ledger_postgres "github.com/code-payments/custody-server/pkg/ledger/postgres"
)

// openDatabase connects to the ledger database with the configured
// authentication method.
func (s *state) openDatabase() (*sql.DB, error) {
	dbConfig := s.config.Database

	var awsConfig *aws.Config
	if dbConfig.Auth == dbAuthIam {
		loaded, err := external.LoadDefaultAWSConfig()
		if err != nil {
			return nil, errors.Wrap(err, "error loading aws config")
		}
		awsConfig = &loaded
	}

	db, err := pg.NewFromConfig(&pg.Config{
		User:               dbConfig.User,
		Host:               dbConfig.Host,
		Password:           dbConfig.Password,
		Port:               dbConfig.Port,
		DbName:             dbConfig.DbName,
		MaxOpenConnections: dbConfig.MaxOpenConnections,
		MaxIdleConnections: dbConfig.MaxIdleConnections,
	}, awsConfig)
	if err != nil {
		return nil, errors.Wrap(err, "error connecting to database")
	}

	s.log.WithFields(logrus.Fields{
		"host": dbConfig.Host,
		"auth": dbConfig.Auth,
	}).Debug("connected to ledger database")
	return db, nil
}

// openClient returns a custody client over the postgres ledger. The returned
// func closes the database.
func (s *state) openClient() (*ledger.Bank, *custody.Client, func(), error) {
	db, err := s.openDatabase()
	if err != nil {
		return nil, nil, nil, err
	}

	bank := custody.NewBank(ledger_postgres.New(db), ledger.WithFileConfigs(s.v))
	client := custody.NewClient(bank, custody.WithFileConfigs(s.v))

	closeFunc := func() {
		if err := db.Close(); err != nil {
			s.log.WithError(err).Warn("failure closing database")
		}
	}
	return bank, client, closeFunc, nil
}
