package test

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	_ "github.com/jackc/pgx/v4/stdlib" //nolint:revive

	"github.com/code-payments/custody-server/pkg/retry"
	"github.com/code-payments/custody-server/pkg/retry/backoff"
)

const (
	image    = "postgres"
	imageTag = "14-alpine"

	// Docker kills the container after this, even if the test binary crashes
	// before purging it
	containerTTL = 5 * time.Minute

	user     = "localtest"
	password = "localpassword"
	dbname   = "testdb"
)

// StartPostgresDB runs a throwaway postgres container and returns a client
// once the server accepts connections. closeFunc closes the client and purges
// the container.
func StartPostgresDB(pool *dockertest.Pool) (db *sql.DB, closeFunc func(), err error) {
	log := logrus.StandardLogger().WithField("type", "database/postgres/test")

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: image,
		Tag:        imageTag,
		Env: []string{
			"POSTGRES_USER=" + user,
			"POSTGRES_PASSWORD=" + password,
			"POSTGRES_DB=" + dbname,
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		return nil, func() {}, errors.Wrap(err, "failed to start postgres container")
	}

	// Expire never fails
	_ = resource.Expire(uint(containerTTL.Seconds()))

	closeFunc = func() {
		if db != nil {
			db.Close()
		}
		if err := pool.Purge(resource); err != nil {
			log.WithError(err).Warn("failed to purge postgres container")
		}
	}

	url := fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=disable", user, password, resource.GetHostPort("5432/tcp"), dbname)

	attempts, err := retry.Retry(
		func() error {
			if db == nil {
				if db, err = sql.Open("pgx", url); err != nil {
					return err
				}
			}
			return db.Ping()
		},
		retry.Limit(60),
		retry.Backoff(backoff.Constant(500*time.Millisecond), time.Second),
	)
	if err != nil {
		closeFunc()
		return nil, func() {}, errors.Wrap(err, "timed out waiting for postgres container to become available")
	}

	log.WithField("attempts", attempts).Debug("postgres container ready")
	return db, closeFunc, nil
}
