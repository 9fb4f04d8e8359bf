// Package testinfra starts the containers used by the integration tier.
package testinfra

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	PostgresImage    = "postgres:17-alpine"
	PostgresUser     = "postgres"
	PostgresPassword = "postgres"
	PostgresDB       = "fscat"

	MinIOImage     = "minio/minio:RELEASE.2024-12-18T13-15-44Z"
	MinIOAccessKey = "fscat"
	MinIOSecretKey = "fscat-secret"
	minioPort      = "9000/tcp"
)

type PostgresContainer struct {
	*postgres.PostgresContainer
	ConnString string
}

// recoverStart turns a panic raised while starting a container into an
// error. testcontainers panics when no Docker host can be found.
func recoverStart(name string, errp *error) {
	if r := recover(); r != nil {
		*errp = fmt.Errorf("start %s: docker unavailable: %v", name, r)
	}
}

func StartPostgres(ctx context.Context) (_ *PostgresContainer, err error) {
	defer recoverStart("postgres", &err)

	ctr, err := postgres.Run(ctx,
		PostgresImage,
		postgres.WithUsername(PostgresUser),
		postgres.WithPassword(PostgresPassword),
		postgres.WithDatabase(PostgresDB),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("start postgres: %w", err)
	}

	connStr, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		ctr.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get connection string: %w", err)
	}

	return &PostgresContainer{PostgresContainer: ctr, ConnString: connStr}, nil
}

type MinIOContainer struct {
	testcontainers.Container
	Endpoint  string
	AccessKey string
	SecretKey string
}

func StartMinIO(ctx context.Context) (_ *MinIOContainer, err error) {
	defer recoverStart("minio", &err)

	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        MinIOImage,
			ExposedPorts: []string{minioPort},
			Cmd:          []string{"server", "/data"},
			Env: map[string]string{
				"MINIO_ROOT_USER":     MinIOAccessKey,
				"MINIO_ROOT_PASSWORD": MinIOSecretKey,
			},
			WaitingFor: wait.ForHTTP("/minio/health/live").
				WithPort(minioPort).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("start minio: %w", err)
	}

	endpoint, err := ctr.PortEndpoint(ctx, minioPort, "http")
	if err != nil {
		ctr.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get minio endpoint: %w", err)
	}

	return &MinIOContainer{
		Container: ctr,
		Endpoint:  endpoint,
		AccessKey: MinIOAccessKey,
		SecretKey: MinIOSecretKey,
	}, nil
}
