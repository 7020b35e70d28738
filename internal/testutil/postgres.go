// Package testutil provides test helpers including container management
// for SDE store integration tests.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/korallis/eve-cortex/internal/config"
	"github.com/korallis/eve-cortex/internal/storage/postgres"
)

// PostgresContainer wraps a testcontainers PostgreSQL instance.
type PostgresContainer struct {
	container testcontainers.Container
	Pool      *postgres.Pool
	RawPool   *pgxpool.Pool
	Config    config.DatabaseConfig
}

// NewPostgresContainer starts a PostgreSQL test container and returns
// a connected Pool.
//
// Precondition: Docker must be available.
// Postcondition: Returns a running container with a connected pool,
// or fails the test.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()
	ctx := context.Background()
	start := time.Now()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(30 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("starting postgres container: %v [%s]", err, time.Since(start))
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("getting container host: %v", err)
	}

	mappedPort, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("getting mapped port: %v", err)
	}

	dbCfg := config.DatabaseConfig{
		Host:            host,
		Port:            mappedPort.Int(),
		User:            "test",
		Password:        "test",
		Name:            "test",
		SSLMode:         "disable",
		MaxConns:        5,
		MinConns:        1,
		MaxConnLifetime: 5 * time.Minute,
	}

	pool, err := postgres.NewPool(ctx, dbCfg)
	if err != nil {
		t.Fatalf("connecting to test postgres: %v [%s]", err, time.Since(start))
	}

	t.Logf("postgres container started [%s]", time.Since(start))

	pc := &PostgresContainer{
		container: container,
		Pool:      pool,
		RawPool:   pool.DB(),
		Config:    dbCfg,
	}

	t.Cleanup(func() {
		pool.Close()
		_ = container.Terminate(ctx)
	})

	return pc
}

// ApplySDESchema runs the SDE schema creation SQL directly for tests.
// This avoids requiring the migrate tool in the test environment.
//
// Precondition: Pool must be connected.
// Postcondition: The SDE tables exist in the test database.
func (pc *PostgresContainer) ApplySDESchema(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	start := time.Now()

	schema := `
		CREATE TABLE IF NOT EXISTS attribute_defs (
			id            INTEGER          PRIMARY KEY,
			name          VARCHAR(128)     NOT NULL,
			display_name  VARCHAR(256)     NOT NULL DEFAULT '',
			default_value DOUBLE PRECISION NOT NULL DEFAULT 0,
			high_is_good  BOOLEAN          NOT NULL DEFAULT TRUE,
			stackable     BOOLEAN          NOT NULL DEFAULT TRUE
		);
		CREATE TABLE IF NOT EXISTS eve_types (
			id          INTEGER      PRIMARY KEY,
			name        VARCHAR(256) NOT NULL,
			group_id    INTEGER      NOT NULL DEFAULT 0,
			category_id INTEGER      NOT NULL DEFAULT 0,
			slot        VARCHAR(16)  NOT NULL DEFAULT '',
			published   BOOLEAN      NOT NULL DEFAULT TRUE
		);
		CREATE INDEX IF NOT EXISTS idx_eve_types_name ON eve_types (lower(name));
		CREATE TABLE IF NOT EXISTS type_attributes (
			type_id      INTEGER          NOT NULL REFERENCES eve_types (id) ON DELETE CASCADE,
			attribute_id INTEGER          NOT NULL,
			value        DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (type_id, attribute_id)
		);
		CREATE TABLE IF NOT EXISTS type_effects (
			type_id      INTEGER          NOT NULL REFERENCES eve_types (id) ON DELETE CASCADE,
			name         VARCHAR(128)     NOT NULL,
			category     VARCHAR(16)      NOT NULL DEFAULT 'passive',
			attribute_id INTEGER          NOT NULL,
			op           VARCHAR(16)      NOT NULL,
			value        DOUBLE PRECISION NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_type_effects_type ON type_effects (type_id);
		CREATE TABLE IF NOT EXISTS skill_bonuses (
			ship_group_id INTEGER          NOT NULL,
			skill_type_id INTEGER          NOT NULL,
			attribute_id  INTEGER          NOT NULL,
			kind          VARCHAR(16)      NOT NULL DEFAULT 'linear',
			per_level     DOUBLE PRECISION NOT NULL,
			cap_level     INTEGER          NOT NULL DEFAULT 5,
			PRIMARY KEY (ship_group_id, skill_type_id, attribute_id)
		);
	`

	_, err := pc.RawPool.Exec(ctx, schema)
	if err != nil {
		t.Fatalf("applying SDE schema: %v", err)
	}
	t.Logf("SDE schema applied [%s]", time.Since(start))
}

// DSN returns the connection string for the test database.
func (pc *PostgresContainer) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		pc.Config.User, pc.Config.Password,
		pc.Config.Host, pc.Config.Port,
		pc.Config.Name, pc.Config.SSLMode,
	)
}
