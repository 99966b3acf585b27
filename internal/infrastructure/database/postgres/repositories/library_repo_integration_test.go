//go:build integration

package repositories_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/turtacn/KeyIP-Substructure/internal/config"
	"github.com/turtacn/KeyIP-Substructure/internal/domain/molecule"
	"github.com/turtacn/KeyIP-Substructure/internal/infrastructure/database/postgres"
	"github.com/turtacn/KeyIP-Substructure/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/KeyIP-Substructure/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Substructure/pkg/errors"
)

// startPostgres launches a PostgreSQL 16 container, migrates it and returns a pool.
func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "test",
				"POSTGRES_PASSWORD": "test",
				"POSTGRES_DB":       "keyip_test",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)
	p, err := strconv.Atoi(port.Port())
	require.NoError(t, err)

	cfg := config.DatabaseConfig{
		Host:          host,
		Port:          p,
		User:          "test",
		Password:      "test",
		DBName:        "keyip_test",
		MigrationPath: "file://../../../../../migrations",
	}
	log := logging.NewNopLogger()
	require.NoError(t, postgres.RunMigrations(cfg, log))

	pool, err := postgres.NewConnectionPool(cfg, log)
	require.NoError(t, err)
	t.Cleanup(func() { postgres.Close(pool) })
	return pool
}

func TestLibraryRepository_RoundTrip(t *testing.T) {
	pool := startPostgres(t)
	repo := repositories.NewLibraryRepository(pool, logging.NewNopLogger(), nil)
	ctx := context.Background()

	require.NoError(t, repo.CreateLibrary(ctx, &molecule.Library{ID: "lib-1", Name: "fragments"}))
	err := repo.CreateLibrary(ctx, &molecule.Library{ID: "lib-2", Name: "fragments"})
	assert.True(t, errors.IsCode(err, errors.CodeConflict))

	for i, name := range []string{"benzene", "pyrrole", "ethanol"} {
		require.NoError(t, repo.SaveEntry(ctx, &molecule.LibraryEntry{
			ID:          "e-" + strconv.Itoa(i),
			LibraryID:   "lib-1",
			Name:        name,
			AtomCount:   i + 3,
			Composition: molecule.Composition{6: i + 2},
			ObjectKey:   "lib-1/" + name + ".mol",
			Fingerprint: uint64(1)<<63 | uint64(i),
		}))
	}

	n, err := repo.CountEntries(ctx, "lib-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	page, err := repo.ListEntries(ctx, "lib-1", 1, 5)
	require.NoError(t, err)
	assert.Len(t, page, 2)

	e, err := repo.GetEntry(ctx, "e-0")
	require.NoError(t, err)
	assert.Equal(t, uint64(1)<<63, e.Fingerprint)
	assert.Equal(t, 2, e.Composition[6])

	_, err = repo.GetLibrary(ctx, "missing")
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))
}

//Personal.AI order the ending
