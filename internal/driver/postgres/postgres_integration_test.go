package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/fluxef/dbforge/internal/config"
)

func setupPostgresContainer(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("dbforge_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("testpass"),
	)
	require.NoError(t, err, "failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")
	return dsn
}

func TestDriver_IsEmptyAndIntrospect(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	dsn := setupPostgresContainer(t)
	ctx := context.Background()

	d, err := Open(ctx, dsn)
	require.NoError(t, err)
	defer func() { _ = d.Close() }()

	empty, err := d.IsEmpty(ctx)
	require.NoError(t, err)
	assert.True(t, empty)

	pgDriver := d.(*Driver)
	_, err = pgDriver.db.ExecContext(ctx, `
CREATE TABLE customers (
  id SERIAL PRIMARY KEY,
  name VARCHAR(255) NOT NULL,
  balance NUMERIC(10,2) NULL
)`)
	require.NoError(t, err)

	empty, err = d.IsEmpty(ctx)
	require.NoError(t, err)
	assert.False(t, empty)

	cfg, err := config.Default()
	require.NoError(t, err)

	s, err := d.Introspect(ctx, cfg)
	require.NoError(t, err)
	require.Len(t, s.Tables, 1)
	assert.Equal(t, "customers", s.Tables[0].Name)

	idCol := s.Tables[0].ColumnByName("id")
	require.NotNil(t, idCol)
	assert.True(t, idCol.IsPrimaryKey)

	n, err := d.RowCount(ctx, "customers")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), n)
}
