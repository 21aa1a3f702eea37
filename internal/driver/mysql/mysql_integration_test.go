package mysql

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcmysql "github.com/testcontainers/testcontainers-go/modules/mysql"

	"github.com/fluxef/dbforge/internal/config"
)

func setupMySQLContainer(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := tcmysql.Run(ctx, "mysql:8.0",
		tcmysql.WithDatabase("dbforge_test"),
		tcmysql.WithUsername("root"),
		tcmysql.WithPassword("testpass"),
	)
	require.NoError(t, err, "failed to start MySQL container")
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "3306/tcp")
	require.NoError(t, err)

	return "mysql://root:testpass@" + host + ":" + port.Port() + "/dbforge_test"
}

func TestDriver_IsEmptyAndIntrospect(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	dsn := setupMySQLContainer(t)
	ctx := context.Background()

	d, err := Open(ctx, dsn)
	require.NoError(t, err)
	defer func() { _ = d.Close() }()

	empty, err := d.IsEmpty(ctx)
	require.NoError(t, err)
	assert.True(t, empty)

	myDriver := d.(*Driver)
	_, err = myDriver.db.ExecContext(ctx, `
CREATE TABLE customers (
  id INT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
  name VARCHAR(255) NOT NULL,
  balance DECIMAL(10,2) NULL
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
	assert.True(t, idCol.AutoIncrement)

	n, err := d.RowCount(ctx, "customers")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), n)
}
