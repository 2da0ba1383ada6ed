package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/database"
)

func openTestConnection(t *testing.T) database.Connection {
	t.Helper()
	conn, err := NewConnection(context.Background(), database.Config{
		Driver:     database.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "nested", "cadence.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestNewConnection_CreatesDirectory(t *testing.T) {
	conn := openTestConnection(t)

	assert.NoError(t, conn.Ping(context.Background()))
	assert.Equal(t, database.DriverSQLite, conn.Driver())
	assert.NotNil(t, conn.(database.SQLDBProvider).SQLDB())
}

func TestNewConnection_RegisteredWithFactory(t *testing.T) {
	conn, err := database.NewConnection(context.Background(), database.Config{
		SQLitePath: filepath.Join(t.TempDir(), "factory.db"),
	})
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, database.DriverSQLite, conn.Driver())
}

func TestConnection_ExecAndQuery(t *testing.T) {
	ctx := context.Background()
	conn := openTestConnection(t)

	_, err := conn.Exec(ctx, `CREATE TABLE people (id TEXT PRIMARY KEY, name TEXT)`)
	require.NoError(t, err)

	result, err := conn.Exec(ctx, `INSERT INTO people (id, name) VALUES (?, ?), (?, ?)`, "1", "Ada", "2", "Grace")
	require.NoError(t, err)
	affected, err := result.RowsAffected()
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)

	var name string
	require.NoError(t, conn.QueryRow(ctx, `SELECT name FROM people WHERE id = ?`, "2").Scan(&name))
	assert.Equal(t, "Grace", name)

	rows, err := conn.Query(ctx, `SELECT name FROM people ORDER BY id`)
	require.NoError(t, err)
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		require.NoError(t, rows.Scan(&n))
		names = append(names, n)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"Ada", "Grace"}, names)
}

func TestConnection_Transaction(t *testing.T) {
	ctx := context.Background()
	conn := openTestConnection(t)

	_, err := conn.Exec(ctx, `CREATE TABLE people (id TEXT PRIMARY KEY, name TEXT)`)
	require.NoError(t, err)

	tx, err := conn.BeginTx(ctx)
	require.NoError(t, err)
	_, err = tx.Exec(ctx, `INSERT INTO people (id, name) VALUES (?, ?)`, "1", "Ada")
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))

	tx, err = conn.BeginTx(ctx)
	require.NoError(t, err)
	_, err = tx.Exec(ctx, `INSERT INTO people (id, name) VALUES (?, ?)`, "2", "Grace")
	require.NoError(t, err)
	require.NoError(t, tx.Rollback(ctx))

	var count int
	require.NoError(t, conn.QueryRow(ctx, `SELECT COUNT(*) FROM people`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestDatabaseUnitOfWork_UsesTransactionExecutor(t *testing.T) {
	ctx := context.Background()
	conn := openTestConnection(t)
	_, err := conn.Exec(ctx, `CREATE TABLE people (id TEXT PRIMARY KEY, name TEXT)`)
	require.NoError(t, err)

	uow := database.NewUnitOfWork(conn)
	txCtx, err := uow.Begin(ctx)
	require.NoError(t, err)

	exec := database.ExecutorFromContext(txCtx, conn)
	_, err = exec.Exec(txCtx, `INSERT INTO people (id, name) VALUES (?, ?)`, "1", "Ada")
	require.NoError(t, err)

	var count int
	require.NoError(t, exec.QueryRow(txCtx, `SELECT COUNT(*) FROM people`).Scan(&count))
	assert.Equal(t, 1, count)

	require.NoError(t, uow.Rollback(txCtx))
	require.NoError(t, conn.QueryRow(ctx, `SELECT COUNT(*) FROM people`).Scan(&count))
	assert.Equal(t, 0, count)
}
