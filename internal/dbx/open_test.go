package dbx

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

var (
	_ DBTX = (*sql.DB)(nil)
	_ DBTX = (*sql.Tx)(nil)
)

func TestOpen_PingsDatabase(t *testing.T) {
	db, err := Open(context.Background(), "sqlite", "file:dbx_open?mode=memory", time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var h DBTX = db
	_, err = h.ExecContext(context.Background(), `CREATE TABLE t (id INTEGER PRIMARY KEY, v TEXT)`)
	require.NoError(t, err)
	_, err = h.ExecContext(context.Background(), `INSERT INTO t (v) VALUES (?)`, "x")
	require.NoError(t, err)

	var n int
	require.NoError(t, h.QueryRowContext(context.Background(), `SELECT COUNT(*) FROM t`).Scan(&n))
	require.Equal(t, 1, n)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "nope", "", time.Second)
	require.Error(t, err)
}

func TestOpen_PingFailureClosesPool(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Open(ctx, "sqlite", "file:dbx_cancelled?mode=memory", time.Second)
	require.Error(t, err)
}
