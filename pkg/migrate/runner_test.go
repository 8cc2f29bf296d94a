package migrate

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"testing"
	"testing/fstest"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/wishlify/wishlify-backend/pkg/logger"
)

func newSQLiteDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return sqlDB
}

func testMigrations() fstest.MapFS {
	return fstest.MapFS{
		"20260101000000_create_lists.sql": {Data: []byte(
			"-- +goose Up\nCREATE TABLE lists (id TEXT PRIMARY KEY);\n\n-- +goose Down\nDROP TABLE lists;\n")},
		"20260101000100_create_clicks.sql": {Data: []byte(
			"-- +goose Up\nCREATE TABLE clicks (id TEXT PRIMARY KEY);\n\n-- +goose Down\nDROP TABLE clicks;\n")},
	}
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&n))
	return n == 1
}

func TestRunnerUpDownAndVersion(t *testing.T) {
	db := newSQLiteDB(t)
	buf := &bytes.Buffer{}
	runner, err := newRunner(goose.DialectSQLite3, db, testMigrations(), logger.New(logger.Options{ServiceName: "test", Output: buf}))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, runner.Run(ctx, "up"))
	version, err := runner.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(20260101000100), version)
	assert.True(t, tableExists(t, db, "clicks"))
	assert.Contains(t, buf.String(), `"message":"migrate.applied"`)

	require.NoError(t, runner.MigrateToVersion(ctx, "20260101000000"))
	version, err = runner.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(20260101000000), version)
	assert.False(t, tableExists(t, db, "clicks"))
	assert.True(t, tableExists(t, db, "lists"))

	require.NoError(t, runner.Run(ctx, "status"))
	require.NoError(t, runner.Run(ctx, "down"))
	assert.False(t, tableExists(t, db, "lists"))
}

func TestRunnerRejectsBadInput(t *testing.T) {
	_, err := newRunner(goose.DialectSQLite3, nil, testMigrations(), nil)
	require.Error(t, err)

	runner, err := newRunner(goose.DialectSQLite3, newSQLiteDB(t), testMigrations(), nil)
	require.NoError(t, err)
	assert.Error(t, runner.Run(context.Background(), "redo-all"))
	assert.Error(t, runner.MigrateToVersion(context.Background(), "latest"))
}
