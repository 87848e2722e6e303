package main

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractMigrationPart(t *testing.T) {
	content := `
-- +migrate Up
CREATE TABLE farmers (id int);
ALTER TABLE farmers ADD COLUMN full_name text;

-- +migrate Down
DROP TABLE farmers;
`
	t.Run("Extract Up", func(t *testing.T) {
		up := extractMigrationPart(content, "Up")
		assert.Contains(t, up, "CREATE TABLE farmers")
		assert.Contains(t, up, "ALTER TABLE farmers")
		assert.NotContains(t, up, "DROP TABLE farmers")
		assert.NotContains(t, up, "-- +migrate Up")
	})

	t.Run("Extract Down", func(t *testing.T) {
		down := extractMigrationPart(content, "Down")
		assert.Contains(t, down, "DROP TABLE farmers")
		assert.NotContains(t, down, "CREATE TABLE farmers")
	})

	t.Run("Missing section", func(t *testing.T) {
		assert.Empty(t, extractMigrationPart("-- +migrate Up\nSELECT 1;\n", "Down"))
	})
}

func TestShippedMigrations(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("..", "..", "migrations", "*.sql"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, f := range files {
		content, err := os.ReadFile(f)
		require.NoError(t, err)
		assert.NotEmpty(t, extractMigrationPart(string(content), "Up"), f)
		assert.NotEmpty(t, extractMigrationPart(string(content), "Down"), f)
	}

	content, err := os.ReadFile(files[0])
	require.NoError(t, err)
	up := extractMigrationPart(string(content), "Up")
	assert.Contains(t, up, "pg_notify('table_changes'")
	assert.Contains(t, up, "notifications_order_id_key")
	assert.Contains(t, up, "farmers_username_key")
	assert.Contains(t, up, "farmers_email_key")

	byName := make(map[string]string, len(files))
	for _, f := range files {
		content, err := os.ReadFile(f)
		require.NoError(t, err)
		byName[filepath.Base(f)] = extractMigrationPart(string(content), "Up")
	}
	assert.Contains(t, byName["20250103_order_notified_at.sql"], "notified_at TIMESTAMPTZ")
	assert.Contains(t, byName["20250104_farmer_email_case_insensitive.sql"], "ON farmers (lower(email))")
}

func writeMigration(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunMigrationsUp(t *testing.T) {
	ctx := context.Background()

	t.Run("AppliesPending", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		dir := t.TempDir()
		first := writeMigration(t, dir, "20250101_init.sql", "-- +migrate Up\nCREATE TABLE farmers (id int);\n-- +migrate Down\nDROP TABLE farmers;")
		second := writeMigration(t, dir, "20250102_more.sql", "-- +migrate Up\nCREATE TABLE orders (id int);")

		mock.ExpectQuery("SELECT EXISTS.*schema_migrations").
			WithArgs("20250101_init.sql").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		mock.ExpectQuery("SELECT EXISTS.*schema_migrations").
			WithArgs("20250102_more.sql").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectBegin()
		mock.ExpectExec("CREATE TABLE orders").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("INSERT INTO schema_migrations").
			WithArgs("20250102_more.sql").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		n, err := runMigrationsUp(ctx, db, []string{first, second})
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("FailureRollsBack", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		file := writeMigration(t, t.TempDir(), "20250101_bad.sql", "-- +migrate Up\nCREATE TABLE broken (;")

		mock.ExpectQuery("SELECT EXISTS.*schema_migrations").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectBegin()
		mock.ExpectExec("CREATE TABLE broken").WillReturnError(errors.New("syntax error"))
		mock.ExpectRollback()

		n, err := runMigrationsUp(ctx, db, []string{file})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "20250101_bad.sql")
		assert.Zero(t, n)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRunMigrationsDown(t *testing.T) {
	ctx := context.Background()

	t.Run("RollsBackLatest", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		file := writeMigration(t, t.TempDir(), "20250101_init.sql", "-- +migrate Up\nCREATE TABLE farmers (id int);\n-- +migrate Down\nDROP TABLE farmers;")

		mock.ExpectQuery("SELECT version FROM schema_migrations").
			WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow("20250101_init.sql"))
		mock.ExpectBegin()
		mock.ExpectExec("DROP TABLE farmers").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("DELETE FROM schema_migrations").
			WithArgs("20250101_init.sql").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, runMigrationsDown(ctx, db, []string{file}))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NothingApplied", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("SELECT version FROM schema_migrations").WillReturnError(sql.ErrNoRows)

		assert.NoError(t, runMigrationsDown(ctx, db, nil))
	})

	t.Run("MissingFile", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("SELECT version FROM schema_migrations").
			WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow("20240101_gone.sql"))

		err = runMigrationsDown(ctx, db, nil)
		assert.ErrorContains(t, err, "migration file not found")
	})
}

func TestRun_UnknownMode(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))

	err = run(context.Background(), db, "sideways", t.TempDir())
	assert.ErrorContains(t, err, "unknown mode")
}

func TestDSNFromEnv(t *testing.T) {
	t.Setenv("DB_HOST", "")
	assert.Empty(t, dsnFromEnv())

	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_USER", "keells")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("DB_NAME", "farm")
	t.Setenv("DB_PORT", "")
	t.Setenv("DB_SSLMODE", "")
	assert.Equal(t, "host=db user=keells password=pw dbname=farm port=5432 sslmode=disable", dsnFromEnv())
}
