package mysql

import (
	"context"
	"testing"
	"testing/fstest"

	xerrors "Starfish-Go/internal/errors"

	"github.com/DATA-DOG/go-sqlmock"
	driver "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withMigrations(t *testing.T, fsys fstest.MapFS) {
	t.Helper()
	original := embeddedMigrations
	embeddedMigrations = fsys
	t.Cleanup(func() { embeddedMigrations = original })
}

func TestLoadMigrationsOrdersByVersion(t *testing.T) {
	files, err := loadMigrations(fstest.MapFS{
		"10_later.sql": {Data: []byte("CREATE INDEX a ON t (c);")},
		"2_init.sql":   {Data: []byte("-- 构件表\nCREATE TABLE t (c INT);\nCREATE TABLE u (c INT);")},
		"3_empty.sql":  {Data: []byte("  ;  \n-- 无内容")},
		"README.md":    {Data: []byte("ignored")},
		"4_second.sql": {Data: []byte("ALTER TABLE t ADD d INT")},
	})
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, []int{2, 4, 10}, []int{files[0].version, files[1].version, files[2].version})
	assert.Equal(t, []string{"CREATE TABLE t (c INT)", "CREATE TABLE u (c INT)"}, files[0].statements)
}

func TestLoadMigrationsRejectsBadNames(t *testing.T) {
	_, err := loadMigrations(fstest.MapFS{"init.sql": {Data: []byte("SELECT 1")}})
	assert.Error(t, err)

	_, err = loadMigrations(fstest.MapFS{"v1_init.sql": {Data: []byte("SELECT 1")}})
	assert.Error(t, err)
}

func TestMigrateSkipsAppliedVersions(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	withMigrations(t, fstest.MapFS{
		"0001_init.sql": {Data: []byte("CREATE TABLE t (c INT);")},
		"0002_more.sql": {Data: []byte("CREATE TABLE u (c INT);")},
	})

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS artifact_schema").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT MAX\\(version\\) FROM artifact_schema").
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(1))
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE u").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO artifact_schema").WithArgs(2, "0002_more.sql").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, Migrate(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateToleratesExistingObjects(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	withMigrations(t, fstest.MapFS{
		"0001_init.sql": {Data: []byte("CREATE INDEX idx ON t (c);")},
	})

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS artifact_schema").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT MAX\\(version\\)").WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(nil))
	mock.ExpectBegin()
	mock.ExpectExec("CREATE INDEX idx").WillReturnError(&driver.MySQLError{Number: errDuplicateName, Message: "Duplicate key name 'idx'"})
	mock.ExpectExec("INSERT INTO artifact_schema").WithArgs(1, "0001_init.sql").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, Migrate(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateRollsBackOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	withMigrations(t, fstest.MapFS{
		"0001_init.sql": {Data: []byte("CREATE TABLE t (c INT);")},
	})

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS artifact_schema").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT MAX\\(version\\)").WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(nil))
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE t").WillReturnError(&driver.MySQLError{Number: 1142, Message: "command denied"})
	mock.ExpectRollback()

	err = Migrate(context.Background(), db)
	require.Error(t, err)
	assert.True(t, xerrors.IsCode(err, xerrors.CodeStorageFailure))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmbeddedMigrationsCreateArtifactTable(t *testing.T) {
	files, err := loadMigrations(embeddedMigrations)
	require.NoError(t, err)
	require.NotEmpty(t, files)
	assert.Equal(t, 1, files[0].version)
	assert.Contains(t, files[0].statements[0], "contract_artifacts")
}

func TestOpenValidatesDSN(t *testing.T) {
	_, err := Open(context.Background(), Config{})
	assert.True(t, xerrors.IsCode(err, xerrors.CodeInvalidArgument))

	_, err = Open(context.Background(), Config{DSN: "not a dsn"})
	assert.True(t, xerrors.IsCode(err, xerrors.CodeInvalidArgument))
}
