package migration

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, nil))
}

func TestEnsureMigrated_Fresh(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(sentinelQuery)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	for _, step := range steps {
		mock.ExpectExec(regexp.QuoteMeta(step.SQL)).WillReturnResult(sqlmock.NewResult(0, 0))
	}

	var logs bytes.Buffer
	err = EnsureMigrated(context.Background(), db, newLogger(&logs), "localhost")

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Contains(t, logs.String(), `"msg":"db_migration_success"`)
	assert.Equal(t, len(steps), strings.Count(logs.String(), `"msg":"db_migration_step"`))
}

func TestEnsureMigrated_AlreadyMigrated(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(sentinelQuery)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	var logs bytes.Buffer
	err = EnsureMigrated(context.Background(), db, newLogger(&logs), "localhost")

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Contains(t, logs.String(), `"msg":"db_migration_skip"`)
}

func TestEnsureMigrated_SentinelError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(sentinelQuery)).WillReturnError(errors.New("connection refused"))

	var logs bytes.Buffer
	err = EnsureMigrated(context.Background(), db, newLogger(&logs), "db.internal")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to check sentinel table")
	assert.Contains(t, logs.String(), `"level":"ERROR"`)
	assert.Contains(t, logs.String(), `"db_host":"db.internal"`)
}

func TestEnsureMigrated_StepError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(sentinelQuery)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(regexp.QuoteMeta(steps[0].SQL)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(steps[1].SQL)).WillReturnError(errors.New("permission denied"))

	var logs bytes.Buffer
	err = EnsureMigrated(context.Background(), db, newLogger(&logs), "localhost")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "migration step create_table_documents failed")
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Contains(t, logs.String(), `"migration_step":"create_table_documents"`)
}

func TestEnsureMigrated_ResumesAfterFailedIndexStep(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	last := steps[len(steps)-1]

	// First start: table is created, index creation fails.
	mock.ExpectQuery(regexp.QuoteMeta(sentinelQuery)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	for _, step := range steps[:len(steps)-1] {
		mock.ExpectExec(regexp.QuoteMeta(step.SQL)).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectExec(regexp.QuoteMeta(last.SQL)).WillReturnError(errors.New("canceling statement due to lock timeout"))

	// Second start: the index is still missing, so every step runs again.
	mock.ExpectQuery(regexp.QuoteMeta(sentinelQuery)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	for _, step := range steps {
		mock.ExpectExec(regexp.QuoteMeta(step.SQL)).WillReturnResult(sqlmock.NewResult(0, 0))
	}

	var logs bytes.Buffer
	log := newLogger(&logs)

	err = EnsureMigrated(context.Background(), db, log, "localhost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migration step "+last.Name+" failed")

	err = EnsureMigrated(context.Background(), db, log, "localhost")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.NotContains(t, logs.String(), `"msg":"db_migration_skip"`)
}

func TestSentinel_TracksLastStep(t *testing.T) {
	last := steps[len(steps)-1]
	assert.Contains(t, last.SQL, "idx_documents_owner_created_at")
	assert.Contains(t, sentinelQuery, "idx_documents_owner_created_at")
}

func TestSteps_Schema(t *testing.T) {
	var table string
	for _, s := range steps {
		if s.Name == "create_table_documents" {
			table = s.SQL
		}
	}
	require.NotEmpty(t, table)
	for _, col := range []string{"user_id", "original_name", "mime_type", "size", "bucket", "storage_key", "url", "created_at"} {
		assert.Contains(t, table, col)
	}
	assert.Regexp(t, `storage_key\s+TEXT\s+NOT NULL UNIQUE`, table)
}
