package main

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docvault/internal/config"
	repoMemory "docvault/internal/repository/memory"
)

func TestBodyLimit(t *testing.T) {
	assert.Equal(t, 0, bodyLimit(0))
	assert.Equal(t, 10<<20+multipartOverhead, bodyLimit(10<<20))
}

func TestOpenRepository_Memory(t *testing.T) {
	var logs bytes.Buffer
	db, repo, err := openRepository(context.Background(), config.DatabaseConfig{Driver: config.DriverMemory}, slog.New(slog.NewJSONHandler(&logs, nil)))

	require.NoError(t, err)
	assert.Nil(t, db)
	assert.IsType(t, &repoMemory.DocumentMemory{}, repo)
	assert.Contains(t, logs.String(), "database_in_memory")
}

func TestOpenRepository_UnknownDriver(t *testing.T) {
	log := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))

	_, _, err := openRepository(context.Background(), config.DatabaseConfig{Driver: "mongo"}, log)
	assert.EqualError(t, err, `unsupported database driver "mongo"`)
}
