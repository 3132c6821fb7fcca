package main

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"oral-scan/config"
	"oral-scan/internal/domain/entity"
	"oral-scan/internal/infrastructure/storage"
)

func TestHistoryConfig_RedisPrefix(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := config.Default()
	cfg.Storage.Driver = storage.DriverRedis
	cfg.Storage.RedisAddr = mr.Addr()
	cfg.Storage.RedisPrefix = "oral:"

	repo, err := storage.NewHistoryRepository(historyConfig(cfg))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	require.NoError(t, repo.Append(context.Background(), "alice", entity.DetectionResult{ID: "1"}))
	require.True(t, mr.Exists("oral:alice"))
	require.False(t, mr.Exists("history:alice"))
	require.Equal(t, mr.Addr(), storagePath(cfg))
}

func TestStoragePath(t *testing.T) {
	cfg := config.Default()
	require.Equal(t, "./detections", storagePath(cfg))

	cfg.Storage.Driver = storage.DriverSQLite
	require.Equal(t, "./history.db", storagePath(cfg))
}
