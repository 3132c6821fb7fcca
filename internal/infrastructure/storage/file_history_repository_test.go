package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "oral-scan/internal/platform/errors"
)

func TestFileHistoryRepository_FileLayout(t *testing.T) {
	dir := t.TempDir()
	repo, err := NewFileHistoryRepository(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, repo.Append(ctx, "u1", newRecord("r0")))

	data, err := os.ReadFile(filepath.Join(dir, "u1_history.json"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(data), "[\n  {"), "indented array expected, got %q", string(data)[:10])

	var raw []map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw, 1)
	require.Equal(t, "u1", raw[0]["user_id"])

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not be left behind")
}

func TestFileHistoryRepository_CorruptedFile(t *testing.T) {
	dir := t.TempDir()
	repo, err := NewFileHistoryRepository(dir)
	require.NoError(t, err)
	ctx := context.Background()

	for _, content := range []string{`{"not":"an array"}`, `null`, ``, `[{]`} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "u1_history.json"), []byte(content), 0o644))

		_, _, err = repo.List(ctx, "u1", 0)
		require.True(t, apperrors.IsKind(err, apperrors.KindStorage), "content %q: %v", content, err)

		err = repo.Append(ctx, "u1", newRecord("r0"))
		require.True(t, apperrors.IsKind(err, apperrors.KindStorage))
	}
}

func TestFileHistoryRepository_DeleteLastRecordLeavesEmptyArray(t *testing.T) {
	dir := t.TempDir()
	repo, err := NewFileHistoryRepository(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, repo.Append(ctx, "u1", newRecord("r0")))
	require.NoError(t, repo.Delete(ctx, "u1", 0))

	data, err := os.ReadFile(filepath.Join(dir, "u1_history.json"))
	require.NoError(t, err)
	require.Equal(t, "[]", string(data))

	records, total, err := repo.List(ctx, "u1", 0)
	require.NoError(t, err)
	require.Empty(t, records)
	require.Equal(t, 0, total)
}

func TestNewFileHistoryRepository_RequiresDir(t *testing.T) {
	_, err := NewFileHistoryRepository("")
	require.True(t, apperrors.IsKind(err, apperrors.KindConfig))
}
