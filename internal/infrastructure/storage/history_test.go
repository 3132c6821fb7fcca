package storage

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"oral-scan/internal/domain/entity"
	"oral-scan/internal/domain/port"
	apperrors "oral-scan/internal/platform/errors"
)

func newRecord(id string) entity.DetectionResult {
	return entity.DetectionResult{
		ID:         id,
		Disease:    entity.LesionGingivitis,
		Confidence: 76,
		Detections: []entity.Detection{
			{Type: entity.LesionGingivitis, Confidence: 76, BBox: entity.BoundingBox{X: 1, Y: 2, Width: 3, Height: 4}},
		},
		DiseaseProbabilities: entity.DiseaseProbabilities{entity.DiseaseCrohns: 33.33},
		Timestamp:            time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		UserID:               "u1",
	}
}

func ids(records []entity.DetectionResult) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func newTestRepositories(t *testing.T) map[string]port.HistoryRepository {
	t.Helper()

	fileRepo, err := NewFileHistoryRepository(t.TempDir())
	require.NoError(t, err)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	redisRepo, err := NewRedisHistoryRepository(RedisOptions{Addr: mr.Addr()})
	require.NoError(t, err)

	dsn := fmt.Sprintf("file:history-%d?mode=memory&cache=shared", time.Now().UnixNano())
	sqliteRepo, err := OpenSQLiteHistoryRepository(dsn)
	require.NoError(t, err)

	repos := map[string]port.HistoryRepository{
		DriverFile:   fileRepo,
		DriverRedis:  redisRepo,
		DriverSQLite: sqliteRepo,
	}
	t.Cleanup(func() {
		for _, r := range repos {
			_ = r.Close()
		}
	})
	return repos
}

func TestHistoryRepositories_EmptyHistory(t *testing.T) {
	ctx := context.Background()
	for name, repo := range newTestRepositories(t) {
		t.Run(name, func(t *testing.T) {
			records, total, err := repo.List(ctx, "u1", 50)
			require.NoError(t, err)
			require.Empty(t, records)
			require.NotNil(t, records)
			require.Equal(t, 0, total)
		})
	}
}

func TestHistoryRepositories_AppendAndList(t *testing.T) {
	ctx := context.Background()
	for name, repo := range newTestRepositories(t) {
		t.Run(name, func(t *testing.T) {
			for i := 0; i < 5; i++ {
				require.NoError(t, repo.Append(ctx, "u1", newRecord(fmt.Sprintf("r%d", i))))
			}

			all, total, err := repo.List(ctx, "u1", 0)
			require.NoError(t, err)
			require.Equal(t, 5, total)
			require.Equal(t, []string{"r0", "r1", "r2", "r3", "r4"}, ids(all))
			require.Equal(t, newRecord("r0"), all[0])

			last, total, err := repo.List(ctx, "u1", 2)
			require.NoError(t, err)
			require.Equal(t, 5, total)
			require.Equal(t, []string{"r3", "r4"}, ids(last))

			more, total, err := repo.List(ctx, "u1", 50)
			require.NoError(t, err)
			require.Equal(t, 5, total)
			require.Len(t, more, 5)

			other, total, err := repo.List(ctx, "u2", 0)
			require.NoError(t, err)
			require.Empty(t, other)
			require.Equal(t, 0, total)
		})
	}
}

func TestHistoryRepositories_Delete(t *testing.T) {
	ctx := context.Background()
	for name, repo := range newTestRepositories(t) {
		t.Run(name, func(t *testing.T) {
			err := repo.Delete(ctx, "u1", 0)
			require.True(t, apperrors.IsKind(err, apperrors.KindNotFound), "missing history: %v", err)

			for i := 0; i < 4; i++ {
				require.NoError(t, repo.Append(ctx, "u1", newRecord(fmt.Sprintf("r%d", i))))
			}

			require.NoError(t, repo.Delete(ctx, "u1", 1))
			all, total, err := repo.List(ctx, "u1", 0)
			require.NoError(t, err)
			require.Equal(t, 3, total)
			require.Equal(t, []string{"r0", "r2", "r3"}, ids(all))

			err = repo.Delete(ctx, "u1", 3)
			require.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
			err = repo.Delete(ctx, "u1", -1)
			require.True(t, apperrors.IsKind(err, apperrors.KindNotFound))

			require.NoError(t, repo.Delete(ctx, "u1", 2))
			require.NoError(t, repo.Delete(ctx, "u1", 0))
			all, total, err = repo.List(ctx, "u1", 0)
			require.NoError(t, err)
			require.Equal(t, 1, total)
			require.Equal(t, []string{"r2"}, ids(all))
		})
	}
}

func TestHistoryRepositories_RejectInvalidUserID(t *testing.T) {
	ctx := context.Background()
	for name, repo := range newTestRepositories(t) {
		t.Run(name, func(t *testing.T) {
			for _, id := range []string{"", "../etc", "a/b", `a\b`} {
				err := repo.Append(ctx, id, newRecord("x"))
				require.True(t, apperrors.IsKind(err, apperrors.KindValidation), "user id %q", id)
			}
		})
	}
}

func TestHistoryRepositories_ConcurrentAppendsKeepEveryRecord(t *testing.T) {
	ctx := context.Background()
	for name, repo := range newTestRepositories(t) {
		t.Run(name, func(t *testing.T) {
			const writers = 20
			var wg sync.WaitGroup
			errs := make(chan error, writers)
			for i := 0; i < writers; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					errs <- repo.Append(ctx, "busy", newRecord(fmt.Sprintf("c%d", i)))
				}(i)
			}
			wg.Wait()
			close(errs)
			for err := range errs {
				require.NoError(t, err)
			}

			_, total, err := repo.List(ctx, "busy", 0)
			require.NoError(t, err)
			require.Equal(t, writers, total)
		})
	}
}

func TestNewHistoryRepository_UnknownDriver(t *testing.T) {
	_, err := NewHistoryRepository(HistoryConfig{Driver: "mongo"})
	require.True(t, apperrors.IsKind(err, apperrors.KindConfig))

	repo, err := NewHistoryRepository(HistoryConfig{Dir: t.TempDir()})
	require.NoError(t, err)
	require.IsType(t, &FileHistoryRepository{}, repo)
}

func TestKeyedMutex_ReleasesEntries(t *testing.T) {
	k := newKeyedMutex()
	unlock := k.Lock("a")
	require.Len(t, k.locks, 1)
	unlock()
	require.Empty(t, k.locks)
}
