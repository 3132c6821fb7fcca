package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"oral-scan/internal/domain/entity"
	"oral-scan/internal/domain/port"
	apperrors "oral-scan/internal/platform/errors"
)

const (
	defaultRedisPrefix = "history:"
	maxTxRetries       = 5
)

// RedisOptions параметры подключения к Redis.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// RedisHistoryRepository хранит историю пользователя Redis-списком.
type RedisHistoryRepository struct {
	client *redis.Client
	prefix string
}

// NewRedisHistoryRepository подключается к Redis и проверяет соединение.
func NewRedisHistoryRepository(opts RedisOptions) (*RedisHistoryRepository, error) {
	const op = "history.redis.new"
	if opts.Addr == "" {
		return nil, apperrors.New(apperrors.KindConfig, op, "redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: 10 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, apperrors.Wrap(apperrors.KindStorage, op, "redis ping failed", err)
	}

	return newRedisHistoryRepository(client, opts.Prefix), nil
}

// newRedisHistoryRepository использует готовый клиент.
func newRedisHistoryRepository(client *redis.Client, prefix string) *RedisHistoryRepository {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisHistoryRepository{client: client, prefix: prefix}
}

func (r *RedisHistoryRepository) key(userID string) string {
	return r.prefix + userID
}

// Append добавляет запись в конец списка
func (r *RedisHistoryRepository) Append(ctx context.Context, userID string, record entity.DetectionResult) error {
	const op = "history.redis.append"
	if err := ValidateUserID(userID); err != nil {
		return err
	}

	data, err := json.Marshal(record)
	if err != nil {
		return apperrors.Wrap(apperrors.KindStorage, op, "encode record", err)
	}
	if err := r.client.RPush(ctx, r.key(userID), data).Err(); err != nil {
		return apperrors.Wrap(apperrors.KindStorage, op, "push record", err)
	}
	return nil
}

// List читает длину и хвост списка в одной транзакции
func (r *RedisHistoryRepository) List(ctx context.Context, userID string, limit int) ([]entity.DetectionResult, int, error) {
	const op = "history.redis.list"
	if err := ValidateUserID(userID); err != nil {
		return nil, 0, err
	}

	start := int64(0)
	if limit > 0 {
		start = -int64(limit)
	}

	var (
		lenCmd   *redis.IntCmd
		rangeCmd *redis.StringSliceCmd
	)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		lenCmd = pipe.LLen(ctx, r.key(userID))
		rangeCmd = pipe.LRange(ctx, r.key(userID), start, -1)
		return nil
	})
	if err != nil {
		return nil, 0, apperrors.Wrap(apperrors.KindStorage, op, "read history", err)
	}

	raw := rangeCmd.Val()
	records := make([]entity.DetectionResult, 0, len(raw))
	for _, item := range raw {
		var rec entity.DetectionResult
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			return nil, 0, apperrors.Wrap(apperrors.KindStorage, op, "history record is corrupted", err)
		}
		records = append(records, rec)
	}

	return records, int(lenCmd.Val()), nil
}

// Delete удаляет элемент по индексу: помечает его уникальным маркером и удаляет маркер.
// Список наблюдается через WATCH, конкурентное изменение приводит к повтору.
func (r *RedisHistoryRepository) Delete(ctx context.Context, userID string, index int) error {
	const op = "history.redis.delete"
	if err := ValidateUserID(userID); err != nil {
		return err
	}
	key := r.key(userID)
	tombstone := "__deleted__:" + uuid.NewString()

	txf := func(tx *redis.Tx) error {
		n, err := tx.LLen(ctx, key).Result()
		if err != nil {
			return err
		}
		if index < 0 || int64(index) >= n {
			return errDetectionNotFound(op)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.LSet(ctx, key, int64(index), tombstone)
			pipe.LRem(ctx, key, 1, tombstone)
			return nil
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := r.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			if apperrors.IsKind(err, apperrors.KindNotFound) {
				return err
			}
			return apperrors.Wrap(apperrors.KindStorage, op, "delete record", err)
		}
		return nil
	}

	return apperrors.New(apperrors.KindStorage, op, "history is being modified concurrently")
}

// Close закрывает клиент Redis
func (r *RedisHistoryRepository) Close() error {
	return r.client.Close()
}

// Проверка реализации интерфейса
var _ port.HistoryRepository = (*RedisHistoryRepository)(nil)
