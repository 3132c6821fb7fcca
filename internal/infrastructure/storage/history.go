package storage

import (
	"fmt"
	"strings"
	"sync"

	"oral-scan/internal/domain/port"
	apperrors "oral-scan/internal/platform/errors"
)

// Драйверы хранилища истории.
const (
	DriverFile   = "file"
	DriverRedis  = "redis"
	DriverSQLite = "sqlite"
)

const maxUserIDLength = 128

// HistoryConfig описывает выбор и параметры хранилища истории.
type HistoryConfig struct {
	Driver        string
	Dir           string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
	SQLiteDSN     string
}

// NewHistoryRepository создаёт хранилище истории по конфигурации.
func NewHistoryRepository(cfg HistoryConfig) (port.HistoryRepository, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverFile
	}

	switch driver {
	case DriverFile:
		return NewFileHistoryRepository(cfg.Dir)
	case DriverRedis:
		return NewRedisHistoryRepository(RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})
	case DriverSQLite:
		return OpenSQLiteHistoryRepository(cfg.SQLiteDSN)
	default:
		return nil, apperrors.New(apperrors.KindConfig, "history.new", fmt.Sprintf("unsupported history driver: %s", driver))
	}
}

// ValidateUserID проверяет, что идентификатор пригоден как ключ хранилища и имя файла.
func ValidateUserID(userID string) error {
	const op = "history.user_id"
	switch {
	case strings.TrimSpace(userID) == "":
		return apperrors.New(apperrors.KindValidation, op, "user id is required")
	case len(userID) > maxUserIDLength:
		return apperrors.New(apperrors.KindValidation, op, "user id is too long")
	case strings.ContainsAny(userID, `/\`) || strings.Contains(userID, ".."):
		return apperrors.New(apperrors.KindValidation, op, "user id contains forbidden characters")
	}
	return nil
}

func errDetectionNotFound(op string) error {
	return apperrors.New(apperrors.KindNotFound, op, "Detection not found")
}

// keyedMutex сериализует операции чтения-изменения-записи одного пользователя.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyedLock)}
}

// Lock захватывает блокировку ключа и возвращает функцию освобождения.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// suffix возвращает последние limit элементов; limit <= 0 означает все.
func suffix[T any](items []T, limit int) []T {
	if limit <= 0 || limit >= len(items) {
		return items
	}
	return items[len(items)-limit:]
}
