package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"oral-scan/internal/domain/entity"
	"oral-scan/internal/domain/port"
	apperrors "oral-scan/internal/platform/errors"
)

// FileHistoryRepository хранит историю пользователя JSON-массивом в файле <user_id>_history.json.
// Изменения одного пользователя сериализуются, файл заменяется атомарно через rename.
type FileHistoryRepository struct {
	dir   string
	locks *keyedMutex
}

// NewFileHistoryRepository создаёт хранилище и каталог для него.
func NewFileHistoryRepository(dir string) (*FileHistoryRepository, error) {
	if dir == "" {
		return nil, apperrors.New(apperrors.KindConfig, "history.file.new", "storage dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperrors.Wrap(apperrors.KindStorage, "history.file.new", "create storage dir", err)
	}

	return &FileHistoryRepository{
		dir:   dir,
		locks: newKeyedMutex(),
	}, nil
}

// Append добавляет запись в конец файла истории
func (r *FileHistoryRepository) Append(ctx context.Context, userID string, record entity.DetectionResult) error {
	if err := ValidateUserID(userID); err != nil {
		return err
	}
	unlock := r.locks.Lock(userID)
	defer unlock()

	records, err := r.read(userID)
	if err != nil {
		return err
	}
	records = append(records, record)

	return r.write(userID, records)
}

// List возвращает последние limit записей и общее их число
func (r *FileHistoryRepository) List(ctx context.Context, userID string, limit int) ([]entity.DetectionResult, int, error) {
	if err := ValidateUserID(userID); err != nil {
		return nil, 0, err
	}
	unlock := r.locks.Lock(userID)
	defer unlock()

	records, err := r.read(userID)
	if err != nil {
		return nil, 0, err
	}

	return suffix(records, limit), len(records), nil
}

// Delete удаляет запись по индексу и перезаписывает файл
func (r *FileHistoryRepository) Delete(ctx context.Context, userID string, index int) error {
	const op = "history.file.delete"
	if err := ValidateUserID(userID); err != nil {
		return err
	}
	unlock := r.locks.Lock(userID)
	defer unlock()

	if _, err := os.Stat(r.path(userID)); errors.Is(err, os.ErrNotExist) {
		return errDetectionNotFound(op)
	}

	records, err := r.read(userID)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(records) {
		return errDetectionNotFound(op)
	}

	records = append(records[:index], records[index+1:]...)
	return r.write(userID, records)
}

// Close ничего не делает: файлы не держатся открытыми
func (r *FileHistoryRepository) Close() error {
	return nil
}

func (r *FileHistoryRepository) path(userID string) string {
	return filepath.Join(r.dir, userID+"_history.json")
}

// read читает историю; отсутствующий файл считается пустой историей.
func (r *FileHistoryRepository) read(userID string) ([]entity.DetectionResult, error) {
	const op = "history.file.read"

	data, err := os.ReadFile(r.path(userID))
	if errors.Is(err, os.ErrNotExist) {
		return []entity.DetectionResult{}, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindStorage, op, "read history file", err)
	}

	var records []entity.DetectionResult
	if err := json.Unmarshal(data, &records); err != nil {
		log.WithFields(log.Fields{"user_id": userID, "path": r.path(userID)}).Error("History file is corrupted")
		return nil, apperrors.Wrap(apperrors.KindStorage, op, "history file is corrupted", err)
	}
	if records == nil {
		// Файл с литералом null тоже не является массивом.
		return nil, apperrors.New(apperrors.KindStorage, op, "history file is corrupted")
	}

	return records, nil
}

func (r *FileHistoryRepository) write(userID string, records []entity.DetectionResult) error {
	const op = "history.file.write"

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return apperrors.Wrap(apperrors.KindStorage, op, "encode history", err)
	}

	tmp, err := os.CreateTemp(r.dir, ".history-*.tmp")
	if err != nil {
		return apperrors.Wrap(apperrors.KindStorage, op, "create temp file", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return apperrors.Wrap(apperrors.KindStorage, op, "write temp file", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return apperrors.Wrap(apperrors.KindStorage, op, "sync temp file", err)
	}
	if err := tmp.Close(); err != nil {
		return apperrors.Wrap(apperrors.KindStorage, op, "close temp file", err)
	}
	if err := os.Rename(tmpName, r.path(userID)); err != nil {
		return apperrors.Wrap(apperrors.KindStorage, op, "replace history file", err)
	}

	return nil
}

// Проверка реализации интерфейса
var _ port.HistoryRepository = (*FileHistoryRepository)(nil)
