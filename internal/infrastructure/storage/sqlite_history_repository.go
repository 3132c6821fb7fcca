package storage

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"oral-scan/internal/domain/entity"
	"oral-scan/internal/domain/port"
	apperrors "oral-scan/internal/platform/errors"
)

// HistoryRow строка таблицы history_records
type HistoryRow struct {
	ID        uint           `gorm:"primaryKey"`
	UserID    string         `gorm:"index;not null"`
	Payload   datatypes.JSON `gorm:"not null"`
	CreatedAt time.Time      `gorm:"not null"`
}

func (HistoryRow) TableName() string {
	return "history_records"
}

// SQLiteHistoryRepository хранит историю в SQLite; порядок записей задаёт автоинкрементный id.
type SQLiteHistoryRepository struct {
	db *gorm.DB
}

// OpenSQLiteHistoryRepository открывает базу и применяет миграцию.
func OpenSQLiteHistoryRepository(dsn string) (*SQLiteHistoryRepository, error) {
	const op = "history.sqlite.open"
	if dsn == "" {
		return nil, apperrors.New(apperrors.KindConfig, op, "sqlite dsn is required")
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindStorage, op, "open sqlite", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindStorage, op, "get sql handle", err)
	}
	// SQLite допускает одного писателя; одно соединение убирает ошибки "database is locked".
	sqlDB.SetMaxOpenConns(1)

	return NewSQLiteHistoryRepository(db)
}

// NewSQLiteHistoryRepository использует готовое подключение gorm.
func NewSQLiteHistoryRepository(db *gorm.DB) (*SQLiteHistoryRepository, error) {
	if db == nil {
		return nil, apperrors.New(apperrors.KindConfig, "history.sqlite.new", "database handle is required")
	}
	if err := db.AutoMigrate(&HistoryRow{}); err != nil {
		return nil, apperrors.Wrap(apperrors.KindStorage, "history.sqlite.migrate", "migrate history table", err)
	}
	return &SQLiteHistoryRepository{db: db}, nil
}

// Append добавляет запись
func (r *SQLiteHistoryRepository) Append(ctx context.Context, userID string, record entity.DetectionResult) error {
	const op = "history.sqlite.append"
	if err := ValidateUserID(userID); err != nil {
		return err
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return apperrors.Wrap(apperrors.KindStorage, op, "encode record", err)
	}

	row := &HistoryRow{
		UserID:    userID,
		Payload:   datatypes.JSON(payload),
		CreatedAt: time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return apperrors.Wrap(apperrors.KindStorage, op, "insert record", err)
	}
	return nil
}

// List возвращает последние limit записей в порядке добавления
func (r *SQLiteHistoryRepository) List(ctx context.Context, userID string, limit int) ([]entity.DetectionResult, int, error) {
	const op = "history.sqlite.list"
	if err := ValidateUserID(userID); err != nil {
		return nil, 0, err
	}

	var (
		total int64
		rows  []HistoryRow
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&HistoryRow{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
			return err
		}
		q := tx.Where("user_id = ?", userID).Order("id desc")
		if limit > 0 {
			q = q.Limit(limit)
		}
		return q.Find(&rows).Error
	})
	if err != nil {
		return nil, 0, apperrors.Wrap(apperrors.KindStorage, op, "query history", err)
	}

	records := make([]entity.DetectionResult, len(rows))
	for i, row := range rows {
		var rec entity.DetectionResult
		if err := json.Unmarshal(row.Payload, &rec); err != nil {
			return nil, 0, apperrors.Wrap(apperrors.KindStorage, op, "history record is corrupted", err)
		}
		// Строки выбраны в обратном порядке.
		records[len(rows)-1-i] = rec
	}

	return records, int(total), nil
}

// Delete удаляет запись, находящуюся на позиции index
func (r *SQLiteHistoryRepository) Delete(ctx context.Context, userID string, index int) error {
	const op = "history.sqlite.delete"
	if err := ValidateUserID(userID); err != nil {
		return err
	}
	if index < 0 {
		return errDetectionNotFound(op)
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []HistoryRow
		if err := tx.Where("user_id = ?", userID).Order("id asc").Offset(index).Limit(1).Find(&rows).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return errDetectionNotFound(op)
		}
		return tx.Delete(&HistoryRow{}, rows[0].ID).Error
	})
	if err != nil {
		if apperrors.IsKind(err, apperrors.KindNotFound) {
			return err
		}
		return apperrors.Wrap(apperrors.KindStorage, op, "delete record", err)
	}
	return nil
}

// Close закрывает соединение с базой
func (r *SQLiteHistoryRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Проверка реализации интерфейса
var _ port.HistoryRepository = (*SQLiteHistoryRepository)(nil)
