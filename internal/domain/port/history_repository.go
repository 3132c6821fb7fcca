package port

import (
	"context"

	"oral-scan/internal/domain/entity"
)

// HistoryRepository интерфейс хранилища истории обнаружений.
// Записи каждого пользователя образуют упорядоченный список, в который только добавляют.
type HistoryRepository interface {
	// Append добавляет запись в конец истории пользователя
	Append(ctx context.Context, userID string, record entity.DetectionResult) error

	// List возвращает последние limit записей (все при limit == 0) и общее число записей
	List(ctx context.Context, userID string, limit int) ([]entity.DetectionResult, int, error)

	// Delete удаляет запись по индексу от начала истории
	Delete(ctx context.Context, userID string, index int) error

	// Close освобождает ресурсы хранилища
	Close() error
}
