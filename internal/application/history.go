package app

import (
	"context"

	"oral-scan/internal/domain/entity"
	"oral-scan/internal/domain/port"
	apperrors "oral-scan/internal/platform/errors"
)

// DefaultHistoryLimit число записей истории по умолчанию.
const DefaultHistoryLimit = 50

type HistoryService struct {
	repo         port.HistoryRepository
	defaultLimit int
}

func NewHistoryService(repo port.HistoryRepository, defaultLimit int) *HistoryService {
	if defaultLimit <= 0 {
		defaultLimit = DefaultHistoryLimit
	}
	return &HistoryService{repo: repo, defaultLimit: defaultLimit}
}

// Append сохраняет результат в истории пользователя.
func (s *HistoryService) Append(ctx context.Context, userID string, result *entity.DetectionResult) error {
	rec := result.HistoryRecord()
	rec.UserID = userID
	return s.repo.Append(ctx, userID, rec)
}

// List возвращает последние limit записей; limit == 0 возвращает всю историю.
func (s *HistoryService) List(ctx context.Context, userID string, limit int) (*entity.HistoryPage, error) {
	if limit < 0 {
		return nil, apperrors.New(apperrors.KindValidation, "history.list", "limit must be a non-negative integer")
	}

	records, total, err := s.repo.List(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []entity.DetectionResult{}
	}
	return &entity.HistoryPage{Detections: records, Count: total}, nil
}

// Delete удаляет запись по индексу от начала истории.
func (s *HistoryService) Delete(ctx context.Context, userID string, index int) error {
	return s.repo.Delete(ctx, userID, index)
}

// DefaultLimit возвращает лимит истории по умолчанию
func (s *HistoryService) DefaultLimit() int {
	return s.defaultLimit
}
