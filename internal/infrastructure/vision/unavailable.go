package vision

import (
	"context"

	"oral-scan/internal/domain/entity"
	"oral-scan/internal/domain/port"
	apperrors "oral-scan/internal/platform/errors"
)

// Unavailable используется, когда модель не удалось загрузить при старте.
type Unavailable struct {
	Reason string
}

func (u Unavailable) Detect(ctx context.Context, imageData []byte) ([]entity.Detection, error) {
	return nil, apperrors.New(apperrors.KindModel, "detector.unavailable", "Model not loaded")
}

func (u Unavailable) Ready() bool { return false }

func (u Unavailable) Name() string { return "unavailable" }

var _ port.LesionDetector = Unavailable{}
