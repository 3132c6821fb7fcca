package port

import (
	"context"

	"oral-scan/internal/domain/entity"
)

// LesionDetector интерфейс модели, находящей поражения на снимке
type LesionDetector interface {
	// Detect анализирует изображение и возвращает найденные поражения.
	// Уверенность возвращается в процентах 0–100, координаты задаются в пикселях переданного изображения.
	Detect(ctx context.Context, imageData []byte) ([]entity.Detection, error)

	// Ready сообщает, загружена ли модель
	Ready() bool

	// Name возвращает имя модели для health-ответа
	Name() string
}

// Highlighter интерфейс подсветки найденных поражений
type Highlighter interface {
	// Highlight рисует рамки поражений и возвращает JPEG
	Highlight(imageData []byte, detections []entity.Detection) ([]byte, error)
}
