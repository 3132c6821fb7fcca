//go:build !gocv
// +build !gocv

package vision

import (
	"context"
	"errors"

	"oral-scan/internal/domain/entity"
	"oral-scan/internal/domain/port"
	apperrors "oral-scan/internal/platform/errors"
)

// GoCVDetector заглушка для сборки без OpenCV.
type GoCVDetector struct {
	name string
}

// NewGoCVDetector создаёт детектор-заглушку (без OpenCV).
func NewGoCVDetector(modelPath string, labels []string) (*GoCVDetector, error) {
	_ = labels
	return &GoCVDetector{name: modelPath},
		apperrors.New(apperrors.KindModel, "detector.gocv.load", "gocv build tag is not enabled")
}

// Detect возвращает ошибку, если сборка без тега gocv.
func (d *GoCVDetector) Detect(ctx context.Context, imageData []byte) ([]entity.Detection, error) {
	_ = ctx
	_ = imageData
	return nil, apperrors.New(apperrors.KindModel, "detector.gocv", "Model not loaded")
}

// Highlight возвращает ошибку, если сборка без тега gocv.
func (d *GoCVDetector) Highlight(imageData []byte, detections []entity.Detection) ([]byte, error) {
	_ = imageData
	_ = detections
	return nil, errors.New("gocv build tag is not enabled")
}

func (d *GoCVDetector) Ready() bool  { return false }
func (d *GoCVDetector) Name() string { return d.name }
func (d *GoCVDetector) Close() error { return nil }

var (
	_ port.LesionDetector = (*GoCVDetector)(nil)
	_ port.Highlighter    = (*GoCVDetector)(nil)
)
