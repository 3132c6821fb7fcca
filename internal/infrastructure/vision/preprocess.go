package vision

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"oral-scan/internal/domain/entity"
	"oral-scan/internal/domain/port"
	apperrors "oral-scan/internal/platform/errors"
)

// Preprocessor проверяет загруженное изображение и готовит его для модели.
type Preprocessor struct {
	MaxBytes    int64 // максимальный размер файла
	MaxPixels   int64 // максимальное число пикселей исходника
	MaxSide     int   // длинная сторона изображения, передаваемого модели
	JPEGQuality int
}

// NewPreprocessor создаёт препроцессор с лимитами по умолчанию.
func NewPreprocessor(maxBytes int64, maxSide int) *Preprocessor {
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	if maxSide <= 0 {
		maxSide = 1024
	}
	return &Preprocessor{
		MaxBytes:    maxBytes,
		MaxPixels:   40_000_000,
		MaxSide:     maxSide,
		JPEGQuality: 90,
	}
}

// Prepare декодирует изображение с учётом EXIF-ориентации и уменьшает до MaxSide.
func (p *Preprocessor) Prepare(data []byte) (*entity.PreparedImage, error) {
	const op = "image.prepare"

	if len(data) == 0 {
		return nil, apperrors.New(apperrors.KindValidation, op, "No image provided")
	}
	if int64(len(data)) > p.MaxBytes {
		return nil, apperrors.New(apperrors.KindValidation, op,
			fmt.Sprintf("image is too large: %d bytes (max %d)", len(data), p.MaxBytes))
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.New(apperrors.KindValidation, op, "Invalid image format")
	}
	if int64(cfg.Width)*int64(cfg.Height) > p.MaxPixels {
		return nil, apperrors.New(apperrors.KindValidation, op,
			fmt.Sprintf("image dimensions are too large: %dx%d", cfg.Width, cfg.Height))
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, apperrors.New(apperrors.KindValidation, op, "Invalid image format")
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return nil, apperrors.New(apperrors.KindValidation, op, "empty image")
	}

	scale := 1.0
	if width > p.MaxSide || height > p.MaxSide {
		img = imaging.Fit(img, p.MaxSide, p.MaxSide, imaging.Lanczos)
		scale = float64(width) / float64(img.Bounds().Dx())
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(p.JPEGQuality)); err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, op, "encode image", err)
	}

	return &entity.PreparedImage{
		Width:   width,
		Height:  height,
		Format:  format,
		Payload: buf.Bytes(),
		Scale:   scale,
	}, nil
}

var _ port.ImagePreparer = (*Preprocessor)(nil)
