package vision

import (
	"bytes"
	"errors"
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"oral-scan/internal/domain/entity"
	"oral-scan/internal/domain/port"
)

// BoxPainter рисует рамки найденных поражений без OpenCV.
type BoxPainter struct {
	Color     color.NRGBA
	Thickness int
	Quality   int
}

// NewBoxPainter создаёт painter с зелёной рамкой толщиной 2px.
func NewBoxPainter() *BoxPainter {
	return &BoxPainter{
		Color:     color.NRGBA{G: 255, A: 255},
		Thickness: 2,
		Quality:   90,
	}
}

// Highlight рисует прямоугольники вокруг поражений и возвращает новую картинку.
func (p *BoxPainter) Highlight(imageData []byte, detections []entity.Detection) ([]byte, error) {
	src, err := imaging.Decode(bytes.NewReader(imageData), imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.New("failed to decode image")
	}

	canvas := imaging.Clone(src)
	for _, d := range detections {
		p.drawRect(canvas, d.BBox)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, canvas, imaging.JPEG, imaging.JPEGQuality(p.Quality)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (p *BoxPainter) drawRect(img *image.NRGBA, b entity.BoundingBox) {
	rect := image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height).Intersect(img.Bounds())
	if rect.Empty() {
		return
	}

	for t := 0; t < p.Thickness; t++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			img.SetNRGBA(x, rect.Min.Y+t, p.Color)
			img.SetNRGBA(x, rect.Max.Y-1-t, p.Color)
		}
		for y := rect.Min.Y; y < rect.Max.Y; y++ {
			img.SetNRGBA(rect.Min.X+t, y, p.Color)
			img.SetNRGBA(rect.Max.X-1-t, y, p.Color)
		}
	}
}

var _ port.Highlighter = (*BoxPainter)(nil)
