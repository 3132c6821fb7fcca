//go:build gocv
// +build gocv

package vision

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"sync"

	"gocv.io/x/gocv"

	"oral-scan/internal/domain/entity"
	"oral-scan/internal/domain/port"
	apperrors "oral-scan/internal/platform/errors"
)

// GoCVDetector запускает YOLO-модель в формате ONNX через OpenCV DNN.
type GoCVDetector struct {
	InputSize      int
	ScoreThreshold float32
	NMSThreshold   float32

	labels []string
	name   string

	mu     sync.Mutex
	net    gocv.Net
	loaded bool
}

// NewGoCVDetector загружает модель; при ошибке детектор остаётся неготовым.
func NewGoCVDetector(modelPath string, labels []string) (*GoCVDetector, error) {
	d := &GoCVDetector{
		InputSize:      640,
		ScoreThreshold: 0.25,
		NMSThreshold:   0.45,
		labels:         labels,
		name:           modelPath,
	}

	net := gocv.ReadNetFromONNX(modelPath)
	if net.Empty() {
		return d, apperrors.New(apperrors.KindModel, "detector.gocv.load", fmt.Sprintf("failed to load model %q", modelPath))
	}
	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	d.net = net
	d.loaded = true
	return d, nil
}

// Detect прогоняет изображение через сеть и возвращает поражения после NMS.
func (d *GoCVDetector) Detect(ctx context.Context, imageData []byte) ([]entity.Detection, error) {
	const op = "detector.gocv"
	if !d.loaded {
		return nil, apperrors.New(apperrors.KindModel, op, "Model not loaded")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mat, err := decodeToMat(imageData)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindValidation, op, "Invalid image format", err)
	}
	defer mat.Close()

	blob := gocv.BlobFromImage(mat, 1.0/255.0, image.Pt(d.InputSize, d.InputSize), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.mu.Lock()
	d.net.SetInput(blob, "")
	out := d.net.Forward("")
	d.mu.Unlock()
	defer out.Close()

	xFactor := float64(mat.Cols()) / float64(d.InputSize)
	yFactor := float64(mat.Rows()) / float64(d.InputSize)
	return d.parseOutput(out, xFactor, yFactor)
}

// parseOutput разбирает выход формы [1, 4+classes, anchors].
func (d *GoCVDetector) parseOutput(out gocv.Mat, xFactor, yFactor float64) ([]entity.Detection, error) {
	const op = "detector.gocv.parse"

	dims := out.Size()
	if len(dims) != 3 || dims[1] <= 4 {
		return nil, apperrors.New(apperrors.KindModel, op, fmt.Sprintf("unexpected output shape %v", dims))
	}
	data, err := out.DataPtrFloat32()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindModel, op, "read output", err)
	}

	rows, anchors := dims[1], dims[2]
	classes := rows - 4

	var (
		boxes   []image.Rectangle
		scores  []float32
		classID []int
	)
	for i := 0; i < anchors; i++ {
		best, bestScore := -1, float32(0)
		for c := 0; c < classes; c++ {
			s := data[(4+c)*anchors+i]
			if s > bestScore {
				best, bestScore = c, s
			}
		}
		if best < 0 || bestScore < d.ScoreThreshold {
			continue
		}

		cx := float64(data[i]) * xFactor
		cy := float64(data[anchors+i]) * yFactor
		w := float64(data[2*anchors+i]) * xFactor
		h := float64(data[3*anchors+i]) * yFactor
		b := entity.BoxFromCenter(cx, cy, w, h)

		boxes = append(boxes, image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height))
		scores = append(scores, bestScore)
		classID = append(classID, best)
	}
	if len(boxes) == 0 {
		return []entity.Detection{}, nil
	}

	keep := gocv.NMSBoxes(boxes, scores, d.ScoreThreshold, d.NMSThreshold)
	detections := make([]entity.Detection, 0, len(keep))
	for _, idx := range keep {
		r := boxes[idx]
		detections = append(detections, entity.Detection{
			Type:       d.label(classID[idx]),
			Confidence: entity.PercentFromFraction(float64(scores[idx])),
			BBox:       entity.BoundingBox{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()},
		})
	}
	return detections, nil
}

func (d *GoCVDetector) label(id int) string {
	if id >= 0 && id < len(d.labels) {
		return d.labels[id]
	}
	return fmt.Sprintf("class_%d", id)
}

// Highlight рисует прямоугольники вокруг поражений и возвращает новую картинку.
func (d *GoCVDetector) Highlight(imageData []byte, detections []entity.Detection) ([]byte, error) {
	mat, err := decodeToMat(imageData)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	green := color.RGBA{G: 255, A: 255}
	for _, det := range detections {
		b := det.BBox
		gocv.Rectangle(&mat, image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height), green, 2)
	}

	img, err := mat.ToImage()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Ready сообщает, загружена ли модель
func (d *GoCVDetector) Ready() bool {
	return d.loaded
}

// Name возвращает путь к модели
func (d *GoCVDetector) Name() string {
	return d.name
}

// Close освобождает сеть
func (d *GoCVDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.loaded {
		d.loaded = false
		return d.net.Close()
	}
	return nil
}

// decodeToMat превращает байты изображения в gocv.Mat.
func decodeToMat(imageData []byte) (gocv.Mat, error) {
	mat, err := gocv.IMDecode(imageData, gocv.IMReadColor)
	if err == nil && !mat.Empty() {
		return mat, nil
	}
	if !mat.Empty() {
		mat.Close()
	}
	return gocv.NewMat(), errors.New("failed to decode image")
}

var (
	_ port.LesionDetector = (*GoCVDetector)(nil)
	_ port.Highlighter    = (*GoCVDetector)(nil)
)
