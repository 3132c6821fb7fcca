package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	log "github.com/sirupsen/logrus"

	"oral-scan/internal/domain/entity"
	"oral-scan/internal/domain/port"
	apperrors "oral-scan/internal/platform/errors"
)

// Шкалы уверенности, которые может вернуть сервис инференса.
const (
	ScaleFraction = "fraction"
	ScalePercent  = "percent"
)

// RemoteConfig параметры внешнего сервиса инференса.
type RemoteConfig struct {
	URL             string
	HealthURL       string
	APIKey          string
	ConfidenceScale string
	Timeout         time.Duration
	Name            string
}

// RemoteDetector выполняет inference через внешний HTTP-сервис с моделью.
type RemoteDetector struct {
	cfg    RemoteConfig
	client *resty.Client
}

// NewRemoteDetector создаёт клиент сервиса инференса.
func NewRemoteDetector(cfg RemoteConfig) *RemoteDetector {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.ConfidenceScale == "" {
		cfg.ConfidenceScale = ScaleFraction
	}
	if cfg.Name == "" {
		cfg.Name = "remote"
	}

	return &RemoteDetector{
		cfg:    cfg,
		client: resty.New().SetTimeout(cfg.Timeout),
	}
}

type remoteBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type remotePrediction struct {
	Class      string     `json:"class"`
	Type       string     `json:"type"`
	Confidence float64    `json:"confidence"`
	X          float64    `json:"x"`
	Y          float64    `json:"y"`
	Width      float64    `json:"width"`
	Height     float64    `json:"height"`
	BBox       *remoteBox `json:"bbox"`
}

// remoteResponse покрывает оба формата: detections (левый верхний угол)
// и predictions хостинговых моделей (центр области).
type remoteResponse struct {
	Detections  []remotePrediction `json:"detections"`
	Predictions []remotePrediction `json:"predictions"`
}

// Detect отправляет изображение в сервис и разбирает ответ.
func (d *RemoteDetector) Detect(ctx context.Context, imageData []byte) ([]entity.Detection, error) {
	const op = "detector.remote"

	req := d.client.R().
		SetContext(ctx).
		SetFileReader("file", "image.jpg", bytes.NewReader(imageData))
	if d.cfg.APIKey != "" {
		req.SetQueryParam("api_key", d.cfg.APIKey)
	}

	resp, err := req.Post(d.cfg.URL)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindTransport, op, "send inference request", err)
	}
	if resp.StatusCode() != http.StatusOK {
		log.WithFields(log.Fields{
			"status": resp.StatusCode(),
			"body":   truncate(resp.String(), 200),
		}).Error("Inference service returned an error")
		return nil, apperrors.New(apperrors.KindTransport, op,
			fmt.Sprintf("inference failed with status: %d", resp.StatusCode()))
	}

	var payload remoteResponse
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, apperrors.Wrap(apperrors.KindTransport, op, "Invalid response from detection API", err)
	}

	detections := make([]entity.Detection, 0, len(payload.Detections)+len(payload.Predictions))
	for _, p := range payload.Detections {
		box := entity.BoxFromCenter(p.X+p.Width/2, p.Y+p.Height/2, p.Width, p.Height)
		if p.BBox != nil {
			box = entity.BoundingBox{X: int(p.BBox.X), Y: int(p.BBox.Y), Width: int(p.BBox.Width), Height: int(p.BBox.Height)}
		}
		detections = append(detections, d.toDetection(p, box))
	}
	for _, p := range payload.Predictions {
		detections = append(detections, d.toDetection(p, entity.BoxFromCenter(p.X, p.Y, p.Width, p.Height)))
	}

	return detections, nil
}

func (d *RemoteDetector) toDetection(p remotePrediction, box entity.BoundingBox) entity.Detection {
	name := p.Class
	if name == "" {
		name = p.Type
	}

	confidence := entity.RoundTo(p.Confidence, 1)
	if d.cfg.ConfidenceScale == ScaleFraction {
		confidence = entity.PercentFromFraction(p.Confidence)
	}

	return entity.Detection{Type: name, Confidence: confidence, BBox: box}
}

// CheckHealth проверяет доступность сервиса инференса.
func (d *RemoteDetector) CheckHealth(ctx context.Context) error {
	if d.cfg.HealthURL == "" {
		return nil
	}
	resp, err := d.client.R().SetContext(ctx).Get(d.cfg.HealthURL)
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("ml service unhealthy: %d", resp.StatusCode())
	}
	return nil
}

// Ready сообщает, что адрес сервиса задан
func (d *RemoteDetector) Ready() bool {
	return d.cfg.URL != ""
}

// Name возвращает имя модели
func (d *RemoteDetector) Name() string {
	return d.cfg.Name
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

var _ port.LesionDetector = (*RemoteDetector)(nil)
