package app

import (
	"context"
	"encoding/base64"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"oral-scan/internal/domain/entity"
	"oral-scan/internal/domain/port"
	apperrors "oral-scan/internal/platform/errors"
)

// DefaultMinConfidence минимальная уверенность (в процентах), с которой поражение попадает в ответ.
const DefaultMinConfidence = 25.0

// Upload загруженный снимок и параметры анализа.
type Upload struct {
	Data         []byte
	Filename     string
	UserID       string
	IncludeImage bool // вернуть снимок с рамками как data URL
}

// DetectionConfig параметры сервиса обнаружения.
type DetectionConfig struct {
	MinConfidence float64
	BatchWorkers  int
}

type DetectionService struct {
	detector    port.LesionDetector
	preparer    port.ImagePreparer
	highlighter port.Highlighter
	recommender port.Recommender
	history     *HistoryService
	cfg         DetectionConfig
	now         func() time.Time
}

// NewDetectionService создаёт сервис, который управляет анализом снимков.
func NewDetectionService(
	detector port.LesionDetector,
	preparer port.ImagePreparer,
	highlighter port.Highlighter,
	recommender port.Recommender,
	history *HistoryService,
	cfg DetectionConfig,
) *DetectionService {
	if cfg.MinConfidence < 0 {
		cfg.MinConfidence = 0
	}
	if cfg.BatchWorkers <= 0 {
		cfg.BatchWorkers = 4
	}
	return &DetectionService{
		detector:    detector,
		preparer:    preparer,
		highlighter: highlighter,
		recommender: recommender,
		history:     history,
		cfg:         cfg,
		now:         time.Now,
	}
}

// ModelReady сообщает, готов ли детектор к работе.
func (s *DetectionService) ModelReady() bool {
	return s.detector != nil && s.detector.Ready()
}

// ModelName возвращает имя модели или пустую строку.
func (s *DetectionService) ModelName() string {
	if s.detector == nil {
		return ""
	}
	return s.detector.Name()
}

// Analyze запускает детектор, считает вероятности заболеваний и сохраняет результат в истории.
func (s *DetectionService) Analyze(ctx context.Context, in Upload) (*entity.DetectionResult, error) {
	const op = "detection.analyze"

	if !s.ModelReady() {
		return nil, apperrors.New(apperrors.KindModel, op, "Model not loaded")
	}

	prepared, err := s.preparer.Prepare(in.Data)
	if err != nil {
		return nil, err
	}

	raw, err := s.detector.Detect(ctx, prepared.Payload)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, op, "detection failed", err)
	}
	detections := s.filter(raw, prepared.Scale)

	probs, ranked := ScoreDiseases(detections)
	result := &entity.DetectionResult{
		ID:                   uuid.NewString(),
		Detections:           detections,
		DiseaseProbabilities: probs,
		RankedDiseases:       ranked,
		Message:              fmt.Sprintf("Detected %d oral lesion(s)", len(detections)),
		Timestamp:            s.now().UTC(),
		ImageFilename:        in.Filename,
		ImageWidth:           prepared.Width,
		ImageHeight:          prepared.Height,
		UserID:               in.UserID,
	}
	if primary, ok := primaryDetection(detections); ok {
		result.Disease = primary.Type
		result.Confidence = primary.Confidence
		result.Recommendations = s.recommend(primary.Type)
	}

	if in.IncludeImage {
		result.ImageURL = s.imageURL(in.Data, detections)
	}

	log.WithFields(log.Fields{
		"user_id":    in.UserID,
		"filename":   in.Filename,
		"detections": len(detections),
		"primary":    result.Disease,
	}).Info("Image analyzed")

	if in.UserID != "" && s.history != nil {
		if err := s.history.Append(ctx, in.UserID, result); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// AnalyzeBatch анализирует несколько снимков параллельно и усредняет уверенность по поражениям.
// Ошибка любого снимка прерывает всю серию.
func (s *DetectionService) AnalyzeBatch(ctx context.Context, uploads []Upload) (*entity.BatchResult, error) {
	if len(uploads) == 0 {
		return nil, apperrors.New(apperrors.KindValidation, "detection.batch", "No images provided")
	}

	results := make([]entity.DetectionResult, len(uploads))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.BatchWorkers)
	for i := range uploads {
		g.Go(func() error {
			res, err := s.Analyze(gctx, uploads[i])
			if err != nil {
				return err
			}
			results[i] = *res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	batch := &entity.BatchResult{
		Results:             results,
		AveragedDiagnostics: s.averageDiagnostics(results),
	}
	if len(batch.AveragedDiagnostics) > 0 {
		primary := batch.AveragedDiagnostics[0]
		batch.PrimaryDiagnosis = &primary
	}
	return batch, nil
}

// filter приводит имена классов к отображаемым, отбрасывает исключённые классы
// и поражения с уверенностью ниже порога, переводит рамки в координаты исходника.
func (s *DetectionService) filter(raw []entity.Detection, scale float64) []entity.Detection {
	out := make([]entity.Detection, 0, len(raw))
	for _, d := range raw {
		if entity.IsExcludedClass(d.Type) {
			continue
		}
		if d.Confidence < s.cfg.MinConfidence {
			continue
		}
		out = append(out, entity.Detection{
			Type:       entity.NormalizeLesionName(d.Type),
			Confidence: d.Confidence,
			BBox:       d.BBox.Scale(scale),
		})
	}
	return out
}

func (s *DetectionService) recommend(lesion string) entity.Recommendation {
	if s.recommender == nil {
		return entity.Recommendation{}
	}
	return s.recommender.Recommend(lesion)
}

func (s *DetectionService) imageURL(data []byte, detections []entity.Detection) string {
	if s.highlighter == nil {
		return ""
	}
	highlighted, err := s.highlighter.Highlight(data, detections)
	if err != nil {
		log.WithError(err).Warn("Failed to highlight detections")
		return ""
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(highlighted)
}

func (s *DetectionService) averageDiagnostics(results []entity.DetectionResult) []entity.AveragedDiagnostic {
	var (
		order  []string
		scores = make(map[string][]float64)
	)
	for _, res := range results {
		for _, d := range res.Detections {
			if _, seen := scores[d.Type]; !seen {
				order = append(order, d.Type)
			}
			scores[d.Type] = append(scores[d.Type], d.Confidence)
		}
	}

	diagnostics := make([]entity.AveragedDiagnostic, 0, len(order))
	for _, lesion := range order {
		values := scores[lesion]
		sum := 0.0
		for _, v := range values {
			sum += v
		}
		diagnostics = append(diagnostics, entity.AveragedDiagnostic{
			Lesion:             lesion,
			Occurrences:        len(values),
			ConfidenceScores:   values,
			AveragedConfidence: entity.RoundTo(sum/float64(len(values)), 1),
			Recommendation:     s.recommend(lesion),
		})
	}
	sort.SliceStable(diagnostics, func(i, j int) bool {
		return diagnostics[i].AveragedConfidence > diagnostics[j].AveragedConfidence
	})
	return diagnostics
}

// primaryDetection возвращает поражение с наибольшей уверенностью.
func primaryDetection(detections []entity.Detection) (entity.Detection, bool) {
	if len(detections) == 0 {
		return entity.Detection{}, false
	}
	best := detections[0]
	for _, d := range detections[1:] {
		if d.Confidence > best.Confidence {
			best = d
		}
	}
	return best, true
}
