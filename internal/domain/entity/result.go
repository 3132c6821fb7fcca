package entity

import "time"

// DiseaseProbabilities процент вероятности по каждому известному заболеванию.
type DiseaseProbabilities map[string]float64

// LesionContribution вклад одного поражения в вероятность заболевания.
type LesionContribution struct {
	Lesion       string  `json:"lesion"`
	Confidence   float64 `json:"confidence"`
	SharedWith   int     `json:"shared_with"` // число заболеваний, между которыми делится уверенность
	Contribution float64 `json:"contribution"`
}

// DiseaseScore строка ранжированного списка вероятностей.
type DiseaseScore struct {
	Disease       string               `json:"disease"`
	Probability   float64              `json:"probability"`
	Contributions []LesionContribution `json:"contributions"`
}

// Recommendation рекомендации для найденного поражения.
type Recommendation struct {
	UrgentActions []string `json:"urgent_actions"`
	Monitoring    []string `json:"monitoring"`
	Lifestyle     []string `json:"lifestyle"`
}

// DetectionResult хранит итог анализа изображения.
// Он же является записью истории, если задан UserID.
type DetectionResult struct {
	ID                   string               `json:"id"`
	Disease              string               `json:"disease"`    // основное поражение
	Confidence           float64              `json:"confidence"` // уверенность основного поражения, 0–100
	Detections           []Detection          `json:"detections"`
	DiseaseProbabilities DiseaseProbabilities `json:"disease_probabilities"`
	RankedDiseases       []DiseaseScore       `json:"ranked_diseases"`
	Recommendations      Recommendation       `json:"recommendations"`
	Message              string               `json:"message"`
	Timestamp            time.Time            `json:"timestamp"`
	ImageFilename        string               `json:"image_filename,omitempty"`
	ImageWidth           int                  `json:"image_width,omitempty"`
	ImageHeight          int                  `json:"image_height,omitempty"`
	UserID               string               `json:"user_id,omitempty"`
	ImageURL             string               `json:"image_url,omitempty"` // не сохраняется в истории
}

// HasDetections сообщает, найдено ли хоть одно поражение.
func (r *DetectionResult) HasDetections() bool {
	return len(r.Detections) > 0
}

// HistoryRecord возвращает копию результата для сохранения в истории.
func (r *DetectionResult) HistoryRecord() DetectionResult {
	rec := *r
	rec.ImageURL = ""
	return rec
}

// AveragedDiagnostic усреднённые показатели поражения по серии снимков.
type AveragedDiagnostic struct {
	Lesion             string         `json:"lesion"`
	Occurrences        int            `json:"occurrences"`
	ConfidenceScores   []float64      `json:"confidence_scores"`
	AveragedConfidence float64        `json:"averaged_confidence"`
	Recommendation     Recommendation `json:"recommendation"`
}

// BatchResult результат анализа нескольких снимков.
type BatchResult struct {
	Results             []DetectionResult    `json:"detections"`
	AveragedDiagnostics []AveragedDiagnostic `json:"averaged_diagnostics"`
	PrimaryDiagnosis    *AveragedDiagnostic  `json:"primary_diagnosis"`
}

// HistoryPage ответ на запрос истории: последние записи и общее их число.
type HistoryPage struct {
	Detections []DetectionResult `json:"detections"`
	Count      int               `json:"count"`
}
