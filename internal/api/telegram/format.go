package telegram

import (
	"fmt"
	"strings"

	"oral-scan/internal/domain/entity"
)

const msgNoLesions = "✅ Поражения не обнаружены."

// formatResult собирает текст ответа по результату анализа.
func formatResult(r *entity.DetectionResult) string {
	if !r.HasDetections() {
		return msgNoLesions
	}

	var sb strings.Builder
	sb.WriteString("🔍 Найдены поражения:\n")
	for _, d := range r.Detections {
		fmt.Fprintf(&sb, "• %s — %.1f%%\n", d.Type, d.Confidence)
	}

	sb.WriteString("\n📊 Вероятность заболеваний:\n")
	for _, s := range r.RankedDiseases {
		if s.Probability == 0 {
			continue
		}
		fmt.Fprintf(&sb, "• %s — %.2f%%\n", s.Disease, s.Probability)
	}

	if len(r.Recommendations.UrgentActions) > 0 {
		fmt.Fprintf(&sb, "\n💡 %s", r.Recommendations.UrgentActions[0])
	}
	return strings.TrimRight(sb.String(), "\n")
}

// formatHistory собирает текст ответа на /history.
func formatHistory(page *entity.HistoryPage) string {
	if page.Count == 0 {
		return "📭 История пуста."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🗂 Проверок всего: %d\n", page.Count)
	for i := len(page.Detections) - 1; i >= 0; i-- {
		r := page.Detections[i]
		lesion := r.Disease
		if lesion == "" {
			lesion = "без поражений"
		}
		fmt.Fprintf(&sb, "• %s — %s\n", r.Timestamp.Format("02.01.2006 15:04"), lesion)
	}
	return strings.TrimRight(sb.String(), "\n")
}
