package telegram

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"oral-scan/internal/domain/entity"
)

func TestFormatResult(t *testing.T) {
	require.Equal(t, msgNoLesions, formatResult(&entity.DetectionResult{}))

	text := formatResult(&entity.DetectionResult{
		Detections: []entity.Detection{{Type: entity.LesionXerostomia, Confidence: 72.5}},
		RankedDiseases: []entity.DiseaseScore{
			{Disease: entity.DiseaseCeliac, Probability: 50},
			{Disease: entity.DiseaseChronicLiver, Probability: 50},
			{Disease: entity.DiseaseCrohns, Probability: 0},
		},
		Recommendations: entity.Recommendation{UrgentActions: []string{"Stay hydrated"}},
	})

	require.Contains(t, text, "• Xerostomia — 72.5%")
	require.Contains(t, text, "• Celiac Disease — 50.00%")
	require.NotContains(t, text, entity.DiseaseCrohns)
	require.Contains(t, text, "💡 Stay hydrated")
}

func TestFormatHistory(t *testing.T) {
	require.Equal(t, "📭 История пуста.", formatHistory(&entity.HistoryPage{}))

	ts := time.Date(2024, 3, 2, 10, 30, 0, 0, time.UTC)
	text := formatHistory(&entity.HistoryPage{
		Count: 7,
		Detections: []entity.DetectionResult{
			{Disease: entity.LesionGingivitis, Timestamp: ts},
			{Timestamp: ts.Add(time.Hour)},
		},
	})

	require.Equal(t, "🗂 Проверок всего: 7\n• 02.03.2024 11:30 — без поражений\n• 02.03.2024 10:30 — Gingivitis", text)
}

func TestDecodeDataURL(t *testing.T) {
	url := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte("jpeg"))
	require.Equal(t, []byte("jpeg"), decodeDataURL(url))
	require.Nil(t, decodeDataURL(""))
	require.Nil(t, decodeDataURL("data:image/jpeg;base64,%%%"))
}
