package app

import (
	"sort"

	"oral-scan/internal/domain/entity"
)

// AggregateDiseaseProbabilities распределяет уверенность каждого поражения поровну между
// связанными заболеваниями и нормирует суммы в проценты.
// Поражения без записи в таблице ничего не добавляют; при нулевой сумме все заболевания получают 0.
func AggregateDiseaseProbabilities(detections []entity.Detection) entity.DiseaseProbabilities {
	probs, _ := ScoreDiseases(detections)
	return probs
}

// ScoreDiseases считает вероятности и ранжированный список заболеваний с вкладом каждого поражения.
// Ранжирование по убыванию; при равенстве сохраняется порядок KnownDiseases.
// Округляются только итоговые значения, суммы накапливаются без потерь.
func ScoreDiseases(detections []entity.Detection) (entity.DiseaseProbabilities, []entity.DiseaseScore) {
	scores := make(map[string]float64, len(entity.KnownDiseases))
	contributions := make(map[string][]entity.LesionContribution, len(entity.KnownDiseases))
	total := 0.0

	for _, d := range detections {
		diseases := entity.LesionDiseases[d.Type]
		if len(diseases) == 0 {
			continue
		}
		share := d.Confidence / float64(len(diseases))
		for _, disease := range diseases {
			scores[disease] += share
			total += share
			contributions[disease] = append(contributions[disease], entity.LesionContribution{
				Lesion:       d.Type,
				Confidence:   d.Confidence,
				SharedWith:   len(diseases),
				Contribution: share,
			})
		}
	}

	probs := make(entity.DiseaseProbabilities, len(entity.KnownDiseases))
	ranked := make([]entity.DiseaseScore, 0, len(entity.KnownDiseases))
	for _, disease := range entity.KnownDiseases {
		p := 0.0
		if total > 0 {
			p = entity.RoundTo(scores[disease]/total*100, 2)
		}
		probs[disease] = p

		parts := make([]entity.LesionContribution, 0, len(contributions[disease]))
		for _, c := range contributions[disease] {
			c.Contribution = entity.RoundTo(c.Contribution, 2)
			parts = append(parts, c)
		}
		ranked = append(ranked, entity.DiseaseScore{Disease: disease, Probability: p, Contributions: parts})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Probability > ranked[j].Probability
	})
	return probs, ranked
}
