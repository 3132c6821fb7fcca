package recommend

import (
	"oral-scan/internal/domain/entity"
	"oral-scan/internal/domain/port"
)

var defaultRecommendation = entity.Recommendation{
	UrgentActions: []string{"Consult healthcare provider"},
	Monitoring:    []string{"Monitor symptoms"},
	Lifestyle:     []string{"Maintain oral hygiene"},
}

var table = map[string]entity.Recommendation{
	entity.LesionAphthousUlcer: {
		UrgentActions: []string{"Avoid spicy foods", "Use topical anesthetics"},
		Monitoring:    []string{"Track ulcer size", "Monitor for secondary infection"},
		Lifestyle:     []string{"Maintain oral hygiene", "Reduce stress"},
	},
	entity.LesionDentalCaries: {
		UrgentActions: []string{"Schedule dental appointment", "Avoid sugary foods"},
		Monitoring:    []string{"Check for pain", "Monitor cavity progression"},
		Lifestyle:     []string{"Brush twice daily", "Floss regularly"},
	},
	entity.LesionGingivitis: {
		UrgentActions: []string{"Improve oral hygiene", "Use antimicrobial mouthwash"},
		Monitoring:    []string{"Check for bleeding", "Monitor inflammation"},
		Lifestyle:     []string{"Brush gently", "Floss daily"},
	},
	entity.LesionOralCandidiasis: {
		UrgentActions: []string{"Consult healthcare provider", "Avoid irritants"},
		Monitoring:    []string{"Track white patches", "Monitor symptoms"},
		Lifestyle:     []string{"Maintain oral hygiene", "Avoid tobacco"},
	},
	entity.LesionMucosalTags: {
		UrgentActions: []string{"Monitor for changes", "Consult specialist if needed"},
		Monitoring:    []string{"Track size and appearance"},
		Lifestyle:     []string{"Maintain oral hygiene"},
	},
	entity.LesionXerostomia: {
		UrgentActions: []string{"Stay hydrated", "Use saliva substitutes"},
		Monitoring:    []string{"Monitor dry mouth severity"},
		Lifestyle:     []string{"Drink water frequently", "Avoid dry foods"},
	},
}

// Static справочник рекомендаций, зашитый в бинарник
type Static struct{}

// NewStatic создаёт справочник
func NewStatic() *Static {
	return &Static{}
}

// Recommend возвращает копию рекомендаций для поражения
func (Static) Recommend(lesion string) entity.Recommendation {
	rec, ok := table[lesion]
	if !ok {
		rec = defaultRecommendation
	}
	return entity.Recommendation{
		UrgentActions: append([]string(nil), rec.UrgentActions...),
		Monitoring:    append([]string(nil), rec.Monitoring...),
		Lifestyle:     append([]string(nil), rec.Lifestyle...),
	}
}

var _ port.Recommender = (*Static)(nil)
