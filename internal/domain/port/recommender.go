package port

import "oral-scan/internal/domain/entity"

// Recommender интерфейс справочника рекомендаций
type Recommender interface {
	// Recommend возвращает рекомендации для поражения, для неизвестных возвращает общие
	Recommend(lesion string) entity.Recommendation
}
