package port

import "oral-scan/internal/domain/entity"

// ImagePreparer интерфейс проверки и подготовки загруженного снимка
type ImagePreparer interface {
	// Prepare декодирует снимок и готовит его для детектора
	Prepare(data []byte) (*entity.PreparedImage, error)
}
