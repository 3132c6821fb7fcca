package entity

// PreparedImage изображение, подготовленное для детектора.
type PreparedImage struct {
	Width   int     // ширина исходника
	Height  int     // высота исходника
	Format  string  // формат исходника
	Payload []byte  // JPEG для модели
	Scale   float64 // множитель перевода координат модели в координаты исходника
}
