package entity

import "math"

// BoundingBox представляет область с найденным поражением
type BoundingBox struct {
	X      int `json:"x"`      // координата X левого верхнего угла
	Y      int `json:"y"`      // координата Y левого верхнего угла
	Width  int `json:"width"`  // ширина области в пикселях
	Height int `json:"height"` // высота области в пикселях
}

// Scale пересчитывает область в другую систему координат.
func (b BoundingBox) Scale(factor float64) BoundingBox {
	if factor == 1 || factor <= 0 {
		return b
	}
	return BoundingBox{
		X:      int(math.Round(float64(b.X) * factor)),
		Y:      int(math.Round(float64(b.Y) * factor)),
		Width:  int(math.Round(float64(b.Width) * factor)),
		Height: int(math.Round(float64(b.Height) * factor)),
	}
}

// BoxFromCenter строит область по центру и размерам (формат хостинговых моделей).
func BoxFromCenter(cx, cy, width, height float64) BoundingBox {
	return BoundingBox{
		X:      int(cx - width/2),
		Y:      int(cy - height/2),
		Width:  int(width),
		Height: int(height),
	}
}

// Detection один результат модели: тип поражения, уверенность 0–100 и область.
type Detection struct {
	Type       string      `json:"type"`
	Confidence float64     `json:"confidence"`
	BBox       BoundingBox `json:"bbox"`
}

// PercentFromFraction переводит уверенность 0–1 в проценты с одним знаком после запятой.
func PercentFromFraction(v float64) float64 {
	return RoundTo(v*100, 1)
}

// RoundTo округляет до заданного числа знаков после запятой.
func RoundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
