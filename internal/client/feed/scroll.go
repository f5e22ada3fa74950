package feed

// Threshold - доля оставшейся высоты, при которой запрашивается следующая страница
const Threshold = 0.1

// ScrollPosition - геометрия прокручиваемой области
type ScrollPosition struct {
	ScrollTop    float64
	ScrollHeight float64
	ClientHeight float64
}

// Remaining - сколько осталось прокрутить до конца
func (p ScrollPosition) Remaining() float64 {
	return p.ScrollHeight - p.ScrollTop - p.ClientHeight
}

// NearBottom сообщает, что до конца осталось не больше Threshold от непрочитанной высоты
func (p ScrollPosition) NearBottom() bool {
	return p.Remaining() <= Threshold*(p.ScrollHeight-p.ScrollTop)
}
