// Package reveal 根据回忆数量计算底图的揭示比例
package reveal

const (
	// Threshold 少于该数量时完全不揭示
	Threshold = 5
	// FullAt 达到该数量时完全揭示
	FullAt = 50
)

// Ratio 返回 0~1 的揭示比例, 读取时计算, 从不存储
func Ratio(count int) float64 {
	r := float64(count-Threshold) / float64(FullAt-Threshold)
	switch {
	case r < 0:
		return 0
	case r > 1:
		return 1
	default:
		return r
	}
}
