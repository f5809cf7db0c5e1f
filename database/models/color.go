package models

// RGB 单个采样像素
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// ColorSummary 有序的 1~5 个采样色, 永不为空
type ColorSummary []RGB

// NeutralGray 提取失败时的占位色
var NeutralGray = RGB{R: 128, G: 128, B: 128}

// FallbackSummary 返回只包含中性灰的摘要
func FallbackSummary() ColorSummary {
	return ColorSummary{NeutralGray}
}

// OrFallback 空摘要替换为中性灰
func (c ColorSummary) OrFallback() ColorSummary {
	if len(c) == 0 {
		return FallbackSummary()
	}
	return c
}
