package imaging

import (
	"image"
	"log"

	"github.com/anoixa/mozaiek/database/models"
)

const (
	summarySide   = 100
	summaryStride = 100
	summaryColors = 5
)

// Summarize 从原始字节提取颜色摘要
// 缩放到 100×100 后按行优先每 100 个像素取一个, 保留前 5 个.
// 任何失败都返回中性灰, 从不返回错误
func Summarize(e Engine, data []byte) (summary models.ColorSummary) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Imaging] color summary panic recovered: %v", r)
			summary = models.FallbackSummary()
		}
	}()

	img, err := e.Thumbnail(data, summarySide, summarySide)
	if err != nil {
		log.Printf("[Imaging] color summary fell back to gray: %v", err)
		return models.FallbackSummary()
	}
	return sample(img)
}

func sample(img image.Image) models.ColorSummary {
	b := img.Bounds()
	width := b.Dx()
	total := width * b.Dy()

	out := make(models.ColorSummary, 0, summaryColors)
	for i := 0; i < total && len(out) < summaryColors; i += summaryStride {
		x := b.Min.X + i%width
		y := b.Min.Y + i/width
		r, g, bl, _ := img.At(x, y).RGBA()
		out = append(out, models.RGB{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(bl >> 8)})
	}
	return out.OrFallback()
}
