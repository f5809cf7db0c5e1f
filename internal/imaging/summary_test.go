package imaging

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/anoixa/mozaiek/database/models"
	"github.com/anoixa/mozaiek/internal/imaging/imagingtest"
)

func TestSample_StrideOrder(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	// 行优先下标 0,100,200,300,400 对应第 0 列的前 5 行
	for y := 0; y < 5; y++ {
		img.Set(0, y, color.RGBA{R: uint8(y * 10), G: uint8(y * 20), B: uint8(y * 30), A: 255})
	}
	img.Set(1, 0, color.RGBA{R: 255, A: 255})

	got := sample(img)
	want := models.ColorSummary{
		{R: 0, G: 0, B: 0},
		{R: 10, G: 20, B: 30},
		{R: 20, G: 40, B: 60},
		{R: 30, G: 60, B: 90},
		{R: 40, G: 80, B: 120},
	}
	assert.Equal(t, want, got)
}

func TestSample_SmallImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	got := sample(img)
	assert.Len(t, got, 1)
}

func TestSummarize_SolidColor(t *testing.T) {
	got := Summarize(NewNativeEngine(), imagingtest.PNG(320, 240, color.RGBA{R: 200, G: 40, B: 90, A: 255}))
	assert.Len(t, got, 5)
	for _, c := range got {
		assert.InDelta(t, 200, int(c.R), 2)
		assert.InDelta(t, 40, int(c.G), 2)
		assert.InDelta(t, 90, int(c.B), 2)
	}
}

func TestSummarize_TransparentIsFlattenedToWhite(t *testing.T) {
	got := Summarize(NewNativeEngine(), imagingtest.PNG(100, 100, color.NRGBA{R: 0, G: 0, B: 0, A: 0}))
	assert.Len(t, got, 5)
	assert.Equal(t, models.RGB{R: 255, G: 255, B: 255}, got[0])
}

func TestSummarize_FallsBackToGray(t *testing.T) {
	assert.Equal(t, models.FallbackSummary(), Summarize(NewNativeEngine(), imagingtest.CorruptPNG()))
	assert.Equal(t, models.FallbackSummary(), Summarize(NewNativeEngine(), nil))
}

type panickyEngine struct{ *NativeEngine }

func (panickyEngine) Thumbnail([]byte, int, int) (image.Image, error) {
	panic("boom")
}

func TestSummarize_RecoversPanic(t *testing.T) {
	assert.Equal(t, models.FallbackSummary(), Summarize(panickyEngine{NewNativeEngine()}, imagingtest.PNG(10, 10, color.White)))
}
