// Package vipsengine 基于 libvips 的图片引擎, 需要 cgo
package vipsengine

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"sync"

	"github.com/davidbyttow/govips/v2/vips"

	"github.com/anoixa/mozaiek/internal/imaging"
)

var startOnce sync.Once

// Engine libvips 引擎
type Engine struct{}

// New 启动 libvips, concurrency <= 0 时使用 libvips 默认值
func New(concurrency int) *Engine {
	startOnce.Do(func() {
		vips.LoggingSettings(nil, vips.LogLevelWarning)
		vips.Startup(&vips.Config{ConcurrencyLevel: concurrency})
	})
	return &Engine{}
}

// Shutdown 关闭 libvips, 进程退出前调用
func (e *Engine) Shutdown() {
	vips.Shutdown()
}

// Name 引擎名称
func (e *Engine) Name() string {
	return "vips"
}

// Render 按规格缩放并导出 JPEG
func (e *Engine) Render(data []byte, p imaging.Profile) (*imaging.Frame, error) {
	crop, size := vips.InterestingNone, vips.SizeDown
	if p.Fit == imaging.FitCover {
		crop, size = vips.InterestingCentre, vips.SizeBoth
	}

	img, err := vips.NewThumbnailWithSizeFromBuffer(data, p.Width, p.Height, crop, size)
	if err != nil {
		return nil, fmt.Errorf("thumbnail from buffer: %w", err)
	}
	defer img.Close()

	if err := flatten(img); err != nil {
		return nil, err
	}

	out, _, err := img.ExportJpeg(&vips.JpegExportParams{
		Quality:       p.Quality,
		StripMetadata: true,
	})
	if err != nil {
		return nil, fmt.Errorf("export jpeg: %w", err)
	}

	return &imaging.Frame{
		Data:   out,
		Width:  img.Width(),
		Height: img.Height(),
	}, nil
}

// Thumbnail 居中裁剪缩放后转为 image.Image
func (e *Engine) Thumbnail(data []byte, w, h int) (image.Image, error) {
	img, err := vips.NewThumbnailWithSizeFromBuffer(data, w, h, vips.InterestingCentre, vips.SizeBoth)
	if err != nil {
		return nil, fmt.Errorf("thumbnail from buffer: %w", err)
	}
	defer img.Close()

	if err := flatten(img); err != nil {
		return nil, err
	}

	out, _, err := img.ExportPng(vips.NewPngExportParams())
	if err != nil {
		return nil, fmt.Errorf("export png: %w", err)
	}
	return png.Decode(bytes.NewReader(out))
}

// flatten 转为 sRGB 并把透明区域压到白底
func flatten(img *vips.ImageRef) error {
	if err := img.ToColorSpace(vips.InterpretationSRGB); err != nil {
		return fmt.Errorf("to srgb: %w", err)
	}
	if img.HasAlpha() {
		if err := img.Flatten(&vips.Color{R: 255, G: 255, B: 255}); err != nil {
			return fmt.Errorf("flatten: %w", err)
		}
	}
	return nil
}

var _ imaging.Engine = (*Engine)(nil)
