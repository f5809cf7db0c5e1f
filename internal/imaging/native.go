package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// MaxPixels 解码前的像素上限, 防止解压炸弹
const MaxPixels = 50_000_000

// NativeEngine 纯 Go 实现, 不依赖 cgo
type NativeEngine struct {
	scaler draw.Scaler
}

// NewNativeEngine 创建纯 Go 引擎
func NewNativeEngine() *NativeEngine {
	return &NativeEngine{scaler: draw.CatmullRom}
}

// Name 引擎名称
func (e *NativeEngine) Name() string {
	return "native"
}

// Render 按规格缩放并编码为 JPEG
func (e *NativeEngine) Render(data []byte, p Profile) (*Frame, error) {
	src, err := decode(data)
	if err != nil {
		return nil, err
	}

	b := src.Bounds()
	var dst *image.RGBA
	switch p.Fit {
	case FitCover:
		dst = e.scale(src, coverRect(b, p.Width, p.Height), p.Width, p.Height)
	default:
		w, h := fitInside(b.Dx(), b.Dy(), p.Width, p.Height)
		dst = e.scale(src, b, w, h)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: p.Quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}

	return &Frame{
		Data:   buf.Bytes(),
		Width:  dst.Bounds().Dx(),
		Height: dst.Bounds().Dy(),
	}, nil
}

// Thumbnail 居中裁剪缩放
func (e *NativeEngine) Thumbnail(data []byte, w, h int) (image.Image, error) {
	src, err := decode(data)
	if err != nil {
		return nil, err
	}
	return e.scale(src, coverRect(src.Bounds(), w, h), w, h), nil
}

// scale 将 src 的 sr 区域缩放到 w×h 的白底画布
func (e *NativeEngine) scale(src image.Image, sr image.Rectangle, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	e.scaler.Scale(dst, dst.Bounds(), src, sr, draw.Over, nil)
	return dst
}

func decode(data []byte) (image.Image, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("invalid dimensions %dx%d", cfg.Width, cfg.Height)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, fmt.Errorf("image too large: %dx%d", cfg.Width, cfg.Height)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return img, nil
}

// coverRect 计算与目标宽高比一致的居中源区域
func coverRect(b image.Rectangle, tw, th int) image.Rectangle {
	w, h := b.Dx(), b.Dy()
	// w/h 与 tw/th 比较, 交叉相乘避免浮点
	if int64(w)*int64(th) > int64(h)*int64(tw) {
		cw := int((int64(h)*int64(tw) + int64(th)/2) / int64(th))
		if cw < 1 {
			cw = 1
		}
		x0 := b.Min.X + (w-cw)/2
		return image.Rect(x0, b.Min.Y, x0+cw, b.Max.Y)
	}
	ch := int((int64(w)*int64(th) + int64(tw)/2) / int64(tw))
	if ch < 1 {
		ch = 1
	}
	y0 := b.Min.Y + (h-ch)/2
	return image.Rect(b.Min.X, y0, b.Max.X, y0+ch)
}
