package imaging

import "image"

// Frame 编码后的派生图片
type Frame struct {
	Data   []byte
	Width  int
	Height int
}

// Engine 图片处理引擎
// 实现需可并发调用, 透明像素统一压平到白色背景
type Engine interface {
	Name() string
	// Render 解码并按规格缩放, 输出 JPEG
	Render(data []byte, p Profile) (*Frame, error)
	// Thumbnail 解码并居中裁剪缩放到 w×h, 用于颜色采样
	Thumbnail(data []byte, w, h int) (image.Image, error)
}
