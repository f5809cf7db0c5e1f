package imaging

// FitMode 缩放方式
type FitMode int

const (
	// FitInside 等比缩放到框内, 不放大
	FitInside FitMode = iota
	// FitCover 居中裁剪并缩放到精确尺寸
	FitCover
)

// Profile 一种派生图片的规格
type Profile struct {
	Name      string
	Width     int
	Height    int
	Fit       FitMode
	Quality   int
	Namespace string
}

// BaseProfile 纪念馆底图规格
func BaseProfile(maxSide, quality int) Profile {
	return Profile{
		Name:      "base",
		Width:     maxSide,
		Height:    maxSide,
		Fit:       FitInside,
		Quality:   quality,
		Namespace: "memorials",
	}
}

// MemoryProfile 回忆拼贴块规格
func MemoryProfile(side, quality int) Profile {
	return Profile{
		Name:      "memory",
		Width:     side,
		Height:    side,
		Fit:       FitCover,
		Quality:   quality,
		Namespace: "memories",
	}
}

var (
	// BasePhoto 800×800 内等比缩放, JPEG 80
	BasePhoto = BaseProfile(800, 80)
	// MemoryPhoto 200×200 居中裁剪, JPEG 80
	MemoryPhoto = MemoryProfile(200, 80)
)

// Profiles 服务使用的一组规格
type Profiles struct {
	Base   Profile
	Memory Profile
}

// DefaultProfiles 默认规格
func DefaultProfiles() Profiles {
	return Profiles{Base: BasePhoto, Memory: MemoryPhoto}
}

// fitInside 计算框内等比尺寸, 不放大
func fitInside(w, h, maxW, maxH int) (int, int) {
	if w <= maxW && h <= maxH {
		return w, h
	}
	scale := float64(maxW) / float64(w)
	if s := float64(maxH) / float64(h); s < scale {
		scale = s
	}
	nw := int(float64(w)*scale + 0.5)
	nh := int(float64(h)*scale + 0.5)
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	return nw, nh
}
