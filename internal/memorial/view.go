package memorial

import (
	"time"

	"github.com/anoixa/mozaiek/database/models"
	"github.com/anoixa/mozaiek/internal/access"
)

// CreateMemorialInput 创建纪念馆的字段
type CreateMemorialInput struct {
	Name        string
	Description string
	IsPublic    bool
	// Password 仅对私密纪念馆生效, 为空表示凭链接访问
	Password string
}

// AddMemoryInput 访客留下回忆的字段
type AddMemoryInput struct {
	VisitorName string
	Message     string
}

// MemorialView 解锁后可见的纪念馆内容
type MemorialView struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Description  string              `json:"description"`
	IsPublic     bool                `json:"is_public"`
	HasPassword  bool                `json:"has_password"`
	OwnerID      uint                `json:"owner_id"`
	OwnerName    string              `json:"owner_name"`
	BaseImageURL string              `json:"base_image_url"`
	ColorSummary models.ColorSummary `json:"color_summary"`
	CreatedAt    time.Time           `json:"created_at"`
	Memories     []models.Memory     `json:"memories"`
	MemoryCount  int                 `json:"memory_count"`
	RevealRatio  float64             `json:"reveal_ratio"`
}

// FetchResult 读取结果, 锁定时 View 为空
type FetchResult struct {
	Decision access.Decision
	View     *MemorialView
}

// Locked 是否处于锁定状态
func (r *FetchResult) Locked() bool {
	return r.Decision.State == access.Locked
}

// OwnerMemorial 所有者列表中的一项
type OwnerMemorial struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Description  string              `json:"description"`
	IsPublic     bool                `json:"is_public"`
	HasPassword  bool                `json:"has_password"`
	BaseImageURL string              `json:"base_image_url"`
	ColorSummary models.ColorSummary `json:"color_summary"`
	CreatedAt    time.Time           `json:"created_at"`
	MemoryCount  int                 `json:"memory_count"`
	RevealRatio  float64             `json:"reveal_ratio"`
}

// header 缓存中的纪念馆头信息, 只包含创建后不变的字段
type header struct {
	ID           string              `json:"id"`
	OwnerID      uint                `json:"owner_id"`
	OwnerName    string              `json:"owner_name"`
	Name         string              `json:"name"`
	Description  string              `json:"description"`
	IsPublic     bool                `json:"is_public"`
	PasswordHash string              `json:"password_hash"`
	BaseImageKey string              `json:"base_image_key"`
	BaseImageURL string              `json:"base_image_url"`
	ColorSummary models.ColorSummary `json:"color_summary"`
	CreatedAt    time.Time           `json:"created_at"`
}

func headerOf(m *models.Memorial) *header {
	h := &header{
		ID:           m.ID,
		OwnerID:      m.OwnerID,
		Name:         m.Name,
		Description:  m.Description,
		IsPublic:     m.IsPublic,
		PasswordHash: m.PasswordHash,
		BaseImageKey: m.BaseImageKey,
		BaseImageURL: m.BaseImageURL,
		ColorSummary: m.ColorSummary,
		CreatedAt:    m.CreatedAt,
	}
	if m.Owner != nil {
		h.OwnerName = m.Owner.Name()
	}
	return h
}

// memorial 还原为模型供访问控制使用
func (h *header) memorial() *models.Memorial {
	return &models.Memorial{
		ID:           h.ID,
		OwnerID:      h.OwnerID,
		Name:         h.Name,
		Description:  h.Description,
		IsPublic:     h.IsPublic,
		PasswordHash: h.PasswordHash,
		BaseImageKey: h.BaseImageKey,
		BaseImageURL: h.BaseImageURL,
		ColorSummary: h.ColorSummary,
		CreatedAt:    h.CreatedAt,
	}
}
