package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrPublicWithPassword 公开纪念馆不允许带访问密码
var ErrPublicWithPassword = errors.New("public memorial must not carry a password hash")

// Memorial 以一张底图为核心的纪念馆
type Memorial struct {
	ID           string       `gorm:"type:varchar(36);primaryKey" json:"id"`
	OwnerID      uint         `gorm:"not null;index" json:"owner_id"`
	Owner        *User        `gorm:"foreignKey:OwnerID" json:"-"`
	Name         string       `gorm:"type:varchar(100);not null" json:"name"`
	Description  string       `gorm:"type:text" json:"description"`
	IsPublic     bool         `gorm:"not null" json:"is_public"`
	PasswordHash string       `gorm:"type:varchar(100)" json:"-"`
	BaseImageKey string       `gorm:"type:varchar(255);not null" json:"-"`
	BaseImageURL string       `gorm:"type:varchar(1024);not null" json:"base_image_url"`
	ColorSummary ColorSummary `gorm:"serializer:json;type:text" json:"color_summary"`
	CreatedAt    time.Time    `gorm:"index" json:"created_at"`

	Memories []Memory `gorm:"foreignKey:MemorialID;constraint:OnDelete:CASCADE" json:"-"`
}

// HasPassword 是否设置了访问密码
func (m *Memorial) HasPassword() bool {
	return !m.IsPublic && m.PasswordHash != ""
}

// BeforeCreate 生成 ID 并检查可见性与密码的一致性
func (m *Memorial) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.IsPublic && m.PasswordHash != "" {
		return ErrPublicWithPassword
	}
	m.ColorSummary = m.ColorSummary.OrFallback()
	return nil
}
