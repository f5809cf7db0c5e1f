package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Memory 访客贡献的一张照片和一段留言, 即马赛克中的一块
type Memory struct {
	ID           string       `gorm:"type:varchar(36);primaryKey" json:"id"`
	MemorialID   string       `gorm:"type:varchar(36);not null;index:idx_memory_memorial_created,priority:1" json:"memorial_id"`
	VisitorName  string       `gorm:"type:varchar(100);not null" json:"visitor_name"`
	Message      string       `gorm:"type:text;not null" json:"message"`
	ImageKey     string       `gorm:"type:varchar(255);not null" json:"-"`
	ImageURL     string       `gorm:"type:varchar(1024);not null" json:"image_url"`
	ColorSummary ColorSummary `gorm:"serializer:json;type:text" json:"color_summary"`
	CreatedAt    time.Time    `gorm:"index:idx_memory_memorial_created,priority:2" json:"created_at"`
}

func (m *Memory) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.ColorSummary = m.ColorSummary.OrFallback()
	return nil
}
