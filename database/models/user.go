package models

import "gorm.io/gorm"

// User 纪念馆所有者, 账号注册/登录不在本服务内
type User struct {
	gorm.Model
	Username    string `gorm:"type:varchar(64);uniqueIndex;not null" json:"username"`
	DisplayName string `gorm:"type:varchar(100)" json:"display_name"`
}

// Name 对外展示的名字
func (u *User) Name() string {
	if u == nil {
		return ""
	}
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}
