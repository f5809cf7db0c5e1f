package repositories

import (
	"github.com/anoixa/mozaiek/database"
	"github.com/anoixa/mozaiek/database/repo/accounts"
	"github.com/anoixa/mozaiek/database/repo/memorials"
)

// Repositories 集中管理所有数据库仓库
type Repositories struct {
	Accounts  *accounts.Repository
	Memorials *memorials.Repository
}

// NewRepositories 创建所有仓库实例
func NewRepositories(provider database.Provider) *Repositories {
	return &Repositories{
		Accounts:  accounts.NewRepository(provider),
		Memorials: memorials.NewRepository(provider),
	}
}
