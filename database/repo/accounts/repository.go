package accounts

import (
	"context"
	"fmt"

	"github.com/anoixa/mozaiek/database"
	"github.com/anoixa/mozaiek/database/models"
	"gorm.io/gorm"
)

// Repository 所有者账户仓库
type Repository struct {
	db database.Provider
}

// NewRepository 创建新的账户仓库
func NewRepository(db database.Provider) *Repository {
	return &Repository{db: db}
}

// GetUserByID 通过ID获取用户
func (r *Repository) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByUsername 通过用户名获取用户
func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// EnsureUser 不存在则创建, 存在时更新展示名
func (r *Repository) EnsureUser(ctx context.Context, username, displayName string) (*models.User, error) {
	var user models.User
	err := r.db.TransactionWithContext(ctx, func(tx *gorm.DB) error {
		if err := tx.Where(models.User{Username: username}).
			Attrs(models.User{DisplayName: displayName}).
			FirstOrCreate(&user).Error; err != nil {
			return err
		}
		if displayName != "" && user.DisplayName != displayName {
			return tx.Model(&user).Update("display_name", displayName).Error
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to ensure user %s: %w", username, err)
	}
	return &user, nil
}
