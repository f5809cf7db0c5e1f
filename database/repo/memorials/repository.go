package memorials

import (
	"context"
	"errors"
	"fmt"

	"github.com/anoixa/mozaiek/database"
	"github.com/anoixa/mozaiek/database/models"
	"gorm.io/gorm"
)

// Repository 纪念馆与回忆仓库 - 回忆只追加, 不做原地更新
type Repository struct {
	db database.Provider
}

// NewRepository 创建新的纪念馆仓库
func NewRepository(db database.Provider) *Repository {
	return &Repository{db: db}
}

// OwnedMemorial 所有者列表中的一项, 附带回忆数量
type OwnedMemorial struct {
	models.Memorial
	MemoryCount int64
}

// CreateMemorial 创建纪念馆
func (r *Repository) CreateMemorial(ctx context.Context, memorial *models.Memorial) error {
	if err := r.db.WithContext(ctx).Create(memorial).Error; err != nil {
		return fmt.Errorf("failed to create memorial: %w", err)
	}
	return nil
}

// GetMemorialByID 通过ID获取纪念馆, 同时加载所有者
func (r *Repository) GetMemorialByID(ctx context.Context, id string) (*models.Memorial, error) {
	var memorial models.Memorial
	err := r.db.WithContext(ctx).Preload("Owner").First(&memorial, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &memorial, nil
}

// ListMemories 按贡献顺序返回纪念馆的全部回忆
func (r *Repository) ListMemories(ctx context.Context, memorialID string) ([]models.Memory, error) {
	var memories []models.Memory
	err := r.db.WithContext(ctx).
		Where("memorial_id = ?", memorialID).
		Order("created_at asc").
		Order("id asc").
		Find(&memories).Error
	return memories, err
}

// CountMemories 统计回忆数量
func (r *Repository) CountMemories(ctx context.Context, memorialID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Memory{}).Where("memorial_id = ?", memorialID).Count(&count).Error
	return count, err
}

// CreateMemory 在同一事务内确认纪念馆仍存在后追加回忆
func (r *Repository) CreateMemory(ctx context.Context, memory *models.Memory) error {
	return r.db.TransactionWithContext(ctx, func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Memorial{}).Where("id = ?", memory.MemorialID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("memorial %s: %w", memory.MemorialID, gorm.ErrRecordNotFound)
		}

		if err := tx.Create(memory).Error; err != nil {
			return fmt.Errorf("failed to create memory in transaction: %w", err)
		}
		return nil
	})
}

// GetMemoryByID 通过ID获取回忆
func (r *Repository) GetMemoryByID(ctx context.Context, id string) (*models.Memory, error) {
	var memory models.Memory
	if err := r.db.WithContext(ctx).First(&memory, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &memory, nil
}

// DeleteMemory 删除回忆并返回被删除的记录, 便于清理存储
func (r *Repository) DeleteMemory(ctx context.Context, id string) (*models.Memory, error) {
	var memory models.Memory
	err := r.db.TransactionWithContext(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&memory, "id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Memory{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to delete memory %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &memory, nil
}

// DeleteMemorial 级联删除纪念馆及其回忆, 返回被删除的回忆
func (r *Repository) DeleteMemorial(ctx context.Context, id string) (*models.Memorial, []models.Memory, error) {
	var (
		memorial models.Memorial
		memories []models.Memory
	)

	err := r.db.TransactionWithContext(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&memorial, "id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Where("memorial_id = ?", id).Find(&memories).Error; err != nil {
			return err
		}

		// sqlite 未开启外键时级联不生效, 这里显式删除
		if err := tx.Where("memorial_id = ?", id).Delete(&models.Memory{}).Error; err != nil {
			return fmt.Errorf("failed to delete memories of memorial %s: %w", id, err)
		}
		if err := tx.Delete(&models.Memorial{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to delete memorial %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &memorial, memories, nil
}

// ListByOwner 所有者的纪念馆, 按创建时间倒序
func (r *Repository) ListByOwner(ctx context.Context, ownerID uint) ([]OwnedMemorial, error) {
	var memorials []models.Memorial
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at desc").
		Find(&memorials).Error
	if err != nil {
		return nil, err
	}
	if len(memorials) == 0 {
		return []OwnedMemorial{}, nil
	}

	ids := make([]string, len(memorials))
	for i := range memorials {
		ids[i] = memorials[i].ID
	}

	var rows []struct {
		MemorialID string
		N          int64
	}
	err = r.db.WithContext(ctx).Model(&models.Memory{}).
		Select("memorial_id, COUNT(*) AS n").
		Where("memorial_id IN ?", ids).
		Group("memorial_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.MemorialID] = row.N
	}

	result := make([]OwnedMemorial, len(memorials))
	for i := range memorials {
		result[i] = OwnedMemorial{Memorial: memorials[i], MemoryCount: counts[memorials[i].ID]}
	}
	return result, nil
}

// ReferencedKeys 返回所有被记录引用的存储 key
func (r *Repository) ReferencedKeys(ctx context.Context) (map[string]struct{}, error) {
	var baseKeys, tileKeys []string
	if err := r.db.WithContext(ctx).Model(&models.Memorial{}).Pluck("base_image_key", &baseKeys).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Model(&models.Memory{}).Pluck("image_key", &tileKeys).Error; err != nil {
		return nil, err
	}

	keys := make(map[string]struct{}, len(baseKeys)+len(tileKeys))
	for _, k := range append(baseKeys, tileKeys...) {
		keys[k] = struct{}{}
	}
	return keys, nil
}

// IsNotFound 判断是否为记录不存在
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
