package storage

import (
	"context"
	"errors"
	"io"
	"strings"
)

// ErrNotFound 对象不存在
var ErrNotFound = errors.New("storage object not found")

// SaveOptions 写入对象时的元数据
type SaveOptions struct {
	ContentType string
	Size        int64 // <=0 表示未知
}

// Provider 存储提供者接口 - 依赖倒置的核心抽象
// 对象一旦写入即不可变, 上层只会创建新 key, 不会覆盖
type Provider interface {
	// SaveWithContext 保存对象
	SaveWithContext(ctx context.Context, key string, file io.Reader, opts SaveOptions) error

	// GetWithContext 读取对象, 调用方负责 Close
	GetWithContext(ctx context.Context, key string) (io.ReadCloser, error)

	// DeleteWithContext 删除对象, 对象不存在时返回 ErrNotFound
	DeleteWithContext(ctx context.Context, key string) error

	// Exists 检查对象是否存在
	Exists(ctx context.Context, key string) (bool, error)

	// PublicURL 返回可公开访问的地址
	PublicURL(key string) string

	// Health 检查存储健康状态
	Health(ctx context.Context) error

	// Name 返回存储名称
	Name() string
}

// Lister 可枚举对象的存储, 供孤儿清理使用
type Lister interface {
	List(ctx context.Context, prefix string, fn func(key string) error) error
}

// joinURL 拼接公开地址, 保证只有一个斜杠
func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
