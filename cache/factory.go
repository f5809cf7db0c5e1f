package cache

import (
	"fmt"
	"log"

	"github.com/anoixa/mozaiek/cache/memory"
	"github.com/anoixa/mozaiek/cache/redis"
	"github.com/anoixa/mozaiek/config"
)

// Factory 缓存工厂
type Factory struct {
	provider Provider
}

// NewFactory 根据配置创建缓存提供者, redis 不可用时退回内存缓存
func NewFactory(cfg *config.Config) (*Factory, error) {
	switch cfg.CacheType {
	case "redis":
		r, err := redis.NewRedis(redis.Config{
			Addr:      cfg.CacheRedisAddr,
			Password:  cfg.CacheRedisPassword,
			DB:        cfg.CacheRedisDB,
			KeyPrefix: "mozaiek:",
		})
		if err == nil {
			log.Printf("[CacheFactory] Using redis cache at %s", cfg.CacheRedisAddr)
			return &Factory{provider: r}, nil
		}
		log.Printf("[CacheFactory] Redis unavailable, falling back to memory cache: %v", err)
		fallthrough
	case "memory", "":
		m, err := memory.NewMemory(memory.DefaultConfig())
		if err != nil {
			return nil, fmt.Errorf("failed to create memory cache: %w", err)
		}
		return &Factory{provider: m}, nil
	default:
		return nil, fmt.Errorf("unsupported cache provider type: %s", cfg.CacheType)
	}
}

// NewFactoryWithProvider 直接使用给定的 Provider
func NewFactoryWithProvider(p Provider) *Factory {
	return &Factory{provider: p}
}

// GetProvider 获取缓存提供者
func (f *Factory) GetProvider() Provider {
	return f.provider
}

// Close 关闭缓存
func (f *Factory) Close() error {
	if f.provider == nil {
		return nil
	}
	return f.provider.Close()
}
