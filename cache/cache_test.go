package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/anoixa/mozaiek/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyBuilder(t *testing.T) {
	kb := NewKeyBuilder(PrefixMemorial)
	assert.Equal(t, "memorial", kb.Build())
	assert.Equal(t, "memorial:abc", kb.Build("abc"))
	assert.Equal(t, "memorial:abc", kb.Build("", "abc", ""))
	assert.Equal(t, "memorial:abc:header", kb.Header("abc"))
}

func TestNewFactory_Memory(t *testing.T) {
	f, err := NewFactory(&config.Config{CacheType: "memory"})
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, "memory", f.GetProvider().Name())
}

func TestNewFactory_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	f, err := NewFactory(&config.Config{CacheType: "redis", CacheRedisAddr: mr.Addr()})
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, "redis", f.GetProvider().Name())

	ctx := context.Background()
	require.NoError(t, f.GetProvider().Set(ctx, "k", "v", time.Minute))
	assert.True(t, mr.Exists("mozaiek:k"))
}

// TestNewFactory_RedisFallback redis 不可用时退回内存缓存
func TestNewFactory_RedisFallback(t *testing.T) {
	f, err := NewFactory(&config.Config{CacheType: "redis", CacheRedisAddr: "127.0.0.1:1"})
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, "memory", f.GetProvider().Name())
}

func TestNewFactory_Unsupported(t *testing.T) {
	_, err := NewFactory(&config.Config{CacheType: "memcached"})
	assert.Error(t, err)
}

func TestIsCacheMiss(t *testing.T) {
	assert.True(t, IsCacheMiss(ErrCacheMiss))
	assert.False(t, IsCacheMiss(nil))
	assert.False(t, IsCacheMiss(assert.AnError))
}
