package cache

import "strings"

// PrefixMemorial 纪念馆相关缓存的命名空间
const PrefixMemorial = "memorial"

const (
	keySep       = ":"
	headerSuffix = "header"
)

// KeyBuilder 按命名空间拼接缓存键
type KeyBuilder struct {
	prefix string
}

// NewKeyBuilder 创建新的键构建器
func NewKeyBuilder(prefix string) *KeyBuilder {
	return &KeyBuilder{prefix: prefix}
}

// Build 以 ":" 连接各段, 空段跳过
func (kb *KeyBuilder) Build(parts ...string) string {
	segs := make([]string, 0, len(parts)+1)
	segs = append(segs, kb.prefix)
	for _, p := range parts {
		if p != "" {
			segs = append(segs, p)
		}
	}
	return strings.Join(segs, keySep)
}

// Header 纪念馆头信息的缓存键
func (kb *KeyBuilder) Header(id string) string {
	return kb.Build(id, headerSuffix)
}
