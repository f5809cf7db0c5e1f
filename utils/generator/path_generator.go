package generator

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/anoixa/mozaiek/utils"
)

// SuffixLength 随机后缀长度
const SuffixLength = 7

// PathGenerator 对象 key 生成器
// key 由命名空间, 毫秒时间戳和随机后缀组成, 不依赖内容哈希.
// 同一毫秒内仍有极小概率冲突 (36^7 分之一)
type PathGenerator struct {
	now func() time.Time
}

// NewPathGenerator 创建路径生成器
func NewPathGenerator() *PathGenerator {
	return &PathGenerator{now: time.Now}
}

// WithClock 替换时钟, 测试用
func (pg *PathGenerator) WithClock(now func() time.Time) *PathGenerator {
	return &PathGenerator{now: now}
}

// ObjectKey 生成形如 memories/1760600000000-k3j9x2a.jpg 的 key
func (pg *PathGenerator) ObjectKey(namespace, ext string) (string, error) {
	namespace = strings.Trim(namespace, "/")
	if namespace == "" {
		return "", fmt.Errorf("namespace is required")
	}
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	suffix, err := utils.RandomBase36(SuffixLength)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%d-%s%s", namespace, pg.now().UnixMilli(), suffix, ext), nil
}

// Namespace 返回 key 的命名空间部分
func Namespace(key string) string {
	if i := strings.IndexByte(key, '/'); i > 0 {
		return key[:i]
	}
	return ""
}

// CreatedAt 解析 key 中的毫秒时间戳
func CreatedAt(key string) (time.Time, bool) {
	name := key[strings.LastIndexByte(key, '/')+1:]
	dash := strings.IndexByte(name, '-')
	if dash <= 0 {
		return time.Time{}, false
	}
	ms, err := strconv.ParseInt(name[:dash], 10, 64)
	if err != nil || ms <= 0 {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}
