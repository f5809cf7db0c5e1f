// Package storagetest 提供测试用的内存存储
package storagetest

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/anoixa/mozaiek/storage"
)

// ErrInjected 注入的存储故障
var ErrInjected = errors.New("injected storage failure")

// Memory 内存存储, 可注入写入或删除失败
type Memory struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string

	FailSave   bool
	FailDelete bool
}

// NewMemory 创建内存存储
func NewMemory() *Memory {
	return &Memory{
		objects: make(map[string][]byte),
		types:   make(map[string]string),
	}
}

func (m *Memory) SaveWithContext(ctx context.Context, key string, file io.Reader, opts storage.SaveOptions) error {
	m.mu.Lock()
	fail := m.FailSave
	m.mu.Unlock()
	if fail {
		return ErrInjected
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	m.types[key] = opts.ContentType
	return nil
}

func (m *Memory) GetWithContext(ctx context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *Memory) DeleteWithContext(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailDelete {
		return ErrInjected
	}
	if _, ok := m.objects[key]; !ok {
		return storage.ErrNotFound
	}
	delete(m.objects, key)
	delete(m.types, key)
	return nil
}

func (m *Memory) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok, nil
}

func (m *Memory) List(ctx context.Context, prefix string, fn func(key string) error) error {
	for _, key := range m.Keys() {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if err := fn(key); err != nil {
			return err
		}
	}
	return nil
}

func (m *Memory) PublicURL(key string) string {
	return "http://photos.test/" + key
}

func (m *Memory) Health(ctx context.Context) error {
	return nil
}

func (m *Memory) Name() string {
	return "memory"
}

// SetFailSave 切换写入失败
func (m *Memory) SetFailSave(fail bool) {
	m.mu.Lock()
	m.FailSave = fail
	m.mu.Unlock()
}

// Keys 返回已排序的全部 key
func (m *Memory) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Object 返回对象内容和类型
func (m *Memory) Object(key string) ([]byte, string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	return data, m.types[key], ok
}

var (
	_ storage.Provider = (*Memory)(nil)
	_ storage.Lister   = (*Memory)(nil)
)
