package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/studio-b12/gowebdav"
)

// WebDAVConfig WebDAV 配置结构
type WebDAVConfig struct {
	URL           string        `mapstructure:"url"`
	Username      string        `mapstructure:"username"`
	Password      string        `mapstructure:"password"`
	RootPath      string        `mapstructure:"root_path"`
	PublicBaseURL string        `mapstructure:"public_base_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// WebDAVStorage WebDAV 存储实现
// gowebdav 不支持 context, 所有调用放到 goroutine 中并与 ctx 竞争
type WebDAVStorage struct {
	client        *gowebdav.Client
	baseURL       string
	rootPath      string
	publicBaseURL string
}

// NewWebDAVStorage 创建 WebDAV 存储提供者
func NewWebDAVStorage(cfg WebDAVConfig) (*WebDAVStorage, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("webdav URL is required")
	}

	client := gowebdav.NewClient(cfg.URL, cfg.Username, cfg.Password)
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	s := &WebDAVStorage{
		client:        client,
		baseURL:       strings.TrimRight(cfg.URL, "/"),
		rootPath:      normalizeRoot(cfg.RootPath),
		publicBaseURL: cfg.PublicBaseURL,
	}

	// 验证连接, 根目录不存在时创建
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if s.rootPath != "" {
		if err := s.call(ctx, func() error { return client.MkdirAll(s.rootPath, 0755) }); err != nil {
			return nil, fmt.Errorf("webdav connection test failed: %w", err)
		}
	}
	if err := s.Health(ctx); err != nil {
		return nil, fmt.Errorf("webdav connection test failed: %w", err)
	}

	return s, nil
}

func normalizeRoot(rootPath string) string {
	rootPath = strings.Trim(rootPath, "/")
	if rootPath == "" {
		return ""
	}
	return "/" + rootPath
}

// call 在 goroutine 中执行阻塞调用, ctx 取消时立即返回
func (s *WebDAVStorage) call(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

// fullPath 生成完整的 WebDAV 路径
func (s *WebDAVStorage) fullPath(key string) string {
	key = strings.TrimLeft(key, "/")
	if s.rootPath != "" {
		return s.rootPath + "/" + key
	}
	return "/" + key
}

// ensureParentDir 创建父目录
func (s *WebDAVStorage) ensureParentDir(ctx context.Context, fullPath string) error {
	parentDir := path.Dir(fullPath)
	if parentDir == "/" || parentDir == "." {
		return nil
	}
	return s.call(ctx, func() error {
		return s.client.MkdirAll(parentDir, os.FileMode(0755))
	})
}

// SaveWithContext 保存文件到 WebDAV
func (s *WebDAVStorage) SaveWithContext(ctx context.Context, key string, file io.Reader, _ SaveOptions) error {
	if !IsValidStoragePath(key) {
		return fmt.Errorf("invalid storage path: %s", key)
	}
	fullPath := s.fullPath(key)

	if err := s.ensureParentDir(ctx, fullPath); err != nil {
		return fmt.Errorf("failed to ensure parent directory for %s: %w", key, err)
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("failed to read file content: %w", err)
	}

	if err := s.call(ctx, func() error { return s.client.Write(fullPath, data, 0644) }); err != nil {
		return fmt.Errorf("failed to write file %s: %w", key, err)
	}
	return nil
}

// GetWithContext 从 WebDAV 获取文件
func (s *WebDAVStorage) GetWithContext(ctx context.Context, key string) (io.ReadCloser, error) {
	var rc io.ReadCloser
	err := s.call(ctx, func() error {
		var err error
		rc, err = s.client.ReadStream(s.fullPath(key))
		return err
	})
	if err != nil {
		if gowebdav.IsErrNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("failed to read file %s: %w", key, err)
	}
	return rc, nil
}

// DeleteWithContext 从 WebDAV 删除文件
func (s *WebDAVStorage) DeleteWithContext(ctx context.Context, key string) error {
	err := s.call(ctx, func() error { return s.client.Remove(s.fullPath(key)) })
	if err != nil {
		if gowebdav.IsErrNotFound(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return fmt.Errorf("failed to delete file %s: %w", key, err)
	}
	return nil
}

// Exists 检查文件是否存在
func (s *WebDAVStorage) Exists(ctx context.Context, key string) (bool, error) {
	err := s.call(ctx, func() error {
		_, err := s.client.Stat(s.fullPath(key))
		return err
	})
	if err == nil {
		return true, nil
	}
	if gowebdav.IsErrNotFound(err) {
		return false, nil
	}
	return false, err
}

// List 递归遍历 prefix 目录
func (s *WebDAVStorage) List(ctx context.Context, prefix string, fn func(key string) error) error {
	var walk func(dir string) error
	walk = func(dir string) error {
		var entries []os.FileInfo
		err := s.call(ctx, func() error {
			var err error
			entries, err = s.client.ReadDir(s.fullPath(dir))
			return err
		})
		if err != nil {
			if gowebdav.IsErrNotFound(err) {
				return nil
			}
			return err
		}

		for _, e := range entries {
			child := strings.TrimLeft(path.Join(dir, e.Name()), "/")
			if e.IsDir() {
				if err := walk(child); err != nil {
					return err
				}
				continue
			}
			if err := fn(child); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(strings.Trim(prefix, "/"))
}

// PublicURL 未配置公开地址时直接使用 WebDAV 地址
func (s *WebDAVStorage) PublicURL(key string) string {
	if s.publicBaseURL != "" {
		return joinURL(s.publicBaseURL, key)
	}
	return s.baseURL + s.fullPath(key)
}

// Health 检查存储健康状态
func (s *WebDAVStorage) Health(ctx context.Context) error {
	root := s.rootPath
	if root == "" {
		root = "/"
	}
	return s.call(ctx, func() error {
		_, err := s.client.ReadDir(root)
		return err
	})
}

// Name 返回存储名称
func (s *WebDAVStorage) Name() string {
	return "webdav"
}
