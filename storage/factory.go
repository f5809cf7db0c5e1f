package storage

import (
	"fmt"
	"log"
	"sort"

	"github.com/anoixa/mozaiek/config"
	"github.com/mitchellh/mapstructure"
)

// builder 根据选项表构造存储
type builder func(opts map[string]interface{}) (Provider, error)

var builders = map[string]builder{
	"local": func(opts map[string]interface{}) (Provider, error) {
		var cfg LocalConfig
		if err := decodeOptions(opts, &cfg); err != nil {
			return nil, err
		}
		return NewLocalStorage(cfg)
	},
	"minio": func(opts map[string]interface{}) (Provider, error) {
		var cfg MinioConfig
		if err := decodeOptions(opts, &cfg); err != nil {
			return nil, err
		}
		return NewMinioStorage(cfg)
	},
	"s3": func(opts map[string]interface{}) (Provider, error) {
		var cfg S3Config
		if err := decodeOptions(opts, &cfg); err != nil {
			return nil, err
		}
		return NewS3Storage(cfg)
	},
	"webdav": func(opts map[string]interface{}) (Provider, error) {
		var cfg WebDAVConfig
		if err := decodeOptions(opts, &cfg); err != nil {
			return nil, err
		}
		return NewWebDAVStorage(cfg)
	},
}

// decodeOptions 选项表解码到具体配置, 支持 "30s" 这类时长字符串
func decodeOptions(opts map[string]interface{}, out interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(opts); err != nil {
		return fmt.Errorf("invalid storage options: %w", err)
	}
	return nil
}

// Factory 存储工厂 - 负责创建和管理存储提供者
type Factory struct {
	providers       map[string]Provider
	defaultProvider string
}

// NewFactory 按配置创建默认存储
func NewFactory(cfg *config.Config) (*Factory, error) {
	log.Println("Initializing storage providers...")

	name := cfg.StorageType
	if name == "" {
		name = "local"
	}

	provider, err := Build(name, OptionsFromConfig(cfg, name))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s storage: %w", name, err)
	}
	log.Printf("Successfully initialized '%s' storage provider", name)

	return NewFactoryWithProvider(provider), nil
}

// NewFactoryWithProvider 以单个 Provider 作为默认存储
func NewFactoryWithProvider(p Provider) *Factory {
	return &Factory{
		providers:       map[string]Provider{p.Name(): p},
		defaultProvider: p.Name(),
	}
}

// Build 按名称和选项构造 Provider
func Build(name string, opts map[string]interface{}) (Provider, error) {
	b, ok := builders[name]
	if !ok {
		return nil, fmt.Errorf("unsupported storage type: %s", name)
	}
	return b(opts)
}

// OptionsFromConfig 把扁平配置转换为对应存储的选项表
func OptionsFromConfig(cfg *config.Config, name string) map[string]interface{} {
	switch name {
	case "minio":
		return map[string]interface{}{
			"endpoint":        cfg.MinioEndpoint,
			"access_key":      cfg.MinioAccessKey,
			"secret_key":      cfg.MinioSecretKey,
			"bucket":          cfg.MinioBucket,
			"use_ssl":         cfg.MinioUseSSL,
			"public_base_url": cfg.StoragePublicBaseURL,
		}
	case "s3":
		return map[string]interface{}{
			"region":          cfg.S3Region,
			"bucket":          cfg.S3Bucket,
			"endpoint":        cfg.S3Endpoint,
			"access_key":      cfg.S3AccessKey,
			"secret_key":      cfg.S3SecretKey,
			"public_base_url": cfg.StoragePublicBaseURL,
		}
	case "webdav":
		return map[string]interface{}{
			"url":             cfg.WebDAVURL,
			"username":        cfg.WebDAVUsername,
			"password":        cfg.WebDAVPassword,
			"root_path":       cfg.WebDAVRootPath,
			"public_base_url": cfg.StoragePublicBaseURL,
			"timeout":         "30s",
		}
	default:
		publicBase := cfg.StoragePublicBaseURL
		if publicBase == "" {
			publicBase = cfg.BaseURL() + LocalRoutePrefix
		}
		return map[string]interface{}{
			"path":            cfg.StorageLocalPath,
			"public_base_url": publicBase,
		}
	}
}

// LocalRoutePrefix 本地存储的静态访问前缀
const LocalRoutePrefix = "/photos"

// Get 获取指定名称的存储提供者
func (f *Factory) Get(name string) (Provider, error) {
	if name == "" {
		name = f.defaultProvider
	}

	provider, ok := f.providers[name]
	if !ok {
		return nil, fmt.Errorf("storage provider '%s' not found", name)
	}
	return provider, nil
}

// GetDefault 获取默认存储提供者
func (f *Factory) GetDefault() Provider {
	provider, _ := f.Get(f.defaultProvider)
	return provider
}

// ListProviders 列出所有可用的存储提供者名称
func (f *Factory) ListProviders() []string {
	names := make([]string, 0, len(f.providers))
	for name := range f.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
