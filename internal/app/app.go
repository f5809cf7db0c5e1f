package app

import (
	"fmt"
	"log"

	"github.com/anoixa/mozaiek/cache"
	"github.com/anoixa/mozaiek/config"
	"github.com/anoixa/mozaiek/database"
	"github.com/anoixa/mozaiek/internal/access"
	"github.com/anoixa/mozaiek/internal/auth"
	"github.com/anoixa/mozaiek/internal/imaging"
	"github.com/anoixa/mozaiek/internal/imaging/vipsengine"
	"github.com/anoixa/mozaiek/internal/memorial"
	"github.com/anoixa/mozaiek/internal/repositories"
	"github.com/anoixa/mozaiek/internal/worker"
	"github.com/anoixa/mozaiek/storage"
	"github.com/anoixa/mozaiek/utils"
)

// Container 依赖注入容器 - 管理所有服务的生命周期
type Container struct {
	config          *config.Config
	databaseFactory *database.Factory
	storageFactory  *storage.Factory
	cacheFactory    *cache.Factory
	repositories    *repositories.Repositories

	pool       *worker.Pool
	engine     imaging.Engine
	normalizer *imaging.Normalizer
	jwt        *auth.JWTService
	memorials  *memorial.Service
}

// NewContainer 创建新的依赖注入容器
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config: cfg,
	}
}

// Init 初始化全部依赖
func (c *Container) Init() error {
	if err := c.InitDatabase(); err != nil {
		return err
	}
	if err := c.InitServices(); err != nil {
		return err
	}
	return nil
}

// InitDatabase 只初始化数据库和仓库, 供 migrate/token 等命令使用
func (c *Container) InitDatabase() error {
	utils.LogIfDev("Initializing DI container...")

	factory, err := database.NewFactory(c.config)
	if err != nil {
		return fmt.Errorf("failed to initialize database factory: %w", err)
	}
	c.databaseFactory = factory
	c.repositories = repositories.NewRepositories(factory.GetProvider())

	utils.LogIfDev("Repositories initialized")
	return nil
}

// AutoMigrate 自动迁移数据库结构
func (c *Container) AutoMigrate() error {
	if c.databaseFactory == nil {
		return fmt.Errorf("database not initialized")
	}
	return c.databaseFactory.AutoMigrate()
}

// InitStorage 初始化对象存储
func (c *Container) InitStorage() error {
	if c.storageFactory != nil {
		return nil
	}
	factory, err := storage.NewFactory(c.config)
	if err != nil {
		return fmt.Errorf("failed to initialize storage factory: %w", err)
	}
	c.storageFactory = factory
	return nil
}

// InitServices 初始化存储, 缓存和业务服务
func (c *Container) InitServices() error {
	if err := c.InitStorage(); err != nil {
		return err
	}

	cacheFactory, err := cache.NewFactory(c.config)
	if err != nil {
		return fmt.Errorf("failed to initialize cache factory: %w", err)
	}
	c.cacheFactory = cacheFactory

	c.pool = worker.NewPool(c.config.GetWorkerCount(), c.config.WorkerQueueSize)
	c.engine = newEngine(c.config)

	c.normalizer = imaging.NewNormalizer(
		c.engine,
		c.storageFactory.GetDefault(),
		imaging.WithRunner(c.pool),
		imaging.WithMaxBytes(c.config.UploadMaxBytes()),
	)

	c.jwt = auth.NewJWTService(c.config.JWTSecret, c.config.JWTExpiresIn)

	c.memorials = memorial.NewService(
		c.repositories.Memorials,
		c.normalizer,
		access.NewGate(c.config.PasswordCost),
		memorial.WithCache(cacheFactory.GetProvider(), c.config.CacheMemorialTTL),
		memorial.WithProfiles(imaging.Profiles{
			Base:   imaging.BaseProfile(c.config.ImageBaseMaxSize, c.config.ImageQuality),
			Memory: imaging.MemoryProfile(c.config.ImageTileSize, c.config.ImageQuality),
		}),
	)

	log.Printf("[Container] Services ready (storage=%s, cache=%s, engine=%s)",
		c.storageFactory.GetDefault().Name(), cacheFactory.GetProvider().Name(), c.engine.Name())
	return nil
}

// newEngine 按配置选择图片引擎
func newEngine(cfg *config.Config) imaging.Engine {
	switch cfg.ImageEngine {
	case "native":
		return imaging.NewNativeEngine()
	default:
		return vipsengine.New(cfg.GetWorkerCount())
	}
}

// GetConfig 获取配置
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetDatabaseProvider 获取数据库提供者
func (c *Container) GetDatabaseProvider() database.Provider {
	if c.databaseFactory == nil {
		return nil
	}
	return c.databaseFactory.GetProvider()
}

// GetRepositories 获取所有仓库
func (c *Container) GetRepositories() *repositories.Repositories {
	return c.repositories
}

// GetStorage 获取默认存储
func (c *Container) GetStorage() storage.Provider {
	if c.storageFactory == nil {
		return nil
	}
	return c.storageFactory.GetDefault()
}

// GetCache 获取缓存提供者
func (c *Container) GetCache() cache.Provider {
	if c.cacheFactory == nil {
		return nil
	}
	return c.cacheFactory.GetProvider()
}

// GetJWTService 获取 JWT 服务
func (c *Container) GetJWTService() *auth.JWTService {
	if c.jwt == nil {
		c.jwt = auth.NewJWTService(c.config.JWTSecret, c.config.JWTExpiresIn)
	}
	return c.jwt
}

// GetMemorialService 获取纪念馆服务
func (c *Container) GetMemorialService() *memorial.Service {
	return c.memorials
}

// GetWorkerPool 获取协程池
func (c *Container) GetWorkerPool() *worker.Pool {
	return c.pool
}

// Close 关闭所有服务, 先等待后台清理再释放连接
func (c *Container) Close() error {
	utils.LogIfDev("Closing DI container...")

	if c.memorials != nil {
		c.memorials.Wait()
	}
	if c.pool != nil {
		c.pool.Stop()
	}
	if v, ok := c.engine.(*vipsengine.Engine); ok {
		v.Shutdown()
	}
	if c.cacheFactory != nil {
		if err := c.cacheFactory.Close(); err != nil {
			log.Printf("Error closing cache: %v", err)
		}
	}
	if c.databaseFactory != nil {
		if err := c.databaseFactory.Close(); err != nil {
			utils.LogIfDevf("Error closing database factory: %v", err)
		}
	}

	utils.LogIfDev("DI container closed")
	return nil
}
