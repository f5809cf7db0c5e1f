package core

import (
	"net/http"
	"time"

	"github.com/anoixa/mozaiek/api/middleware"
	"github.com/anoixa/mozaiek/cache"
	"github.com/anoixa/mozaiek/config"
	"github.com/anoixa/mozaiek/database"
	"github.com/anoixa/mozaiek/internal/app"
	"github.com/anoixa/mozaiek/internal/auth"
	"github.com/anoixa/mozaiek/internal/memorial"
	"github.com/anoixa/mozaiek/internal/worker"
	"github.com/anoixa/mozaiek/storage"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// formOverhead 照片之外的表单字段预留
const formOverhead = 1 << 20

// ServerDependencies 服务器依赖项
type ServerDependencies struct {
	Config    *config.Config
	Database  database.Provider
	Cache     cache.Provider
	Storage   storage.Provider
	Memorials *memorial.Service
	JWT       *auth.JWTService
	// Pool 可选, 非空时在 /metrics 中报告队列状态
	Pool *worker.Pool
}

// DependenciesFromContainer 从容器收集服务器依赖
func DependenciesFromContainer(c *app.Container) *ServerDependencies {
	return &ServerDependencies{
		Config:    c.GetConfig(),
		Database:  c.GetDatabaseProvider(),
		Cache:     c.GetCache(),
		Storage:   c.GetStorage(),
		Memorials: c.GetMemorialService(),
		JWT:       c.GetJWTService(),
		Pool:      c.GetWorkerPool(),
	}
}

// 启动gin
func setupRouter(deps *ServerDependencies) (*gin.Engine, func()) {
	cfg := deps.Config
	router := gin.New()

	// 全局中间件
	// 仅在开发版本时启用 gin 日志
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		router.Use(gin.Logger())
	}
	router.Use(gin.Recovery())
	router.Use(cors.New(corsConfig(cfg)))

	_ = router.SetTrustedProxies(nil)

	// 限制上传文件大小
	router.MaxMultipartMemory = cfg.UploadMaxBytes() + formOverhead

	// 请求ID追踪
	router.Use(middleware.RequestID())
	router.Use(middleware.Tracing())

	// 基础监控指标
	metrics := middleware.NewMetrics()
	router.Use(metrics.Middleware())

	// 并发限制, 避免同时解码过多图片
	concurrencyLimiter := middleware.NewConcurrencyLimiter(cfg.ServerMaxInflight)
	router.Use(concurrencyLimiter.Middleware())

	// 请求体大小限制
	router.Use(middleware.MaxBytesReader(cfg.UploadMaxBytes() + formOverhead))

	// 速率限制
	apiRateLimiter := middleware.NewIPRateLimiter(cfg.RateLimitApiRPS, cfg.RateLimitApiBurst, cfg.RateLimitExpireTime)
	uploadRateLimiter := middleware.NewIPRateLimiter(cfg.RateLimitUploadRPS, cfg.RateLimitUploadBurst, cfg.RateLimitExpireTime)
	cleanup := func() {
		apiRateLimiter.StopCleanup()
		uploadRateLimiter.StopCleanup()
	}

	RegisterRoutes(router, &RouterDependencies{
		ServerDependencies: deps,
		APIRateLimiter:     apiRateLimiter,
		UploadRateLimiter:  uploadRateLimiter,
		Metrics:            metrics,
	})

	return router, cleanup
}

// corsConfig 来源为 "*" 时不允许携带凭证
func corsConfig(cfg *config.Config) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Password", middleware.RequestIDHeader},
		ExposeHeaders: []string{middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}

	origins := cfg.CORSOrigins()
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		c.AllowAllOrigins = true
		return c
	}
	c.AllowOrigins = origins
	c.AllowCredentials = true
	return c
}

// StartServer 创建 http.Server
func StartServer(deps *ServerDependencies) (*http.Server, func()) {
	cfg := deps.Config
	router, clean := setupRouter(deps)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
	}

	return srv, clean
}
