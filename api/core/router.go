package core

import (
	"net/http"

	"github.com/anoixa/mozaiek/api/common"
	handlerMemorials "github.com/anoixa/mozaiek/api/handler/memorials"
	handlerMemories "github.com/anoixa/mozaiek/api/handler/memories"
	"github.com/anoixa/mozaiek/api/middleware"
	"github.com/anoixa/mozaiek/config"
	"github.com/anoixa/mozaiek/storage"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// RouterDependencies 路由注册依赖
type RouterDependencies struct {
	*ServerDependencies
	APIRateLimiter    *middleware.IPRateLimiter
	UploadRateLimiter *middleware.IPRateLimiter
	Metrics           *middleware.Metrics
}

// RegisterRoutes 注册所有路由
func RegisterRoutes(router *gin.Engine, deps *RouterDependencies) {
	// 基础路由
	registerBasicRoutes(router, deps)

	// 本地存储的照片
	registerPhotoRoutes(router, deps)

	// API 路由
	registerAPIRoutes(router, deps)
}

// registerBasicRoutes 注册基础路由
func registerBasicRoutes(router *gin.Engine, deps *RouterDependencies) {
	healthHandler := NewHealthHandler(deps.Database, deps.Cache, deps.Storage)
	router.GET("/health", healthHandler.Handle)

	router.GET("/version", func(context *gin.Context) {
		common.RespondSuccess(context, gin.H{
			"version": config.Version,
			"commit":  config.CommitHash,
		})
	})

	router.GET("/metrics", func(context *gin.Context) {
		snapshot := deps.Metrics.Snapshot()
		if deps.Pool != nil {
			snapshot["worker"] = deps.Pool.GetStats()
		}
		context.JSON(http.StatusOK, snapshot)
	})

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

// registerPhotoRoutes 本地存储时直接提供照片, 对象写入后不再变化
func registerPhotoRoutes(router *gin.Engine, deps *RouterDependencies) {
	local, ok := deps.Storage.(*storage.LocalStorage)
	if !ok {
		return
	}

	photos := router.Group(storage.LocalRoutePrefix)
	photos.Use(func(context *gin.Context) {
		context.Header("Cache-Control", "public, max-age=31536000, immutable")
		context.Header("X-Content-Type-Options", "nosniff")
		context.Next()
	})
	photos.Static("/", local.BasePath())
}

// registerAPIRoutes 注册 API 路由
func registerAPIRoutes(router *gin.Engine, deps *RouterDependencies) {
	maxUpload := deps.Config.UploadMaxBytes()
	memorialHandler := handlerMemorials.NewHandler(deps.Memorials, maxUpload)
	memoryHandler := handlerMemories.NewHandler(deps.Memorials, maxUpload)
	ownerAuth := middleware.OwnerAuth(deps.JWT)
	uploadLimit := deps.UploadRateLimiter.Middleware()

	apiGroup := router.Group("/api")
	apiGroup.Use(func(context *gin.Context) { // 所有API禁止缓存
		context.Header("Cache-Control", "no-store")
		context.Next()
	})
	apiGroup.Use(deps.APIRateLimiter.Middleware())
	{
		memorialsGroup := apiGroup.Group("/memorials")
		{
			memorialsGroup.POST("", uploadLimit, ownerAuth, memorialHandler.CreateMemorial) // POST /api/memorials
			memorialsGroup.GET("/:id", memorialHandler.GetMemorial)                         // GET /api/memorials/{id}
			memorialsGroup.DELETE("/:id", ownerAuth, memorialHandler.DeleteMemorial)        // DELETE /api/memorials/{id}
			memorialsGroup.POST("/:id/memories", uploadLimit, memoryHandler.AddMemory)      // POST /api/memorials/{id}/memories
		}

		apiGroup.DELETE("/memories/:id", ownerAuth, memoryHandler.DeleteMemory)     // DELETE /api/memories/{id}
		apiGroup.GET("/user/memorials", ownerAuth, memorialHandler.ListMyMemorials) // GET /api/user/memorials
	}
}
