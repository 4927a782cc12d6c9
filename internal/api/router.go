package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jengzang/shelter-map/internal/config"
	"github.com/jengzang/shelter-map/internal/handler"
	"github.com/jengzang/shelter-map/internal/middleware"
	"github.com/jengzang/shelter-map/internal/session"
)

// Deps are the services the router dispatches to
type Deps struct {
	Sessions    *session.Manager
	MapHandler  *handler.MapHandler
	RateLimiter *middleware.RateLimiter // Optional
	Logger      *zap.Logger
}

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config, deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(deps.Logger))
	if deps.RateLimiter != nil {
		r.Use(deps.RateLimiter.Middleware())
	}

	// CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":   "ok",
			"message":  "Shelter map API is running",
			"sessions": deps.Sessions.Len(),
		})
	})

	// Icons and bundled data for the map client
	if cfg.AssetsDir != "" {
		r.Static("/assets", cfg.AssetsDir)
	}

	h := deps.MapHandler
	api := r.Group("/api/v1")
	{
		api.POST("/sessions", h.CreateSession)
		api.GET("/dataset/report", h.GetDatasetReport)

		authed := api.Group("", middleware.SessionAuth(deps.Sessions))
		{
			authed.GET("/sessions/current", h.GetSession)

			categories := authed.Group("/categories")
			{
				categories.GET("", h.ListCategories)
				categories.PUT("/:category", h.SetCategoryVisibility)
				categories.POST("/:category/change", h.ChangeCategory)
			}

			authed.POST("/markers/:handle/click", h.ClickMarker)
			authed.POST("/comparison/close", h.CloseComparison)
		}
	}

	return r
}
