package handler

import (
	"time"

	"order-gateway/internal/config"
	"order-gateway/internal/middleware"
	"order-gateway/internal/model"
	"order-gateway/internal/platform"
	"order-gateway/internal/service"

	"github.com/gin-gonic/gin"
)

// SetupRouter 设置路由
func SetupRouter(r *gin.Engine) {
	cfg := config.Get()

	// 全局中间件
	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.LoggerMiddleware())
	r.Use(gin.Recovery())

	// 安全响应头
	if cfg.Security.EnableSecurityHeaders {
		r.Use(middleware.SecurityHeadersMiddleware())
	}

	// 速率限制器
	webhookLimiter := middleware.NewRateLimiter(cfg.Security.WebhookMaxPerMinute, time.Minute) // 平台推送
	authLimiter := middleware.NewRateLimiter(cfg.Security.AuthMaxPerMinute, time.Minute)       // 认证接口

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API 路由组
	api := r.Group("/api")

	// API 健康检查（供 Docker/K8s 使用）
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "order-gateway"})
	})

	// 核心服务
	receiver := service.NewReceiver(model.DB, platform.Default(), nil)
	queue := service.NewQueueService(model.DB, receiver, nil)
	queue.ApplyConfig(&cfg.Queue)

	// 初始化 Handler
	webhookHandler := NewWebhookHandler(receiver, queue)
	authHandler := NewAuthHandler()
	queueHandler := NewQueueHandler(queue)
	orderHandler := NewOrderHandler()
	integrationHandler := NewIntegrationHandler()

	// ==================== 平台推送接口 ====================
	webhooks := api.Group("/webhooks")
	webhooks.Use(middleware.RateLimitMiddleware(webhookLimiter))
	{
		webhooks.POST("/:platform", webhookHandler.Handle)
	}

	// ==================== 运营认证 ====================
	auth := api.Group("/auth")
	auth.Use(middleware.RateLimitMiddleware(authLimiter))
	{
		auth.POST("/login", authHandler.Login)
	}

	// ==================== 运营巡检接口 ====================
	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware())
	{
		admin.GET("/profile", authHandler.GetProfile)

		// 重试队列巡检
		queueGroup := admin.Group("/queue")
		{
			queueGroup.GET("", queueHandler.List)
			queueGroup.POST("/process", queueHandler.Process)
			queueGroup.GET("/:id", queueHandler.Get)
			queueGroup.POST("/:id/requeue", queueHandler.Requeue)
		}

		// 订单查询
		orders := admin.Group("/orders")
		{
			orders.GET("", orderHandler.List)
			orders.GET("/:id", orderHandler.Get)
		}

		// 接入配置（只读）
		admin.GET("/integrations", integrationHandler.List)
	}
}
