package router

import (
	"fmt"
	"strings"

	"github.com/firesales-next/internal/cache"
	"github.com/firesales-next/internal/config"
	adminhandlers "github.com/firesales-next/internal/http/handlers/admin"
	agenthandlers "github.com/firesales-next/internal/http/handlers/agent"
	"github.com/firesales-next/internal/logger"
	"github.com/firesales-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按管理端/代理端分组）
	adminHandler := adminhandlers.New(c)
	agentHandler := agenthandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "fs"
	}
	redisClient := cache.Client()
	adminLoginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:admin_login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		Message:       "too many login attempts",
	}
	agentLoginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:agent_login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		Message:       "too many login attempts",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// 静态文件服务（上传的附件）
	r.Static("/uploads", "./uploads")

	apiV1 := r.Group("/api/v1")
	{
		// 管理员接口
		admin := apiV1.Group("/admin")
		{
			// 登录接口（无需鉴权）
			admin.POST("/login", RateLimitMiddleware(redisClient, adminLoginRule, KeyByIP), adminHandler.AdminLogin)

			// 需要鉴权的接口
			authorized := admin.Use(AdminJWTAuthMiddleware(cfg.JWT.SecretKey, c.AdminRepo))
			{
				authorized.PUT("/password", adminHandler.AdminChangePassword)

				// 客户（博彩品牌）管理
				authorized.GET("/clients", adminHandler.GetAdminClients)
				authorized.GET("/clients/:id", adminHandler.GetAdminClient)
				authorized.POST("/clients", adminHandler.CreateAdminClient)
				authorized.PATCH("/clients/:id/status", adminHandler.UpdateAdminClientStatus)
				authorized.POST("/clients/:id/versions", adminHandler.AppendAdminClientVersion)
				authorized.GET("/clients/:id/versions/at", adminHandler.GetAdminClientVersionAt)

				// 分成组管理
				authorized.GET("/groups", adminHandler.GetAdminGroups)
				authorized.POST("/groups", adminHandler.CreateAdminGroup)
				authorized.POST("/groups/:id/versions", adminHandler.AppendAdminGroupVersion)
				authorized.GET("/groups/:id/versions/at", adminHandler.GetAdminGroupVersionAt)
				authorized.POST("/assignment-codes", adminHandler.IssueAdminAssignmentCode)

				// 代理账号管理
				authorized.GET("/agents", adminHandler.GetAdminAgents)
				authorized.POST("/agents", adminHandler.CreateAdminAgent)
				authorized.PUT("/agents/:id/group", adminHandler.AssignAdminAgentGroup)
				authorized.PATCH("/agents/:id/status", adminHandler.UpdateAdminAgentStatus)

				// 转化管理
				authorized.GET("/conversions", adminHandler.GetAdminConversions)
				authorized.GET("/conversions/:key", adminHandler.GetAdminConversion)
				authorized.PATCH("/conversions/:key/status", adminHandler.ChangeAdminConversionStatus)
				authorized.POST("/conversions/:key/messages", adminHandler.AddAdminConversionMessage)
				authorized.POST("/conversions/:key/attachments", adminHandler.UploadAdminConversionAttachments)
				authorized.GET("/unassigned-conversions", adminHandler.GetAdminUnassignedConversions)
				authorized.POST("/conversions/import", adminHandler.ImportAdminReport)

				// 结算管理
				authorized.GET("/payouts", adminHandler.GetAdminPayouts)
				authorized.GET("/payouts/:id", adminHandler.GetAdminPayout)
				authorized.POST("/payouts/settle", adminHandler.SettleAdminAgent)

				// 报表
				authorized.GET("/reports/business", adminHandler.GetAdminBusinessDashboard)
				authorized.GET("/reports/clients/:id", adminHandler.GetAdminClientDashboard)
				authorized.GET("/reports/agents/:id", adminHandler.GetAdminAgentDashboard)
			}
		}

		// 代理接口
		agent := apiV1.Group("/agent")
		{
			agent.POST("/login", RateLimitMiddleware(redisClient, agentLoginRule, KeyByIPAndJSONField("email")), agentHandler.AgentLogin)

			authorized := agent.Use(AgentJWTAuthMiddleware(cfg.AgentJWT.SecretKey, c.UserRepo))
			{
				authorized.GET("/me", agentHandler.GetAgentProfile)
				authorized.PUT("/me/password", agentHandler.AgentChangePassword)
				authorized.PUT("/me/payment-info", agentHandler.UpdateAgentPaymentInfo)

				authorized.GET("/conversions", agentHandler.GetAgentConversions)
				authorized.POST("/conversions", agentHandler.SubmitAgentConversions)
				authorized.POST("/conversions/claim", agentHandler.ClaimAgentConversions)
				authorized.GET("/assignment-codes/:code", agentHandler.CheckAgentAssignmentCode)

				authorized.GET("/payouts", agentHandler.GetAgentPayouts)
				authorized.GET("/dashboard", agentHandler.GetAgentDashboard)
			}
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
