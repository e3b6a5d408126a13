package router

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sakialabs/makana/internal/handler"
)

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(api *handler.API, corsOrigins []string) *gin.Engine {
	r := gin.Default()

	// 配置 CORS，客户端为独立部署的 Web/移动端
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}
	if len(corsOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	} else {
		corsConfig.AllowOrigins = corsOrigins
	}
	r.Use(cors.New(corsConfig))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Makana API", "version": "0.1.0"})
	})

	v1 := r.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/signup", api.Signup)
			auth.POST("/signin", api.Signin)
			auth.POST("/refresh", api.Refresh)
			auth.GET("/me", handler.AuthRequired(api.Auth()), api.Me)
		}

		// 需要认证的业务路由
		authed := v1.Group("")
		authed.Use(handler.AuthRequired(api.Auth()))
		{
			sessions := authed.Group("/sessions")
			{
				sessions.POST("", api.StartSession)
				sessions.GET("/active", api.GetActiveSession)
				sessions.GET("/recent", api.GetRecentSessions)
				sessions.PATCH("/:id/end", api.EndSession)
				sessions.PATCH("/:id/abandon", api.AbandonSession)
			}

			daily := authed.Group("/daily-check")
			{
				daily.POST("", api.CreateDailyCheck)
				daily.GET("/today", api.GetTodayCheck)
				daily.GET("/history", api.GetDailyCheckHistory)
			}

			weekly := authed.Group("/weekly-check")
			{
				weekly.POST("", api.CreateWeeklyCheck)
				weekly.GET("/latest", api.GetLatestWeeklyCheck)
				weekly.GET("/history", api.GetWeeklyCheckHistory)
			}

			reduced := authed.Group("/reduced-mode")
			{
				reduced.POST("/activate", api.ActivateReducedMode)
				reduced.POST("/deactivate", api.DeactivateReducedMode)
				reduced.GET("/status", api.GetReducedModeStatus)
			}

			setups := authed.Group("/setups")
			{
				setups.GET("", api.ListSetups)
				setups.POST("/activate", api.ActivateSetup)
				setups.GET("/active", api.GetActiveSetup)
			}
		}
	}

	return r
}
