package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sakialabs/makana/internal/config"
	"github.com/sakialabs/makana/internal/db"
	"github.com/sakialabs/makana/internal/handler"
	"github.com/sakialabs/makana/internal/router"
	"github.com/sakialabs/makana/internal/service"
)

func main() {
	// .env 仅用于本地开发，不存在时忽略
	_ = godotenv.Load()

	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	// 初始化数据库
	gdb, err := db.Init(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	// 补齐预设配置种子数据
	if err := db.EnsurePresetSetups(gdb); err != nil {
		log.Fatalf("failed to seed preset setups: %v", err)
	}

	auth := service.NewAuthService(gdb, cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	api := handler.NewAPI(gdb, auth, cfg.StoreTimeout)

	// 设置并运行 Gin 服务器
	r := router.SetupRouter(api, cfg.CORSOrigins)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("failed to run server: %v", err)
	}
}
