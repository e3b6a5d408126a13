package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr      string
	Port            string
	DatabasePath    string
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	GinMode         string
	CORSOrigins     []string
	StoreTimeout    time.Duration
}

// Load 从环境变量读取应用配置，并为缺失项提供安全的默认值。
func Load() AppConfig {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8000"
	}

	listenAddr := strings.TrimSpace(os.Getenv("LISTEN_ADDR"))
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%s", port)
	}

	databasePath := strings.TrimSpace(os.Getenv("DATABASE_PATH"))
	if databasePath == "" {
		databasePath = "makana.db"
	}

	jwtSecret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if jwtSecret == "" {
		jwtSecret = "makana-dev-secret"
	}

	ginMode := strings.TrimSpace(os.Getenv("GIN_MODE"))
	if ginMode == "" {
		ginMode = "release"
	}

	var corsOrigins []string
	for _, origin := range strings.Split(os.Getenv("CORS_ORIGINS"), ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			corsOrigins = append(corsOrigins, trimmed)
		}
	}

	return AppConfig{
		ListenAddr:      listenAddr,
		Port:            port,
		DatabasePath:    databasePath,
		JWTSecret:       jwtSecret,
		AccessTokenTTL:  durationEnv("ACCESS_TOKEN_TTL_MINUTES", time.Minute, 60),
		RefreshTokenTTL: durationEnv("REFRESH_TOKEN_TTL_HOURS", time.Hour, 24*7),
		GinMode:         ginMode,
		CORSOrigins:     corsOrigins,
		StoreTimeout:    durationEnv("STORE_TIMEOUT_SECONDS", time.Second, 10),
	}
}

func durationEnv(key string, unit time.Duration, fallback int) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return time.Duration(fallback) * unit
	}

	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return time.Duration(fallback) * unit
	}

	return time.Duration(value) * unit
}
