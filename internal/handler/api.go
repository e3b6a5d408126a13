package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sakialabs/makana/internal/service"
	"gorm.io/gorm"
)

// API 汇总 HTTP 处理器共享的依赖
type API struct {
	auth         *service.AuthService
	sessions     *service.SessionService
	setups       *service.SetupService
	dailyChecks  *service.DailyCheckService
	weeklyChecks *service.WeeklyCheckService
	reducedMode  *service.ReducedModeService
	storeTimeout time.Duration
}

// NewAPI 构造处理器集合并装配各服务
func NewAPI(gdb *gorm.DB, auth *service.AuthService, storeTimeout time.Duration) *API {
	if storeTimeout <= 0 {
		storeTimeout = 10 * time.Second
	}

	return &API{
		auth:         auth,
		sessions:     service.NewSessionService(gdb),
		setups:       service.NewSetupService(gdb),
		dailyChecks:  service.NewDailyCheckService(gdb),
		weeklyChecks: service.NewWeeklyCheckService(gdb),
		reducedMode:  service.NewReducedModeService(gdb),
		storeTimeout: storeTimeout,
	}
}

// Auth 暴露身份服务供路由装配中间件
func (a *API) Auth() *service.AuthService {
	return a.auth
}

// opContext 为一次存储访问派生有界超时的上下文
func (a *API) opContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), a.storeTimeout)
}
