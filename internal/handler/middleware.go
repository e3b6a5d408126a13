package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sakialabs/makana/internal/service"
)

const currentUserKey = "__current_user"

// AuthRequired 校验 Bearer 令牌并把持有者身份放入请求上下文
func AuthRequired(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const prefix = "Bearer "

		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, prefix) {
			respondError(c, http.StatusUnauthorized, "Missing bearer token.")
			c.Abort()
			return
		}

		user, err := auth.VerifyToken(strings.TrimSpace(strings.TrimPrefix(header, prefix)))
		if err != nil {
			respondError(c, http.StatusUnauthorized, "Invalid or expired token.")
			c.Abort()
			return
		}

		c.Set(currentUserKey, *user)
		c.Next()
	}
}

func currentUser(c *gin.Context) service.CurrentUser {
	value, _ := c.Get(currentUserKey)
	user, _ := value.(service.CurrentUser)
	return user
}
