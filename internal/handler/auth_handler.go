package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sakialabs/makana/internal/service"
)

type credentialsPayload struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type refreshPayload struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func tokenToPayload(pair *service.TokenPair) gin.H {
	return gin.H{
		"access_token":  pair.AccessToken,
		"token_type":    "bearer",
		"expires_in":    pair.ExpiresIn,
		"refresh_token": pair.RefreshToken,
		"user": gin.H{
			"id":    pair.User.ID,
			"email": pair.User.Email,
		},
	}
}

// Signup 创建账号并返回令牌
func (a *API) Signup(c *gin.Context) {
	var payload credentialsPayload
	if !bindJSON(c, &payload, "Unable to create account. Check your email and password.") {
		return
	}

	ctx, cancel := a.opContext(c)
	defer cancel()

	pair, err := a.auth.SignUp(ctx, payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			respondError(c, http.StatusBadRequest, "Unable to create account. Check your email and password.")
			return
		}
		respondError(c, http.StatusInternalServerError, "Unable to create account. Try again in a moment.")
		return
	}

	c.JSON(http.StatusCreated, tokenToPayload(pair))
}

// Signin 校验凭据并返回令牌
func (a *API) Signin(c *gin.Context) {
	var payload credentialsPayload
	if !bindJSON(c, &payload, "Unable to sign in. Check your email and password.") {
		return
	}

	ctx, cancel := a.opContext(c)
	defer cancel()

	pair, err := a.auth.SignIn(ctx, payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			respondError(c, http.StatusUnauthorized, "Unable to sign in. Check your email and password.")
			return
		}
		respondError(c, http.StatusInternalServerError, "Unable to sign in. Try again in a moment.")
		return
	}

	c.JSON(http.StatusOK, tokenToPayload(pair))
}

// Refresh 用刷新令牌换取新令牌对
func (a *API) Refresh(c *gin.Context) {
	var payload refreshPayload
	if !bindJSON(c, &payload, "Unable to refresh session. Please sign in again.") {
		return
	}

	ctx, cancel := a.opContext(c)
	defer cancel()

	pair, err := a.auth.Refresh(ctx, payload.RefreshToken)
	if err != nil {
		if errors.Is(err, service.ErrInvalidToken) {
			respondError(c, http.StatusUnauthorized, "Unable to refresh session. Please sign in again.")
			return
		}
		respondError(c, http.StatusInternalServerError, "Unable to refresh session. Try again in a moment.")
		return
	}

	c.JSON(http.StatusOK, tokenToPayload(pair))
}

// Me 返回当前用户档案
func (a *API) Me(c *gin.Context) {
	user := currentUser(c)

	ctx, cancel := a.opContext(c)
	defer cancel()

	profile, err := a.auth.Profile(ctx, user.ID)
	if err != nil {
		if errors.Is(err, service.ErrProfileNotFound) {
			respondError(c, http.StatusNotFound, "Profile not found.")
			return
		}
		respondError(c, http.StatusInternalServerError, "Unable to load profile. Try again in a moment.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":         profile.ID,
		"email":      profile.Email,
		"created_at": profile.CreatedAt,
		"updated_at": profile.UpdatedAt,
	})
}
