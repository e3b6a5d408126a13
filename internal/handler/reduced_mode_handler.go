package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sakialabs/makana/internal/db"
)

func reducedModeToPayload(state db.ReducedModeState) gin.H {
	return gin.H{
		"is_active":      state.IsActive,
		"activated_at":   state.ActivatedAt,
		"deactivated_at": state.DeactivatedAt,
	}
}

// ActivateReducedMode 开启减量模式，重复调用幂等
func (a *API) ActivateReducedMode(c *gin.Context) {
	user := currentUser(c)
	ctx, cancel := a.opContext(c)
	defer cancel()

	state, err := a.reducedMode.Activate(ctx, user.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Unable to update reduced mode. Try again in a moment.")
		return
	}

	c.JSON(http.StatusOK, reducedModeToPayload(*state))
}

// DeactivateReducedMode 关闭减量模式，重复调用幂等
func (a *API) DeactivateReducedMode(c *gin.Context) {
	user := currentUser(c)
	ctx, cancel := a.opContext(c)
	defer cancel()

	state, err := a.reducedMode.Deactivate(ctx, user.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Unable to update reduced mode. Try again in a moment.")
		return
	}

	c.JSON(http.StatusOK, reducedModeToPayload(*state))
}

// GetReducedModeStatus 返回当前减量模式状态
func (a *API) GetReducedModeStatus(c *gin.Context) {
	user := currentUser(c)
	ctx, cancel := a.opContext(c)
	defer cancel()

	state, err := a.reducedMode.State(ctx, user.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Unable to load reduced mode. Try again in a moment.")
		return
	}

	c.JSON(http.StatusOK, reducedModeToPayload(*state))
}
