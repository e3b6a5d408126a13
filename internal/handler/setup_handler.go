package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sakialabs/makana/internal/db"
	"github.com/sakialabs/makana/internal/service"
)

type setupActivatePayload struct {
	SetupID string `json:"setup_id" binding:"required"`
}

func setupToPayload(setup db.Setup) gin.H {
	return gin.H{
		"id":                       setup.ID,
		"name":                     setup.Name,
		"description":              setup.Description,
		"default_duration_minutes": setup.DefaultDurationMinutes,
		"emphasis":                 setup.Emphasis,
	}
}

// ListSetups 返回全部预设配置
func (a *API) ListSetups(c *gin.Context) {
	ctx, cancel := a.opContext(c)
	defer cancel()

	setups, err := a.setups.Available(ctx)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Unable to load setups. Try again in a moment.")
		return
	}

	items := make([]gin.H, 0, len(setups))
	for _, setup := range setups {
		items = append(items, setupToPayload(setup))
	}

	c.JSON(http.StatusOK, items)
}

// ActivateSetup 为当前用户激活一个配置
func (a *API) ActivateSetup(c *gin.Context) {
	var payload setupActivatePayload
	if !bindJSON(c, &payload, "Setup id is required.") {
		return
	}

	user := currentUser(c)
	ctx, cancel := a.opContext(c)
	defer cancel()

	activation, err := a.setups.Activate(ctx, user.ID, payload.SetupID)
	if err != nil {
		if errors.Is(err, service.ErrSetupNotFound) {
			respondError(c, http.StatusNotFound, "Setup not found.")
			return
		}
		respondError(c, http.StatusInternalServerError, "Unable to activate setup. Try again in a moment.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":           activation.ID,
		"setup_id":     activation.SetupID,
		"activated_at": activation.ActivatedAt,
	})
}

// GetActiveSetup 返回当前激活的配置，未激活过时回退到 Calm
func (a *API) GetActiveSetup(c *gin.Context) {
	user := currentUser(c)
	ctx, cancel := a.opContext(c)
	defer cancel()

	setup, err := a.setups.ActiveSetup(ctx, user.ID)
	if err != nil {
		if errors.Is(err, service.ErrSetupNotFound) {
			respondError(c, http.StatusNotFound, "Setup not found.")
			return
		}
		respondError(c, http.StatusInternalServerError, "Unable to load setup. Try again in a moment.")
		return
	}

	c.JSON(http.StatusOK, setupToPayload(*setup))
}
