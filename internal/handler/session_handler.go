package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sakialabs/makana/internal/db"
	"github.com/sakialabs/makana/internal/service"
)

type sessionStartPayload struct {
	SetupID string `json:"setup_id" binding:"required"`
}

type sessionEndPayload struct {
	NextStep string `json:"next_step"`
}

func sessionToPayload(session db.Session) gin.H {
	payload := gin.H{
		"id":                  session.ID,
		"setup_id":            session.SetupID,
		"start_time":          session.StartTime,
		"end_time":            session.EndTime,
		"duration_minutes":    session.DurationMinutes,
		"next_step":           session.NextStep,
		"status":              session.Status,
		"reduced_mode_active": session.ReducedModeActive,
	}
	return payload
}

// StartSession 开始一次会话（Ignition）
func (a *API) StartSession(c *gin.Context) {
	var payload sessionStartPayload
	if !bindJSON(c, &payload, "Setup id is required.") {
		return
	}

	user := currentUser(c)
	ctx, cancel := a.opContext(c)
	defer cancel()

	session, err := a.sessions.Start(ctx, user.ID, payload.SetupID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrActiveSessionExists):
			respondError(c, http.StatusConflict, "Unable to start right now. Try again in a moment.")
		case errors.Is(err, service.ErrSetupNotFound):
			respondError(c, http.StatusNotFound, "Setup not found.")
		default:
			respondError(c, http.StatusInternalServerError, "Unable to start session. Try again in a moment.")
		}
		return
	}

	c.JSON(http.StatusCreated, sessionToPayload(*session))
}

// EndSession 结束会话（Braking），请求体可省略
func (a *API) EndSession(c *gin.Context) {
	var payload sessionEndPayload
	if err := c.ShouldBindJSON(&payload); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, http.StatusBadRequest, "Invalid request body.")
		return
	}

	user := currentUser(c)
	ctx, cancel := a.opContext(c)
	defer cancel()

	session, err := a.sessions.End(ctx, c.Param("id"), user.ID, payload.NextStep)
	if err != nil {
		respondSessionError(c, err, "Unable to end session. Try again in a moment.")
		return
	}

	c.JSON(http.StatusOK, sessionToPayload(*session))
}

// AbandonSession 放弃会话，无惩罚
func (a *API) AbandonSession(c *gin.Context) {
	user := currentUser(c)
	ctx, cancel := a.opContext(c)
	defer cancel()

	session, err := a.sessions.Abandon(ctx, c.Param("id"), user.ID)
	if err != nil {
		respondSessionError(c, err, "Unable to abandon session. Try again in a moment.")
		return
	}

	c.JSON(http.StatusOK, sessionToPayload(*session))
}

// GetActiveSession 返回进行中的会话
func (a *API) GetActiveSession(c *gin.Context) {
	user := currentUser(c)
	ctx, cancel := a.opContext(c)
	defer cancel()

	session, err := a.sessions.Active(ctx, user.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Unable to load session. Try again in a moment.")
		return
	}
	if session == nil {
		respondError(c, http.StatusNotFound, "No active session.")
		return
	}

	c.JSON(http.StatusOK, sessionToPayload(*session))
}

// GetRecentSessions 分页返回历史会话
func (a *API) GetRecentSessions(c *gin.Context) {
	limit, offset := parsePagination(c, 30, 100)

	user := currentUser(c)
	ctx, cancel := a.opContext(c)
	defer cancel()

	sessions, err := a.sessions.Recent(ctx, user.ID, limit, offset)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Unable to load sessions. Try again in a moment.")
		return
	}

	items := make([]gin.H, 0, len(sessions))
	for _, session := range sessions {
		items = append(items, sessionToPayload(session))
	}

	c.JSON(http.StatusOK, items)
}

func respondSessionError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		respondError(c, http.StatusNotFound, "Session not found.")
	case errors.Is(err, service.ErrSessionNotActive):
		respondError(c, http.StatusConflict, "Session is not active.")
	default:
		respondError(c, http.StatusInternalServerError, fallback)
	}
}
