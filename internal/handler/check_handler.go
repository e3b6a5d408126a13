package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sakialabs/makana/internal/db"
	"github.com/sakialabs/makana/internal/service"
)

type checkPayload struct {
	Responses map[string]any `json:"responses" binding:"required"`
}

func dailyCheckToPayload(check db.DailyCheck) gin.H {
	return gin.H{
		"id":           check.ID,
		"check_date":   check.CheckDate.Format(dateFormat),
		"responses":    check.Responses,
		"completed_at": check.CompletedAt,
	}
}

func weeklyCheckToPayload(check db.WeeklyCheck) gin.H {
	return gin.H{
		"id":                   check.ID,
		"week_start_date":      check.WeekStartDate.Format(dateFormat),
		"week_end_date":        check.WeekEndDate.Format(dateFormat),
		"responses":            check.Responses,
		"insight":              check.Insight,
		"scope_recommendation": check.ScopeRecommendation,
		"completed_at":         check.CompletedAt,
	}
}

// CreateDailyCheck 创建今日打卡
func (a *API) CreateDailyCheck(c *gin.Context) {
	var payload checkPayload
	if !bindJSON(c, &payload, "Responses are required.") {
		return
	}

	user := currentUser(c)
	ctx, cancel := a.opContext(c)
	defer cancel()

	check, err := a.dailyChecks.Create(ctx, user.ID, payload.Responses)
	if err != nil {
		if errors.Is(err, service.ErrDailyCheckExists) {
			respondError(c, http.StatusConflict, "Already completed today.")
			return
		}
		respondError(c, http.StatusInternalServerError, "Unable to save check. Try again in a moment.")
		return
	}

	c.JSON(http.StatusCreated, dailyCheckToPayload(*check))
}

// GetTodayCheck 返回今日打卡
func (a *API) GetTodayCheck(c *gin.Context) {
	user := currentUser(c)
	ctx, cancel := a.opContext(c)
	defer cancel()

	check, err := a.dailyChecks.Today(ctx, user.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Unable to load check. Try again in a moment.")
		return
	}
	if check == nil {
		respondError(c, http.StatusNotFound, "No check for today.")
		return
	}

	c.JSON(http.StatusOK, dailyCheckToPayload(*check))
}

// GetDailyCheckHistory 分页返回历史打卡
func (a *API) GetDailyCheckHistory(c *gin.Context) {
	limit, offset := parsePagination(c, 30, 100)

	user := currentUser(c)
	ctx, cancel := a.opContext(c)
	defer cancel()

	checks, err := a.dailyChecks.History(ctx, user.ID, limit, offset)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Unable to load checks. Try again in a moment.")
		return
	}

	items := make([]gin.H, 0, len(checks))
	for _, check := range checks {
		items = append(items, dailyCheckToPayload(check))
	}

	c.JSON(http.StatusOK, items)
}

// CreateWeeklyCheck 创建本周反思，洞察与建议在此刻冻结
func (a *API) CreateWeeklyCheck(c *gin.Context) {
	var payload checkPayload
	if !bindJSON(c, &payload, "Responses are required.") {
		return
	}

	user := currentUser(c)
	ctx, cancel := a.opContext(c)
	defer cancel()

	check, err := a.weeklyChecks.Create(ctx, user.ID, payload.Responses)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Unable to save check. Try again in a moment.")
		return
	}

	c.JSON(http.StatusCreated, weeklyCheckToPayload(*check))
}

// GetLatestWeeklyCheck 返回最近一条每周反思
func (a *API) GetLatestWeeklyCheck(c *gin.Context) {
	user := currentUser(c)
	ctx, cancel := a.opContext(c)
	defer cancel()

	check, err := a.weeklyChecks.Latest(ctx, user.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Unable to load check. Try again in a moment.")
		return
	}
	if check == nil {
		respondError(c, http.StatusNotFound, "No weekly check yet.")
		return
	}

	c.JSON(http.StatusOK, weeklyCheckToPayload(*check))
}

// GetWeeklyCheckHistory 分页返回历史每周反思
func (a *API) GetWeeklyCheckHistory(c *gin.Context) {
	limit, offset := parsePagination(c, 12, 100)

	user := currentUser(c)
	ctx, cancel := a.opContext(c)
	defer cancel()

	checks, err := a.weeklyChecks.History(ctx, user.ID, limit, offset)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Unable to load checks. Try again in a moment.")
		return
	}

	items := make([]gin.H, 0, len(checks))
	for _, check := range checks {
		items = append(items, weeklyCheckToPayload(check))
	}

	c.JSON(http.StatusOK, items)
}
