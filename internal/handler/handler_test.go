package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sakialabs/makana/internal/db"
	"github.com/sakialabs/makana/internal/service"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testUserID = "550e8400-e29b-41d4-a716-446655440000"

func setupTestAPI(t *testing.T) (*API, *gorm.DB, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	if err := db.EnsurePresetSetups(gdb); err != nil {
		t.Fatalf("failed to seed presets: %v", err)
	}

	auth := service.NewAuthService(gdb, "test-secret", time.Hour, 24*time.Hour)
	api := NewAPI(gdb, auth, 5*time.Second)

	cleanup := func() {
		sqlDB, err := gdb.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
	return api, gdb, cleanup
}

// testRouter 装配与生产一致的路由，但把认证换成直接注入身份
func testRouter(api *API) *gin.Engine {
	r := gin.New()

	auth := r.Group("/api/v1/auth")
	{
		auth.POST("/signup", api.Signup)
		auth.POST("/signin", api.Signin)
	}

	authed := r.Group("/api/v1")
	authed.Use(func(c *gin.Context) {
		c.Set(currentUserKey, service.CurrentUser{ID: testUserID, Email: "maia@example.com"})
	})
	{
		authed.POST("/sessions", api.StartSession)
		authed.PATCH("/sessions/:id/end", api.EndSession)
		authed.PATCH("/sessions/:id/abandon", api.AbandonSession)
		authed.GET("/sessions/active", api.GetActiveSession)
		authed.GET("/sessions/recent", api.GetRecentSessions)
		authed.POST("/daily-check", api.CreateDailyCheck)
		authed.GET("/daily-check/today", api.GetTodayCheck)
		authed.POST("/weekly-check", api.CreateWeeklyCheck)
		authed.GET("/weekly-check/latest", api.GetLatestWeeklyCheck)
		authed.POST("/reduced-mode/activate", api.ActivateReducedMode)
		authed.GET("/reduced-mode/status", api.GetReducedModeStatus)
		authed.GET("/setups", api.ListSetups)
		authed.POST("/setups/activate", api.ActivateSetup)
	}

	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
	return payload
}

func presetID(t *testing.T, gdb *gorm.DB, name string) string {
	t.Helper()
	var setup db.Setup
	if err := gdb.Where("name = ?", name).First(&setup).Error; err != nil {
		t.Fatalf("failed to load preset %s: %v", name, err)
	}
	return setup.ID
}

func TestSignupAndSigninEndpoints(t *testing.T) {
	api, _, cleanup := setupTestAPI(t)
	defer cleanup()
	r := testRouter(api)

	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/signup", `{"email":"maia@example.com","password":"secret123"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if access, _ := body["access_token"].(string); access == "" {
		t.Fatal("expected access token in signup response")
	}
	if refresh, _ := body["refresh_token"].(string); refresh == "" {
		t.Fatal("expected refresh token in signup response")
	}

	// 重复注册统一回 400，不区分原因
	w = doJSON(t, r, http.MethodPost, "/api/v1/auth/signup", `{"email":"maia@example.com","password":"secret123"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on duplicate signup, got %d", w.Code)
	}

	// 过短密码被请求校验挡下
	w = doJSON(t, r, http.MethodPost, "/api/v1/auth/signup", `{"email":"other@example.com","password":"123"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on short password, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPost, "/api/v1/auth/signin", `{"email":"maia@example.com","password":"wrong"}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 on bad credentials, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPost, "/api/v1/auth/signin", `{"email":"maia@example.com","password":"secret123"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on signin, got %d: %s", w.Code, w.Body.String())
	}
}

func TestSessionEndpoints(t *testing.T) {
	api, gdb, cleanup := setupTestAPI(t)
	defer cleanup()
	r := testRouter(api)
	calmID := presetID(t, gdb, "Calm")

	w := doJSON(t, r, http.MethodGet, "/api/v1/sessions/active", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without active session, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPost, "/api/v1/sessions", `{"setup_id":"`+calmID+`"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 on start, got %d: %s", w.Code, w.Body.String())
	}
	started := decodeBody(t, w)
	if started["status"] != "active" {
		t.Fatalf("expected active status, got %v", started["status"])
	}
	if started["duration_minutes"] != float64(25) {
		t.Fatalf("expected planned duration 25, got %v", started["duration_minutes"])
	}
	sessionID, _ := started["id"].(string)

	// 已有进行中的会话时再开直接 409
	w = doJSON(t, r, http.MethodPost, "/api/v1/sessions", `{"setup_id":"`+calmID+`"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 on second start, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPost, "/api/v1/sessions", `{"setup_id":"nonexistent"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 while a session is active, got %d", w.Code)
	}

	// 结束请求可以不带请求体
	w = doJSON(t, r, http.MethodPatch, "/api/v1/sessions/"+sessionID+"/end", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on end, got %d: %s", w.Code, w.Body.String())
	}
	ended := decodeBody(t, w)
	if ended["status"] != "completed" {
		t.Fatalf("expected completed status, got %v", ended["status"])
	}
	if ended["duration_minutes"] != float64(0) {
		t.Fatalf("expected measured duration 0, got %v", ended["duration_minutes"])
	}

	// 结束后的会话不能再结束
	w = doJSON(t, r, http.MethodPatch, "/api/v1/sessions/"+sessionID+"/end", "")
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 on double end, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPatch, "/api/v1/sessions/unknown/end", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on unknown session, got %d", w.Code)
	}

	// 未知配置在无活跃会话时回 404
	w = doJSON(t, r, http.MethodPost, "/api/v1/sessions", `{"setup_id":"nonexistent"}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on unknown setup, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/sessions/recent", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on recent, got %d", w.Code)
	}
}

func TestDailyCheckEndpoints(t *testing.T) {
	api, _, cleanup := setupTestAPI(t)
	defer cleanup()
	r := testRouter(api)

	w := doJSON(t, r, http.MethodGet, "/api/v1/daily-check/today", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before check-in, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPost, "/api/v1/daily-check", `{"responses":{"mood":"steady"}}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 on first check-in, got %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodPost, "/api/v1/daily-check", `{"responses":{"mood":"again"}}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 on duplicate check-in, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/daily-check/today", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 after check-in, got %d", w.Code)
	}
	body := decodeBody(t, w)
	responses, _ := body["responses"].(map[string]any)
	if responses["mood"] != "steady" {
		t.Fatalf("expected first check-in responses preserved, got %v", body["responses"])
	}
}

func TestWeeklyCheckEndpoints(t *testing.T) {
	api, _, cleanup := setupTestAPI(t)
	defer cleanup()
	r := testRouter(api)

	w := doJSON(t, r, http.MethodGet, "/api/v1/weekly-check/latest", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before first weekly check, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPost, "/api/v1/weekly-check", `{"responses":{"capacity":"low"}}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 on weekly check, got %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	// 空白的一周会带上减量建议
	if body["scope_recommendation"] == nil {
		t.Fatal("expected scope recommendation for an empty week")
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/weekly-check/latest", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on latest, got %d", w.Code)
	}
}

func TestReducedModeEndpoints(t *testing.T) {
	api, _, cleanup := setupTestAPI(t)
	defer cleanup()
	r := testRouter(api)

	w := doJSON(t, r, http.MethodGet, "/api/v1/reduced-mode/status", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on status, got %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["is_active"] != false {
		t.Fatalf("expected inactive default, got %v", body["is_active"])
	}

	w = doJSON(t, r, http.MethodPost, "/api/v1/reduced-mode/activate", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on activate, got %d", w.Code)
	}
	body = decodeBody(t, w)
	if body["is_active"] != true {
		t.Fatalf("expected active state, got %v", body["is_active"])
	}
}

func TestSetupEndpoints(t *testing.T) {
	api, gdb, cleanup := setupTestAPI(t)
	defer cleanup()
	r := testRouter(api)

	w := doJSON(t, r, http.MethodGet, "/api/v1/setups", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on list, got %d", w.Code)
	}
	var setups []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &setups); err != nil {
		t.Fatalf("failed to decode setups: %v", err)
	}
	if len(setups) != 3 {
		t.Fatalf("expected 3 presets, got %d", len(setups))
	}

	w = doJSON(t, r, http.MethodPost, "/api/v1/setups/activate", `{"setup_id":"`+presetID(t, gdb, "Vitality")+`"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on activate, got %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodPost, "/api/v1/setups/activate", `{"setup_id":"nonexistent"}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on unknown setup, got %d", w.Code)
	}
}

func TestAuthRequiredMiddleware(t *testing.T) {
	api, _, cleanup := setupTestAPI(t)
	defer cleanup()

	r := gin.New()
	r.GET("/protected", AuthRequired(api.Auth()), func(c *gin.Context) {
		user := currentUser(c)
		c.JSON(http.StatusOK, gin.H{"email": user.Email})
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without header, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token, got %d", w.Code)
	}

	pair, err := api.Auth().SignUp(context.Background(), "maia@example.com", "secret123")
	if err != nil {
		t.Fatalf("SignUp returned error: %v", err)
	}
	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with valid token, got %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["email"] != "maia@example.com" {
		t.Fatalf("expected identity from token, got %v", body["email"])
	}
}

func TestParsePagination(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		query  string
		limit  int
		offset int
	}{
		{name: "defaults", query: "", limit: 30, offset: 0},
		{name: "explicit values", query: "limit=10&offset=5", limit: 10, offset: 5},
		{name: "limit clamped to max", query: "limit=500", limit: 100, offset: 0},
		{name: "invalid values ignored", query: "limit=abc&offset=-2", limit: 30, offset: 0},
		{name: "zero limit ignored", query: "limit=0", limit: 30, offset: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)

			limit, offset := parsePagination(c, 30, 100)
			if limit != tt.limit || offset != tt.offset {
				t.Fatalf("expected (%d,%d), got (%d,%d)", tt.limit, tt.offset, limit, offset)
			}
		})
	}
}
