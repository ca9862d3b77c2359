package controller

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"gametrack_v1_202601/internal/middleware"
	"gametrack_v1_202601/internal/repository"
	"gametrack_v1_202601/internal/service"
)

// ==================== 测试辅助 ====================

func setupAuthCtlRouter(db *gorm.DB) *gin.Engine {
	middleware.SetJWTConfig(middleware.DefaultJWTConfig())
	ctl := NewAuthController(service.NewUserService(repository.NewUserRepository(db)))

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())

	auth := r.Group("/api/auth")
	{
		auth.POST("/register", ctl.Register)
		auth.POST("/login", ctl.Login)
		auth.POST("/refresh", ctl.RefreshToken)
		authed := auth.Group("", middleware.JWTAuth())
		{
			authed.GET("/profile", ctl.GetProfile)
			authed.PUT("/password", ctl.ChangePassword)
		}
	}
	return r
}

func newAuthedRequest(method, path, token string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func serve(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// ==================== 测试用例 ====================

func TestAuthController_RegisterAndLogin(t *testing.T) {
	db := setupAccountCtlTestDB(t)
	router := setupAuthCtlRouter(db)

	w := doJSON(router, http.MethodPost, "/api/auth/register", map[string]interface{}{
		"username": "newuser",
		"password": "secret123",
	}, 0)
	if w.Code != http.StatusCreated {
		t.Fatalf("注册 status = %d, want %d, body: %s", w.Code, http.StatusCreated, w.Body.String())
	}

	// 重名注册返回 409
	w = doJSON(router, http.MethodPost, "/api/auth/register", map[string]interface{}{
		"username": "newuser",
		"password": "other456",
	}, 0)
	if w.Code != http.StatusConflict {
		t.Errorf("重名注册 status = %d, want %d", w.Code, http.StatusConflict)
	}

	// 密码太短返回 400
	w = doJSON(router, http.MethodPost, "/api/auth/register", map[string]interface{}{
		"username": "short",
		"password": "123",
	}, 0)
	if w.Code != http.StatusBadRequest {
		t.Errorf("弱密码注册 status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	w = doJSON(router, http.MethodPost, "/api/auth/login", map[string]interface{}{
		"username": "newuser",
		"password": "secret123",
	}, 0)
	if w.Code != http.StatusOK {
		t.Fatalf("登录 status = %d, want %d", w.Code, http.StatusOK)
	}
	var login struct {
		AccessToken string `json:"access_token"`
	}
	json.Unmarshal(w.Body.Bytes(), &login)
	if login.AccessToken == "" {
		t.Fatal("登录应返回 access_token")
	}

	// 错误密码返回 401
	w = doJSON(router, http.MethodPost, "/api/auth/login", map[string]interface{}{
		"username": "newuser",
		"password": "wrong",
	}, 0)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("错误密码登录 status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestAuthController_ProfileRequiresToken(t *testing.T) {
	db := setupAccountCtlTestDB(t)
	router := setupAuthCtlRouter(db)

	// 无 Token 返回 401
	w := doJSON(router, http.MethodGet, "/api/auth/profile", nil, 0)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("无 Token status = %d, want %d", w.Code, http.StatusUnauthorized)
	}

	doJSON(router, http.MethodPost, "/api/auth/register", map[string]interface{}{
		"username": "newuser",
		"password": "secret123",
	}, 0)
	w = doJSON(router, http.MethodPost, "/api/auth/login", map[string]interface{}{
		"username": "newuser",
		"password": "secret123",
	}, 0)
	var login struct {
		AccessToken string `json:"access_token"`
	}
	json.Unmarshal(w.Body.Bytes(), &login)

	// 带 Token 拿到自己的信息
	req := newAuthedRequest(http.MethodGet, "/api/auth/profile", login.AccessToken)
	w = serve(router, req)
	if w.Code != http.StatusOK {
		t.Fatalf("带 Token status = %d, want %d, body: %s", w.Code, http.StatusOK, w.Body.String())
	}
	var profile struct {
		Username string `json:"username"`
	}
	json.Unmarshal(w.Body.Bytes(), &profile)
	if profile.Username != "newuser" {
		t.Errorf("username = %s, want newuser", profile.Username)
	}
}
