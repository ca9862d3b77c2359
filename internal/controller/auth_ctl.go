package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gametrack_v1_202601/internal/api/dto"
	"gametrack_v1_202601/internal/middleware"
	"gametrack_v1_202601/internal/service"
)

// AuthController 认证控制器
type AuthController struct {
	userSvc *service.UserService
}

// NewAuthController 创建认证控制器
func NewAuthController(userSvc *service.UserService) *AuthController {
	return &AuthController{userSvc: userSvc}
}

// Register 用户注册
// POST /api/auth/register
func (c *AuthController) Register(ctx *gin.Context) {
	var req dto.RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "参数错误: " + err.Error()})
		return
	}

	info, err := c.userSvc.Register(ctx.Request.Context(), &req)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, info)
}

// Login 用户登录
// POST /api/auth/login
func (c *AuthController) Login(ctx *gin.Context) {
	var req dto.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "参数错误: " + err.Error()})
		return
	}

	resp, err := c.userSvc.Login(ctx.Request.Context(), &req)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, resp)
}

// RefreshToken 刷新 Token
// POST /api/auth/refresh
func (c *AuthController) RefreshToken(ctx *gin.Context) {
	var req dto.RefreshTokenRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "参数错误: " + err.Error()})
		return
	}

	resp, err := c.userSvc.RefreshToken(ctx.Request.Context(), &req)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, resp)
}

// GetProfile 获取当前用户信息
// GET /api/auth/profile
func (c *AuthController) GetProfile(ctx *gin.Context) {
	info, err := c.userSvc.GetProfile(ctx.Request.Context(), middleware.GetUserID(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, info)
}

// ChangePassword 修改密码
// PUT /api/auth/password
func (c *AuthController) ChangePassword(ctx *gin.Context) {
	var req dto.ChangePasswordRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "参数错误: " + err.Error()})
		return
	}

	if err := c.userSvc.ChangePassword(ctx.Request.Context(), middleware.GetUserID(ctx), &req); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "密码修改成功"})
}
