package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"gametrack_v1_202601/internal/api/dto"
	"gametrack_v1_202601/internal/middleware"
	"gametrack_v1_202601/internal/service"
)

// AccountController 共享账号控制器
type AccountController struct {
	accountSvc *service.SharedAccountService
	permSvc    *service.PermissionService
}

// NewAccountController 创建共享账号控制器
func NewAccountController(accountSvc *service.SharedAccountService, permSvc *service.PermissionService) *AccountController {
	return &AccountController{
		accountSvc: accountSvc,
		permSvc:    permSvc,
	}
}

// ==================== 账号生命周期 ====================

// CreateAccount 创建共享账号
// POST /api/accounts
func (c *AccountController) CreateAccount(ctx *gin.Context) {
	var req dto.AccountCreateReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "参数错误: " + err.Error()})
		return
	}

	account, err := c.accountSvc.CreateSharedAccount(ctx.Request.Context(), &req, middleware.GetUserID(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, account)
}

// GetAccountList 当前用户可见的账号列表
// GET /api/accounts
func (c *AccountController) GetAccountList(ctx *gin.Context) {
	var req dto.AccountListReq
	if err := ctx.ShouldBindQuery(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "参数错误: " + err.Error()})
		return
	}

	resp, err := c.accountSvc.GetUserAccessibleAccounts(ctx.Request.Context(), middleware.GetUserID(ctx), &req)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, resp)
}

// GetAccountDetail 账号详情
// GET /api/accounts/:name
func (c *AccountController) GetAccountDetail(ctx *gin.Context) {
	resp, err := c.accountSvc.GetSharedAccountDetail(ctx.Request.Context(), ctx.Param("name"), middleware.GetUserID(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, resp)
}

// UpdateAccount 更新账号
// PUT /api/accounts/:name
func (c *AccountController) UpdateAccount(ctx *gin.Context) {
	var req dto.AccountUpdateReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "参数错误: " + err.Error()})
		return
	}

	account, err := c.accountSvc.UpdateSharedAccount(ctx.Request.Context(), ctx.Param("name"), &req, middleware.GetUserID(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, account)
}

// DeleteAccount 删除账号
// DELETE /api/accounts/:name
func (c *AccountController) DeleteAccount(ctx *gin.Context) {
	if err := c.accountSvc.DeleteSharedAccount(ctx.Request.Context(), ctx.Param("name"), middleware.GetUserID(ctx)); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "账号已删除"})
}

// ==================== 成员管理 ====================

// AddUser 添加成员
// POST /api/accounts/:name/users
func (c *AccountController) AddUser(ctx *gin.Context) {
	var req dto.AddUserReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "参数错误: " + err.Error()})
		return
	}

	rel, err := c.accountSvc.AddUserToAccount(ctx.Request.Context(), ctx.Param("name"), &req, middleware.GetUserID(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, rel)
}

// GetAccountUsers 成员列表
// GET /api/accounts/:name/users
func (c *AccountController) GetAccountUsers(ctx *gin.Context) {
	var req dto.AccountUserListReq
	if err := ctx.ShouldBindQuery(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "参数错误: " + err.Error()})
		return
	}

	resp, err := c.accountSvc.GetAccountUsers(ctx.Request.Context(), ctx.Param("name"), middleware.GetUserID(ctx), &req)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, resp)
}

// RemoveUser 移除成员
// DELETE /api/accounts/:name/users/:userId
func (c *AccountController) RemoveUser(ctx *gin.Context) {
	targetUserID, err := strconv.ParseInt(ctx.Param("userId"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "无效的用户ID"})
		return
	}

	if err := c.accountSvc.RemoveUserFromAccount(ctx.Request.Context(), ctx.Param("name"), targetUserID, middleware.GetUserID(ctx)); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "成员已移除"})
}

// UpdateUserPermissions 更新成员权限
// PUT /api/accounts/:name/users/:userId/permissions
func (c *AccountController) UpdateUserPermissions(ctx *gin.Context) {
	targetUserID, err := strconv.ParseInt(ctx.Param("userId"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "无效的用户ID"})
		return
	}

	var req dto.PermissionReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "参数错误: " + err.Error()})
		return
	}

	rel, err := c.accountSvc.UpdateUserPermissions(ctx.Request.Context(), ctx.Param("name"), targetUserID, &req, middleware.GetUserID(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, rel)
}

// ==================== 权限自省 ====================

// GetMyPermissions 查询自己在某账号的权限
// GET /api/accounts/:name/permissions
func (c *AccountController) GetMyPermissions(ctx *gin.Context) {
	result := c.permSvc.GetUserPermissions(ctx.Request.Context(), middleware.GetUserID(ctx), ctx.Param("name"))
	ctx.JSON(http.StatusOK, result)
}
