package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gametrack_v1_202601/internal/api/dto"
	"gametrack_v1_202601/internal/middleware"
	"gametrack_v1_202601/internal/service"
)

// ProgressController 周常进度控制器
type ProgressController struct {
	progressSvc *service.ProgressService
}

// NewProgressController 创建周常进度控制器
func NewProgressController(progressSvc *service.ProgressService) *ProgressController {
	return &ProgressController{progressSvc: progressSvc}
}

// GetProgress 查看账号本周进度
// GET /api/accounts/:name/progress
func (c *ProgressController) GetProgress(ctx *gin.Context) {
	resp, err := c.progressSvc.GetAccountProgress(ctx.Request.Context(), ctx.Param("name"), middleware.GetUserID(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, resp)
}

// RecordProgress 记录一次完成
// POST /api/accounts/:name/progress
func (c *ProgressController) RecordProgress(ctx *gin.Context) {
	var req dto.ProgressRecordReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "参数错误: " + err.Error()})
		return
	}

	record, err := c.progressSvc.RecordProgress(ctx.Request.Context(), ctx.Param("name"), &req, middleware.GetUserID(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, record)
}
