package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"gametrack_v1_202601/internal/api/dto"
	"gametrack_v1_202601/internal/service"
)

// TemplateController 进度模板控制器，写操作仅管理员（路由层校验）
type TemplateController struct {
	templateSvc *service.TemplateService
}

// NewTemplateController 创建进度模板控制器
func NewTemplateController(templateSvc *service.TemplateService) *TemplateController {
	return &TemplateController{templateSvc: templateSvc}
}

// GetTemplateList 模板列表
// GET /api/templates
func (c *TemplateController) GetTemplateList(ctx *gin.Context) {
	var req dto.TemplateListReq
	if err := ctx.ShouldBindQuery(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "参数错误: " + err.Error()})
		return
	}

	resp, err := c.templateSvc.ListTemplates(ctx.Request.Context(), &req)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, resp)
}

// CreateTemplate 创建模板
// POST /api/templates
func (c *TemplateController) CreateTemplate(ctx *gin.Context) {
	var req dto.TemplateCreateReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "参数错误: " + err.Error()})
		return
	}

	tpl, err := c.templateSvc.CreateTemplate(ctx.Request.Context(), &req)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, tpl)
}

// UpdateTemplate 更新模板
// PUT /api/templates/:id
func (c *TemplateController) UpdateTemplate(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "无效的模板ID"})
		return
	}

	var req dto.TemplateUpdateReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "参数错误: " + err.Error()})
		return
	}

	tpl, err := c.templateSvc.UpdateTemplate(ctx.Request.Context(), id, &req)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, tpl)
}

// DeleteTemplate 删除模板
// DELETE /api/templates/:id
func (c *TemplateController) DeleteTemplate(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "无效的模板ID"})
		return
	}

	if err := c.templateSvc.DeleteTemplate(ctx.Request.Context(), id); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "模板已删除"})
}
