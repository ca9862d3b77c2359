package dto

import "gametrack_v1_202601/internal/model"

// ================== 进度模板 DTO ==================

// TemplateCreateReq 创建进度模板请求
type TemplateCreateReq struct {
	Name          string `json:"name" binding:"required,min=1,max=100"`
	Category      string `json:"category" binding:"omitempty,oneof=dungeon task"`
	RequiredCount int    `json:"required_count" binding:"omitempty,min=1"`
	SortOrder     int    `json:"sort_order"`
}

// TemplateUpdateReq 更新进度模板请求，均为可选字段
type TemplateUpdateReq struct {
	Name          *string `json:"name"`
	Category      *string `json:"category"`
	RequiredCount *int    `json:"required_count"`
	SortOrder     *int    `json:"sort_order"`
	IsActive      *bool   `json:"is_active"`
}

// TemplateListReq 模板列表请求
type TemplateListReq struct {
	Page     int    `form:"page,default=1"`
	PageSize int    `form:"page_size,default=20"`
	Keyword  string `form:"keyword"`
	Category string `form:"category"`
}

// TemplateListResp 模板列表响应
type TemplateListResp struct {
	List       []model.ProgressTemplate `json:"list"`
	Total      int64                    `json:"total"`
	Page       int                      `json:"page"`
	PageSize   int                      `json:"page_size"`
	TotalPages int64                    `json:"total_pages"`
}

// ================== 周常进度 DTO ==================

// ProgressRecordReq 记录一次进度
type ProgressRecordReq struct {
	TemplateID int64 `json:"template_id" binding:"required"`
	// 本次完成次数，缺省为 1
	Count int `json:"count" binding:"omitempty,min=1"`
}

// ProgressItem 某账号对某模板的进度视图
type ProgressItem struct {
	TemplateID     int64  `json:"template_id"`
	TemplateName   string `json:"template_name"`
	Category       string `json:"category"`
	RequiredCount  int    `json:"required_count"`
	CompletedCount int    `json:"completed_count"`
	IsDone         bool   `json:"is_done"`
}

// ProgressListResp 账号本周进度响应
type ProgressListResp struct {
	AccountName string         `json:"account_name"`
	Items       []ProgressItem `json:"items"`
	DoneCount   int            `json:"done_count"`
	TotalCount  int            `json:"total_count"`
}
