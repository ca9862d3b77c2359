package dto

import (
	"gametrack_v1_202601/internal/model"
	"gametrack_v1_202601/internal/repository"
)

// ================== SharedAccount DTO ==================

// AccountCreateReq 创建共享账号请求
type AccountCreateReq struct {
	AccountName string `json:"account_name" binding:"required,min=1,max=100"`
	DisplayName string `json:"display_name" binding:"max=100"`
	ServerName  string `json:"server_name" binding:"max=100"`
}

// AccountListReq 账号列表请求
type AccountListReq struct {
	Page            int    `form:"page,default=1"`
	PageSize        int    `form:"page_size,default=20"`
	Keyword         string `form:"keyword"`
	IncludeInactive bool   `form:"include_inactive"`
}

// AccountUpdateReq 更新账号请求，均为可选字段，缺省字段保持原值
type AccountUpdateReq struct {
	DisplayName *string `json:"display_name"`
	ServerName  *string `json:"server_name"`
	IsActive    *bool   `json:"is_active"`
}

// AccountListResp 账号列表响应
type AccountListResp struct {
	List       []repository.AccountWithStats `json:"list"`
	Total      int64                         `json:"total"`
	Page       int                           `json:"page"`
	PageSize   int                           `json:"page_size"`
	TotalPages int64                         `json:"total_pages"`
}

// AccountDetailResp 账号详情响应，带全部成员关联
type AccountDetailResp struct {
	*model.SharedAccount
	UserCount int `json:"user_count"`
}

// ================== 成员关系 DTO ==================

// PermissionReq 权限覆盖/更新，均为可选字段，按字段合并
type PermissionReq struct {
	Read   *bool `json:"read"`
	Write  *bool `json:"write"`
	Delete *bool `json:"delete"`
}

// Merge 把非空字段合并进现有权限配置
func (p *PermissionReq) Merge(base model.PermissionConfig) model.PermissionConfig {
	if p == nil {
		return base
	}
	if p.Read != nil {
		base.Read = *p.Read
	}
	if p.Write != nil {
		base.Write = *p.Write
	}
	if p.Delete != nil {
		base.Delete = *p.Delete
	}
	return base
}

// AddUserReq 添加成员请求
type AddUserReq struct {
	UserID int64 `json:"user_id" binding:"required"`
	// 缺省为 contributor
	RelationType string `json:"relation_type" binding:"omitempty,oneof=owner contributor"`
	// 可选的权限覆盖，覆盖值优先于关系类型的默认值
	Permissions *PermissionReq `json:"permissions"`
}

// AccountUserListReq 成员列表请求
type AccountUserListReq struct {
	Page     int    `form:"page,default=1"`
	PageSize int    `form:"page_size,default=20"`
	Keyword  string `form:"keyword"`
}

// AccountUserListResp 成员列表响应
type AccountUserListResp struct {
	List       []model.UserAccountRelation `json:"list"`
	Total      int64                       `json:"total"`
	Page       int                         `json:"page"`
	PageSize   int                         `json:"page_size"`
	TotalPages int64                       `json:"total_pages"`
}

// TotalPages 统一的总页数计算
func TotalPages(total int64, pageSize int) int64 {
	if pageSize <= 0 {
		return 0
	}
	return (total + int64(pageSize) - 1) / int64(pageSize)
}
