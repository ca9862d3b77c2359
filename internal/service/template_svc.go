package service

import (
	"context"
	"errors"

	"gametrack_v1_202601/internal/api/dto"
	"gametrack_v1_202601/internal/model"
	"gametrack_v1_202601/internal/repository"
)

// ==================== TemplateService 进度模板服务 ====================

// TemplateService 周常进度模板维护，管理员专用
// 角色校验在路由层的 RequireRole 中间件完成
type TemplateService struct {
	templateRepo repository.TemplateRepository
}

// NewTemplateService 创建进度模板服务
func NewTemplateService(templateRepo repository.TemplateRepository) *TemplateService {
	return &TemplateService{templateRepo: templateRepo}
}

// CreateTemplate 创建模板
func (s *TemplateService) CreateTemplate(ctx context.Context, req *dto.TemplateCreateReq) (*model.ProgressTemplate, error) {
	exists, err := s.templateRepo.ExistsByName(ctx, req.Name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrTemplateExists
	}

	category := req.Category
	if category == "" {
		category = model.TemplateCategoryDungeon
	}
	requiredCount := req.RequiredCount
	if requiredCount < 1 {
		requiredCount = 1
	}

	tpl := &model.ProgressTemplate{
		Name:          req.Name,
		Category:      category,
		RequiredCount: requiredCount,
		SortOrder:     req.SortOrder,
		IsActive:      true,
	}
	if err := s.templateRepo.Create(ctx, tpl); err != nil {
		return nil, err
	}
	return tpl, nil
}

// UpdateTemplate 部分更新模板
func (s *TemplateService) UpdateTemplate(ctx context.Context, id int64, req *dto.TemplateUpdateReq) (*model.ProgressTemplate, error) {
	tpl, err := s.templateRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tpl == nil {
		return nil, ErrTemplateNotFound
	}

	if req.Name != nil && *req.Name != tpl.Name {
		exists, err := s.templateRepo.ExistsByName(ctx, *req.Name)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, ErrTemplateExists
		}
		tpl.Name = *req.Name
	}
	if req.Category != nil {
		tpl.Category = *req.Category
	}
	if req.RequiredCount != nil && *req.RequiredCount >= 1 {
		tpl.RequiredCount = *req.RequiredCount
	}
	if req.SortOrder != nil {
		tpl.SortOrder = *req.SortOrder
	}
	if req.IsActive != nil {
		tpl.IsActive = *req.IsActive
	}

	if err := s.templateRepo.Update(ctx, tpl); err != nil {
		return nil, err
	}
	return tpl, nil
}

// DeleteTemplate 删除模板及其进度记录
func (s *TemplateService) DeleteTemplate(ctx context.Context, id int64) error {
	tpl, err := s.templateRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if tpl == nil {
		return ErrTemplateNotFound
	}
	return s.templateRepo.Delete(ctx, id)
}

// ListTemplates 模板列表
func (s *TemplateService) ListTemplates(ctx context.Context, req *dto.TemplateListReq) (*dto.TemplateListResp, error) {
	page, pageSize := normalizePage(req.Page, req.PageSize)
	tpls, total, err := s.templateRepo.List(ctx, repository.TemplateFilter{
		Keyword:  req.Keyword,
		Category: req.Category,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return nil, err
	}

	return &dto.TemplateListResp{
		List:       tpls,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: dto.TotalPages(total, pageSize),
	}, nil
}

// ==================== 错误定义 ====================

var (
	ErrTemplateNotFound = errors.New("进度模板不存在")
	ErrTemplateExists   = errors.New("模板名已存在")
)
