package service

import (
	"context"
	"time"

	"gametrack_v1_202601/internal/api/dto"
	"gametrack_v1_202601/internal/model"
	"gametrack_v1_202601/internal/repository"
)

// ==================== ProgressService 周常进度服务 ====================

// ProgressService 共享账号的周常进度记录
// 记录进度需要账号写权限，查看进度需要读权限，都走权限评估服务
type ProgressService struct {
	progressRepo repository.ProgressRepository
	templateRepo repository.TemplateRepository
	permSvc      *PermissionService
}

// NewProgressService 创建周常进度服务
func NewProgressService(
	progressRepo repository.ProgressRepository,
	templateRepo repository.TemplateRepository,
	permSvc *PermissionService,
) *ProgressService {
	return &ProgressService{
		progressRepo: progressRepo,
		templateRepo: templateRepo,
		permSvc:      permSvc,
	}
}

// RecordProgress 记录一次完成，需要账号写权限
func (s *ProgressService) RecordProgress(ctx context.Context, accountName string, req *dto.ProgressRecordReq, userID int64) (*model.ProgressRecord, error) {
	if err := s.permSvc.ValidatePermission(ctx, userID, accountName, model.ActionWrite); err != nil {
		return nil, err
	}

	tpl, err := s.templateRepo.GetByID(ctx, req.TemplateID)
	if err != nil {
		return nil, err
	}
	if tpl == nil {
		return nil, ErrTemplateNotFound
	}

	record, err := s.progressRepo.GetByAccountAndTemplate(ctx, accountName, req.TemplateID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		record = &model.ProgressRecord{
			AccountName: accountName,
			TemplateID:  req.TemplateID,
		}
	}

	count := req.Count
	if count < 1 {
		count = 1
	}
	now := time.Now()
	record.CompletedCount += count
	record.IsDone = record.CompletedCount >= tpl.RequiredCount
	record.LastClearedAt = &now
	record.LastUpdatedBy = userID

	if err := s.progressRepo.Save(ctx, record); err != nil {
		return nil, err
	}
	record.Template = tpl
	return record, nil
}

// GetAccountProgress 查看账号本周进度，需要读权限
// 响应按激活模板展开，没有记录的模板显示为零进度
func (s *ProgressService) GetAccountProgress(ctx context.Context, accountName string, userID int64) (*dto.ProgressListResp, error) {
	if err := s.permSvc.ValidatePermission(ctx, userID, accountName, model.ActionRead); err != nil {
		return nil, err
	}

	tpls, err := s.templateRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	records, err := s.progressRepo.ListByAccount(ctx, accountName)
	if err != nil {
		return nil, err
	}

	byTemplate := make(map[int64]*model.ProgressRecord, len(records))
	for i := range records {
		byTemplate[records[i].TemplateID] = &records[i]
	}

	resp := &dto.ProgressListResp{
		AccountName: accountName,
		Items:       make([]dto.ProgressItem, 0, len(tpls)),
	}
	for _, tpl := range tpls {
		item := dto.ProgressItem{
			TemplateID:    tpl.ID,
			TemplateName:  tpl.Name,
			Category:      tpl.Category,
			RequiredCount: tpl.RequiredCount,
		}
		if record, ok := byTemplate[tpl.ID]; ok {
			item.CompletedCount = record.CompletedCount
			item.IsDone = record.IsDone
		}
		if item.IsDone {
			resp.DoneCount++
		}
		resp.Items = append(resp.Items, item)
	}
	resp.TotalCount = len(resp.Items)

	return resp, nil
}

// ResetWeeklyProgress 周常重置，定时任务每周调用一次
func (s *ProgressService) ResetWeeklyProgress(ctx context.Context) (int64, error) {
	return s.progressRepo.ResetAll(ctx)
}
