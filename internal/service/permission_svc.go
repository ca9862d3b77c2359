package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"gametrack_v1_202601/internal/model"
	"gametrack_v1_202601/internal/repository"
)

// ==================== PermissionService 权限评估服务 ====================

// PermissionService 共享账号权限评估
// 除 ValidatePermission 外，所有方法都只做咨询式判断，绝不向外抛错：
// 查询失败一律按拒绝处理（fail-closed）。在共享资源系统里，
// 故障时误放行比误拒绝更危险
type PermissionService struct {
	relationRepo repository.RelationRepository
}

// NewPermissionService 创建权限评估服务
func NewPermissionService(relationRepo repository.RelationRepository) *PermissionService {
	return &PermissionService{relationRepo: relationRepo}
}

// PermissionResult 单次权限评估结果
type PermissionResult struct {
	HasPermission bool                    `json:"has_permission"`
	RelationType  model.RelationType      `json:"relation_type,omitempty"`
	Permissions   *model.PermissionConfig `json:"permissions,omitempty"`
	Reason        string                  `json:"reason,omitempty"`
}

// 拒绝原因
const (
	ReasonNoRelation = "用户未关联该账号"
	ReasonCheckError = "权限检查失败"
)

func reasonLacksAction(action model.PermissionAction) string {
	return fmt.Sprintf("用户没有 %s 权限", action)
}

// CheckPermission 检查用户对账号是否有指定动作的权限
// 永不返回错误：没有关联、权限不足、存储故障都表现为拒绝 + 原因
func (s *PermissionService) CheckPermission(ctx context.Context, userID int64, accountName string, action model.PermissionAction) PermissionResult {
	rel, err := s.relationRepo.GetByUserAndAccount(ctx, userID, accountName)
	if err != nil {
		log.Printf("权限检查查询失败 user=%d account=%s: %v", userID, accountName, err)
		return PermissionResult{HasPermission: false, Reason: ReasonCheckError}
	}
	if rel == nil {
		return PermissionResult{HasPermission: false, Reason: ReasonNoRelation}
	}

	perms := rel.Permissions()
	result := PermissionResult{
		RelationType: rel.RelationType,
		Permissions:  &perms,
	}
	if !perms.Allows(action) {
		result.Reason = reasonLacksAction(action)
		return result
	}
	result.HasPermission = true
	return result
}

// IsOwner 判断用户是否为账号所有者，查询失败按非所有者处理
func (s *PermissionService) IsOwner(ctx context.Context, userID int64, accountName string) bool {
	rel, err := s.relationRepo.GetByUserAndAccount(ctx, userID, accountName)
	if err != nil {
		log.Printf("所有者检查查询失败 user=%d account=%s: %v", userID, accountName, err)
		return false
	}
	return rel != nil && rel.RelationType == model.RelationOwner
}

// CanRead 是否可读
func (s *PermissionService) CanRead(ctx context.Context, userID int64, accountName string) bool {
	return s.CheckPermission(ctx, userID, accountName, model.ActionRead).HasPermission
}

// CanWrite 是否可写
func (s *PermissionService) CanWrite(ctx context.Context, userID int64, accountName string) bool {
	return s.CheckPermission(ctx, userID, accountName, model.ActionWrite).HasPermission
}

// CanDelete 是否可删除
func (s *PermissionService) CanDelete(ctx context.Context, userID int64, accountName string) bool {
	return s.CheckPermission(ctx, userID, accountName, model.ActionDelete).HasPermission
}

// GetUserPermissions 权限自省，前端用来渲染"我在这个账号能做什么"
func (s *PermissionService) GetUserPermissions(ctx context.Context, userID int64, accountName string) PermissionResult {
	return s.CheckPermission(ctx, userID, accountName, model.ActionRead)
}

// BatchCheckPermissions 并发批量检查
// 每个账号名恰好产生一个结果条目，单条失败独立降级为拒绝
func (s *PermissionService) BatchCheckPermissions(ctx context.Context, userID int64, accountNames []string, action model.PermissionAction) map[string]PermissionResult {
	results := make(map[string]PermissionResult, len(accountNames))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, name := range accountNames {
		wg.Add(1)
		go func(accountName string) {
			defer wg.Done()
			result := s.CheckPermission(ctx, userID, accountName, action)
			mu.Lock()
			results[accountName] = result
			mu.Unlock()
		}(name)
	}
	wg.Wait()

	return results
}

// GetAccessibleAccounts 列出用户对指定动作有权限的全部账号名
// 查询失败返回空列表，不放行
func (s *PermissionService) GetAccessibleAccounts(ctx context.Context, userID int64, action model.PermissionAction) []string {
	rels, err := s.relationRepo.ListByUser(ctx, userID)
	if err != nil {
		log.Printf("可访问账号查询失败 user=%d: %v", userID, err)
		return []string{}
	}

	names := make([]string, 0, len(rels))
	for _, rel := range rels {
		if rel.Permissions().Allows(action) {
			names = append(names, rel.AccountName)
		}
	}
	return names
}

// ValidatePermission 强校验版本，权限不足时返回携带原因的错误
// 这是权限评估里唯一会硬失败的入口，给需要快速失败的调用方用
func (s *PermissionService) ValidatePermission(ctx context.Context, userID int64, accountName string, action model.PermissionAction) error {
	result := s.CheckPermission(ctx, userID, accountName, action)
	if !result.HasPermission {
		return fmt.Errorf("%w: %s", ErrPermissionDenied, result.Reason)
	}
	return nil
}

// ==================== 错误定义 ====================

var (
	// ErrPermissionDenied 调用者缺少该操作所需的权限或角色
	ErrPermissionDenied = errors.New("没有操作权限")
	// ErrNotOwner 只有所有者可以执行的操作
	ErrNotOwner = errors.New("只有账号所有者可以执行该操作")
)
