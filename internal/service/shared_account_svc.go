package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gametrack_v1_202601/internal/api/dto"
	"gametrack_v1_202601/internal/model"
	"gametrack_v1_202601/internal/repository"
)

// ==================== SharedAccountService 共享账号服务 ====================

// SharedAccountService 共享账号及成员关系管理
// 所有写操作先过权限门禁再落库，涉及多行的写操作走事务
type SharedAccountService struct {
	accountRepo  repository.SharedAccountRepository
	relationRepo repository.RelationRepository
	userRepo     repository.UserRepository
	permSvc      *PermissionService
}

// NewSharedAccountService 创建共享账号服务
func NewSharedAccountService(
	accountRepo repository.SharedAccountRepository,
	relationRepo repository.RelationRepository,
	userRepo repository.UserRepository,
	permSvc *PermissionService,
) *SharedAccountService {
	return &SharedAccountService{
		accountRepo:  accountRepo,
		relationRepo: relationRepo,
		userRepo:     userRepo,
		permSvc:      permSvc,
	}
}

// ==================== 账号生命周期 ====================

// CreateSharedAccount 创建共享账号
// 账号行和创建者的 owner 关联行在同一事务内写入，
// 任何时刻都观察不到没有任何关联的账号
func (s *SharedAccountService) CreateSharedAccount(ctx context.Context, req *dto.AccountCreateReq, creatorUserID int64) (*model.SharedAccount, error) {
	exists, err := s.accountRepo.ExistsByName(ctx, req.AccountName)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAccountExists
	}

	account := &model.SharedAccount{
		AccountName: req.AccountName,
		DisplayName: req.DisplayName,
		ServerName:  req.ServerName,
		IsActive:    true,
	}
	perms := model.DefaultPermissions(model.RelationOwner)
	ownerRel := &model.UserAccountRelation{
		UserID:       creatorUserID,
		RelationType: model.RelationOwner,
		JoinedAt:     time.Now(),
	}
	ownerRel.SetPermissions(perms)

	if err := s.accountRepo.CreateWithOwner(ctx, account, ownerRel); err != nil {
		// 并发创建同名账号时，预检查可能双双通过，由唯一索引裁决
		if repository.IsDuplicateKeyError(err) {
			return nil, ErrAccountExists
		}
		return nil, err
	}
	return account, nil
}

// GetUserAccessibleAccounts 查询用户可见的账号列表
// 可见性由关联行决定：没有关联的账号在列表里不存在，而不是返回无权限
func (s *SharedAccountService) GetUserAccessibleAccounts(ctx context.Context, userID int64, req *dto.AccountListReq) (*dto.AccountListResp, error) {
	page, pageSize := normalizePage(req.Page, req.PageSize)
	rows, total, err := s.accountRepo.ListForUser(ctx, repository.AccountFilter{
		UserID:          userID,
		Keyword:         req.Keyword,
		IncludeInactive: req.IncludeInactive,
		Page:            page,
		PageSize:        pageSize,
	})
	if err != nil {
		return nil, err
	}
	return &dto.AccountListResp{
		List:       rows,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: dto.TotalPages(total, pageSize),
	}, nil
}

// GetSharedAccountDetail 账号详情，含全部成员
// 先查权限再查账号：对不存在的账号不可能有关联，所以无关联和不存在
// 统一表现为没有权限，不向无关调用者泄露账号是否存在
func (s *SharedAccountService) GetSharedAccountDetail(ctx context.Context, accountName string, userID int64) (*dto.AccountDetailResp, error) {
	if !s.permSvc.CanRead(ctx, userID, accountName) {
		return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, reasonLacksAction(model.ActionRead))
	}

	account, err := s.accountRepo.GetByNameWithRelations(ctx, accountName)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}

	return &dto.AccountDetailResp{
		SharedAccount: account,
		UserCount:     len(account.Relations),
	}, nil
}

// UpdateSharedAccount 部分更新账号属性，需要写权限
func (s *SharedAccountService) UpdateSharedAccount(ctx context.Context, accountName string, req *dto.AccountUpdateReq, userID int64) (*model.SharedAccount, error) {
	if !s.permSvc.CanWrite(ctx, userID, accountName) {
		return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, reasonLacksAction(model.ActionWrite))
	}

	account, err := s.accountRepo.GetByName(ctx, accountName)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}

	// 只更新传入的字段
	fields := map[string]interface{}{}
	if req.DisplayName != nil {
		fields["display_name"] = *req.DisplayName
		account.DisplayName = *req.DisplayName
	}
	if req.ServerName != nil {
		fields["server_name"] = *req.ServerName
		account.ServerName = *req.ServerName
	}
	if req.IsActive != nil {
		fields["is_active"] = *req.IsActive
		account.IsActive = *req.IsActive
	}
	if len(fields) == 0 {
		return account, nil
	}
	fields["updated_at"] = time.Now()

	if err := s.accountRepo.UpdateFields(ctx, accountName, fields); err != nil {
		return nil, err
	}
	return account, nil
}

// DeleteSharedAccount 硬删除账号及其全部关联和进度，需要删除权限
func (s *SharedAccountService) DeleteSharedAccount(ctx context.Context, accountName string, userID int64) error {
	if !s.permSvc.CanDelete(ctx, userID, accountName) {
		return fmt.Errorf("%w: %s", ErrPermissionDenied, reasonLacksAction(model.ActionDelete))
	}

	account, err := s.accountRepo.GetByName(ctx, accountName)
	if err != nil {
		return err
	}
	if account == nil {
		return ErrAccountNotFound
	}

	return s.accountRepo.DeleteWithRelations(ctx, accountName)
}

// ==================== 成员管理 ====================

// AddUserToAccount 添加成员，仅所有者可操作
// 有写权限的 contributor 也不行，加人属于成员管理而非账号编辑
func (s *SharedAccountService) AddUserToAccount(ctx context.Context, accountName string, req *dto.AddUserReq, operatorUserID int64) (*model.UserAccountRelation, error) {
	if !s.permSvc.IsOwner(ctx, operatorUserID, accountName) {
		return nil, ErrNotOwner
	}

	account, err := s.accountRepo.GetByName(ctx, accountName)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}

	targetUser, err := s.userRepo.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if targetUser == nil {
		return nil, ErrUserNotFound
	}

	existing, err := s.relationRepo.GetByUserAndAccount(ctx, req.UserID, accountName)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrRelationExists
	}

	relationType := model.RelationContributor
	if req.RelationType != "" {
		relationType = model.RelationType(req.RelationType)
	}

	// 先取关系类型的默认权限，再按字段套用调用者传入的覆盖值
	perms := req.Permissions.Merge(model.DefaultPermissions(relationType))

	rel := &model.UserAccountRelation{
		UserID:       req.UserID,
		AccountName:  accountName,
		RelationType: relationType,
		JoinedAt:     time.Now(),
	}
	rel.SetPermissions(perms)

	if err := s.relationRepo.Create(ctx, rel); err != nil {
		// 并发加入同一账号时由唯一索引裁决，恰好一方成功
		if repository.IsDuplicateKeyError(err) {
			return nil, ErrRelationExists
		}
		return nil, err
	}
	rel.User = targetUser
	return rel, nil
}

// RemoveUserFromAccount 移除成员
// 所有者可以移除任何成员；任何成员都可以把自己移出账号。
// 最后所有者保护：owner 计数在删除事务内部重查，
// 避免两个并发移除都看到计数为 2 然后把账号删成无主
func (s *SharedAccountService) RemoveUserFromAccount(ctx context.Context, accountName string, targetUserID, operatorUserID int64) error {
	if operatorUserID != targetUserID && !s.permSvc.IsOwner(ctx, operatorUserID, accountName) {
		return fmt.Errorf("%w: 只有所有者可以移除其他成员", ErrPermissionDenied)
	}

	return s.relationRepo.Transaction(ctx, func(txRepo repository.RelationRepository) error {
		rel, err := txRepo.GetByUserAndAccount(ctx, targetUserID, accountName)
		if err != nil {
			return err
		}
		if rel == nil {
			return ErrRelationNotFound
		}

		if rel.RelationType == model.RelationOwner {
			ownerCount, err := txRepo.CountOwners(ctx, accountName)
			if err != nil {
				return err
			}
			if ownerCount <= 1 {
				return ErrLastOwner
			}
		}

		return txRepo.Delete(ctx, targetUserID, accountName)
	})
}

// UpdateUserPermissions 更新成员权限，仅所有者可操作
// 只合并权限开关，不改变关系类型：收回 owner 的 delete 不等于降级为 contributor
func (s *SharedAccountService) UpdateUserPermissions(ctx context.Context, accountName string, targetUserID int64, req *dto.PermissionReq, operatorUserID int64) (*model.UserAccountRelation, error) {
	if !s.permSvc.IsOwner(ctx, operatorUserID, accountName) {
		return nil, ErrNotOwner
	}

	rel, err := s.relationRepo.GetByUserAndAccount(ctx, targetUserID, accountName)
	if err != nil {
		return nil, err
	}
	if rel == nil {
		return nil, ErrRelationNotFound
	}

	rel.SetPermissions(req.Merge(rel.Permissions()))
	if err := s.relationRepo.Update(ctx, rel); err != nil {
		return nil, err
	}
	return rel, nil
}

// GetAccountUsers 成员列表，需要读权限，按加入时间升序
func (s *SharedAccountService) GetAccountUsers(ctx context.Context, accountName string, userID int64, req *dto.AccountUserListReq) (*dto.AccountUserListResp, error) {
	if !s.permSvc.CanRead(ctx, userID, accountName) {
		return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, reasonLacksAction(model.ActionRead))
	}

	page, pageSize := normalizePage(req.Page, req.PageSize)
	rels, total, err := s.relationRepo.ListByAccount(ctx, accountName, repository.RelationFilter{
		Keyword:  req.Keyword,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return nil, err
	}
	return &dto.AccountUserListResp{
		List:       rels,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: dto.TotalPages(total, pageSize),
	}, nil
}

// ==================== 辅助方法 ====================

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}

// ==================== 错误定义 ====================

var (
	ErrAccountNotFound  = errors.New("共享账号不存在")
	ErrAccountExists    = errors.New("账号名已存在")
	ErrRelationExists   = errors.New("用户已加入该账号")
	ErrRelationNotFound = errors.New("用户未关联该账号")
	ErrLastOwner        = errors.New("不能移除最后一个所有者")
)
