package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"gametrack_v1_202601/internal/model"
)

// ==================== 接口定义 ====================

// SharedAccountRepository 共享账号仓储接口
type SharedAccountRepository interface {
	Create(ctx context.Context, account *model.SharedAccount) error
	GetByName(ctx context.Context, accountName string) (*model.SharedAccount, error)
	GetByNameWithRelations(ctx context.Context, accountName string) (*model.SharedAccount, error)
	ExistsByName(ctx context.Context, accountName string) (bool, error)
	UpdateFields(ctx context.Context, accountName string, fields map[string]interface{}) error

	// 多行原子操作
	// 账号和首个 owner 关联要么同时落库要么同时回滚，系统里不允许出现无主账号
	CreateWithOwner(ctx context.Context, account *model.SharedAccount, ownerRel *model.UserAccountRelation) error
	// 先删关联再删账号，同一事务，不允许出现指向已删账号的残留关联
	DeleteWithRelations(ctx context.Context, accountName string) error

	// 列表查询
	ListForUser(ctx context.Context, filter AccountFilter) ([]AccountWithStats, int64, error)
}

// AccountFilter 账号列表过滤条件
type AccountFilter struct {
	UserID          int64
	Keyword         string // 模糊匹配 account_name / display_name / server_name
	IncludeInactive bool
	Page            int
	PageSize        int
}

// AccountWithStats 列表行：账号 + 调用者的关系类型 + 成员数
type AccountWithStats struct {
	model.SharedAccount
	RelationType model.RelationType `gorm:"column:relation_type" json:"relation_type"`
	UserCount    int64              `gorm:"column:user_count" json:"user_count"`
}

// ==================== 仓储实现 ====================

type sharedAccountRepo struct {
	db *gorm.DB
}

// NewSharedAccountRepository 创建共享账号仓储
func NewSharedAccountRepository(db *gorm.DB) SharedAccountRepository {
	return &sharedAccountRepo{db: db}
}

func (r *sharedAccountRepo) Create(ctx context.Context, account *model.SharedAccount) error {
	return r.db.WithContext(ctx).Create(account).Error
}

// GetByName 按账号名查询，不存在返回 nil, nil
func (r *sharedAccountRepo) GetByName(ctx context.Context, accountName string) (*model.SharedAccount, error) {
	var account model.SharedAccount
	err := r.db.WithContext(ctx).
		Where("account_name = ?", accountName).
		First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// GetByNameWithRelations 查询账号及全部成员关联（含用户信息）
func (r *sharedAccountRepo) GetByNameWithRelations(ctx context.Context, accountName string) (*model.SharedAccount, error) {
	var account model.SharedAccount
	err := r.db.WithContext(ctx).
		Preload("Relations", func(db *gorm.DB) *gorm.DB {
			return db.Order("joined_at ASC, id ASC")
		}).
		Preload("Relations.User").
		Where("account_name = ?", accountName).
		First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *sharedAccountRepo) ExistsByName(ctx context.Context, accountName string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.SharedAccount{}).
		Where("account_name = ?", accountName).
		Count(&count).Error
	return count > 0, err
}

func (r *sharedAccountRepo) UpdateFields(ctx context.Context, accountName string, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&model.SharedAccount{}).
		Where("account_name = ?", accountName).
		Updates(fields).Error
}

func (r *sharedAccountRepo) CreateWithOwner(ctx context.Context, account *model.SharedAccount, ownerRel *model.UserAccountRelation) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(account).Error; err != nil {
			return err
		}
		ownerRel.AccountName = account.AccountName
		return tx.Create(ownerRel).Error
	})
}

func (r *sharedAccountRepo) DeleteWithRelations(ctx context.Context, accountName string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("account_name = ?", accountName).
			Delete(&model.UserAccountRelation{}).Error; err != nil {
			return err
		}
		if err := tx.Where("account_name = ?", accountName).
			Delete(&model.ProgressRecord{}).Error; err != nil {
			return err
		}
		return tx.Where("account_name = ?", accountName).
			Delete(&model.SharedAccount{}).Error
	})
}

// ListForUser 查询用户可见的账号列表
// 内连接调用者自己的关联行：没有关联的账号不可见，而不是不可访问
func (r *sharedAccountRepo) ListForUser(ctx context.Context, filter AccountFilter) ([]AccountWithStats, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&model.SharedAccount{}).
		Joins("INNER JOIN user_account_relations rel ON rel.account_name = shared_accounts.account_name AND rel.user_id = ?",
			filter.UserID)

	if !filter.IncludeInactive {
		query = query.Where("shared_accounts.is_active = ?", true)
	}

	// 关键词搜索，大小写不敏感，OR 组合三个字段
	if filter.Keyword != "" {
		keyword := "%" + strings.ToLower(filter.Keyword) + "%"
		query = query.Where(
			"LOWER(shared_accounts.account_name) LIKE ? OR LOWER(shared_accounts.display_name) LIKE ? OR LOWER(shared_accounts.server_name) LIKE ?",
			keyword, keyword, keyword,
		)
	}

	// 统计总数
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// 分页
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize

	var rows []AccountWithStats
	err := query.
		Select("shared_accounts.*, rel.relation_type AS relation_type, " +
			"(SELECT COUNT(*) FROM user_account_relations r2 WHERE r2.account_name = shared_accounts.account_name) AS user_count").
		Order("shared_accounts.updated_at DESC").
		Offset(offset).
		Limit(filter.PageSize).
		Scan(&rows).Error

	return rows, total, err
}
