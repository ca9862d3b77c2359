package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"gametrack_v1_202601/internal/model"
)

// ==================== 接口定义 ====================

// RelationRepository 用户-账号关联仓储接口
// (user_id, account_name) 由联合唯一索引保证唯一，
// 并发重复插入由数据库层裁决，仓储不做额外串行化
type RelationRepository interface {
	Create(ctx context.Context, rel *model.UserAccountRelation) error
	GetByUserAndAccount(ctx context.Context, userID int64, accountName string) (*model.UserAccountRelation, error)
	ListByUser(ctx context.Context, userID int64) ([]model.UserAccountRelation, error)
	ListByAccount(ctx context.Context, accountName string, filter RelationFilter) ([]model.UserAccountRelation, int64, error)
	CountByAccount(ctx context.Context, accountName string) (int64, error)
	CountOwners(ctx context.Context, accountName string) (int64, error)
	Update(ctx context.Context, rel *model.UserAccountRelation) error
	Delete(ctx context.Context, userID int64, accountName string) error
	DeleteByAccount(ctx context.Context, accountName string) error

	// 事务支持，fn 内拿到的是绑定了同一事务的仓储
	WithTx(tx *gorm.DB) RelationRepository
	Transaction(ctx context.Context, fn func(txRepo RelationRepository) error) error
}

// RelationFilter 关联列表过滤条件
type RelationFilter struct {
	Keyword  string // 匹配用户 ID 或用户名
	Page     int
	PageSize int
}

// IsDuplicateKeyError 判断是否唯一索引冲突
// 并发加入同一账号时，落败的一方会拿到这个错误
func IsDuplicateKeyError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// 部分驱动不走 gorm 的错误翻译，兜底匹配
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique failed")
}

// ==================== 仓储实现 ====================

type relationRepo struct {
	db *gorm.DB
}

// NewRelationRepository 创建关联仓储
func NewRelationRepository(db *gorm.DB) RelationRepository {
	return &relationRepo{db: db}
}

func (r *relationRepo) Create(ctx context.Context, rel *model.UserAccountRelation) error {
	return r.db.WithContext(ctx).Create(rel).Error
}

// GetByUserAndAccount 查唯一关联行，不存在返回 nil, nil
func (r *relationRepo) GetByUserAndAccount(ctx context.Context, userID int64, accountName string) (*model.UserAccountRelation, error) {
	var rel model.UserAccountRelation
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND account_name = ?", userID, accountName).
		First(&rel).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rel, nil
}

func (r *relationRepo) ListByUser(ctx context.Context, userID int64) ([]model.UserAccountRelation, error) {
	var rels []model.UserAccountRelation
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&rels).Error
	return rels, err
}

// ListByAccount 账号成员列表，按加入时间升序（最早的成员在前）
func (r *relationRepo) ListByAccount(ctx context.Context, accountName string, filter RelationFilter) ([]model.UserAccountRelation, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&model.UserAccountRelation{}).
		Where("user_account_relations.account_name = ?", accountName)

	// 关键词搜索：用户 ID 或用户名
	if filter.Keyword != "" {
		keyword := "%" + filter.Keyword + "%"
		query = query.
			Joins("LEFT JOIN sys_users ON sys_users.id = user_account_relations.user_id").
			Where("CAST(user_account_relations.user_id AS TEXT) LIKE ? OR sys_users.username LIKE ?", keyword, keyword)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize

	var rels []model.UserAccountRelation
	err := query.
		Preload("User").
		Order("user_account_relations.joined_at ASC, user_account_relations.id ASC").
		Offset(offset).
		Limit(filter.PageSize).
		Find(&rels).Error

	return rels, total, err
}

func (r *relationRepo) CountByAccount(ctx context.Context, accountName string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.UserAccountRelation{}).
		Where("account_name = ?", accountName).
		Count(&count).Error
	return count, err
}

// CountOwners 统计账号当前 owner 数，最后所有者保护依赖这个计数
func (r *relationRepo) CountOwners(ctx context.Context, accountName string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.UserAccountRelation{}).
		Where("account_name = ? AND relation_type = ?", accountName, model.RelationOwner).
		Count(&count).Error
	return count, err
}

func (r *relationRepo) Update(ctx context.Context, rel *model.UserAccountRelation) error {
	return r.db.WithContext(ctx).Save(rel).Error
}

func (r *relationRepo) Delete(ctx context.Context, userID int64, accountName string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND account_name = ?", userID, accountName).
		Delete(&model.UserAccountRelation{}).Error
}

func (r *relationRepo) DeleteByAccount(ctx context.Context, accountName string) error {
	return r.db.WithContext(ctx).
		Where("account_name = ?", accountName).
		Delete(&model.UserAccountRelation{}).Error
}

func (r *relationRepo) WithTx(tx *gorm.DB) RelationRepository {
	return &relationRepo{db: tx}
}

func (r *relationRepo) Transaction(ctx context.Context, fn func(txRepo RelationRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}
