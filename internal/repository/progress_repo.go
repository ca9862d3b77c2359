package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"gametrack_v1_202601/internal/model"
)

// ==================== TemplateRepository 进度模板仓库 ====================

// TemplateRepository 进度模板仓库接口
type TemplateRepository interface {
	Create(ctx context.Context, tpl *model.ProgressTemplate) error
	GetByID(ctx context.Context, id int64) (*model.ProgressTemplate, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	Update(ctx context.Context, tpl *model.ProgressTemplate) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter TemplateFilter) ([]model.ProgressTemplate, int64, error)
	ListActive(ctx context.Context) ([]model.ProgressTemplate, error)
}

// TemplateFilter 模板筛选条件
type TemplateFilter struct {
	Keyword  string
	Category string
	Page     int
	PageSize int
}

type templateRepo struct {
	db *gorm.DB
}

// NewTemplateRepository 创建进度模板仓库
func NewTemplateRepository(db *gorm.DB) TemplateRepository {
	return &templateRepo{db: db}
}

func (r *templateRepo) Create(ctx context.Context, tpl *model.ProgressTemplate) error {
	return r.db.WithContext(ctx).Create(tpl).Error
}

func (r *templateRepo) GetByID(ctx context.Context, id int64) (*model.ProgressTemplate, error) {
	var tpl model.ProgressTemplate
	err := r.db.WithContext(ctx).First(&tpl, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tpl, nil
}

func (r *templateRepo) ExistsByName(ctx context.Context, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.ProgressTemplate{}).
		Where("name = ?", name).
		Count(&count).Error
	return count > 0, err
}

func (r *templateRepo) Update(ctx context.Context, tpl *model.ProgressTemplate) error {
	return r.db.WithContext(ctx).Save(tpl).Error
}

// Delete 删除模板及其所有进度记录
func (r *templateRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("template_id = ?", id).
			Delete(&model.ProgressRecord{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.ProgressTemplate{}, id).Error
	})
}

func (r *templateRepo) List(ctx context.Context, filter TemplateFilter) ([]model.ProgressTemplate, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.ProgressTemplate{})

	if filter.Keyword != "" {
		query = query.Where("name LIKE ?", "%"+filter.Keyword+"%")
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
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

	var tpls []model.ProgressTemplate
	err := query.
		Order("sort_order ASC, id ASC").
		Offset(offset).
		Limit(filter.PageSize).
		Find(&tpls).Error

	return tpls, total, err
}

func (r *templateRepo) ListActive(ctx context.Context) ([]model.ProgressTemplate, error) {
	var tpls []model.ProgressTemplate
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("sort_order ASC, id ASC").
		Find(&tpls).Error
	return tpls, err
}

// ==================== ProgressRepository 周常进度仓库 ====================

// ProgressRepository 周常进度仓库接口
type ProgressRepository interface {
	GetByAccountAndTemplate(ctx context.Context, accountName string, templateID int64) (*model.ProgressRecord, error)
	Save(ctx context.Context, record *model.ProgressRecord) error
	ListByAccount(ctx context.Context, accountName string) ([]model.ProgressRecord, error)
	DeleteByAccount(ctx context.Context, accountName string) error
	// ResetAll 周常重置：全表清零进度，由定时任务调用
	ResetAll(ctx context.Context) (int64, error)
}

type progressRepo struct {
	db *gorm.DB
}

// NewProgressRepository 创建周常进度仓库
func NewProgressRepository(db *gorm.DB) ProgressRepository {
	return &progressRepo{db: db}
}

func (r *progressRepo) GetByAccountAndTemplate(ctx context.Context, accountName string, templateID int64) (*model.ProgressRecord, error) {
	var record model.ProgressRecord
	err := r.db.WithContext(ctx).
		Where("account_name = ? AND template_id = ?", accountName, templateID).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *progressRepo) Save(ctx context.Context, record *model.ProgressRecord) error {
	return r.db.WithContext(ctx).Save(record).Error
}

func (r *progressRepo) ListByAccount(ctx context.Context, accountName string) ([]model.ProgressRecord, error) {
	var records []model.ProgressRecord
	err := r.db.WithContext(ctx).
		Preload("Template").
		Where("account_name = ?", accountName).
		Find(&records).Error
	return records, err
}

func (r *progressRepo) DeleteByAccount(ctx context.Context, accountName string) error {
	return r.db.WithContext(ctx).
		Where("account_name = ?", accountName).
		Delete(&model.ProgressRecord{}).Error
}

func (r *progressRepo) ResetAll(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.ProgressRecord{}).
		Where("completed_count > 0 OR is_done = ?", true).
		Updates(map[string]interface{}{
			"completed_count": 0,
			"is_done":         false,
			"updated_at":      time.Now(),
		})
	return result.RowsAffected, result.Error
}
