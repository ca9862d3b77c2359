package model

import "time"

// ==================== 周常进度 ====================

// 模板分类
const (
	TemplateCategoryDungeon = "dungeon" // 副本
	TemplateCategoryTask    = "task"    // 周常任务
)

// ProgressTemplate 周常进度模板，由管理员维护
type ProgressTemplate struct {
	BaseModel
	Name     string `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Category string `gorm:"size:20;default:'dungeon'" json:"category"`
	// 每周需完成次数，副本通常为 1，周常任务可能多次
	RequiredCount int  `gorm:"default:1" json:"required_count"`
	SortOrder     int  `gorm:"default:0" json:"sort_order"`
	IsActive      bool `gorm:"default:true" json:"is_active"`
}

func (ProgressTemplate) TableName() string {
	return "progress_templates"
}

// ProgressRecord 某共享账号对某模板的本周进度
// 每周重置任务会清零 CompletedCount / IsDone
type ProgressRecord struct {
	BaseModel
	AccountName string `gorm:"size:100;uniqueIndex:idx_account_template;not null" json:"account_name"`
	TemplateID  int64  `gorm:"uniqueIndex:idx_account_template;not null" json:"template_id"`

	CompletedCount int        `gorm:"default:0" json:"completed_count"`
	IsDone         bool       `gorm:"default:false" json:"is_done"`
	LastClearedAt  *time.Time `json:"last_cleared_at,omitempty"`
	// 最后一次记录进度的用户，便于多人协作时追溯
	LastUpdatedBy int64 `gorm:"default:0" json:"last_updated_by"`

	Template *ProgressTemplate `gorm:"foreignKey:TemplateID" json:"template,omitempty"`
}

func (ProgressRecord) TableName() string {
	return "progress_records"
}
