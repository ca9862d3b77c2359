package model

import (
	"time"
)

// ==================== 关系与权限定义 ====================

// RelationType 用户与共享账号的关系类型
type RelationType string

const (
	RelationOwner       RelationType = "owner"       // 所有者
	RelationContributor RelationType = "contributor" // 协作者
)

// PermissionAction 权限动作
type PermissionAction string

const (
	ActionRead   PermissionAction = "read"
	ActionWrite  PermissionAction = "write"
	ActionDelete PermissionAction = "delete"
)

// PermissionConfig 权限配置
// 三个开关独立存储，和 RelationType 解耦：
// contributor 也可以被单独授予 delete，owner 也可以被收回 write
type PermissionConfig struct {
	Read   bool `json:"read"`
	Write  bool `json:"write"`
	Delete bool `json:"delete"`
}

// Allows 判断该配置是否允许指定动作
// 未知动作一律视为不允许
func (p PermissionConfig) Allows(action PermissionAction) bool {
	switch action {
	case ActionRead:
		return p.Read
	case ActionWrite:
		return p.Write
	case ActionDelete:
		return p.Delete
	default:
		return false
	}
}

// DefaultPermissions 按关系类型返回默认权限
func DefaultPermissions(rt RelationType) PermissionConfig {
	if rt == RelationOwner {
		return PermissionConfig{Read: true, Write: true, Delete: true}
	}
	// contributor 默认可读可写，不可删除
	return PermissionConfig{Read: true, Write: true, Delete: false}
}

// ==================== SharedAccount 共享游戏账号 ====================

// SharedAccount 共享游戏账号
// 账号不属于单个用户，归属关系完全由 UserAccountRelation 表达，
// 本表不存任何 owner 指针
type SharedAccount struct {
	BaseModel
	// 账号名，创建者指定的全局唯一自然键
	AccountName string `gorm:"size:100;uniqueIndex;not null" json:"account_name"`
	DisplayName string `gorm:"size:100" json:"display_name"`
	ServerName  string `gorm:"size:100" json:"server_name"`
	// 软停用开关，与删除无关
	IsActive bool `gorm:"default:true" json:"is_active"`

	// 关联关系，查详情时 Preload
	Relations []UserAccountRelation `gorm:"foreignKey:AccountName;references:AccountName" json:"relations,omitempty"`
}

func (SharedAccount) TableName() string {
	return "shared_accounts"
}

// ==================== UserAccountRelation 用户-账号关联 ====================

// UserAccountRelation 用户与共享账号的关联关系及权限
// GORM 自定义连接表 (Join Table)
type UserAccountRelation struct {
	BaseModel
	// 联合唯一索引
	// 确保一个用户在一个账号里只有一条记录
	UserID      int64  `gorm:"index;uniqueIndex:idx_user_account;not null" json:"user_id"`
	AccountName string `gorm:"size:100;uniqueIndex:idx_user_account;not null" json:"account_name"`

	// 关系类型: owner, contributor
	RelationType RelationType `gorm:"size:20;default:'contributor'" json:"relation_type"`

	// 细粒度权限，展开为三列，默认值由 RelationType 决定但可单独覆盖
	CanRead   bool `gorm:"default:true" json:"can_read"`
	CanWrite  bool `gorm:"default:true" json:"can_write"`
	CanDelete bool `gorm:"default:false" json:"can_delete"`

	JoinedAt time.Time `json:"joined_at"`

	// 关联对象 (Belongs To)
	User *SysUser `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (UserAccountRelation) TableName() string {
	return "user_account_relations"
}

// Permissions 取出权限配置
func (r *UserAccountRelation) Permissions() PermissionConfig {
	return PermissionConfig{Read: r.CanRead, Write: r.CanWrite, Delete: r.CanDelete}
}

// SetPermissions 写回权限配置
func (r *UserAccountRelation) SetPermissions(p PermissionConfig) {
	r.CanRead = p.Read
	r.CanWrite = p.Write
	r.CanDelete = p.Delete
}
