package model

import "time"

// 系统级角色
const (
	UserRoleAdmin = "admin" // 管理员，可维护进度模板
	UserRoleUser  = "user"  // 普通玩家
)

// SysUser 系统用户
type SysUser struct {
	BaseModel
	// 基础信息
	Username string `gorm:"size:100;uniqueIndex;not null" json:"username"`
	Password string `gorm:"size:255;not null" json:"-"` // 哈希密码
	Email    string `gorm:"size:100" json:"email"`

	// 系统级角色: admin (管理员), user (普通玩家)
	// 注意区分：这是系统的角色，UserAccountRelation 里的是账号内的角色
	Role string `gorm:"size:20;default:'user'" json:"role"`

	IsActive    bool       `gorm:"default:true" json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`

	// 查询用户在各账号的权限详情 (包含 RelationType)
	Relations []UserAccountRelation `gorm:"foreignKey:UserID" json:"relations,omitempty"`
}

func (SysUser) TableName() string {
	return "sys_users"
}
