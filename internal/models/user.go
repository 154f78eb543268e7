package models

import (
	"time"

	"gorm.io/gorm"
)

// User 用户表（后台管理员、采购客户、合作商共用，按 Role 区分）
type User struct {
	ID                 uint           `gorm:"primarykey" json:"id"`                          // 主键
	Username           string         `gorm:"uniqueIndex;not null" json:"username"`          // 登录账号
	Email              string         `gorm:"uniqueIndex;not null" json:"email"`             // 邮箱
	PasswordHash       string         `gorm:"not null" json:"-"`                             // 密码哈希（不返回给前端）
	DisplayName        string         `gorm:"default:''" json:"display_name"`                // 显示名称
	Role               string         `gorm:"type:varchar(20);not null;index" json:"role"`   // 角色（admin/client/partner）
	Status             string         `gorm:"default:'active';index" json:"status"`          // 账号状态
	TokenVersion       uint64         `gorm:"not null;default:0" json:"-"`                   // Token 版本（用于全量失效）
	TokenInvalidBefore *time.Time     `gorm:"index" json:"-"`                                // 该时间点前签发的 Token 失效
	LastLoginAt        *time.Time     `json:"last_login_at"`                                 // 最后登录时间
	CreatedAt          time.Time      `gorm:"index" json:"created_at"`                       // 创建时间
	UpdatedAt          time.Time      `gorm:"index" json:"updated_at"`                       // 更新时间
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`                                // 软删除时间

	Structures []ClientStructure `gorm:"foreignKey:OwnerID" json:"structures,omitempty"` // 客户名下的收货场所
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

// ClientStructure 客户收货场所（酒店、B&B 等）
type ClientStructure struct {
	ID        uint      `gorm:"primarykey" json:"id"`                       // 主键
	OwnerID   uint      `gorm:"index;not null" json:"owner_id"`             // 所属客户ID
	Name      string    `gorm:"not null" json:"name"`                       // 场所名称
	Address   string    `gorm:"type:varchar(255)" json:"address"`           // 地址
	City      string    `gorm:"type:varchar(100)" json:"city"`              // 城市
	ZipCode   string    `gorm:"type:varchar(20)" json:"zip_code"`           // 邮编
	Country   string    `gorm:"type:varchar(100);default:'Italia'" json:"country"` // 国家
	Phone     string    `gorm:"type:varchar(50)" json:"phone"`              // 电话
	IsDefault bool      `gorm:"default:false" json:"is_default"`            // 是否默认收货场所
	CreatedAt time.Time `gorm:"index" json:"created_at"`                    // 创建时间
	UpdatedAt time.Time `json:"updated_at"`                                 // 更新时间
}

// TableName 指定表名
func (ClientStructure) TableName() string {
	return "client_structures"
}
