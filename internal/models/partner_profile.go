package models

import (
	"time"

	"gorm.io/gorm"
)

// PartnerProfile 合作商档案
type PartnerProfile struct {
	ID                       uint           `gorm:"primarykey" json:"id"`                                                   // 主键
	UserID                   uint           `gorm:"not null;uniqueIndex" json:"user_id"`                                    // 用户ID
	CompanyName              string         `gorm:"not null" json:"company_name"`                                           // 公司名称
	VatNumber                string         `gorm:"type:varchar(32)" json:"vat_number"`                                     // 增值税号
	Address                  string         `gorm:"type:varchar(255)" json:"address"`                                       // 地址
	City                     string         `gorm:"type:varchar(100)" json:"city"`                                          // 城市
	ZipCode                  string         `gorm:"type:varchar(20)" json:"zip_code"`                                       // 邮编
	Country                  string         `gorm:"type:varchar(100);default:'Italia'" json:"country"`                      // 国家
	Phone                    string         `gorm:"type:varchar(50)" json:"phone"`                                          // 电话
	DefaultCommissionPercent Money          `gorm:"type:decimal(5,2);not null;default:0" json:"default_commission_percent"` // 默认佣金率（百分比）
	IsActive                 bool           `gorm:"default:true;index" json:"is_active"`                                    // 是否启用
	CreatedAt                time.Time      `gorm:"index" json:"created_at"`                                                // 创建时间
	UpdatedAt                time.Time      `json:"updated_at"`                                                             // 更新时间
	DeletedAt                gorm.DeletedAt `gorm:"index" json:"-"`                                                         // 软删除时间

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"` // 用户信息
}

// TableName 指定表名
func (PartnerProfile) TableName() string {
	return "partner_profiles"
}

// PartnerCategoryCommission 合作商分类佣金率（优先级高于合作商默认佣金率）
type PartnerCategoryCommission struct {
	ID             uint      `gorm:"primarykey" json:"id"`                                                  // 主键
	PartnerID      uint      `gorm:"not null;uniqueIndex:idx_partner_category" json:"partner_id"`           // 合作商ID
	CategoryID     uint      `gorm:"not null;uniqueIndex:idx_partner_category" json:"category_id"`          // 分类ID
	CommissionRate Money     `gorm:"type:decimal(5,2);not null;default:0" json:"commission_rate"`           // 佣金率（百分比）
	CreatedAt      time.Time `gorm:"index" json:"created_at"`                                               // 创建时间
	UpdatedAt      time.Time `json:"updated_at"`                                                            // 更新时间

	Partner  PartnerProfile `gorm:"foreignKey:PartnerID" json:"partner,omitempty"`   // 合作商信息
	Category Category       `gorm:"foreignKey:CategoryID" json:"category,omitempty"` // 分类信息
}

// TableName 指定表名
func (PartnerCategoryCommission) TableName() string {
	return "partner_category_commissions"
}

// PartnerNotification 合作商站内通知
type PartnerNotification struct {
	ID        uint      `gorm:"primarykey" json:"id"`            // 主键
	PartnerID uint      `gorm:"index;not null" json:"partner_id"` // 合作商ID
	Title     string    `gorm:"not null" json:"title"`           // 标题
	Message   string    `gorm:"type:text" json:"message"`        // 内容
	LinkURL   string    `gorm:"type:varchar(500)" json:"link_url"` // 跳转链接
	IsRead    bool      `gorm:"default:false;index" json:"is_read"` // 是否已读
	CreatedAt time.Time `gorm:"index" json:"created_at"`         // 创建时间
}

// TableName 指定表名
func (PartnerNotification) TableName() string {
	return "partner_notifications"
}
