package models

import (
	"time"

	"gorm.io/gorm"
)

// Product 商品表（实物商品或服务）
type Product struct {
	ID                    uint           `gorm:"primarykey" json:"id"`                                           // 主键
	CategoryID            uint           `gorm:"not null;index" json:"category_id"`                              // 分类ID
	SupplierID            *uint          `gorm:"index" json:"supplier_id,omitempty"`                             // 供货合作商ID（平台自营为空）
	Slug                  string         `gorm:"uniqueIndex;not null" json:"slug"`                               // 唯一标识
	Name                  string         `gorm:"not null" json:"name"`                                           // 商品名称
	ShortDescription      string         `gorm:"type:varchar(500)" json:"short_description"`                     // 简介
	Description           string         `gorm:"type:text" json:"description"`                                   // 详情
	IsService             bool           `gorm:"default:false" json:"is_service"`                                // 是否服务类商品
	BasePrice             Money          `gorm:"type:decimal(10,2);not null;default:0" json:"base_price"`        // 基准单价
	Unit                  string         `gorm:"type:varchar(20);not null;default:'per_piece'" json:"unit"`      // 计价单位
	PartnerCommissionRate *Money         `gorm:"type:decimal(5,2)" json:"partner_commission_rate,omitempty"`     // 商品级佣金率覆盖（为空表示未设置）
	IsActive              bool           `gorm:"default:true;index" json:"is_active"`                            // 是否上架
	SortOrder             int            `gorm:"default:0;index" json:"sort_order"`                              // 排序权重
	CreatedAt             time.Time      `gorm:"index" json:"created_at"`                                        // 创建时间
	UpdatedAt             time.Time      `json:"updated_at"`                                                     // 更新时间
	DeletedAt             gorm.DeletedAt `gorm:"index" json:"-"`                                                 // 软删除时间

	// 关联
	Category Category        `gorm:"foreignKey:CategoryID" json:"category,omitempty"` // 分类信息
	Supplier *PartnerProfile `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"` // 供货合作商
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}
