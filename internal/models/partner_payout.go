package models

import (
	"time"
)

// PartnerPayout 合作商结算单。PaidAt 一经写入不再改变，
// 状态只能沿 draft → confirmed → paid 前进
type PartnerPayout struct {
	ID              uint       `gorm:"primarykey" json:"id"`                                           // 主键
	PartnerID       uint       `gorm:"index;not null" json:"partner_id"`                               // 合作商ID
	PeriodStart     time.Time  `gorm:"index;not null" json:"period_start"`                             // 结算期起始日
	PeriodEnd       time.Time  `gorm:"index;not null" json:"period_end"`                               // 结算期结束日（含当日）
	TotalCommission Money      `gorm:"type:decimal(10,2);not null;default:0" json:"total_commission"`  // 结算总额
	Status          string     `gorm:"type:varchar(20);index;not null;default:'draft'" json:"status"`  // 结算单状态
	Notes           string     `gorm:"type:text" json:"notes"`                                         // 备注
	PaymentReceipt  string     `gorm:"type:varchar(500)" json:"payment_receipt"`                       // 付款凭证
	PaidAt          *time.Time `gorm:"index" json:"paid_at,omitempty"`                                 // 付款时间
	CreatedAt       time.Time  `gorm:"index" json:"created_at"`                                        // 创建时间
	UpdatedAt       time.Time  `gorm:"index" json:"updated_at"`                                        // 更新时间

	// 关联
	Partner PartnerProfile `gorm:"foreignKey:PartnerID" json:"partner,omitempty"` // 合作商信息
	Items   []OrderItem    `gorm:"foreignKey:PayoutID" json:"items,omitempty"`    // 归属订单行
}

// TableName 指定表名
func (PartnerPayout) TableName() string {
	return "partner_payouts"
}
