package models

import (
	"time"
)

// Order 订单表。Total 恒等于 Subtotal 加 ShippingCost，下单与复制时重算
type Order struct {
	ID                 uint       `gorm:"primarykey" json:"id"`                                       // 主键
	ClientID           uint       `gorm:"index;not null" json:"client_id"`                            // 下单客户ID
	StructureID        *uint      `gorm:"index" json:"structure_id,omitempty"`                        // 收货场所ID
	Status             string     `gorm:"index;not null;default:'draft'" json:"status"`               // 订单状态
	PaymentMethod      string     `gorm:"type:varchar(30);default:'bank_transfer'" json:"payment_method"` // 支付方式
	PaymentReference   string     `gorm:"type:varchar(64);index" json:"payment_reference"`            // 付款参考号（银行转账备注）
	Subtotal           Money      `gorm:"type:decimal(10,2);not null;default:0" json:"subtotal"`      // 商品小计
	ShippingCost       Money      `gorm:"type:decimal(10,2);not null;default:0" json:"shipping_cost"` // 运费
	Total              Money      `gorm:"type:decimal(10,2);not null;default:0" json:"total"`         // 订单总额
	Notes              string     `gorm:"type:text" json:"notes"`                                     // 客户备注
	AdminNotes         string     `gorm:"type:text" json:"admin_notes"`                               // 后台备注（不受状态守卫限制）
	ReviewInviteSentAt *time.Time `gorm:"index" json:"review_invite_sent_at,omitempty"`               // 评价邀请发送时间
	CreatedAt          time.Time  `gorm:"index" json:"created_at"`                                    // 创建时间
	UpdatedAt          time.Time  `gorm:"index" json:"updated_at"`                                    // 更新时间

	// 关联
	Client    User             `gorm:"foreignKey:ClientID" json:"client,omitempty"`       // 下单客户
	Structure *ClientStructure `gorm:"foreignKey:StructureID" json:"structure,omitempty"` // 收货场所
	Items     []OrderItem      `gorm:"foreignKey:OrderID" json:"items,omitempty"`         // 订单行
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}

// OrderItem 订单行，同时是佣金台账分录。清算后 IsLiquidated 不可回退，
// 一行最多归属一张结算单
type OrderItem struct {
	ID               uint       `gorm:"primarykey" json:"id"`                                            // 主键
	OrderID          uint       `gorm:"index;not null" json:"order_id"`                                  // 订单ID
	ProductID        uint       `gorm:"index;not null" json:"product_id"`                                // 商品ID
	PartnerID        *uint      `gorm:"index" json:"partner_id,omitempty"`                               // 供货合作商ID（平台自营为空）
	PayoutID         *uint      `gorm:"index" json:"payout_id,omitempty"`                                // 归属结算单ID
	Quantity         int        `gorm:"not null" json:"quantity"`                                        // 数量
	UnitPrice        Money      `gorm:"type:decimal(10,2);not null;default:0" json:"unit_price"`         // 单价快照
	TotalPrice       Money      `gorm:"type:decimal(10,2);not null;default:0" json:"total_price"`        // 行小计
	CommissionRate   Money      `gorm:"type:decimal(5,2);not null;default:0" json:"commission_rate"`     // 佣金率快照（百分比）
	CommissionAmount Money      `gorm:"type:decimal(10,2);not null;default:0" json:"commission_amount"`  // 平台佣金
	PartnerEarnings  Money      `gorm:"type:decimal(10,2);not null;default:0" json:"partner_earnings"`   // 合作商应得
	PartnerStatus    string     `gorm:"type:varchar(20);index;not null;default:'pending'" json:"partner_status"` // 合作商处理状态
	IsLiquidated     bool       `gorm:"default:false;index" json:"is_liquidated"`                        // 是否已清算
	LiquidatedAt     *time.Time `json:"liquidated_at,omitempty"`                                         // 清算时间
	CreatedAt        time.Time  `gorm:"index" json:"created_at"`                                         // 创建时间
	UpdatedAt        time.Time  `gorm:"index" json:"updated_at"`                                         // 更新时间

	// 关联
	Product Product         `gorm:"foreignKey:ProductID" json:"product,omitempty"` // 商品信息
	Partner *PartnerProfile `gorm:"foreignKey:PartnerID" json:"partner,omitempty"` // 供货合作商
	Payout  *PartnerPayout  `gorm:"foreignKey:PayoutID" json:"payout,omitempty"`   // 归属结算单
}

// TableName 指定表名
func (OrderItem) TableName() string {
	return "order_items"
}

// OrderItemStatusLog 订单行状态变更审计记录
type OrderItemStatusLog struct {
	ID          uint      `gorm:"primarykey" json:"id"`               // 主键
	OrderItemID uint      `gorm:"index;not null" json:"order_item_id"` // 订单行ID
	OldStatus   string    `gorm:"type:varchar(20)" json:"old_status"` // 变更前状态
	NewStatus   string    `gorm:"type:varchar(20)" json:"new_status"` // 变更后状态
	ChangedByID *uint     `gorm:"index" json:"changed_by_id,omitempty"` // 操作人用户ID
	Note        string    `gorm:"type:varchar(255)" json:"note"`      // 备注
	CreatedAt   time.Time `gorm:"index" json:"created_at"`            // 创建时间
}

// TableName 指定表名
func (OrderItemStatusLog) TableName() string {
	return "order_item_status_logs"
}
