package constants

// 订单状态常量，声明顺序即状态推进顺序
const (
	OrderStatusDraft          = "draft"
	OrderStatusPendingPayment = "pending_payment"
	OrderStatusPaid           = "paid"
	OrderStatusProcessing     = "processing"
	OrderStatusShipped        = "shipped"
	OrderStatusCompleted      = "completed"
	OrderStatusCancelled      = "cancelled"
)

// 订单行合作商处理状态常量
const (
	ItemStatusPending    = "pending"
	ItemStatusAccepted   = "accepted"
	ItemStatusInProgress = "in_progress"
	ItemStatusShipped    = "shipped"
	ItemStatusCompleted  = "completed"
	ItemStatusRejected   = "rejected"
)

// 结算单状态常量
const (
	PayoutStatusDraft     = "draft"
	PayoutStatusConfirmed = "confirmed"
	PayoutStatusPaid      = "paid"
)

// 用户角色常量
const (
	RoleAdmin   = "admin"
	RoleClient  = "client"
	RolePartner = "partner"
)

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 支付方式常量（线下银行转账为主）
const (
	PaymentMethodBankTransfer = "bank_transfer"
	PaymentMethodOnDelivery   = "on_delivery"
)

// 商品计价单位常量
const (
	ProductUnitPerKit   = "per_kit"
	ProductUnitPerPiece = "per_piece"
	ProductUnitPerNight = "per_night"
)

// 队列常量
const (
	QueueDefault          = "default"
	TaskPayoutRebuild     = "payout:rebuild_period"
	TaskOrderReviewInvite = "order:review_invite"
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "ptl"
)
