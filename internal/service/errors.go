package service

import "errors"

// 服务层哨兵错误，由 HTTP 层映射为响应码与文案
var (
	ErrNotFound           = errors.New("record not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserDisabled       = errors.New("user disabled")
	ErrWeakPassword       = errors.New("weak password")
	ErrInvalidPassword    = errors.New("invalid password")

	ErrOrderNotFound      = errors.New("order not found")
	ErrOrderEmpty         = errors.New("order has no purchasable items")
	ErrQuantityInvalid    = errors.New("invalid quantity")
	ErrOrderStatusInvalid = errors.New("invalid order status")
	ErrOrderStatusLocked  = errors.New("order status locked by liquidation")
	ErrOrderCancelLocked  = errors.New("order cannot be cancelled after liquidation")
	ErrStructureInvalid   = errors.New("structure does not belong to client")

	ErrProductNotFound  = errors.New("product not found")
	ErrProductInactive  = errors.New("product not available")
	ErrCategoryNotFound = errors.New("category not found")

	ErrPartnerNotFound      = errors.New("partner not found")
	ErrOrderItemNotFound    = errors.New("order item not found")
	ErrOrderItemLocked      = errors.New("order item locked by payout")
	ErrItemStatusInvalid    = errors.New("invalid order item status")
	ErrNotificationNotFound = errors.New("notification not found")

	ErrPayoutNotFound           = errors.New("payout not found")
	ErrPayoutPeriodInvalid      = errors.New("invalid payout period")
	ErrPayoutNothingToLiquidate = errors.New("nothing to liquidate in period")
	ErrPayoutStatusInvalid      = errors.New("invalid payout status transition")
)
