package service

import (
	"strings"

	"github.com/b2b-portale/internal/constants"
)

// orderStatusOrder 订单状态推进顺序，下标即为状态序号
var orderStatusOrder = []string{
	constants.OrderStatusDraft,
	constants.OrderStatusPendingPayment,
	constants.OrderStatusPaid,
	constants.OrderStatusProcessing,
	constants.OrderStatusShipped,
	constants.OrderStatusCompleted,
	constants.OrderStatusCancelled,
}

var orderStatusRank = buildOrderStatusRank()

func buildOrderStatusRank() map[string]int {
	rank := make(map[string]int, len(orderStatusOrder))
	for i, status := range orderStatusOrder {
		rank[status] = i
	}
	return rank
}

// IsValidOrderStatus 判断订单状态是否合法
func IsValidOrderStatus(status string) bool {
	_, ok := orderStatusRank[strings.TrimSpace(status)]
	return ok
}

// ValidateOrderStatusChange 校验订单状态变更。
// locked 表示订单已有清算或已打款结算单的订单行：此时不允许取消，
// 也不允许回退到序号更低的状态。相同状态视为无操作，始终允许。
func ValidateOrderStatusChange(current, target string, locked bool) error {
	current = strings.TrimSpace(current)
	target = strings.TrimSpace(target)

	targetRank, ok := orderStatusRank[target]
	if !ok {
		return ErrOrderStatusInvalid
	}
	if target == current || !locked {
		return nil
	}
	if target == constants.OrderStatusCancelled {
		return ErrOrderCancelLocked
	}
	if currentRank, ok := orderStatusRank[current]; ok && targetRank < currentRank {
		return ErrOrderStatusLocked
	}
	return nil
}

// 订单行合作商状态集合
var partnerItemStatuses = map[string]bool{
	constants.ItemStatusPending:    true,
	constants.ItemStatusAccepted:   true,
	constants.ItemStatusInProgress: true,
	constants.ItemStatusShipped:    true,
	constants.ItemStatusCompleted:  true,
	constants.ItemStatusRejected:   true,
}

// IsValidItemStatus 判断订单行合作商状态是否合法
func IsValidItemStatus(status string) bool {
	return partnerItemStatuses[strings.TrimSpace(status)]
}

// 结算单状态只能前进：draft → confirmed → paid
var allowedPayoutTransitions = map[string]map[string]bool{
	constants.PayoutStatusDraft: {
		constants.PayoutStatusConfirmed: true,
		constants.PayoutStatusPaid:      true,
	},
	constants.PayoutStatusConfirmed: {
		constants.PayoutStatusPaid: true,
	},
	constants.PayoutStatusPaid: {},
}

// CanTransitionPayoutStatus 校验结算单状态迁移是否允许，
// 相同状态视为无操作
func CanTransitionPayoutStatus(current, target string) bool {
	current = strings.TrimSpace(current)
	target = strings.TrimSpace(target)
	if current == target {
		return allowedPayoutTransitions[current] != nil
	}
	allowed, ok := allowedPayoutTransitions[current]
	if !ok {
		return false
	}
	return allowed[target]
}
