package queue

import (
	"encoding/json"

	"github.com/b2b-portale/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskPayoutRebuild 周期性结算单重建任务
	TaskPayoutRebuild = constants.TaskPayoutRebuild
	// TaskOrderReviewInvite 订单评价邀请任务
	TaskOrderReviewInvite = constants.TaskOrderReviewInvite
)

// PayoutRebuildPayload 结算单重建任务载荷，日期格式 2006-01-02
type PayoutRebuildPayload struct {
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`
}

// OrderReviewInvitePayload 评价邀请任务载荷
type OrderReviewInvitePayload struct {
	ScanAt string `json:"scan_at"`
}

// NewPayoutRebuildTask 创建结算单重建任务
func NewPayoutRebuildTask(payload PayoutRebuildPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPayoutRebuild, body), nil
}

// NewOrderReviewInviteTask 创建评价邀请任务
func NewOrderReviewInviteTask(payload OrderReviewInvitePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderReviewInvite, body), nil
}
