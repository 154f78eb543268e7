package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/b2b-portale/internal/logger"
	"github.com/b2b-portale/internal/provider"
	"github.com/b2b-portale/internal/queue"

	"github.com/hibiken/asynq"
)

var errInvalidPeriod = errors.New("invalid rebuild period")

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskPayoutRebuild, c.handlePayoutRebuild)
	mux.HandleFunc(queue.TaskOrderReviewInvite, c.handleOrderReviewInvite)
}

func (c *Consumer) handlePayoutRebuild(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_payout_rebuild_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.PayoutRebuildPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_payout_rebuild_unmarshal_failed", "error", err)
		return err
	}
	start, end, err := parseRebuildPeriod(payload)
	if err != nil {
		logger.Warnw("worker_payout_rebuild_skip_invalid_period",
			"period_start", payload.PeriodStart,
			"period_end", payload.PeriodEnd,
			"error", err,
		)
		return nil
	}

	results, err := c.PayoutService.RebuildPeriodPayouts(start, end)
	if err != nil {
		logger.Warnw("worker_payout_rebuild_failed",
			"period_start", payload.PeriodStart,
			"period_end", payload.PeriodEnd,
			"error", err,
		)
		return err
	}

	logger.Infow("worker_payout_rebuild_completed",
		"period_start", payload.PeriodStart,
		"period_end", payload.PeriodEnd,
		"partner_count", len(results),
	)
	return nil
}

func (c *Consumer) handleOrderReviewInvite(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_order_review_invite_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderReviewInvitePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_review_invite_unmarshal_failed", "error", err)
		return err
	}

	scanAt := time.Now()
	if payload.ScanAt != "" {
		parsed, err := time.Parse(time.RFC3339, payload.ScanAt)
		if err != nil {
			logger.Debugw("worker_order_review_invite_bad_scan_at", "scan_at", payload.ScanAt, "error", err)
		} else {
			scanAt = parsed
		}
	}

	sent, err := c.OrderService.SendDueReviewInvites(scanAt)
	if err != nil {
		logger.Warnw("worker_order_review_invite_failed", "error", err)
		return err
	}
	if sent > 0 {
		logger.Infow("worker_order_review_invites_sent", "count", sent)
	}
	return nil
}

// parseRebuildPeriod 解析任务负载中的结算周期，终点不能早于起点
func parseRebuildPeriod(payload queue.PayoutRebuildPayload) (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01-02", payload.PeriodStart)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := time.Parse("2006-01-02", payload.PeriodEnd)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, errInvalidPeriod
	}
	return start, end, nil
}
