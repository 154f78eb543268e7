package admin

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/b2b-portale/internal/http/response"
	"github.com/b2b-portale/internal/queue"
	"github.com/b2b-portale/internal/repository"
	"github.com/b2b-portale/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
)

const payoutPeriodLayout = "2006-01-02"

// AdminBuildPayoutRequest 建立/累加结算草稿请求
type AdminBuildPayoutRequest struct {
	PartnerID   uint   `json:"partner_id" binding:"required"`
	PeriodStart string `json:"period_start" binding:"required"`
	PeriodEnd   string `json:"period_end" binding:"required"`
	Notes       string `json:"notes"`
}

// AdminRebuildPayoutsRequest 周期性重建结算单请求
type AdminRebuildPayoutsRequest struct {
	PeriodStart string `json:"period_start" binding:"required"`
	PeriodEnd   string `json:"period_end" binding:"required"`
}

// AdminPayoutStatusRequest 结算单状态更新请求
type AdminPayoutStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// AdminPayoutDetailsRequest 结算单备注与凭证更新请求
type AdminPayoutDetailsRequest struct {
	Notes          *string `json:"notes"`
	PaymentReceipt *string `json:"payment_receipt"`
}

func parsePayoutPeriod(startRaw, endRaw string) (time.Time, time.Time, error) {
	start, err := time.Parse(payoutPeriodLayout, strings.TrimSpace(startRaw))
	if err != nil {
		return time.Time{}, time.Time{}, service.ErrPayoutPeriodInvalid
	}
	end, err := time.Parse(payoutPeriodLayout, strings.TrimSpace(endRaw))
	if err != nil {
		return time.Time{}, time.Time{}, service.ErrPayoutPeriodInvalid
	}
	return start, end, nil
}

// AdminListPayouts 管理端结算单列表
func (h *Handler) AdminListPayouts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	status := strings.TrimSpace(c.Query("status"))
	var partnerID uint
	if raw := strings.TrimSpace(c.Query("partner_id")); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 64); err == nil {
			partnerID = uint(parsed)
		}
	}
	periodFrom, err := parseTimeNullable(c.Query("period_from"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	periodTo, err := parseTimeNullable(c.Query("period_to"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	payouts, total, err := h.PayoutService.ListPayouts(repository.PayoutListFilter{
		Page:       page,
		PageSize:   pageSize,
		PartnerID:  partnerID,
		Status:     status,
		PeriodFrom: periodFrom,
		PeriodTo:   periodTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}

	response.SuccessWithPage(c, payouts, response.NewPagination(page, pageSize, total))
}

// AdminGetPayout 管理端结算单详情
func (h *Handler) AdminGetPayout(c *gin.Context) {
	payoutID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	payout, err := h.PayoutService.GetPayout(payoutID)
	if err != nil {
		if errors.Is(err, service.ErrPayoutNotFound) {
			respondError(c, response.CodeNotFound, "error.payout_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, payout)
}

// AdminListPayoutItems 管理端结算单佣金行列表
func (h *Handler) AdminListPayoutItems(c *gin.Context) {
	payoutID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	items, total, err := h.PayoutService.ListPayoutItems(payoutID, page, pageSize)
	if err != nil {
		if errors.Is(err, service.ErrPayoutNotFound) {
			respondError(c, response.CodeNotFound, "error.payout_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}

	response.SuccessWithPage(c, items, response.NewPagination(page, pageSize, total))
}

// AdminBuildPayoutDraft 管理端交互式建立或累加结算草稿
func (h *Handler) AdminBuildPayoutDraft(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	var req AdminBuildPayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	start, end, err := parsePayoutPeriod(req.PeriodStart, req.PeriodEnd)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.payout_period_invalid", nil)
		return
	}

	result, err := h.PayoutService.BuildOrUpdateDraft(service.BuildDraftInput{
		PartnerID:   req.PartnerID,
		PeriodStart: start,
		PeriodEnd:   end,
		Notes:       req.Notes,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPartnerNotFound):
			respondError(c, response.CodeNotFound, "error.partner_not_found", nil)
		case errors.Is(err, service.ErrPayoutPeriodInvalid):
			respondError(c, response.CodeBadRequest, "error.payout_period_invalid", nil)
		case errors.Is(err, service.ErrPayoutNothingToLiquidate):
			respondError(c, response.CodeBadRequest, "error.payout_nothing_to_liquidate", nil)
		default:
			respondError(c, response.CodeInternal, "error.internal", err)
		}
		return
	}

	requestLog(c).Infow("admin_payout_draft_built",
		"admin_id", adminID,
		"partner_id", req.PartnerID,
		"payout_id", result.Payout.ID,
		"outcome", result.Outcome,
		"item_count", result.ItemCount,
	)
	response.Success(c, result)
}

// AdminRebuildPayouts 管理端触发周期性结算单重建
// 队列可用时转交异步任务执行，否则同步执行并直接返回结果
func (h *Handler) AdminRebuildPayouts(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	var req AdminRebuildPayoutsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	start, end, err := parsePayoutPeriod(req.PeriodStart, req.PeriodEnd)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.payout_period_invalid", nil)
		return
	}

	if h.QueueClient.Enabled() {
		payload := queue.PayoutRebuildPayload{
			PeriodStart: start.Format(payoutPeriodLayout),
			PeriodEnd:   end.Format(payoutPeriodLayout),
		}
		var opts []asynq.Option
		if h.Config.Payout.RebuildTimeoutSeconds > 0 {
			opts = append(opts, asynq.Timeout(time.Duration(h.Config.Payout.RebuildTimeoutSeconds)*time.Second))
		}
		if err := h.QueueClient.EnqueuePayoutRebuild(payload, opts...); err != nil {
			respondError(c, response.CodeInternal, "error.internal", err)
			return
		}
		requestLog(c).Infow("admin_payout_rebuild_enqueued",
			"admin_id", adminID,
			"period_start", payload.PeriodStart,
			"period_end", payload.PeriodEnd,
		)
		response.Success(c, gin.H{"enqueued": true})
		return
	}

	results, err := h.PayoutService.RebuildPeriodPayouts(start, end)
	if err != nil {
		if errors.Is(err, service.ErrPayoutPeriodInvalid) {
			respondError(c, response.CodeBadRequest, "error.payout_period_invalid", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}

	requestLog(c).Infow("admin_payout_rebuild_completed",
		"admin_id", adminID,
		"partner_count", len(results),
	)
	response.Success(c, gin.H{"enqueued": false, "results": results})
}

// AdminUpdatePayoutStatus 管理端结算单状态流转（打款即触发清算）
func (h *Handler) AdminUpdatePayoutStatus(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	payoutID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	var req AdminPayoutStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	payout, err := h.PayoutService.UpdateStatus(payoutID, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPayoutNotFound):
			respondError(c, response.CodeNotFound, "error.payout_not_found", nil)
		case errors.Is(err, service.ErrPayoutStatusInvalid):
			respondError(c, response.CodeBadRequest, "error.payout_status_invalid", nil)
		default:
			respondError(c, response.CodeInternal, "error.internal", err)
		}
		return
	}

	requestLog(c).Infow("admin_payout_status_updated",
		"admin_id", adminID,
		"payout_id", payoutID,
		"status", payout.Status,
	)
	response.Success(c, payout)
}

// AdminUpdatePayoutDetails 管理端更新结算单备注与付款凭证
func (h *Handler) AdminUpdatePayoutDetails(c *gin.Context) {
	payoutID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	var req AdminPayoutDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	payout, err := h.PayoutService.UpdateDetails(payoutID, req.Notes, req.PaymentReceipt)
	if err != nil {
		if errors.Is(err, service.ErrPayoutNotFound) {
			respondError(c, response.CodeNotFound, "error.payout_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, payout)
}
