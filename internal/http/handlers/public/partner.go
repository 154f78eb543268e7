package public

import (
	"errors"
	"strconv"

	"github.com/b2b-portale/internal/http/response"
	"github.com/b2b-portale/internal/models"
	"github.com/b2b-portale/internal/repository"
	"github.com/b2b-portale/internal/service"

	"github.com/gin-gonic/gin"
)

// requirePartnerProfile 取当前登录用户对应的合作商档案，失败时已写响应
func (h *Handler) requirePartnerProfile(c *gin.Context) (*models.PartnerProfile, bool) {
	userID, ok := getUserID(c)
	if !ok {
		return nil, false
	}

	profile, err := h.PartnerService.GetProfileByUserID(userID)
	if err != nil {
		if errors.Is(err, service.ErrPartnerNotFound) {
			respondError(c, response.CodeNotFound, "error.partner_not_found", nil)
			return nil, false
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return nil, false
	}
	return profile, true
}

// PartnerGetProfile 合作商查看自己的档案
func (h *Handler) PartnerGetProfile(c *gin.Context) {
	profile, ok := h.requirePartnerProfile(c)
	if !ok {
		return
	}
	response.Success(c, profile)
}

// PartnerListItems 合作商佣金台账明细（自己的订单行）
func (h *Handler) PartnerListItems(c *gin.Context) {
	profile, ok := h.requirePartnerProfile(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	filter := repository.OrderItemListFilter{
		Page:          page,
		PageSize:      pageSize,
		PartnerID:     profile.ID,
		PartnerStatus: c.Query("status"),
	}
	if raw := c.Query("liquidated"); raw != "" {
		liquidated := raw == "true" || raw == "1"
		filter.Liquidated = &liquidated
	}

	items, total, err := h.PartnerService.ListItems(profile.ID, filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}

	response.SuccessWithPage(c, items, response.NewPagination(page, pageSize, total))
}

// PartnerItemStatusRequest 合作商更新订单行状态请求
type PartnerItemStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note"`
}

// PartnerUpdateItemStatus 合作商更新自己订单行的处理状态
func (h *Handler) PartnerUpdateItemStatus(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	itemID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	var req PartnerItemStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	item, err := h.PartnerService.UpdateItemStatus(userID, service.UpdateItemStatusInput{
		ItemID:      itemID,
		NewStatus:   req.Status,
		Note:        req.Note,
		ChangedByID: &userID,
	})
	if err != nil {
		respondWithMappedError(c, err, partnerItemErrorRules, response.CodeInternal, "error.internal")
		return
	}

	requestLog(c).Infow("partner_item_status_updated",
		"item_id", item.ID,
		"partner_user_id", userID,
		"status", item.PartnerStatus,
	)
	response.Success(c, item)
}

// PartnerLedgerSummary 合作商佣金台账汇总（待清算与已清算）
func (h *Handler) PartnerLedgerSummary(c *gin.Context) {
	profile, ok := h.requirePartnerProfile(c)
	if !ok {
		return
	}

	stats, err := h.PartnerService.GetLedgerSummary(profile.ID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}

	response.Success(c, gin.H{
		"pending_earnings":    stats.PendingEarnings.StringFixed(2),
		"pending_count":       stats.PendingCount,
		"liquidated_earnings": stats.LiquidatedEarnings.StringFixed(2),
		"liquidated_count":    stats.LiquidatedCount,
	})
}

// PartnerListPayouts 合作商查看自己的结算单列表
func (h *Handler) PartnerListPayouts(c *gin.Context) {
	profile, ok := h.requirePartnerProfile(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	payouts, total, err := h.PayoutService.ListPayouts(repository.PayoutListFilter{
		Page:      page,
		PageSize:  pageSize,
		PartnerID: profile.ID,
		Status:    c.Query("status"),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}

	response.SuccessWithPage(c, payouts, response.NewPagination(page, pageSize, total))
}

// PartnerListNotifications 合作商通知列表
func (h *Handler) PartnerListNotifications(c *gin.Context) {
	profile, ok := h.requirePartnerProfile(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)
	onlyUnread := c.Query("only_unread") == "true" || c.Query("only_unread") == "1"

	notifications, total, err := h.PartnerService.ListNotifications(profile.ID, onlyUnread, page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}

	response.SuccessWithPage(c, notifications, response.NewPagination(page, pageSize, total))
}

// PartnerMarkNotificationRead 标记通知已读
func (h *Handler) PartnerMarkNotificationRead(c *gin.Context) {
	profile, ok := h.requirePartnerProfile(c)
	if !ok {
		return
	}

	notificationID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	if err := h.PartnerService.MarkNotificationRead(notificationID, profile.ID); err != nil {
		if errors.Is(err, service.ErrNotificationNotFound) {
			respondError(c, response.CodeNotFound, "error.notification_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}

	response.Success(c, gin.H{"read": true})
}
