package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/b2b-portale/internal/http/response"
	"github.com/b2b-portale/internal/repository"
	"github.com/b2b-portale/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminOrderUpdateRequest 后台订单更新请求
type AdminOrderUpdateRequest struct {
	Status     *string `json:"status"`
	AdminNotes *string `json:"admin_notes"`
}

// AdminListOrders 管理端订单列表
func (h *Handler) AdminListOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	status := strings.TrimSpace(c.Query("status"))
	clientIDStr := strings.TrimSpace(c.Query("client_id"))
	paymentRef := strings.TrimSpace(c.Query("payment_reference"))
	createdFrom, err := parseTimeNullable(c.Query("created_from"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	createdTo, err := parseTimeNullable(c.Query("created_to"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	var clientID uint
	if clientIDStr != "" {
		if parsed, err := strconv.ParseUint(clientIDStr, 10, 64); err == nil {
			clientID = uint(parsed)
		}
	}

	orders, total, err := h.OrderService.ListOrders(repository.OrderListFilter{
		Page:        page,
		PageSize:    pageSize,
		ClientID:    clientID,
		Status:      status,
		PaymentRef:  paymentRef,
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}

	response.SuccessWithPage(c, orders, response.NewPagination(page, pageSize, total))
}

// AdminGetOrder 管理端订单详情
func (h *Handler) AdminGetOrder(c *gin.Context) {
	orderID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	order, err := h.OrderService.GetOrder(orderID)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(c, response.CodeNotFound, "error.order_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, order)
}

// AdminUpdateOrder 管理端更新订单状态与备注
// 状态守卫拒绝变更时备注仍会保存，响应里返回拒绝原因
func (h *Handler) AdminUpdateOrder(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	orderID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	var req AdminOrderUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	order, err := h.OrderService.UpdateOrderForAdmin(orderID, service.AdminOrderUpdateInput{
		Status:     req.Status,
		AdminNotes: req.AdminNotes,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			respondError(c, response.CodeNotFound, "error.order_not_found", nil)
		case errors.Is(err, service.ErrOrderCancelLocked):
			respondError(c, response.CodeBadRequest, "error.order_cancel_locked", nil)
		case errors.Is(err, service.ErrOrderStatusLocked):
			respondError(c, response.CodeBadRequest, "error.order_status_locked", nil)
		case errors.Is(err, service.ErrOrderStatusInvalid):
			respondError(c, response.CodeBadRequest, "error.order_status_invalid", nil)
		default:
			respondError(c, response.CodeInternal, "error.internal", err)
		}
		return
	}

	requestLog(c).Infow("admin_order_updated",
		"admin_id", adminID,
		"order_id", orderID,
	)
	response.Success(c, order)
}

// AdminRecalculateOrderCommissions 管理端重算订单佣金快照
func (h *Handler) AdminRecalculateOrderCommissions(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	orderID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	order, err := h.OrderService.RecalculateCommissions(orderID)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(c, response.CodeNotFound, "error.order_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}

	requestLog(c).Infow("admin_order_commissions_recalculated",
		"admin_id", adminID,
		"order_id", orderID,
	)
	response.Success(c, order)
}
