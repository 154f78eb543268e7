package public

import (
	"strconv"

	"github.com/b2b-portale/internal/http/response"
	"github.com/b2b-portale/internal/repository"
	"github.com/b2b-portale/internal/service"

	"github.com/gin-gonic/gin"
)

// ClientCheckoutRequest 客户下单请求
type ClientCheckoutRequest struct {
	StructureID   *uint                       `json:"structure_id"`
	PaymentMethod string                      `json:"payment_method"`
	Notes         string                      `json:"notes"`
	Items         []service.CheckoutItemInput `json:"items" binding:"required,min=1,dive"`
}

// ClientCheckout 客户下单
func (h *Handler) ClientCheckout(c *gin.Context) {
	clientID, ok := getUserID(c)
	if !ok {
		return
	}

	var req ClientCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	order, err := h.OrderService.Checkout(service.CheckoutInput{
		ClientID:      clientID,
		StructureID:   req.StructureID,
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
		Items:         req.Items,
	})
	if err != nil {
		respondWithMappedError(c, err, checkoutErrorRules, response.CodeInternal, "error.internal")
		return
	}

	requestLog(c).Infow("client_order_created",
		"order_id", order.ID,
		"client_id", clientID,
		"payment_reference", order.PaymentReference,
		"total", order.Total.String(),
	)
	response.Success(c, order)
}

// ClientListOrders 客户订单列表（仅本人订单）
func (h *Handler) ClientListOrders(c *gin.Context) {
	clientID, ok := getUserID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	filter := repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		ClientID: clientID,
		Status:   c.Query("status"),
	}

	orders, total, err := h.OrderService.ListOrders(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}

	response.SuccessWithPage(c, orders, response.NewPagination(page, pageSize, total))
}

// ClientGetOrder 客户订单详情（仅本人订单）
func (h *Handler) ClientGetOrder(c *gin.Context) {
	clientID, ok := getUserID(c)
	if !ok {
		return
	}

	orderID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	order, err := h.OrderService.GetOrderForClient(orderID, clientID)
	if err != nil {
		respondWithMappedError(c, err, clientOrderErrorRules, response.CodeInternal, "error.internal")
		return
	}

	response.Success(c, order)
}

// ClientDuplicateOrder 复制历史订单为新草稿订单，按当前价格与佣金规则重建
func (h *Handler) ClientDuplicateOrder(c *gin.Context) {
	clientID, ok := getUserID(c)
	if !ok {
		return
	}

	orderID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	order, err := h.OrderService.Duplicate(orderID, clientID)
	if err != nil {
		respondWithMappedError(c, err,
			concatMappedHandlerErrors(clientOrderErrorRules, checkoutErrorRules),
			response.CodeInternal, "error.internal")
		return
	}

	requestLog(c).Infow("client_order_duplicated",
		"source_order_id", orderID,
		"order_id", order.ID,
		"client_id", clientID,
	)
	response.Success(c, order)
}

// ClientListStructures 客户名下收货场所列表
func (h *Handler) ClientListStructures(c *gin.Context) {
	clientID, ok := getUserID(c)
	if !ok {
		return
	}

	structures, err := h.UserRepo.ListStructuresByOwner(clientID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}

	response.Success(c, structures)
}
