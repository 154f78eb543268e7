package public

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	handlershared "github.com/b2b-portale/internal/http/handlers/shared"
	"github.com/b2b-portale/internal/http/response"
	"github.com/b2b-portale/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}

func respondErrorWithMsg(c *gin.Context, code int, msg string, err error) {
	handlershared.RespondErrorWithMsg(c, code, msg, err)
}

func normalizePagination(page, pageSize int) (int, int) {
	return handlershared.NormalizePagination(page, pageSize)
}

func parseUintParam(c *gin.Context, name string) (uint, error) {
	raw := strings.TrimSpace(c.Param(name))
	parsed, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || parsed == 0 {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return uint(parsed), nil
}

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	key    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackKey string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.key, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackKey, err)
}

func concatMappedHandlerErrors(groups ...[]mappedHandlerError) []mappedHandlerError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]mappedHandlerError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}

var checkoutErrorRules = []mappedHandlerError{
	{target: service.ErrNotFound, code: response.CodeBadRequest, key: "error.bad_request"},
	{target: service.ErrUserDisabled, code: response.CodeForbidden, key: "error.user_disabled"},
	{target: service.ErrStructureInvalid, code: response.CodeBadRequest, key: "error.structure_invalid"},
	{target: service.ErrOrderEmpty, code: response.CodeBadRequest, key: "error.order_empty"},
	{target: service.ErrQuantityInvalid, code: response.CodeBadRequest, key: "error.quantity_invalid"},
	{target: service.ErrProductNotFound, code: response.CodeBadRequest, key: "error.product_not_found"},
	{target: service.ErrProductInactive, code: response.CodeBadRequest, key: "error.product_inactive"},
}

var clientOrderErrorRules = []mappedHandlerError{
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, key: "error.order_not_found"},
	{target: service.ErrOrderEmpty, code: response.CodeBadRequest, key: "error.order_empty"},
}

var partnerItemErrorRules = []mappedHandlerError{
	{target: service.ErrPartnerNotFound, code: response.CodeNotFound, key: "error.partner_not_found"},
	{target: service.ErrOrderItemNotFound, code: response.CodeNotFound, key: "error.order_item_not_found"},
	{target: service.ErrOrderItemLocked, code: response.CodeBadRequest, key: "error.order_item_locked"},
	{target: service.ErrItemStatusInvalid, code: response.CodeBadRequest, key: "error.item_status_invalid"},
}
