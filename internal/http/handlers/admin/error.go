package admin

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	handlershared "github.com/b2b-portale/internal/http/handlers/shared"

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

// parseTimeNullable 解析可选时间参数，支持日期与 RFC3339 两种格式
func parseTimeNullable(raw string) (*time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	if t, err := time.Parse("2006-01-02", trimmed); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid time: %q", raw)
	}
	return &t, nil
}
