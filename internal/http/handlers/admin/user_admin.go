package admin

import (
	"strconv"
	"strings"

	"github.com/b2b-portale/internal/http/response"
	"github.com/b2b-portale/internal/repository"

	"github.com/gin-gonic/gin"
)

// AdminListUsers 管理端用户列表
func (h *Handler) AdminListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	users, total, err := h.UserRepo.List(repository.UserListFilter{
		Page:     page,
		PageSize: pageSize,
		Role:     strings.TrimSpace(c.Query("role")),
		Keyword:  strings.TrimSpace(c.Query("keyword")),
		Status:   strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}

	response.SuccessWithPage(c, users, response.NewPagination(page, pageSize, total))
}
