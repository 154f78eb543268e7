package public

import (
	"errors"
	"strconv"

	"github.com/b2b-portale/internal/http/response"
	"github.com/b2b-portale/internal/repository"
	"github.com/b2b-portale/internal/service"

	"github.com/gin-gonic/gin"
)

// ListCategories 公开分类列表（仅启用的分类）
func (h *Handler) ListCategories(c *gin.Context) {
	categories, err := h.CatalogService.ListCategories(true)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, categories)
}

// ListProducts 公开商品列表（仅上架商品）
func (h *Handler) ListProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)
	categoryID, _ := strconv.ParseUint(c.Query("category_id"), 10, 32)

	filter := repository.ProductListFilter{
		Page:       page,
		PageSize:   pageSize,
		CategoryID: uint(categoryID),
		Search:     c.Query("search"),
		OnlyActive: true,
	}

	products, total, err := h.CatalogService.ListProducts(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}

	response.SuccessWithPage(c, products, response.NewPagination(page, pageSize, total))
}

// GetProduct 公开商品详情（按 slug 查询）
func (h *Handler) GetProduct(c *gin.Context) {
	slug := c.Param("slug")
	if slug == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	product, err := h.CatalogService.GetPublicProductBySlug(slug)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			respondError(c, response.CodeNotFound, "error.product_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}

	response.Success(c, product)
}
