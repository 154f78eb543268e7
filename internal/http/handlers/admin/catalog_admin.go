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

// AdminListProducts 管理端商品列表
func (h *Handler) AdminListProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	var categoryID, supplierID uint
	if raw := strings.TrimSpace(c.Query("category_id")); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 64); err == nil {
			categoryID = uint(parsed)
		}
	}
	if raw := strings.TrimSpace(c.Query("supplier_id")); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 64); err == nil {
			supplierID = uint(parsed)
		}
	}

	products, total, err := h.CatalogService.ListProducts(repository.ProductListFilter{
		Page:       page,
		PageSize:   pageSize,
		CategoryID: categoryID,
		SupplierID: supplierID,
		Search:     strings.TrimSpace(c.Query("search")),
		OnlyActive: c.Query("only_active") == "true",
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}

	response.SuccessWithPage(c, products, response.NewPagination(page, pageSize, total))
}

// AdminGetProduct 管理端商品详情
func (h *Handler) AdminGetProduct(c *gin.Context) {
	productID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	product, err := h.CatalogService.GetProduct(productID)
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

// AdminListCategories 管理端分类列表
func (h *Handler) AdminListCategories(c *gin.Context) {
	categories, err := h.CatalogService.ListCategories(false)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, categories)
}
