package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/b2b-portale/internal/http/response"
	"github.com/b2b-portale/internal/models"
	"github.com/b2b-portale/internal/repository"
	"github.com/b2b-portale/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminPartnerUpdateRequest 合作商档案更新请求
type AdminPartnerUpdateRequest struct {
	CompanyName              *string       `json:"company_name"`
	VatNumber                *string       `json:"vat_number"`
	Address                  *string       `json:"address"`
	City                     *string       `json:"city"`
	ZipCode                  *string       `json:"zip_code"`
	Country                  *string       `json:"country"`
	Phone                    *string       `json:"phone"`
	DefaultCommissionPercent *models.Money `json:"default_commission_percent"`
	IsActive                 *bool         `json:"is_active"`
}

// AdminCategoryCommissionRequest 分类佣金率配置请求
type AdminCategoryCommissionRequest struct {
	CategoryID     uint         `json:"category_id" binding:"required"`
	CommissionRate models.Money `json:"commission_rate"`
}

// AdminListPartners 管理端合作商列表
func (h *Handler) AdminListPartners(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	partners, total, err := h.PartnerService.ListProfiles(repository.PartnerListFilter{
		Page:       page,
		PageSize:   pageSize,
		Keyword:    strings.TrimSpace(c.Query("keyword")),
		OnlyActive: c.Query("only_active") == "true",
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}

	response.SuccessWithPage(c, partners, response.NewPagination(page, pageSize, total))
}

// AdminGetPartner 管理端合作商详情
func (h *Handler) AdminGetPartner(c *gin.Context) {
	partnerID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	partner, err := h.PartnerService.GetProfile(partnerID)
	if err != nil {
		if errors.Is(err, service.ErrPartnerNotFound) {
			respondError(c, response.CodeNotFound, "error.partner_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, partner)
}

// AdminUpdatePartner 管理端更新合作商档案
func (h *Handler) AdminUpdatePartner(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	partnerID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	var req AdminPartnerUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	partner, err := h.PartnerService.UpdateProfile(partnerID, service.ProfileUpdateInput{
		CompanyName:              req.CompanyName,
		VatNumber:                req.VatNumber,
		Address:                  req.Address,
		City:                     req.City,
		ZipCode:                  req.ZipCode,
		Country:                  req.Country,
		Phone:                    req.Phone,
		DefaultCommissionPercent: req.DefaultCommissionPercent,
		IsActive:                 req.IsActive,
	})
	if err != nil {
		if errors.Is(err, service.ErrPartnerNotFound) {
			respondError(c, response.CodeNotFound, "error.partner_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}

	requestLog(c).Infow("admin_partner_updated",
		"admin_id", adminID,
		"partner_id", partnerID,
	)
	response.Success(c, partner)
}

// AdminListPartnerCategoryCommissions 管理端合作商分类佣金率列表
func (h *Handler) AdminListPartnerCategoryCommissions(c *gin.Context) {
	partnerID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	rows, err := h.PartnerService.ListCategoryCommissions(partnerID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, rows)
}

// AdminUpsertPartnerCategoryCommission 管理端配置合作商分类佣金率
func (h *Handler) AdminUpsertPartnerCategoryCommission(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	partnerID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	var req AdminCategoryCommissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	row, err := h.PartnerService.SetCategoryCommission(partnerID, req.CategoryID, req.CommissionRate)
	if err != nil {
		if errors.Is(err, service.ErrPartnerNotFound) {
			respondError(c, response.CodeNotFound, "error.partner_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}

	requestLog(c).Infow("admin_partner_category_commission_set",
		"admin_id", adminID,
		"partner_id", partnerID,
		"category_id", req.CategoryID,
	)
	response.Success(c, row)
}
