package service

import (
	"strings"

	"github.com/b2b-portale/internal/models"
	"github.com/b2b-portale/internal/repository"
)

// CatalogService 商品目录服务（公开目录与后台只读查询）
type CatalogService struct {
	repo repository.ProductRepository
}

// NewCatalogService 创建目录服务
func NewCatalogService(repo repository.ProductRepository) *CatalogService {
	return &CatalogService{repo: repo}
}

// ListCategories 获取分类列表
func (s *CatalogService) ListCategories(onlyActive bool) ([]models.Category, error) {
	return s.repo.ListCategories(onlyActive)
}

// ListProducts 查询商品列表
func (s *CatalogService) ListProducts(filter repository.ProductListFilter) ([]models.Product, int64, error) {
	return s.repo.List(filter)
}

// GetProduct 按ID获取商品
func (s *CatalogService) GetProduct(id uint) (*models.Product, error) {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// GetPublicProductBySlug 按 slug 获取上架商品（公开目录详情）
func (s *CatalogService) GetPublicProductBySlug(slug string) (*models.Product, error) {
	product, err := s.repo.GetBySlug(strings.TrimSpace(slug))
	if err != nil {
		return nil, err
	}
	if product == nil || !product.IsActive {
		return nil, ErrProductNotFound
	}
	return product, nil
}
