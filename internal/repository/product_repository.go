package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/b2b-portale/internal/models"

	"gorm.io/gorm"
)

// ProductRepository 商品数据访问接口
type ProductRepository interface {
	GetByID(id uint) (*models.Product, error)
	GetBySlug(slug string) (*models.Product, error)
	ListByIDs(ids []uint) ([]models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	List(filter ProductListFilter) ([]models.Product, int64, error)
	EnsureUniqueSlug(base string) (string, error)

	GetCategoryByID(id uint) (*models.Category, error)
	ListCategories(onlyActive bool) ([]models.Category, error)
	CreateCategory(category *models.Category) error
}

// GormProductRepository GORM 商品仓储
type GormProductRepository struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓储
func NewProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// GetByID 按ID获取商品
func (r *GormProductRepository) GetByID(id uint) (*models.Product, error) {
	if id == 0 {
		return nil, nil
	}
	var product models.Product
	if err := r.db.Preload("Category").Preload("Supplier").First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// GetBySlug 按唯一标识获取商品
func (r *GormProductRepository) GetBySlug(slug string) (*models.Product, error) {
	normalized := strings.TrimSpace(slug)
	if normalized == "" {
		return nil, nil
	}
	var product models.Product
	if err := r.db.Preload("Category").Where("slug = ?", normalized).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// ListByIDs 批量按ID查询商品
func (r *GormProductRepository) ListByIDs(ids []uint) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}
	var rows []models.Product
	if err := r.db.Preload("Category").Preload("Supplier").
		Where("id IN ?", ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Create 创建商品
func (r *GormProductRepository) Create(product *models.Product) error {
	return r.db.Create(product).Error
}

// Update 更新商品
func (r *GormProductRepository) Update(product *models.Product) error {
	return r.db.Save(product).Error
}

// List 查询商品列表
func (r *GormProductRepository) List(filter ProductListFilter) ([]models.Product, int64, error) {
	query := r.db.Model(&models.Product{}).Preload("Category").Preload("Supplier")
	if filter.CategoryID != 0 {
		query = query.Where("category_id = ?", filter.CategoryID)
	}
	if filter.SupplierID != 0 {
		query = query.Where("supplier_id = ?", filter.SupplierID)
	}
	if filter.OnlyActive {
		query = query.Where("is_active = ?", true)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + search + "%"
		op := likeOperator(r.db)
		query = query.Where("(name "+op+" ? OR slug "+op+" ? OR short_description "+op+" ?)", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var rows []models.Product
	if err := query.Order("sort_order asc, id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// EnsureUniqueSlug 在 base 基础上生成未占用的 slug，冲突时追加数字后缀
func (r *GormProductRepository) EnsureUniqueSlug(base string) (string, error) {
	normalized := strings.TrimSpace(base)
	if normalized == "" {
		normalized = "prodotto"
	}
	candidate := normalized
	for i := 1; ; i++ {
		var count int64
		if err := r.db.Model(&models.Product{}).Where("slug = ?", candidate).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", normalized, i)
	}
}

// GetCategoryByID 按ID获取分类
func (r *GormProductRepository) GetCategoryByID(id uint) (*models.Category, error) {
	if id == 0 {
		return nil, nil
	}
	var category models.Category
	if err := r.db.First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &category, nil
}

// ListCategories 查询分类列表
func (r *GormProductRepository) ListCategories(onlyActive bool) ([]models.Category, error) {
	query := r.db.Model(&models.Category{})
	if onlyActive {
		query = query.Where("is_active = ?", true)
	}
	var rows []models.Category
	if err := query.Order("sort_order asc, id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CreateCategory 创建分类
func (r *GormProductRepository) CreateCategory(category *models.Category) error {
	return r.db.Create(category).Error
}
