package repository

import (
	"errors"
	"strings"

	"github.com/b2b-portale/internal/models"

	"gorm.io/gorm"
)

// UserRepository 用户数据访问接口
type UserRepository interface {
	GetByID(id uint) (*models.User, error)
	GetByUsername(username string) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	Create(user *models.User) error
	Update(user *models.User) error
	List(filter UserListFilter) ([]models.User, int64, error)

	GetStructureByID(id uint) (*models.ClientStructure, error)
	GetStructureByIDAndOwner(id, ownerID uint) (*models.ClientStructure, error)
	ListStructuresByOwner(ownerID uint) ([]models.ClientStructure, error)
	CreateStructure(structure *models.ClientStructure) error
}

// GormUserRepository GORM 用户仓储
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓储
func NewUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// GetByID 按ID获取用户
func (r *GormUserRepository) GetByID(id uint) (*models.User, error) {
	if id == 0 {
		return nil, nil
	}
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetByUsername 按账号获取用户
func (r *GormUserRepository) GetByUsername(username string) (*models.User, error) {
	normalized := strings.TrimSpace(username)
	if normalized == "" {
		return nil, nil
	}
	var user models.User
	if err := r.db.Where("username = ?", normalized).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetByEmail 按邮箱获取用户
func (r *GormUserRepository) GetByEmail(email string) (*models.User, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return nil, nil
	}
	var user models.User
	if err := r.db.Where("email = ?", normalized).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// Create 创建用户
func (r *GormUserRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// Update 更新用户
func (r *GormUserRepository) Update(user *models.User) error {
	return r.db.Save(user).Error
}

// List 查询用户列表
func (r *GormUserRepository) List(filter UserListFilter) ([]models.User, int64, error) {
	query := r.db.Model(&models.User{})
	if role := strings.TrimSpace(filter.Role); role != "" {
		query = query.Where("role = ?", role)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
		like := "%" + keyword + "%"
		op := likeOperator(r.db)
		query = query.Where("(username "+op+" ? OR email "+op+" ? OR display_name "+op+" ?)", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var rows []models.User
	if err := query.Order("id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// GetStructureByID 按ID获取收货场所
func (r *GormUserRepository) GetStructureByID(id uint) (*models.ClientStructure, error) {
	if id == 0 {
		return nil, nil
	}
	var structure models.ClientStructure
	if err := r.db.First(&structure, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &structure, nil
}

// GetStructureByIDAndOwner 按ID与归属客户获取收货场所
func (r *GormUserRepository) GetStructureByIDAndOwner(id, ownerID uint) (*models.ClientStructure, error) {
	if id == 0 || ownerID == 0 {
		return nil, nil
	}
	var structure models.ClientStructure
	if err := r.db.Where("id = ? AND owner_id = ?", id, ownerID).First(&structure).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &structure, nil
}

// ListStructuresByOwner 查询客户名下的收货场所
func (r *GormUserRepository) ListStructuresByOwner(ownerID uint) ([]models.ClientStructure, error) {
	if ownerID == 0 {
		return []models.ClientStructure{}, nil
	}
	var rows []models.ClientStructure
	if err := r.db.Where("owner_id = ?", ownerID).
		Order("is_default desc, id asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CreateStructure 创建收货场所
func (r *GormUserRepository) CreateStructure(structure *models.ClientStructure) error {
	return r.db.Create(structure).Error
}
