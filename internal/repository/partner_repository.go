package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/b2b-portale/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PartnerRepository 合作商数据访问接口
type PartnerRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) PartnerRepository

	GetProfileByID(id uint) (*models.PartnerProfile, error)
	GetProfileByIDForUpdate(id uint) (*models.PartnerProfile, error)
	GetProfileByUserID(userID uint) (*models.PartnerProfile, error)
	CreateProfile(profile *models.PartnerProfile) error
	UpdateProfile(profile *models.PartnerProfile) error
	ListProfiles(filter PartnerListFilter) ([]models.PartnerProfile, int64, error)

	GetCategoryCommission(partnerID, categoryID uint) (*models.PartnerCategoryCommission, error)
	UpsertCategoryCommission(row *models.PartnerCategoryCommission) error
	ListCategoryCommissions(partnerID uint) ([]models.PartnerCategoryCommission, error)

	CreateNotification(notification *models.PartnerNotification) error
	ListNotifications(partnerID uint, onlyUnread bool, page, pageSize int) ([]models.PartnerNotification, int64, error)
	MarkNotificationRead(id, partnerID uint) (int64, error)
}

// GormPartnerRepository GORM 合作商仓储
type GormPartnerRepository struct {
	db *gorm.DB
}

// NewPartnerRepository 创建合作商仓储
func NewPartnerRepository(db *gorm.DB) *GormPartnerRepository {
	return &GormPartnerRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPartnerRepository) WithTx(tx *gorm.DB) PartnerRepository {
	if tx == nil {
		return r
	}
	return &GormPartnerRepository{db: tx}
}

// Transaction 执行事务
func (r *GormPartnerRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// GetProfileByID 按ID获取合作商档案
func (r *GormPartnerRepository) GetProfileByID(id uint) (*models.PartnerProfile, error) {
	if id == 0 {
		return nil, nil
	}
	var profile models.PartnerProfile
	if err := r.db.Preload("User").First(&profile, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

// GetProfileByIDForUpdate 按ID获取合作商档案并加锁，作为结算草稿建立的串行化锚点
func (r *GormPartnerRepository) GetProfileByIDForUpdate(id uint) (*models.PartnerProfile, error) {
	if id == 0 {
		return nil, nil
	}
	var profile models.PartnerProfile
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&profile, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

// GetProfileByUserID 按用户ID获取合作商档案
func (r *GormPartnerRepository) GetProfileByUserID(userID uint) (*models.PartnerProfile, error) {
	if userID == 0 {
		return nil, nil
	}
	var profile models.PartnerProfile
	if err := r.db.Preload("User").Where("user_id = ?", userID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

// CreateProfile 创建合作商档案
func (r *GormPartnerRepository) CreateProfile(profile *models.PartnerProfile) error {
	return r.db.Create(profile).Error
}

// UpdateProfile 更新合作商档案
func (r *GormPartnerRepository) UpdateProfile(profile *models.PartnerProfile) error {
	return r.db.Save(profile).Error
}

// ListProfiles 查询合作商列表
func (r *GormPartnerRepository) ListProfiles(filter PartnerListFilter) ([]models.PartnerProfile, int64, error) {
	query := r.db.Model(&models.PartnerProfile{}).Preload("User")
	if filter.OnlyActive {
		query = query.Where("partner_profiles.is_active = ?", true)
	}
	if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
		like := "%" + keyword + "%"
		op := likeOperator(r.db)
		query = query.
			Joins("LEFT JOIN users ON users.id = partner_profiles.user_id").
			Where("(partner_profiles.company_name "+op+" ? OR partner_profiles.vat_number "+op+" ? OR users.email "+op+" ?)", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var rows []models.PartnerProfile
	if err := query.Order("partner_profiles.id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// GetCategoryCommission 查询合作商分类佣金率
func (r *GormPartnerRepository) GetCategoryCommission(partnerID, categoryID uint) (*models.PartnerCategoryCommission, error) {
	if partnerID == 0 || categoryID == 0 {
		return nil, nil
	}
	var row models.PartnerCategoryCommission
	if err := r.db.Where("partner_id = ? AND category_id = ?", partnerID, categoryID).
		First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// UpsertCategoryCommission 创建或更新合作商分类佣金率
func (r *GormPartnerRepository) UpsertCategoryCommission(row *models.PartnerCategoryCommission) error {
	if row == nil {
		return nil
	}
	existing, err := r.GetCategoryCommission(row.PartnerID, row.CategoryID)
	if err != nil {
		return err
	}
	if existing == nil {
		return r.db.Create(row).Error
	}
	return r.db.Model(&models.PartnerCategoryCommission{}).
		Where("id = ?", existing.ID).
		Updates(map[string]interface{}{
			"commission_rate": row.CommissionRate,
			"updated_at":      time.Now(),
		}).Error
}

// ListCategoryCommissions 查询合作商的分类佣金率列表
func (r *GormPartnerRepository) ListCategoryCommissions(partnerID uint) ([]models.PartnerCategoryCommission, error) {
	if partnerID == 0 {
		return []models.PartnerCategoryCommission{}, nil
	}
	var rows []models.PartnerCategoryCommission
	if err := r.db.Preload("Category").
		Where("partner_id = ?", partnerID).
		Order("category_id asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CreateNotification 创建合作商通知
func (r *GormPartnerRepository) CreateNotification(notification *models.PartnerNotification) error {
	return r.db.Create(notification).Error
}

// ListNotifications 查询合作商通知列表
func (r *GormPartnerRepository) ListNotifications(partnerID uint, onlyUnread bool, page, pageSize int) ([]models.PartnerNotification, int64, error) {
	if partnerID == 0 {
		return []models.PartnerNotification{}, 0, nil
	}
	query := r.db.Model(&models.PartnerNotification{}).Where("partner_id = ?", partnerID)
	if onlyUnread {
		query = query.Where("is_read = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, page, pageSize)

	var rows []models.PartnerNotification
	if err := query.Order("id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// MarkNotificationRead 将通知标记为已读
func (r *GormPartnerRepository) MarkNotificationRead(id, partnerID uint) (int64, error) {
	if id == 0 || partnerID == 0 {
		return 0, nil
	}
	result := r.db.Model(&models.PartnerNotification{}).
		Where("id = ? AND partner_id = ?", id, partnerID).
		Update("is_read", true)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
