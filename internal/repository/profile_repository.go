package repository

import (
	"context"
	"errors"
	"time"

	"github.com/fieldstack/matflow/internal/model/entity"
	"gorm.io/gorm"
)

// ProfileRepository 用户档案仓库
type ProfileRepository struct {
	db *gorm.DB
}

// NewProfileRepository 创建用户档案仓库
func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// FindByID 根据ID查找档案
func (r *ProfileRepository) FindByID(ctx context.Context, id string) (*entity.Profile, error) {
	var profile entity.Profile
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &profile, nil
}

// FindByEmail 根据邮箱查找档案
func (r *ProfileRepository) FindByEmail(ctx context.Context, email string) (*entity.Profile, error) {
	var profile entity.Profile
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &profile, nil
}

// Create 创建档案
func (r *ProfileRepository) Create(ctx context.Context, profile *entity.Profile) error {
	return r.db.WithContext(ctx).Create(profile).Error
}

// Update 更新档案
func (r *ProfileRepository) Update(ctx context.Context, profile *entity.Profile) error {
	return r.db.WithContext(ctx).Save(profile).Error
}

// TouchLastLogin 记录最近登录时间
func (r *ProfileRepository) TouchLastLogin(ctx context.Context, id string) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&entity.Profile{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_login_at": now,
			"updated_at":    now,
		}).Error
}

// FindByDepartmentZone 查找某区域某部门的全部在职用户
func (r *ProfileRepository) FindByDepartmentZone(ctx context.Context, department, zone string) ([]entity.Profile, error) {
	var profiles []entity.Profile
	query := r.db.WithContext(ctx).
		Where("department = ? AND status = ?", department, "active")
	if zone != "" {
		query = query.Where("zone = ?", zone)
	}
	err := query.Find(&profiles).Error
	return profiles, err
}

// EmailsByDepartmentZone resolves the recipient emails for a department
// scoped to a zone — the notification fan-out lookup.
func (r *ProfileRepository) EmailsByDepartmentZone(ctx context.Context, department, zone string) ([]string, error) {
	profiles, err := r.FindByDepartmentZone(ctx, department, zone)
	if err != nil {
		return nil, err
	}
	emails := make([]string, 0, len(profiles))
	for _, p := range profiles {
		if p.Email != "" {
			emails = append(emails, p.Email)
		}
	}
	return emails, nil
}
