package repository

import (
	"context"
	"errors"
	"time"

	"github.com/fieldstack/matflow/internal/model/entity"
	"gorm.io/gorm"
)

// RequestRepository 物料申请单仓库
type RequestRepository struct {
	db *gorm.DB
}

// NewRequestRepository 创建物料申请单仓库
func NewRequestRepository(db *gorm.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

// FindByID 根据ID查找申请单
func (r *RequestRepository) FindByID(ctx context.Context, id string) (*entity.MaterialRequest, error) {
	var req entity.MaterialRequest
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

// Create 创建申请单，并在同一事务内分配序号
func (r *RequestRepository) Create(ctx context.Context, req *entity.MaterialRequest) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var maxSeq int64
		if err := tx.Model(&entity.MaterialRequest{}).
			Select("COALESCE(MAX(seq_id), 0)").
			Scan(&maxSeq).Error; err != nil {
			return err
		}
		req.SeqID = maxSeq + 1
		return tx.Create(req).Error
	})
}

// ListParams 列表过滤条件
type ListParams struct {
	Status      string
	RequestType string
	Zone        string
	RequesterID string
	Page        int
	PageSize    int
}

// List 获取申请单列表，按创建时间倒序
func (r *RequestRepository) List(ctx context.Context, params ListParams) ([]entity.MaterialRequest, int64, error) {
	var requests []entity.MaterialRequest
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.MaterialRequest{})

	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.RequestType != "" {
		query = query.Where("request_type = ?", params.RequestType)
	}
	if params.Zone != "" {
		query = query.Where("zone = ?", params.Zone)
	}
	if params.RequesterID != "" {
		query = query.Where("requester_id = ?", params.RequesterID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if params.Page > 0 && params.PageSize > 0 {
		query = query.Offset((params.Page - 1) * params.PageSize).Limit(params.PageSize)
	}

	// seq_id breaks ties when two requests share a creation timestamp
	err := query.Order("created_at DESC, seq_id DESC").Find(&requests).Error
	return requests, total, err
}

// ListByStatus 按状态与类型查找，供后台扫描使用
func (r *RequestRepository) ListByStatus(ctx context.Context, requestType, status string) ([]entity.MaterialRequest, error) {
	var requests []entity.MaterialRequest
	err := r.db.WithContext(ctx).
		Where("request_type = ? AND status = ?", requestType, status).
		Order("created_at DESC").
		Find(&requests).Error
	return requests, err
}

// Update persists the request with an optimistic version check. The UPDATE
// is scoped to the version the caller read; zero rows affected means someone
// else wrote in between and the caller's snapshot is stale.
func (r *RequestRepository) Update(ctx context.Context, req *entity.MaterialRequest) error {
	current := req.Version
	req.Version = current + 1
	req.UpdatedAt = time.Now()

	result := r.db.WithContext(ctx).
		Model(&entity.MaterialRequest{}).
		Where("id = ? AND version = ?", req.ID, current).
		Select("*").
		Omit("id", "seq_id", "created_at", "request_type", "requested_by", "requester_id", "requester_email").
		Updates(req)
	if result.Error != nil {
		req.Version = current
		return result.Error
	}
	if result.RowsAffected == 0 {
		req.Version = current
		return ErrStaleWrite
	}
	return nil
}

// Delete 物理删除 —— 区域经理专用，无软删除
func (r *RequestRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&entity.MaterialRequest{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
