package repository

import (
	"context"
	"time"

	"github.com/fieldstack/matflow/internal/model/entity"
	"gorm.io/gorm"
)

// NotificationRepository 站内通知仓库
type NotificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository 创建站内通知仓库
func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create 创建通知
func (r *NotificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

// ListByUser 获取用户通知，按时间倒序
func (r *NotificationRepository) ListByUser(ctx context.Context, userID string, page, pageSize int) ([]entity.Notification, int64, error) {
	var notifications []entity.Notification
	var total int64

	query := r.db.WithContext(ctx).
		Model(&entity.Notification{}).
		Where("user_id = ?", userID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page > 0 && pageSize > 0 {
		query = query.Offset((page - 1) * pageSize).Limit(pageSize)
	}

	err := query.Order("created_at DESC").Find(&notifications).Error
	return notifications, total, err
}

// MarkRead 标记通知已读
func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID string) error {
	result := r.db.WithContext(ctx).
		Model(&entity.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ExistsForItemToday reports whether an overdue warning for this
// (request, item, user) was already inserted today. Duplicate suppression
// for the daily scan: one notification per calendar day is permitted.
func (r *NotificationRepository) ExistsForItemToday(ctx context.Context, requestID, itemID, userID string, now time.Time) (bool, error) {
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Notification{}).
		Where("user_id = ? AND type = ?", userID, entity.NotificationWarning).
		Where("data->>'request_id' = ? AND data->>'item_id' = ?", requestID, itemID).
		Where("created_at >= ? AND created_at < ?", dayStart, dayStart.AddDate(0, 0, 1)).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
