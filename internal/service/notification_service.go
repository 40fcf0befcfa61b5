package service

import (
	"context"

	"github.com/fieldstack/matflow/internal/model/entity"
	"github.com/fieldstack/matflow/internal/repository"
)

// NotificationService 站内通知服务
type NotificationService struct {
	notifications *repository.NotificationRepository
}

// NewNotificationService 创建站内通知服务
func NewNotificationService(notifications *repository.NotificationRepository) *NotificationService {
	return &NotificationService{notifications: notifications}
}

// ListForUser 获取当前用户的通知
func (s *NotificationService) ListForUser(ctx context.Context, userID string, page, pageSize int) ([]entity.Notification, int64, error) {
	return s.notifications.ListByUser(ctx, userID, page, pageSize)
}

// MarkRead 标记已读，只能操作自己的通知
func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) error {
	return s.notifications.MarkRead(ctx, id, userID)
}
