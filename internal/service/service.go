package service

import (
	"github.com/fieldstack/matflow/internal/config"
	"github.com/fieldstack/matflow/internal/notifier"
	"github.com/fieldstack/matflow/internal/repository"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Services 服务集合
type Services struct {
	Auth         *AuthService
	Request      *RequestService
	Notification *NotificationService
	Overdue      *OverdueService
	Report       *ReportService
}

// NewServices 创建服务集合
func NewServices(repos *repository.Repositories, rdb *redis.Client, n *notifier.Notifier, cfg *config.Config, logger *zap.Logger) *Services {
	return &Services{
		Auth:         NewAuthService(repos.Profile, rdb, cfg),
		Request:      NewRequestService(repos.Request, n, logger),
		Notification: NewNotificationService(repos.Notification),
		Overdue:      NewOverdueService(repos.Request, repos.Profile, repos.Notification, n, logger),
		Report:       NewReportService(repos.Request),
	}
}
