package service

import (
	"context"
	"fmt"
	"time"

	"github.com/fieldstack/matflow/internal/lifecycle"
	"github.com/fieldstack/matflow/internal/model/entity"
	"github.com/fieldstack/matflow/internal/notifier"
	"github.com/fieldstack/matflow/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OverdueService 退料逾期扫描服务。每日一跑：给收货后迟迟没有MRC编号
// 的退料行发站内警告，满一周再追加邮件提醒。
type OverdueService struct {
	requests      *repository.RequestRepository
	profiles      *repository.ProfileRepository
	notifications *repository.NotificationRepository
	notifier      *notifier.Notifier
	logger        *zap.Logger

	now func() time.Time
}

// NewOverdueService 创建退料逾期扫描服务
func NewOverdueService(
	requests *repository.RequestRepository,
	profiles *repository.ProfileRepository,
	notifications *repository.NotificationRepository,
	n *notifier.Notifier,
	logger *zap.Logger,
) *OverdueService {
	return &OverdueService{
		requests:      requests,
		profiles:      profiles,
		notifications: notifications,
		notifier:      n,
		logger:        logger,
		now:           time.Now,
	}
}

// CheckResult 一次扫描的汇总
type CheckResult struct {
	OverdueCount      int `json:"overdue_count"`
	NotificationsSent int `json:"notifications_sent"`
}

// RunCheck scans every MRC request stuck in mrc-needed and warns the store
// managers of its zone about each received item still missing an MRC number.
// In-app warnings are deduped to one per (request, item, user) per day; the
// email reminder goes out only on whole-week marks.
func (s *OverdueService) RunCheck(ctx context.Context) (*CheckResult, error) {
	requests, err := s.requests.ListByStatus(ctx, entity.RequestTypeMRC, entity.StatusMRCNeeded)
	if err != nil {
		return nil, fmt.Errorf("list mrc-needed requests: %w", err)
	}

	now := s.now()
	result := &CheckResult{}

	for i := range requests {
		req := &requests[i]

		managers, err := s.profiles.FindByDepartmentZone(ctx, entity.DeptStoreManager, req.Zone)
		if err != nil {
			s.logger.Error("overdue scan: store manager lookup failed",
				zap.String("request_id", req.ID),
				zap.Error(err))
			continue
		}

		for _, item := range lifecycle.PendingMRCItems(req.Items) {
			days := lifecycle.DaysSinceReceived(*item.ReceivedAt, now)
			warn := lifecycle.ClassifyOverdue(days)
			if warn == lifecycle.WarnNone {
				continue
			}
			if warn == lifecycle.WarnOverdue {
				result.OverdueCount++
			}

			sent := s.warnItem(ctx, req, item, managers, warn, days, now)
			result.NotificationsSent += sent

			if lifecycle.ShouldAutoNotify(days) {
				recipients := make([]string, 0, len(managers))
				for _, m := range managers {
					recipients = append(recipients, m.Email)
				}
				s.notifier.NotifyOverdue(ctx, recipients, notifier.RequestMeta{
					ID:           req.ID,
					Title:        req.Title,
					TicketNumber: req.TicketNumber,
					Zone:         req.Zone,
					RequestedBy:  req.RequestedBy,
				}, item.Description, days)
			}
		}
	}

	s.logger.Info("overdue scan finished",
		zap.Int("overdue", result.OverdueCount),
		zap.Int("notifications", result.NotificationsSent))
	return result, nil
}

// warnItem inserts one in-app warning per store manager, skipping anyone
// already warned about this item today.
func (s *OverdueService) warnItem(ctx context.Context, req *entity.MaterialRequest, item entity.MaterialItem, managers []entity.Profile, warn string, days int, now time.Time) int {
	var title, message string
	if warn == lifecycle.WarnOverdue {
		title = fmt.Sprintf("MRC overdue: %s", req.Code())
		message = fmt.Sprintf("%q was received %d days ago and still has no MRC number.", item.Description, days)
	} else {
		title = fmt.Sprintf("MRC due soon: %s", req.Code())
		message = fmt.Sprintf("%q was received %d days ago; an MRC number is due by day %d.", item.Description, days, lifecycle.OverdueAfterDays)
	}

	sent := 0
	for _, m := range managers {
		exists, err := s.notifications.ExistsForItemToday(ctx, req.ID, item.ID, m.ID, now)
		if err != nil {
			s.logger.Error("overdue scan: dedup lookup failed",
				zap.String("request_id", req.ID),
				zap.String("user_id", m.ID),
				zap.Error(err))
			continue
		}
		if exists {
			continue
		}

		n := &entity.Notification{
			ID:      uuid.New().String()[:32],
			UserID:  m.ID,
			Title:   title,
			Message: message,
			Type:    entity.NotificationWarning,
			Data: entity.JSONB{
				"request_id": req.ID,
				"item_id":    item.ID,
				"days":       days,
				"level":      warn,
			},
			CreatedAt: now,
		}
		if err := s.notifications.Create(ctx, n); err != nil {
			s.logger.Error("overdue scan: notification insert failed",
				zap.String("request_id", req.ID),
				zap.String("user_id", m.ID),
				zap.Error(err))
			continue
		}
		sent++
	}
	return sent
}
