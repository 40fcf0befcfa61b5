package service

import (
	"context"
	"testing"
	"time"

	"github.com/fieldstack/matflow/internal/model/entity"
	"github.com/fieldstack/matflow/internal/notifier"
	"github.com/fieldstack/matflow/internal/repository"
	"github.com/fieldstack/matflow/internal/testutil"
	"go.uber.org/zap"
)

func seedMRCNeedingNumbers(t *testing.T, repos *repository.Repositories, receivedAt time.Time) *entity.MaterialRequest {
	t.Helper()
	req := &entity.MaterialRequest{
		ID:          "mrc-overdue-001",
		Title:       "Switch return",
		RequestType: entity.RequestTypeMRC,
		Items: entity.MaterialItems{
			{ID: "item-1", Description: "Old switch", ReceivedAt: &receivedAt},
		},
		RequestedBy: "Test Engineer",
		RequesterID: "test-eng-001",
		Zone:        "north",
		Status:      entity.StatusMRCNeeded,
		Version:     1,
		CreatedAt:   receivedAt,
		UpdatedAt:   receivedAt,
	}
	if err := repos.Request.Create(context.Background(), req); err != nil {
		t.Fatalf("seed request: %v", err)
	}
	return req
}

func TestOverdueScanWarnsOncePerDay(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	sm := testutil.SeedProfile(t, db, "sm-001", "SM One", "sm1@test.com", entity.DeptStoreManager, "north")

	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	seedMRCNeedingNumbers(t, repos, now.AddDate(0, 0, -8))

	n := notifier.NewNotifier(repos.Profile, repos.Outbox, zap.NewNop())
	svc := NewOverdueService(repos.Request, repos.Profile, repos.Notification, n, zap.NewNop())
	svc.now = func() time.Time { return now }

	result, err := svc.RunCheck(context.Background())
	if err != nil {
		t.Fatalf("RunCheck: %v", err)
	}
	if result.OverdueCount != 1 {
		t.Errorf("Expected 1 overdue item, got %d", result.OverdueCount)
	}
	if result.NotificationsSent != 1 {
		t.Errorf("Expected 1 notification, got %d", result.NotificationsSent)
	}

	notifications, _, err := repos.Notification.ListByUser(context.Background(), sm.ID, 0, 0)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(notifications) != 1 {
		t.Fatalf("Expected 1 stored notification, got %d", len(notifications))
	}
	if notifications[0].Type != entity.NotificationWarning {
		t.Errorf("Expected warning type, got %s", notifications[0].Type)
	}

	// A second run the same day is suppressed
	result, err = svc.RunCheck(context.Background())
	if err != nil {
		t.Fatalf("RunCheck second pass: %v", err)
	}
	if result.NotificationsSent != 0 {
		t.Errorf("Expected dedup to suppress repeat warnings, got %d", result.NotificationsSent)
	}

	// Day 8 is not a whole-week mark, so no email was enqueued
	batch, err := repos.Outbox.NextBatch(context.Background(), 10)
	if err != nil {
		t.Fatalf("outbox batch: %v", err)
	}
	if len(batch) != 0 {
		t.Errorf("Expected no queued emails on day 8, got %d", len(batch))
	}
}

func TestOverdueScanQueuesWeeklyEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	testutil.SeedProfile(t, db, "sm-001", "SM One", "sm1@test.com", entity.DeptStoreManager, "north")

	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	seedMRCNeedingNumbers(t, repos, now.AddDate(0, 0, -14))

	n := notifier.NewNotifier(repos.Profile, repos.Outbox, zap.NewNop())
	svc := NewOverdueService(repos.Request, repos.Profile, repos.Notification, n, zap.NewNop())
	svc.now = func() time.Time { return now }

	if _, err := svc.RunCheck(context.Background()); err != nil {
		t.Fatalf("RunCheck: %v", err)
	}

	batch, err := repos.Outbox.NextBatch(context.Background(), 10)
	if err != nil {
		t.Fatalf("outbox batch: %v", err)
	}
	if len(batch) != 1 {
		t.Fatalf("Expected 1 queued email on day 14, got %d", len(batch))
	}
	if batch[0].EventType != string(notifier.EventMRCOverdue) {
		t.Errorf("Expected %s event, got %s", notifier.EventMRCOverdue, batch[0].EventType)
	}
	if len(batch[0].Recipients) != 1 || batch[0].Recipients[0] != "sm1@test.com" {
		t.Errorf("Expected store manager recipient, got %v", batch[0].Recipients)
	}
}
