package repository

import (
	"errors"

	"gorm.io/gorm"
)

// 错误定义
var (
	ErrNotFound = errors.New("record not found")
	// ErrStaleWrite is returned when an optimistic version check fails:
	// the row changed since the caller's snapshot was read.
	ErrStaleWrite = errors.New("stale write: request was modified concurrently")
)

// Repositories 仓库集合
type Repositories struct {
	Profile      *ProfileRepository
	Request      *RequestRepository
	Notification *NotificationRepository
	Outbox       *OutboxRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Profile:      NewProfileRepository(db),
		Request:      NewRequestRepository(db),
		Notification: NewNotificationRepository(db),
		Outbox:       NewOutboxRepository(db),
	}
}
