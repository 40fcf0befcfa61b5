package entity

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// Notification type values
const (
	NotificationInfo    = "info"
	NotificationWarning = "warning"
)

// Outbox email status values
const (
	OutboxPending = "pending"
	OutboxSent    = "sent"
	OutboxFailed  = "failed"
)

type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, j)
}

// StringList jsonb字符串数组
type StringList []string

func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

func (s *StringList) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, s)
}

// Notification 站内通知 —— also the per-day dedup ledger for overdue warnings
type Notification struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	UserID    string    `json:"user_id" gorm:"size:32;not null;index"`
	Title     string    `json:"title" gorm:"size:200;not null"`
	Message   string    `json:"message" gorm:"type:text"`
	Type      string    `json:"type" gorm:"size:16;not null;default:info"`
	Data      JSONB     `json:"data" gorm:"type:jsonb"`
	Read      bool      `json:"read" gorm:"not null;default:false"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

func (Notification) TableName() string {
	return "notifications"
}

// OutboxEmail 待发邮件 —— the decoupled at-least-once send queue
type OutboxEmail struct {
	ID         string     `json:"id" gorm:"primaryKey;size:32"`
	EventType  string     `json:"event_type" gorm:"size:40;not null"`
	Recipients StringList `json:"recipients" gorm:"type:jsonb;not null"`
	Subject    string     `json:"subject" gorm:"size:300;not null"`
	Body       string     `json:"body" gorm:"type:text;not null"`
	Status     string     `json:"status" gorm:"size:16;not null;default:pending;index"`
	Attempts   int        `json:"attempts" gorm:"not null;default:0"`
	LastError  string     `json:"last_error" gorm:"type:text"`
	CreatedAt  time.Time  `json:"created_at"`
	SentAt     *time.Time `json:"sent_at"`
}

func (OutboxEmail) TableName() string {
	return "email_outbox"
}
