package repository

import (
	"context"
	"time"

	"github.com/fieldstack/matflow/internal/model/entity"
	"gorm.io/gorm"
)

// OutboxRepository 邮件发件箱仓库
type OutboxRepository struct {
	db *gorm.DB
}

// NewOutboxRepository 创建邮件发件箱仓库
func NewOutboxRepository(db *gorm.DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

// Enqueue 入队一封待发邮件
func (r *OutboxRepository) Enqueue(ctx context.Context, email *entity.OutboxEmail) error {
	return r.db.WithContext(ctx).Create(email).Error
}

// NextBatch 取出最早的一批待发邮件
func (r *OutboxRepository) NextBatch(ctx context.Context, limit int) ([]entity.OutboxEmail, error) {
	var emails []entity.OutboxEmail
	err := r.db.WithContext(ctx).
		Where("status = ?", entity.OutboxPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&emails).Error
	return emails, err
}

// MarkSent 标记已发送
func (r *OutboxRepository) MarkSent(ctx context.Context, id string) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&entity.OutboxEmail{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":   entity.OutboxSent,
			"sent_at":  now,
			"attempts": gorm.Expr("attempts + 1"),
		}).Error
}

// MarkFailed 记录失败并保留错误信息；行保持pending直到超过重试上限
func (r *OutboxRepository) MarkFailed(ctx context.Context, id string, sendErr error, maxAttempts int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var email entity.OutboxEmail
		if err := tx.Where("id = ?", id).First(&email).Error; err != nil {
			return err
		}
		email.Attempts++
		email.LastError = sendErr.Error()
		if email.Attempts >= maxAttempts {
			email.Status = entity.OutboxFailed
		}
		return tx.Save(&email).Error
	})
}
