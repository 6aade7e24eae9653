// Package persistence 通知服务的 GORM 仓储实现
package persistence

import (
	"context"

	"github.com/rgbportal/fboauthorization/internal/notification/domain"
	"gorm.io/gorm"
)

// NotificationRepositoryImpl 通知仓储 GORM 实现
type NotificationRepositoryImpl struct {
	db *gorm.DB
}

// NewNotificationRepository 创建通知仓储
func NewNotificationRepository(db *gorm.DB) domain.NotificationRepository {
	return &NotificationRepositoryImpl{db: db}
}

// Save 新建或更新通知
func (r *NotificationRepositoryImpl) Save(ctx context.Context, notification *domain.Notification) error {
	return r.db.WithContext(ctx).Save(notification).Error
}

// ListByRecipient 某接收人的通知，新的在前
func (r *NotificationRepositoryImpl) ListByRecipient(ctx context.Context, recipientID string, offset, limit int) ([]domain.Notification, int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.Notification{}).Where("recipient_id = ?", recipientID)
	return r.page(query, offset, limit)
}

// ListByApplication 某申请的通知，新的在前
func (r *NotificationRepositoryImpl) ListByApplication(ctx context.Context, applicationID int64, offset, limit int) ([]domain.Notification, int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.Notification{}).Where("application_id = ?", applicationID)
	return r.page(query, offset, limit)
}

func (r *NotificationRepositoryImpl) page(query *gorm.DB, offset, limit int) ([]domain.Notification, int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []domain.Notification
	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
