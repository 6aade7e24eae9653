package persistence

import (
	"context"

	"github.com/rgbportal/fboauthorization/internal/workflow/domain"
	"gorm.io/gorm"
)

// OutboxRepositoryImpl 发件箱仓储 GORM 实现
type OutboxRepositoryImpl struct {
	db *gorm.DB
}

// NewOutboxRepository 创建发件箱仓储
func NewOutboxRepository(db *gorm.DB) domain.OutboxRepository {
	return &OutboxRepositoryImpl{db: db}
}

// FetchPending 按创建顺序取待投递消息
func (r *OutboxRepositoryImpl) FetchPending(ctx context.Context, limit int) ([]domain.OutboxMessage, error) {
	var messages []domain.OutboxMessage
	err := r.db.WithContext(ctx).
		Where("status = ?", domain.OutboxStatusPending).
		Order("id ASC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// MarkPublished 标记已投递
func (r *OutboxRepositoryImpl) MarkPublished(ctx context.Context, msg *domain.OutboxMessage) error {
	msg.MarkPublished()
	return r.db.WithContext(ctx).Model(msg).
		Updates(map[string]interface{}{
			"status":       msg.Status,
			"published_at": msg.PublishedAt,
		}).Error
}

// IncrementRetry 记录一次投递失败
func (r *OutboxRepositoryImpl) IncrementRetry(ctx context.Context, msg *domain.OutboxMessage) error {
	msg.RetryCount++
	return r.db.WithContext(ctx).Model(msg).
		Update("retry_count", msg.RetryCount).Error
}
