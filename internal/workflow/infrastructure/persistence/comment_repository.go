package persistence

import (
	"context"

	"github.com/rgbportal/fboauthorization/internal/workflow/domain"
	"gorm.io/gorm"
)

// CommentRepositoryImpl 审批意见仓储 GORM 实现
type CommentRepositoryImpl struct {
	db *gorm.DB
}

// NewCommentRepository 创建审批意见仓储
func NewCommentRepository(db *gorm.DB) domain.CommentRepository {
	return &CommentRepositoryImpl{db: db}
}

// Create 追加意见
func (r *CommentRepositoryImpl) Create(ctx context.Context, comment *domain.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

// ListByApplication 申请的意见，按留言时间正序
func (r *CommentRepositoryImpl) ListByApplication(ctx context.Context, applicationID int64, offset, limit int) ([]domain.Comment, int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.Comment{}).Where("application_id = ?", applicationID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var comments []domain.Comment
	err := query.Order("written_at ASC").Offset(offset).Limit(limit).Find(&comments).Error
	if err != nil {
		return nil, 0, err
	}
	return comments, total, nil
}
