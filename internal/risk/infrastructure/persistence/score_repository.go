// Package persistence 风险评估服务的 GORM 仓储实现
package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/rgbportal/fboauthorization/internal/risk/domain"
	"gorm.io/gorm"
)

// ScoreRepositoryImpl 风险评分仓储 GORM 实现
type ScoreRepositoryImpl struct {
	db *gorm.DB
}

// NewScoreRepository 创建风险评分仓储
func NewScoreRepository(db *gorm.DB) domain.ScoreRepository {
	return &ScoreRepositoryImpl{db: db}
}

// Save 新建或更新评分
func (r *ScoreRepositoryImpl) Save(ctx context.Context, score *domain.RiskScore) error {
	return r.db.WithContext(ctx).Save(score).Error
}

// GetByApplicationID 按申请 ID 查询评分
func (r *ScoreRepositoryImpl) GetByApplicationID(ctx context.Context, applicationID int64) (*domain.RiskScore, error) {
	var score domain.RiskScore
	err := r.db.WithContext(ctx).Where("application_id = ?", applicationID).First(&score).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, err
	}
	return &score, nil
}

// ListByBucket 按分档查询，评分高的在前
func (r *ScoreRepositoryImpl) ListByBucket(ctx context.Context, bucket domain.RiskBucket, offset, limit int) ([]domain.RiskScore, int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.RiskScore{})
	if bucket != "" {
		query = query.Where("bucket = ?", bucket)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var scores []domain.RiskScore
	err := query.Order("score DESC").Offset(offset).Limit(limit).Find(&scores).Error
	if err != nil {
		return nil, 0, err
	}
	return scores, total, nil
}

// AuditRepositoryImpl 审计轨迹仓储 GORM 实现
type AuditRepositoryImpl struct {
	db *gorm.DB
}

// NewAuditRepository 创建审计轨迹仓储
func NewAuditRepository(db *gorm.DB) domain.AuditRepository {
	return &AuditRepositoryImpl{db: db}
}

// Create 追加审计条目，唯一索引冲突映射为 ErrDuplicateEntry
func (r *AuditRepositoryImpl) Create(ctx context.Context, entry *domain.AuditEntry) error {
	err := r.db.WithContext(ctx).Create(entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "Duplicate entry") {
			return domain.ErrDuplicateEntry
		}
		return err
	}
	return nil
}

// ListByApplication 申请的审计轨迹，按发生时间正序
func (r *AuditRepositoryImpl) ListByApplication(ctx context.Context, applicationID int64, offset, limit int) ([]domain.AuditEntry, int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.AuditEntry{}).Where("application_id = ?", applicationID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []domain.AuditEntry
	err := query.Order("occurred_at ASC").Offset(offset).Limit(limit).Find(&entries).Error
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}
