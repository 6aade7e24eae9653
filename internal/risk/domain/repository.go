package domain

import (
	"context"
	"errors"
)

// ErrRecordNotFound 记录不存在
var ErrRecordNotFound = errors.New("record not found")

// ErrDuplicateEntry 唯一索引冲突，同一事件被重复投影
var ErrDuplicateEntry = errors.New("duplicate audit entry")

// ScoreRepository 风险评分仓储
type ScoreRepository interface {
	Save(ctx context.Context, score *RiskScore) error
	GetByApplicationID(ctx context.Context, applicationID int64) (*RiskScore, error)
	ListByBucket(ctx context.Context, bucket RiskBucket, offset, limit int) ([]RiskScore, int64, error)
}

// AuditRepository 审计轨迹仓储，只增不改
type AuditRepository interface {
	// Create 追加审计条目，重复投影返回 ErrDuplicateEntry
	Create(ctx context.Context, entry *AuditEntry) error
	ListByApplication(ctx context.Context, applicationID int64, offset, limit int) ([]AuditEntry, int64, error)
}
