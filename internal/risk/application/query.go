package application

import (
	"context"
	"errors"
	"time"

	"github.com/rgbportal/fboauthorization/internal/risk/domain"
	"github.com/rgbportal/fboauthorization/pkg/cache"
	"github.com/rgbportal/fboauthorization/pkg/logger"
	"github.com/rgbportal/fboauthorization/pkg/utils"
)

const scoreCacheTTL = 5 * time.Minute

// ScoreListView 评分分页列表
type ScoreListView struct {
	Items      []domain.RiskScore `json:"items"`
	Pagination *utils.Pagination  `json:"pagination"`
}

// AuditListView 审计轨迹分页列表
type AuditListView struct {
	Items      []domain.AuditEntry `json:"items"`
	Pagination *utils.Pagination   `json:"pagination"`
}

// QueryService 风险读服务，评分读路径带 Redis 缓存
type QueryService struct {
	scoreRepo domain.ScoreRepository
	auditRepo domain.AuditRepository
	cache     *cache.RedisCache
}

// NewQueryService 创建风险读服务
func NewQueryService(scoreRepo domain.ScoreRepository, auditRepo domain.AuditRepository, redisCache *cache.RedisCache) *QueryService {
	return &QueryService{
		scoreRepo: scoreRepo,
		auditRepo: auditRepo,
		cache:     redisCache,
	}
}

// GetScore 申请的风险评分，先读缓存
func (s *QueryService) GetScore(ctx context.Context, applicationID int64) (*domain.RiskScore, error) {
	key := scoreCacheKey(applicationID)

	if s.cache != nil {
		var cached domain.RiskScore
		hit, err := s.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			logger.Warn(ctx, "Risk score cache read failed", "application_id", applicationID, "error", err)
		} else if hit {
			return &cached, nil
		}
	}

	score, err := s.scoreRepo.GetByApplicationID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, err
	}

	// 读路径重算，让停留天数即时反映到评分里
	score.Recompute()

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, score, scoreCacheTTL); err != nil {
			logger.Warn(ctx, "Risk score cache write failed", "application_id", applicationID, "error", err)
		}
	}
	return score, nil
}

// ListByBucket 按分档查询评分，供审查队列排序参考
func (s *QueryService) ListByBucket(ctx context.Context, bucket domain.RiskBucket, page, pageSize int) (*ScoreListView, error) {
	pagination := utils.NewPagination(page, pageSize, 0)
	scores, total, err := s.scoreRepo.ListByBucket(ctx, bucket, pagination.Offset(), pagination.Limit())
	if err != nil {
		return nil, err
	}
	return &ScoreListView{
		Items:      scores,
		Pagination: utils.NewPagination(page, pageSize, total),
	}, nil
}

// ListAudit 申请的完整审计轨迹
func (s *QueryService) ListAudit(ctx context.Context, applicationID int64, page, pageSize int) (*AuditListView, error) {
	pagination := utils.NewPagination(page, pageSize, 0)
	entries, total, err := s.auditRepo.ListByApplication(ctx, applicationID, pagination.Offset(), pagination.Limit())
	if err != nil {
		return nil, err
	}
	return &AuditListView{
		Items:      entries,
		Pagination: utils.NewPagination(page, pageSize, total),
	}, nil
}
