// Package application 风险评估服务的应用层：事件投影与评分读服务
package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rgbportal/fboauthorization/internal/risk/domain"
	"github.com/rgbportal/fboauthorization/pkg/cache"
	"github.com/rgbportal/fboauthorization/pkg/logger"
	"github.com/rgbportal/fboauthorization/pkg/mq"
)

// 工作流事件的本地投影视图，字段与上游负载保持一致
type applicationSubmittedEvent struct {
	ApplicationID int64     `json:"application_id"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

type applicationStatusChangedEvent struct {
	ApplicationID int64     `json:"application_id"`
	FromStatus    string    `json:"from_status"`
	ToStatus      string    `json:"to_status"`
	ActorID       string    `json:"actor_id"`
	ActorRole     string    `json:"actor_role"`
	Comment       string    `json:"comment"`
	OccurredAt    time.Time `json:"occurred_at"`
}

type documentUploadedEvent struct {
	ApplicationID int64  `json:"application_id"`
	DocumentType  string `json:"document_type"`
	Reupload      bool   `json:"reupload"`
}

// 上游状态字面量，只认评分关心的两个
const (
	statusReturned = "PASTOR_DOCUMENT"
	statusRejected = "REJECTED"
)

// 选交材料类型
const docTypeFinancialStatement = "FINANCIAL_STATEMENT"

// ProjectionService 把工作流事件投影为审计轨迹与风险评分。
// 事件至少一次投递，所有写路径幂等。
type ProjectionService struct {
	scoreRepo domain.ScoreRepository
	auditRepo domain.AuditRepository
	cache     *cache.RedisCache
}

// NewProjectionService 创建投影服务
func NewProjectionService(scoreRepo domain.ScoreRepository, auditRepo domain.AuditRepository, redisCache *cache.RedisCache) *ProjectionService {
	return &ProjectionService{
		scoreRepo: scoreRepo,
		auditRepo: auditRepo,
		cache:     redisCache,
	}
}

// HandleSubmitted 新申请：建立初始评分。选交的财务报表尚未上传，计一项缺失。
func (s *ProjectionService) HandleSubmitted(ctx context.Context, event applicationSubmittedEvent) error {
	existing, err := s.scoreRepo.GetByApplicationID(ctx, event.ApplicationID)
	if err != nil && !errors.Is(err, domain.ErrRecordNotFound) {
		return err
	}
	if existing != nil {
		return nil
	}

	score := domain.NewRiskScore(event.ApplicationID)
	score.MissingOptional = 1
	score.Recompute()

	if err := s.scoreRepo.Save(ctx, score); err != nil {
		return err
	}
	logger.Info(ctx, "Initial risk score created",
		"application_id", event.ApplicationID,
		"score", score.Score,
		"bucket", score.Bucket,
	)
	return nil
}

// HandleStatusChanged 状态变更：落审计条目并按需重算评分。
// 审计表的唯一索引保证同一次转移只计一次。
func (s *ProjectionService) HandleStatusChanged(ctx context.Context, event applicationStatusChangedEvent) error {
	entry := &domain.AuditEntry{
		ApplicationID: event.ApplicationID,
		FromStatus:    event.FromStatus,
		ToStatus:      event.ToStatus,
		ActorID:       event.ActorID,
		ActorRole:     event.ActorRole,
		Comment:       event.Comment,
		OccurredAt:    event.OccurredAt,
	}
	if err := s.auditRepo.Create(ctx, entry); err != nil {
		if errors.Is(err, domain.ErrDuplicateEntry) {
			return nil
		}
		return err
	}

	score, err := s.loadOrCreateScore(ctx, event.ApplicationID)
	if err != nil {
		return err
	}
	score.EnterStage(event.OccurredAt)
	switch event.ToStatus {
	case statusReturned:
		score.Returns++
	case statusRejected:
		score.Rejections++
	}
	return s.saveAndInvalidate(ctx, score)
}

// HandleDocumentUploaded 材料上传：重新上传计入评分，财务报表补齐后去掉缺失项
func (s *ProjectionService) HandleDocumentUploaded(ctx context.Context, event documentUploadedEvent) error {
	if !event.Reupload && event.DocumentType != docTypeFinancialStatement {
		return nil
	}

	score, err := s.loadOrCreateScore(ctx, event.ApplicationID)
	if err != nil {
		return err
	}
	if event.Reupload {
		score.Reuploads++
	}
	if event.DocumentType == docTypeFinancialStatement {
		score.MissingOptional = 0
	}
	return s.saveAndInvalidate(ctx, score)
}

func (s *ProjectionService) loadOrCreateScore(ctx context.Context, applicationID int64) (*domain.RiskScore, error) {
	score, err := s.scoreRepo.GetByApplicationID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return domain.NewRiskScore(applicationID), nil
		}
		return nil, err
	}
	return score, nil
}

func (s *ProjectionService) saveAndInvalidate(ctx context.Context, score *domain.RiskScore) error {
	score.Recompute()
	if err := s.scoreRepo.Save(ctx, score); err != nil {
		return err
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, scoreCacheKey(score.ApplicationID)); err != nil {
			logger.Warn(ctx, "Failed to invalidate risk score cache",
				"application_id", score.ApplicationID,
				"error", err,
			)
		}
	}

	logger.Info(ctx, "Risk score recomputed",
		"application_id", score.ApplicationID,
		"score", score.Score,
		"bucket", score.Bucket,
	)
	return nil
}

func scoreCacheKey(applicationID int64) string {
	return fmt.Sprintf("risk:score:%d", applicationID)
}

// HandleSubmittedMessage 解码并投影 application.submitted
func (s *ProjectionService) HandleSubmittedMessage(ctx context.Context, msg *mq.Message) error {
	var event applicationSubmittedEvent
	if err := msg.UnmarshalPayload(&event); err != nil {
		return err
	}
	return s.HandleSubmitted(ctx, event)
}

// HandleStatusChangedMessage 解码并投影 application.status.changed
func (s *ProjectionService) HandleStatusChangedMessage(ctx context.Context, msg *mq.Message) error {
	var event applicationStatusChangedEvent
	if err := msg.UnmarshalPayload(&event); err != nil {
		return err
	}
	return s.HandleStatusChanged(ctx, event)
}

// HandleDocumentUploadedMessage 解码并投影 document.uploaded
func (s *ProjectionService) HandleDocumentUploadedMessage(ctx context.Context, msg *mq.Message) error {
	var event documentUploadedEvent
	if err := msg.UnmarshalPayload(&event); err != nil {
		return err
	}
	return s.HandleDocumentUploaded(ctx, event)
}
