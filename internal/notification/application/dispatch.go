// Package application 通知服务的应用层：状态变更事件分发
package application

import (
	"context"
	"fmt"
	"time"

	"github.com/rgbportal/fboauthorization/internal/notification/domain"
	"github.com/rgbportal/fboauthorization/pkg/logger"
	"github.com/rgbportal/fboauthorization/pkg/metrics"
	"github.com/rgbportal/fboauthorization/pkg/utils"
)

// StatusChangedEvent 工作流状态变更事件的本地视图
type StatusChangedEvent struct {
	ApplicationID int64     `json:"application_id"`
	ApplicantID   string    `json:"applicant_id"`
	OrgName       string    `json:"org_name"`
	FromStatus    string    `json:"from_status"`
	ToStatus      string    `json:"to_status"`
	ActorID       string    `json:"actor_id"`
	ActorRole     string    `json:"actor_role"`
	Comment       string    `json:"comment"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// nextReviewerByStatus 新状态的当值处理角色，用于给下一环节发提醒
var nextReviewerByStatus = map[string]string{
	"PENDING":          "FBO_OFFICER",
	"FBO_REVIEW":       "FBO_OFFICER",
	"PASTOR_DOCUMENT":  "APPLICANT",
	"TRANSFER_TO_DM":   "DIVISION_MANAGER",
	"DM_REVIEW":        "DIVISION_MANAGER",
	"TRANSFER_TO_HOD":  "HOD",
	"HOD_REVIEW":       "HOD",
	"TRANSFER_TO_SG":   "SECRETARY_GENERAL",
	"SG_REVIEW":        "SECRETARY_GENERAL",
	"TRANSFER_TO_CEO":  "CEO",
	"CEO_REVIEW":       "CEO",
}

// DispatchService 把状态变更事件展开为通知并逐条发送。
// 发送失败的通知落库为 FAILED，可由运维侧重放，消费不中断。
type DispatchService struct {
	repo    domain.NotificationRepository
	senders map[domain.Channel]domain.Sender
	metrics *metrics.Metrics
}

// NewDispatchService 创建分发服务
func NewDispatchService(repo domain.NotificationRepository, senders []domain.Sender, m *metrics.Metrics) *DispatchService {
	byChannel := make(map[domain.Channel]domain.Sender, len(senders))
	for _, sender := range senders {
		byChannel[sender.Channel()] = sender
	}
	return &DispatchService{
		repo:    repo,
		senders: byChannel,
		metrics: m,
	}
}

// HandleStatusChanged 状态变更：通知申请人，并提醒下一环节的当值角色
func (s *DispatchService) HandleStatusChanged(ctx context.Context, event StatusChangedEvent) error {
	notifications := s.expand(event)

	for _, notification := range notifications {
		s.send(ctx, notification)
		if err := s.repo.Save(ctx, notification); err != nil {
			return err
		}
	}
	return nil
}

// expand 按事件生成通知列表
func (s *DispatchService) expand(event StatusChangedEvent) []*domain.Notification {
	subject := fmt.Sprintf("Application %d: %s", event.ApplicationID, event.ToStatus)
	body := fmt.Sprintf("Application for %q moved from %s to %s.", event.OrgName, event.FromStatus, event.ToStatus)
	if event.Comment != "" {
		body += " Reviewer note: " + event.Comment
	}

	notifications := []*domain.Notification{
		{
			ApplicationID: event.ApplicationID,
			RecipientID:   event.ApplicantID,
			Channel:       domain.ChannelEmail,
			Subject:       subject,
			Body:          body,
			Status:        domain.StatusPending,
		},
	}

	// 下一环节是申请人本人时不再重复提醒
	if role, ok := nextReviewerByStatus[event.ToStatus]; ok && role != "APPLICANT" {
		notifications = append(notifications, &domain.Notification{
			ApplicationID: event.ApplicationID,
			RecipientRole: role,
			Channel:       domain.ChannelWebhook,
			Subject:       subject,
			Body:          fmt.Sprintf("Application %d is waiting for %s action in %s.", event.ApplicationID, role, event.ToStatus),
			Status:        domain.StatusPending,
		})
	}
	return notifications
}

// send 发送单条通知，渠道缺失或重试耗尽时记为 FAILED
func (s *DispatchService) send(ctx context.Context, notification *domain.Notification) {
	sender, ok := s.senders[notification.Channel]
	if !ok {
		notification.MarkFailed(fmt.Errorf("no sender for channel %s", notification.Channel))
		logger.Warn(ctx, "No sender configured for channel",
			"channel", notification.Channel,
			"application_id", notification.ApplicationID,
		)
		return
	}

	err := utils.Retry(3, 500*time.Millisecond, func() error {
		notification.Attempts++
		return sender.Send(ctx, notification)
	})
	if err != nil {
		notification.MarkFailed(err)
		logger.Error(ctx, "Failed to send notification",
			"channel", notification.Channel,
			"application_id", notification.ApplicationID,
			"attempts", notification.Attempts,
			"error", err,
		)
		return
	}

	notification.MarkSent()
	if s.metrics != nil {
		s.metrics.NotificationsSent.Inc()
	}
}

// ListByRecipient 某接收人的通知
func (s *DispatchService) ListByRecipient(ctx context.Context, recipientID string, page, pageSize int) ([]domain.Notification, *utils.Pagination, error) {
	pagination := utils.NewPagination(page, pageSize, 0)
	items, total, err := s.repo.ListByRecipient(ctx, recipientID, pagination.Offset(), pagination.Limit())
	if err != nil {
		return nil, nil, err
	}
	return items, utils.NewPagination(page, pageSize, total), nil
}

// ListByApplication 某申请的通知
func (s *DispatchService) ListByApplication(ctx context.Context, applicationID int64, page, pageSize int) ([]domain.Notification, *utils.Pagination, error) {
	pagination := utils.NewPagination(page, pageSize, 0)
	items, total, err := s.repo.ListByApplication(ctx, applicationID, pagination.Offset(), pagination.Limit())
	if err != nil {
		return nil, nil, err
	}
	return items, utils.NewPagination(page, pageSize, total), nil
}
