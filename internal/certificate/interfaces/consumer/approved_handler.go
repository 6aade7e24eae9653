// Package consumer 证书服务的 Kafka 消费端
package consumer

import (
	"context"

	"github.com/rgbportal/fboauthorization/internal/certificate/application"
	"github.com/rgbportal/fboauthorization/pkg/logger"
	"github.com/rgbportal/fboauthorization/pkg/mq"
)

// TopicApplicationApproved 订阅的批准主题
const TopicApplicationApproved = "application.approved"

// ApprovedHandler 消费 application.approved 并签发证书
type ApprovedHandler struct {
	service *application.CertificateService
}

// NewApprovedHandler 创建处理器
func NewApprovedHandler(service *application.CertificateService) *ApprovedHandler {
	return &ApprovedHandler{service: service}
}

// Handle 处理单条消息
func (h *ApprovedHandler) Handle(ctx context.Context, msg *mq.Message) error {
	var event application.ApplicationApprovedEvent
	if err := msg.UnmarshalPayload(&event); err != nil {
		logger.Error(ctx, "Failed to decode application.approved event", "error", err)
		return err
	}

	logger.Info(ctx, "Application approved event received",
		"application_id", event.ApplicationID,
		"org_name", event.OrgName,
	)
	return h.service.IssueForApplication(ctx, event)
}
