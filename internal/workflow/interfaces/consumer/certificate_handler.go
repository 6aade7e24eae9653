// Package consumer 工作流服务的 Kafka 消费端
package consumer

import (
	"context"

	"github.com/rgbportal/fboauthorization/internal/workflow/application"
	"github.com/rgbportal/fboauthorization/internal/workflow/domain"
	"github.com/rgbportal/fboauthorization/pkg/logger"
	"github.com/rgbportal/fboauthorization/pkg/mq"
)

// CertificateIssuedHandler 消费 certificate.issued，驱动 APPROVED → CERTIFICATE_ISSUED 收尾。
// 事件至少一次投递，收尾逻辑幂等。
type CertificateIssuedHandler struct {
	commands *application.CommandService
}

// NewCertificateIssuedHandler 创建处理器
func NewCertificateIssuedHandler(commands *application.CommandService) *CertificateIssuedHandler {
	return &CertificateIssuedHandler{commands: commands}
}

// Handle 处理单条消息
func (h *CertificateIssuedHandler) Handle(ctx context.Context, msg *mq.Message) error {
	var event domain.CertificateIssuedEvent
	if err := msg.UnmarshalPayload(&event); err != nil {
		logger.Error(ctx, "Failed to decode certificate.issued event", "error", err)
		return err
	}

	logger.Info(ctx, "Certificate issued event received",
		"application_id", event.ApplicationID,
		"certificate_number", event.CertificateNumber,
	)
	return h.commands.CompleteCertificateIssuance(ctx, event)
}
