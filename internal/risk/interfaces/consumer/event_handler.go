// Package consumer 风险评估服务的 Kafka 消费端
package consumer

import (
	"context"

	"github.com/rgbportal/fboauthorization/internal/risk/application"
	"github.com/rgbportal/fboauthorization/pkg/logger"
	"github.com/rgbportal/fboauthorization/pkg/mq"
)

// 订阅的工作流主题
const (
	TopicApplicationSubmitted     = "application.submitted"
	TopicApplicationStatusChanged = "application.status.changed"
	TopicDocumentUploaded         = "document.uploaded"
)

// Topics 本服务订阅的全部主题
var Topics = []string{
	TopicApplicationSubmitted,
	TopicApplicationStatusChanged,
	TopicDocumentUploaded,
}

// WorkflowEventHandler 按主题分发工作流事件到投影服务
type WorkflowEventHandler struct {
	projection *application.ProjectionService
}

// NewWorkflowEventHandler 创建处理器
func NewWorkflowEventHandler(projection *application.ProjectionService) *WorkflowEventHandler {
	return &WorkflowEventHandler{projection: projection}
}

// Handle 处理单条消息
func (h *WorkflowEventHandler) Handle(ctx context.Context, msg *mq.Message) error {
	switch msg.Topic {
	case TopicApplicationSubmitted:
		return h.projection.HandleSubmittedMessage(ctx, msg)
	case TopicApplicationStatusChanged:
		return h.projection.HandleStatusChangedMessage(ctx, msg)
	case TopicDocumentUploaded:
		return h.projection.HandleDocumentUploadedMessage(ctx, msg)
	default:
		logger.Warn(ctx, "Unexpected topic in risk consumer", "topic", msg.Topic)
		return nil
	}
}
