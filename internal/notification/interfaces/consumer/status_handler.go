// Package consumer 通知服务的 Kafka 消费端
package consumer

import (
	"context"

	"github.com/rgbportal/fboauthorization/internal/notification/application"
	"github.com/rgbportal/fboauthorization/pkg/logger"
	"github.com/rgbportal/fboauthorization/pkg/mq"
)

// TopicApplicationStatusChanged 订阅的状态变更主题
const TopicApplicationStatusChanged = "application.status.changed"

// StatusChangedHandler 消费状态变更事件并分发通知
type StatusChangedHandler struct {
	dispatch *application.DispatchService
}

// NewStatusChangedHandler 创建处理器
func NewStatusChangedHandler(dispatch *application.DispatchService) *StatusChangedHandler {
	return &StatusChangedHandler{dispatch: dispatch}
}

// Handle 处理单条消息
func (h *StatusChangedHandler) Handle(ctx context.Context, msg *mq.Message) error {
	var event application.StatusChangedEvent
	if err := msg.UnmarshalPayload(&event); err != nil {
		logger.Error(ctx, "Failed to decode status changed event", "error", err)
		return err
	}
	return h.dispatch.HandleStatusChanged(ctx, event)
}
