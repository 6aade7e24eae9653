package sender

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rgbportal/fboauthorization/internal/notification/domain"
	"github.com/rgbportal/fboauthorization/pkg/logger"
)

// WebhookSender 把通知 POST 到运维侧回调地址。未配置地址时退化为日志输出。
type WebhookSender struct {
	url    string
	client *http.Client
}

// NewWebhookSender 创建 Webhook 发送器
func NewWebhookSender(url string) *WebhookSender {
	return &WebhookSender{
		url: url,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Channel 渠道标识
func (s *WebhookSender) Channel() domain.Channel {
	return domain.ChannelWebhook
}

// Send 推送通知
func (s *WebhookSender) Send(ctx context.Context, notification *domain.Notification) error {
	if s.url == "" {
		logger.Info(ctx, "Webhook sender in dry-run mode",
			"recipient_role", notification.RecipientRole,
			"subject", notification.Subject,
		)
		return nil
	}

	payload, err := json.Marshal(map[string]interface{}{
		"application_id": notification.ApplicationID,
		"recipient_role": notification.RecipientRole,
		"subject":        notification.Subject,
		"body":           notification.Body,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
