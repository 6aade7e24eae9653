// Package sender 通知渠道发送器实现
package sender

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/rgbportal/fboauthorization/internal/notification/domain"
	"github.com/rgbportal/fboauthorization/pkg/logger"
)

// EmailSender SMTP 邮件发送器。未配置 SMTP 地址时退化为日志输出，方便本地联调。
type EmailSender struct {
	host     string
	port     int
	username string
	password string
	from     string
}

// NewEmailSender 创建邮件发送器
func NewEmailSender(host string, port int, username, password, from string) *EmailSender {
	return &EmailSender{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

// Channel 渠道标识
func (s *EmailSender) Channel() domain.Channel {
	return domain.ChannelEmail
}

// Send 发送邮件
func (s *EmailSender) Send(ctx context.Context, notification *domain.Notification) error {
	if s.host == "" {
		logger.Info(ctx, "Email sender in dry-run mode",
			"recipient", notification.RecipientID,
			"subject", notification.Subject,
		)
		return nil
	}

	// 收件地址由网关侧用户目录解析，这里按用户 ID 寻址
	to := notification.RecipientID
	msg := strings.Join([]string{
		"From: " + s.from,
		"To: " + to,
		"Subject: " + notification.Subject,
		"",
		notification.Body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	auth := smtp.PlainAuth("", s.username, s.password, s.host)
	return smtp.SendMail(addr, auth, s.from, []string{to}, []byte(msg))
}
