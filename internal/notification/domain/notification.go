// Package domain 通知服务的领域模型
package domain

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// ErrRecordNotFound 记录不存在
var ErrRecordNotFound = errors.New("record not found")

// Channel 通知渠道
type Channel string

const (
	// ChannelEmail 邮件
	ChannelEmail Channel = "EMAIL"
	// ChannelSMS 短信
	ChannelSMS Channel = "SMS"
	// ChannelWebhook Webhook 回调
	ChannelWebhook Channel = "WEBHOOK"
)

// 通知状态
const (
	StatusPending = "PENDING"
	StatusSent    = "SENT"
	StatusFailed  = "FAILED"
)

// Notification 一条待发通知
type Notification struct {
	gorm.Model
	ApplicationID int64   `gorm:"index;not null;comment:业务申请ID" json:"application_id"`
	RecipientID   string  `gorm:"index;type:varchar(64);comment:接收人用户ID" json:"recipient_id,omitempty"`
	RecipientRole string  `gorm:"type:varchar(32);comment:接收角色" json:"recipient_role,omitempty"`
	Channel       Channel `gorm:"type:varchar(16);not null;comment:渠道" json:"channel"`
	Subject       string  `gorm:"type:varchar(255);not null;comment:标题" json:"subject"`
	Body          string  `gorm:"type:text;not null;comment:内容" json:"body"`
	Status        string  `gorm:"type:varchar(16);index;not null;default:PENDING" json:"status"`
	Attempts      int     `gorm:"not null;default:0;comment:发送尝试次数" json:"attempts"`
	LastError     string  `gorm:"type:text;comment:最近一次失败原因" json:"last_error,omitempty"`
	SentAt        *time.Time `gorm:"comment:发送时间" json:"sent_at,omitempty"`
}

// TableName 指定表名
func (Notification) TableName() string {
	return "notifications"
}

// MarkSent 标记发送成功
func (n *Notification) MarkSent() {
	now := time.Now()
	n.Status = StatusSent
	n.SentAt = &now
	n.LastError = ""
}

// MarkFailed 标记发送失败
func (n *Notification) MarkFailed(err error) {
	n.Status = StatusFailed
	n.LastError = err.Error()
}

// Sender 渠道发送器
type Sender interface {
	// Channel 发送器负责的渠道
	Channel() Channel
	// Send 发送通知
	Send(ctx context.Context, notification *Notification) error
}

// NotificationRepository 通知仓储
type NotificationRepository interface {
	Save(ctx context.Context, notification *Notification) error
	ListByRecipient(ctx context.Context, recipientID string, offset, limit int) ([]Notification, int64, error)
	ListByApplication(ctx context.Context, applicationID int64, offset, limit int) ([]Notification, int64, error)
}
