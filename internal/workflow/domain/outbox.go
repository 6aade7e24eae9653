package domain

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// Outbox 消息状态
const (
	OutboxStatusPending   = "PENDING"
	OutboxStatusPublished = "PUBLISHED"
)

// OutboxMessage 事务发件箱条目。与业务写入同事务落库，
// 由后台中继投递到 Kafka，保证至少一次送达。
type OutboxMessage struct {
	gorm.Model
	Topic       string     `gorm:"type:varchar(128);not null;comment:Kafka主题" json:"topic"`
	MessageKey  string     `gorm:"type:varchar(128);not null;comment:分区键" json:"message_key"`
	Payload     []byte     `gorm:"type:json;not null;comment:事件内容" json:"payload"`
	Status      string     `gorm:"type:varchar(16);index;not null;default:PENDING" json:"status"`
	RetryCount  int        `gorm:"not null;default:0;comment:投递重试次数" json:"retry_count"`
	PublishedAt *time.Time `gorm:"comment:投递时间" json:"published_at,omitempty"`
}

// TableName 指定表名
func (OutboxMessage) TableName() string {
	return "workflow_outbox"
}

// NewOutboxMessage 序列化事件并生成发件箱条目
func NewOutboxMessage(topic, key string, event interface{}) (*OutboxMessage, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	return &OutboxMessage{
		Topic:      topic,
		MessageKey: key,
		Payload:    payload,
		Status:     OutboxStatusPending,
	}, nil
}

// MarkPublished 标记已投递
func (m *OutboxMessage) MarkPublished() {
	now := time.Now()
	m.Status = OutboxStatusPublished
	m.PublishedAt = &now
}
