// Package mq 提供 Kafka producer/consumer 通用实现，支持重试、消费循环与死信队列
package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rgbportal/fboauthorization/pkg/logger"
	"github.com/segmentio/kafka-go"
)

// KafkaConfig Kafka 配置
type KafkaConfig struct {
	Brokers         []string
	GroupID         string
	SessionTimeout  int
	MaxRetries      int
	RetryBackoff    int
	DeadLetterTopic string
}

// KafkaProducer Kafka 生产者
type KafkaProducer struct {
	writer *kafka.Writer
	config KafkaConfig
}

// NewProducer 创建 Kafka 生产者
func NewProducer(cfg KafkaConfig) (*KafkaProducer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("at least one kafka broker is required")
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		AllowAutoTopicCreation: true,
		Compression:            kafka.Gzip,
		RequiredAcks:           kafka.RequireAll,
		MaxAttempts:            cfg.MaxRetries,
		WriteBackoffMin:        time.Duration(cfg.RetryBackoff) * time.Millisecond,
		WriteBackoffMax:        time.Duration(cfg.RetryBackoff*10) * time.Millisecond,
	}

	logger.Info(context.Background(), "Kafka producer created successfully", "brokers", cfg.Brokers)
	return &KafkaProducer{
		writer: writer,
		config: cfg,
	}, nil
}

// SendMessage 发送单条消息，value 会被序列化为 JSON
func (kp *KafkaProducer) SendMessage(ctx context.Context, topic string, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	return kp.SendRaw(ctx, topic, key, data)
}

// SendRaw 发送已序列化的消息体
func (kp *KafkaProducer) SendRaw(ctx context.Context, topic string, key string, value []byte) error {
	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
	}

	if err := kp.writer.WriteMessages(ctx, msg); err != nil {
		logger.Error(ctx, "Failed to send Kafka message",
			"topic", topic,
			"key", key,
			"error", err,
		)
		return err
	}

	logger.Debug(ctx, "Kafka message sent", "topic", topic, "key", key)
	return nil
}

// Close 关闭生产者
func (kp *KafkaProducer) Close() error {
	return kp.writer.Close()
}

// Message Kafka 消息结构
type Message struct {
	Topic     string
	Partition int
	Offset    int64
	Key       string
	Value     []byte
	Time      time.Time
}

// UnmarshalPayload 将消息值解析为 JSON
func (m *Message) UnmarshalPayload(dest interface{}) error {
	return json.Unmarshal(m.Value, dest)
}

// Handler 消息处理函数，返回错误时消息转入死信队列（若配置）
type Handler func(ctx context.Context, msg *Message) error

// KafkaConsumer Kafka 消费者
type KafkaConsumer struct {
	reader *kafka.Reader
	dlq    *KafkaProducer
	config KafkaConfig
}

// NewConsumer 创建 Kafka 消费者，订阅一组主题
func NewConsumer(cfg KafkaConfig, topics []string) (*KafkaConsumer, error) {
	if len(topics) == 0 {
		return nil, fmt.Errorf("at least one topic is required")
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		GroupTopics:    topics,
		GroupID:        cfg.GroupID,
		SessionTimeout: time.Duration(cfg.SessionTimeout) * time.Second,
		CommitInterval: time.Second,
		StartOffset:    kafka.LastOffset,
		MaxBytes:       10e6,
	})

	var dlq *KafkaProducer
	if cfg.DeadLetterTopic != "" {
		producer, err := NewProducer(cfg)
		if err != nil {
			return nil, err
		}
		dlq = producer
	}

	logger.Info(context.Background(), "Kafka consumer created successfully",
		"brokers", cfg.Brokers,
		"topics", topics,
		"group_id", cfg.GroupID,
	)
	return &KafkaConsumer{
		reader: reader,
		dlq:    dlq,
		config: cfg,
	}, nil
}

// ReadMessage 读取单条消息
func (kc *KafkaConsumer) ReadMessage(ctx context.Context) (*Message, error) {
	msg, err := kc.reader.ReadMessage(ctx)
	if err != nil {
		return nil, err
	}

	return &Message{
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Key:       string(msg.Key),
		Value:     msg.Value,
		Time:      msg.Time,
	}, nil
}

// Run 消费循环，阻塞直到 ctx 取消。处理失败的消息发往死信主题后继续消费。
func (kc *KafkaConsumer) Run(ctx context.Context, handler Handler) error {
	for {
		msg, err := kc.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				return nil
			}
			logger.Error(ctx, "Failed to read Kafka message", "error", err)
			continue
		}

		if err := handler(ctx, msg); err != nil {
			logger.Error(ctx, "Failed to handle Kafka message",
				"topic", msg.Topic,
				"key", msg.Key,
				"offset", msg.Offset,
				"error", err,
			)
			if kc.dlq != nil {
				if dlqErr := kc.sendToDeadLetter(ctx, msg, err); dlqErr != nil {
					logger.Error(ctx, "Failed to send message to dead letter topic", "error", dlqErr)
				}
			}
		}
	}
}

// sendToDeadLetter 将失败消息连同失败原因写入死信主题
func (kc *KafkaConsumer) sendToDeadLetter(ctx context.Context, msg *Message, cause error) error {
	deadLetter := map[string]interface{}{
		"original_topic":    msg.Topic,
		"original_key":      msg.Key,
		"original_value":    string(msg.Value),
		"original_offset":   msg.Offset,
		"original_time":     msg.Time,
		"failure_error":     cause.Error(),
		"failure_timestamp": time.Now(),
	}
	return kc.dlq.SendMessage(ctx, kc.config.DeadLetterTopic, msg.Key, deadLetter)
}

// Close 关闭消费者
func (kc *KafkaConsumer) Close() error {
	if kc.dlq != nil {
		kc.dlq.Close()
	}
	return kc.reader.Close()
}
